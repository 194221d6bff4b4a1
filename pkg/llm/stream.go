package llm

import (
	"bufio"
	"bytes"
	"io"
)

// DecodeFunc turns one payload line into a text increment. done marks the
// provider's own terminal frame.
type DecodeFunc func(payload []byte) (delta string, done bool, err error)

const maxLineSize = 1 << 20

type lineStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	decode  DecodeFunc
	sse     bool

	delta string
	err   error
	done  bool
}

// NewSSEStream reads server-sent events: only "data:" lines are decoded and a
// "[DONE]" payload ends the stream.
func NewSSEStream(body io.ReadCloser, decode DecodeFunc) DeltaStream {
	return newLineStream(body, decode, true)
}

// NewNDJSONStream reads one JSON document per line.
func NewNDJSONStream(body io.ReadCloser, decode DecodeFunc) DeltaStream {
	return newLineStream(body, decode, false)
}

func newLineStream(body io.ReadCloser, decode DecodeFunc, sse bool) *lineStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineStream{body: body, scanner: scanner, decode: decode, sse: sse}
}

func (s *lineStream) Next() bool {
	for !s.done && s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if s.sse {
			if !bytes.HasPrefix(line, []byte("data:")) {
				continue
			}
			line = bytes.TrimSpace(line[len("data:"):])
			if string(line) == "[DONE]" {
				s.done = true
				return false
			}
		}

		delta, done, err := s.decode(line)
		if err != nil {
			s.err = err
			s.done = true
			return false
		}
		if done {
			s.done = true
		}
		if delta != "" {
			s.delta = delta
			return true
		}
	}
	if !s.done {
		s.err = s.scanner.Err()
		s.done = true
	}
	return false
}

func (s *lineStream) Delta() string { return s.delta }
func (s *lineStream) Err() error    { return s.err }
func (s *lineStream) Close() error  { return s.body.Close() }

// sdkStream is the iterator shape shared by the OpenAI and Anthropic SDK streams.
type sdkStream[T any] interface {
	Next() bool
	Current() T
	Err() error
	Close() error
}

type sdkDeltaStream[T any] struct {
	s       sdkStream[T]
	pick    func(T) string
	wrapErr func(error) error
	pending bool
	delta   string
}

// NewSDKStream adapts an SDK event stream. The first event is read eagerly so
// that a rejected request surfaces as an error here rather than mid-stream.
func NewSDKStream[T any](s sdkStream[T], pick func(T) string, wrapErr func(error) error) (DeltaStream, error) {
	if wrapErr == nil {
		wrapErr = func(err error) error { return err }
	}
	pending := s.Next()
	if !pending {
		if err := s.Err(); err != nil {
			_ = s.Close()
			return nil, wrapErr(err)
		}
	}
	return &sdkDeltaStream[T]{s: s, pick: pick, wrapErr: wrapErr, pending: pending}, nil
}

func (a *sdkDeltaStream[T]) Next() bool {
	for {
		if a.pending {
			a.pending = false
		} else if !a.s.Next() {
			return false
		}
		if d := a.pick(a.s.Current()); d != "" {
			a.delta = d
			return true
		}
	}
}

func (a *sdkDeltaStream[T]) Delta() string { return a.delta }

func (a *sdkDeltaStream[T]) Err() error {
	if err := a.s.Err(); err != nil {
		return a.wrapErr(err)
	}
	return nil
}

func (a *sdkDeltaStream[T]) Close() error { return a.s.Close() }

// SliceStream replays fixed deltas. Used for single-shot answers rendered
// through the streaming path and by tests.
type SliceStream struct {
	deltas []string
	i      int
	err    error
}

func NewSliceStream(deltas []string, err error) *SliceStream {
	return &SliceStream{deltas: deltas, i: -1, err: err}
}

func (s *SliceStream) Next() bool {
	if s.i+1 >= len(s.deltas) {
		return false
	}
	s.i++
	return true
}

func (s *SliceStream) Delta() string { return s.deltas[s.i] }

func (s *SliceStream) Err() error {
	if s.i+1 >= len(s.deltas) {
		return s.err
	}
	return nil
}

func (s *SliceStream) Close() error { return nil }
