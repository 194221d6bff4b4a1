package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrProviderNotConfigured = errors.New("llm provider not configured")

type DispatchOptions struct {
	Provider        string // explicit provider name; wins over model routing
	Model           string
	StreamRequested bool
}

// Response is either a live stream or a whole completion, never both.
type Response struct {
	Provider   string
	Model      string
	Streamed   bool
	Stream     DeltaStream
	Completion *Completion
}

// Dispatcher sends a prompt to the provider that serves the requested model.
type Dispatcher struct {
	providers       map[string]LLMProvider
	defaultProvider string
}

func NewDispatcher(defaultProvider string, providers ...LLMProvider) *Dispatcher {
	d := &Dispatcher{providers: make(map[string]LLMProvider, len(providers)), defaultProvider: defaultProvider}
	for _, p := range providers {
		d.providers[p.Name()] = p
	}
	return d
}

var modelPrefixes = []struct {
	prefix   string
	provider string
}{
	{"gpt", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"o4", "openai"},
	{"claude", "anthropic"},
	{"sonar", "perplexity"},
	{"gemini", "gemini"},
}

// ProviderForModel maps a model name to its provider, or "" when unknown.
func ProviderForModel(model string) string {
	m := strings.ToLower(model)
	for _, mp := range modelPrefixes {
		if strings.HasPrefix(m, mp.prefix) {
			return mp.provider
		}
	}
	return ""
}

func (d *Dispatcher) Resolve(opts DispatchOptions) (LLMProvider, error) {
	name := opts.Provider
	if name == "" {
		name = ProviderForModel(opts.Model)
	}
	if name == "" {
		name = d.defaultProvider
	}
	p, ok := d.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, name)
	}
	return p, nil
}

// WillStream reports whether a request with opts would be streamed.
func (d *Dispatcher) WillStream(opts DispatchOptions) bool {
	p, err := d.Resolve(opts)
	if err != nil {
		return false
	}
	return opts.StreamRequested && !prefersSingleShot(p)
}

// Dispatch streams when asked unless the provider prefers single-shot, in
// which case it silently downgrades. Errors, including ProviderError, end the turn.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt Prompt, opts DispatchOptions) (*Response, error) {
	p, err := d.Resolve(opts)
	if err != nil {
		return nil, err
	}

	var callOpts []Option
	if opts.Model != "" && ProviderForModel(opts.Model) == p.Name() {
		callOpts = append(callOpts, WithModel(opts.Model))
	}

	resp := &Response{Provider: p.Name(), Model: opts.Model}
	if opts.StreamRequested && !prefersSingleShot(p) {
		stream, err := p.ChatStream(ctx, prompt, callOpts...)
		if err != nil {
			return nil, err
		}
		resp.Streamed = true
		resp.Stream = stream
		return resp, nil
	}

	completion, err := p.Chat(ctx, prompt, callOpts...)
	if err != nil {
		return nil, err
	}
	resp.Completion = completion
	return resp, nil
}

func prefersSingleShot(p LLMProvider) bool {
	s, ok := p.(SingleShotPreferrer)
	return ok && s.PrefersSingleShot()
}
