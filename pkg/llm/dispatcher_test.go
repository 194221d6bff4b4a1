package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name        string
	singleShot  bool
	chatCalls   int
	streamCalls int
	lastModel   string
	err         error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Chat(_ context.Context, _ Prompt, opts ...Option) (*Completion, error) {
	f.chatCalls++
	f.lastModel = ApplyOptions(Options{}, opts...).Model
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Text: "whole"}, nil
}

func (f *fakeProvider) ChatStream(_ context.Context, _ Prompt, opts ...Option) (DeltaStream, error) {
	f.streamCalls++
	f.lastModel = ApplyOptions(Options{}, opts...).Model
	if f.err != nil {
		return nil, f.err
	}
	return NewSliceStream([]string{"par", "tial"}, nil), nil
}

type singleShotProvider struct{ *fakeProvider }

func (s singleShotProvider) PrefersSingleShot() bool { return true }

func TestProviderForModel(t *testing.T) {
	tests := map[string]string{
		"gpt-4o-mini":       "openai",
		"o3-mini":           "openai",
		"claude-sonnet-4-5": "anthropic",
		"sonar-pro":         "perplexity",
		"gemini-1.5-flash":  "gemini",
		"llama3":            "",
		"":                  "",
	}
	for model, want := range tests {
		t.Run(model, func(t *testing.T) {
			assert.Equal(t, want, ProviderForModel(model))
		})
	}
}

func TestDispatchStreamsWhenRequested(t *testing.T) {
	openai := &fakeProvider{name: "openai"}
	d := NewDispatcher("openai", openai)

	resp, err := d.Dispatch(context.Background(), Prompt{}, DispatchOptions{Model: "gpt-4o", StreamRequested: true})

	require.NoError(t, err)
	assert.True(t, resp.Streamed)
	assert.NotNil(t, resp.Stream)
	assert.Nil(t, resp.Completion)
	assert.Equal(t, "gpt-4o", openai.lastModel)
	assert.Equal(t, 1, openai.streamCalls)
}

func TestDispatchDowngradesSingleShotProviders(t *testing.T) {
	pplx := singleShotProvider{&fakeProvider{name: "perplexity"}}
	d := NewDispatcher("openai", &fakeProvider{name: "openai"}, pplx)

	assert.False(t, d.WillStream(DispatchOptions{Model: "sonar", StreamRequested: true}))
	resp, err := d.Dispatch(context.Background(), Prompt{}, DispatchOptions{Model: "sonar", StreamRequested: true})

	require.NoError(t, err)
	assert.False(t, resp.Streamed)
	assert.Equal(t, "whole", resp.Completion.Text)
	assert.Zero(t, pplx.streamCalls)
	assert.Equal(t, 1, pplx.chatCalls)
}

func TestDispatchRouting(t *testing.T) {
	openai := &fakeProvider{name: "openai"}
	ollama := &fakeProvider{name: "ollama"}
	d := NewDispatcher("ollama", openai, ollama)

	resp, err := d.Dispatch(context.Background(), Prompt{}, DispatchOptions{Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", resp.Provider)
	assert.Empty(t, ollama.lastModel, "unknown models are not forced onto the default provider")

	resp, err = d.Dispatch(context.Background(), Prompt{}, DispatchOptions{Provider: "openai"})
	require.NoError(t, err)
	assert.Equal(t, "openai", resp.Provider)

	_, err = d.Dispatch(context.Background(), Prompt{}, DispatchOptions{Model: "claude-3"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestDispatchProviderErrorIsFatal(t *testing.T) {
	p := &fakeProvider{name: "openai", err: &ProviderError{Provider: "openai", Status: 500, Body: "oops"}}
	d := NewDispatcher("openai", p)

	_, err := d.Dispatch(context.Background(), Prompt{}, DispatchOptions{StreamRequested: true})

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 500, perr.Status)
	assert.Equal(t, 1, p.streamCalls)
	assert.Zero(t, p.chatCalls)
}
