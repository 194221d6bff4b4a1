package llm

import (
	"context"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant"
	Content string
}

// Prompt is a system text plus the ordered conversation. History is never
// flattened into System.
type Prompt struct {
	System   string
	Messages []Message
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// ApplyOptions resolves opts over the given defaults.
func ApplyOptions(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// Citation is a numbered source reported by the provider itself.
type Citation struct {
	Number int
	URL    string
	Title  string
}

// Completion is a whole, single-shot answer.
type Completion struct {
	Text      string
	Citations []Citation
}

// DeltaStream yields text increments in arrival order. Next blocks until the
// next increment, the end of the stream or a read failure (see Err).
type DeltaStream interface {
	Next() bool
	Delta() string
	Err() error
	Close() error
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	Name() string

	// Chat sends the prompt and waits for the whole answer
	Chat(ctx context.Context, prompt Prompt, options ...Option) (*Completion, error)

	// ChatStream sends the prompt and returns the answer as it is generated.
	// A non-success status is returned as an error before any delta is read.
	ChatStream(ctx context.Context, prompt Prompt, options ...Option) (DeltaStream, error)
}

// SingleShotPreferrer is implemented by providers whose streamed answers are
// worse than their single-shot ones; the dispatcher never streams them.
type SingleShotPreferrer interface {
	PrefersSingleShot() bool
}

// ProviderError is a non-success response from a provider. It ends the turn.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error: status %d, body: %s", e.Provider, e.Status, e.Body)
}
