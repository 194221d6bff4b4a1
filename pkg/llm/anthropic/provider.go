package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"civic-assistant-be/pkg/llm"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const (
	Name             = "anthropic"
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 2048
)

type AnthropicProvider struct {
	client   anthropic.Client
	defaults llm.Options
}

var _ llm.LLMProvider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, baseURL, model string, maxTokens int, temperature float64) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnthropicProvider{
		client:   anthropic.NewClient(opts...),
		defaults: llm.Options{Model: model, MaxTokens: maxTokens, Temperature: temperature},
	}
}

func (p *AnthropicProvider) Name() string { return Name }

func (p *AnthropicProvider) params(prompt llm.Prompt, opts ...llm.Option) anthropic.MessageNewParams {
	o := llm.ApplyOptions(p.defaults, opts...)

	messages := make([]anthropic.MessageParam, 0, len(prompt.Messages))
	for _, m := range prompt.Messages {
		if m.Role == llm.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(o.Model),
		Messages:  messages,
		MaxTokens: int64(o.MaxTokens),
	}
	if prompt.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt.System}}
	}
	if o.Temperature > 0 {
		params.Temperature = param.NewOpt(o.Temperature)
	}
	return params
}

func (p *AnthropicProvider) Chat(ctx context.Context, prompt llm.Prompt, opts ...llm.Option) (*llm.Completion, error) {
	msg, err := p.client.Messages.New(ctx, p.params(prompt, opts...))
	if err != nil {
		return nil, wrapError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return &llm.Completion{Text: sb.String()}, nil
}

func (p *AnthropicProvider) ChatStream(ctx context.Context, prompt llm.Prompt, opts ...llm.Option) (llm.DeltaStream, error) {
	stream := p.client.Messages.NewStreaming(ctx, p.params(prompt, opts...))
	return llm.NewSDKStream[anthropic.MessageStreamEventUnion](stream, func(event anthropic.MessageStreamEventUnion) string {
		if event.Type != "content_block_delta" {
			return ""
		}
		delta := event.AsContentBlockDelta().Delta
		if delta.Type != "text_delta" {
			return ""
		}
		return delta.Text
	}, wrapError)
}

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{Provider: Name, Status: apiErr.StatusCode, Body: apiErr.Error()}
	}
	return fmt.Errorf("anthropic request failed: %w", err)
}
