package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"civic-assistant-be/pkg/llm"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

const Name = "openai"

type OpenAIProvider struct {
	client   openaisdk.Client
	defaults llm.Options
}

var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL, model string, maxTokens int, temperature float64) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = string(openaisdk.ChatModelGPT4oMini)
	}
	return &OpenAIProvider{
		client:   openaisdk.NewClient(opts...),
		defaults: llm.Options{Model: model, MaxTokens: maxTokens, Temperature: temperature},
	}
}

func (p *OpenAIProvider) Name() string { return Name }

func (p *OpenAIProvider) params(prompt llm.Prompt, opts ...llm.Option) openaisdk.ChatCompletionNewParams {
	o := llm.ApplyOptions(p.defaults, opts...)

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		messages = append(messages, openaisdk.SystemMessage(prompt.System))
	}
	for _, m := range prompt.Messages {
		if m.Role == llm.RoleAssistant {
			messages = append(messages, openaisdk.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openaisdk.UserMessage(m.Content))
		}
	}

	params := openaisdk.ChatCompletionNewParams{
		Messages: messages,
		Model:    openaisdk.ChatModel(o.Model),
	}
	if o.Temperature > 0 {
		params.Temperature = param.NewOpt(o.Temperature)
	}
	if o.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(o.MaxTokens))
	}
	return params
}

func (p *OpenAIProvider) Chat(ctx context.Context, prompt llm.Prompt, opts ...llm.Option) (*llm.Completion, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(prompt, opts...))
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices")
	}
	return &llm.Completion{Text: resp.Choices[0].Message.Content}, nil
}

func (p *OpenAIProvider) ChatStream(ctx context.Context, prompt llm.Prompt, opts ...llm.Option) (llm.DeltaStream, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(prompt, opts...))
	return llm.NewSDKStream[openaisdk.ChatCompletionChunk](stream, func(chunk openaisdk.ChatCompletionChunk) string {
		if len(chunk.Choices) == 0 {
			return ""
		}
		return chunk.Choices[0].Delta.Content
	}, wrapError)
}

func wrapError(err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{Provider: Name, Status: apiErr.StatusCode, Body: apiErr.Error()}
	}
	return fmt.Errorf("openai request failed: %w", err)
}
