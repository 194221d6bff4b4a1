package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"civic-assistant-be/pkg/llm"
)

const (
	Name           = "gemini"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"

	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"
)

type GeminiChatParts struct {
	Text string `json:"text"`
}

type GeminiChatContent struct {
	Parts []*GeminiChatParts `json:"parts"`
	Role  string             `json:"role,omitempty"`
}

type GeminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type GeminiChatRequest struct {
	SystemInstruction *GeminiChatContent      `json:"systemInstruction,omitempty"`
	Contents          []*GeminiChatContent    `json:"contents"`
	GenerationConfig  *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiChatCandidate struct {
	Content *GeminiChatContent `json:"content"`
}

type GeminiChatResponse struct {
	Candidates []*GeminiChatCandidate `json:"candidates"`
}

func (r *GeminiChatResponse) text() string {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

type GeminiProvider struct {
	apiKey   string
	baseURL  string
	defaults llm.Options
	client   *http.Client
}

var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(apiKey, model string, maxTokens int, temperature float64) *GeminiProvider {
	if model == "" {
		model = defaultModel
	}
	return &GeminiProvider{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		defaults: llm.Options{Model: model, MaxTokens: maxTokens, Temperature: temperature},
		client:   &http.Client{},
	}
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func (g *GeminiProvider) WithBaseURL(baseURL string) *GeminiProvider {
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

func (g *GeminiProvider) Name() string { return Name }

func (g *GeminiProvider) send(ctx context.Context, prompt llm.Prompt, stream bool, opts ...llm.Option) (*http.Response, error) {
	o := llm.ApplyOptions(g.defaults, opts...)

	chatContents := make([]*GeminiChatContent, 0, len(prompt.Messages))
	for _, m := range prompt.Messages {
		role := ChatMessageRoleUser
		if m.Role == llm.RoleAssistant {
			role = ChatMessageRoleModel
		}
		chatContents = append(chatContents, &GeminiChatContent{
			Parts: []*GeminiChatParts{{Text: m.Content}},
			Role:  role,
		})
	}

	payload := GeminiChatRequest{
		Contents:         chatContents,
		GenerationConfig: &GeminiGenerationConfig{Temperature: o.Temperature, MaxOutputTokens: o.MaxTokens},
	}
	if prompt.System != "" {
		payload.SystemInstruction = &GeminiChatContent{Parts: []*GeminiChatParts{{Text: prompt.System}}}
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, o.Model)
	if stream {
		url = fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", g.baseURL, o.Model)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()
		resBody, _ := io.ReadAll(res.Body)
		return nil, &llm.ProviderError{Provider: Name, Status: res.StatusCode, Body: string(resBody)}
	}
	return res, nil
}

func (g *GeminiProvider) Chat(ctx context.Context, prompt llm.Prompt, opts ...llm.Option) (*llm.Completion, error) {
	res, err := g.send(ctx, prompt, false, opts...)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var geminiRes GeminiChatResponse
	if err := json.NewDecoder(res.Body).Decode(&geminiRes); err != nil {
		return nil, err
	}
	if len(geminiRes.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: no candidates returned")
	}
	return &llm.Completion{Text: geminiRes.text()}, nil
}

func (g *GeminiProvider) ChatStream(ctx context.Context, prompt llm.Prompt, opts ...llm.Option) (llm.DeltaStream, error) {
	res, err := g.send(ctx, prompt, true, opts...)
	if err != nil {
		return nil, err
	}
	return llm.NewSSEStream(res.Body, func(payload []byte) (string, bool, error) {
		var chunk GeminiChatResponse
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return "", false, err
		}
		return chunk.text(), false, nil
	}), nil
}
