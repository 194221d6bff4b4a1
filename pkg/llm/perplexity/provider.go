package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"civic-assistant-be/pkg/llm"
)

const (
	Name           = "perplexity"
	defaultBaseURL = "https://api.perplexity.ai"
	defaultModel   = "sonar"
)

// PerplexityProvider calls the search-augmented chat API. Its streamed answers
// carry no citation metadata, so it asks to be dispatched single-shot.
type PerplexityProvider struct {
	apiKey   string
	baseURL  string
	defaults llm.Options
	client   *http.Client
}

var (
	_ llm.LLMProvider         = &PerplexityProvider{}
	_ llm.SingleShotPreferrer = &PerplexityProvider{}
)

func NewPerplexityProvider(apiKey, baseURL, model string, maxTokens int, temperature float64) *PerplexityProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &PerplexityProvider{
		apiKey:   apiKey,
		baseURL:  baseURL,
		defaults: llm.Options{Model: model, MaxTokens: maxTokens, Temperature: temperature},
		client:   &http.Client{},
	}
}

func (p *PerplexityProvider) Name() string { return Name }

func (p *PerplexityProvider) PrefersSingleShot() bool { return true }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type searchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
		Delta   chatMessage `json:"delta"`
	} `json:"choices"`
	Citations     []string       `json:"citations"`
	SearchResults []searchResult `json:"search_results"`
}

func (p *PerplexityProvider) send(ctx context.Context, prompt llm.Prompt, stream bool, opts ...llm.Option) (*http.Response, error) {
	o := llm.ApplyOptions(p.defaults, opts...)

	messages := make([]chatMessage, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		messages = append(messages, chatMessage{Role: llm.RoleSystem, Content: prompt.System})
	}
	for _, m := range prompt.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	payload, err := json.Marshal(chatRequest{
		Model:       o.Model,
		Messages:    messages,
		Stream:      stream,
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perplexity request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, &llm.ProviderError{Provider: Name, Status: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

func (p *PerplexityProvider) Chat(ctx context.Context, prompt llm.Prompt, opts ...llm.Option) (*llm.Completion, error) {
	resp, err := p.send(ctx, prompt, false, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(body.Choices) == 0 {
		return nil, fmt.Errorf("perplexity: empty choices")
	}

	return &llm.Completion{
		Text:      body.Choices[0].Message.Content,
		Citations: citations(body),
	}, nil
}

// citations numbers sources from 1 in the order the API lists them, matching
// the [n] markers in the answer text.
func citations(body chatResponse) []llm.Citation {
	var out []llm.Citation
	if len(body.SearchResults) > 0 {
		for i, r := range body.SearchResults {
			title := r.Title
			if title == "" {
				title = r.URL
			}
			out = append(out, llm.Citation{Number: i + 1, URL: r.URL, Title: title})
		}
		return out
	}
	for i, url := range body.Citations {
		out = append(out, llm.Citation{Number: i + 1, URL: url, Title: url})
	}
	return out
}

func (p *PerplexityProvider) ChatStream(ctx context.Context, prompt llm.Prompt, opts ...llm.Option) (llm.DeltaStream, error) {
	resp, err := p.send(ctx, prompt, true, opts...)
	if err != nil {
		return nil, err
	}
	return llm.NewSSEStream(resp.Body, func(payload []byte) (string, bool, error) {
		var chunk chatResponse
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return "", false, fmt.Errorf("unmarshal chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			return "", false, nil
		}
		return chunk.Choices[0].Delta.Content, false, nil
	}), nil
}
