package factory

import (
	"civic-assistant-be/internal/config"
	"civic-assistant-be/pkg/llm"
	"civic-assistant-be/pkg/llm/anthropic"
	"civic-assistant-be/pkg/llm/gemini"
	"civic-assistant-be/pkg/llm/ollama"
	"civic-assistant-be/pkg/llm/openai"
	"civic-assistant-be/pkg/llm/perplexity"
	"fmt"
)

func NewLLMProvider(providerType string, cfg *config.Config) (llm.LLMProvider, error) {
	ai := cfg.Ai
	switch providerType {
	case openai.Name:
		return openai.NewOpenAIProvider(cfg.Keys.OpenAI, "", modelFor(openai.Name, ai), ai.MaxTokens, ai.Temperature), nil
	case anthropic.Name:
		return anthropic.NewAnthropicProvider(cfg.Keys.Anthropic, "", modelFor(anthropic.Name, ai), ai.MaxTokens, ai.Temperature), nil
	case perplexity.Name:
		return perplexity.NewPerplexityProvider(cfg.Keys.Perplexity, "", modelFor(perplexity.Name, ai), ai.MaxTokens, ai.Temperature), nil
	case gemini.Name:
		return gemini.NewGeminiProvider(cfg.Keys.GoogleGemini, modelFor(gemini.Name, ai), ai.MaxTokens, ai.Temperature), nil
	case ollama.Name:
		baseURL := ai.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, ai.OllamaChatModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

// NewDispatcher registers every provider that has credentials, plus Ollama
// which needs none.
func NewDispatcher(cfg *config.Config) (*llm.Dispatcher, error) {
	keys := map[string]string{
		openai.Name:     cfg.Keys.OpenAI,
		anthropic.Name:  cfg.Keys.Anthropic,
		perplexity.Name: cfg.Keys.Perplexity,
		gemini.Name:     cfg.Keys.GoogleGemini,
		ollama.Name:     "local",
	}

	var providers []llm.LLMProvider
	for _, name := range []string{openai.Name, anthropic.Name, perplexity.Name, gemini.Name, ollama.Name} {
		if keys[name] == "" {
			continue
		}
		p, err := NewLLMProvider(name, cfg)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if _, ok := keys[cfg.Ai.LLMProvider]; !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Ai.LLMProvider)
	}
	return llm.NewDispatcher(cfg.Ai.LLMProvider, providers...), nil
}

// modelFor uses the configured model only when it belongs to the provider.
func modelFor(provider string, ai config.AIConfig) string {
	if llm.ProviderForModel(ai.LLMModel) == provider {
		return ai.LLMModel
	}
	return ""
}
