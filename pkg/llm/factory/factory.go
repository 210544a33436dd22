package factory

import (
	"fmt"

	"vehicle-rag-be/pkg/llm"
	"vehicle-rag-be/pkg/llm/ollama"
	"vehicle-rag-be/pkg/llm/openai"
)

type Options struct {
	Provider string // "openai", "ollama" or "none"
	Model    string
	BaseURL  string
	APIKey   string
	Breaker  *llm.BreakerConfig
}

// NewLLMProvider returns (nil, nil) for "none": callers treat a nil provider
// as "no model configured".
func NewLLMProvider(opts Options) (llm.LLMProvider, error) {
	var provider llm.LLMProvider

	switch opts.Provider {
	case "none", "":
		return nil, nil
	case "openai":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai LLM provider requires an API key")
		}
		provider = openai.NewOpenAIProvider(opts.APIKey, opts.BaseURL, opts.Model)
	case "ollama":
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		provider = ollama.NewOllamaProvider(baseURL, opts.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", opts.Provider)
	}

	if opts.Breaker != nil {
		cfg := *opts.Breaker
		if cfg.Name == "" {
			cfg.Name = "llm-" + opts.Provider
		}
		provider = llm.NewBreakerProvider(provider, cfg)
	}
	return provider, nil
}
