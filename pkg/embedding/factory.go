package embedding

import "fmt"

// Options selects and configures a Provider.
type Options struct {
	Provider      string // "openai", "ollama" or "fake"
	Dimensions    int
	OpenAIBaseURL string
	OpenAIKey     string
	OpenAIModel   string
	OllamaBaseURL string
	OllamaModel   string
}

func NewProvider(opts Options) (Provider, error) {
	switch opts.Provider {
	case "openai":
		if opts.OpenAIKey == "" {
			return nil, fmt.Errorf("embedding: openai provider requires an API key")
		}
		return NewOpenAIProvider(opts.OpenAIBaseURL, opts.OpenAIKey, opts.OpenAIModel, opts.Dimensions), nil
	case "ollama":
		return NewOllamaProvider(opts.OllamaBaseURL, opts.OllamaModel, opts.Dimensions), nil
	case "fake", "":
		return NewFakeProvider(opts.Dimensions), nil
	default:
		return nil, fmt.Errorf("embedding: unsupported provider %q", opts.Provider)
	}
}
