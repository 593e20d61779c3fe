package llm

import (
	"fmt"
	"os"
)

// Default models per provider, used when none is configured.
var defaultModels = map[string]string{
	"openai": "gpt-4o-mini",
	"google": "gemini-2.0-flash",
	"ollama": "llama3.2",
}

// DefaultModel returns the model used for providerType when none is set.
func DefaultModel(providerType string) string { return defaultModels[providerType] }

// NewProvider creates a provider by name. Credentials come from the
// environment: OPENAI_API_KEY, GEMINI_API_KEY (or GOOGLE_API_KEY) and
// OLLAMA_HOST. "none" or an empty name yields ErrNotConfigured.
func NewProvider(providerType string, model string) (Provider, error) {
	if model == "" {
		model = DefaultModel(providerType)
	}

	switch providerType {
	case "", "none":
		return nil, ErrNotConfigured

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model, os.Getenv("OPENAI_BASE_URL")), nil

	case "google":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
		return NewGoogleProvider(apiKey, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// NewFromConfig builds the provider and wraps it in a rate limiter when rpm
// is positive.
func NewFromConfig(providerType, model string, rpm int) (Provider, error) {
	p, err := NewProvider(providerType, model)
	if err != nil {
		return nil, err
	}
	if rpm > 0 {
		p = NewRateLimitedProvider(p, rpm)
	}
	return p, nil
}
