// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Provider string
	APIKey   string
	// BaseURL overrides the provider endpoint, mostly for proxies and tests.
	BaseURL string
	Model   string

	// Generation parameters are fixed per process, never taken from the request.
	MaxTokens   int
	Temperature float32

	// Timeout bounds a single completion call.
	Timeout time.Duration
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported completion provider %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key for %s is required", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderOpenAI,
		Model:       "gpt-4o-mini",
		MaxTokens:   1024,
		Temperature: 0.7,
		Timeout:     30 * time.Second,
	}
}
