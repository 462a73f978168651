package ai

import (
	"context"

	"github.com/archpointlabs/milo/internal/domain"
)

// CompletionProvider turns a system prompt and chat history into one reply.
// Implementations return ErrNoContent when the reply is empty.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt string, messages []domain.ChatMessage) (string, error)
}

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(ctx context.Context, cfg *Config) (CompletionProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg)
	default:
		return NewOpenAIProvider(cfg), nil
	}
}
