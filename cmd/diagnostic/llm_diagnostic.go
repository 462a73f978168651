// File: cmd/diagnostic/llm_diagnostic.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/archpointlabs/milo/internal/config"
	"github.com/archpointlabs/milo/internal/domain"
	"github.com/archpointlabs/milo/internal/services/ai"
	"github.com/archpointlabs/milo/internal/services/prompt"
)

type stdLogger struct{}

func (stdLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Println(append([]interface{}{"WARN", msg}, keysAndValues...)...)
}

// Sends one question through the configured completion provider with the
// resolved persona, so keys and prompt file can be checked before deploying.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	aiConfig := ai.DefaultConfig()
	aiConfig.Provider = cfg.LLMProvider
	aiConfig.MaxTokens = cfg.LLMMaxTokens
	aiConfig.Temperature = cfg.LLMTemperature
	aiConfig.Timeout = cfg.ChatTimeout
	if cfg.LLMProvider == ai.ProviderGemini {
		aiConfig.APIKey = cfg.GeminiAPIKey
		aiConfig.Model = cfg.GeminiModel
	} else {
		aiConfig.APIKey = cfg.OpenAIAPIKey
		aiConfig.BaseURL = cfg.OpenAIBaseURL
		aiConfig.Model = cfg.OpenAIModel
	}

	fmt.Printf("Testing %s (%s)...\n", aiConfig.Provider, aiConfig.Model)

	ctx, cancel := context.WithTimeout(context.Background(), aiConfig.Timeout)
	defer cancel()

	provider, err := ai.NewProvider(ctx, aiConfig)
	if err != nil {
		log.Fatalf("Provider setup failed: %v", err)
	}

	systemPrompt := prompt.Resolve(cfg.SystemPromptPath, cfg.SystemPromptMarker, stdLogger{})
	fmt.Printf("System prompt: %d characters\n", len(systemPrompt))

	start := time.Now()
	reply, err := provider.Complete(ctx, systemPrompt, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "Hi Milo, what does Archpoint Labs do?"},
	})
	if err != nil {
		log.Fatalf("Completion failed: %v", err)
	}

	fmt.Printf("Response in %s:\n%s\n", time.Since(start).Round(time.Millisecond), reply)
}
