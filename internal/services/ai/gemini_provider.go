package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/archpointlabs/milo/internal/domain"
)

// continuePrompt is sent when the history does not end on a user turn.
const continuePrompt = "Please continue the conversation."

type GeminiProvider struct {
	config *Config
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, config *Config) (*GeminiProvider, error) {
	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{config: config, client: client}, nil
}

func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

func (p *GeminiProvider) Complete(ctx context.Context, systemPrompt string, messages []domain.ChatMessage) (string, error) {
	// A fresh model per call keeps SystemInstruction request-local.
	model := p.client.GenerativeModel(p.config.Model)
	model.SetTemperature(p.config.Temperature)
	model.SetMaxOutputTokens(int32(p.config.MaxTokens))

	instruction, history, prompt := splitGeminiHistory(systemPrompt, messages)
	if instruction != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}

	text := geminiText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrNoContent
	}
	return text, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// splitGeminiHistory folds system turns into the instruction, maps assistant
// turns to the "model" role and pulls out the final user turn to send.
func splitGeminiHistory(systemPrompt string, messages []domain.ChatMessage) (string, []*genai.Content, string) {
	instruction := []string{}
	if systemPrompt != "" {
		instruction = append(instruction, systemPrompt)
	}

	history := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		switch m.Role {
		case domain.RoleSystem:
			instruction = append(instruction, m.Content)
			continue
		case domain.RoleAssistant:
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	prompt := continuePrompt
	if n := len(history); n > 0 && history[n-1].Role == "user" {
		if text, ok := history[n-1].Parts[0].(genai.Text); ok {
			prompt = string(text)
			history = history[:n-1]
		}
	}
	return strings.Join(instruction, "\n\n"), history, prompt
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
