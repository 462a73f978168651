// File: cmd/server/container.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/dig"
	"gorm.io/gorm"

	"github.com/archpointlabs/milo/internal/config"
	"github.com/archpointlabs/milo/internal/database"
	"github.com/archpointlabs/milo/internal/handlers"
	"github.com/archpointlabs/milo/internal/ratelimit"
	convrepo "github.com/archpointlabs/milo/internal/repository/conversation"
	"github.com/archpointlabs/milo/internal/services"
	"github.com/archpointlabs/milo/internal/services/ai"
	"github.com/archpointlabs/milo/internal/services/conversation"
	"github.com/archpointlabs/milo/internal/services/digest"
	"github.com/archpointlabs/milo/internal/services/email"
	"github.com/archpointlabs/milo/internal/services/prompt"
)

// Application is what main needs out of the container.
type Application struct {
	dig.In

	Config     *config.Config
	Logger     *services.ZeroLogger
	DB         *gorm.DB
	Router     http.Handler
	Provider   ai.CompletionProvider
	Recorder   *conversation.Recorder
	Aggregator *digest.Aggregator
	Limiter    *ratelimit.Limiter
}

// SystemPrompt keeps the resolved persona distinct from other strings in the graph.
type SystemPrompt string

// Provider functions

func ProvideLogger(logger *services.ZeroLogger) services.Logger {
	return logger
}

func ProvideDatabase(cfg *config.Config, logger services.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	if cfg.DatabaseURL != "" {
		logger.Info("Connected to Postgres")
	} else {
		logger.Info("Using SQLite database", "path", cfg.SQLitePath)
	}
	return db, nil
}

func ProvideSystemPrompt(cfg *config.Config, logger services.Logger) SystemPrompt {
	return SystemPrompt(prompt.Resolve(cfg.SystemPromptPath, cfg.SystemPromptMarker, logger))
}

func ProvideAIConfig(cfg *config.Config) *ai.Config {
	aiConfig := ai.DefaultConfig()
	aiConfig.Provider = cfg.LLMProvider
	aiConfig.MaxTokens = cfg.LLMMaxTokens
	aiConfig.Temperature = cfg.LLMTemperature
	aiConfig.Timeout = cfg.ChatTimeout
	switch cfg.LLMProvider {
	case ai.ProviderGemini:
		aiConfig.APIKey = cfg.GeminiAPIKey
		aiConfig.Model = cfg.GeminiModel
	default:
		aiConfig.APIKey = cfg.OpenAIAPIKey
		aiConfig.BaseURL = cfg.OpenAIBaseURL
		aiConfig.Model = cfg.OpenAIModel
	}
	return aiConfig
}

func ProvideCompletionProvider(aiConfig *ai.Config) (ai.CompletionProvider, error) {
	return ai.NewProvider(context.Background(), aiConfig)
}

func ProvideGateway(provider ai.CompletionProvider, aiConfig *ai.Config, logger services.Logger) *ai.Gateway {
	return ai.NewGateway(provider, aiConfig, logger)
}

func ProvideRecorder(repo convrepo.ConversationRepository, cfg *config.Config, logger services.Logger) *conversation.Recorder {
	return conversation.NewRecorder(repo, logger, cfg.LogWriteTimeout)
}

func ProvideQueryService(repo convrepo.ConversationRepository, logger services.Logger) *conversation.QueryService {
	return conversation.NewQueryService(repo, logger)
}

func ProvideEmailSender(cfg *config.Config, logger services.Logger) (email.Sender, error) {
	if cfg.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY not set; digest emails will fail")
		return email.UnconfiguredSender{}, nil
	}
	return email.NewResendSender(&email.Config{
		APIKey:  cfg.ResendAPIKey,
		Timeout: 30 * time.Second,
	})
}

func ProvideAggregator(repo convrepo.ConversationRepository, sender email.Sender, cfg *config.Config, logger services.Logger) (*digest.Aggregator, error) {
	return digest.NewAggregator(repo, sender, digest.Config{
		From:         cfg.DigestFrom,
		To:           cfg.DigestTo,
		DashboardURL: cfg.PublicBaseURL,
		Location:     cfg.Location(),
		Window:       digest.DefaultWindow,
	}, logger)
}

// ProvideChatLimiter returns nil when CHAT_RATE_LIMIT is zero.
func ProvideChatLimiter(cfg *config.Config) *ratelimit.Limiter {
	if cfg.ChatRateLimit <= 0 {
		return nil
	}
	return ratelimit.New(ratelimit.DefaultChatConfig(cfg.ChatRateLimit))
}

func ProvideHandlers(
	gateway *ai.Gateway,
	recorder *conversation.Recorder,
	query *conversation.QueryService,
	aggregator *digest.Aggregator,
	repo convrepo.ConversationRepository,
	limiter *ratelimit.Limiter,
	systemPrompt SystemPrompt,
	cfg *config.Config,
	logger services.Logger,
) handlers.Handlers {
	return handlers.Handlers{
		Chat:          handlers.NewChatHandler(gateway, recorder, string(systemPrompt), logger),
		Conversations: handlers.NewConversationHandler(query, cfg.Location(), logger),
		Digest:        handlers.NewDigestHandler(aggregator, cfg.CronSecret, cfg.IsProduction(), logger),
		Log:           handlers.NewLogHandler(logger),
		Health:        handlers.NewHealthHandler(repo),
		ChatLimiter:   limiter,
	}
}

func ProvideRouter(h handlers.Handlers, logger *services.ZeroLogger, cfg *config.Config) http.Handler {
	return handlers.NewRouter(h, logger.Zerolog(), cfg.CORSAllowedOrigins)
}

// BuildContainer registers every provider. Nothing is constructed until Invoke.
func BuildContainer(cfg *config.Config, logger *services.ZeroLogger) (*dig.Container, error) {
	container := dig.New()
	providers := []interface{}{
		func() *config.Config { return cfg },
		func() *services.ZeroLogger { return logger },
		ProvideLogger,
		ProvideDatabase,
		convrepo.NewConversationRepository,
		ProvideSystemPrompt,
		ProvideAIConfig,
		ProvideCompletionProvider,
		ProvideGateway,
		ProvideRecorder,
		ProvideQueryService,
		ProvideEmailSender,
		ProvideAggregator,
		ProvideChatLimiter,
		ProvideHandlers,
		ProvideRouter,
	}
	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return nil, fmt.Errorf("failed to register provider: %w", err)
		}
	}
	return container, nil
}

func InitializeApplication(cfg *config.Config, logger *services.ZeroLogger) (*Application, error) {
	container, err := BuildContainer(cfg, logger)
	if err != nil {
		return nil, err
	}
	var app Application
	if err := container.Invoke(func(a Application) { app = a }); err != nil {
		return nil, dig.RootCause(err)
	}
	return &app, nil
}
