package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/archpointlabs/milo/internal/domain"
	"github.com/archpointlabs/milo/internal/metrics"
)

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Gateway bounds provider calls with a timeout and classifies failures
// into GatewayError. It never touches storage.
type Gateway struct {
	provider CompletionProvider
	timeout  time.Duration
	logger   Logger
}

func NewGateway(provider CompletionProvider, config *Config, logger Logger) *Gateway {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Gateway{provider: provider, timeout: timeout, logger: logger}
}

// Complete returns the provider's reply text or a *GatewayError.
func (g *Gateway) Complete(ctx context.Context, systemPrompt string, messages []domain.ChatMessage) (string, error) {
	name := g.provider.Name()
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.provider.Complete(callCtx, systemPrompt, messages)
	metrics.CompletionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrNoContent
	}
	if err != nil {
		gwErr := classify(name, callCtx, err)
		metrics.CompletionsTotal.WithLabelValues(name, strings.ToLower(string(gwErr.Type))).Inc()
		g.logger.Error("Completion failed",
			"provider", name,
			"type", string(gwErr.Type),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return "", gwErr
	}

	metrics.CompletionsTotal.WithLabelValues(name, metrics.OutcomeOK).Inc()
	g.logger.Debug("Completion succeeded", "provider", name, "duration_ms", time.Since(start).Milliseconds())
	return text, nil
}

func classify(provider string, callCtx context.Context, err error) *GatewayError {
	switch {
	case errors.Is(err, ErrNoContent):
		return NewEmptyCompletionError(provider)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return NewTimeoutError(provider, err)
	default:
		return NewProviderUnavailableError(provider, err)
	}
}
