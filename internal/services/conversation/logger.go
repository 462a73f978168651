// Package conversation records finished chat exchanges and serves them to the admin surface.
package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/archpointlabs/milo/internal/domain"
	"github.com/archpointlabs/milo/internal/metrics"
	convrepo "github.com/archpointlabs/milo/internal/repository/conversation"
)

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// RequestInfo carries best-effort client metadata. Blank fields are stored as "unknown".
type RequestInfo struct {
	IP        string
	UserAgent string
}

// Recorder writes one conversation record per call without blocking the
// caller. Failures are logged and dropped, never retried.
type Recorder struct {
	repo    convrepo.ConversationRepository
	logger  Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRecorder(repo convrepo.ConversationRepository, logger Logger, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Recorder{repo: repo, logger: logger, timeout: timeout}
}

// Log dispatches the insert and returns immediately. The write survives
// cancellation of ctx.
func (r *Recorder) Log(ctx context.Context, sessionID string, messages []domain.ChatMessage, aiResponse string, info RequestInfo) {
	writeCtx := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.write(writeCtx, sessionID, messages, aiResponse, info)
	}()
}

// Wait blocks until every dispatched write has settled. Used on shutdown and in tests.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) write(ctx context.Context, sessionID string, messages []domain.ChatMessage, aiResponse string, info RequestInfo) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.ConversationsLogged.WithLabelValues(metrics.OutcomeError).Inc()
			r.logger.Error("Panic while logging conversation", "session_id", sessionID, "panic", fmt.Sprint(rec))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	conv, err := domain.NewConversation(sessionID, messages, aiResponse, info.IP, info.UserAgent)
	if err == nil {
		err = r.repo.Create(ctx, conv)
	}
	if err != nil {
		metrics.ConversationsLogged.WithLabelValues(metrics.OutcomeError).Inc()
		r.logger.Error("Error logging conversation", "session_id", sessionID, "error", err)
		return
	}

	metrics.ConversationsLogged.WithLabelValues(metrics.OutcomeOK).Inc()
	r.logger.Info("Conversation logged", "session_id", sessionID, "id", conv.ID, "message_count", conv.MessageCount)
}
