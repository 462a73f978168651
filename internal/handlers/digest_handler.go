package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/archpointlabs/milo/internal/services"
	"github.com/archpointlabs/milo/internal/services/digest"
)

// DigestBuilder is satisfied by *digest.Aggregator.
type DigestBuilder interface {
	BuildDigest(ctx context.Context, now time.Time) (*digest.Report, error)
}

// digestRunTimeout bounds a run once it is detached from the request.
const digestRunTimeout = 2 * time.Minute

type DigestHandler struct {
	builder    DigestBuilder
	secret     string
	production bool
	logger     services.Logger
	now        func() time.Time
	timeout    time.Duration
}

func NewDigestHandler(builder DigestBuilder, secret string, production bool, logger services.Logger) *DigestHandler {
	return &DigestHandler{builder: builder, secret: secret, production: production, logger: logger, now: time.Now, timeout: digestRunTimeout}
}

type digestResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message,omitempty"`
	ConversationCount int    `json:"conversationCount"`
	Error             string `json:"error,omitempty"`
}

// TriggerDigest is the scheduler entry point. When a secret is configured
// the request must carry "Authorization: Bearer <secret>".
func (h *DigestHandler) TriggerDigest(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !secretMatches(token, h.secret) {
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}
	h.run(w, r)
}

// TriggerDigestManual is for manual runs. In production it requires
// ?secret=<secret> and is refused outright when no secret is configured.
func (h *DigestHandler) TriggerDigestManual(w http.ResponseWriter, r *http.Request) {
	if h.production {
		if h.secret == "" || !secretMatches(r.URL.Query().Get("secret"), h.secret) {
			writeError(w, "Not available in production without secret", http.StatusForbidden)
			return
		}
	}
	h.run(w, r)
}

// run keeps going if the caller hangs up so a send in flight is not cut off.
func (h *DigestHandler) run(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()

	report, err := h.builder.BuildDigest(ctx, h.now())
	if err != nil {
		h.logger.Error("Error in send-digest endpoint", "error", err)
		writeJSON(w, http.StatusInternalServerError, digestResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, digestResponse{
		Success:           true,
		Message:           report.Message,
		ConversationCount: report.Count,
	})
}

func secretMatches(given, want string) bool {
	return subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}
