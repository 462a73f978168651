// File: internal/handlers/chat_handler.go
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/archpointlabs/milo/internal/domain"
	"github.com/archpointlabs/milo/internal/middleware"
	"github.com/archpointlabs/milo/internal/services"
	"github.com/archpointlabs/milo/internal/services/ai"
	"github.com/archpointlabs/milo/internal/services/chat"
	"github.com/archpointlabs/milo/internal/services/conversation"
)

const maxChatBody = 1 << 20

const (
	msgUnavailable = "Milo is temporarily unavailable. Please try again in a moment."
	msgNoReply     = "Milo could not come up with a reply. Please try again."
)

// Completer is satisfied by *ai.Gateway.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, messages []domain.ChatMessage) (string, error)
}

// ConversationRecorder is satisfied by *conversation.Recorder.
type ConversationRecorder interface {
	Log(ctx context.Context, sessionID string, messages []domain.ChatMessage, aiResponse string, info conversation.RequestInfo)
}

type ChatHandler struct {
	completer    Completer
	recorder     ConversationRecorder
	systemPrompt string
	logger       services.Logger
}

func NewChatHandler(completer Completer, recorder ConversationRecorder, systemPrompt string, logger services.Logger) *ChatHandler {
	return &ChatHandler{
		completer:    completer,
		recorder:     recorder,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

type chatResponse struct {
	Message string `json:"message"`
}

// HandleChat validates the turn, asks the model for a reply and returns it.
// The exchange is logged after the reply is written.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChatBody))
	if err != nil {
		writeError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	req, err := chat.Validate(body)
	if err != nil {
		var reqErr *chat.RequestError
		if errors.As(err, &reqErr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": reqErr.Message,
				"kind":  string(reqErr.Type),
			})
			return
		}
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	reply, err := h.completer.Complete(r.Context(), h.systemPrompt, req.Messages)
	if err != nil {
		status, message := http.StatusInternalServerError, msgNoReply
		var gwErr *ai.GatewayError
		if errors.As(err, &gwErr) {
			status = gwErr.StatusCode()
			if status == http.StatusServiceUnavailable {
				message = msgUnavailable
			}
		}
		h.logger.Warn("Chat completion failed", "session_id", req.SessionID, "status", status, "error", err)
		writeError(w, message, status)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Message: reply})

	h.recorder.Log(r.Context(), req.SessionID, req.Messages, reply, conversation.RequestInfo{
		IP:        middleware.ClientIP(r),
		UserAgent: middleware.UserAgent(r),
	})
}
