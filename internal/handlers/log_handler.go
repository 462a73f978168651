package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/archpointlabs/milo/internal/middleware"
	"github.com/archpointlabs/milo/internal/services"
)

const maxLogBody = 16 << 10

// FrontendLogPayload defines the structure for logs coming from the widget.
type FrontendLogPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Context any    `json:"context,omitempty"`
}

type LogHandler struct {
	logger services.Logger
}

func NewLogHandler(logger services.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

// LogFrontendEvent forwards a browser-side log line into the server log.
func (h *LogHandler) LogFrontendEvent(w http.ResponseWriter, r *http.Request) {
	var payload FrontendLogPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLogBody)).Decode(&payload); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kv := []interface{}{"source", "client", "client_ip", middleware.ClientIP(r), "context", payload.Context}
	switch strings.ToLower(payload.Level) {
	case "error":
		h.logger.Error(payload.Message, kv...)
	case "warn", "warning":
		h.logger.Warn(payload.Message, kv...)
	case "debug":
		h.logger.Debug(payload.Message, kv...)
	default:
		h.logger.Info(payload.Message, kv...)
	}

	w.WriteHeader(http.StatusNoContent)
}
