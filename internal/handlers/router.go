package handlers

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/archpointlabs/milo/internal/middleware"
	"github.com/archpointlabs/milo/internal/ratelimit"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Chat          *ChatHandler
	Conversations *ConversationHandler
	Digest        *DigestHandler
	Log           *LogHandler
	Health        *HealthHandler

	// ChatLimiter throttles /chat per client. Nil disables limiting.
	ChatLimiter *ratelimit.Limiter
}

// NewRouter mounts every route at the root and again under /api.
func NewRouter(h Handlers, logger zerolog.Logger, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RecoverPanic(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)

	var chat http.Handler = http.HandlerFunc(h.Chat.HandleChat)
	if h.ChatLimiter != nil {
		chat = middleware.RateLimit(h.ChatLimiter)(chat)
	}

	mount := func(s *mux.Router) {
		s.Handle("/chat", chat).Methods(http.MethodPost)
		s.HandleFunc("/conversations", h.Conversations.ListConversations).Methods(http.MethodGet)
		s.HandleFunc("/conversations/export", h.Conversations.ExportConversationsCSV).Methods(http.MethodGet)
		s.HandleFunc("/send-digest", h.Digest.TriggerDigest).Methods(http.MethodPost)
		s.HandleFunc("/send-digest", h.Digest.TriggerDigestManual).Methods(http.MethodGet)
		s.HandleFunc("/log", h.Log.LogFrontendEvent).Methods(http.MethodPost)
	}
	mount(r.PathPrefix("/api").Subrouter())
	mount(r)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
	return c.Handler(r)
}
