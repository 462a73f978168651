// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "milo_http_requests_total",
		Help: "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "milo_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	CompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "milo_completions_total",
		Help: "Completion requests by provider and outcome",
	}, []string{"provider", "outcome"})

	CompletionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "milo_completion_duration_seconds",
		Help:    "Completion provider latency",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
	}, []string{"provider"})

	ConversationsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "milo_conversations_logged_total",
		Help: "Conversation log writes by result",
	}, []string{"result"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "milo_rate_limited_total",
		Help: "Requests rejected by the chat rate limiter",
	})

	DigestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "milo_digest_runs_total",
		Help: "Digest runs by terminal state",
	}, []string{"state"})
)

// Outcome labels shared by the counters above.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
