package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archpointlabs/milo/internal/metrics"
	"github.com/archpointlabs/milo/internal/ratelimit"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"forwarded beats real ip", map[string]string{"X-Forwarded-For": "203.0.113.5", "X-Real-IP": "198.51.100.1"}, "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.1"}, "198.51.100.1"},
		{"empty forwarded entry", map[string]string{"X-Forwarded-For": " ,10.0.0.1", "X-Real-IP": "198.51.100.1"}, "198.51.100.1"},
		{"nothing", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/chat", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestUserAgent(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "unknown", UserAgent(r))
	r.Header.Set("User-Agent", "Mozilla/5.0")
	assert.Equal(t, "Mozilla/5.0", UserAgent(r))
}

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	handler := RecoverPanic(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Something went wrong on our end."}`, rec.Body.String())
	assert.Contains(t, buf.String(), "recovered from panic")
}

func TestRequestLoggerRecordsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.RequestID(RequestLogger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	r := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.5")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "/conversations", entry["path"])
	assert.Equal(t, "203.0.113.5", entry["client_ip"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics)
	router.HandleFunc("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodGet)

	counter := metrics.HTTPRequestsTotal.WithLabelValues("/things/{id}", http.MethodGet, "202")
	before := testutil.ToFloat64(counter)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/42", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/43", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRateLimitRejectsAfterLimit(t *testing.T) {
	limiter := ratelimit.New(ratelimit.DefaultChatConfig(2))
	t.Cleanup(limiter.Close)
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	before := testutil.ToFloat64(metrics.RateLimited)

	send := func(remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/chat", nil)
		r.RemoteAddr = remoteAddr
		if forwardedFor != "" {
			r.Header.Set("X-Forwarded-For", forwardedFor)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1:1234", "").Code)
	assert.Equal(t, http.StatusOK, send("192.0.2.1:1234", "").Code)

	rec := send("192.0.2.1:1234", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "120", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimited))

	assert.Equal(t, http.StatusOK, send("10.0.0.2:5000", "203.0.113.9").Code, "clients behind a private proxy get their own bucket")
}

func TestRateLimitIgnoresClientSuppliedForwardedFor(t *testing.T) {
	limiter := ratelimit.New(ratelimit.DefaultChatConfig(2))
	t.Cleanup(limiter.Close)
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := 0
	for i := 0; i < 50; i++ {
		r := httptest.NewRequest(http.MethodPost, "/chat", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 2, allowed)
	assert.Equal(t, 1, limiter.Len())
}

func TestRateLimitUsesProxyAppendedHop(t *testing.T) {
	limiter := ratelimit.New(ratelimit.DefaultChatConfig(1))
	t.Cleanup(limiter.Close)
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	send := func(forwardedFor string) int {
		r := httptest.NewRequest(http.MethodPost, "/chat", nil)
		r.RemoteAddr = "127.0.0.1:40000"
		r.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("1.1.1.1, 203.0.113.9"))
	assert.Equal(t, http.StatusTooManyRequests, send("2.2.2.2, 203.0.113.9"), "spoofed left-most entry is ignored")
	assert.Equal(t, http.StatusOK, send("203.0.113.10"))
}
