package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archpointlabs/milo/internal/config"
	"github.com/archpointlabs/milo/internal/services"
	"github.com/archpointlabs/milo/internal/services/ai"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		ServerPort:         "0",
		Environment:        "test",
		SQLitePath:         filepath.Join(dir, "milo.db"),
		LLMProvider:        ai.ProviderOpenAI,
		OpenAIAPIKey:       "sk-test",
		OpenAIModel:        "gpt-4o-mini",
		LLMMaxTokens:       256,
		LLMTemperature:     0.7,
		ChatTimeout:        5 * time.Second,
		LogWriteTimeout:    time.Second,
		ChatRateLimit:      5,
		SystemPromptPath:   filepath.Join(dir, "missing.md"),
		SystemPromptMarker: "You are an AI consultant",
		DigestFrom:         "Archpoint Labs <notifications@archpointlabs.com>",
		DigestTo:           []string{"matt@archpointlabs.com"},
		DigestTimezone:     "UTC",
		PublicBaseURL:      "https://archpointlabs.com",
		CORSAllowedOrigins: []string{"*"},
	}
}

func TestInitializeApplicationWiresGraph(t *testing.T) {
	cfg := testConfig(t)

	app, err := InitializeApplication(cfg, services.NewZeroLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() {
		app.Limiter.Close()
		app.Recorder.Wait()
		if sqlDB, err := app.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	assert.Equal(t, ai.ProviderOpenAI, app.Provider.Name())
	require.NotNil(t, app.Aggregator)
	require.NotNil(t, app.Limiter)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"conversations":[],"count":0,"stats":{"total":0,"today":0,"this_week":0}}`, rec.Body.String())
}

func TestInitializeApplicationRejectsMissingKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenAIAPIKey = ""

	_, err := InitializeApplication(cfg, services.NewZeroLogger(zerolog.Nop()))

	assert.Error(t, err)
}

func TestProvideAIConfigSelectsGemini(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLMProvider = ai.ProviderGemini
	cfg.GeminiAPIKey = "g-key"
	cfg.GeminiModel = "gemini-1.5-flash"

	aiConfig := ProvideAIConfig(cfg)

	assert.Equal(t, ai.ProviderGemini, aiConfig.Provider)
	assert.Equal(t, "g-key", aiConfig.APIKey)
	assert.Equal(t, "gemini-1.5-flash", aiConfig.Model)
	assert.Equal(t, 5*time.Second, aiConfig.Timeout)
}
