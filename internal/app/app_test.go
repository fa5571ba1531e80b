package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamepulse/internal/config"
)

func testApplication(t *testing.T) *Application {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     5 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Analysis: config.AnalysisConfig{
			UploadDir:        t.TempDir(),
			MaxUploadBytes:   1 << 20,
			AnomalyThreshold: 2.0,
		},
		Insight: config.InsightConfig{
			BaseURL:   "http://localhost:0",
			Model:     "test",
			Timeout:   time.Second,
			MaxTokens: 10,
		},
		Security: config.SecurityConfig{
			RateLimit: config.RateLimitConfig{Enabled: true, RPS: 100, Burst: 100},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := New(cfg, logger)
	require.NoError(t, err)
	return app
}

func TestRouterHealth(t *testing.T) {
	app := testApplication(t)

	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, Version, resp["version"])
}

func TestRouterMetricsEndpoint(t *testing.T) {
	app := testApplication(t)

	// Hit an API route first so the scrape has something to report.
	app.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gamepulse_http_requests_total")
}

func TestRouterUnknownRoute(t *testing.T) {
	app := testApplication(t)

	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitExceeded(t *testing.T) {
	app := testApplication(t)
	app.cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}

	// The limiter is baked into the router at construction; rebuild.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limited, err := New(app.cfg, logger)
	require.NoError(t, err)

	first := httptest.NewRecorder()
	limited.Router().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	limited.Router().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
