package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/checklist-notifier/internal/config"
	"github.com/nahidhasan98/checklist-notifier/internal/handlers"
	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/pipeline"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
)

const apiKey = "preview-key-0001"

func newTestServer(t *testing.T, rateLimit int) *httptest.Server {
	t.Helper()

	resolver := policy.NewResolver(policy.NewStore([]policy.Policy{{Repository: "acme/api"}}))
	proc := pipeline.New(pipeline.Deps{Policies: resolver})
	h := handlers.New(proc, handlers.Options{PolicyCount: 1}, logger.Nop())

	cfg := &config.Config{
		Server:   config.ServerConfig{RateLimit: rateLimit},
		Security: config.SecurityConfig{APIKeys: []string{apiKey}},
	}
	ts := httptest.NewServer(New(cfg, h, logger.Nop()).Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestRouter_Health(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Empty(t, resp.Header.Get("Cache-Control"))
}

func TestRouter_ClassifyRequiresAPIKey(t *testing.T) {
	ts := newTestServer(t, 0)
	body := `{"repository":"acme/api","branch":"main","files":[{"path":"README.md"}]}`

	resp, err := http.Post(ts.URL+"/classify", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ts.URL+"/classify", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", apiKey)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
}

func TestRouter_WebhookRoutes(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/webhook/github")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/webhook/github", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("X-GitHub-Event", "ping")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestRouter_RateLimit(t *testing.T) {
	ts := newTestServer(t, 2)

	var codes []int
	for range 3 {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
