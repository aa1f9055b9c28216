package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawldash/internal/backend"
	"crawldash/internal/backend/backendtest"
	"crawldash/internal/metrics"
	"crawldash/internal/models"
)

func TestPushURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws"},
		{"https://crawler.example.com", "wss://crawler.example.com/ws"},
		{"https://crawler.example.com/", "wss://crawler.example.com/ws"},
		{"http://10.0.0.1:9000/dash", "ws://10.0.0.1:9000/dash/ws"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			c, err := backend.NewClient(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.PushURL())
		})
	}
}

func TestNewClient_RejectsBadOrigins(t *testing.T) {
	for _, raw := range []string{"", "ftp://host", "localhost:8080", "http://"} {
		_, err := backend.NewClient(raw)
		assert.Error(t, err, raw)
	}
}

func TestClient_PullsAndActions(t *testing.T) {
	srv := backendtest.New(t)
	srv.SetStats(models.DashboardStats{ActiveCrawls: 4, SuccessRate: 91.5})
	srv.SetCrawls([]models.CrawlSummary{{ID: "a", URL: "https://example.com", Status: models.CrawlStatusRunning, Progress: 12}})

	m := metrics.New()
	c, err := backend.NewClient(srv.URL, backend.WithMetrics(m), backend.WithClientID("test-client"))
	require.NoError(t, err)
	ctx := context.Background()

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4", stats.ActiveCrawls.String())
	assert.Equal(t, "91.5", stats.SuccessRate.String())

	crawls, err := c.Crawls(ctx)
	require.NoError(t, err)
	require.Len(t, crawls, 1)
	assert.Equal(t, models.CrawlStatusRunning, crawls[0].Status)

	result, err := c.CreateCrawl(ctx, models.NewCreateCrawlRequest("https://example.org"))
	require.NoError(t, err)
	assert.Equal(t, "new-crawl", result["id"])

	require.NoError(t, c.StopCrawl(ctx, "a b"))

	reqs := srv.Requests()
	require.Len(t, reqs, 4)
	var body models.CreateCrawlRequest
	require.NoError(t, reqs[2].DecodeBody(&body))
	assert.Equal(t, models.NewCreateCrawlRequest("https://example.org"), body)
	assert.Equal(t, "/api/crawls/a b/stop", reqs[3].Path)
}

func TestClient_StatusError(t *testing.T) {
	srv := backendtest.New(t)
	srv.FailWith("POST /api/crawls/:id/stop", http.StatusConflict)

	c, err := backend.NewClient(srv.URL)
	require.NoError(t, err)

	err = c.StopCrawl(context.Background(), "x")
	require.Error(t, err)
	var statusErr *backend.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusConflict, statusErr.Code)
	assert.Equal(t, "/api/crawls/x/stop", statusErr.Path)
}

func TestClient_NetworkError(t *testing.T) {
	srv := backendtest.New(t)
	base := srv.URL
	srv.Close()

	c, err := backend.NewClient(base)
	require.NoError(t, err)
	_, err = c.Stats(context.Background())
	require.Error(t, err)
	var urlErr *url.Error
	assert.True(t, errors.As(err, &urlErr))
}

func TestClient_DetailURL(t *testing.T) {
	c, err := backend.NewClient("https://crawler.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://crawler.example.com/crawl/42", c.DetailURL("42"))
}

func TestWithTimeout_ZeroKeepsClientDefault(t *testing.T) {
	hc := &http.Client{}
	_, err := backend.NewClient("http://localhost:8080", backend.WithHTTPClient(hc), backend.WithTimeout(0))
	require.NoError(t, err)
	assert.Zero(t, hc.Timeout)

	_, err = backend.NewClient("http://localhost:8080", backend.WithHTTPClient(hc), backend.WithTimeout(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, hc.Timeout)
}
