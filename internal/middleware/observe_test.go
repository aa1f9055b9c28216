package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"crawldash/internal/metrics"
	"crawldash/internal/testutil"
)

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/crawl/:id", func(c *gin.Context) { c.Status(http.StatusFound) })

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/crawl/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, float64(2), promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/crawl/:id", "302")))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, rec := testutil.NewRecorder()
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := rec.Entries()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "HTTP Request", entries[0].Message)
		assert.Equal(t, "/healthz", entries[0].Attrs["path"])
		assert.Equal(t, "200", entries[0].Attrs["status"])
		assert.Equal(t, "ERROR", entries[1].Level.String())
	}
}
