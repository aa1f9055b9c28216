package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestPostGuardBlocksNonAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(false))
	r.POST("/foo", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	req := httptest.NewRequest(http.MethodPost, "/foo", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for non-action POST, got %d", w.Code)
	}
}

func TestPostGuardAllowsActions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(false))
	r.POST("/actions/crawls", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	req := httptest.NewRequest(http.MethodPost, "/actions/crawls", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected action POST to reach handler (202), got %d", w.Code)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff header, got %q", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("expected no HSTS without TLS, got %q", got)
	}
}

func TestSecurityHeadersHSTSWithTLS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS header with TLS")
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(PerMinute(1), 2)
	defer rl.Stop()
	r := gin.New()
	r.Use(rl.Middleware())
	r.POST("/actions/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/actions/x", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1:1234"); code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, code)
		}
	}
	if code := send("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := send("10.0.0.2:1234"); code != http.StatusNoContent {
		t.Fatalf("expected other client to be unaffected, got %d", code)
	}
}

func TestRateLimiterSweepDropsIdle(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(PerMinute(60), 1)
	rl.now = func() time.Time { return now }

	rl.getLimiter("a")
	now = now.Add(limiterIdle + time.Second)
	rl.getLimiter("b")
	rl.sweep()

	if _, ok := rl.limiters["a"]; ok {
		t.Fatal("expected idle limiter to be swept")
	}
	if _, ok := rl.limiters["b"]; !ok {
		t.Fatal("expected recent limiter to survive")
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.POST("/actions/crawls", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	req := httptest.NewRequest(http.MethodOptions, "/actions/crawls", nil)
	req.Header.Set("Origin", "http://dash.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://dash.local" {
		t.Fatalf("expected origin to be reflected, got %q", got)
	}
}
