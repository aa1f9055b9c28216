// Package backendtest runs a fake crawler backend for tests: the four REST
// endpoints plus a push channel that tests can write frames to.
package backendtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"crawldash/internal/models"
)

// Request is one REST call the fake received.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Server is a fake backend.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	requests    []Request
	stats       models.DashboardStats
	crawls      []models.CrawlSummary
	statusCodes map[string]int
	conns       []*websocket.Conn
	connected   chan *websocket.Conn
	upgrades    int
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// New starts a fake backend and registers its shutdown with t.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &Server{
		statusCodes: make(map[string]int),
		connected:   make(chan *websocket.Conn, 16),
		crawls:      []models.CrawlSummary{},
	}

	r := gin.New()
	r.Use(s.record)
	r.GET("/api/dashboard/stats", func(c *gin.Context) {
		if s.fail(c) {
			return
		}
		s.mu.Lock()
		stats := s.stats
		s.mu.Unlock()
		c.JSON(http.StatusOK, stats)
	})
	r.GET("/api/crawls", func(c *gin.Context) {
		if s.fail(c) {
			return
		}
		s.mu.Lock()
		crawls := append([]models.CrawlSummary(nil), s.crawls...)
		s.mu.Unlock()
		c.JSON(http.StatusOK, crawls)
	})
	r.POST("/api/crawls", func(c *gin.Context) {
		if s.fail(c) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": "new-crawl", "status": "queued"})
	})
	r.POST("/api/crawls/:id/stop", func(c *gin.Context) {
		if s.fail(c) {
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.upgrades++
		s.mu.Unlock()
		select {
		case s.connected <- conn:
		default:
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) record(c *gin.Context) {
	if c.Request.URL.Path == "/ws" {
		c.Next()
		return
	}
	body, _ := c.GetRawData()
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: c.Request.Method, Path: c.Request.URL.Path, Body: body})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) fail(c *gin.Context) bool {
	s.mu.Lock()
	code, ok := s.statusCodes[c.Request.Method+" "+c.FullPath()]
	s.mu.Unlock()
	if !ok {
		return false
	}
	c.AbortWithStatusJSON(code, gin.H{"error": "forced failure"})
	return true
}

// SetStats sets the stats snapshot.
func (s *Server) SetStats(stats models.DashboardStats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

// SetCrawls sets the crawl list snapshot.
func (s *Server) SetCrawls(crawls []models.CrawlSummary) {
	s.mu.Lock()
	s.crawls = crawls
	s.mu.Unlock()
}

// FailWith makes a route answer with code. route is "METHOD /gin/path",
// e.g. "POST /api/crawls/:id/stop".
func (s *Server) FailWith(route string, code int) {
	s.mu.Lock()
	s.statusCodes[route] = code
	s.mu.Unlock()
}

// Requests returns the REST calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many REST calls matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Upgrades returns how many push connections were accepted.
func (s *Server) Upgrades() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upgrades
}

// WaitConnected blocks until a push client connects.
func (s *Server) WaitConnected(t testing.TB, timeout time.Duration) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.connected:
		return conn
	case <-time.After(timeout):
		t.Fatalf("no push client connected within %s", timeout)
		return nil
	}
}

// Push writes a message to every connected push client.
func (s *Server) Push(t testing.TB, msg models.PushMessage) {
	t.Helper()
	frame, err := models.EncodePushMessage(msg)
	if err != nil {
		t.Fatalf("encode push message: %v", err)
	}
	s.PushRaw(t, frame)
}

// PushRaw writes a raw text frame to every connected push client.
func (s *Server) PushRaw(t testing.TB, frame []byte) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			t.Logf("push write: %v", err)
		}
	}
}

// DropConnections closes every push connection from the server side.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"), time.Now().Add(time.Second))
		conn.Close()
	}
	s.conns = nil
}

// DecodeBody decodes a recorded request body.
func (r Request) DecodeBody(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}
