// Package backend is the REST client for the crawler backend's dashboard API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crawldash/internal/metrics"
	"crawldash/internal/models"
)

// Endpoint paths.
const (
	PathStats  = "/api/dashboard/stats"
	PathCrawls = "/api/crawls"
	PathPush   = "/ws"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// Client talks to one backend origin.
type Client struct {
	base      *url.URL
	http      *http.Client
	metrics   *metrics.Collectors
	requestID string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets a per-request timeout. Zero keeps the transport defaults.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.Collectors) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClientID is sent as X-Dashboard-Client on every request.
func WithClientID(id string) Option {
	return func(c *Client) { c.requestID = id }
}

// NewClient parses baseURL and returns a client for it.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend url %q: missing host", baseURL)
	}
	c := &Client{base: u, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PushURL derives the push channel endpoint from the backend origin:
// https gives wss, anything else ws.
func (c *Client) PushURL() string {
	return PushURL(c.base)
}

// PushURL maps an http(s) origin to its /ws endpoint.
func PushURL(base *url.URL) string {
	scheme := "ws"
	if base.Scheme == "https" {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: base.Host, Path: strings.TrimRight(base.Path, "/") + PathPush}
	return u.String()
}

// DetailURL is where a crawl's detail page lives on the backend.
func (c *Client) DetailURL(id models.CrawlID) string {
	return c.resolve("/crawl/" + url.PathEscape(string(id)))
}

// Stats fetches the dashboard stats snapshot.
func (c *Client) Stats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	err := c.do(ctx, "stats", http.MethodGet, PathStats, nil, &stats)
	return stats, err
}

// Crawls fetches the crawl list snapshot.
func (c *Client) Crawls(ctx context.Context) ([]models.CrawlSummary, error) {
	var crawls []models.CrawlSummary
	err := c.do(ctx, "crawls", http.MethodGet, PathCrawls, nil, &crawls)
	return crawls, err
}

// CreateCrawl starts a crawl.
func (c *Client) CreateCrawl(ctx context.Context, req models.CreateCrawlRequest) (models.CreateCrawlResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode create crawl request: %w", err)
	}
	var result models.CreateCrawlResult
	if err := c.do(ctx, "create_crawl", http.MethodPost, PathCrawls, body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// StopCrawl stops one crawl. The response body is ignored.
func (c *Client) StopCrawl(ctx context.Context, id models.CrawlID) error {
	path := PathCrawls + "/" + url.PathEscape(string(id)) + "/stop"
	return c.do(ctx, "stop_crawl", http.MethodPost, path, nil, nil)
}

// resolve joins an already escaped path onto the base URL.
func (c *Client) resolve(escapedPath string) string {
	u := *c.base
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + escapedPath
	if unescaped, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = unescaped
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body []byte, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.metrics == nil {
			return
		}
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		c.metrics.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
		c.metrics.BackendDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.requestID != "" {
		req.Header.Set("X-Dashboard-Client", c.requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
