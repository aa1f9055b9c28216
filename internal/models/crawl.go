// Package models defines the snapshot types exchanged with the crawler
// backend and the push messages that carry them.
package models

import (
	"encoding/json"
	"strings"
)

// CrawlStatus is the backend lifecycle state of a crawl.
type CrawlStatus string

const (
	CrawlStatusQueued    CrawlStatus = "queued"
	CrawlStatusRunning   CrawlStatus = "running"
	CrawlStatusStopped   CrawlStatus = "stopped"
	CrawlStatusFailed    CrawlStatus = "failed"
	CrawlStatusCompleted CrawlStatus = "completed"
)

// Class returns the lower-cased status used as a badge class.
func (s CrawlStatus) Class() string {
	return strings.ToLower(string(s))
}

// Stoppable reports whether a stop action applies. The comparison is exact:
// "Running" is not stoppable.
func (s CrawlStatus) Stoppable() bool {
	return s == CrawlStatusRunning
}

// CrawlSummary is one row of the crawl list snapshot.
type CrawlSummary struct {
	ID        CrawlID     `json:"id"`
	URL       string      `json:"url"`
	Status    CrawlStatus `json:"status"`
	Progress  Number      `json:"progress"`
	StartedAt Timestamp   `json:"started_at"`
}

// CrawlID is a backend crawl identifier. Numeric ids are accepted and kept
// in their textual form.
type CrawlID string

// UnmarshalJSON accepts a JSON string or number.
func (id *CrawlID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = CrawlID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = CrawlID(n.String())
	return nil
}

// CrawlConfig bounds a new crawl.
type CrawlConfig struct {
	MaxDepth int `json:"max_depth"`
	MaxPages int `json:"max_pages"`
}

const (
	DefaultMaxDepth = 3
	DefaultMaxPages = 1000
)

// DefaultCrawlConfig is the fixed configuration sent with every new crawl.
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{MaxDepth: DefaultMaxDepth, MaxPages: DefaultMaxPages}
}

// CreateCrawlRequest is the body of POST /api/crawls.
type CreateCrawlRequest struct {
	URL    string      `json:"url"`
	Config CrawlConfig `json:"config"`
}

// NewCreateCrawlRequest builds a request with DefaultCrawlConfig.
func NewCreateCrawlRequest(url string) CreateCrawlRequest {
	return CreateCrawlRequest{URL: url, Config: DefaultCrawlConfig()}
}

// CreateCrawlResult is whatever the backend returned for a created crawl.
// Its shape is backend-defined, so it is only kept for logging.
type CreateCrawlResult map[string]interface{}
