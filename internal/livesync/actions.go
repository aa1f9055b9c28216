package livesync

import (
	"context"
	"errors"

	"crawldash/internal/backend"
	"crawldash/internal/models"
)

// RequestNewCrawl asks the backend to crawl rawURL with the default config.
// On success the view is refreshed; failures are logged only. The call
// returns immediately.
func (c *Controller) RequestNewCrawl(rawURL string) {
	ctx, ok := c.context()
	if !ok {
		c.logger.Warn("new crawl ignored: controller not running", "url", rawURL)
		return
	}
	req := models.NewCreateCrawlRequest(rawURL)
	go func() {
		result, err := c.backend.CreateCrawl(ctx, req)
		if err != nil {
			c.logActionFailure(ctx, "start crawl", err, "url", rawURL)
			return
		}
		c.logger.Info("crawl started", "url", rawURL, "result", map[string]interface{}(result))
		c.refresh(ctx)
	}()
}

// RequestStopCrawl asks the backend to stop one crawl. Same handling as
// RequestNewCrawl.
func (c *Controller) RequestStopCrawl(id models.CrawlID) {
	ctx, ok := c.context()
	if !ok {
		c.logger.Warn("stop crawl ignored: controller not running", "crawl_id", id)
		return
	}
	go func() {
		if err := c.backend.StopCrawl(ctx, id); err != nil {
			c.logActionFailure(ctx, "stop crawl", err, "crawl_id", id)
			return
		}
		c.logger.Info("crawl stopped", "crawl_id", id)
		c.refresh(ctx)
	}()
}

// SetTimeRange records the selected time range. Nothing is filtered by it yet.
func (c *Controller) SetTimeRange(r models.TimeRange) {
	c.mu.Lock()
	c.timeRange = r
	c.mu.Unlock()
	c.logger.Info("time range changed", "range", r)
}

// TimeRange returns the selected time range.
func (c *Controller) TimeRange() models.TimeRange {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeRange
}

// logActionFailure separates rejected requests from ones that never got an answer.
func (c *Controller) logActionFailure(ctx context.Context, action string, err error, attrs ...interface{}) {
	if ctx.Err() != nil {
		return
	}
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		c.logger.Error("failed to "+action, append(attrs, "status", statusErr.Code)...)
		return
	}
	c.logger.Error("error trying to "+action, append(attrs, "error", err)...)
}
