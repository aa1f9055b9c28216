package handlers

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"crawldash/internal/livesync"
	"crawldash/internal/middleware"
	"crawldash/internal/models"
	"crawldash/internal/render"
	"crawldash/internal/version"
)

// Sync is the part of the live sync controller the web host drives.
type Sync interface {
	Running() bool
	State() livesync.State
	RequestNewCrawl(rawURL string)
	RequestStopCrawl(id models.CrawlID)
	SetTimeRange(r models.TimeRange)
	TimeRange() models.TimeRange
}

// Snapshotter returns the current markup of every slot.
type Snapshotter interface {
	Snapshot() map[string]template.HTML
}

// DetailLinker builds backend crawl detail URLs.
type DetailLinker interface {
	DetailURL(id models.CrawlID) string
}

// DashboardHandlers serves the dashboard page and its actions.
type DashboardHandlers struct {
	sync    Sync
	doc     Snapshotter
	links   DetailLinker
	backend string
	logger  *slog.Logger
}

func NewDashboardHandlers(sync Sync, doc Snapshotter, links DetailLinker, backendURL string, logger *slog.Logger) *DashboardHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandlers{sync: sync, doc: doc, links: links, backend: backendURL, logger: logger}
}

type newCrawlRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}

type timeRangeRequest struct {
	Range models.TimeRange `json:"range" validate:"required,oneof=1h 6h 24h 7d 30d"`
}

// DashboardGET renders the page with whatever the slots currently hold.
func (h *DashboardHandlers) DashboardGET(c *gin.Context) {
	slots := h.doc.Snapshot()
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"slots":      slots,
		"stats":      statTiles(slots),
		"timeRanges": models.TimeRanges(),
		"timeRange":  h.sync.TimeRange(),
		"backend":    h.backend,
		"version":    version.String(),
		"ids": gin.H{
			"crawlList": render.SlotCrawlList,
			"metrics":   render.SlotMetrics,
			"newCrawl":  render.ControlNewCrawl,
			"timeRange": render.ControlTimeRange,
		},
	})
}

type statTile struct {
	ID    render.SlotID
	Label string
	Value template.HTML
}

var statLabels = map[render.SlotID]string{
	render.SlotActiveCrawls: "Active Crawls",
	render.SlotPagesCrawled: "Pages Crawled",
	render.SlotSuccessRate:  "Success Rate",
	render.SlotQueueSize:    "Queue Size",
}

func statTiles(slots map[string]template.HTML) []statTile {
	tiles := make([]statTile, 0, len(statLabels))
	for _, id := range render.StatSlots() {
		tiles = append(tiles, statTile{ID: id, Label: statLabels[id], Value: slots[string(id)]})
	}
	return tiles
}

// NewCrawlPOST starts a crawl. The outcome is only visible through the
// next refresh.
func (h *DashboardHandlers) NewCrawlPOST(c *gin.Context) {
	var req newCrawlRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	if !h.requireRunning(c) {
		return
	}
	h.sync.RequestNewCrawl(middleware.SanitizeString(req.URL))
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *DashboardHandlers) StopCrawlPOST(c *gin.Context) {
	id := models.CrawlID(middleware.SanitizeString(c.Param("id")))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crawl id is required"})
		return
	}
	if !h.requireRunning(c) {
		return
	}
	h.sync.RequestStopCrawl(id)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": id})
}

func (h *DashboardHandlers) TimeRangePOST(c *gin.Context) {
	var req timeRangeRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	h.sync.SetTimeRange(req.Range)
	c.Status(http.StatusNoContent)
}

// CrawlDetailGET sends the browser to the backend's page for one crawl.
func (h *DashboardHandlers) CrawlDetailGET(c *gin.Context) {
	c.Redirect(http.StatusFound, h.links.DetailURL(models.CrawlID(c.Param("id"))))
}

func (h *DashboardHandlers) HealthzGET(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"push":    h.sync.State().String(),
		"running": h.sync.Running(),
	})
}

func (h *DashboardHandlers) VersionGET(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}

func (h *DashboardHandlers) requireRunning(c *gin.Context) bool {
	if h.sync.Running() {
		return true
	}
	h.logger.Warn("action rejected: live sync not running", "path", c.FullPath())
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live sync is not running"})
	return false
}
