package render

import (
	"net/url"
	"time"

	"crawldash/internal/models"
)

// Trend glyphs.
const (
	GlyphUp   = "↗"
	GlyphDown = "↘"
	GlyphFlat = "→"
)

// Renderer writes snapshots into a Target. It holds no render state.
type Renderer struct {
	target   Target
	location *time.Location
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLocation sets the zone start times are shown in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

// NewRenderer returns a Renderer bound to target.
func NewRenderer(target Target, opts ...Option) *Renderer {
	r := &Renderer{target: target, location: time.Local}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderStats writes the four scalar slots. Slots the target lacks are skipped.
func (r *Renderer) RenderStats(stats models.DashboardStats) {
	texts := StatsText(stats)
	for _, id := range StatSlots() {
		if slot, ok := r.target.TextSlot(id); ok {
			slot.SetText(texts[id])
		}
	}
}

// RenderCrawlList replaces the crawl list with one row per crawl in input order.
func (r *Renderer) RenderCrawlList(crawls []models.CrawlSummary) {
	slot, ok := r.target.RowSlot(SlotCrawlList)
	if !ok {
		return
	}
	rows := make([]Row, 0, len(crawls))
	for _, crawl := range crawls {
		rows = append(rows, CrawlRow(crawl, r.location))
	}
	slot.ReplaceRows(rows)
}

// RenderMetrics replaces the metrics table.
func (r *Renderer) RenderMetrics(metrics []models.MetricSample) {
	slot, ok := r.target.RowSlot(SlotMetrics)
	if !ok {
		return
	}
	rows := make([]Row, 0, len(metrics))
	for _, metric := range metrics {
		rows = append(rows, MetricRow(metric))
	}
	slot.ReplaceRows(rows)
}

// StatsText maps each scalar slot to its formatted value.
func StatsText(stats models.DashboardStats) map[SlotID]string {
	return map[SlotID]string{
		SlotActiveCrawls: stats.ActiveCrawls.String(),
		SlotPagesCrawled: stats.PagesCrawled.String(),
		SlotSuccessRate:  stats.SuccessRate.String() + "%",
		SlotQueueSize:    stats.QueueSize.String(),
	}
}

// CrawlRow builds the row for one crawl: id, url, status badge, progress,
// start time and actions. Stop is offered only for running crawls.
func CrawlRow(crawl models.CrawlSummary, loc *time.Location) Row {
	progress := crawl.Progress.String()
	actions := []Action{{Kind: ActionView, Label: "View", CrawlID: crawl.ID, Href: DetailPath(crawl.ID)}}
	if crawl.Status.Stoppable() {
		actions = append(actions, Action{Kind: ActionStop, Label: "Stop", CrawlID: crawl.ID})
	}
	return Row{
		Key: string(crawl.ID),
		Cells: []Cell{
			{Kind: CellText, Text: string(crawl.ID)},
			{Kind: CellText, Text: crawl.URL},
			{Kind: CellBadge, Text: string(crawl.Status), Class: crawl.Status.Class()},
			{Kind: CellProgress, Text: progress + "%", Fill: progress},
			{Kind: CellText, Text: crawl.StartedAt.Local(loc)},
			{Kind: CellActions, Actions: actions},
		},
	}
}

// DetailPath is the dashboard route that redirects to a crawl's detail page.
func DetailPath(id models.CrawlID) string {
	return "/crawl/" + url.PathEscape(string(id))
}

// MetricRow builds the row for one metric sample.
func MetricRow(metric models.MetricSample) Row {
	return Row{
		Key: metric.Name,
		Cells: []Cell{
			{Kind: CellText, Text: metric.Name},
			{Kind: CellText, Text: metric.Current.String()},
			{Kind: CellText, Text: metric.Average.String()},
			{Kind: CellText, Text: metric.Peak.String()},
			{
				Kind:  CellTrend,
				Text:  metric.TrendPercentage.String() + "%",
				Class: string(metric.TrendDirection),
				Glyph: TrendGlyph(metric.TrendDirection),
			},
		},
	}
}

// TrendGlyph picks the arrow for a direction. Anything unrecognized is flat.
func TrendGlyph(direction models.TrendDirection) string {
	switch direction {
	case models.TrendUp:
		return GlyphUp
	case models.TrendDown:
		return GlyphDown
	default:
		return GlyphFlat
	}
}
