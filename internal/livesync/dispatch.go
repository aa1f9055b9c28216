package livesync

import "crawldash/internal/models"

// Renderer is the set of render operations the dispatcher routes to.
// *render.Renderer implements it.
type Renderer interface {
	RenderStats(stats models.DashboardStats)
	RenderCrawlList(crawls []models.CrawlSummary)
	RenderMetrics(metrics []models.MetricSample)
}

// Dispatch invokes the renderer matching msg and reports whether one ran.
// Unrecognized messages are ignored.
func Dispatch(view Renderer, msg models.PushMessage) bool {
	switch m := msg.(type) {
	case models.StatsUpdate:
		view.RenderStats(m.Stats)
	case models.CrawlUpdate:
		view.RenderCrawlList(m.Crawls)
	case models.MetricsUpdate:
		view.RenderMetrics(m.Metrics)
	case models.Unrecognized:
		return false
	default:
		return false
	}
	return true
}
