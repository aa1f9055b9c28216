package livesync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"crawldash/internal/models"
)

type countingRenderer struct {
	mu      sync.Mutex
	stats   []models.DashboardStats
	crawls  [][]models.CrawlSummary
	metrics [][]models.MetricSample
}

func (r *countingRenderer) RenderStats(stats models.DashboardStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, stats)
}

func (r *countingRenderer) RenderCrawlList(crawls []models.CrawlSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crawls = append(r.crawls, crawls)
}

func (r *countingRenderer) RenderMetrics(metrics []models.MetricSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, metrics)
}

func (r *countingRenderer) calls() (stats, crawls, metrics int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stats), len(r.crawls), len(r.metrics)
}

func TestDispatch_RoutesByVariant(t *testing.T) {
	r := &countingRenderer{}

	assert.True(t, Dispatch(r, models.StatsUpdate{Stats: models.DashboardStats{ActiveCrawls: 1}}))
	assert.True(t, Dispatch(r, models.CrawlUpdate{Crawls: []models.CrawlSummary{{ID: "a"}}}))
	assert.True(t, Dispatch(r, models.MetricsUpdate{}))

	stats, crawls, metrics := r.calls()
	assert.Equal(t, 1, stats)
	assert.Equal(t, 1, crawls)
	assert.Equal(t, 1, metrics)
	assert.Equal(t, models.CrawlID("a"), r.crawls[0][0].ID)
}

func TestDispatch_UnknownTypeIsIgnored(t *testing.T) {
	r := &countingRenderer{}

	assert.NotPanics(t, func() {
		assert.False(t, Dispatch(r, models.Unrecognized{Tag: "worker_update"}))
	})
	stats, crawls, metrics := r.calls()
	assert.Zero(t, stats+crawls+metrics)
}
