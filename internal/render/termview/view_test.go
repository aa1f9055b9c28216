package termview

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawldash/internal/models"
	"crawldash/internal/render"
)

func TestView_DrawsSnapshot(t *testing.T) {
	v := New()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return base }

	r := render.NewRenderer(v, render.WithLocation(time.UTC))
	r.RenderStats(models.DashboardStats{ActiveCrawls: 2, PagesCrawled: 15400, SuccessRate: 98})
	r.RenderCrawlList([]models.CrawlSummary{
		{ID: "c1", URL: "https://example.com", Status: models.CrawlStatusRunning, Progress: 50, StartedAt: models.NewTimestamp(base)},
	})
	r.RenderMetrics([]models.MetricSample{{Name: "rps", Current: 3, TrendDirection: models.TrendUp, TrendPercentage: 10}})

	v.now = func() time.Time { return base.Add(3 * time.Minute) }

	var buf bytes.Buffer
	require.NoError(t, v.Draw(&buf))
	out := buf.String()

	assert.Contains(t, out, "Pages crawled: 15.4K")
	assert.Contains(t, out, "Success rate: 98%")
	assert.Contains(t, out, "[#####-----] 50%")
	assert.Contains(t, out, "View | Stop")
	assert.Contains(t, out, "↗ 10%")
	assert.Contains(t, out, "updated 3 minutes ago")
}

func TestView_ChangedCoalesces(t *testing.T) {
	v := New()
	r := render.NewRenderer(v)

	r.RenderStats(models.DashboardStats{})
	r.RenderCrawlList(nil)

	select {
	case <-v.Changed():
	default:
		t.Fatal("expected a change ping")
	}
	select {
	case <-v.Changed():
		t.Fatal("pings should coalesce")
	default:
	}
}

func TestView_WaitingBeforeFirstRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Draw(&buf))
	assert.Contains(t, buf.String(), "waiting for data...")
	assert.Contains(t, buf.String(), "Active crawls: -")
}
