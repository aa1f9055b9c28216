package htmldoc

import (
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawldash/internal/models"
	"crawldash/internal/render"
)

func sampleCrawls() []models.CrawlSummary {
	started := models.NewTimestamp(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	return []models.CrawlSummary{
		{ID: "c1", URL: "https://example.com", Status: models.CrawlStatusRunning, Progress: 40, StartedAt: started},
		{ID: "c2", URL: "https://example.org/<script>", Status: models.CrawlStatusCompleted, Progress: 100, StartedAt: started},
	}
}

func TestDocument_CrawlListMarkup(t *testing.T) {
	doc := New()
	r := render.NewRenderer(doc, render.WithLocation(time.UTC))
	r.RenderCrawlList(sampleCrawls())

	html := string(doc.Fragment(render.SlotCrawlList))
	assert.Equal(t, 2, strings.Count(html, "<tr "))
	assert.Contains(t, html, `<span class="status running">running</span>`)
	assert.Contains(t, html, `style="width: 40%"`)
	assert.Contains(t, html, `data-action="stop" data-crawl-id="c1"`)
	assert.NotContains(t, html, `data-action="stop" data-crawl-id="c2"`)
	assert.Contains(t, html, `data-action="view" data-crawl-id="c2" data-href="/crawl/c2">`)
	assert.NotContains(t, html, `data-action="stop" data-crawl-id="c1" data-href`)
	assert.Contains(t, html, "3/1/2024, 10:00:00 AM")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestDocument_EmptyListClears(t *testing.T) {
	doc := New()
	r := render.NewRenderer(doc)
	r.RenderCrawlList(sampleCrawls())
	require.NotEmpty(t, doc.Fragment(render.SlotCrawlList))

	r.RenderCrawlList([]models.CrawlSummary{})
	assert.Equal(t, template.HTML(""), doc.Fragment(render.SlotCrawlList))
}

func TestDocument_MetricsMarkup(t *testing.T) {
	doc := New()
	r := render.NewRenderer(doc)
	r.RenderMetrics([]models.MetricSample{
		{Name: "pages/s", Current: 12, Average: 9.5, Peak: 30, TrendDirection: models.TrendDown, TrendPercentage: 4},
	})
	html := string(doc.Fragment(render.SlotMetrics))
	assert.Contains(t, html, `<span class="trend down">↘ 4%</span>`)
	assert.Contains(t, html, "<td>9.5</td>")
}

func TestDocument_ByteIdenticalRerender(t *testing.T) {
	doc := New()
	r := render.NewRenderer(doc, render.WithLocation(time.UTC))

	r.RenderStats(models.DashboardStats{ActiveCrawls: 1, SuccessRate: 50})
	r.RenderCrawlList(sampleCrawls())
	first := doc.Snapshot()

	r.RenderStats(models.DashboardStats{ActiveCrawls: 1, SuccessRate: 50})
	r.RenderCrawlList(sampleCrawls())
	assert.Equal(t, first, doc.Snapshot())
}

func TestDocument_ChangeFuncAndMissingSlots(t *testing.T) {
	var changed []render.SlotID
	doc := New(
		WithSlots(render.SlotActiveCrawls, render.SlotSuccessRate),
		WithChangeFunc(func(id render.SlotID, _ template.HTML) { changed = append(changed, id) }),
	)
	r := render.NewRenderer(doc)

	r.RenderStats(models.DashboardStats{ActiveCrawls: 3})
	r.RenderCrawlList(sampleCrawls())

	assert.Equal(t, []render.SlotID{render.SlotActiveCrawls, render.SlotSuccessRate}, changed)
	assert.Equal(t, template.HTML("0%"), doc.Fragment(render.SlotSuccessRate))
	_, ok := doc.RowSlot(render.SlotCrawlList)
	assert.False(t, ok)
	assert.Len(t, doc.Snapshot(), 2)
}
