// Package termview is a render.Target that redraws the dashboard as
// terminal tables.
package termview

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"crawldash/internal/render"
)

const progressWidth = 10

// View keeps the latest slot contents and signals when they change.
type View struct {
	mem     *render.Memory
	changed chan struct{}

	mu        sync.Mutex
	updatedAt time.Time
	now       func() time.Time
}

// New returns a View exposing every dashboard slot.
func New() *View {
	return &View{
		mem:     render.NewMemory(),
		changed: make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Changed receives a ping after any slot write. Pings coalesce.
func (v *View) Changed() <-chan struct{} {
	return v.changed
}

// TextSlot implements render.Target.
func (v *View) TextSlot(id render.SlotID) (render.TextSlot, bool) {
	slot, ok := v.mem.TextSlot(id)
	if !ok {
		return nil, false
	}
	return textSlot{view: v, inner: slot}, true
}

// RowSlot implements render.Target.
func (v *View) RowSlot(id render.SlotID) (render.RowSlot, bool) {
	slot, ok := v.mem.RowSlot(id)
	if !ok {
		return nil, false
	}
	return rowSlot{view: v, inner: slot}, true
}

func (v *View) touch() {
	v.mu.Lock()
	v.updatedAt = v.now()
	v.mu.Unlock()
	select {
	case v.changed <- struct{}{}:
	default:
	}
}

type textSlot struct {
	view  *View
	inner render.TextSlot
}

func (s textSlot) SetText(t string) {
	s.inner.SetText(t)
	s.view.touch()
}

type rowSlot struct {
	view  *View
	inner render.RowSlot
}

func (s rowSlot) ReplaceRows(rows []render.Row) {
	s.inner.ReplaceRows(rows)
	s.view.touch()
}

// Draw writes the whole dashboard to w.
func (v *View) Draw(w io.Writer) error {
	v.mu.Lock()
	updatedAt := v.updatedAt
	now := v.now()
	v.mu.Unlock()

	fmt.Fprintf(w, "Active crawls: %s   Pages crawled: %s   Success rate: %s   Queue: %s\n\n",
		orDash(v.mem.Text(render.SlotActiveCrawls)),
		compact(v.mem.Text(render.SlotPagesCrawled)),
		orDash(v.mem.Text(render.SlotSuccessRate)),
		orDash(v.mem.Text(render.SlotQueueSize)),
	)

	crawls := table.NewWriter()
	crawls.SetOutputMirror(w)
	crawls.SetStyle(table.StyleLight)
	crawls.SetTitle("Crawls")
	crawls.AppendHeader(table.Row{"ID", "URL", "Status", "Progress", "Started", "Actions"})
	for _, row := range v.mem.Rows(render.SlotCrawlList) {
		crawls.AppendRow(cellsToRow(row.Cells))
	}
	crawls.Render()
	fmt.Fprintln(w)

	metrics := table.NewWriter()
	metrics.SetOutputMirror(w)
	metrics.SetStyle(table.StyleLight)
	metrics.SetTitle("Metrics")
	metrics.AppendHeader(table.Row{"Metric", "Current", "Average", "Peak", "Trend"})
	metrics.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	for _, row := range v.mem.Rows(render.SlotMetrics) {
		metrics.AppendRow(cellsToRow(row.Cells))
	}
	metrics.Render()

	if !updatedAt.IsZero() {
		_, err := fmt.Fprintf(w, "\nupdated %s\n", humanize.RelTime(updatedAt, now, "ago", "from now"))
		return err
	}
	_, err := fmt.Fprintln(w, "\nwaiting for data...")
	return err
}

func cellsToRow(cells []render.Cell) table.Row {
	row := make(table.Row, 0, len(cells))
	for _, cell := range cells {
		row = append(row, cellText(cell))
	}
	return row
}

func cellText(cell render.Cell) string {
	switch cell.Kind {
	case render.CellBadge:
		return "[" + cell.Text + "]"
	case render.CellProgress:
		return progressBar(cell.Fill) + " " + cell.Text
	case render.CellActions:
		labels := make([]string, 0, len(cell.Actions))
		for _, a := range cell.Actions {
			labels = append(labels, a.Label)
		}
		return strings.Join(labels, " | ")
	case render.CellTrend:
		return cell.Glyph + " " + cell.Text
	default:
		return cell.Text
	}
}

func progressBar(fill string) string {
	pct, err := strconv.ParseFloat(fill, 64)
	if err != nil {
		pct = 0
	}
	filled := int(pct / 100 * progressWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > progressWidth {
		filled = progressWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled) + "]"
}

func compact(s string) string {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return orDash(s)
	}
	return render.FormatCompact(n)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
