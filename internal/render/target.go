// Package render turns dashboard snapshots into named UI regions.
//
// A Target hands out handles to the regions a page actually has. Every
// render pass replaces a region wholesale from one snapshot; nothing is
// diffed against the previous pass, so rendering the same snapshot twice
// leaves the region unchanged.
package render

import "crawldash/internal/models"

// SlotID names a region of the dashboard.
type SlotID string

const (
	SlotActiveCrawls SlotID = "active-crawls"
	SlotPagesCrawled SlotID = "pages-crawled"
	SlotSuccessRate  SlotID = "success-rate"
	SlotQueueSize    SlotID = "queue-size"
	SlotCrawlList    SlotID = "crawl-list-body"
	SlotMetrics      SlotID = "metrics-table-body"
)

// Controls owned by the host page. They are read, never rendered.
const (
	ControlNewCrawl  SlotID = "new-crawl-btn"
	ControlTimeRange SlotID = "time-range"
)

// StatSlots are the scalar slots in display order.
func StatSlots() []SlotID {
	return []SlotID{SlotActiveCrawls, SlotPagesCrawled, SlotSuccessRate, SlotQueueSize}
}

// AllSlots lists every rendered slot.
func AllSlots() []SlotID {
	return append(StatSlots(), SlotCrawlList, SlotMetrics)
}

// TextSlot is a region holding a single line of text.
type TextSlot interface {
	SetText(text string)
}

// RowSlot is a row container. ReplaceRows clears it and appends rows in
// order as one step.
type RowSlot interface {
	ReplaceRows(rows []Row)
}

// Target resolves slot handles. The boolean is false when the page has no
// such region; renderers then skip it.
type Target interface {
	TextSlot(id SlotID) (TextSlot, bool)
	RowSlot(id SlotID) (RowSlot, bool)
}

// CellKind selects how a cell is presented.
type CellKind int

const (
	CellText CellKind = iota
	CellBadge
	CellProgress
	CellActions
	CellTrend
)

// ActionKind identifies a row action.
type ActionKind string

const (
	ActionView ActionKind = "view"
	ActionStop ActionKind = "stop"
)

// Action is a button attached to a crawl row.
type Action struct {
	Kind    ActionKind
	Label   string
	CrawlID models.CrawlID
	Href    string // view only
}

// Cell is one column of a row.
//
// Text is the visible text for every kind. Class carries the badge or trend
// class, Fill the progress bar width in percent and Glyph the trend arrow.
type Cell struct {
	Kind    CellKind
	Text    string
	Class   string
	Fill    string
	Glyph   string
	Actions []Action
}

// Row is one rendered row of a list slot.
type Row struct {
	Key   string
	Cells []Cell
}
