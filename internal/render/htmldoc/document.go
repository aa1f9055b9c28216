// Package htmldoc is a render.Target that keeps each slot as an HTML
// fragment, ready to be served in a page or pushed to browsers.
package htmldoc

import (
	"bytes"
	"html/template"
	"log/slog"
	"sync"

	"crawldash/internal/render"
)

const rowsTemplate = `{{define "rows"}}{{range .}}<tr data-key="{{.Key}}">{{range .Cells}}<td>{{template "cell" .}}</td>{{end}}</tr>{{end}}{{end}}
{{define "cell"}}{{if eq .Kind "badge"}}<span class="status {{.Class}}">{{.Text}}</span>{{else if eq .Kind "progress"}}<div class="progress-bar"><div class="progress-fill" style="width: {{.Fill}}%"></div></div>{{.Text}}{{else if eq .Kind "actions"}}{{range .Actions}}<button class="btn btn-sm{{if eq .Kind "stop"}} btn-danger{{end}}" data-action="{{.Kind}}" data-crawl-id="{{.CrawlID}}"{{with .Href}} data-href="{{.}}"{{end}}>{{.Label}}</button>{{end}}{{else if eq .Kind "trend"}}<span class="trend {{.Class}}">{{.Glyph}} {{.Text}}</span>{{else}}{{.Text}}{{end}}{{end}}`

var rowsTmpl = template.Must(template.New("htmldoc").Parse(rowsTemplate))

// ChangeFunc observes a slot after it was rewritten.
type ChangeFunc func(id render.SlotID, fragment template.HTML)

// Document holds the current fragment of every slot it exposes.
type Document struct {
	mu        sync.RWMutex
	present   map[render.SlotID]bool
	fragments map[render.SlotID]template.HTML
	onChange  ChangeFunc
	logger    *slog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithSlots restricts the document to the given slots.
func WithSlots(slots ...render.SlotID) Option {
	return func(d *Document) {
		d.present = make(map[render.SlotID]bool, len(slots))
		for _, id := range slots {
			d.present[id] = true
		}
	}
}

// WithChangeFunc registers the change observer.
func WithChangeFunc(fn ChangeFunc) Option {
	return func(d *Document) { d.onChange = fn }
}

// WithLogger sets the logger used for template failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New returns a Document exposing every dashboard slot unless WithSlots says otherwise.
func New(opts ...Option) *Document {
	d := &Document{
		fragments: make(map[render.SlotID]template.HTML),
		logger:    slog.Default(),
	}
	WithSlots(render.AllSlots()...)(d)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// TextSlot implements render.Target.
func (d *Document) TextSlot(id render.SlotID) (render.TextSlot, bool) {
	if !d.has(id) {
		return nil, false
	}
	return textSlot{doc: d, id: id}, true
}

// RowSlot implements render.Target.
func (d *Document) RowSlot(id render.SlotID) (render.RowSlot, bool) {
	if !d.has(id) {
		return nil, false
	}
	return rowSlot{doc: d, id: id}, true
}

// Fragment returns the current HTML of a slot.
func (d *Document) Fragment(id render.SlotID) template.HTML {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fragments[id]
}

// Snapshot copies every slot's fragment, keyed by slot id.
func (d *Document) Snapshot() map[string]template.HTML {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]template.HTML, len(d.present))
	for id := range d.present {
		out[string(id)] = d.fragments[id]
	}
	return out
}

func (d *Document) has(id render.SlotID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.present[id]
}

func (d *Document) store(id render.SlotID, fragment template.HTML) {
	d.mu.Lock()
	d.fragments[id] = fragment
	onChange := d.onChange
	d.mu.Unlock()
	if onChange != nil {
		onChange(id, fragment)
	}
}

type textSlot struct {
	doc *Document
	id  render.SlotID
}

func (s textSlot) SetText(text string) {
	s.doc.store(s.id, template.HTML(template.HTMLEscapeString(text)))
}

type rowSlot struct {
	doc *Document
	id  render.SlotID
}

func (s rowSlot) ReplaceRows(rows []render.Row) {
	fragment, err := RenderRows(rows)
	if err != nil {
		s.doc.logger.Error("htmldoc: unable to render rows", "slot", s.id, "error", err)
		return
	}
	s.doc.store(s.id, fragment)
}

type rowView struct {
	Key   string
	Cells []cellView
}

type cellView struct {
	Kind    string
	Text    string
	Class   string
	Fill    string
	Glyph   string
	Actions []render.Action
}

var cellKinds = map[render.CellKind]string{
	render.CellText:     "text",
	render.CellBadge:    "badge",
	render.CellProgress: "progress",
	render.CellActions:  "actions",
	render.CellTrend:    "trend",
}

// RenderRows renders rows as <tr> elements.
func RenderRows(rows []render.Row) (template.HTML, error) {
	views := make([]rowView, 0, len(rows))
	for _, row := range rows {
		cells := make([]cellView, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cellView{
				Kind:    cellKinds[cell.Kind],
				Text:    cell.Text,
				Class:   cell.Class,
				Fill:    cell.Fill,
				Glyph:   cell.Glyph,
				Actions: cell.Actions,
			})
		}
		views = append(views, rowView{Key: row.Key, Cells: cells})
	}
	var buf bytes.Buffer
	if err := rowsTmpl.ExecuteTemplate(&buf, "rows", views); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
