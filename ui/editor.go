package ui

import (
	"fmt"
	"image/color"
	"log"
	"strconv"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/querypad/querypad/complete"
	"github.com/querypad/querypad/config"
	"github.com/querypad/querypad/schema"
)

// Editor is the embeddable widget shell: it applies the host-facing options,
// shows the schema status line, and owns the completion provider lifecycle
// for its SQLEditor.
type Editor struct {
	sql    *SQLEditor
	gutter *widget.TextGrid
	status *widget.Label
	opts   config.Options

	mu       sync.Mutex
	reg      *Registration
	tables   []schema.Table
	loading  bool
	onChange func(string)

	Container fyne.CanvasObject
}

// NewEditor builds the widget with the given options applied.
func NewEditor(opts config.Options) *Editor {
	e := &Editor{
		opts:   opts,
		status: widget.NewLabel("No schema"),
	}

	e.sql = NewSQLEditor()
	e.sql.SetPlaceHolder("Enter SQL...")
	e.sql.SetSuggestOnFocus(opts.SuggestOnFocus)
	e.sql.SetOnChanged(e.handleChanged)
	if opts.Value != "" {
		e.sql.SetText(opts.Value)
	}

	var body fyne.CanvasObject = e.sql
	if !opts.WordWrap {
		body = container.NewHScroll(body)
	}
	if opts.LineNumbers {
		e.gutter = widget.NewTextGrid()
		e.refreshGutter()
		body = container.NewBorder(nil, nil, e.gutter, nil, body)
	}
	if opts.Border {
		th := fyne.CurrentApp().Settings().Theme()
		v := fyne.CurrentApp().Settings().ThemeVariant()
		frame := canvas.NewRectangle(color.Transparent)
		frame.StrokeWidth = 1
		frame.StrokeColor = th.Color(theme.ColorNameSeparator, v)
		body = container.NewStack(frame, container.NewPadded(body))
	}

	e.Container = container.NewBorder(nil, e.status, nil, nil, body)
	return e
}

// SQL exposes the inner editor for host wiring (shortcuts, focus).
func (e *Editor) SQL() *SQLEditor {
	return e.sql
}

// Text returns the current SQL text.
func (e *Editor) Text() string {
	return e.sql.Text()
}

// SetText replaces the SQL text.
func (e *Editor) SetText(text string) {
	e.sql.SetText(text)
}

// InsertText inserts text at the cursor.
func (e *Editor) InsertText(text string) {
	e.sql.InsertText(text)
}

// SetOnChange sets a callback invoked with the full text after every edit.
func (e *Editor) SetOnChange(fn func(string)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

func (e *Editor) handleChanged(text string) {
	e.refreshGutter()
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}

// SetSchemaPayload normalizes a raw schema value and swaps the completion
// provider. The previous registration is disposed first so no stale snapshot
// can serve another request.
func (e *Editor) SetSchemaPayload(raw any) {
	e.applyTables(schema.Normalize(raw))
}

// SetSchemaJSON is SetSchemaPayload for a JSON-encoded payload. Unparseable
// text behaves like a nil schema.
func (e *Editor) SetSchemaJSON(text string) {
	e.applyTables(schema.NormalizeJSON(text))
}

func (e *Editor) applyTables(tables []schema.Table) {
	e.mu.Lock()
	e.tables = tables
	e.loading = false
	old := e.reg
	e.mu.Unlock()

	if old != nil {
		old.Dispose()
	}
	p := complete.NewProvider(tables)
	reg := e.sql.RegisterCompletionProvider(p.Complete, DefaultTriggers)

	e.mu.Lock()
	e.reg = reg
	e.mu.Unlock()

	e.refreshStatus()
	log.Printf("ui: schema updated, %d table(s)", len(tables))
}

// SetLoading toggles the "Loading schema..." indicator. Loading ends
// implicitly when a schema payload arrives.
func (e *Editor) SetLoading(loading bool) {
	e.mu.Lock()
	e.loading = loading
	e.mu.Unlock()
	e.refreshStatus()
}

// Tables returns the current normalized schema snapshot.
func (e *Editor) Tables() []schema.Table {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tables
}

func (e *Editor) statusText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loading {
		return "Loading schema..."
	}
	if len(e.tables) == 0 {
		return "No schema"
	}
	return fmt.Sprintf("Schema: %d table(s)", len(e.tables))
}

func (e *Editor) refreshStatus() {
	text := e.statusText()
	fyne.Do(func() {
		e.status.SetText(text)
	})
}

func (e *Editor) refreshGutter() {
	if e.gutter == nil {
		return
	}
	n := strings.Count(e.sql.Text(), "\n") + 1
	width := len(strconv.Itoa(n))

	th := fyne.CurrentApp().Settings().Theme()
	v := fyne.CurrentApp().Settings().ThemeVariant()
	style := &widget.CustomTextGridStyle{FGColor: th.Color(theme.ColorNamePlaceHolder, v)}

	rows := make([]widget.TextGridRow, n)
	for i := 0; i < n; i++ {
		num := fmt.Sprintf("%*d ", width, i+1)
		cells := make([]widget.TextGridCell, len(num))
		for j, r := range num {
			cells[j] = widget.TextGridCell{Rune: r, Style: style}
		}
		rows[i] = widget.TextGridRow{Cells: cells}
	}

	fyne.Do(func() {
		e.gutter.Rows = rows
		e.gutter.Refresh()
	})
}
