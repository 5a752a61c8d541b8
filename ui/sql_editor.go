package ui

import (
	"image/color"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/sahilm/fuzzy"

	"github.com/querypad/querypad/complete"
)

const maxDropdownRows = 8

// DefaultTriggers are the characters that open the suggestion dropdown even
// when no partial word precedes the cursor.
const DefaultTriggers = ". \n\t"

// CompletionProvider returns suggestions for a cursor position. line is the
// current line, col the cursor byte offset within it, before the full buffer
// text up to the cursor.
type CompletionProvider func(line string, col int, before string) []complete.Candidate

// Registration represents an installed completion provider. Disposing it
// detaches the provider; a provider installed afterwards is unaffected.
type Registration struct {
	editor *SQLEditor
	gen    int
}

// Dispose detaches the provider if it is still the active one.
func (r *Registration) Dispose() {
	e := r.editor
	e.mu.Lock()
	if e.providerGen == r.gen {
		e.provider = nil
	}
	e.mu.Unlock()
	e.hideDropdown()
}

// SQLEditor is a custom TextGrid-based SQL editor with syntax highlighting
// and a schema-aware suggestion dropdown.
type SQLEditor struct {
	widget.BaseWidget
	grid      *widget.TextGrid
	lines     []string
	cursorRow int
	cursorCol int
	focused   bool
	blinkOn   bool
	onChanged func(string)
	OnSubmit  func() // called on Cmd+Enter / Ctrl+Enter

	// Selection state: anchor is where selection started, cursor is the other end.
	hasSelection bool
	anchorRow    int
	anchorCol    int

	// Shift key tracking for Shift+Arrow selection (via desktop.Keyable).
	shifting bool

	// Mouse drag state.
	dragging bool

	// Undo/redo stacks.
	undoStack []undoEntry
	redoStack []undoEntry

	mu          sync.Mutex
	placeholder string
	lexer       chroma.Lexer
	stopBlink   chan struct{}

	// Completion state. The provider is installed by the widget shell and
	// swapped wholesale when the schema changes.
	provider       CompletionProvider
	providerGen    int
	triggers       string
	suggestOnFocus bool
	ddItems        []complete.Candidate // narrowed candidates currently shown
	ddPartial      string               // partial word the candidates were narrowed by
	ddVisible      bool
	ddSelected     int

	// Dropdown rendering (canvas primitives, created in CreateRenderer).
	ddBg         *canvas.Rectangle
	ddSelBg      *canvas.Rectangle
	ddLabels     [maxDropdownRows]*canvas.Text
	ddDetails    [maxDropdownRows]*canvas.Text
	ddItemHeight float32
	ddX          float32
	ddY          float32
	ddW          float32
	ddH          float32
}

const maxUndoStack = 500

type undoEntry struct {
	lines     []string
	cursorRow int
	cursorCol int
}

// Compile-time interface checks.
var (
	_ fyne.Focusable    = (*SQLEditor)(nil)
	_ fyne.Tappable     = (*SQLEditor)(nil)
	_ fyne.Draggable    = (*SQLEditor)(nil)
	_ fyne.Shortcutable = (*SQLEditor)(nil)
	_ fyne.Tabbable     = (*SQLEditor)(nil)
	_ desktop.Keyable   = (*SQLEditor)(nil)
)

// NewSQLEditor creates a new SQL editor with syntax highlighting.
func NewSQLEditor() *SQLEditor {
	grid := widget.NewTextGrid()
	grid.TabWidth = 4
	grid.Scroll = fyne.ScrollNone

	e := &SQLEditor{
		grid:     grid,
		lines:    []string{""},
		lexer:    lexers.Get("sql"),
		triggers: DefaultTriggers,
	}
	e.ExtendBaseWidget(e)
	return e
}

// RegisterCompletionProvider installs fn as the active completion provider
// with the given trigger characters and returns its Registration. Installing
// a new provider implicitly replaces the previous one, but callers should
// still Dispose the old registration so a stale handle can never detach the
// fresh provider.
func (e *SQLEditor) RegisterCompletionProvider(fn CompletionProvider, triggers string) *Registration {
	e.mu.Lock()
	e.providerGen++
	e.provider = fn
	e.triggers = triggers
	gen := e.providerGen
	e.mu.Unlock()
	e.hideDropdown()
	return &Registration{editor: e, gen: gen}
}

// SetSuggestOnFocus controls whether the dropdown opens when the editor
// gains focus.
func (e *SQLEditor) SetSuggestOnFocus(on bool) {
	e.mu.Lock()
	e.suggestOnFocus = on
	e.mu.Unlock()
}

// Text returns the full editor content.
func (e *SQLEditor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.Join(e.lines, "\n")
}

// SetText replaces the editor content.
func (e *SQLEditor) SetText(text string) {
	e.mu.Lock()
	if text == "" {
		e.lines = []string{""}
	} else {
		e.lines = strings.Split(text, "\n")
	}
	e.cursorRow = len(e.lines) - 1
	e.cursorCol = len(e.lines[e.cursorRow])
	e.hasSelection = false
	e.mu.Unlock()
	e.refreshContent()
	e.notifyChanged()
}

// InsertText inserts text at the cursor, replacing any selection. Multi-line
// text is split across rows like a paste.
func (e *SQLEditor) InsertText(text string) {
	if text == "" {
		return
	}
	insLines := strings.Split(text, "\n")

	e.mu.Lock()
	e.saveUndoLocked()
	if e.hasSelection {
		e.deleteSelectionLocked()
	}
	line := e.lines[e.cursorRow]
	before := line[:e.cursorCol]
	after := line[e.cursorCol:]

	if len(insLines) == 1 {
		e.lines[e.cursorRow] = before + insLines[0] + after
		e.cursorCol += len(insLines[0])
	} else {
		e.lines[e.cursorRow] = before + insLines[0]
		newLines := make([]string, 0, len(e.lines)+len(insLines)-1)
		newLines = append(newLines, e.lines[:e.cursorRow+1]...)
		newLines = append(newLines, insLines[1:len(insLines)-1]...)
		last := insLines[len(insLines)-1]
		newLines = append(newLines, last+after)
		newLines = append(newLines, e.lines[e.cursorRow+1:]...)
		e.lines = newLines
		e.cursorRow += len(insLines) - 1
		e.cursorCol = len(last)
	}
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

// SetOnChanged sets a callback invoked after every edit.
func (e *SQLEditor) SetOnChanged(fn func(string)) {
	e.mu.Lock()
	e.onChanged = fn
	e.mu.Unlock()
}

// SetPlaceHolder sets placeholder text shown when the editor is empty and unfocused.
func (e *SQLEditor) SetPlaceHolder(text string) {
	e.mu.Lock()
	e.placeholder = text
	e.mu.Unlock()
	e.refreshContent()
}

func (e *SQLEditor) notifyChanged() {
	e.mu.Lock()
	fn := e.onChanged
	e.mu.Unlock()
	if fn != nil {
		fn(e.Text())
	}
}

// orderedSelection returns selection bounds with start before end.
func (e *SQLEditor) orderedSelection() (sRow, sCol, eRow, eCol int) {
	if e.anchorRow < e.cursorRow || (e.anchorRow == e.cursorRow && e.anchorCol <= e.cursorCol) {
		return e.anchorRow, e.anchorCol, e.cursorRow, e.cursorCol
	}
	return e.cursorRow, e.cursorCol, e.anchorRow, e.anchorCol
}

// selectedTextLocked returns the text within the selection. Caller must hold mu.
func (e *SQLEditor) selectedTextLocked() string {
	sRow, sCol, eRow, eCol := e.orderedSelection()
	if sRow == eRow {
		return e.lines[sRow][sCol:eCol]
	}
	var parts []string
	parts = append(parts, e.lines[sRow][sCol:])
	for i := sRow + 1; i < eRow; i++ {
		parts = append(parts, e.lines[i])
	}
	parts = append(parts, e.lines[eRow][:eCol])
	return strings.Join(parts, "\n")
}

// deleteSelectionLocked removes selected text and positions cursor. Caller must hold mu.
func (e *SQLEditor) deleteSelectionLocked() {
	if !e.hasSelection {
		return
	}
	sRow, sCol, eRow, eCol := e.orderedSelection()
	before := e.lines[sRow][:sCol]
	after := e.lines[eRow][eCol:]
	e.lines[sRow] = before + after
	if eRow > sRow {
		e.lines = append(e.lines[:sRow+1], e.lines[eRow+1:]...)
	}
	e.cursorRow = sRow
	e.cursorCol = sCol
	e.hasSelection = false
}

// beginSelectionLocked starts a new selection at the current cursor if none exists.
func (e *SQLEditor) beginSelectionLocked() {
	if !e.hasSelection {
		e.anchorRow = e.cursorRow
		e.anchorCol = e.cursorCol
		e.hasSelection = true
	}
}

func (e *SQLEditor) saveUndoLocked() {
	snap := undoEntry{
		lines:     make([]string, len(e.lines)),
		cursorRow: e.cursorRow,
		cursorCol: e.cursorCol,
	}
	copy(snap.lines, e.lines)
	e.undoStack = append(e.undoStack, snap)
	if len(e.undoStack) > maxUndoStack {
		e.undoStack = e.undoStack[1:]
	}
	e.redoStack = e.redoStack[:0]
}

func (e *SQLEditor) doUndo() {
	e.mu.Lock()
	if len(e.undoStack) == 0 {
		e.mu.Unlock()
		return
	}
	// Save current state to redo stack.
	current := undoEntry{
		lines:     make([]string, len(e.lines)),
		cursorRow: e.cursorRow,
		cursorCol: e.cursorCol,
	}
	copy(current.lines, e.lines)
	e.redoStack = append(e.redoStack, current)

	// Pop from undo stack.
	snap := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.lines = snap.lines
	e.cursorRow = snap.cursorRow
	e.cursorCol = snap.cursorCol
	e.hasSelection = false
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

func (e *SQLEditor) doRedo() {
	e.mu.Lock()
	if len(e.redoStack) == 0 {
		e.mu.Unlock()
		return
	}
	// Save current state to undo stack.
	current := undoEntry{
		lines:     make([]string, len(e.lines)),
		cursorRow: e.cursorRow,
		cursorCol: e.cursorCol,
	}
	copy(current.lines, e.lines)
	e.undoStack = append(e.undoStack, current)

	// Pop from redo stack.
	snap := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	e.lines = snap.lines
	e.cursorRow = snap.cursorRow
	e.cursorCol = snap.cursorCol
	e.hasSelection = false
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

func (e *SQLEditor) cursorLeftLocked() {
	if e.cursorCol > 0 {
		e.cursorCol--
	} else if e.cursorRow > 0 {
		e.cursorRow--
		e.cursorCol = len(e.lines[e.cursorRow])
	}
}

func (e *SQLEditor) cursorRightLocked() {
	if e.cursorCol < len(e.lines[e.cursorRow]) {
		e.cursorCol++
	} else if e.cursorRow < len(e.lines)-1 {
		e.cursorRow++
		e.cursorCol = 0
	}
}

func (e *SQLEditor) cursorUpLocked() {
	if e.cursorRow > 0 {
		e.cursorRow--
		if e.cursorCol > len(e.lines[e.cursorRow]) {
			e.cursorCol = len(e.lines[e.cursorRow])
		}
	}
}

func (e *SQLEditor) cursorDownLocked() {
	if e.cursorRow < len(e.lines)-1 {
		e.cursorRow++
		if e.cursorCol > len(e.lines[e.cursorRow]) {
			e.cursorCol = len(e.lines[e.cursorRow])
		}
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

func (e *SQLEditor) wordLeftLocked() {
	line := e.lines[e.cursorRow]
	if e.cursorCol == 0 {
		if e.cursorRow > 0 {
			e.cursorRow--
			e.cursorCol = len(e.lines[e.cursorRow])
		}
		return
	}
	col := e.cursorCol
	// Skip non-word chars backward
	for col > 0 && !isWordByte(line[col-1]) {
		col--
	}
	// Skip word chars backward
	for col > 0 && isWordByte(line[col-1]) {
		col--
	}
	e.cursorCol = col
}

func (e *SQLEditor) wordRightLocked() {
	line := e.lines[e.cursorRow]
	if e.cursorCol >= len(line) {
		if e.cursorRow < len(e.lines)-1 {
			e.cursorRow++
			e.cursorCol = 0
		}
		return
	}
	col := e.cursorCol
	// Skip word chars forward
	for col < len(line) && isWordByte(line[col]) {
		col++
	}
	// Skip non-word chars forward
	for col < len(line) && !isWordByte(line[col]) {
		col++
	}
	e.cursorCol = col
}

func (e *SQLEditor) startBlink() {
	e.stopBlinkTimer()
	stop := make(chan struct{})
	e.mu.Lock()
	e.stopBlink = stop
	e.blinkOn = true
	e.mu.Unlock()
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.mu.Lock()
				e.blinkOn = !e.blinkOn
				e.mu.Unlock()
				e.refreshContent()
			}
		}
	}()
}

func (e *SQLEditor) stopBlinkTimer() {
	e.mu.Lock()
	if e.stopBlink != nil {
		close(e.stopBlink)
		e.stopBlink = nil
	}
	e.mu.Unlock()
}

func (e *SQLEditor) resetBlink() {
	e.mu.Lock()
	e.blinkOn = true
	e.mu.Unlock()
	e.startBlink()
}

func (e *SQLEditor) KeyDown(ev *fyne.KeyEvent) {
	if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
		e.mu.Lock()
		e.shifting = true
		e.mu.Unlock()
	}
}

func (e *SQLEditor) KeyUp(ev *fyne.KeyEvent) {
	if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
		e.mu.Lock()
		e.shifting = false
		e.mu.Unlock()
	}
}

func (e *SQLEditor) FocusGained() {
	e.mu.Lock()
	e.focused = true
	e.blinkOn = true
	suggest := e.suggestOnFocus
	e.mu.Unlock()
	e.startBlink()
	e.refreshContent()
	if suggest {
		e.forceCompletions()
	}
}

func (e *SQLEditor) FocusLost() {
	e.hideDropdown()
	e.stopBlinkTimer()
	e.mu.Lock()
	e.focused = false
	e.hasSelection = false
	e.shifting = false
	e.mu.Unlock()
	e.refreshContent()
}

func (e *SQLEditor) TypedRune(r rune) {
	e.mu.Lock()
	e.saveUndoLocked()
	if e.hasSelection {
		e.deleteSelectionLocked()
	}
	line := e.lines[e.cursorRow]
	e.lines[e.cursorRow] = line[:e.cursorCol] + string(r) + line[e.cursorCol:]
	e.cursorCol++
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
	e.updateCompletions(r)
}

func (e *SQLEditor) TypedKey(ev *fyne.KeyEvent) {
	// Intercept keys when the dropdown is visible.
	e.mu.Lock()
	ddVis := e.ddVisible
	e.mu.Unlock()
	if ddVis {
		switch ev.Name {
		case fyne.KeyUp:
			e.mu.Lock()
			if e.ddSelected > 0 {
				e.ddSelected--
			}
			e.mu.Unlock()
			e.refreshDropdown()
			return
		case fyne.KeyDown, fyne.KeyTab:
			e.mu.Lock()
			maxIdx := len(e.ddItems) - 1
			if maxIdx > maxDropdownRows-1 {
				maxIdx = maxDropdownRows - 1
			}
			if e.ddSelected < maxIdx {
				e.ddSelected++
			} else {
				e.ddSelected = 0
			}
			e.mu.Unlock()
			e.refreshDropdown()
			return
		case fyne.KeyReturn:
			e.acceptCompletion()
			return
		case fyne.KeyEscape:
			e.hideDropdown()
			return
		}
	}

	var typed rune
	e.mu.Lock()
	edited := true
	// Save undo state before destructive operations.
	switch ev.Name {
	case fyne.KeyReturn, fyne.KeyBackspace, fyne.KeyDelete, fyne.KeyTab:
		e.saveUndoLocked()
	}
	switch ev.Name {
	case fyne.KeyReturn:
		if e.hasSelection {
			e.deleteSelectionLocked()
		}
		line := e.lines[e.cursorRow]
		before := line[:e.cursorCol]
		after := line[e.cursorCol:]
		e.lines[e.cursorRow] = before
		newLines := make([]string, len(e.lines)+1)
		copy(newLines, e.lines[:e.cursorRow+1])
		newLines[e.cursorRow+1] = after
		copy(newLines[e.cursorRow+2:], e.lines[e.cursorRow+1:])
		e.lines = newLines
		e.cursorRow++
		e.cursorCol = 0
		typed = '\n'

	case fyne.KeyBackspace:
		if e.hasSelection {
			e.deleteSelectionLocked()
		} else if e.cursorCol > 0 {
			line := e.lines[e.cursorRow]
			e.lines[e.cursorRow] = line[:e.cursorCol-1] + line[e.cursorCol:]
			e.cursorCol--
		} else if e.cursorRow > 0 {
			prevLen := len(e.lines[e.cursorRow-1])
			e.lines[e.cursorRow-1] += e.lines[e.cursorRow]
			e.lines = append(e.lines[:e.cursorRow], e.lines[e.cursorRow+1:]...)
			e.cursorRow--
			e.cursorCol = prevLen
		}

	case fyne.KeyDelete:
		if e.hasSelection {
			e.deleteSelectionLocked()
		} else {
			line := e.lines[e.cursorRow]
			if e.cursorCol < len(line) {
				e.lines[e.cursorRow] = line[:e.cursorCol] + line[e.cursorCol+1:]
			} else if e.cursorRow < len(e.lines)-1 {
				e.lines[e.cursorRow] += e.lines[e.cursorRow+1]
				e.lines = append(e.lines[:e.cursorRow+1], e.lines[e.cursorRow+2:]...)
			}
		}

	case fyne.KeyLeft:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
			e.cursorLeftLocked()
		} else if e.hasSelection {
			sRow, sCol, _, _ := e.orderedSelection()
			e.cursorRow, e.cursorCol = sRow, sCol
			e.hasSelection = false
		} else {
			e.cursorLeftLocked()
		}

	case fyne.KeyRight:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
			e.cursorRightLocked()
		} else if e.hasSelection {
			_, _, eRow, eCol := e.orderedSelection()
			e.cursorRow, e.cursorCol = eRow, eCol
			e.hasSelection = false
		} else {
			e.cursorRightLocked()
		}

	case fyne.KeyUp:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
			e.cursorUpLocked()
		} else if e.hasSelection {
			sRow, sCol, _, _ := e.orderedSelection()
			e.cursorRow, e.cursorCol = sRow, sCol
			e.hasSelection = false
		} else {
			e.cursorUpLocked()
		}

	case fyne.KeyDown:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
			e.cursorDownLocked()
		} else if e.hasSelection {
			_, _, eRow, eCol := e.orderedSelection()
			e.cursorRow, e.cursorCol = eRow, eCol
			e.hasSelection = false
		} else {
			e.cursorDownLocked()
		}

	case fyne.KeyHome:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
		} else {
			e.hasSelection = false
		}
		e.cursorCol = 0

	case fyne.KeyEnd:
		edited = false
		if e.shifting {
			e.beginSelectionLocked()
		} else {
			e.hasSelection = false
		}
		e.cursorCol = len(e.lines[e.cursorRow])

	case fyne.KeyTab:
		if e.hasSelection {
			e.deleteSelectionLocked()
		}
		line := e.lines[e.cursorRow]
		e.lines[e.cursorRow] = line[:e.cursorCol] + "    " + line[e.cursorCol:]
		e.cursorCol += 4
		typed = '\t'

	default:
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	if edited {
		e.notifyChanged()
		e.updateCompletions(typed)
	}
}

func (e *SQLEditor) clampPositionLocked(row, col int) (int, int) {
	if row < 0 {
		row = 0
	}
	if row >= len(e.lines) {
		row = len(e.lines) - 1
	}
	if col < 0 {
		col = 0
	}
	if col > len(e.lines[row]) {
		col = len(e.lines[row])
	}
	return row, col
}

func (e *SQLEditor) Tapped(ev *fyne.PointEvent) {
	// Check if tap is on a dropdown row.
	e.mu.Lock()
	if e.ddVisible {
		pos := ev.Position
		if pos.X >= e.ddX && pos.X <= e.ddX+e.ddW &&
			pos.Y >= e.ddY && pos.Y <= e.ddY+e.ddH {
			idx := int((pos.Y - e.ddY) / e.ddItemHeight)
			if idx >= 0 && idx < len(e.ddItems) && idx < maxDropdownRows {
				e.ddSelected = idx
				e.mu.Unlock()
				e.acceptCompletion()
				return
			}
		}
	}
	e.mu.Unlock()

	c := fyne.CurrentApp().Driver().CanvasForObject(e)
	if c != nil {
		c.Focus(e)
	}

	e.hideDropdown()

	row, col := e.grid.CursorLocationForPosition(ev.Position)
	e.mu.Lock()
	row, col = e.clampPositionLocked(row, col)
	e.cursorRow = row
	e.cursorCol = col
	e.hasSelection = false
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
}

func (e *SQLEditor) Dragged(ev *fyne.DragEvent) {
	c := fyne.CurrentApp().Driver().CanvasForObject(e)
	if c != nil {
		c.Focus(e)
	}

	e.mu.Lock()
	if !e.dragging {
		// First drag event: compute start position and set anchor there.
		startPos := fyne.NewPos(ev.Position.X-ev.Dragged.DX, ev.Position.Y-ev.Dragged.DY)
		row, col := e.grid.CursorLocationForPosition(startPos)
		row, col = e.clampPositionLocked(row, col)
		e.anchorRow = row
		e.anchorCol = col
		e.hasSelection = true
		e.dragging = true
	}
	// Update cursor to current drag position.
	row, col := e.grid.CursorLocationForPosition(ev.Position)
	row, col = e.clampPositionLocked(row, col)
	e.cursorRow = row
	e.cursorCol = col
	e.mu.Unlock()
	e.refreshContent()
}

func (e *SQLEditor) DragEnd() {
	e.mu.Lock()
	e.dragging = false
	// If anchor == cursor, clear selection (was just a click-drag with no movement).
	if e.hasSelection && e.anchorRow == e.cursorRow && e.anchorCol == e.cursorCol {
		e.hasSelection = false
	}
	e.mu.Unlock()
	e.refreshContent()
}

func (e *SQLEditor) TypedShortcut(s fyne.Shortcut) {
	// Handle CustomShortcut (modifier + key combinations)
	if cs, ok := s.(*desktop.CustomShortcut); ok {
		e.handleCustomShortcut(cs)
		return
	}

	switch s.(type) {
	case *fyne.ShortcutCopy:
		e.doCopy()
	case *fyne.ShortcutPaste:
		e.doPaste()
	case *fyne.ShortcutCut:
		e.doCut()
	case *fyne.ShortcutSelectAll:
		e.doSelectAll()
	case *fyne.ShortcutUndo:
		e.doUndo()
	case *fyne.ShortcutRedo:
		e.doRedo()
	}
}

func (e *SQLEditor) handleCustomShortcut(cs *desktop.CustomShortcut) {
	// Ctrl/Cmd+Enter → submit
	if cs.KeyName == fyne.KeyReturn {
		if e.OnSubmit != nil {
			e.OnSubmit()
		}
		return
	}

	hasWordMod := cs.Modifier&(fyne.KeyModifierSuper|fyne.KeyModifierControl|fyne.KeyModifierAlt) != 0
	hasShift := cs.Modifier&fyne.KeyModifierShift != 0
	hasCmdOrCtrl := cs.Modifier&(fyne.KeyModifierSuper|fyne.KeyModifierControl) != 0

	switch cs.KeyName {
	case fyne.KeySpace:
		// Ctrl+Space: explicit completion request.
		if hasCmdOrCtrl {
			e.forceCompletions()
			return
		}
	case fyne.KeyZ:
		if hasCmdOrCtrl {
			if hasShift {
				e.doRedo()
			} else {
				e.doUndo()
			}
			return
		}
	case fyne.KeyLeft:
		if hasWordMod {
			e.mu.Lock()
			if hasShift {
				e.beginSelectionLocked()
			} else {
				e.hasSelection = false
			}
			e.wordLeftLocked()
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyRight:
		if hasWordMod {
			e.mu.Lock()
			if hasShift {
				e.beginSelectionLocked()
			} else {
				e.hasSelection = false
			}
			e.wordRightLocked()
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyUp:
		if hasShift {
			e.mu.Lock()
			e.beginSelectionLocked()
			e.cursorUpLocked()
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyDown:
		if hasShift {
			e.mu.Lock()
			e.beginSelectionLocked()
			e.cursorDownLocked()
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyHome:
		if hasShift {
			e.mu.Lock()
			e.beginSelectionLocked()
			e.cursorCol = 0
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyEnd:
		if hasShift {
			e.mu.Lock()
			e.beginSelectionLocked()
			e.cursorCol = len(e.lines[e.cursorRow])
			e.mu.Unlock()
			e.resetBlink()
			e.refreshContent()
		}
	case fyne.KeyBackspace:
		// Cmd+Backspace: delete to start of line; Alt+Backspace: delete previous word
		e.mu.Lock()
		e.saveUndoLocked()
		if e.hasSelection {
			e.deleteSelectionLocked()
		} else if cs.Modifier&(fyne.KeyModifierSuper|fyne.KeyModifierControl) != 0 {
			// Delete to start of line
			line := e.lines[e.cursorRow]
			e.lines[e.cursorRow] = line[e.cursorCol:]
			e.cursorCol = 0
		} else if cs.Modifier&fyne.KeyModifierAlt != 0 {
			// Delete previous word
			oldCol := e.cursorCol
			e.wordLeftLocked()
			line := e.lines[e.cursorRow]
			e.lines[e.cursorRow] = line[:e.cursorCol] + line[oldCol:]
		}
		e.mu.Unlock()
		e.resetBlink()
		e.refreshContent()
		e.notifyChanged()
	}
}

func (e *SQLEditor) doSelectAll() {
	e.mu.Lock()
	if len(e.lines) == 1 && e.lines[0] == "" {
		e.mu.Unlock()
		return
	}
	e.anchorRow = 0
	e.anchorCol = 0
	e.cursorRow = len(e.lines) - 1
	e.cursorCol = len(e.lines[e.cursorRow])
	e.hasSelection = true
	e.mu.Unlock()
	e.refreshContent()
}

func (e *SQLEditor) doCopy() {
	e.mu.Lock()
	var text string
	if e.hasSelection {
		text = e.selectedTextLocked()
	}
	e.mu.Unlock()
	if text != "" {
		fyne.CurrentApp().Clipboard().SetContent(text)
	}
}

func (e *SQLEditor) doCut() {
	e.mu.Lock()
	if !e.hasSelection {
		e.mu.Unlock()
		return
	}
	e.saveUndoLocked()
	text := e.selectedTextLocked()
	e.deleteSelectionLocked()
	e.mu.Unlock()
	if text != "" {
		fyne.CurrentApp().Clipboard().SetContent(text)
	}
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

func (e *SQLEditor) doPaste() {
	content := fyne.CurrentApp().Clipboard().Content()
	if content == "" {
		return
	}

	pasteLines := strings.Split(content, "\n")

	e.mu.Lock()
	e.saveUndoLocked()
	if e.hasSelection {
		e.deleteSelectionLocked()
	}
	line := e.lines[e.cursorRow]
	before := line[:e.cursorCol]
	after := line[e.cursorCol:]

	if len(pasteLines) == 1 {
		e.lines[e.cursorRow] = before + pasteLines[0] + after
		e.cursorCol += len(pasteLines[0])
	} else {
		e.lines[e.cursorRow] = before + pasteLines[0]
		newLines := make([]string, 0, len(e.lines)+len(pasteLines)-1)
		newLines = append(newLines, e.lines[:e.cursorRow+1]...)
		for i := 1; i < len(pasteLines)-1; i++ {
			newLines = append(newLines, pasteLines[i])
		}
		lastPaste := pasteLines[len(pasteLines)-1]
		newLines = append(newLines, lastPaste+after)
		newLines = append(newLines, e.lines[e.cursorRow+1:]...)
		e.lines = newLines
		e.cursorRow += len(pasteLines) - 1
		e.cursorCol = len(lastPaste)
	}
	e.mu.Unlock()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

func (e *SQLEditor) AcceptsTab() bool {
	return true
}

// beforeCursorLocked returns the buffer text from the start up to the cursor.
// Caller must hold mu.
func (e *SQLEditor) beforeCursorLocked() string {
	if e.cursorRow == 0 {
		return e.lines[0][:e.cursorCol]
	}
	parts := make([]string, 0, e.cursorRow+1)
	parts = append(parts, e.lines[:e.cursorRow]...)
	parts = append(parts, e.lines[e.cursorRow][:e.cursorCol])
	return strings.Join(parts, "\n")
}

// updateCompletions runs the provider after an edit. typed is the character
// just inserted (0 for deletions). With no partial word at the cursor the
// dropdown only opens for a trigger character.
func (e *SQLEditor) updateCompletions(typed rune) {
	e.refreshCompletions(typed, false)
}

// forceCompletions opens the dropdown regardless of partial word or trigger,
// used for Ctrl+Space and suggest-on-focus.
func (e *SQLEditor) forceCompletions() {
	e.refreshCompletions(0, true)
}

func (e *SQLEditor) refreshCompletions(typed rune, force bool) {
	e.mu.Lock()
	fn := e.provider
	triggers := e.triggers
	line := e.lines[e.cursorRow]
	col := e.cursorCol
	before := e.beforeCursorLocked()
	e.mu.Unlock()

	if fn == nil {
		e.hideDropdown()
		return
	}

	partial := complete.PartialWord(line, col)
	if !force && partial == "" && (typed == 0 || !strings.ContainsRune(triggers, typed)) {
		e.hideDropdown()
		return
	}

	items := narrowCandidates(fn(line, col, before), partial)
	if len(items) == 0 {
		e.hideDropdown()
		return
	}

	e.mu.Lock()
	e.ddItems = items
	e.ddPartial = partial
	e.ddSelected = 0
	e.mu.Unlock()
	e.showDropdown()
}

// narrowCandidates applies the editor-side fuzzy pass over provider output.
// An exact (case-insensitive) match is dropped so accepting a completion
// does not immediately reopen the dropdown on the same word.
func narrowCandidates(items []complete.Candidate, partial string) []complete.Candidate {
	if partial == "" {
		return items
	}
	labels := make([]string, len(items))
	for i := range items {
		labels[i] = strings.ToLower(items[i].Label)
	}
	matches := fuzzy.Find(strings.ToLower(partial), labels)
	out := make([]complete.Candidate, 0, len(matches))
	for _, m := range matches {
		c := items[m.Index]
		if strings.EqualFold(c.Label, partial) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// showDropdown sets the dropdown visible and computes its geometry.
func (e *SQLEditor) showDropdown() {
	e.mu.Lock()
	e.ddVisible = true
	curRow := e.cursorRow
	curCol := e.cursorCol
	partial := e.ddPartial
	n := len(e.ddItems)
	if n > maxDropdownRows {
		n = maxDropdownRows
	}
	e.mu.Unlock()

	charSize := fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})
	itemH := charSize.Height + theme.Padding()

	e.mu.Lock()
	e.ddX = float32(curCol-len(partial)) * charSize.Width
	e.ddY = float32(curRow+1) * charSize.Height
	e.ddW = float32(340)
	e.ddH = float32(n) * itemH
	e.ddItemHeight = itemH
	e.mu.Unlock()

	e.refreshDropdown()
}

// hideDropdown hides the suggestion dropdown.
func (e *SQLEditor) hideDropdown() {
	e.mu.Lock()
	e.ddVisible = false
	e.mu.Unlock()
	e.refreshDropdown()
}

// refreshDropdown updates the dropdown canvas primitives.
func (e *SQLEditor) refreshDropdown() {
	e.mu.Lock()
	visible := e.ddVisible
	var items []complete.Candidate
	var selected int
	var x, y, w, itemH float32
	if visible {
		items = make([]complete.Candidate, len(e.ddItems))
		copy(items, e.ddItems)
		selected = e.ddSelected
		x = e.ddX
		y = e.ddY
		w = e.ddW
		itemH = e.ddItemHeight
	}
	bg := e.ddBg
	selBg := e.ddSelBg
	labels := e.ddLabels
	details := e.ddDetails
	e.mu.Unlock()

	// Canvas objects not yet created (renderer not initialized).
	if bg == nil {
		return
	}

	fyne.Do(func() {
		if !visible || len(items) == 0 {
			bg.Hide()
			selBg.Hide()
			for i := range labels {
				if labels[i] != nil {
					labels[i].Hide()
				}
				if details[i] != nil {
					details[i].Hide()
				}
			}
			return
		}

		th := fyne.CurrentApp().Settings().Theme()
		v := fyne.CurrentApp().Settings().ThemeVariant()

		n := len(items)
		if n > maxDropdownRows {
			n = maxDropdownRows
		}
		h := float32(n) * itemH

		// Background
		bg.FillColor = th.Color(theme.ColorNameMenuBackground, v)
		bg.StrokeColor = th.Color(theme.ColorNameSeparator, v)
		bg.StrokeWidth = 1
		bg.Resize(fyne.NewSize(w, h))
		bg.Move(fyne.NewPos(x, y))
		bg.Show()
		bg.Refresh()

		// Selection highlight
		if selected >= 0 && selected < n {
			selBg.FillColor = th.Color(theme.ColorNameSelection, v)
			selBg.Resize(fyne.NewSize(w, itemH))
			selBg.Move(fyne.NewPos(x, y+float32(selected)*itemH))
			selBg.Show()
			selBg.Refresh()
		} else {
			selBg.Hide()
		}

		// Rows: label in the foreground color, detail dimmed to its right.
		fgColor := th.Color(theme.ColorNameForeground, v)
		detailColor := th.Color(theme.ColorNamePlaceHolder, v)
		pad := theme.Padding()
		detailX := x + 140
		for i := 0; i < maxDropdownRows; i++ {
			if labels[i] == nil || details[i] == nil {
				continue
			}
			if i < n {
				labels[i].Text = items[i].Label
				labels[i].Color = fgColor
				labels[i].TextSize = theme.TextSize()
				labels[i].Move(fyne.NewPos(x+pad, y+float32(i)*itemH))
				labels[i].Show()
				labels[i].Refresh()

				details[i].Text = items[i].Detail
				details[i].Color = detailColor
				details[i].TextSize = theme.TextSize()
				details[i].Move(fyne.NewPos(detailX, y+float32(i)*itemH))
				details[i].Show()
				details[i].Refresh()
			} else {
				labels[i].Hide()
				details[i].Hide()
			}
		}
	})
}

// acceptCompletion replaces the partial word at the cursor with the selected
// candidate's label.
func (e *SQLEditor) acceptCompletion() {
	e.mu.Lock()
	if !e.ddVisible || len(e.ddItems) == 0 {
		e.mu.Unlock()
		return
	}
	sel := e.ddSelected
	if sel < 0 || sel >= len(e.ddItems) {
		sel = 0
	}
	label := e.ddItems[sel].Label
	partial := e.ddPartial

	e.saveUndoLocked()
	line := e.lines[e.cursorRow]
	start := e.cursorCol - len(partial)
	if start < 0 {
		start = 0
	}
	e.lines[e.cursorRow] = line[:start] + label + line[e.cursorCol:]
	e.cursorCol = start + len(label)
	e.mu.Unlock()

	e.hideDropdown()
	e.resetBlink()
	e.refreshContent()
	e.notifyChanged()
}

func (e *SQLEditor) refreshContent() {
	e.mu.Lock()
	lines := make([]string, len(e.lines))
	copy(lines, e.lines)
	focused := e.focused
	blinkOn := e.blinkOn
	placeholder := e.placeholder
	curRow := e.cursorRow
	curCol := e.cursorCol
	hasSel := e.hasSelection
	var selSRow, selSCol, selERow, selECol int
	if hasSel {
		selSRow, selSCol, selERow, selECol = e.orderedSelection()
	}
	e.mu.Unlock()

	fullText := strings.Join(lines, "\n")

	if fullText == "" && !focused && placeholder != "" {
		e.showPlaceholder(placeholder)
		return
	}

	rows := e.buildGridRows(fullText, lines, curRow, curCol, focused, blinkOn, hasSel, selSRow, selSCol, selERow, selECol)

	fyne.Do(func() {
		e.grid.Rows = rows
		e.grid.Refresh()
	})
}

func (e *SQLEditor) showPlaceholder(text string) {
	th := fyne.CurrentApp().Settings().Theme()
	v := fyne.CurrentApp().Settings().ThemeVariant()
	placeholderColor := th.Color(theme.ColorNamePlaceHolder, v)
	style := &widget.CustomTextGridStyle{FGColor: placeholderColor}

	phLines := strings.Split(text, "\n")
	rows := make([]widget.TextGridRow, len(phLines))
	for i, line := range phLines {
		cells := make([]widget.TextGridCell, len(line))
		for j, r := range line {
			cells[j] = widget.TextGridCell{Rune: r, Style: style}
		}
		rows[i] = widget.TextGridRow{Cells: cells}
	}

	fyne.Do(func() {
		e.grid.Rows = rows
		e.grid.Refresh()
	})
}

func (e *SQLEditor) buildGridRows(fullText string, lines []string, curRow, curCol int, focused, blinkOn, hasSel bool, selSRow, selSCol, selERow, selECol int) []widget.TextGridRow {
	th := fyne.CurrentApp().Settings().Theme()
	v := fyne.CurrentApp().Settings().ThemeVariant()

	// Theme colors
	syntaxColors := map[string]color.Color{
		"sqlKeyword":  th.Color("sqlKeyword", v),
		"sqlFunction": th.Color("sqlFunction", v),
		"sqlString":   th.Color("sqlString", v),
		"sqlNumber":   th.Color("sqlNumber", v),
		"sqlComment":  th.Color("sqlComment", v),
	}
	selectionColor := th.Color(theme.ColorNameSelection, v)
	cursorColor := th.Color(theme.ColorNamePrimary, v)
	cursorTextColor := th.Color(theme.ColorNameForegroundOnPrimary, v)

	// Build a map of (row, col) -> syntax color name from chroma tokenization
	type pos struct{ r, c int }
	syntaxMap := map[pos]string{}
	if e.lexer != nil {
		iter, err := e.lexer.Tokenise(nil, fullText)
		if err == nil {
			row, col := 0, 0
			for _, tok := range iter.Tokens() {
				name := tokenColorName(tok.Type)
				for _, ch := range tok.Value {
					if ch == '\n' {
						row++
						col = 0
						continue
					}
					if name != "" {
						syntaxMap[pos{row, col}] = name
					}
					col++
				}
			}
		}
	}

	// Build rows with syntax + selection + cursor styles
	rows := make([]widget.TextGridRow, len(lines))
	for i, line := range lines {
		cells := make([]widget.TextGridCell, len(line))
		for j, r := range line {
			cell := widget.TextGridCell{Rune: r}

			var fgColor color.Color
			if name, ok := syntaxMap[pos{i, j}]; ok {
				fgColor = syntaxColors[name]
			}

			inSel := hasSel && inSelection(i, j, selSRow, selSCol, selERow, selECol)
			isCursor := focused && blinkOn && i == curRow && j == curCol && !hasSel

			if isCursor {
				cell.Style = &widget.CustomTextGridStyle{
					FGColor: cursorTextColor,
					BGColor: cursorColor,
				}
			} else if inSel {
				cell.Style = &widget.CustomTextGridStyle{
					FGColor: fgColor,
					BGColor: selectionColor,
				}
			} else if fgColor != nil {
				cell.Style = &widget.CustomTextGridStyle{FGColor: fgColor}
			}

			cells[j] = cell
		}

		// Handle cursor/selection at end of line (past last character)
		if focused && blinkOn && i == curRow && curCol == len(line) && !hasSel {
			cells = append(cells, widget.TextGridCell{
				Rune: ' ',
				Style: &widget.CustomTextGridStyle{
					FGColor: cursorTextColor,
					BGColor: cursorColor,
				},
			})
		} else if hasSel && inSelection(i, len(line), selSRow, selSCol, selERow, selECol) {
			cells = append(cells, widget.TextGridCell{
				Rune:  ' ',
				Style: &widget.CustomTextGridStyle{BGColor: selectionColor},
			})
		}

		rows[i] = widget.TextGridRow{Cells: cells}
	}

	return rows
}

func inSelection(row, col, sRow, sCol, eRow, eCol int) bool {
	if row < sRow || row > eRow {
		return false
	}
	if row == sRow && col < sCol {
		return false
	}
	if row == eRow && col >= eCol {
		return false
	}
	return true
}

func tokenColorName(t chroma.TokenType) string {
	if t == chroma.NameBuiltin || t == chroma.NameFunction {
		return "sqlFunction"
	}
	switch {
	case t.InCategory(chroma.Keyword):
		return "sqlKeyword"
	case t.InCategory(chroma.LiteralString):
		return "sqlString"
	case t.InCategory(chroma.LiteralNumber):
		return "sqlNumber"
	case t.InCategory(chroma.Comment):
		return "sqlComment"
	}
	return ""
}

type sqlEditorRenderer struct {
	editor  *SQLEditor
	grid    *widget.TextGrid
	objects []fyne.CanvasObject
}

func (e *SQLEditor) CreateRenderer() fyne.WidgetRenderer {
	e.ExtendBaseWidget(e)

	// Create dropdown canvas primitives.
	e.ddBg = canvas.NewRectangle(color.Transparent)
	e.ddBg.Hide()
	e.ddSelBg = canvas.NewRectangle(color.Transparent)
	e.ddSelBg.Hide()
	for i := range e.ddLabels {
		l := canvas.NewText("", color.White)
		l.TextStyle = fyne.TextStyle{Monospace: true}
		l.TextSize = theme.TextSize()
		l.Hide()
		e.ddLabels[i] = l

		d := canvas.NewText("", color.White)
		d.TextStyle = fyne.TextStyle{Monospace: true}
		d.TextSize = theme.TextSize()
		d.Hide()
		e.ddDetails[i] = d
	}

	objects := make([]fyne.CanvasObject, 0, 3+2*maxDropdownRows)
	objects = append(objects, e.grid, e.ddBg, e.ddSelBg)
	for i := range e.ddLabels {
		objects = append(objects, e.ddLabels[i], e.ddDetails[i])
	}

	return &sqlEditorRenderer{editor: e, grid: e.grid, objects: objects}
}

func (r *sqlEditorRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)
	r.grid.Move(fyne.NewPos(0, 0))
}

func (r *sqlEditorRenderer) MinSize() fyne.Size {
	return r.grid.MinSize()
}

func (r *sqlEditorRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *sqlEditorRenderer) Refresh() {
	r.grid.Refresh()
}

func (r *sqlEditorRenderer) Destroy() {
	r.editor.stopBlinkTimer()
}
