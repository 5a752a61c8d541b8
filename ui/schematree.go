package ui

import (
	"image/color"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/querypad/querypad/schema"
)

// Node ID format:
//   "t:<table>"
//   "c:<table>/<column>"

func tableNodeID(table string) string          { return "t:" + table }
func columnNodeID(table, column string) string { return "c:" + table + "/" + column }

func parseTreeNodeID(id string) (kind, table, column string) {
	if len(id) < 2 {
		return "", "", ""
	}
	kind = id[:1]
	rest := id[2:]
	if kind == "c" {
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return kind, rest[:i], rest[i+1:]
		}
	}
	return kind, rest, ""
}

type treeNode struct {
	id       string
	label    string
	detail   string // column type, shown dimmed
	depth    int    // 0=table, 1=column
	isBranch bool
	expanded bool
}

// SchemaTree is a collapsible tables→columns browser over the normalized
// schema snapshot. Clicking a table or column name inserts it into the
// editor via OnInsert.
type SchemaTree struct {
	list        *widget.List
	filterEntry *widget.Entry

	mu       sync.Mutex
	tables   []schema.Table
	visible  []treeNode
	expanded map[string]bool
	filter   string

	// OnInsert is called with the clicked table or column name.
	OnInsert func(name string)

	Container fyne.CanvasObject
}

func NewSchemaTree() *SchemaTree {
	s := &SchemaTree{
		expanded: make(map[string]bool),
	}

	s.filterEntry = widget.NewEntry()
	s.filterEntry.SetPlaceHolder("Filter tables & columns...")
	s.filterEntry.OnChanged = func(text string) {
		s.mu.Lock()
		s.filter = text
		s.mu.Unlock()
		s.rebuildVisible()
	}

	s.list = widget.NewList(
		func() int {
			s.mu.Lock()
			defer s.mu.Unlock()
			return len(s.visible)
		},
		func() fyne.CanvasObject {
			spacer := widget.NewLabel("")
			icon := widget.NewIcon(theme.NavigateNextIcon())
			label := canvas.NewText("template", color.White)
			detail := canvas.NewText("", color.White)
			leftGroup := container.NewHBox(spacer, icon)
			return container.NewBorder(nil, nil, leftGroup, detail, label)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			s.mu.Lock()
			if id >= len(s.visible) {
				s.mu.Unlock()
				return
			}
			node := s.visible[id]
			s.mu.Unlock()

			c := obj.(*fyne.Container)
			label := c.Objects[0].(*canvas.Text)
			leftGroup := c.Objects[1].(*fyne.Container)
			detail := c.Objects[2].(*canvas.Text)
			spacer := leftGroup.Objects[0].(*widget.Label)
			icon := leftGroup.Objects[1].(*widget.Icon)

			th := fyne.CurrentApp().Settings().Theme()
			v := fyne.CurrentApp().Settings().ThemeVariant()

			indent := ""
			for i := 0; i < node.depth; i++ {
				indent += "    "
			}
			spacer.SetText(indent)

			label.Text = node.label
			label.Color = th.Color(theme.ColorNameForeground, v)
			label.TextSize = theme.Size(theme.SizeNameText)

			detail.Text = node.detail
			detail.Color = th.Color(theme.ColorNamePlaceHolder, v)
			detail.TextSize = theme.Size(theme.SizeNameText)

			if node.isBranch {
				if node.expanded {
					icon.SetResource(theme.MoveDownIcon())
				} else {
					icon.SetResource(theme.NavigateNextIcon())
				}
			} else {
				icon.SetResource(theme.DocumentIcon())
			}
			label.Refresh()
			detail.Refresh()
		},
	)

	s.list.OnSelected = func(id widget.ListItemID) {
		s.list.UnselectAll()
		s.mu.Lock()
		if id >= len(s.visible) {
			s.mu.Unlock()
			return
		}
		node := s.visible[id]
		s.mu.Unlock()

		kind, table, column := parseTreeNodeID(node.id)
		name := table
		if kind == "c" {
			name = column
		}
		if node.isBranch {
			s.mu.Lock()
			s.expanded[node.id] = !s.expanded[node.id]
			s.mu.Unlock()
			s.rebuildVisible()
		}
		if s.OnInsert != nil {
			s.OnInsert(name)
		}
	}

	s.Container = container.NewBorder(s.filterEntry, nil, nil, nil, s.list)
	return s
}

// SetTables replaces the schema snapshot shown in the tree.
func (s *SchemaTree) SetTables(tables []schema.Table) {
	s.mu.Lock()
	s.tables = tables
	s.mu.Unlock()
	s.rebuildVisible()
}

// rebuildVisible reconstructs the flat visible list, applying the filter.
// A filter match on a column also keeps its table visible and expands it.
// Must NOT hold s.mu when calling.
func (s *SchemaTree) rebuildVisible() {
	s.mu.Lock()

	filter := strings.ToLower(s.filter)
	var nodes []treeNode

	for _, t := range s.tables {
		tid := tableNodeID(t.Name)
		tableMatches := filter == "" || strings.Contains(strings.ToLower(t.Name), filter)

		var cols []treeNode
		for _, c := range t.Columns {
			if filter != "" && !tableMatches &&
				!strings.Contains(strings.ToLower(c.Name), filter) {
				continue
			}
			cols = append(cols, treeNode{
				id:     columnNodeID(t.Name, c.Name),
				label:  c.Name,
				detail: c.Type,
				depth:  1,
			})
		}

		if !tableMatches && len(cols) == 0 {
			continue
		}

		expanded := s.expanded[tid]
		if filter != "" && len(cols) > 0 {
			expanded = true
		}
		nodes = append(nodes, treeNode{
			id:       tid,
			label:    t.Name,
			depth:    0,
			isBranch: len(t.Columns) > 0,
			expanded: expanded,
		})
		if expanded {
			nodes = append(nodes, cols...)
		}
	}

	s.visible = nodes
	s.mu.Unlock()

	fyne.Do(func() {
		s.list.Refresh()
	})
}
