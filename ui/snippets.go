package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type SnippetEntry struct {
	ID   int64
	Name string
	SQL  string
}

type OnSnippetSelectFunc func(sql string)
type OnSnippetDeleteFunc func(id int64)

// Snippets is the saved-snippet side panel. Selecting an entry hands its SQL
// to OnSelect (the app inserts it into the editor).
type Snippets struct {
	list    *widget.List
	entries []SnippetEntry

	OnSelect  OnSnippetSelectFunc
	OnDelete  OnSnippetDeleteFunc
	OnSave    func() // save the editor's current SQL as a new snippet
	OnRefresh func()

	Container fyne.CanvasObject
}

func NewSnippets() *Snippets {
	s := &Snippets{}

	saveBtn := widget.NewButton("Save current", func() {
		if s.OnSave != nil {
			s.OnSave()
		}
	})
	refreshBtn := widget.NewButton("Refresh", func() {
		if s.OnRefresh != nil {
			s.OnRefresh()
		}
	})
	toolbar := container.NewHBox(saveBtn, refreshBtn)

	s.list = widget.NewList(
		func() int { return len(s.entries) },
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id >= len(s.entries) {
				return
			}
			e := s.entries[id]
			label.SetText(fmt.Sprintf("%s — %s", e.Name, truncate(e.SQL, 60)))
		},
	)

	s.list.OnSelected = func(id widget.ListItemID) {
		if id < len(s.entries) && s.OnSelect != nil {
			s.OnSelect(s.entries[id].SQL)
		}
		s.list.UnselectAll()
	}

	s.Container = container.NewBorder(toolbar, nil, nil, nil, s.list)
	return s
}

func (s *Snippets) SetEntries(entries []SnippetEntry) {
	s.entries = entries
	fyne.Do(func() {
		s.list.Refresh()
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
