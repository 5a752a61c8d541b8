package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/querypad/querypad/ai"
	"github.com/querypad/querypad/bq"
	"github.com/querypad/querypad/config"
	"github.com/querypad/querypad/store"
	"github.com/querypad/querypad/ui"
)

// App wires the editor widget to its schema sources and side panels.
type App struct {
	window fyne.Window
	store  *store.Store
	opts   config.Options

	editor    *ui.Editor
	tree      *ui.SchemaTree
	snippets  *ui.Snippets
	assistant *ui.Assistant

	aiClient *ai.Client

	ctx context.Context
}

func NewApp(window fyne.Window, st *store.Store, opts config.Options, ctx context.Context) *App {
	a := &App{
		window: window,
		store:  st,
		opts:   opts,
		ctx:    ctx,
	}

	a.editor = ui.NewEditor(opts)
	a.tree = ui.NewSchemaTree()
	a.snippets = ui.NewSnippets()
	a.assistant = ui.NewAssistant()

	a.wireCallbacks()
	return a
}

func (a *App) wireCallbacks() {
	// Schema tree: clicked name goes into the editor at the cursor
	a.tree.OnInsert = func(name string) {
		a.editor.InsertText(name)
	}

	// Snippets
	a.snippets.OnSelect = func(sql string) {
		a.editor.SetText(sql)
	}
	a.snippets.OnDelete = func(id int64) {
		if err := a.store.DeleteSnippet(id); err != nil {
			a.showError(err)
			return
		}
		go a.refreshSnippets()
	}
	a.snippets.OnSave = a.saveSnippet
	a.snippets.OnRefresh = func() {
		go a.refreshSnippets()
	}

	// Assistant
	a.assistant.OnSendMessage = func(userMsg string) {
		go a.askAssistant(userMsg)
	}
	a.assistant.OnInsertSQL = func(sql string) {
		a.editor.InsertText(sql)
	}
}

// LoadSchema picks the configured schema source and applies it in the
// background. A file source wins over BigQuery when both are set.
func (a *App) LoadSchema() {
	switch {
	case a.opts.SchemaFile != "":
		go a.loadSchemaFile(a.opts.SchemaFile)
	case a.opts.BigQuery.Project != "" && a.opts.BigQuery.Dataset != "":
		go a.loadSchemaBigQuery(a.opts.BigQuery.Project, a.opts.BigQuery.Dataset)
	}
}

func (a *App) loadSchemaFile(path string) {
	a.editor.SetLoading(true)
	text, err := readSchemaJSON(path)
	if err != nil {
		a.editor.SetLoading(false)
		log.Printf("app: schema file: %v", err)
		a.showError(err)
		return
	}
	a.editor.SetSchemaJSON(text)
	a.tree.SetTables(a.editor.Tables())
}

func (a *App) loadSchemaBigQuery(project, dataset string) {
	a.editor.SetLoading(true)
	src, err := bq.NewSource(a.ctx, project)
	if err != nil {
		a.editor.SetLoading(false)
		a.showError(err)
		return
	}
	defer src.Close()

	payload, err := src.FetchSchemaPayload(a.ctx, dataset)
	if err != nil {
		a.editor.SetLoading(false)
		log.Printf("app: bigquery schema: %v", err)
		a.showError(err)
		return
	}
	a.editor.SetSchemaPayload(payload)
	a.tree.SetTables(a.editor.Tables())
}

func readSchemaJSON(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read schema file %s: %w", path, err)
	}
	return string(data), nil
}

func (a *App) refreshSnippets() {
	entries, err := a.store.ListSnippets()
	if err != nil {
		return
	}
	a.snippets.SetEntries(snippetItems(entries))
}

func snippetItems(entries []store.Snippet) []ui.SnippetEntry {
	items := make([]ui.SnippetEntry, len(entries))
	for i, e := range entries {
		items[i] = ui.SnippetEntry{
			ID:   e.ID,
			Name: e.Name,
			SQL:  e.SQL,
		}
	}
	return items
}

func (a *App) saveSnippet() {
	sql := a.editor.Text()
	if sql == "" {
		return
	}
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Snippet name")
	dialog.ShowForm("Save Snippet", "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", nameEntry)},
		func(ok bool) {
			if !ok || nameEntry.Text == "" {
				return
			}
			if err := a.store.AddSnippet(nameEntry.Text, sql); err != nil {
				a.showError(err)
				return
			}
			go a.refreshSnippets()
		},
		a.window,
	)
}

func (a *App) askAssistant(userMsg string) {
	a.assistant.AddMessage("user", userMsg, "")

	if a.aiClient == nil {
		client, err := ai.New()
		if err != nil {
			a.assistant.SetStatus(err.Error())
			return
		}
		client.SetModel(a.opts.Assistant.Model)
		a.aiClient = client
	}

	a.assistant.SetStatus("Thinking...")

	history := a.assistant.Messages()
	msgs := make([]ai.Message, len(history))
	for i, m := range history {
		msgs[i] = ai.Message{Role: m.Role, Content: m.Content}
	}

	resp, err := a.aiClient.Chat(a.ctx, ai.SystemPrompt(a.editor.Tables()), msgs)
	if err != nil {
		a.assistant.SetStatus(fmt.Sprintf("Error: %v", err))
		return
	}

	a.assistant.SetStatus("")
	a.assistant.AddMessage("assistant", resp, ui.ExtractSQL(resp))
}

func (a *App) toggleTheme() {
	if appTheme.Variant() == theme.VariantDark {
		appTheme.SetVariant(theme.VariantLight)
		_ = a.store.SetSetting("theme_variant", "light")
	} else {
		appTheme.SetVariant(theme.VariantDark)
		_ = a.store.SetSetting("theme_variant", "dark")
	}
	fyne.CurrentApp().Settings().SetTheme(appTheme)
}

func (a *App) BuildUI() fyne.CanvasObject {
	rightTabs := container.NewAppTabs(
		container.NewTabItem("Snippets", a.snippets.Container),
		container.NewTabItem("Assistant", a.assistant.Container),
	)

	editorSplit := container.NewHSplit(a.editor.Container, rightTabs)
	editorSplit.Offset = 0.7

	mainSplit := container.NewHSplit(a.tree.Container, editorSplit)
	mainSplit.Offset = 0.2

	toolbar := container.NewHBox(
		widget.NewButtonWithIcon("Reload Schema", theme.Icon(theme.IconNameViewRefresh), a.LoadSchema),
		layout.NewSpacer(),
		widget.NewButtonWithIcon("", theme.Icon(theme.IconNameColorPalette), a.toggleTheme),
	)

	return container.NewBorder(toolbar, nil, nil, nil, mainSplit)
}

func (a *App) showError(err error) {
	fyne.Do(func() {
		dialog.ShowError(err, a.window)
	})
}
