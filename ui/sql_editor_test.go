package ui

import (
	"os"
	"testing"

	"fyne.io/fyne/v2/test"

	"github.com/querypad/querypad/complete"
	"github.com/querypad/querypad/schema"
)

func TestMain(m *testing.M) {
	test.NewApp()
	os.Exit(m.Run())
}

func setupEditorWithSchema(t *testing.T) *SQLEditor {
	t.Helper()
	e := NewSQLEditor()
	p := complete.NewProvider([]schema.Table{
		{Name: "users", Columns: []schema.Column{
			{Name: "id", Type: "int"},
			{Name: "email", Type: "text"},
		}},
		{Name: "orders", Columns: []schema.Column{
			{Name: "id", Type: "int"},
			{Name: "total", Type: "numeric"},
		}},
	})
	e.RegisterCompletionProvider(p.Complete, DefaultTriggers)
	return e
}

func TestBeforeCursor_SingleLine(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SELECT * FROM"}
	e.cursorCol = 8

	e.mu.Lock()
	got := e.beforeCursorLocked()
	e.mu.Unlock()

	if got != "SELECT *" {
		t.Errorf("expected 'SELECT *', got %q", got)
	}
}

func TestBeforeCursor_Multiline(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SELECT *", "FROM users u", "WHERE u."}
	e.cursorRow = 2
	e.cursorCol = 8

	e.mu.Lock()
	got := e.beforeCursorLocked()
	e.mu.Unlock()

	want := "SELECT *\nFROM users u\nWHERE u."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUpdateCompletions_PartialKeyword(t *testing.T) {
	e := setupEditorWithSchema(t)
	e.lines = []string{"SEL"}
	e.cursorCol = 3

	e.updateCompletions('L')

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ddVisible {
		t.Fatal("expected dropdown to be visible")
	}
	if e.ddPartial != "SEL" {
		t.Errorf("expected partial 'SEL', got %q", e.ddPartial)
	}
	found := false
	for _, it := range e.ddItems {
		if it.Label == "SELECT" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SELECT among items, got %v", e.ddItems)
	}
}

func TestUpdateCompletions_DotShowsAliasColumns(t *testing.T) {
	e := setupEditorWithSchema(t)
	e.lines = []string{"SELECT * FROM users u WHERE u."}
	e.cursorCol = len(e.lines[0])

	e.updateCompletions('.')

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ddVisible {
		t.Fatal("expected dropdown after dot trigger")
	}
	if len(e.ddItems) != 2 {
		t.Fatalf("expected 2 column candidates, got %v", e.ddItems)
	}
	if e.ddItems[0].Label != "id" || e.ddItems[0].Detail != "users.id (int)" {
		t.Errorf("unexpected first candidate: %+v", e.ddItems[0])
	}
	if e.ddItems[1].Label != "email" {
		t.Errorf("unexpected second candidate: %+v", e.ddItems[1])
	}
}

func TestUpdateCompletions_CrossLineAlias(t *testing.T) {
	e := setupEditorWithSchema(t)
	e.lines = []string{"SELECT *", "FROM orders o", "WHERE o."}
	e.cursorRow = 2
	e.cursorCol = 8

	e.updateCompletions('.')

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ddVisible {
		t.Fatal("expected dropdown for alias bound on an earlier line")
	}
	if e.ddItems[0].Detail != "orders.id (int)" {
		t.Errorf("expected orders columns, got %v", e.ddItems)
	}
}

func TestUpdateCompletions_SpaceTriggerOpensDefault(t *testing.T) {
	e := setupEditorWithSchema(t)
	e.lines = []string{"SELECT "}
	e.cursorCol = 7

	e.updateCompletions(' ')

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ddVisible {
		t.Fatal("expected dropdown after space trigger")
	}
	if len(e.ddItems) == 0 {
		t.Error("expected default candidates")
	}
}

func TestUpdateCompletions_DeletionWithoutPartialHides(t *testing.T) {
	e := setupEditorWithSchema(t)
	e.lines = []string{"SELECT "}
	e.cursorCol = 7
	e.ddVisible = true

	// typed == 0 models a deletion; no partial word left of the cursor.
	e.updateCompletions(0)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ddVisible {
		t.Error("expected dropdown hidden without partial or trigger")
	}
}

func TestUpdateCompletions_NoProvider(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SEL"}
	e.cursorCol = 3

	e.updateCompletions('L')

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ddVisible {
		t.Error("expected no dropdown without a provider")
	}
}

func TestForceCompletions_EmptyPartial(t *testing.T) {
	e := setupEditorWithSchema(t)
	e.lines = []string{""}
	e.cursorCol = 0

	e.forceCompletions()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ddVisible {
		t.Fatal("expected dropdown on explicit invocation")
	}
}

func TestNarrowCandidates_FuzzySubsequence(t *testing.T) {
	items := []complete.Candidate{
		{Label: "email"},
		{Label: "total"},
		{Label: "employee_id"},
	}

	got := narrowCandidates(items, "eml")

	for _, c := range got {
		if c.Label == "total" {
			t.Errorf("'total' must not fuzzy-match 'eml': %v", got)
		}
	}
	if len(got) == 0 {
		t.Fatal("expected fuzzy matches for 'eml'")
	}
}

func TestNarrowCandidates_ExactMatchDropped(t *testing.T) {
	items := []complete.Candidate{
		{Label: "SELECT"},
		{Label: "SET"},
	}

	got := narrowCandidates(items, "select")

	for _, c := range got {
		if c.Label == "SELECT" {
			t.Error("exact match must be dropped from the dropdown")
		}
	}
}

func TestNarrowCandidates_EmptyPartialPassesThrough(t *testing.T) {
	items := []complete.Candidate{{Label: "a"}, {Label: "b"}}

	got := narrowCandidates(items, "")

	if len(got) != 2 {
		t.Errorf("expected all items, got %v", got)
	}
}

func TestAcceptCompletion_ReplacesPartial(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SEL"}
	e.cursorCol = 3
	e.ddVisible = true
	e.ddItems = []complete.Candidate{{Label: "SELECT"}}
	e.ddSelected = 0
	e.ddPartial = "SEL"

	e.acceptCompletion()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lines[0] != "SELECT" {
		t.Errorf("expected 'SELECT', got %q", e.lines[0])
	}
	if e.cursorCol != 6 {
		t.Errorf("expected cursor at col 6, got %d", e.cursorCol)
	}
}

func TestAcceptCompletion_FuzzyLabelReplacesWholeWord(t *testing.T) {
	// Fuzzy narrowing can select a label that does not share the partial's
	// prefix; the whole partial word is replaced.
	e := NewSQLEditor()
	e.lines = []string{"SELECT eml"}
	e.cursorCol = 10
	e.ddVisible = true
	e.ddItems = []complete.Candidate{{Label: "email"}}
	e.ddSelected = 0
	e.ddPartial = "eml"

	e.acceptCompletion()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lines[0] != "SELECT email" {
		t.Errorf("expected 'SELECT email', got %q", e.lines[0])
	}
	if e.cursorCol != 12 {
		t.Errorf("expected cursor at col 12, got %d", e.cursorCol)
	}
}

func TestAcceptCompletion_EmptyPartialAfterDot(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"u."}
	e.cursorCol = 2
	e.ddVisible = true
	e.ddItems = []complete.Candidate{{Label: "email"}}
	e.ddSelected = 0
	e.ddPartial = ""

	e.acceptCompletion()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lines[0] != "u.email" {
		t.Errorf("expected 'u.email', got %q", e.lines[0])
	}
}

func TestAcceptCompletion_NotVisible(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SEL"}
	e.cursorCol = 3
	e.ddVisible = false
	e.ddItems = []complete.Candidate{{Label: "SELECT"}}
	e.ddPartial = "SEL"

	e.acceptCompletion()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lines[0] != "SEL" {
		t.Errorf("expected 'SEL' (unchanged), got %q", e.lines[0])
	}
}

func TestRegistration_DisposeDetachesProvider(t *testing.T) {
	e := setupEditorWithSchema(t)
	e.mu.Lock()
	reg := &Registration{editor: e, gen: e.providerGen}
	e.mu.Unlock()

	reg.Dispose()

	e.lines = []string{"SEL"}
	e.cursorCol = 3
	e.updateCompletions('L')

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ddVisible {
		t.Error("disposed provider must not produce suggestions")
	}
}

func TestRegistration_StaleDisposeIsNoOp(t *testing.T) {
	e := NewSQLEditor()
	p1 := complete.NewProvider(nil)
	r1 := e.RegisterCompletionProvider(p1.Complete, DefaultTriggers)

	p2 := complete.NewProvider([]schema.Table{{Name: "users"}})
	e.RegisterCompletionProvider(p2.Complete, DefaultTriggers)

	// Disposing the superseded registration must not detach the new provider.
	r1.Dispose()

	e.lines = []string{"use"}
	e.cursorCol = 3
	e.updateCompletions('e')

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ddVisible {
		t.Error("fresh provider must survive a stale Dispose")
	}
}

func TestSchemalessProvider_KeywordsOnly(t *testing.T) {
	e := NewSQLEditor()
	p := complete.NewProvider(schema.Normalize(nil))
	e.RegisterCompletionProvider(p.Complete, DefaultTriggers)

	e.lines = []string{"SELECT "}
	e.cursorCol = 7
	e.updateCompletions(' ')

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ddVisible {
		t.Fatal("expected keyword suggestions without a schema")
	}
	for _, it := range e.ddItems {
		if it.Kind != complete.KindKeyword {
			t.Errorf("expected keywords only, got %+v", it)
		}
	}
}
