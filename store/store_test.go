package store

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	s, err := newWithDB(db)
	if err != nil {
		t.Fatalf("newWithDB: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndListSnippets(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddSnippet("daily-active", "SELECT COUNT(*) FROM users"); err != nil {
		t.Fatalf("AddSnippet: %v", err)
	}
	if err := s.AddSnippet("all-orders", "SELECT * FROM orders"); err != nil {
		t.Fatalf("AddSnippet: %v", err)
	}

	snippets, err := s.ListSnippets()
	if err != nil {
		t.Fatalf("ListSnippets: %v", err)
	}
	if len(snippets) != 2 {
		t.Fatalf("expected 2 snippets, got %d", len(snippets))
	}
	// Ordered by name
	if snippets[0].Name != "all-orders" || snippets[1].Name != "daily-active" {
		t.Errorf("expected name order, got %v", snippets)
	}
	if snippets[1].SQL != "SELECT COUNT(*) FROM users" {
		t.Errorf("unexpected SQL: %q", snippets[1].SQL)
	}
	if snippets[0].CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestDeleteSnippet(t *testing.T) {
	s := newTestStore(t)

	s.AddSnippet("to-delete", "SELECT 1")
	snippets, _ := s.ListSnippets()
	if len(snippets) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(snippets))
	}

	if err := s.DeleteSnippet(snippets[0].ID); err != nil {
		t.Fatalf("DeleteSnippet: %v", err)
	}

	snippets, _ = s.ListSnippets()
	if len(snippets) != 0 {
		t.Fatalf("expected 0 snippets after delete, got %d", len(snippets))
	}
}

func TestGetSetSetting(t *testing.T) {
	s := newTestStore(t)

	// Get missing key returns empty
	val, err := s.GetSetting("nonexistent")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if val != "" {
		t.Errorf("expected empty for missing key, got %q", val)
	}

	// Set and get
	if err := s.SetSetting("theme", "dark"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	val, err = s.GetSetting("theme")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if val != "dark" {
		t.Errorf("expected 'dark', got %q", val)
	}

	// Overwrite
	if err := s.SetSetting("theme", "light"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	val, _ = s.GetSetting("theme")
	if val != "light" {
		t.Errorf("expected 'light' after overwrite, got %q", val)
	}
}
