package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/querypad/querypad/store"
)

func TestReadSchemaJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	payload := `{"tables":[{"name":"users","columns":[{"name":"id","type":"int"}]}]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readSchemaJSON(path)
	if err != nil {
		t.Fatalf("readSchemaJSON: %v", err)
	}
	if got != payload {
		t.Errorf("expected %q, got %q", payload, got)
	}
}

func TestReadSchemaJSON_Missing(t *testing.T) {
	_, err := readSchemaJSON(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "read schema file") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestSnippetItems(t *testing.T) {
	items := snippetItems([]store.Snippet{
		{ID: 1, Name: "daily", SQL: "SELECT 1"},
		{ID: 2, Name: "weekly", SQL: "SELECT 7"},
	})

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != 1 || items[0].Name != "daily" || items[0].SQL != "SELECT 1" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
}

func TestSnippetItems_Empty(t *testing.T) {
	items := snippetItems(nil)
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}
