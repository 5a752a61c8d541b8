package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	opts := Default()

	if opts.Theme != "auto" {
		t.Errorf("expected theme 'auto', got %q", opts.Theme)
	}
	if !opts.LineNumbers || !opts.Border {
		t.Error("expected line numbers and border on by default")
	}
	if opts.WordWrap || opts.SuggestOnFocus {
		t.Error("expected word wrap and suggest-on-focus off by default")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	opts, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if opts.Theme != "auto" {
		t.Errorf("expected defaults, got %+v", opts)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "querypad.toml")
	content := `
theme = "dark"
word_wrap = true
schema_file = "/tmp/schema.json"

[bigquery]
project = "proj"
dataset = "ds"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Theme != "dark" {
		t.Errorf("expected theme 'dark', got %q", opts.Theme)
	}
	if !opts.WordWrap {
		t.Error("expected word_wrap true")
	}
	if opts.SchemaFile != "/tmp/schema.json" {
		t.Errorf("unexpected schema_file: %q", opts.SchemaFile)
	}
	if opts.BigQuery.Project != "proj" || opts.BigQuery.Dataset != "ds" {
		t.Errorf("unexpected bigquery options: %+v", opts.BigQuery)
	}
	// Untouched keys keep their defaults.
	if !opts.LineNumbers {
		t.Error("expected line_numbers default to survive")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "querypad.toml")
	if err := os.WriteFile(path, []byte(`theme = "dark"`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUERYPAD_THEME", "light")
	t.Setenv("QUERYPAD_SUGGEST_ON_FOCUS", "true")

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Theme != "light" {
		t.Errorf("env must override file, got %q", opts.Theme)
	}
	if !opts.SuggestOnFocus {
		t.Error("expected env-set suggest_on_focus")
	}
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("theme = ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed TOML")
	}
}
