// Package config holds the widget-level options and app configuration,
// loaded from an optional TOML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// Options configures the editor widget and the demo app around it.
type Options struct {
	// Initial SQL text.
	Value string `toml:"value" env:"QUERYPAD_VALUE"`

	// Theme is "light", "dark" or "auto" (follow the host).
	Theme string `toml:"theme" env:"QUERYPAD_THEME"`

	FontSize       float32 `toml:"font_size" env:"QUERYPAD_FONT_SIZE"`
	LineNumbers    bool    `toml:"line_numbers" env:"QUERYPAD_LINE_NUMBERS"`
	WordWrap       bool    `toml:"word_wrap" env:"QUERYPAD_WORD_WRAP"`
	Border         bool    `toml:"border" env:"QUERYPAD_BORDER"`
	SuggestOnFocus bool    `toml:"suggest_on_focus" env:"QUERYPAD_SUGGEST_ON_FOCUS"`

	// SchemaFile points at a JSON schema payload; empty means no file source.
	SchemaFile string `toml:"schema_file" env:"QUERYPAD_SCHEMA_FILE"`

	BigQuery  BigQueryOptions  `toml:"bigquery"`
	Assistant AssistantOptions `toml:"assistant"`
}

// BigQueryOptions selects the optional BigQuery schema source.
type BigQueryOptions struct {
	Project string `toml:"project" env:"QUERYPAD_BQ_PROJECT"`
	Dataset string `toml:"dataset" env:"QUERYPAD_BQ_DATASET"`
}

// AssistantOptions configures the query assistant.
type AssistantOptions struct {
	Model string `toml:"model" env:"QUERYPAD_ASSISTANT_MODEL"`
}

// Default returns the zero-config widget options.
func Default() Options {
	return Options{
		Theme:       "auto",
		FontSize:    13,
		LineNumbers: true,
		Border:      true,
	}
}

// Load reads path as TOML (a missing file is fine) and then applies
// environment overrides on top.
func Load(path string) (Options, error) {
	opts := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall through to env only
		case err != nil:
			return opts, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &opts); err != nil {
				return opts, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&opts); err != nil {
		return opts, fmt.Errorf("parse env overrides: %w", err)
	}
	return opts, nil
}
