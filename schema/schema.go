// Package schema converts the heterogeneous schema payloads supplied by the
// host into one canonical shape: an ordered list of tables, each with an
// ordered list of columns.
package schema

import (
	"encoding/json"
	"fmt"
)

// placeholderTable names tables whose descriptor carries no usable name,
// including the implicit table of a bare {columns:[...]} payload.
const placeholderTable = "table"

// Column is a single column of a table. Type is empty when unknown.
type Column struct {
	Name string
	Type string
}

// Table is a named table. Columns is nil when the payload did not describe
// any columns ("unknown"), and non-nil but empty when the payload confirmed
// the table has none. The two cases behave differently downstream: unknown
// columns suppress column suggestions for the table.
type Table struct {
	Name    string
	Columns []Column
}

// Normalize converts a raw schema value into a canonical table list.
// It accepts, in priority order:
//
//  1. a map with a "tables" array → each element is a table descriptor
//  2. a map with a "columns" array (and no "tables") → one table named "table"
//  3. a bare array of table descriptors
//  4. anything else, including nil → no tables
//
// It never panics and never returns an error; malformed entries degrade to
// placeholders or are kept as best-effort string coercions.
func Normalize(raw any) []Table {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		if rawTables, hasTables := v["tables"]; hasTables {
			// A present but malformed "tables" field wins over "columns".
			tables, ok := rawTables.([]any)
			if !ok {
				return nil
			}
			return normalizeTables(tables)
		}
		if columns, ok := v["columns"].([]any); ok {
			return []Table{{Name: placeholderTable, Columns: normalizeColumns(columns)}}
		}
		return nil
	case []any:
		return normalizeTables(v)
	default:
		return nil
	}
}

// NormalizeJSON parses a JSON schema payload and normalizes it. A payload
// that fails to parse is treated the same as a missing schema.
func NormalizeJSON(text string) []Table {
	if text == "" {
		return nil
	}
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}
	return Normalize(raw)
}

func normalizeTables(items []any) []Table {
	tables := make([]Table, 0, len(items))
	for _, item := range items {
		tables = append(tables, normalizeTable(item))
	}
	return tables
}

func normalizeTable(item any) Table {
	m, ok := item.(map[string]any)
	if !ok {
		return Table{Name: placeholderTable}
	}
	t := Table{Name: placeholderTable}
	if name, ok := m["name"].(string); ok {
		t.Name = name
	}
	if columns, ok := m["columns"].([]any); ok {
		t.Columns = normalizeColumns(columns)
	}
	return t
}

func normalizeColumns(items []any) []Column {
	cols := make([]Column, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			// Not an object: keep its string form as the column name.
			cols = append(cols, Column{Name: fmt.Sprintf("%v", item)})
			continue
		}
		name, ok := m["name"].(string)
		if !ok {
			cols = append(cols, Column{Name: fmt.Sprintf("%v", item)})
			continue
		}
		col := Column{Name: name}
		if typ, ok := m["type"].(string); ok {
			col.Type = typ
		} else if typ, ok := m["dataType"].(string); ok {
			col.Type = typ
		}
		cols = append(cols, col)
	}
	return cols
}
