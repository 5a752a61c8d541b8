package complete

import (
	"regexp"
	"strings"

	"github.com/querypad/querypad/schema"
)

// ContextKind classifies what the user is completing at the cursor.
type ContextKind int

const (
	// ContextDefault offers keywords, tables, and all known columns.
	ContextDefault ContextKind = iota
	// ContextTable offers table names (right after FROM/JOIN).
	ContextTable
	// ContextColumn offers the columns of one resolved table.
	ContextColumn
)

// Context is the classified completion context. Table is set only for
// ContextColumn.
type Context struct {
	Kind  ContextKind
	Table string
}

// dotQualifierRe matches "<identifier> . <partial-or-empty>" immediately
// before the cursor, tolerating whitespace around the dot.
var dotQualifierRe = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\.\s*([A-Za-z0-9_]*)$`)

// Classify determines the completion context from the current line, the
// cursor column within it, the full buffer text up to the cursor, the alias
// map, and the known tables. Rules are tried in order, first match wins;
// anything unresolvable falls through to ContextDefault. It never fails.
func Classify(line string, col int, before string, aliases map[string]string, tables []schema.Table) Context {
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}

	// Rule 1: cursor directly after a FROM/JOIN token.
	fields := strings.Fields(line[:col])
	if len(fields) > 0 {
		last := fields[len(fields)-1]
		if strings.EqualFold(last, "FROM") || strings.EqualFold(last, "JOIN") {
			return Context{Kind: ContextTable}
		}
	}

	// Rule 2: dot-qualified column position.
	if m := dotQualifierRe.FindStringSubmatch(before); m != nil {
		ident := m[1]
		if table, ok := aliases[ident]; ok {
			return Context{Kind: ContextColumn, Table: table}
		}
		if table, ok := aliases[strings.ToLower(ident)]; ok {
			return Context{Kind: ContextColumn, Table: table}
		}
		for _, t := range tables {
			if t.Name == ident {
				return Context{Kind: ContextColumn, Table: ident}
			}
		}
		for _, t := range tables {
			if strings.EqualFold(t.Name, ident) {
				return Context{Kind: ContextColumn, Table: ident}
			}
		}
	}

	return Context{Kind: ContextDefault}
}

// PartialWord returns the identifier fragment immediately left of the cursor,
// used for prefix filtering of keyword candidates.
func PartialWord(line string, col int) string {
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}
	start := col
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	return line[start:col]
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
