package complete

import (
	"strings"

	"github.com/querypad/querypad/schema"
)

// CandidateKind tags a candidate for display purposes.
type CandidateKind int

const (
	KindKeyword CandidateKind = iota
	KindTable
	KindColumn
)

// Candidate is one completion suggestion. Label is the inserted text;
// Detail is shown dimmed next to it.
type Candidate struct {
	Label  string
	Detail string
	Kind   CandidateKind
}

// Engine produces candidates from an immutable schema snapshot. Each
// completion request is a pure function of the snapshot plus the request
// inputs, so a schema change never affects requests already in flight;
// the host builds a new Engine instead.
type Engine struct {
	tables []schema.Table
}

// NewEngine creates an engine over a normalized schema snapshot.
func NewEngine(tables []schema.Table) *Engine {
	return &Engine{tables: tables}
}

// Tables returns the snapshot the engine was built from.
func (e *Engine) Tables() []schema.Table {
	return e.tables
}

// Suggest returns the deduplicated candidate list for a classified context.
// The partial word filters keyword candidates only; table and column
// candidates are always offered and left to the host editor's own narrowing.
func (e *Engine) Suggest(ctx Context, partial string) []Candidate {
	var out []Candidate

	switch ctx.Kind {
	case ContextTable:
		for _, kw := range tableContextKeywords {
			if matchesPartial(kw, partial) {
				out = append(out, Candidate{Label: kw, Detail: "keyword", Kind: KindKeyword})
			}
		}
		out = append(out, e.tableCandidates()...)

	case ContextColumn:
		out = append(out, e.columnCandidates(ctx.Table)...)

	default:
		for _, kw := range Keywords {
			if matchesPartial(kw, partial) {
				out = append(out, Candidate{Label: kw, Detail: "keyword", Kind: KindKeyword})
			}
		}
		out = append(out, e.tableCandidates()...)
		for _, t := range e.tables {
			out = append(out, columnsToCandidates(t)...)
		}
	}

	return Dedupe(out)
}

func (e *Engine) tableCandidates() []Candidate {
	out := make([]Candidate, 0, len(e.tables))
	for _, t := range e.tables {
		out = append(out, Candidate{Label: t.Name, Detail: "table", Kind: KindTable})
	}
	return out
}

// columnCandidates resolves the named table (exact match first, then
// case-insensitive) and returns its columns. Tables with unknown columns
// contribute nothing.
func (e *Engine) columnCandidates(tableName string) []Candidate {
	for _, t := range e.tables {
		if t.Name == tableName {
			return columnsToCandidates(t)
		}
	}
	for _, t := range e.tables {
		if strings.EqualFold(t.Name, tableName) {
			return columnsToCandidates(t)
		}
	}
	return nil
}

func columnsToCandidates(t schema.Table) []Candidate {
	out := make([]Candidate, 0, len(t.Columns))
	for _, c := range t.Columns {
		detail := t.Name + "." + c.Name
		if c.Type != "" {
			detail += " (" + c.Type + ")"
		}
		out = append(out, Candidate{Label: c.Name, Detail: detail, Kind: KindColumn})
	}
	return out
}

// matchesPartial is the tolerant bidirectional prefix rule: a candidate
// matches if it starts with the partial word or the partial word starts with
// the candidate, case-insensitively. The empty partial matches everything.
func matchesPartial(candidate, partial string) bool {
	c := strings.ToLower(candidate)
	p := strings.ToLower(partial)
	return strings.HasPrefix(c, p) || strings.HasPrefix(p, c)
}

// Dedupe removes candidates sharing both label and detail, keeping the first
// occurrence. Same label with a different detail (the same column name in two
// tables) survives. Running it on its own output is a no-op.
func Dedupe(items []Candidate) []Candidate {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, item := range items {
		key := item.Label + "\x00" + item.Detail
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
