package complete

import "github.com/querypad/querypad/schema"

// Provider runs the whole completion pipeline for one request: alias
// resolution over the text typed so far, context classification at the
// cursor, and candidate generation against a schema snapshot.
type Provider struct {
	engine *Engine
}

// NewProvider builds a provider over a normalized schema snapshot. The
// snapshot is captured once; a schema change means building a new provider.
func NewProvider(tables []schema.Table) *Provider {
	return &Provider{engine: NewEngine(tables)}
}

// Tables returns the snapshot the provider was built from.
func (p *Provider) Tables() []schema.Table {
	return p.engine.Tables()
}

// Complete returns suggestions for a cursor position. line is the current
// line text, col the byte offset of the cursor within it, and before the
// full buffer text up to the cursor (used for alias scanning and
// dot-qualifier detection across lines).
func (p *Provider) Complete(line string, col int, before string) []Candidate {
	aliases := ResolveAliases(before)
	ctx := Classify(line, col, before, aliases, p.engine.Tables())
	partial := PartialWord(line, col)
	return p.engine.Suggest(ctx, partial)
}
