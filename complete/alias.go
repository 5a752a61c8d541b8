// Package complete implements the schema-aware SQL completion pipeline:
// alias resolution over the typed text, cursor context classification, and
// candidate generation. It is a lexical heuristic: it never parses SQL and
// it tolerates arbitrarily malformed input.
package complete

import (
	"regexp"
	"strings"
)

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)

	// clauseRe matches FROM/JOIN clauses (including compound joins, since
	// every "LEFT OUTER JOIN x" still contains "JOIN x") and captures the
	// table reference. The alias is matched separately with aliasRe so a
	// keyword after an alias-less table is left for the next clause match:
	// in "FROM a JOIN b" the FROM clause must not consume the JOIN token.
	clauseRe = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_.]*)`)

	// aliasRe matches an optional AS-prefixed or bare alias immediately
	// after a table reference.
	aliasRe = regexp.MustCompile(`(?i)^\s+(?:AS\s+)?([A-Za-z_][A-Za-z0-9_]*)`)
)

// ResolveAliases scans the text typed so far for FROM/JOIN clauses and
// builds a map from alias and bare table references to the referenced table
// name. Every key is registered in both its original case and lowercase, so
// lookups succeed either way. A later clause reusing a key overwrites the
// earlier binding.
//
// Block comments are stripped before scanning; line comments are not, so a
// commented-out "-- FROM old_table" still registers. No match anywhere is a
// normal outcome and yields an empty map.
func ResolveAliases(text string) map[string]string {
	cleaned := blockCommentRe.ReplaceAllString(text, " ")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")

	aliases := make(map[string]string)
	for _, loc := range clauseRe.FindAllStringSubmatchIndex(cleaned, -1) {
		table := cleaned[loc[2]:loc[3]]
		aliases[table] = table
		aliases[strings.ToLower(table)] = table

		m := aliasRe.FindStringSubmatch(cleaned[loc[3]:])
		if m == nil {
			continue
		}
		alias := m[1]
		if reservedWords[strings.ToUpper(alias)] {
			continue
		}
		aliases[alias] = table
		aliases[strings.ToLower(alias)] = table
	}
	return aliases
}
