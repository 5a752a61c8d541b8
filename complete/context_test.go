package complete

import (
	"testing"

	"github.com/querypad/querypad/schema"
)

var contextTables = []schema.Table{
	{Name: "users", Columns: []schema.Column{{Name: "id", Type: "int"}}},
	{Name: "Orders", Columns: []schema.Column{{Name: "total", Type: "numeric"}}},
}

func TestClassify_AfterFrom(t *testing.T) {
	line := "SELECT * FROM "
	got := Classify(line, len(line), line, nil, contextTables)

	if got.Kind != ContextTable {
		t.Errorf("expected ContextTable, got %v", got.Kind)
	}
}

func TestClassify_AfterJoinLowercase(t *testing.T) {
	line := "select * from a join "
	got := Classify(line, len(line), line, nil, contextTables)

	if got.Kind != ContextTable {
		t.Errorf("expected ContextTable after lowercase join, got %v", got.Kind)
	}
}

func TestClassify_FromWithoutTrailingSpace(t *testing.T) {
	// Cursor still inside the FROM token itself: the last field is FROM, so
	// table context applies even before the separating space is typed.
	line := "SELECT * FROM"
	got := Classify(line, len(line), line, nil, contextTables)

	if got.Kind != ContextTable {
		t.Errorf("expected ContextTable, got %v", got.Kind)
	}
}

func TestClassify_DotAfterAlias(t *testing.T) {
	before := "SELECT u. FROM users u"
	line := "SELECT u."
	aliases := map[string]string{"u": "users", "users": "users"}

	got := Classify(line, len(line), before[:9], aliases, contextTables)

	if got.Kind != ContextColumn || got.Table != "users" {
		t.Errorf("expected column context for users, got %+v", got)
	}
}

func TestClassify_DotWithPartialColumn(t *testing.T) {
	line := "SELECT u.em"
	aliases := map[string]string{"u": "users"}

	got := Classify(line, len(line), line, aliases, contextTables)

	if got.Kind != ContextColumn || got.Table != "users" {
		t.Errorf("expected column context, got %+v", got)
	}
}

func TestClassify_DotWithWhitespaceAroundIt(t *testing.T) {
	line := "SELECT u . "
	aliases := map[string]string{"u": "users"}

	got := Classify(line, len(line), line, aliases, contextTables)

	if got.Kind != ContextColumn || got.Table != "users" {
		t.Errorf("expected whitespace-tolerant dot match, got %+v", got)
	}
}

func TestClassify_DotAfterBareTableName(t *testing.T) {
	line := "SELECT users."

	got := Classify(line, len(line), line, nil, contextTables)

	if got.Kind != ContextColumn || got.Table != "users" {
		t.Errorf("expected table-name fallback, got %+v", got)
	}
}

func TestClassify_DotTableNameCaseInsensitiveFallback(t *testing.T) {
	line := "SELECT orders."

	got := Classify(line, len(line), line, nil, contextTables)

	// The identifier as typed is kept; the engine resolves case later.
	if got.Kind != ContextColumn || got.Table != "orders" {
		t.Errorf("expected case-insensitive fallback keeping typed name, got %+v", got)
	}
}

func TestClassify_DotAfterUnknownIdentifier(t *testing.T) {
	line := "SELECT x."

	got := Classify(line, len(line), line, nil, contextTables)

	if got.Kind != ContextDefault {
		t.Errorf("unknown qualifier must fall through to default, got %+v", got)
	}
}

func TestClassify_PlainSelect(t *testing.T) {
	line := "SELECT "
	got := Classify(line, len(line), line, nil, contextTables)

	if got.Kind != ContextDefault {
		t.Errorf("expected default context, got %v", got.Kind)
	}
}

func TestClassify_EmptyLine(t *testing.T) {
	got := Classify("", 0, "", nil, nil)

	if got.Kind != ContextDefault {
		t.Errorf("expected default context for empty input, got %v", got.Kind)
	}
}

func TestClassify_ColumnBeatsDefaultAfterFromEarlierInLine(t *testing.T) {
	// FROM appears earlier but is not the token right before the cursor.
	line := "SELECT * FROM users u WHERE u."
	aliases := map[string]string{"u": "users"}

	got := Classify(line, len(line), line, aliases, contextTables)

	if got.Kind != ContextColumn || got.Table != "users" {
		t.Errorf("expected column context, got %+v", got)
	}
}

func TestClassify_ClampsColumn(t *testing.T) {
	line := "SELECT"
	if got := Classify(line, 999, line, nil, nil); got.Kind != ContextDefault {
		t.Errorf("out-of-range column must clamp, got %+v", got)
	}
	if got := Classify(line, -5, line, nil, nil); got.Kind != ContextDefault {
		t.Errorf("negative column must clamp, got %+v", got)
	}
}

func TestPartialWord(t *testing.T) {
	cases := []struct {
		line string
		col  int
		want string
	}{
		{"SELECT na", 9, "na"},
		{"SELECT ", 7, ""},
		{"sel", 3, "sel"},
		{"a.b", 3, "b"},
		{"x_1y", 4, "x_1y"},
		{"", 0, ""},
		{"abc", 99, "abc"},
	}
	for _, c := range cases {
		if got := PartialWord(c.line, c.col); got != c.want {
			t.Errorf("PartialWord(%q, %d) = %q, want %q", c.line, c.col, got, c.want)
		}
	}
}
