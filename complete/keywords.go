package complete

// Keywords is the default candidate set offered outside any specific
// clause context.
var Keywords = []string{
	"SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "IN", "BETWEEN", "LIKE",
	"IS", "NULL", "AS", "ON", "JOIN", "LEFT", "RIGHT", "INNER", "OUTER",
	"CROSS", "FULL", "GROUP", "BY", "ORDER", "ASC", "DESC", "LIMIT", "OFFSET",
	"HAVING", "DISTINCT", "UNION", "ALL", "EXISTS", "CASE", "WHEN", "THEN",
	"ELSE", "END", "CAST", "INSERT", "INTO", "VALUES", "UPDATE", "SET",
	"DELETE", "CREATE", "TABLE",

	// Common functions
	"COUNT", "SUM", "AVG", "MIN", "MAX", "COALESCE", "NULLIF",
	"LOWER", "UPPER", "TRIM", "LENGTH", "SUBSTR", "REPLACE", "ROUND", "ABS",
	"CURRENT_DATE", "CURRENT_TIMESTAMP",
}

// tableContextKeywords are the clause continuations offered right after a
// table reference position.
var tableContextKeywords = []string{"ON", "WHERE", "AND", "OR"}

// reservedWords are identifiers that can never act as a table alias.
// Guarding the alias position keeps "FROM users WHERE ..." from binding
// WHERE as an alias for users.
var reservedWords = map[string]bool{
	"AS": true, "ON": true, "WHERE": true, "AND": true, "OR": true,
	"JOIN": true, "LEFT": true, "RIGHT": true, "INNER": true, "OUTER": true,
	"CROSS": true, "FULL": true, "GROUP": true, "ORDER": true, "BY": true,
	"SET": true, "LIMIT": true, "OFFSET": true, "HAVING": true, "UNION": true,
	"SELECT": true, "FROM": true, "USING": true,
}
