package complete

import "github.com/joacominatel/sqldesk/internal/dialect"

// baseKeywords is the dialect-independent keyword list, ordered so
// that statement openers surface first when no prefix filters them.
var baseKeywords = []string{
	"SELECT", "FROM", "WHERE", "INSERT", "INTO", "UPDATE", "DELETE",
	"CREATE", "DROP", "ALTER", "TABLE", "INDEX", "VIEW",
	"JOIN", "INNER", "OUTER", "LEFT", "RIGHT", "CROSS", "ON",
	"AND", "OR", "NOT", "IN", "IS", "NULL", "LIKE", "BETWEEN", "EXISTS",
	"ORDER", "BY", "GROUP", "HAVING", "LIMIT", "OFFSET",
	"AS", "DISTINCT", "UNION", "ALL", "ASC", "DESC",
	"COUNT", "SUM", "AVG", "MIN", "MAX",
	"CASE", "WHEN", "THEN", "ELSE", "END",
	"VALUES", "SET", "BEGIN", "COMMIT", "ROLLBACK",
	"PRIMARY", "KEY", "FOREIGN", "REFERENCES", "CASCADE", "RESTRICT",
	"DEFAULT", "TRUE", "FALSE", "CAST", "WITH",
}

// dialectKeywords holds per-dialect additions.
var dialectKeywords = map[string][]string{
	dialect.Postgres:  {"ILIKE", "RETURNING", "LATERAL", "CONFLICT"},
	dialect.Redshift:  {"ILIKE", "UNLOAD", "COPY", "DISTKEY", "SORTKEY"},
	dialect.MySQL:     {"SHOW", "DATABASES", "TABLES", "DESCRIBE", "EXPLAIN", "REPLACE"},
	dialect.SQLite:    {"PRAGMA", "VACUUM", "ATTACH", "DETACH", "GLOB"},
	dialect.SQLServer: {"TOP", "EXEC", "MERGE", "OUTPUT", "NOLOCK", "GO"},
	dialect.Oracle:    {"DUAL", "ROWNUM", "NVL", "SYSDATE", "MINUS", "CONNECT"},
}

func keywordsFor(dialectName string) []string {
	extra := dialectKeywords[dialectName]
	out := make([]string, 0, len(baseKeywords)+len(extra))
	out = append(out, baseKeywords...)
	out = append(out, extra...)
	return out
}
