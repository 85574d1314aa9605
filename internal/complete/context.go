package complete

import (
	"strings"
	"unicode"
)

// contextKind classifies the syntactic position of the cursor.
type contextKind int

const (
	// ctxDefault falls back to keywords plus top-level object names.
	ctxDefault contextKind = iota
	// ctxTable expects table or view names (after FROM, JOIN, ...).
	ctxTable
	// ctxColumn expects column names of the tables in scope.
	ctxColumn
	// ctxKeywordOnly degrades to keywords: empty input or a malformed
	// quoted identifier at the cursor.
	ctxKeywordOnly
)

// tableRef is one table referenced by the query's FROM/JOIN clauses,
// possibly aliased.
type tableRef struct {
	name  string
	alias string
}

// queryContext is everything the engine knows about the cursor
// position: the partial identifier being typed, its dotted
// qualification path, the classified context and the tables in scope.
type queryContext struct {
	kind    contextKind
	partial string
	path    []string
	scope   []tableRef
}

// anchorTables are the keywords after which an object name is
// expected; anchorColumns the ones after which a column reference is
// expected. The nearest anchor before the cursor wins.
var anchorTables = map[string]bool{
	"FROM": true, "JOIN": true, "INTO": true, "UPDATE": true, "TABLE": true,
}

var anchorColumns = map[string]bool{
	"SELECT": true, "WHERE": true, "ON": true, "BY": true, "HAVING": true,
	"SET": true, "AND": true, "OR": true, "DISTINCT": true,
}

// analyze tokenizes the text before the cursor and classifies the
// completion context. Subqueries and CTEs are not resolved; anything
// ambiguous lands in ctxDefault.
func analyze(text string, cursor int) queryContext {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	head := text[:cursor]

	if strings.TrimSpace(head) == "" {
		return queryContext{kind: ctxKeywordOnly}
	}
	if hasOpenQuote(head) {
		return queryContext{kind: ctxKeywordOnly}
	}

	partial, path, wordStart := currentWord(head)

	qc := queryContext{
		partial: partial,
		path:    path,
		scope:   tableScope(text),
	}

	tokens := tokenize(head[:wordStart])
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := strings.ToUpper(tokens[i])
		switch {
		case anchorTables[tok]:
			qc.kind = ctxTable
			return qc
		case anchorColumns[tok]:
			qc.kind = ctxColumn
			return qc
		}
	}
	qc.kind = ctxDefault
	return qc
}

// currentWord extracts the partial identifier ending at the cursor and
// its dotted qualification path. Returns the byte offset where the
// whole dotted word begins.
func currentWord(head string) (partial string, path []string, start int) {
	runes := []rune(head)
	i := len(runes)
	for i > 0 && isIdentRune(runes[i-1]) {
		i--
	}
	word := string(runes[i:])
	start = len(head) - len(word)

	if word == "" {
		return "", nil, start
	}
	parts := strings.Split(word, ".")
	partial = parts[len(parts)-1]
	for _, p := range parts[:len(parts)-1] {
		if p != "" {
			path = append(path, p)
		}
	}
	return partial, path, start
}

// tokenize splits SQL into word and punctuation tokens, skipping
// string literals and comments.
func tokenize(text string) []string {
	var (
		tokens []string
		word   strings.Builder
		runes  = []rune(text)
	)
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			flush()
			q := c
			for i++; i < len(runes) && runes[i] != q; i++ {
			}
		case c == '-' && i+1 < len(runes) && runes[i+1] == '-':
			flush()
			for i++; i < len(runes) && runes[i] != '\n'; i++ {
			}
		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			flush()
			for i += 2; i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/'); i++ {
			}
			i++
		case isIdentRune(c):
			word.WriteRune(c)
		case unicode.IsSpace(c):
			flush()
		default:
			flush()
			tokens = append(tokens, string(c))
		}
	}
	flush()
	return tokens
}

// tableScope scans the whole buffer for FROM and JOIN clauses and
// collects the referenced tables with their aliases. Comma-separated
// FROM lists are followed; subqueries are not descended into.
func tableScope(text string) []tableRef {
	tokens := tokenize(text)
	var refs []tableRef

	for i := 0; i < len(tokens); i++ {
		up := strings.ToUpper(tokens[i])
		if up != "FROM" && up != "JOIN" {
			continue
		}
		for i+1 < len(tokens) {
			i++
			name := tokens[i]
			if !isIdentToken(name) || isReserved(name) {
				break
			}
			ref := tableRef{name: name}
			// Optional alias: AS alias, or a bare non-keyword ident.
			if i+1 < len(tokens) && strings.EqualFold(tokens[i+1], "AS") && i+2 < len(tokens) && isIdentToken(tokens[i+2]) {
				ref.alias = tokens[i+2]
				i += 2
			} else if i+1 < len(tokens) && isIdentToken(tokens[i+1]) && !isReserved(tokens[i+1]) {
				ref.alias = tokens[i+1]
				i++
			}
			refs = append(refs, ref)
			// A comma continues a FROM list.
			if up == "FROM" && i+1 < len(tokens) && tokens[i+1] == "," {
				i++
				continue
			}
			break
		}
	}
	return refs
}

// resolveScope maps an alias or bare table name from the scope to the
// table name it refers to.
func resolveScope(scope []tableRef, name string) (string, bool) {
	for _, ref := range scope {
		if strings.EqualFold(ref.alias, name) || strings.EqualFold(ref.name, name) {
			return ref.name, true
		}
	}
	return "", false
}

// hasOpenQuote reports whether the cursor sits inside an unterminated
// string literal or quoted identifier.
func hasOpenQuote(head string) bool {
	var open rune
	for _, c := range head {
		switch {
		case open != 0:
			if c == open {
				open = 0
			}
		case c == '\'' || c == '"' || c == '`':
			open = c
		case c == '[':
			open = ']'
		}
	}
	return open != 0
}

func isIdentRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.'
}

func isIdentToken(tok string) bool {
	for _, c := range tok {
		if !isIdentRune(c) {
			return false
		}
	}
	return tok != ""
}

var reserved = func() map[string]bool {
	m := make(map[string]bool, len(baseKeywords))
	for _, k := range baseKeywords {
		m[k] = true
	}
	return m
}()

func isReserved(tok string) bool {
	return reserved[strings.ToUpper(tok)]
}
