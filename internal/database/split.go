package database

import "strings"

// Statement is one statement of a submitted batch along with its byte
// offset in the original text, used for error attribution.
type Statement struct {
	Text   string
	Offset int
}

// SplitStatements splits a SQL batch on the separator rune outside of
// string literals, quoted identifiers and comments. Empty statements
// are dropped. Offsets point at the first non-space byte of each
// statement in the original text.
func SplitStatements(text string, sep rune) []Statement {
	var (
		stmts    []Statement
		start    = 0
		inQuote  rune
		bracket  bool
		lineCmt  bool
		blockCmt bool
	)

	flush := func(end int) {
		seg := text[start:end]
		trimmed := strings.TrimSpace(seg)
		if trimmed == "" {
			return
		}
		off := start + strings.Index(seg, trimmed[:1])
		stmts = append(stmts, Statement{Text: trimmed, Offset: off})
	}

	runes := []rune(text)
	pos := 0 // byte position of runes[i]
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case lineCmt:
			if c == '\n' {
				lineCmt = false
			}
		case blockCmt:
			if c == '*' && next == '/' {
				blockCmt = false
				i++
				pos += len(string(next))
			}
		case inQuote != 0:
			if c == inQuote {
				// Doubled quote chars escape inside literals.
				if next == inQuote {
					i++
					pos += len(string(next))
				} else {
					inQuote = 0
				}
			}
		case bracket:
			if c == ']' {
				bracket = false
			}
		case c == '\'' || c == '"' || c == '`':
			inQuote = c
		case c == '[':
			bracket = true
		case c == '-' && next == '-':
			lineCmt = true
			i++
			pos += len(string(next))
		case c == '/' && next == '*':
			blockCmt = true
			i++
			pos += len(string(next))
		case c == sep:
			flush(pos)
			start = pos + len(string(c))
		}
		pos += len(string(c))
	}
	flush(len(text))
	return stmts
}
