// Package complete turns raw query text and a cursor offset into
// ranked completion suggestions backed by a schema index.
package complete

import (
	"sort"
	"strings"

	"github.com/joacominatel/sqldesk/internal/schema"
)

// DefaultLimit caps the suggestion list so the UI never renders an
// unbounded menu.
const DefaultLimit = 50

// Suggestion is one completion candidate.
type Suggestion struct {
	Text string
	Kind schema.Kind
}

// Engine produces completions for one dialect. Engines are stateless
// beyond their keyword list and safe for concurrent use.
type Engine struct {
	keywords []string
	limit    int
}

// New returns an engine with the keyword set of the given dialect.
func New(dialectName string) *Engine {
	return &Engine{
		keywords: keywordsFor(dialectName),
		limit:    DefaultLimit,
	}
}

// Complete classifies the cursor context in text and returns ranked
// suggestions from the index. The index may be nil or empty (catalog
// not built yet); suggestions then degrade to keywords.
func (e *Engine) Complete(text string, cursor int, ix *schema.Index) []Suggestion {
	qc := analyze(text, cursor)
	if ix == nil {
		ix = schema.NewIndex("", nil)
	}

	var pool []Suggestion
	switch qc.kind {
	case ctxKeywordOnly:
		pool = e.keywordSuggestions()
	case ctxTable:
		pool = tableSuggestions(ix, qc)
		if len(pool) == 0 && len(qc.path) == 0 {
			pool = e.keywordSuggestions()
		}
	case ctxColumn:
		pool = columnSuggestions(ix, qc)
		if pool == nil {
			// No table scope resolved; fall back like ctxDefault.
			pool = append(e.keywordSuggestions(), topLevelSuggestions(ix)...)
		}
	default:
		pool = append(e.keywordSuggestions(), topLevelSuggestions(ix)...)
	}

	return e.rank(pool, qc.partial)
}

func (e *Engine) keywordSuggestions() []Suggestion {
	out := make([]Suggestion, len(e.keywords))
	for i, k := range e.keywords {
		out[i] = Suggestion{Text: k, Kind: schema.KindKeyword}
	}
	return out
}

func topLevelSuggestions(ix *schema.Index) []Suggestion {
	var out []Suggestion
	for _, o := range ix.Match("", schema.KindDatabase, schema.KindSchema, schema.KindTable, schema.KindView) {
		out = append(out, Suggestion{Text: o.Name, Kind: o.Kind})
	}
	return out
}

// tableSuggestions returns table and view names, resolving a dotted
// qualification path to its children when one is present.
func tableSuggestions(ix *schema.Index, qc queryContext) []Suggestion {
	var out []Suggestion
	if len(qc.path) > 0 {
		for _, child := range pathChildren(ix, qc.path) {
			switch child.Kind {
			case schema.KindTable, schema.KindView, schema.KindSchema:
				out = append(out, Suggestion{Text: child.Name, Kind: child.Kind})
			}
		}
		return out
	}
	for _, o := range ix.Match("", schema.KindTable, schema.KindView, schema.KindSchema, schema.KindDatabase) {
		out = append(out, Suggestion{Text: o.Name, Kind: o.Kind})
	}
	return out
}

// columnSuggestions returns the columns of the table the path refers
// to, or of every table in scope when the reference is bare. A nil
// return means no scope could be resolved.
func columnSuggestions(ix *schema.Index, qc queryContext) []Suggestion {
	var tables []schema.Object

	if len(qc.path) > 0 {
		name := qc.path[len(qc.path)-1]
		if resolved, ok := resolveScope(qc.scope, name); ok {
			name = resolved
		}
		if t, ok := ix.Table(name); ok {
			tables = append(tables, t)
		}
	} else {
		for _, ref := range qc.scope {
			if t, ok := ix.Table(ref.name); ok {
				tables = append(tables, t)
			}
		}
	}
	if len(tables) == 0 {
		return nil
	}

	var out []Suggestion
	for _, t := range tables {
		for _, col := range t.Columns {
			out = append(out, Suggestion{Text: col.Name, Kind: schema.KindColumn})
		}
	}
	return out
}

// pathChildren resolves a qualification path to the children of the
// object it names. The path may start at any catalog level, so the
// last segment is matched against databases and schemas by bare name.
func pathChildren(ix *schema.Index, path []string) []schema.Object {
	joined := strings.Join(path, ".")
	if children := ix.Children(joined); len(children) > 0 {
		return children
	}
	last := path[len(path)-1]
	var out []schema.Object
	for _, parent := range ix.Match(last, schema.KindDatabase, schema.KindSchema) {
		if !strings.EqualFold(parent.Name, last) {
			continue
		}
		out = append(out, ix.Children(parent.Qualified)...)
	}
	return out
}

// rank orders the pool: case-insensitive prefix matches first, then
// substring matches, each group lexicographic, deduplicated and capped.
// An empty partial keeps the pool's own order.
func (e *Engine) rank(pool []Suggestion, partial string) []Suggestion {
	seen := make(map[string]bool, len(pool))
	dedup := func(in []Suggestion) []Suggestion {
		out := in[:0]
		for _, s := range in {
			key := strings.ToLower(s.Text) + "\x00" + s.Kind.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
		return out
	}

	if partial == "" {
		out := dedup(pool)
		if len(out) > e.limit {
			out = out[:e.limit]
		}
		return out
	}

	lower := strings.ToLower(partial)
	var prefix, substr []Suggestion
	for _, s := range pool {
		lt := strings.ToLower(s.Text)
		switch {
		case strings.HasPrefix(lt, lower):
			prefix = append(prefix, s)
		case strings.Contains(lt, lower):
			substr = append(substr, s)
		}
	}
	lexical := func(in []Suggestion) {
		sort.SliceStable(in, func(i, j int) bool {
			return strings.ToLower(in[i].Text) < strings.ToLower(in[j].Text)
		})
	}
	lexical(prefix)
	lexical(substr)

	out := append(dedup(prefix), dedup(substr)...)
	if len(out) > e.limit {
		out = out[:e.limit]
	}
	return out
}
