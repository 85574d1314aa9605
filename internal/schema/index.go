// Package schema maintains the in-memory catalog of database objects
// used by the autocomplete engine. An Index is immutable once built;
// refreshes build a new index and atomically swap it in, so lookups
// never observe a partially populated catalog.
package schema

import (
	"sort"
	"strings"
)

// Kind classifies a catalog object (or a keyword suggestion).
type Kind uint8

const (
	KindKeyword Kind = iota
	KindDatabase
	KindSchema
	KindTable
	KindView
	KindColumn
	KindRoutine
)

func (k Kind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindDatabase:
		return "database"
	case KindSchema:
		return "schema"
	case KindTable:
		return "table"
	case KindView:
		return "view"
	case KindColumn:
		return "column"
	case KindRoutine:
		return "routine"
	default:
		return "unknown"
	}
}

// Column is a column name with its type hint.
type Column struct {
	Name     string `msgpack:"name"`
	TypeName string `msgpack:"type"`
}

// Object is one catalog entry. Qualified is the dotted path from the
// database down (database.schema.table); Parent is the qualified name
// of the containing object.
type Object struct {
	Name      string   `msgpack:"name"`
	Qualified string   `msgpack:"qualified"`
	Kind      Kind     `msgpack:"kind"`
	Parent    string   `msgpack:"parent"`
	Columns   []Column `msgpack:"columns,omitempty"`
}

// Index is a queryable snapshot of the catalog. All methods are safe
// for concurrent use since the index never mutates after construction.
type Index struct {
	dialect string
	objects []Object // sorted by lowercased qualified name
	lowerQ  []string
	byName  []int // objects indices sorted by lowercased bare name
	lowerN  []string
}

// NewIndex builds an index over the given objects. The input slice is
// not retained.
func NewIndex(dialectName string, objects []Object) *Index {
	ix := &Index{
		dialect: dialectName,
		objects: make([]Object, len(objects)),
	}
	copy(ix.objects, objects)

	sort.SliceStable(ix.objects, func(i, j int) bool {
		return strings.ToLower(ix.objects[i].Qualified) < strings.ToLower(ix.objects[j].Qualified)
	})
	ix.lowerQ = make([]string, len(ix.objects))
	for i, o := range ix.objects {
		ix.lowerQ[i] = strings.ToLower(o.Qualified)
	}

	ix.byName = make([]int, len(ix.objects))
	for i := range ix.byName {
		ix.byName[i] = i
	}
	sort.SliceStable(ix.byName, func(a, b int) bool {
		na, nb := strings.ToLower(ix.objects[ix.byName[a]].Name), strings.ToLower(ix.objects[ix.byName[b]].Name)
		if na != nb {
			return na < nb
		}
		return ix.lowerQ[ix.byName[a]] < ix.lowerQ[ix.byName[b]]
	})
	ix.lowerN = make([]string, len(ix.byName))
	for i, idx := range ix.byName {
		ix.lowerN[i] = strings.ToLower(ix.objects[idx].Name)
	}
	return ix
}

// Dialect returns the dialect this index was built for.
func (ix *Index) Dialect() string {
	return ix.dialect
}

// Len returns the number of objects in the index.
func (ix *Index) Len() int {
	return len(ix.objects)
}

// Objects returns the catalog entries in qualified-name order.
func (ix *Index) Objects() []Object {
	out := make([]Object, len(ix.objects))
	copy(out, ix.objects)
	return out
}

// Lookup returns every object whose qualified name starts with the
// given prefix, case-insensitively, in lexicographic order.
func (ix *Index) Lookup(prefix string) []Object {
	prefix = strings.ToLower(prefix)
	lo := sort.SearchStrings(ix.lowerQ, prefix)
	var out []Object
	for i := lo; i < len(ix.lowerQ) && strings.HasPrefix(ix.lowerQ[i], prefix); i++ {
		out = append(out, ix.objects[i])
	}
	return out
}

// Match returns every object of the given kinds whose bare name starts
// with the prefix, case-insensitively, ordered by name. An empty kind
// list matches all kinds; an empty prefix matches every object.
func (ix *Index) Match(prefix string, kinds ...Kind) []Object {
	prefix = strings.ToLower(prefix)
	lo := sort.SearchStrings(ix.lowerN, prefix)
	var out []Object
	for i := lo; i < len(ix.lowerN) && strings.HasPrefix(ix.lowerN[i], prefix); i++ {
		o := ix.objects[ix.byName[i]]
		if matchesKind(o.Kind, kinds) {
			out = append(out, o)
		}
	}
	return out
}

// Children returns the direct children of a qualified name, ordered by
// name.
func (ix *Index) Children(qualified string) []Object {
	parent := strings.ToLower(qualified)
	var out []Object
	for _, o := range ix.objects {
		if strings.ToLower(o.Parent) == parent {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Table resolves a table or view by bare or qualified name. When more
// than one object matches a bare name, the lexicographically first
// qualified name wins.
func (ix *Index) Table(name string) (Object, bool) {
	lower := strings.ToLower(name)
	if strings.Contains(name, ".") {
		for i, q := range ix.lowerQ {
			o := ix.objects[i]
			if q == lower && (o.Kind == KindTable || o.Kind == KindView) {
				return o, true
			}
		}
		// Fall through: a partial qualification like schema.table.
	}
	for _, idx := range ix.byName {
		o := ix.objects[idx]
		if o.Kind != KindTable && o.Kind != KindView {
			continue
		}
		if strings.ToLower(o.Name) == lower || strings.HasSuffix(strings.ToLower(o.Qualified), "."+lower) {
			return o, true
		}
	}
	return Object{}, false
}

func matchesKind(k Kind, kinds []Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
