package complete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqldesk/internal/schema"
)

func fixtureIndex() *schema.Index {
	return schema.NewIndex("postgres", []schema.Object{
		{Name: "app", Qualified: "app", Kind: schema.KindDatabase},
		{Name: "public", Qualified: "app.public", Kind: schema.KindSchema, Parent: "app"},
		{
			Name: "customers", Qualified: "app.public.customers", Kind: schema.KindTable, Parent: "app.public",
			Columns: []schema.Column{{Name: "id", TypeName: "integer"}, {Name: "name", TypeName: "text"}, {Name: "email", TypeName: "text"}},
		},
		{
			Name: "customer_addresses", Qualified: "app.public.customer_addresses", Kind: schema.KindTable, Parent: "app.public",
			Columns: []schema.Column{{Name: "customer_id", TypeName: "integer"}, {Name: "city", TypeName: "text"}},
		},
		{
			Name: "orders", Qualified: "app.public.orders", Kind: schema.KindTable, Parent: "app.public",
			Columns: []schema.Column{{Name: "id", TypeName: "integer"}, {Name: "customer_id", TypeName: "integer"}, {Name: "total", TypeName: "numeric"}},
		},
	})
}

func texts(suggestions []Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Text
	}
	return out
}

func TestCompleteTablesAfterFrom(t *testing.T) {
	e := New("postgres")
	text := "SELECT * FROM cus"

	got := e.Complete(text, len(text), fixtureIndex())
	require.Len(t, got, 2)
	assert.Equal(t, []string{"customer_addresses", "customers"}, texts(got))
	assert.Equal(t, schema.KindTable, got[0].Kind)
}

func TestCompleteColumnsInScope(t *testing.T) {
	e := New("postgres")
	text := "SELECT na FROM customers"

	got := e.Complete(text, len("SELECT na"), fixtureIndex())
	require.NotEmpty(t, got)
	assert.Equal(t, "name", got[0].Text)
	assert.Equal(t, schema.KindColumn, got[0].Kind)
}

func TestCompleteColumnsThroughAlias(t *testing.T) {
	e := New("postgres")
	text := "SELECT c.em FROM customers c"

	got := e.Complete(text, len("SELECT c.em"), fixtureIndex())
	require.Len(t, got, 1)
	assert.Equal(t, "email", got[0].Text)
	assert.Equal(t, schema.KindColumn, got[0].Kind)
}

func TestCompleteRanksPrefixBeforeSubstring(t *testing.T) {
	e := New("postgres")
	text := "SELECT id FROM orders"

	got := e.Complete(text, len("SELECT id"), fixtureIndex())
	require.Len(t, got, 2)
	assert.Equal(t, []string{"id", "customer_id"}, texts(got))
}

func TestCompleteEmptyInputIsKeywords(t *testing.T) {
	e := New("postgres")

	got := e.Complete("", 0, fixtureIndex())
	require.Len(t, got, DefaultLimit)
	assert.Equal(t, "SELECT", got[0].Text)
	for _, s := range got {
		assert.Equal(t, schema.KindKeyword, s.Kind)
	}
}

func TestCompleteInsideOpenQuote(t *testing.T) {
	e := New("postgres")
	text := "SELECT 'unterminated"

	got := e.Complete(text, len(text), fixtureIndex())
	require.NotEmpty(t, got)
	for _, s := range got {
		assert.Equal(t, schema.KindKeyword, s.Kind)
	}
}

func TestCompleteNilIndexFallsBackToKeywords(t *testing.T) {
	e := New("postgres")
	text := "SELECT * FROM "

	got := e.Complete(text, len(text), nil)
	require.NotEmpty(t, got)
	assert.Equal(t, schema.KindKeyword, got[0].Kind)
}

func TestCompleteQualificationPath(t *testing.T) {
	e := New("postgres")
	text := "SELECT * FROM public."

	got := e.Complete(text, len(text), fixtureIndex())
	names := texts(got)
	assert.Contains(t, names, "customers")
	assert.Contains(t, names, "orders")
	assert.NotContains(t, names, "SELECT")
}

func TestCompleteDialectKeywords(t *testing.T) {
	e := New("postgres")
	text := "SELECT * FROM t WHERE name ili"

	got := e.Complete(text, len(text), fixtureIndex())
	require.NotEmpty(t, got)
	assert.Equal(t, "ILIKE", got[0].Text)
}

func TestCompleteCursorBounds(t *testing.T) {
	e := New("postgres")

	// Out-of-range cursors clamp instead of panicking.
	assert.NotPanics(t, func() {
		e.Complete("SELECT", -5, fixtureIndex())
		e.Complete("SELECT", 100, fixtureIndex())
	})
}
