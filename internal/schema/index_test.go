package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureObjects() []Object {
	return []Object{
		{Name: "app", Qualified: "app", Kind: KindDatabase},
		{Name: "public", Qualified: "app.public", Kind: KindSchema, Parent: "app"},
		{Name: "audit", Qualified: "app.audit", Kind: KindSchema, Parent: "app"},
		{
			Name: "customers", Qualified: "app.public.customers", Kind: KindTable, Parent: "app.public",
			Columns: []Column{{Name: "id", TypeName: "integer"}, {Name: "name", TypeName: "text"}, {Name: "email", TypeName: "text"}},
		},
		{
			Name: "customer_addresses", Qualified: "app.public.customer_addresses", Kind: KindTable, Parent: "app.public",
			Columns: []Column{{Name: "customer_id", TypeName: "integer"}, {Name: "city", TypeName: "text"}},
		},
		{
			Name: "orders", Qualified: "app.public.orders", Kind: KindTable, Parent: "app.public",
			Columns: []Column{{Name: "id", TypeName: "integer"}, {Name: "customer_id", TypeName: "integer"}, {Name: "total", TypeName: "numeric"}},
		},
		{Name: "order_totals", Qualified: "app.public.order_totals", Kind: KindView, Parent: "app.public"},
		{Name: "log", Qualified: "app.audit.log", Kind: KindTable, Parent: "app.audit"},
	}
}

func TestLookupPrefix(t *testing.T) {
	ix := NewIndex("postgres", fixtureObjects())

	got := ix.Lookup("app.public.cust")
	require.Len(t, got, 2)
	// Lexicographic within the prefix range.
	assert.Equal(t, "app.public.customer_addresses", got[0].Qualified)
	assert.Equal(t, "app.public.customers", got[1].Qualified)

	assert.Empty(t, ix.Lookup("app.public.zzz"))
	assert.Len(t, ix.Lookup(""), len(fixtureObjects()))
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	ix := NewIndex("postgres", fixtureObjects())
	got := ix.Lookup("APP.Public.Cust")
	require.Len(t, got, 2)
}

func TestMatchByBareName(t *testing.T) {
	ix := NewIndex("postgres", fixtureObjects())

	got := ix.Match("cust", KindTable)
	require.Len(t, got, 2)
	assert.Equal(t, "customer_addresses", got[0].Name)
	assert.Equal(t, "customers", got[1].Name)

	// Kind filtering.
	assert.Empty(t, ix.Match("cust", KindView))
	assert.Len(t, ix.Match("order", KindTable, KindView), 2)
}

func TestChildren(t *testing.T) {
	ix := NewIndex("postgres", fixtureObjects())

	kids := ix.Children("app.public")
	require.Len(t, kids, 4)
	assert.Equal(t, "customer_addresses", kids[0].Name)
	assert.Equal(t, "customers", kids[1].Name)
	assert.Equal(t, "order_totals", kids[2].Name)
	assert.Equal(t, "orders", kids[3].Name)

	assert.Empty(t, ix.Children("app.missing"))
}

func TestTableResolution(t *testing.T) {
	ix := NewIndex("postgres", fixtureObjects())

	obj, ok := ix.Table("customers")
	require.True(t, ok)
	assert.Equal(t, "app.public.customers", obj.Qualified)
	assert.Len(t, obj.Columns, 3)

	obj, ok = ix.Table("app.public.orders")
	require.True(t, ok)
	assert.Equal(t, "orders", obj.Name)

	// Partial qualification resolves by suffix.
	obj, ok = ix.Table("public.customers")
	require.True(t, ok)
	assert.Equal(t, "app.public.customers", obj.Qualified)

	// Views resolve too.
	obj, ok = ix.Table("order_totals")
	require.True(t, ok)
	assert.Equal(t, KindView, obj.Kind)

	_, ok = ix.Table("missing")
	assert.False(t, ok)
}

func TestEmptyIndex(t *testing.T) {
	ix := NewIndex("sqlite", nil)
	assert.Zero(t, ix.Len())
	assert.Empty(t, ix.Lookup("x"))
	assert.Empty(t, ix.Match(""))
	_, ok := ix.Table("t")
	assert.False(t, ok)
}
