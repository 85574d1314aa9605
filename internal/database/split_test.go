package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	stmts := SplitStatements("SELECT 1; SELECT 2;", ';')
	require.Len(t, stmts, 2)
	assert.Equal(t, "SELECT 1", stmts[0].Text)
	assert.Equal(t, 0, stmts[0].Offset)
	assert.Equal(t, "SELECT 2", stmts[1].Text)
	assert.Equal(t, 10, stmts[1].Offset)
}

func TestSplitIgnoresSeparatorInLiterals(t *testing.T) {
	stmts := SplitStatements(`SELECT 'a;b'; SELECT "c;d"`, ';')
	require.Len(t, stmts, 2)
	assert.Equal(t, `SELECT 'a;b'`, stmts[0].Text)
	assert.Equal(t, `SELECT "c;d"`, stmts[1].Text)
}

func TestSplitIgnoresSeparatorInComments(t *testing.T) {
	stmts := SplitStatements("SELECT 1 -- one; two\n; SELECT 2 /* a;b */", ';')
	require.Len(t, stmts, 2)
	assert.Equal(t, "SELECT 1 -- one; two", stmts[0].Text)
	assert.Equal(t, "SELECT 2 /* a;b */", stmts[1].Text)
}

func TestSplitIgnoresSeparatorInBrackets(t *testing.T) {
	stmts := SplitStatements("SELECT [odd;name] FROM t", ';')
	require.Len(t, stmts, 1)
	assert.Equal(t, "SELECT [odd;name] FROM t", stmts[0].Text)
}

func TestSplitDoubledQuoteEscapes(t *testing.T) {
	stmts := SplitStatements(`SELECT 'it''s; fine'; SELECT 2`, ';')
	require.Len(t, stmts, 2)
	assert.Equal(t, `SELECT 'it''s; fine'`, stmts[0].Text)
}

func TestSplitDropsEmptyStatements(t *testing.T) {
	stmts := SplitStatements(";;  ;SELECT 1;  ", ';')
	require.Len(t, stmts, 1)
	assert.Equal(t, "SELECT 1", stmts[0].Text)

	assert.Empty(t, SplitStatements("   ", ';'))
	assert.Empty(t, SplitStatements("", ';'))
}

func TestSplitOffsetsSkipLeadingSpace(t *testing.T) {
	stmts := SplitStatements("  SELECT 1;\n  SELECT 2", ';')
	require.Len(t, stmts, 2)
	assert.Equal(t, 2, stmts[0].Offset)
	assert.Equal(t, 14, stmts[1].Offset)
}
