package app

import (
	"context"
	"errors"
	"time"

	"github.com/joacominatel/sqldesk/internal/complete"
	"github.com/joacominatel/sqldesk/internal/database"
	"github.com/joacominatel/sqldesk/internal/schema"
	"github.com/joacominatel/sqldesk/internal/session"
)

// maxDisplayRows bounds how much of a result the TUI materializes;
// anything beyond is cut off and flagged.
const maxDisplayRows = 5000

// SchemaTree represents the loaded schema hierarchy for the explorer.
type SchemaTree struct {
	Database string
	Schemas  []SchemaNode
}

// SchemaNode holds a schema name and its tables and views.
type SchemaNode struct {
	Name   string
	Tables []string
}

// ResultSet is the materialized output of one statement.
type ResultSet struct {
	Columns  []string
	Rows     [][]string
	RowCount int
}

// QueryResult holds the display form of a query execution: one
// ResultSet per statement that produced one.
type QueryResult struct {
	Sets      []ResultSet
	Duration  time.Duration
	Truncated bool
}

// Service is the single-session façade the TUI talks to. It owns at
// most one session in the registry at a time.
type Service struct {
	reg       *session.Registry
	sessionID string
	redacted  string
}

// NewService creates a new application service over a session registry.
func NewService(reg *session.Registry) *Service {
	return &Service{reg: reg}
}

// Connect establishes a session for the connection string, replacing
// any current one.
func (s *Service) Connect(ctx context.Context, connString string) error {
	if s.sessionID != "" {
		_ = s.reg.Close(s.sessionID)
		s.sessionID = ""
		s.redacted = ""
	}
	id, err := s.reg.Create(ctx, connString)
	if err != nil {
		return &ErrConnection{Cause: err}
	}
	s.sessionID = id
	if t, perr := database.ParseURL(connString); perr == nil {
		s.redacted = t.Redacted
	}
	return nil
}

// Connected reports whether a session is open.
func (s *Service) Connected() bool {
	return s.sessionID != ""
}

// Redacted returns the current connection string without credentials.
func (s *Service) Redacted() string {
	return s.redacted
}

// Disconnect closes the current session.
func (s *Service) Disconnect() error {
	if s.sessionID == "" {
		return nil
	}
	err := s.reg.Close(s.sessionID)
	s.sessionID = ""
	s.redacted = ""
	return err
}

// DatabaseName returns the current database name.
func (s *Service) DatabaseName() string {
	name, err := s.reg.DatabaseName(s.sessionID)
	if err != nil {
		return ""
	}
	return name
}

// DialectName returns the current dialect name.
func (s *Service) DialectName() string {
	name, err := s.reg.DialectName(s.sessionID)
	if err != nil {
		return ""
	}
	return name
}

// ExecuteQuery runs SQL and drains the result iterator into a bounded
// display result, one set per statement that returned rows.
func (s *Service) ExecuteQuery(ctx context.Context, query string) (*QueryResult, error) {
	if s.sessionID == "" {
		return nil, &ErrNotConnected{}
	}
	start := time.Now()

	it, err := s.reg.Submit(ctx, s.sessionID, query)
	if err != nil {
		return nil, &ErrQuery{Query: query, Cause: err}
	}
	defer it.Close()

	result := &QueryResult{}
	var current *ResultSet
	total := 0
	for {
		batch, err := it.Next()
		if errors.Is(err, database.ErrEndOfResults) {
			break
		}
		if err != nil {
			return nil, &ErrQuery{Query: query, Cause: err}
		}

		if current == nil || !sameColumns(current.Columns, batch.Columns) {
			result.Sets = append(result.Sets, ResultSet{Columns: columnNames(batch.Columns)})
			current = &result.Sets[len(result.Sets)-1]
		}
		for _, row := range batch.Rows {
			if total >= maxDisplayRows {
				result.Truncated = true
				it.Cancel()
				result.Duration = time.Since(start)
				finalizeCounts(result)
				return result, nil
			}
			current.Rows = append(current.Rows, row)
			total++
		}
		if !batch.HasMore {
			current = nil
		}
	}

	result.Duration = time.Since(start)
	finalizeCounts(result)
	return result, nil
}

// LoadSchemaTree builds the explorer view from the last published
// schema index.
func (s *Service) LoadSchemaTree() (*SchemaTree, error) {
	if s.sessionID == "" {
		return nil, &ErrNotConnected{}
	}
	ix, err := s.reg.Schema(s.sessionID)
	if err != nil {
		return nil, err
	}

	tree := &SchemaTree{Database: s.DatabaseName()}
	for _, sc := range ix.Match("", schema.KindSchema) {
		node := SchemaNode{Name: sc.Name}
		for _, child := range ix.Children(sc.Qualified) {
			if child.Kind == schema.KindTable || child.Kind == schema.KindView {
				node.Tables = append(node.Tables, child.Name)
			}
		}
		tree.Schemas = append(tree.Schemas, node)
	}

	// Dialects without a schema level hang tables off the database.
	if len(tree.Schemas) == 0 {
		var tables []string
		for _, o := range ix.Match("", schema.KindTable, schema.KindView) {
			tables = append(tables, o.Name)
		}
		if len(tables) > 0 {
			tree.Schemas = append(tree.Schemas, SchemaNode{Name: tree.Database, Tables: tables})
		}
	}
	return tree, nil
}

// Columns returns the column metadata of a table for the explorer.
func (s *Service) Columns(table string) []schema.Column {
	if s.sessionID == "" {
		return nil
	}
	ix, err := s.reg.Schema(s.sessionID)
	if err != nil {
		return nil
	}
	if t, ok := ix.Table(table); ok {
		return t.Columns
	}
	return nil
}

// Completions returns ranked suggestions for the editor.
func (s *Service) Completions(text string, cursor int) []complete.Suggestion {
	if s.sessionID == "" {
		return nil
	}
	suggestions, err := s.reg.Completions(s.sessionID, text, cursor)
	if err != nil {
		return nil
	}
	return suggestions
}

// RefreshSchema rebuilds the schema index, coalescing with any build
// already in flight.
func (s *Service) RefreshSchema(ctx context.Context) error {
	if s.sessionID == "" {
		return &ErrNotConnected{}
	}
	return s.reg.Refresh(ctx, s.sessionID)
}

func columnNames(cols []database.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func sameColumns(names []string, cols []database.Column) bool {
	if len(names) != len(cols) {
		return false
	}
	for i := range names {
		if names[i] != cols[i].Name {
			return false
		}
	}
	return true
}

func finalizeCounts(r *QueryResult) {
	for i := range r.Sets {
		r.Sets[i].RowCount = len(r.Sets[i].Rows)
	}
}
