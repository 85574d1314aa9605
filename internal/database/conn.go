// Package database implements the connection manager and result set
// iterator shared by every supported dialect. All backends run on
// database/sql; per-dialect behavior is gated on the capability flags
// of the resolved dialect descriptor.
package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joacominatel/sqldesk/internal/dialect"
)

// State tracks the connection lifecycle. The only valid transitions
// are Disconnected -> Connecting -> {Ready, Failed} and
// Ready -> {Disconnected, Failed}.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const connectTimeout = 10 * time.Second

// Conn is a live connection to one backend. A Conn is owned by exactly
// one session and must not be shared across sessions.
type Conn struct {
	desc      dialect.Descriptor
	db        *sql.DB
	dbName    string
	redacted  string
	state     atomic.Int32
	closeOnce sync.Once
}

// Open parses a connection string, resolves its dialect and dials the
// backend with a bounded timeout. Connection failures are returned as
// ConnectError and are never retried here.
func Open(ctx context.Context, connString string) (*Conn, error) {
	target, err := ParseURL(connString)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		desc:     target.Descriptor,
		dbName:   target.Database,
		redacted: target.Redacted,
	}
	c.state.Store(int32(StateConnecting))

	db, err := sql.Open(target.Descriptor.DriverName, target.DSN)
	if err != nil {
		c.state.Store(int32(StateFailed))
		return nil, &ConnectError{Cause: err}
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		c.state.Store(int32(StateFailed))
		db.Close()
		return nil, &ConnectError{Cause: err}
	}

	c.db = db
	c.state.Store(int32(StateReady))
	return c, nil
}

// OpenDB wraps an existing handle in a Conn. Used by callers that
// manage their own *sql.DB, and by tests to inject mock drivers.
func OpenDB(desc dialect.Descriptor, dbName string, db *sql.DB) *Conn {
	c := &Conn{desc: desc, dbName: dbName, db: db}
	c.state.Store(int32(StateReady))
	return c
}

// Descriptor returns the dialect descriptor this connection resolved to.
func (c *Conn) Descriptor() dialect.Descriptor {
	return c.desc
}

// DatabaseName returns the database named in the connection string.
func (c *Conn) DatabaseName() string {
	return c.dbName
}

// Redacted returns the connection string with credentials stripped.
func (c *Conn) Redacted() string {
	return c.redacted
}

// State returns the current connection state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// MarkFailed transitions a Ready connection to Failed. The session
// layer calls this when the backend stops responding; subsequent
// operations on the connection fail fast.
func (c *Conn) MarkFailed() {
	c.state.CompareAndSwap(int32(StateReady), int32(StateFailed))
}

// Ping checks that the connection is alive.
func (c *Conn) Ping(ctx context.Context) error {
	if c.State() != StateReady {
		return ErrClosed
	}
	return c.db.PingContext(ctx)
}

// Query runs a single introspection query and returns the raw rows.
// It is the low-level primitive used by the schema index builder; user
// queries go through Execute.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if c.State() != StateReady {
		return nil, ErrClosed
	}
	return c.db.QueryContext(ctx, query, args...)
}

// Execute submits SQL text and returns a lazy result iterator.
// Ownership of the underlying result handle passes to the iterator on
// success; the caller must drain or close it.
//
// For dialects without multi-result-set support, only the first
// statement of a multi-statement batch is executed and any following
// statements are silently dropped. That truncation is a documented
// capability degradation, not an error.
func (c *Conn) Execute(ctx context.Context, sqlText string) (*Rows, error) {
	if c.State() != StateReady {
		return nil, &ExecError{Cause: ErrClosed}
	}

	stmts := SplitStatements(sqlText, c.desc.StatementSeparator)
	if len(stmts) == 0 {
		return nil, &ExecError{Cause: errors.New("empty query")}
	}

	text := sqlText
	if !c.desc.SupportsMultiResultSet {
		text = stmts[0].Text
	}

	qctx, cancel := context.WithCancel(ctx)
	rows, err := c.db.QueryContext(qctx, text)
	if err != nil {
		cancel()
		return nil, &ExecError{Cause: err, StatementOffset: stmts[0].Offset}
	}
	return newRows(rows, cancel, c.desc.SupportsMultiResultSet)
}

// Close releases the backend handle. It is safe to call more than
// once and on all exit paths; only the first call closes the handle.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateDisconnected))
		if c.db != nil {
			err = c.db.Close()
		}
	})
	return err
}
