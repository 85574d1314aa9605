// Package session multiplexes independent client sessions, each
// owning one connection, one published schema index and one completion
// engine. The registry is an explicit value rather than ambient
// package state so test suites can instantiate independent registries.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/joacominatel/sqldesk/internal/complete"
	"github.com/joacominatel/sqldesk/internal/database"
	"github.com/joacominatel/sqldesk/internal/schema"
)

// ErrUnknownSession is returned for ids the registry has never seen
// or has already removed.
var ErrUnknownSession = errors.New("unknown session")

// SessionInvalidError is returned for operations on a closed or
// failed session, until that session is explicitly reconnected.
type SessionInvalidError struct {
	ID string
}

func (e *SessionInvalidError) Error() string {
	return fmt.Sprintf("session %s is closed or failed", e.ID)
}

// OpenFunc dials a backend. Tests substitute it to inject mock
// connections.
type OpenFunc func(ctx context.Context, connString string) (*database.Conn, error)

const buildTimeout = 60 * time.Second

// Registry is a process-wide session table. All methods are safe for
// concurrent use; sessions execute concurrently with each other while
// operations within one session keep that session's guarantees.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	open     OpenFunc
	cacheDir string
}

// Option configures a Registry.
type Option func(*Registry)

// WithOpenFunc replaces the connection dialer.
func WithOpenFunc(fn OpenFunc) Option {
	return func(r *Registry) { r.open = fn }
}

// WithSnapshotDir enables the schema snapshot cache in dir. Snapshots
// warm completions on reconnect while the first live build runs.
func WithSnapshotDir(dir string) Option {
	return func(r *Registry) { r.cacheDir = dir }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		open:     database.Open,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Session owns one connection and its published schema index. The
// index pointer is swapped atomically on publish: completion lookups
// during a rebuild are served from the previous index, never from a
// partially built one.
type Session struct {
	id         string
	connString string
	conn       atomic.Pointer[database.Conn]
	engine     *complete.Engine
	index      atomic.Pointer[schema.Index]
	builds     singleflight.Group
	invalid    atomic.Bool
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Create opens a connection for connString and registers a new
// session. A schema build starts in the background; queries and
// completions do not wait for it.
func (r *Registry) Create(ctx context.Context, connString string) (string, error) {
	conn, err := r.open(ctx, connString)
	if err != nil {
		return "", err
	}

	s := &Session{
		id:         uuid.NewString(),
		connString: connString,
		engine:     complete.New(conn.Descriptor().Name),
	}
	s.conn.Store(conn)
	s.index.Store(schema.NewIndex(conn.Descriptor().Name, nil))
	if r.cacheDir != "" {
		path := schema.SnapshotPath(r.cacheDir, schema.CacheKey(conn.Redacted()))
		if cached, err := schema.LoadSnapshot(path); err == nil && cached.Dialect() == conn.Descriptor().Name {
			s.index.Store(cached)
		}
	}

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	go func() {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		_ = r.build(bctx, s)
	}()

	return s.id, nil
}

// Submit executes SQL on the session's connection and hands back the
// result iterator. Execution is synchronous within the session. When
// the backend stops responding, the session is marked failed and
// subsequent calls fail fast.
func (r *Registry) Submit(ctx context.Context, id, sqlText string) (*database.Rows, error) {
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}

	conn := s.conn.Load()
	it, execErr := conn.Execute(ctx, sqlText)
	if execErr != nil {
		pingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if conn.Ping(pingCtx) != nil {
			conn.MarkFailed()
			s.invalid.Store(true)
		}
		return nil, execErr
	}
	return it, nil
}

// Completions returns ranked suggestions for the text and cursor,
// served from the last published schema index.
func (r *Registry) Completions(id, text string, cursor int) ([]complete.Suggestion, error) {
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return s.engine.Complete(text, cursor, s.index.Load()), nil
}

// Schema returns the session's last published index.
func (r *Registry) Schema(id string) (*schema.Index, error) {
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return s.index.Load(), nil
}

// Refresh rebuilds the schema index and publishes it atomically. At
// most one build runs per session: concurrent calls coalesce onto the
// in-flight build and return when it publishes.
func (r *Registry) Refresh(ctx context.Context, id string) error {
	s, err := r.get(id)
	if err != nil {
		return err
	}
	return r.build(ctx, s)
}

// Reconnect reopens a failed or closed session's connection in place
// and clears the invalid mark.
func (r *Registry) Reconnect(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	conn, err := r.open(ctx, s.connString)
	if err != nil {
		return err
	}
	old := s.conn.Swap(conn)
	s.invalid.Store(false)
	if old != nil {
		old.Close()
	}
	go func() {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		_ = r.build(bctx, s)
	}()
	return nil
}

// DatabaseName returns the connected database of a session.
func (r *Registry) DatabaseName(id string) (string, error) {
	s, err := r.get(id)
	if err != nil {
		return "", err
	}
	return s.conn.Load().DatabaseName(), nil
}

// DialectName returns the dialect of a session.
func (r *Registry) DialectName(id string) (string, error) {
	s, err := r.get(id)
	if err != nil {
		return "", err
	}
	return s.conn.Load().Descriptor().Name, nil
}

// Close releases a session's connection. The handle is released
// exactly once; closing an unknown or already closed session is a
// no-op. Other sessions are unaffected.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	s.invalid.Store(true)
	return s.conn.Load().Close()
}

// CloseAll closes every session and empties the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.invalid.Store(true)
		s.conn.Load().Close()
	}
}

func (r *Registry) get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	if s.invalid.Load() {
		return nil, &SessionInvalidError{ID: id}
	}
	return s, nil
}

// build runs one coalesced schema build for the session and publishes
// the result with an atomic swap.
func (r *Registry) build(ctx context.Context, s *Session) error {
	_, err, _ := s.builds.Do("build", func() (any, error) {
		conn := s.conn.Load()
		ix, err := schema.Build(ctx, conn)
		if err != nil {
			return nil, err
		}
		s.index.Store(ix)
		if r.cacheDir != "" {
			path := schema.SnapshotPath(r.cacheDir, schema.CacheKey(conn.Redacted()))
			_ = schema.SaveSnapshot(path, ix)
		}
		return ix, nil
	})
	return err
}
