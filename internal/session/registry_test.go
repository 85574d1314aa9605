package session

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqldesk/internal/database"
	"github.com/joacominatel/sqldesk/internal/dialect"
)

// memDesc is a minimal dialect descriptor whose schema build is a
// no-op, so mock expectations only ever see the statements a test
// submits itself.
var memDesc = dialect.Descriptor{Name: "mem", StatementSeparator: ';'}

func newMockRegistry(t *testing.T, opts ...Option) (*Registry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	open := func(ctx context.Context, connString string) (*database.Conn, error) {
		return database.OpenDB(memDesc, "app", db), nil
	}
	r := NewRegistry(append([]Option{WithOpenFunc(open)}, opts...)...)
	t.Cleanup(r.CloseAll)
	return r, mock
}

func TestCreateAndSubmit(t *testing.T) {
	r, mock := newMockRegistry(t)
	ctx := context.Background()

	id, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	mock.ExpectQuery("SELECT 1").WillReturnRows(
		sqlmock.NewRows([]string{"n"}).AddRow(1))

	it, err := r.Submit(ctx, id, "SELECT 1")
	require.NoError(t, err)
	defer it.Close()

	batch, err := it.Next()
	require.NoError(t, err)
	require.Len(t, batch.Rows, 1)
	assert.Equal(t, "1", batch.Rows[0][0])

	_, err = it.Next()
	assert.ErrorIs(t, err, database.ErrEndOfResults)
}

func TestSessionMetadata(t *testing.T) {
	r, _ := newMockRegistry(t)
	ctx := context.Background()

	id, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)

	name, err := r.DatabaseName(id)
	require.NoError(t, err)
	assert.Equal(t, "app", name)

	d, err := r.DialectName(id)
	require.NoError(t, err)
	assert.Equal(t, "mem", d)
}

func TestUnknownSessionFailsFast(t *testing.T) {
	r, _ := newMockRegistry(t)

	_, err := r.Submit(context.Background(), "nope", "SELECT 1")
	require.ErrorIs(t, err, ErrUnknownSession)

	_, err = r.Completions("nope", "SEL", 3)
	assert.ErrorIs(t, err, ErrUnknownSession)

	_, err = r.Schema("nope")
	assert.ErrorIs(t, err, ErrUnknownSession)

	assert.ErrorIs(t, r.Refresh(context.Background(), "nope"), ErrUnknownSession)
	assert.ErrorIs(t, r.Reconnect(context.Background(), "nope"), ErrUnknownSession)

	// Closing an unknown session is a no-op, not an error.
	assert.NoError(t, r.Close("nope"))
}

func TestCloseInvalidatesSession(t *testing.T) {
	r, mock := newMockRegistry(t)
	ctx := context.Background()

	id, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, r.Close(id))
	require.NoError(t, r.Close(id))

	var invalid *SessionInvalidError
	_, err = r.Submit(ctx, id, "SELECT 1")
	assert.ErrorAs(t, err, &invalid)
}

func TestSubmitMarksSessionFailedOnDeadBackend(t *testing.T) {
	r, mock := newMockRegistry(t)
	ctx := context.Background()

	id, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT 1").WillReturnError(assert.AnError)
	mock.ExpectPing().WillReturnError(assert.AnError)

	_, err = r.Submit(ctx, id, "SELECT 1")
	require.Error(t, err)

	var invalid *SessionInvalidError
	_, err = r.Submit(ctx, id, "SELECT 1")
	assert.ErrorAs(t, err, &invalid)
}

func TestSubmitKeepsSessionOnQueryError(t *testing.T) {
	r, mock := newMockRegistry(t)
	ctx := context.Background()

	id, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)

	// The statement is bad but the backend still answers pings, so the
	// session stays usable.
	mock.ExpectQuery("SELECT bogus").WillReturnError(assert.AnError)
	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(
		sqlmock.NewRows([]string{"n"}).AddRow(1))

	_, err = r.Submit(ctx, id, "SELECT bogus")
	require.Error(t, err)

	it, err := r.Submit(ctx, id, "SELECT 1")
	require.NoError(t, err)
	it.Close()
}

func TestReconnectRestoresSession(t *testing.T) {
	// Closing a session closes its handle, so every dial gets a fresh
	// mock backend.
	var (
		mu   sync.Mutex
		mock sqlmock.Sqlmock
	)
	open := func(ctx context.Context, connString string) (*database.Conn, error) {
		db, m, err := sqlmock.New()
		if err != nil {
			return nil, err
		}
		mu.Lock()
		mock = m
		mu.Unlock()
		return database.OpenDB(memDesc, "app", db), nil
	}
	r := NewRegistry(WithOpenFunc(open))
	defer r.CloseAll()
	ctx := context.Background()

	id, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)

	mu.Lock()
	mock.ExpectClose()
	mu.Unlock()
	require.NoError(t, r.Close(id))

	require.NoError(t, r.Reconnect(ctx, id))

	mu.Lock()
	mock.ExpectQuery("SELECT 1").WillReturnRows(
		sqlmock.NewRows([]string{"n"}).AddRow(1))
	mu.Unlock()

	it, err := r.Submit(ctx, id, "SELECT 1")
	require.NoError(t, err)
	it.Close()
}

func TestCompletionsServeWithoutBuiltIndex(t *testing.T) {
	r, _ := newMockRegistry(t)
	ctx := context.Background()

	id, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)

	got, err := r.Completions(id, "SEL", 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "SELECT", got[0].Text)
}

func TestConcurrentCompletionsAndRefresh(t *testing.T) {
	r, _ := newMockRegistry(t)
	ctx := context.Background()

	id, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := r.Completions(id, "SELECT * FROM c", 15)
				assert.NoError(t, err)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				assert.NoError(t, r.Refresh(ctx, id))
			}
		}()
	}
	wg.Wait()

	ix, err := r.Schema(id)
	require.NoError(t, err)
	assert.NotNil(t, ix)
}

func TestRefreshWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	r, _ := newMockRegistry(t, WithSnapshotDir(dir))
	ctx := context.Background()

	id, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)
	require.NoError(t, r.Refresh(ctx, id))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestCloseAllEmptiesRegistry(t *testing.T) {
	r, _ := newMockRegistry(t)
	ctx := context.Background()

	a, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)
	b, err := r.Create(ctx, "mem://app")
	require.NoError(t, err)

	r.CloseAll()

	_, err = r.Schema(a)
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = r.Schema(b)
	assert.ErrorIs(t, err, ErrUnknownSession)
}
