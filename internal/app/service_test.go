package app

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqldesk/internal/database"
	"github.com/joacominatel/sqldesk/internal/dialect"
	"github.com/joacominatel/sqldesk/internal/session"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	desc := dialect.Descriptor{Name: "mem", StatementSeparator: ';'}
	reg := session.NewRegistry(session.WithOpenFunc(
		func(ctx context.Context, connString string) (*database.Conn, error) {
			return database.OpenDB(desc, "app", db), nil
		}))
	t.Cleanup(reg.CloseAll)
	return NewService(reg), mock
}

func TestServiceConnectLifecycle(t *testing.T) {
	svc, mock := newMockService(t)
	ctx := context.Background()

	assert.False(t, svc.Connected())

	require.NoError(t, svc.Connect(ctx, "mem://app"))
	assert.True(t, svc.Connected())
	assert.Equal(t, "app", svc.DatabaseName())
	assert.Equal(t, "mem", svc.DialectName())

	mock.ExpectClose()
	require.NoError(t, svc.Disconnect())
	assert.False(t, svc.Connected())
	require.NoError(t, svc.Disconnect())
}

func TestExecuteQueryNotConnected(t *testing.T) {
	svc, _ := newMockService(t)

	var notConnected *ErrNotConnected
	_, err := svc.ExecuteQuery(context.Background(), "SELECT 1")
	assert.ErrorAs(t, err, &notConnected)
}

func TestExecuteQuerySingleSet(t *testing.T) {
	svc, mock := newMockService(t)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx, "mem://app"))

	mock.ExpectQuery("SELECT id, name FROM customers").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "ada").
			AddRow(2, nil))

	result, err := svc.ExecuteQuery(ctx, "SELECT id, name FROM customers")
	require.NoError(t, err)
	require.Len(t, result.Sets, 1)

	set := result.Sets[0]
	assert.Equal(t, []string{"id", "name"}, set.Columns)
	assert.Equal(t, 2, set.RowCount)
	assert.Equal(t, []string{"1", "ada"}, set.Rows[0])
	assert.Equal(t, "NULL", set.Rows[1][1])
	assert.False(t, result.Truncated)
	assert.Positive(t, result.Duration)
}

func TestExecuteQueryError(t *testing.T) {
	svc, mock := newMockService(t)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx, "mem://app"))

	mock.ExpectQuery("SELECT bogus").WillReturnError(assert.AnError)

	var qerr *ErrQuery
	_, err := svc.ExecuteQuery(ctx, "SELECT bogus")
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "SELECT bogus", qerr.Query)
}

func TestCompletionsWithoutSession(t *testing.T) {
	svc, _ := newMockService(t)
	assert.Nil(t, svc.Completions("SEL", 3))
	assert.Nil(t, svc.Columns("customers"))
}

func TestCompletionsAfterConnect(t *testing.T) {
	svc, _ := newMockService(t)
	require.NoError(t, svc.Connect(context.Background(), "mem://app"))

	got := svc.Completions("SEL", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "SELECT", got[0].Text)
}
