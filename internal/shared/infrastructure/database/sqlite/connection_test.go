package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
)

func openTestConnection(t *testing.T) database.Connection {
	t.Helper()
	conn, err := NewConnection(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestNewConnection(t *testing.T) {
	conn := openTestConnection(t)

	assert.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestNewConnection_ViaFactory(t *testing.T) {
	ctx := context.Background()
	conn, err := database.NewConnection(ctx, database.Config{
		URL: "sqlite://" + filepath.Join(t.TempDir(), "factory.db"),
	})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)

	_, err := conn.Exec(ctx, `CREATE TABLE clients (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	result, err := conn.Exec(ctx, `INSERT INTO clients (id, name) VALUES (?, ?)`, "1", "Alice")
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = conn.Exec(ctx, `INSERT INTO clients (id, name) VALUES (?, ?)`, "2", "Bob")
	require.NoError(t, err)

	rows, err := conn.Query(ctx, `SELECT name FROM clients ORDER BY id`)
	require.NoError(t, err)
	names, err := database.CollectRows(rows, func(row database.Row) (string, error) {
		var name string
		err := row.Scan(&name)
		return name, err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, names)
}

func TestConnection_UniqueViolation(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)

	_, err := conn.Exec(ctx, `CREATE TABLE slots (professional TEXT, start_minute INTEGER, status TEXT)`)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `CREATE UNIQUE INDEX ux_active ON slots (professional, start_minute) WHERE status IN ('pending', 'in_progress')`)
	require.NoError(t, err)

	_, err = conn.Exec(ctx, `INSERT INTO slots VALUES ('p1', 600, 'pending')`)
	require.NoError(t, err)

	_, err = conn.Exec(ctx, `INSERT INTO slots VALUES ('p1', 600, 'cancelled')`)
	require.NoError(t, err, "inactive rows are outside the partial index")

	_, err = conn.Exec(ctx, `INSERT INTO slots VALUES ('p1', 600, 'in_progress')`)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsUniqueViolation(errors.New("other")))
}

func TestUnitOfWork(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)
	uow := database.NewUnitOfWork(conn)

	_, err := conn.Exec(ctx, `CREATE TABLE clients (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	t.Run("commit persists", func(t *testing.T) {
		txCtx, err := uow.Begin(ctx)
		require.NoError(t, err)
		require.NotNil(t, database.TxFromContext(txCtx))

		_, err = database.ExecutorFromContext(txCtx, conn).Exec(txCtx, `INSERT INTO clients VALUES (?, ?)`, "1", "Alice")
		require.NoError(t, err)
		require.NoError(t, uow.Commit(txCtx))

		var count int
		require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("rollback discards", func(t *testing.T) {
		txCtx, err := uow.Begin(ctx)
		require.NoError(t, err)

		_, err = database.ExecutorFromContext(txCtx, conn).Exec(txCtx, `INSERT INTO clients VALUES (?, ?)`, "2", "Bob")
		require.NoError(t, err)
		require.NoError(t, uow.Rollback(txCtx))

		var count int
		require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("nested begin joins outer transaction", func(t *testing.T) {
		outer, err := uow.Begin(ctx)
		require.NoError(t, err)
		inner, err := uow.Begin(outer)
		require.NoError(t, err)

		assert.Same(t, database.TxFromContext(outer), database.TxFromContext(inner))
		require.NoError(t, uow.Commit(inner), "inner commit is a no-op")
		require.NoError(t, uow.Rollback(outer))
	})

	t.Run("commit without transaction fails", func(t *testing.T) {
		assert.Error(t, uow.Commit(ctx))
	})
}
