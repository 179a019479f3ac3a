package outbox_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type absenceRecorded struct {
	domain.BaseEvent
	Date string `json:"date"`
}

func newSQLiteRepo(t *testing.T) (*outbox.SQLRepository, database.Connection) {
	t.Helper()
	ctx := context.Background()
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "outbox.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = migrations.Run(ctx, conn)
	require.NoError(t, err)
	return outbox.NewSQLRepository(conn), conn
}

func newEventMessage(t *testing.T) *outbox.Message {
	t.Helper()
	event := &absenceRecorded{
		BaseEvent: domain.NewBaseEvent(uuid.New(), "Absence", "scheduling.absence.recorded", time.Now().Add(-time.Minute)),
		Date:      "2024-01-15",
	}
	event.SetMetadata(domain.EventMetadata{CorrelationID: uuid.New()})
	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)
	return msg
}

func TestSQLRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)

	first := newEventMessage(t)
	second := newEventMessage(t)
	require.NoError(t, repo.SaveBatch(ctx, []*outbox.Message{first, second}))
	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.EventID, pending[0].EventID)
	assert.Equal(t, "scheduling.absence.recorded", pending[0].RoutingKey)
	assert.JSONEq(t, string(first.Payload), string(pending[0].Payload))

	require.NoError(t, repo.MarkPublished(ctx, first.ID))
	require.NoError(t, repo.MarkFailed(ctx, second.ID, "broker down", time.Now().Add(time.Hour)))

	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "published and backing-off messages are not due")

	require.NoError(t, repo.MarkDead(ctx, second.ID, "gave up"))
	deleted, err := repo.DeleteOld(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSQLRepository_SaveBatchJoinsUnitOfWork(t *testing.T) {
	ctx := context.Background()
	repo, conn := newSQLiteRepo(t)
	uow := database.NewUnitOfWork(conn)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(txCtx, []*outbox.Message{newEventMessage(t)}))
	require.NoError(t, uow.Rollback(txCtx))

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "rolled back with the surrounding transaction")
}
