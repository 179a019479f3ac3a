package subscribers_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/subscribers"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	mu      sync.Mutex
	deleted []domain.SnapshotKey
	err     error
}

func (r *recordingStore) Upsert(context.Context, *domain.Snapshot) error { return nil }

func (r *recordingStore) Find(context.Context, domain.SnapshotKey) (*domain.Snapshot, error) {
	return nil, nil
}

func (r *recordingStore) Delete(_ context.Context, keys ...domain.SnapshotKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.deleted = append(r.deleted, keys...)
	return nil
}

var (
	eventTime = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	eventDay  = domain.Date{Year: 2024, Month: time.January, Day: 15}
)

func newBookingCreated(t *testing.T) (*outbox.Message, []domain.SnapshotKey) {
	t.Helper()
	svc, err := domain.NewService("Cut", 30, 1500, eventTime)
	require.NoError(t, err)
	line, err := domain.NewServiceLine(svc, 1)
	require.NoError(t, err)

	b, err := domain.NewBooking(domain.BookingInput{
		ClientID:                  uuid.New(),
		ProfessionalID:            uuid.New(),
		AdditionalProfessionalIDs: []uuid.UUID{uuid.New()},
		Lines:                     []domain.ServiceLine{line},
		Date:                      eventDay,
		Start:                     domain.At(10, 0),
	}, eventTime)
	require.NoError(t, err)
	require.Len(t, b.DomainEvents(), 1)

	msg, err := outbox.NewMessage(b.DomainEvents()[0])
	require.NoError(t, err)
	return msg, b.SnapshotKeys()
}

func TestSnapshotInvalidationSubscriber(t *testing.T) {
	ctx := context.Background()

	t.Run("drops every affected snapshot", func(t *testing.T) {
		store := &recordingStore{}
		metrics := observability.NewInMemoryMetrics()
		sub := subscribers.NewSnapshotInvalidationSubscriber(services.NewSnapshotInvalidator(store, nil, nil), nil, metrics)

		bus := eventbus.NewInProcessEventBus(nil)
		bus.RegisterConsumer(sub)

		msg, keys := newBookingCreated(t)
		require.NoError(t, bus.Publish(ctx, msg.RoutingKey, msg.Payload))

		assert.ElementsMatch(t, keys, store.deleted)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEventsConsumed,
			observability.T("routing_key", domain.RoutingKeyBookingCreated), observability.T("outcome", "ok")))
	})

	t.Run("storage failure asks for redelivery", func(t *testing.T) {
		store := &recordingStore{err: errors.New("db down")}
		sub := subscribers.NewSnapshotInvalidationSubscriber(services.NewSnapshotInvalidator(store, nil, nil), nil, nil)

		msg, _ := newBookingCreated(t)
		event, err := eventbus.DecodeEvent(msg.Payload, msg.RoutingKey)
		require.NoError(t, err)

		assert.Error(t, sub.Handle(ctx, event))
	})

	t.Run("malformed payload is skipped", func(t *testing.T) {
		store := &recordingStore{}
		sub := subscribers.NewSnapshotInvalidationSubscriber(services.NewSnapshotInvalidator(store, nil, nil), nil, nil)

		event := &eventbus.ConsumedEvent{RoutingKey: domain.RoutingKeyAbsenceVoided, Payload: []byte(`{"affected": "nope"}`)}
		assert.NoError(t, sub.Handle(ctx, event))
		assert.Empty(t, store.deleted)
	})

	t.Run("subscribes to every scheduling event", func(t *testing.T) {
		sub := subscribers.NewSnapshotInvalidationSubscriber(nil, nil, nil)
		assert.Len(t, sub.EventTypes(), 5)
		assert.Contains(t, sub.EventTypes(), domain.RoutingKeyAbsenceRecorded)
	})
}
