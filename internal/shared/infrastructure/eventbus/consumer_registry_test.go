package eventbus_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConsumerRegistry_Register(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(discardLogger())

	consumer := &mockConsumer{
		eventTypes: []string{"scheduling.booking.created", "scheduling.absence.recorded"},
	}
	registry.Register(consumer)

	assert.Len(t, registry.GetConsumers("scheduling.booking.created"), 1)
	assert.Len(t, registry.GetConsumers("scheduling.absence.recorded"), 1)
	assert.Empty(t, registry.GetConsumers("unknown.event.type"))
	assert.Equal(t, []string{"scheduling.absence.recorded", "scheduling.booking.created"}, registry.EventTypes())
	assert.Equal(t, 1, registry.ConsumerCount())
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	t.Run("delivers to every consumer of the routing key", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(discardLogger())
		first := &mockConsumer{eventTypes: []string{"scheduling.booking.created"}}
		second := &mockConsumer{eventTypes: []string{"scheduling.booking.created"}}
		other := &mockConsumer{eventTypes: []string{"scheduling.absence.voided"}}
		registry.Register(first)
		registry.Register(second)
		registry.Register(other)

		event := &eventbus.ConsumedEvent{EventID: uuid.New(), RoutingKey: "scheduling.booking.created"}
		require.NoError(t, registry.Dispatch(context.Background(), event))

		assert.Len(t, first.events, 1)
		assert.Len(t, second.events, 1)
		assert.Empty(t, other.events)
	})

	t.Run("no consumers is not an error", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(discardLogger())
		event := &eventbus.ConsumedEvent{EventID: uuid.New(), RoutingKey: "nobody.listens"}
		assert.NoError(t, registry.Dispatch(context.Background(), event))
	})

	t.Run("continues after a failing consumer and joins errors", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(discardLogger())
		errFirst := errors.New("first failed")
		failing := &mockConsumer{eventTypes: []string{"scheduling.booking.created"}, err: errFirst}
		healthy := &mockConsumer{eventTypes: []string{"scheduling.booking.created"}}
		registry.Register(failing)
		registry.Register(healthy)

		event := &eventbus.ConsumedEvent{EventID: uuid.New(), RoutingKey: "scheduling.booking.created"}
		err := registry.Dispatch(context.Background(), event)

		require.Error(t, err)
		assert.ErrorIs(t, err, errFirst)
		assert.Len(t, healthy.events, 1)
	})
}

func TestConsumerRegistry_TopicPatterns(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(discardLogger())
	bookings := &mockConsumer{eventTypes: []string{"scheduling.booking.*"}}
	everything := &mockConsumer{eventTypes: []string{"scheduling.#", "scheduling.booking.created"}}
	registry.Register(bookings)
	registry.Register(everything)

	tests := []struct {
		routingKey string
		want       int
	}{
		{"scheduling.booking.created", 2},
		{"scheduling.booking.status_changed", 2},
		{"scheduling.absence.recorded", 1},
		{"scheduling", 1},
		{"scheduling.booking", 1},
		{"billing.invoice.paid", 0},
	}
	for _, tt := range tests {
		t.Run(tt.routingKey, func(t *testing.T) {
			assert.Len(t, registry.GetConsumers(tt.routingKey), tt.want)
		})
	}

	assert.Equal(t, 2, registry.ConsumerCount())
	assert.Equal(t, []string{"scheduling.#", "scheduling.booking.*", "scheduling.booking.created"}, registry.EventTypes())

	event := &eventbus.ConsumedEvent{EventID: uuid.New(), RoutingKey: "scheduling.booking.created"}
	require.NoError(t, registry.Dispatch(context.Background(), event))
	assert.Len(t, everything.events, 1, "a consumer bound twice receives the event once")
}
