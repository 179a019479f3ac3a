package eventbus

import (
	"context"
	"log/slog"
	"time"
)

// InProcessEventBus hands outbox messages straight to consumers living in
// the same process. It backs EVENT_BROKER=inprocess, where the outbox relay
// and snapshot invalidation run in one binary.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
}

var (
	_ Publisher = (*InProcessEventBus)(nil)
	_ Consumer  = (*InProcessEventBus)(nil)
)

func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{registry: NewConsumerRegistry(logger), logger: logger}
}

func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish delivers payload synchronously. A body that cannot be decoded is
// logged and dropped, since retrying cannot fix it; a consumer error is
// returned so the outbox retries the message.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := DecodeEvent(payload, routingKey)
	if err != nil {
		b.logger.Error("dropping undecodable event", "routing_key", routingKey, "error", err)
		return nil
	}

	began := time.Now()
	err = b.registry.Dispatch(ctx, event)
	log := b.logger.With(
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(began).Milliseconds(),
	)
	if err != nil {
		log.Error("event dispatch failed", "error", err)
		return err
	}
	log.Debug("event dispatched")
	return nil
}

// Start parks until ctx ends; delivery already happens inside Publish.
func (b *InProcessEventBus) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *InProcessEventBus) Close() error { return nil }

// Registry exposes the bindings, mostly for tests.
func (b *InProcessEventBus) Registry() *ConsumerRegistry { return b.registry }
