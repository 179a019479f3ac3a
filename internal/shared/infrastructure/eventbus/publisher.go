package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher sends outbox payloads to a broker under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// DiscardPublisher accepts and drops every message. It backs EVENT_BROKER=none
// and stands in for an unreachable broker in development. Drops are counted
// per routing key.
type DiscardPublisher struct {
	logger *slog.Logger

	mu      sync.Mutex
	dropped map[string]int
}

// NewDiscardPublisher creates a publisher that sends nothing.
func NewDiscardPublisher(logger *slog.Logger) *DiscardPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscardPublisher{logger: logger, dropped: make(map[string]int)}
}

// Publish records and drops the message.
func (p *DiscardPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	p.dropped[routingKey]++
	p.mu.Unlock()

	p.logger.Debug("event discarded", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Dropped returns how many messages were discarded for routingKey.
func (p *DiscardPublisher) Dropped(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped[routingKey]
}

func (p *DiscardPublisher) Close() error { return nil }
