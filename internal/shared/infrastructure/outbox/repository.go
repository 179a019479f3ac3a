// Package outbox stores domain events in the transaction that produced them
// and relays them to the configured broker afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// Message is one stored event with its delivery state.
type Message struct {
	ID            int64
	EventID       uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	RoutingKey    string
	// Payload is the event as JSON; consumers read the envelope fields
	// (event_id, aggregate_id, routing_key, occurred_at) from its top level.
	Payload   json.RawMessage
	Metadata  json.RawMessage
	CreatedAt time.Time

	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage serializes event for storage.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", event.RoutingKey(), err)
	}
	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s metadata: %w", event.RoutingKey(), err)
	}
	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt().UTC(),
	}, nil
}

// Repository persists messages and their delivery state.
type Repository interface {
	// SaveBatch stores msgs in the transaction carried by ctx, if any.
	SaveBatch(ctx context.Context, msgs []*Message) error
	// GetUnpublished returns up to limit messages that are due, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	// MarkFailed counts a failed attempt and sets when to try again.
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error
	// MarkDead parks a message that exhausted its retries.
	MarkDead(ctx context.Context, id int64, reason string) error
	// DeleteOld removes published messages older than olderThanDays.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
