package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventConsumer reacts to domain events. EventTypes lists the routing-key
// patterns it binds, e.g. "scheduling.booking.*" or "scheduling.#".
type EventConsumer interface {
	EventTypes() []string
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// Consumer is the broker side of delivery: it feeds registered
// EventConsumers until ctx is cancelled.
type Consumer interface {
	RegisterConsumer(consumer EventConsumer)
	Start(ctx context.Context) error
	Close() error
}

// ConsumedEvent is the envelope of a delivered event. The envelope fields
// sit at the top level of the JSON body; Payload keeps the full body for
// Decode.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Metadata      EventMetadata   `json:"metadata"`
	Payload       json.RawMessage `json:"-"`
}

// EventMetadata mirrors the tracing ids stamped by the command that raised
// the event.
type EventMetadata struct {
	ActorID       uuid.UUID `json:"actor_id"`
	CorrelationID uuid.UUID `json:"correlation_id"`
	CausationID   uuid.UUID `json:"causation_id"`
}

// DecodeEvent reads the envelope out of body. The broker's routing key
// stands in when the body has none.
func DecodeEvent(body []byte, routingKey string) (*ConsumedEvent, error) {
	var event ConsumedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode event %q: %w", routingKey, err)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	event.Payload = json.RawMessage(append([]byte(nil), body...))
	return &event, nil
}

// Decode unmarshals the event-specific fields of the body into v.
func (e *ConsumedEvent) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}
