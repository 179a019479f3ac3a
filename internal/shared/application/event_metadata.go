package application

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// NewEventMetadata returns the envelope for every event raised by one
// command. The correlation and causation ids are fresh per command; the actor
// may be uuid.Nil for system actions.
func NewEventMetadata(actorID uuid.UUID) domain.EventMetadata {
	return domain.EventMetadata{
		CorrelationID: uuid.New(),
		CausationID:   uuid.New(),
		ActorID:       actorID,
	}
}

// ApplyEventMetadata stamps metadata on every event that accepts it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if e, ok := event.(interface{ SetMetadata(domain.EventMetadata) }); ok {
			e.SetMetadata(metadata)
		}
	}
}

// RecordEvents stamps events and appends them to the outbox in the
// transaction carried by ctx, in the order they were raised.
func RecordEvents(ctx context.Context, repo outbox.Repository, events []domain.DomainEvent, metadata domain.EventMetadata) error {
	if len(events) == 0 {
		return nil
	}
	ApplyEventMetadata(events, metadata)

	batch := make([]*outbox.Message, len(events))
	for i, event := range events {
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return fmt.Errorf("event %d of %d: %w", i+1, len(events), err)
		}
		batch[i] = msg
	}
	return repo.SaveBatch(ctx, batch)
}
