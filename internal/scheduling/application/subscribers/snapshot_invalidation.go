package subscribers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
)

// SnapshotInvalidationSubscriber drops snapshots named by scheduling events.
// The writing process already invalidates after commit; this covers caches
// held by other processes and writes whose after-commit hook failed.
type SnapshotInvalidationSubscriber struct {
	invalidator *services.SnapshotInvalidator
	logger      *slog.Logger
	metrics     observability.Metrics
}

// NewSnapshotInvalidationSubscriber creates a new SnapshotInvalidationSubscriber.
func NewSnapshotInvalidationSubscriber(invalidator *services.SnapshotInvalidator, logger *slog.Logger, metrics observability.Metrics) *SnapshotInvalidationSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &SnapshotInvalidationSubscriber{invalidator: invalidator, logger: logger, metrics: metrics}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *SnapshotInvalidationSubscriber) EventTypes() []string {
	return []string{
		domain.RoutingKeyBookingCreated,
		domain.RoutingKeyBookingRescheduled,
		domain.RoutingKeyBookingStatusChanged,
		domain.RoutingKeyAbsenceRecorded,
		domain.RoutingKeyAbsenceVoided,
	}
}

// Handle invalidates the affected snapshots. Returning an error makes the
// broker redeliver the event.
func (s *SnapshotInvalidationSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var change domain.AvailabilityChange
	if err := event.Decode(&change); err != nil {
		s.metrics.Counter(observability.MetricEventsConsumed, 1,
			observability.T("routing_key", event.RoutingKey), observability.T("outcome", "malformed"))
		s.logger.WarnContext(ctx, "skipping undecodable scheduling event",
			"event_id", event.EventID,
			"routing_key", event.RoutingKey,
			"error", err,
		)
		return nil
	}

	if err := s.invalidator.Invalidate(ctx, change.Affected...); err != nil {
		s.metrics.Counter(observability.MetricEventsConsumed, 1,
			observability.T("routing_key", event.RoutingKey), observability.T("outcome", "error"))
		return fmt.Errorf("failed to invalidate snapshots for event %s: %w", event.EventID, err)
	}

	s.metrics.Counter(observability.MetricEventsConsumed, 1,
		observability.T("routing_key", event.RoutingKey), observability.T("outcome", "ok"))
	s.logger.DebugContext(ctx, "snapshots invalidated",
		"event_id", event.EventID,
		"routing_key", event.RoutingKey,
		"keys", len(change.Affected),
	)
	return nil
}
