package queries

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/google/uuid"
)

// GetAvailabilityQuery asks for one professional's slots on one date.
type GetAvailabilityQuery struct {
	ProfessionalID uuid.UUID
	Date           domain.Date
	// Fresh skips the cache and the stored snapshot.
	Fresh bool
}

// GetAvailabilityHandler serves availability from the cache, then the stored
// snapshot, then a fresh computation. Snapshots are never used for admission.
type GetAvailabilityHandler struct {
	calculator *services.Calculator
	snapshots  domain.SnapshotRepository
	cache      domain.SnapshotCache
	clock      sharedDomain.Clock
	logger     *slog.Logger
	metrics    observability.Metrics
	// invalidations guards cache fills against invalidations that ran
	// while the result was being read or computed.
	invalidations InvalidationCounter
}

// InvalidationCounter reports how many snapshot invalidations have run.
type InvalidationCounter interface {
	Generation() uint64
}

// NewGetAvailabilityHandler creates a new GetAvailabilityHandler. snapshots
// and cache may be nil.
func NewGetAvailabilityHandler(
	calculator *services.Calculator,
	snapshots domain.SnapshotRepository,
	cache domain.SnapshotCache,
	clock sharedDomain.Clock,
	logger *slog.Logger,
	metrics observability.Metrics,
) *GetAvailabilityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &GetAvailabilityHandler{
		calculator: calculator,
		snapshots:  snapshots,
		cache:      cache,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// WithInvalidations makes the handler skip a cache fill when counter moved
// between the start of a read and the fill.
func (h *GetAvailabilityHandler) WithInvalidations(counter InvalidationCounter) *GetAvailabilityHandler {
	h.invalidations = counter
	return h
}

func (h *GetAvailabilityHandler) generation() uint64 {
	if h.invalidations == nil {
		return 0
	}
	return h.invalidations.Generation()
}

// Handle executes the GetAvailabilityQuery.
func (h *GetAvailabilityHandler) Handle(ctx context.Context, query GetAvailabilityQuery) (*domain.Availability, error) {
	if query.Date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	key := domain.SnapshotKey{ProfessionalID: query.ProfessionalID, Date: query.Date}
	gen := h.generation()

	if !query.Fresh {
		if s := h.lookup(ctx, key, gen); s != nil {
			return &s.Availability, nil
		}
	}

	availability, err := h.calculator.Compute(ctx, query.ProfessionalID, query.Date)
	if err != nil {
		return nil, err
	}
	h.store(ctx, domain.NewSnapshot(availability, h.clock.Now()), gen)
	return availability, nil
}

func (h *GetAvailabilityHandler) lookup(ctx context.Context, key domain.SnapshotKey, gen uint64) *domain.Snapshot {
	if h.cache != nil {
		s, err := h.cache.Get(ctx, key)
		if err != nil {
			h.logger.WarnContext(ctx, "snapshot cache unavailable", "key", key.String(), "error", err)
		}
		if s != nil {
			h.metrics.Counter(observability.MetricSnapshotCache, 1, observability.T("result", "hit"))
			return s
		}
	}
	h.metrics.Counter(observability.MetricSnapshotCache, 1, observability.T("result", "miss"))

	if h.snapshots == nil {
		return nil
	}
	s, err := h.snapshots.Find(ctx, key)
	if err != nil {
		h.logger.WarnContext(ctx, "stored snapshot unreadable", "key", key.String(), "error", err)
		return nil
	}
	if s != nil {
		h.metrics.Counter(observability.MetricSnapshotCache, 1, observability.T("result", "stored"))
		h.store(ctx, s, gen)
	}
	return s
}

// store fills the cache unless an invalidation ran after gen was read.
func (h *GetAvailabilityHandler) store(ctx context.Context, s *domain.Snapshot, gen uint64) {
	if h.cache == nil {
		return
	}
	if h.generation() != gen {
		h.metrics.Counter(observability.MetricSnapshotCache, 1, observability.T("result", "stale_fill_skipped"))
		h.logger.DebugContext(ctx, "snapshot cache fill skipped after invalidation", "key", s.Key().String())
		return
	}
	if err := h.cache.Set(ctx, s); err != nil {
		h.logger.WarnContext(ctx, "snapshot cache write failed", "key", s.Key().String(), "error", err)
	}
}
