package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultRefreshConcurrency bounds parallel computations during a refresh.
const DefaultRefreshConcurrency = 4

// RefreshResult summarises a bulk refresh.
type RefreshResult struct {
	Date      domain.Date `json:"date"`
	Specialty string      `json:"specialty,omitempty"`
	Refreshed int         `json:"refreshed"`
	Failed    int         `json:"failed"`
	Duration  string      `json:"duration"`
}

// Refresher recomputes and stores availability snapshots.
type Refresher struct {
	professionals domain.ProfessionalRepository
	calculator    *Calculator
	snapshots     domain.SnapshotRepository
	cache         domain.SnapshotCache
	clock         sharedDomain.Clock
	concurrency   int
	logger        *slog.Logger
	metrics       observability.Metrics
}

// NewRefresher creates a new Refresher. cache may be nil.
func NewRefresher(
	professionals domain.ProfessionalRepository,
	calculator *Calculator,
	snapshots domain.SnapshotRepository,
	cache domain.SnapshotCache,
	clock sharedDomain.Clock,
	concurrency int,
	logger *slog.Logger,
	metrics observability.Metrics,
) *Refresher {
	if concurrency <= 0 {
		concurrency = DefaultRefreshConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Refresher{
		professionals: professionals,
		calculator:    calculator,
		snapshots:     snapshots,
		cache:         cache,
		clock:         clock,
		concurrency:   concurrency,
		logger:        logger,
		metrics:       metrics,
	}
}

// Refresh recomputes the snapshot of every active professional on date,
// optionally limited to one specialty. Individual failures are counted and
// logged; the refresh carries on with the remaining professionals.
func (r *Refresher) Refresh(ctx context.Context, date domain.Date, specialty string) (_ *RefreshResult, err error) {
	ctx, span := observability.StartSpan(ctx, "availability.refresh",
		attribute.String("date", date.String()),
		attribute.String("specialty", specialty),
	)
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	professionals, err := r.professionals.ListActive(ctx, specialty)
	if err != nil {
		return nil, fmt.Errorf("failed to list professionals: %w", err)
	}

	var refreshed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, p := range professionals {
		g.Go(func() error {
			if _, err := r.RefreshOne(gctx, domain.SnapshotKey{ProfessionalID: p.ID(), Date: date}); err != nil {
				failed.Add(1)
				r.logger.WarnContext(gctx, "snapshot refresh failed",
					"professional_id", p.ID(),
					"date", date.String(),
					"error", err,
				)
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	r.metrics.Timing(observability.MetricRefreshDuration, elapsed)
	result := &RefreshResult{
		Date:      date,
		Specialty: specialty,
		Refreshed: int(refreshed.Load()),
		Failed:    int(failed.Load()),
		Duration:  elapsed.Round(time.Millisecond).String(),
	}
	r.logger.InfoContext(ctx, "snapshots refreshed",
		"date", date.String(),
		"specialty", specialty,
		"refreshed", result.Refreshed,
		"failed", result.Failed,
	)
	return result, nil
}

// RefreshOne recomputes and stores a single snapshot.
func (r *Refresher) RefreshOne(ctx context.Context, key domain.SnapshotKey) (*domain.Snapshot, error) {
	availability, err := r.calculator.Compute(ctx, key.ProfessionalID, key.Date)
	if err != nil {
		return nil, err
	}
	snapshot := domain.NewSnapshot(availability, r.clock.Now())
	if err := r.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, snapshot); err != nil {
			r.logger.WarnContext(ctx, "snapshot cache write failed", "key", key.String(), "error", err)
		}
	}
	r.metrics.Counter(observability.MetricRefreshedSnapshots, 1)
	return snapshot, nil
}
