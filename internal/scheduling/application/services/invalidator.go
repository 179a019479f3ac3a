package services

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
)

// SnapshotInvalidator drops stored and cached snapshots after a change.
// Every Invalidate bumps a generation counter before anything is deleted, so
// a reader that computed across an invalidation can tell its result is stale.
type SnapshotInvalidator struct {
	snapshots  domain.SnapshotRepository
	cache      domain.SnapshotCache
	logger     *slog.Logger
	generation atomic.Uint64
}

// NewSnapshotInvalidator creates a new SnapshotInvalidator. cache may be nil.
func NewSnapshotInvalidator(snapshots domain.SnapshotRepository, cache domain.SnapshotCache, logger *slog.Logger) *SnapshotInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotInvalidator{snapshots: snapshots, cache: cache, logger: logger}
}

// Invalidate removes keys from the snapshot store and the cache.
func (i *SnapshotInvalidator) Invalidate(ctx context.Context, keys ...domain.SnapshotKey) error {
	if len(keys) == 0 {
		return nil
	}
	i.generation.Add(1)
	var errs []error
	if err := i.snapshots.Delete(ctx, keys...); err != nil {
		errs = append(errs, err)
	}
	if i.cache != nil {
		if err := i.cache.Invalidate(ctx, keys...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Generation counts the invalidations performed by this process.
func (i *SnapshotInvalidator) Generation() uint64 { return i.generation.Load() }

// AfterCommitHook returns a hook for application.AfterCommit. Failures are
// logged because the write has already happened.
func (i *SnapshotInvalidator) AfterCommitHook(keys func() []domain.SnapshotKey) func(ctx context.Context) {
	return func(ctx context.Context) {
		affected := keys()
		if err := i.Invalidate(ctx, affected...); err != nil {
			i.logger.WarnContext(ctx, "snapshot invalidation failed", "keys", len(affected), "error", err)
		}
	}
}
