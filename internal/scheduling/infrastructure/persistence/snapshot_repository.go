package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SnapshotRepository implements domain.SnapshotRepository. Slots are stored
// as JSON; the professional summary is joined from the professionals table.
type SnapshotRepository struct {
	sqlRepository
}

// NewSnapshotRepository creates a snapshot repository for conn.
func NewSnapshotRepository(conn database.Connection) *SnapshotRepository {
	return &SnapshotRepository{sqlRepository{conn: conn}}
}

// Upsert stores s, replacing any snapshot for the same key.
func (r *SnapshotRepository) Upsert(ctx context.Context, s *domain.Snapshot) error {
	slots, err := json.Marshal(s.Slots)
	if err != nil {
		return fmt.Errorf("failed to encode slots: %w", err)
	}

	query := r.q(`
		INSERT INTO availability_snapshots (
			professional_id, date, slots, total_slots, available_slots, blocked_slots,
			window_start, window_end, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (professional_id, date) DO UPDATE SET
			slots = excluded.slots,
			total_slots = excluded.total_slots,
			available_slots = excluded.available_slots,
			blocked_slots = excluded.blocked_slots,
			window_start = excluded.window_start,
			window_end = excluded.window_end,
			computed_at = excluded.computed_at`)
	_, err = r.exec(ctx).Exec(ctx, query,
		s.Professional.ID,
		s.Date,
		slots,
		s.Summary.Total,
		s.Summary.Available,
		s.Summary.Blocked,
		s.WorkWindow.Start.Minutes(),
		s.WorkWindow.End.Minutes(),
		s.ComputedAt.UTC(),
	)
	return err
}

// Find returns the stored snapshot for key, or nil.
func (r *SnapshotRepository) Find(ctx context.Context, key domain.SnapshotKey) (*domain.Snapshot, error) {
	query := r.q(`
		SELECT p.id, p.name, p.specialty, p.schedule_type,
			s.date, s.slots, s.total_slots, s.available_slots, s.blocked_slots,
			s.window_start, s.window_end, s.computed_at
		FROM availability_snapshots s
		JOIN professionals p ON p.id = s.professional_id
		WHERE s.professional_id = ? AND s.date = ?`)

	var (
		s                      domain.Snapshot
		id                     uuid.UUID
		scheduleType           string
		slots                  []byte
		windowStart, windowEnd int64
		computedAt             time.Time
	)
	err := r.exec(ctx).QueryRow(ctx, query, key.ProfessionalID, key.Date).Scan(
		&id, &s.Professional.Name, &s.Professional.Specialty, &scheduleType,
		&s.Date, &slots, &s.Summary.Total, &s.Summary.Available, &s.Summary.Blocked,
		&windowStart, &windowEnd, &computedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(slots, &s.Slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}

	s.Professional.ID = id
	s.Professional.ScheduleType = domain.ScheduleType(scheduleType)
	s.WorkWindow = domain.WorkWindow{
		Type:     domain.ScheduleType(scheduleType),
		Interval: domain.Interval{Start: domain.TimeOfDay(windowStart), End: domain.TimeOfDay(windowEnd)},
	}
	s.ComputedAt = computedAt.UTC()
	return &s, nil
}

// Delete drops the snapshots for keys. Missing keys are ignored.
func (r *SnapshotRepository) Delete(ctx context.Context, keys ...domain.SnapshotKey) error {
	query := r.q(`DELETE FROM availability_snapshots WHERE professional_id = ? AND date = ?`)
	for _, k := range keys {
		if _, err := r.exec(ctx).Exec(ctx, query, k.ProfessionalID, k.Date); err != nil {
			return err
		}
	}
	return nil
}
