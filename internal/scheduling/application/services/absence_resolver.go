package services

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/google/uuid"
)

// AbsenceResolver turns a professional's absence record into blocked intervals.
type AbsenceResolver struct {
	absences domain.AbsenceRepository
}

// NewAbsenceResolver creates a new AbsenceResolver.
func NewAbsenceResolver(absences domain.AbsenceRepository) *AbsenceResolver {
	return &AbsenceResolver{absences: absences}
}

// Resolve returns the intervals removed from window by the professional's
// non-voided absence record on date.
func (r *AbsenceResolver) Resolve(ctx context.Context, professionalID uuid.UUID, date domain.Date, window domain.WorkWindow) ([]domain.BlockedInterval, error) {
	record, err := r.absences.FindActive(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load absence: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	return record.BlockedIntervals(window), nil
}
