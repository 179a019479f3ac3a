package services

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/google/uuid"
)

// BookingResolver turns a professional's active bookings into blocked intervals.
type BookingResolver struct {
	bookings domain.BookingRepository
}

// NewBookingResolver creates a new BookingResolver.
func NewBookingResolver(bookings domain.BookingRepository) *BookingResolver {
	return &BookingResolver{bookings: bookings}
}

// Resolve returns the intervals occupied by active bookings in which the
// professional takes part, skipping exclude.
func (r *BookingResolver) Resolve(ctx context.Context, professionalID uuid.UUID, date domain.Date, exclude *uuid.UUID) ([]domain.BlockedInterval, error) {
	active, err := r.bookings.FindActiveForProfessional(ctx, professionalID, date, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	blocked := make([]domain.BlockedInterval, 0, len(active))
	for _, b := range active {
		blocked = append(blocked, domain.BlockedInterval{
			Interval: b.Interval,
			Reason:   "Booking with " + b.ClientName,
			Category: domain.BlockBooking,
		})
	}
	return blocked, nil
}
