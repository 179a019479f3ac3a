package queries

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	// MaxRangeDays caps an availability range query.
	MaxRangeDays = 31

	// NextAvailableScanDays is how far ahead NextAvailable looks.
	NextAvailableScanDays = 60

	defaultNextAvailableCount = 5
)

// AvailabilityRangeQuery asks for every date in [From, To].
type AvailabilityRangeQuery struct {
	ProfessionalID uuid.UUID
	From           domain.Date
	To             domain.Date
}

// AvailabilityRangeHandler handles the AvailabilityRangeQuery.
type AvailabilityRangeHandler struct {
	availability *GetAvailabilityHandler
}

// NewAvailabilityRangeHandler creates a new AvailabilityRangeHandler.
func NewAvailabilityRangeHandler(availability *GetAvailabilityHandler) *AvailabilityRangeHandler {
	return &AvailabilityRangeHandler{availability: availability}
}

// Handle returns one availability per date, in date order.
func (h *AvailabilityRangeHandler) Handle(ctx context.Context, query AvailabilityRangeQuery) ([]*domain.Availability, error) {
	if query.From.IsZero() || query.To.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	if query.To.Before(query.From) {
		return nil, sharedDomain.NewFieldError("to", "must not be before from")
	}
	days := query.To.DaysSince(query.From) + 1
	if days > MaxRangeDays {
		return nil, sharedDomain.NewFieldError("to", fmt.Sprintf("range is limited to %d days", MaxRangeDays))
	}

	out := make([]*domain.Availability, 0, days)
	for d := query.From; !d.After(query.To); d = d.AddDays(1) {
		a, err := h.availability.Handle(ctx, GetAvailabilityQuery{ProfessionalID: query.ProfessionalID, Date: d})
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// NextAvailableQuery asks for the next dates with at least one free slot.
type NextAvailableQuery struct {
	ProfessionalID uuid.UUID
	From           domain.Date
	Count          int
}

// AvailableDay summarises a date with free slots.
type AvailableDay struct {
	Date           domain.Date      `json:"date"`
	AvailableSlots int              `json:"available_slots"`
	FirstFree      domain.TimeOfDay `json:"first_free"`
}

// NextAvailableHandler handles the NextAvailableQuery.
type NextAvailableHandler struct {
	availability *GetAvailabilityHandler
}

// NewNextAvailableHandler creates a new NextAvailableHandler.
func NewNextAvailableHandler(availability *GetAvailabilityHandler) *NextAvailableHandler {
	return &NextAvailableHandler{availability: availability}
}

// Handle scans forward from From and stops after Count matches or
// NextAvailableScanDays dates, whichever comes first.
func (h *NextAvailableHandler) Handle(ctx context.Context, query NextAvailableQuery) ([]AvailableDay, error) {
	if query.From.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	count := query.Count
	if count <= 0 {
		count = defaultNextAvailableCount
	}

	out := []AvailableDay{}
	for i := 0; i < NextAvailableScanDays && len(out) < count; i++ {
		d := query.From.AddDays(i)
		a, err := h.availability.Handle(ctx, GetAvailabilityQuery{ProfessionalID: query.ProfessionalID, Date: d})
		if err != nil {
			return nil, err
		}
		free := a.AvailableSlots()
		if len(free) == 0 {
			continue
		}
		out = append(out, AvailableDay{Date: d, AvailableSlots: len(free), FirstFree: free[0].Start})
	}
	return out, nil
}

// AvailabilityBySpecialtyQuery asks for every active professional of a specialty.
type AvailabilityBySpecialtyQuery struct {
	Specialty string
	Date      domain.Date
	// OnlyAvailable drops professionals without a free slot.
	OnlyAvailable bool
}

// AvailabilityBySpecialtyHandler handles the AvailabilityBySpecialtyQuery.
type AvailabilityBySpecialtyHandler struct {
	professionals domain.ProfessionalRepository
	availability  *GetAvailabilityHandler
}

// NewAvailabilityBySpecialtyHandler creates a new AvailabilityBySpecialtyHandler.
func NewAvailabilityBySpecialtyHandler(professionals domain.ProfessionalRepository, availability *GetAvailabilityHandler) *AvailabilityBySpecialtyHandler {
	return &AvailabilityBySpecialtyHandler{professionals: professionals, availability: availability}
}

// Handle returns availabilities ordered by professional name.
func (h *AvailabilityBySpecialtyHandler) Handle(ctx context.Context, query AvailabilityBySpecialtyQuery) ([]*domain.Availability, error) {
	if query.Specialty == "" {
		return nil, sharedDomain.NewFieldError("specialty", "is required")
	}
	if query.Date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	professionals, err := h.professionals.ListActive(ctx, query.Specialty)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Availability, 0, len(professionals))
	for _, p := range professionals {
		a, err := h.availability.Handle(ctx, GetAvailabilityQuery{ProfessionalID: p.ID(), Date: query.Date})
		if err != nil {
			return nil, err
		}
		if query.OnlyAvailable && !a.HasAvailableSlot() {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
