package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// ServiceLine is one service on a booking. Name, duration and price are
// copied from the service when the line is created.
type ServiceLine struct {
	ServiceID       uuid.UUID `json:"service_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	Quantity        int       `json:"quantity"`
	UnitPrice       int64     `json:"unit_price"`
}

// NewServiceLine prices quantity units of svc.
func NewServiceLine(svc *Service, quantity int) (ServiceLine, error) {
	if svc == nil {
		return ServiceLine{}, ErrServiceNotFound
	}
	if !svc.IsActive() {
		return ServiceLine{}, fmt.Errorf("%w: %s", ErrServiceInactive, svc.Name())
	}
	if quantity <= 0 {
		return ServiceLine{}, sharedDomain.NewFieldError("quantity", "must be positive")
	}
	return ServiceLine{
		ServiceID:       svc.ID(),
		Name:            svc.Name(),
		DurationMinutes: svc.DurationMinutes(),
		Quantity:        quantity,
		UnitPrice:       svc.UnitPrice(),
	}, nil
}

// Minutes returns the time the line occupies.
func (l ServiceLine) Minutes() int { return l.DurationMinutes * l.Quantity }

// Subtotal returns quantity times unit price.
func (l ServiceLine) Subtotal() int64 { return int64(l.Quantity) * l.UnitPrice }

func validateLines(lines []ServiceLine) error {
	if len(lines) == 0 {
		return sharedDomain.NewFieldError("services", "at least one service is required")
	}
	for i, l := range lines {
		if l.Quantity <= 0 {
			return sharedDomain.NewFieldError(fmt.Sprintf("services[%d].quantity", i), "must be positive")
		}
		if l.DurationMinutes <= 0 {
			return sharedDomain.NewFieldError(fmt.Sprintf("services[%d].duration_minutes", i), "must be positive")
		}
	}
	return nil
}

func totalMinutes(lines []ServiceLine) int {
	total := 0
	for _, l := range lines {
		total += l.Minutes()
	}
	return total
}

// BookingInput holds the fields of a new booking.
type BookingInput struct {
	ClientID                  uuid.UUID
	ProfessionalID            uuid.UUID
	AdditionalProfessionalIDs []uuid.UUID
	Lines                     []ServiceLine
	Date                      Date
	Start                     TimeOfDay
	Notes                     string
}

// Booking reserves one or more professionals for a client on one date.
type Booking struct {
	sharedDomain.BaseAggregateRoot
	clientID           uuid.UUID
	professionalID     uuid.UUID
	additional         []uuid.UUID
	lines              []ServiceLine
	date               Date
	start              TimeOfDay
	status             BookingStatus
	notes              string
	cancellationReason string
	completedAt        *time.Time
}

// NewBooking creates a pending booking. Admission is checked by the caller.
func NewBooking(in BookingInput, now time.Time) (*Booking, error) {
	if in.ClientID == uuid.Nil {
		return nil, sharedDomain.NewFieldError("client_id", "is required")
	}
	if in.ProfessionalID == uuid.Nil {
		return nil, sharedDomain.NewFieldError("professional_id", "is required")
	}
	if in.Date.IsZero() {
		return nil, sharedDomain.NewFieldError("date", "is required")
	}
	if err := validateLines(in.Lines); err != nil {
		return nil, err
	}
	if _, err := IntervalFor(in.Start, totalMinutes(in.Lines)); err != nil {
		return nil, err
	}
	additional, err := normalizeAdditional(in.ProfessionalID, in.AdditionalProfessionalIDs)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		clientID:          in.ClientID,
		professionalID:    in.ProfessionalID,
		additional:        additional,
		lines:             slices.Clone(in.Lines),
		date:              in.Date,
		start:             in.Start,
		status:            StatusPending,
		notes:             strings.TrimSpace(in.Notes),
	}
	b.AddDomainEvent(NewBookingCreated(b, now))
	return b, nil
}

func normalizeAdditional(principal uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, sharedDomain.NewFieldError("additional_professional_ids", "must not contain empty ids")
		}
		if id == principal {
			return nil, sharedDomain.NewFieldError("additional_professional_ids", "must not repeat the principal professional")
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

// RehydrateBooking recreates a booking from persisted state.
func RehydrateBooking(
	id, clientID, professionalID uuid.UUID,
	additional []uuid.UUID,
	lines []ServiceLine,
	date Date,
	start TimeOfDay,
	status BookingStatus,
	notes, cancellationReason string,
	completedAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		BaseAggregateRoot:  sharedDomain.RehydrateBaseAggregateRoot(id, createdAt, updatedAt, version),
		clientID:           clientID,
		professionalID:     professionalID,
		additional:         additional,
		lines:              lines,
		date:               date,
		start:              start,
		status:             status,
		notes:              notes,
		cancellationReason: cancellationReason,
		completedAt:        completedAt,
	}
}

func (b *Booking) ClientID() uuid.UUID        { return b.clientID }
func (b *Booking) ProfessionalID() uuid.UUID  { return b.professionalID }
func (b *Booking) Date() Date                 { return b.date }
func (b *Booking) Start() TimeOfDay           { return b.start }
func (b *Booking) Status() BookingStatus      { return b.status }
func (b *Booking) Notes() string              { return b.notes }
func (b *Booking) CancellationReason() string { return b.cancellationReason }
func (b *Booking) CompletedAt() *time.Time    { return b.completedAt }

// AdditionalProfessionalIDs returns the non-principal professionals.
func (b *Booking) AdditionalProfessionalIDs() []uuid.UUID {
	return slices.Clone(b.additional)
}

// ProfessionalIDs returns the principal followed by the additional professionals.
func (b *Booking) ProfessionalIDs() []uuid.UUID {
	return append([]uuid.UUID{b.professionalID}, b.additional...)
}

// Lines returns a copy of the service lines.
func (b *Booking) Lines() []ServiceLine {
	return slices.Clone(b.lines)
}

// Duration returns the sum of duration times quantity over all lines.
func (b *Booking) Duration() int {
	return totalMinutes(b.lines)
}

// TotalPrice returns the sum of the line subtotals.
func (b *Booking) TotalPrice() int64 {
	var total int64
	for _, l := range b.lines {
		total += l.Subtotal()
	}
	return total
}

// Interval returns the occupied range [start, start+duration).
func (b *Booking) Interval() Interval {
	return Interval{Start: b.start, End: b.start.Add(b.Duration())}
}

// IsActive reports whether the booking blocks time.
func (b *Booking) IsActive() bool {
	return b.status.IsActive()
}

// SnapshotKeys returns every (professional, date) whose availability the
// booking affects.
func (b *Booking) SnapshotKeys() []SnapshotKey {
	ids := b.ProfessionalIDs()
	keys := make([]SnapshotKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, SnapshotKey{ProfessionalID: id, Date: b.date})
	}
	return keys
}

// Reschedule moves the booking and optionally replaces its lines. A nil
// lines slice keeps the current services.
func (b *Booking) Reschedule(date Date, start TimeOfDay, lines []ServiceLine, now time.Time) error {
	if !b.IsActive() {
		return ErrBookingNotEditable
	}
	if date.IsZero() {
		return sharedDomain.NewFieldError("date", "is required")
	}
	if lines == nil {
		lines = b.lines
	}
	if err := validateLines(lines); err != nil {
		return err
	}
	if _, err := IntervalFor(start, totalMinutes(lines)); err != nil {
		return err
	}

	previous := b.SnapshotKeys()
	oldDate, oldInterval := b.date, b.Interval()

	b.date = date
	b.start = start
	b.lines = slices.Clone(lines)
	b.Touch(now)
	b.AddDomainEvent(NewBookingRescheduled(b, oldDate, oldInterval, previous, now))
	return nil
}

// RequiresAdmission reports whether moving to next occupies time again.
func (b *Booking) RequiresAdmission(next BookingStatus) bool {
	return !b.status.IsActive() && next.IsActive()
}

// Transition moves the booking to next. Completing stamps the completion
// time once; cancelling stores reason.
func (b *Booking) Transition(next BookingStatus, reason string, now time.Time) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if !b.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.status, next)
	}

	from := b.status
	b.status = next
	switch next {
	case StatusCompleted:
		if b.completedAt == nil {
			at := now.UTC()
			b.completedAt = &at
		}
	case StatusCancelled, StatusCancelledByAbsence:
		b.cancellationReason = strings.TrimSpace(reason)
	case StatusPending:
		b.cancellationReason = ""
	}
	b.Touch(now)
	b.AddDomainEvent(NewBookingStatusChanged(b, from, now))
	return nil
}
