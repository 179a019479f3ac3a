package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	BookingAggregateType = "Booking"
	AbsenceAggregateType = "Absence"

	RoutingKeyBookingCreated       = "scheduling.booking.created"
	RoutingKeyBookingRescheduled   = "scheduling.booking.rescheduled"
	RoutingKeyBookingStatusChanged = "scheduling.booking.status_changed"
	RoutingKeyAbsenceRecorded      = "scheduling.absence.recorded"
	RoutingKeyAbsenceVoided        = "scheduling.absence.voided"
)

// AvailabilityChange is carried by every scheduling event. Affected lists
// the snapshots the change invalidates.
type AvailabilityChange struct {
	Affected []SnapshotKey `json:"affected"`
}

// BookingCreated is emitted when a booking is admitted.
type BookingCreated struct {
	sharedDomain.BaseEvent
	AvailabilityChange
	ClientID       uuid.UUID `json:"client_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	Date           Date      `json:"date"`
	Start          TimeOfDay `json:"start"`
	End            TimeOfDay `json:"end"`
	TotalPrice     int64     `json:"total_price"`
}

// NewBookingCreated creates a BookingCreated event.
func NewBookingCreated(b *Booking, at time.Time) *BookingCreated {
	iv := b.Interval()
	return &BookingCreated{
		BaseEvent:          sharedDomain.NewBaseEvent(b.ID(), BookingAggregateType, RoutingKeyBookingCreated, at),
		AvailabilityChange: AvailabilityChange{Affected: b.SnapshotKeys()},
		ClientID:           b.ClientID(),
		ProfessionalID:     b.ProfessionalID(),
		Date:               b.Date(),
		Start:              iv.Start,
		End:                iv.End,
		TotalPrice:         b.TotalPrice(),
	}
}

// BookingRescheduled is emitted when a booking moves or its services change.
type BookingRescheduled struct {
	sharedDomain.BaseEvent
	AvailabilityChange
	OldDate  Date      `json:"old_date"`
	OldStart TimeOfDay `json:"old_start"`
	OldEnd   TimeOfDay `json:"old_end"`
	NewDate  Date      `json:"new_date"`
	NewStart TimeOfDay `json:"new_start"`
	NewEnd   TimeOfDay `json:"new_end"`
}

// NewBookingRescheduled creates a BookingRescheduled event. previous holds
// the snapshot keys before the move.
func NewBookingRescheduled(b *Booking, oldDate Date, oldInterval Interval, previous []SnapshotKey, at time.Time) *BookingRescheduled {
	iv := b.Interval()
	return &BookingRescheduled{
		BaseEvent:          sharedDomain.NewBaseEvent(b.ID(), BookingAggregateType, RoutingKeyBookingRescheduled, at),
		AvailabilityChange: AvailabilityChange{Affected: MergeKeys(previous, b.SnapshotKeys())},
		OldDate:            oldDate,
		OldStart:           oldInterval.Start,
		OldEnd:             oldInterval.End,
		NewDate:            b.Date(),
		NewStart:           iv.Start,
		NewEnd:             iv.End,
	}
}

// BookingStatusChanged is emitted on every status transition.
type BookingStatusChanged struct {
	sharedDomain.BaseEvent
	AvailabilityChange
	From   BookingStatus `json:"from"`
	To     BookingStatus `json:"to"`
	Reason string        `json:"reason,omitempty"`
}

// NewBookingStatusChanged creates a BookingStatusChanged event.
func NewBookingStatusChanged(b *Booking, from BookingStatus, at time.Time) *BookingStatusChanged {
	return &BookingStatusChanged{
		BaseEvent:          sharedDomain.NewBaseEvent(b.ID(), BookingAggregateType, RoutingKeyBookingStatusChanged, at),
		AvailabilityChange: AvailabilityChange{Affected: b.SnapshotKeys()},
		From:               from,
		To:                 b.Status(),
		Reason:             b.CancellationReason(),
	}
}

// AbsenceRecordedEvent is emitted when an absence record is created.
type AbsenceRecordedEvent struct {
	sharedDomain.BaseEvent
	AvailabilityChange
	ProfessionalID uuid.UUID   `json:"professional_id"`
	Date           Date        `json:"date"`
	Kind           AbsenceKind `json:"kind"`
}

// NewAbsenceRecorded creates an AbsenceRecordedEvent.
func NewAbsenceRecorded(a *AbsenceRecord, at time.Time) *AbsenceRecordedEvent {
	return &AbsenceRecordedEvent{
		BaseEvent:          sharedDomain.NewBaseEvent(a.ID(), AbsenceAggregateType, RoutingKeyAbsenceRecorded, at),
		AvailabilityChange: AvailabilityChange{Affected: []SnapshotKey{{ProfessionalID: a.ProfessionalID(), Date: a.Date()}}},
		ProfessionalID:     a.ProfessionalID(),
		Date:               a.Date(),
		Kind:               a.Kind(),
	}
}

// AbsenceVoidedEvent is emitted when an absence record is voided.
type AbsenceVoidedEvent struct {
	sharedDomain.BaseEvent
	AvailabilityChange
	ProfessionalID uuid.UUID   `json:"professional_id"`
	Date           Date        `json:"date"`
	PreviousKind   AbsenceKind `json:"previous_kind"`
}

// NewAbsenceVoided creates an AbsenceVoidedEvent.
func NewAbsenceVoided(a *AbsenceRecord, previous AbsenceKind, at time.Time) *AbsenceVoidedEvent {
	return &AbsenceVoidedEvent{
		BaseEvent:          sharedDomain.NewBaseEvent(a.ID(), AbsenceAggregateType, RoutingKeyAbsenceVoided, at),
		AvailabilityChange: AvailabilityChange{Affected: []SnapshotKey{{ProfessionalID: a.ProfessionalID(), Date: a.Date()}}},
		ProfessionalID:     a.ProfessionalID(),
		Date:               a.Date(),
		PreviousKind:       previous,
	}
}
