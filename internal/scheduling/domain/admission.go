package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultClientDailyLimit is the number of active bookings a client may hold
// on one date.
const DefaultClientDailyLimit = 3

// AdmissionReason is the machine-readable outcome of an admission check.
type AdmissionReason string

const (
	ReasonAllowed              AdmissionReason = "ok"
	ReasonProfessionalNotFound AdmissionReason = "professional_not_found"
	ReasonProfessionalInactive AdmissionReason = "professional_inactive"
	ReasonDayOff               AdmissionReason = "day_off"
	ReasonOutsideWindow        AdmissionReason = "outside_window"
	ReasonAbsenceConflict      AdmissionReason = "absence_conflict"
	ReasonBookingConflict      AdmissionReason = "booking_conflict"
	ReasonClientOverlap        AdmissionReason = "client_overlap"
	ReasonClientDailyLimit     AdmissionReason = "client_daily_limit"
)

var reasonErrors = map[AdmissionReason]error{
	ReasonProfessionalNotFound: ErrProfessionalNotFound,
	ReasonProfessionalInactive: ErrProfessionalInactive,
	ReasonDayOff:               ErrDayOff,
	ReasonOutsideWindow:        ErrOutsideWorkWindow,
	ReasonAbsenceConflict:      ErrAbsenceConflict,
	ReasonBookingConflict:      ErrSlotUnavailable,
	ReasonClientOverlap:        ErrClientDoubleBooked,
	ReasonClientDailyLimit:     ErrClientDailyLimit,
}

// AdmissionRequest asks whether a booking may occupy an interval.
type AdmissionRequest struct {
	ProfessionalID            uuid.UUID
	AdditionalProfessionalIDs []uuid.UUID
	Date                      Date
	Start                     TimeOfDay
	Duration                  int
	ExcludeBookingID          *uuid.UUID
	ClientID                  *uuid.UUID
}

// Interval returns the requested range.
func (r AdmissionRequest) Interval() (Interval, error) {
	return IntervalFor(r.Start, r.Duration)
}

// ProfessionalIDs returns the principal followed by the additional professionals.
func (r AdmissionRequest) ProfessionalIDs() []uuid.UUID {
	return append([]uuid.UUID{r.ProfessionalID}, r.AdditionalProfessionalIDs...)
}

// AdmissionDecision is the result of an admission check.
type AdmissionDecision struct {
	Allowed        bool            `json:"allowed"`
	Reason         AdmissionReason `json:"reason"`
	Message        string          `json:"message"`
	ProfessionalID uuid.UUID       `json:"professional_id,omitempty"`
}

// Admit returns an allowing decision.
func Admit() AdmissionDecision {
	return AdmissionDecision{Allowed: true, Reason: ReasonAllowed, Message: "slot is available"}
}

// Deny returns a rejecting decision.
func Deny(reason AdmissionReason, professionalID uuid.UUID, format string, args ...any) AdmissionDecision {
	return AdmissionDecision{
		Reason:         reason,
		Message:        fmt.Sprintf(format, args...),
		ProfessionalID: professionalID,
	}
}

// Err returns nil for allowed decisions and an *AdmissionError otherwise.
func (d AdmissionDecision) Err() error {
	if d.Allowed {
		return nil
	}
	return &AdmissionError{Reason: d.Reason, Message: d.Message}
}

// AdmissionError carries a rejection. It unwraps to the reason's sentinel
// so callers can match with errors.Is.
type AdmissionError struct {
	Reason  AdmissionReason
	Message string
}

func (e *AdmissionError) Error() string {
	return e.Message
}

func (e *AdmissionError) Unwrap() error {
	if err, ok := reasonErrors[e.Reason]; ok {
		return err
	}
	return ErrSlotUnavailable
}

// CheckProfessional covers professional existence and the active flag.
func CheckProfessional(p *Professional, id uuid.UUID) AdmissionDecision {
	if p == nil {
		return Deny(ReasonProfessionalNotFound, id, "professional %s not found", id)
	}
	if !p.IsActive() {
		return Deny(ReasonProfessionalInactive, id, "%s is not active", p.Name())
	}
	return Admit()
}

// CheckWindow requires a working weekday and the full requested interval
// inside the window.
func CheckWindow(p *Professional, date Date, window WorkWindow, requested Interval) AdmissionDecision {
	if !p.WorksOn(date) {
		return Deny(ReasonDayOff, p.ID(), "%s does not work on %s", p.Name(), date.Weekday())
	}
	if !requested.Within(window.Interval) {
		return Deny(ReasonOutsideWindow, p.ID(),
			"requested time %s is outside working hours %s", requested, window.Interval)
	}
	return Admit()
}

// CheckAbsences rejects any overlap with the professional's absence intervals.
func CheckAbsences(p *Professional, requested Interval, absences []BlockedInterval) AdmissionDecision {
	if blocked, ok := FirstConflict(requested, absences); ok {
		return Deny(ReasonAbsenceConflict, p.ID(), "%s is unavailable: %s", p.Name(), blocked.Reason)
	}
	return Admit()
}

// CheckBookings rejects any overlap with the professional's active bookings.
func CheckBookings(p *Professional, requested Interval, bookings []BlockedInterval) AdmissionDecision {
	if blocked, ok := FirstConflict(requested, bookings); ok {
		return Deny(ReasonBookingConflict, p.ID(),
			"time slot %s is no longer available for %s (%s)", requested, p.Name(), blocked.Reason)
	}
	return Admit()
}

// CheckClientDay rejects overlapping client bookings and enforces the daily
// cap. clientBookings holds the client's other active bookings on the date.
func CheckClientDay(requested Interval, date Date, clientBookings []ActiveBooking, limit int) AdmissionDecision {
	for _, b := range clientBookings {
		if Overlaps(requested, b.Interval) {
			return Deny(ReasonClientOverlap, b.ProfessionalID,
				"client already has a booking at %s on %s", b.Interval, date)
		}
	}
	if limit > 0 && len(clientBookings) >= limit {
		return Deny(ReasonClientDailyLimit, uuid.Nil,
			"client already has %d active bookings on %s", len(clientBookings), date)
	}
	return Admit()
}

// SlotUnavailable is the decision reported when the storage layer rejects a
// booking that passed the checks concurrently.
func SlotUnavailable(professionalID uuid.UUID, requested Interval, date Date) AdmissionDecision {
	return Deny(ReasonBookingConflict, professionalID,
		"time slot %s on %s is no longer available", requested, date)
}
