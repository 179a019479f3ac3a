package domain

import "slices"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending            BookingStatus = "pending"
	StatusInProgress         BookingStatus = "in_progress"
	StatusCompleted          BookingStatus = "completed"
	StatusCancelled          BookingStatus = "cancelled"
	StatusCancelledByAbsence BookingStatus = "cancelled_by_absence"
)

// ActiveStatuses occupy the professional's time.
var ActiveStatuses = []BookingStatus{StatusPending, StatusInProgress}

var statusTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:            {StatusInProgress, StatusCancelled, StatusCancelledByAbsence},
	StatusInProgress:         {StatusCompleted, StatusCancelled, StatusCancelledByAbsence},
	StatusCancelledByAbsence: {StatusPending},
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusCancelledByAbsence:
		return true
	default:
		return false
	}
}

// IsActive reports whether the booking blocks time.
func (s BookingStatus) IsActive() bool {
	return slices.Contains(ActiveStatuses, s)
}

// IsTerminal reports whether no transition leaves s.
func (s BookingStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether s may move to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return slices.Contains(statusTransitions[s], next)
}
