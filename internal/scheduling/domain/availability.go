package domain

import (
	"iter"

	"github.com/google/uuid"
)

// BlockCategory classifies why a slot is unavailable.
type BlockCategory string

const (
	BlockAbsenceFull    BlockCategory = "absence_full"
	BlockAbsencePartial BlockCategory = "absence_partial"
	BlockLateArrival    BlockCategory = "late_arrival"
	BlockBooking        BlockCategory = "booking"
	BlockDayOff         BlockCategory = "day_off"
)

// BlockedInterval is an interval the professional cannot be booked in.
type BlockedInterval struct {
	Interval
	Reason   string        `json:"reason"`
	Category BlockCategory `json:"category"`
}

// Slot is one display slot of the availability grid.
type Slot struct {
	Start           TimeOfDay     `json:"start"`
	End             TimeOfDay     `json:"end"`
	Available       bool          `json:"available"`
	BlockedReason   string        `json:"blocked_reason,omitempty"`
	BlockedCategory BlockCategory `json:"blocked_category,omitempty"`
}

// Interval returns the slot's time range.
func (s Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// Summary counts slots.
type Summary struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Blocked   int `json:"blocked"`
}

// ProfessionalSummary identifies the professional of an availability result.
type ProfessionalSummary struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Specialty    string       `json:"specialty"`
	ScheduleType ScheduleType `json:"schedule_type"`
}

// Availability is the slot list of one professional on one date.
type Availability struct {
	Professional ProfessionalSummary `json:"professional"`
	Date         Date                `json:"date"`
	WorkWindow   WorkWindow          `json:"work_window"`
	Slots        []Slot              `json:"slots"`
	Summary      Summary             `json:"summary"`
}

// HasAvailableSlot reports whether at least one slot is free.
func (a *Availability) HasAvailableSlot() bool {
	return a.Summary.Available > 0
}

// AvailableSlots returns the free slots in order.
func (a *Availability) AvailableSlots() []Slot {
	out := make([]Slot, 0, a.Summary.Available)
	for _, s := range a.Slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

// MarkSlots evaluates every grid slot against the blocked intervals. The
// groups are checked in order and the first overlapping interval wins, so
// callers pass absences before bookings.
func MarkSlots(grid iter.Seq[Interval], groups ...[]BlockedInterval) []Slot {
	var slots []Slot
	for iv := range grid {
		slot := Slot{Start: iv.Start, End: iv.End, Available: true}
		if blocked, ok := FirstConflict(iv, groups...); ok {
			slot.Available = false
			slot.BlockedReason = blocked.Reason
			slot.BlockedCategory = blocked.Category
		}
		slots = append(slots, slot)
	}
	return slots
}

// BlockAll marks every grid slot unavailable with one reason.
func BlockAll(grid iter.Seq[Interval], reason string, category BlockCategory) []Slot {
	var slots []Slot
	for iv := range grid {
		slots = append(slots, Slot{
			Start:           iv.Start,
			End:             iv.End,
			BlockedReason:   reason,
			BlockedCategory: category,
		})
	}
	return slots
}

// FirstConflict returns the first blocked interval overlapping iv.
func FirstConflict(iv Interval, groups ...[]BlockedInterval) (BlockedInterval, bool) {
	for _, group := range groups {
		for _, b := range group {
			if Overlaps(iv, b.Interval) {
				return b, true
			}
		}
	}
	return BlockedInterval{}, false
}

// Summarize counts total, available and blocked slots.
func Summarize(slots []Slot) Summary {
	s := Summary{Total: len(slots)}
	for _, slot := range slots {
		if slot.Available {
			s.Available++
		}
	}
	s.Blocked = s.Total - s.Available
	return s
}

// DayOffReason is the blocked reason on non-working weekdays.
func DayOffReason(date Date) string {
	return "Day off: does not work on " + date.Weekday().String()
}
