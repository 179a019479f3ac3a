package domain

import (
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// AbsenceKind is the type of an absence record.
type AbsenceKind string

const (
	AbsenceLateArrival     AbsenceKind = "late_arrival"
	AbsenceAbsent          AbsenceKind = "absent"
	AbsenceVacation        AbsenceKind = "vacation"
	AbsenceMedicalLeave    AbsenceKind = "medical_leave"
	AbsenceShiftAssignment AbsenceKind = "shift_assignment"
	AbsenceVoided          AbsenceKind = "voided"
)

// Valid reports whether k is a known kind.
func (k AbsenceKind) Valid() bool {
	switch k {
	case AbsenceLateArrival, AbsenceAbsent, AbsenceVacation, AbsenceMedicalLeave, AbsenceShiftAssignment, AbsenceVoided:
		return true
	default:
		return false
	}
}

// AbsentKind refines an absent record.
type AbsentKind string

const (
	AbsentFullDay      AbsentKind = "full_day"
	AbsentPartialHours AbsentKind = "partial_hours"
)

// Shift names a shift assignment.
type Shift string

const (
	ShiftOpening Shift = "opening"
	ShiftClosing Shift = "closing"
)

// Absence times must fall inside business hours.
var absenceHours = Interval{Start: At(6, 0), End: At(23, 59)}

// AbsencePolicy holds the configurable write-time rules.
type AbsencePolicy struct {
	VacationMinTenureDays int
}

// DefaultAbsencePolicy requires 180 days of tenure for vacation.
func DefaultAbsencePolicy() AbsencePolicy {
	return AbsencePolicy{VacationMinTenureDays: 180}
}

// AbsenceInput holds the fields of a new absence record.
type AbsenceInput struct {
	ProfessionalID  uuid.UUID
	Date            Date
	Kind            AbsenceKind
	AbsentKind      AbsentKind
	Partial         *Interval
	Arrival         *TimeOfDay
	VacationDays    int
	MedicalDocument string
	Shift           Shift
	Notes           string
}

// AbsenceRecord captures one professional's exception to the normal
// schedule on one date. At most one non-voided record exists per
// professional and date.
type AbsenceRecord struct {
	sharedDomain.BaseAggregateRoot
	professionalID  uuid.UUID
	date            Date
	kind            AbsenceKind
	absentKind      AbsentKind
	partial         *Interval
	arrival         *TimeOfDay
	vacationDays    int
	medicalDocument string
	shift           Shift
	notes           string
}

// NewAbsenceRecord validates in for professional and records it.
func NewAbsenceRecord(in AbsenceInput, professional *Professional, policy AbsencePolicy, now time.Time) (*AbsenceRecord, error) {
	if professional == nil {
		return nil, ErrProfessionalNotFound
	}
	if err := validateAbsence(in, professional, policy, DateOf(now)); err != nil {
		return nil, err
	}

	record := &AbsenceRecord{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		professionalID:    professional.ID(),
		date:              in.Date,
		kind:              in.Kind,
		absentKind:        in.AbsentKind,
		partial:           in.Partial,
		arrival:           in.Arrival,
		vacationDays:      in.VacationDays,
		medicalDocument:   strings.TrimSpace(in.MedicalDocument),
		shift:             in.Shift,
		notes:             strings.TrimSpace(in.Notes),
	}
	record.AddDomainEvent(NewAbsenceRecorded(record, now))
	return record, nil
}

func validateAbsence(in AbsenceInput, professional *Professional, policy AbsencePolicy, today Date) error {
	if in.Date.IsZero() {
		return sharedDomain.NewFieldError("date", "is required")
	}
	if in.Date.Before(today) {
		return sharedDomain.NewFieldError("date", "must not be in the past")
	}
	if !in.Kind.Valid() || in.Kind == AbsenceVoided {
		return sharedDomain.NewFieldError("kind", fmt.Sprintf("unknown absence kind %q", in.Kind))
	}

	if in.Kind != AbsenceLateArrival && in.Arrival != nil {
		return sharedDomain.NewFieldError("arrival", "is only allowed for late arrivals")
	}
	if in.Kind != AbsenceAbsent && (in.Partial != nil || in.AbsentKind != "") {
		return sharedDomain.NewFieldError("absent_kind", "is only allowed for absences")
	}
	if in.Kind != AbsenceVacation && in.VacationDays != 0 {
		return sharedDomain.NewFieldError("vacation_days", "is only allowed for vacations")
	}
	if in.Kind != AbsenceShiftAssignment && in.Shift != "" {
		return sharedDomain.NewFieldError("shift", "is only allowed for shift assignments")
	}

	switch in.Kind {
	case AbsenceLateArrival:
		if in.Arrival == nil {
			return sharedDomain.NewFieldError("arrival", "is required for late arrivals")
		}
		if !absenceHours.Contains(*in.Arrival) && *in.Arrival != absenceHours.End {
			return sharedDomain.NewFieldError("arrival", "must be between 06:00 and 23:59")
		}
	case AbsenceAbsent:
		switch in.AbsentKind {
		case AbsentFullDay:
			if in.Partial != nil {
				return sharedDomain.NewFieldError("partial", "is only allowed for partial absences")
			}
		case AbsentPartialHours:
			if in.Partial == nil {
				return sharedDomain.NewFieldError("partial", "start and end are required for partial absences")
			}
			if in.Partial.Start >= in.Partial.End {
				return sharedDomain.NewFieldError("partial", "start must be before end")
			}
			if !in.Partial.Within(absenceHours) {
				return sharedDomain.NewFieldError("partial", "must be between 06:00 and 23:59")
			}
		default:
			return sharedDomain.NewFieldError("absent_kind", "must be full_day or partial_hours")
		}
	case AbsenceVacation:
		if in.VacationDays < 7 || in.VacationDays%7 != 0 {
			return sharedDomain.NewFieldError("vacation_days", "must be whole weeks of at least 7 days")
		}
		if tenure := professional.TenureDays(today); tenure >= 0 && tenure < policy.VacationMinTenureDays {
			return sharedDomain.NewFieldError("vacation_days",
				fmt.Sprintf("requires %d days of tenure, professional has %d", policy.VacationMinTenureDays, tenure))
		}
	case AbsenceMedicalLeave:
		if strings.TrimSpace(in.MedicalDocument) == "" {
			return sharedDomain.NewFieldError("medical_document", "is required for medical leave")
		}
	case AbsenceShiftAssignment:
		if in.Shift != ShiftOpening && in.Shift != ShiftClosing {
			return sharedDomain.NewFieldError("shift", "must be opening or closing")
		}
	}
	return nil
}

// RehydrateAbsenceRecord recreates a record from persisted state.
func RehydrateAbsenceRecord(
	id, professionalID uuid.UUID,
	date Date,
	kind AbsenceKind,
	absentKind AbsentKind,
	partial *Interval,
	arrival *TimeOfDay,
	vacationDays int,
	medicalDocument string,
	shift Shift,
	notes string,
	createdAt, updatedAt time.Time,
) *AbsenceRecord {
	return &AbsenceRecord{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(id, createdAt, updatedAt, 0),
		professionalID:    professionalID,
		date:              date,
		kind:              kind,
		absentKind:        absentKind,
		partial:           partial,
		arrival:           arrival,
		vacationDays:      vacationDays,
		medicalDocument:   medicalDocument,
		shift:             shift,
		notes:             notes,
	}
}

func (a *AbsenceRecord) ProfessionalID() uuid.UUID { return a.professionalID }
func (a *AbsenceRecord) Date() Date                { return a.date }
func (a *AbsenceRecord) Kind() AbsenceKind         { return a.kind }
func (a *AbsenceRecord) AbsentKind() AbsentKind    { return a.absentKind }
func (a *AbsenceRecord) Partial() *Interval        { return a.partial }
func (a *AbsenceRecord) Arrival() *TimeOfDay       { return a.arrival }
func (a *AbsenceRecord) VacationDays() int         { return a.vacationDays }
func (a *AbsenceRecord) MedicalDocument() string   { return a.medicalDocument }
func (a *AbsenceRecord) Shift() Shift              { return a.shift }
func (a *AbsenceRecord) Notes() string             { return a.notes }
func (a *AbsenceRecord) IsVoided() bool            { return a.kind == AbsenceVoided }

// BlocksFullDay reports whether the record removes the whole window.
func (a *AbsenceRecord) BlocksFullDay() bool {
	switch a.kind {
	case AbsenceVacation, AbsenceMedicalLeave:
		return true
	case AbsenceAbsent:
		return a.absentKind == AbsentFullDay
	default:
		return false
	}
}

// Void soft-deletes the record so that it no longer blocks anything.
func (a *AbsenceRecord) Void(now time.Time) error {
	if a.kind == AbsenceVoided {
		return ErrAbsenceAlreadyVoided
	}
	previous := a.kind
	a.kind = AbsenceVoided
	a.Touch(now)
	a.AddDomainEvent(NewAbsenceVoided(a, previous, now))
	return nil
}

// BlockedIntervals returns the intervals the record removes from window.
func (a *AbsenceRecord) BlockedIntervals(window WorkWindow) []BlockedInterval {
	switch a.kind {
	case AbsenceAbsent:
		if a.absentKind == AbsentPartialHours && a.partial != nil {
			return []BlockedInterval{{
				Interval: *a.partial,
				Reason:   "Partial absence: " + a.reasonNotes(),
				Category: BlockAbsencePartial,
			}}
		}
		if a.absentKind == AbsentFullDay {
			return []BlockedInterval{{
				Interval: window.Interval,
				Reason:   "Full-day absence: " + a.reasonNotes(),
				Category: BlockAbsenceFull,
			}}
		}
	case AbsenceVacation:
		return []BlockedInterval{{
			Interval: window.Interval,
			Reason:   "Vacation: " + a.reasonNotes(),
			Category: BlockAbsenceFull,
		}}
	case AbsenceMedicalLeave:
		return []BlockedInterval{{
			Interval: window.Interval,
			Reason:   "Medical leave: " + a.reasonNotes(),
			Category: BlockAbsenceFull,
		}}
	case AbsenceLateArrival:
		if a.arrival == nil || *a.arrival <= window.Start {
			return nil
		}
		return []BlockedInterval{{
			Interval: Interval{Start: window.Start, End: min(*a.arrival, window.End)},
			Reason:   "Late arrival: arrives at " + a.arrival.String(),
			Category: BlockLateArrival,
		}}
	}
	return nil
}

func (a *AbsenceRecord) reasonNotes() string {
	if a.notes == "" {
		return "no reason given"
	}
	return a.notes
}
