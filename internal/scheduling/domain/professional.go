package domain

import (
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// Weekdays is a bitmask of working days. The zero value means every day.
type Weekdays uint8

// EveryDay is the empty mask.
const EveryDay Weekdays = 0

var weekdayNames = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// NewWeekdays builds a mask from days.
func NewWeekdays(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w |= 1 << uint(d)
	}
	return w
}

// ParseWeekdays parses a comma separated list such as "mon,tue,fri".
func ParseWeekdays(s string) (Weekdays, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EveryDay, nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if len(name) > 3 {
			name = name[:3]
		}
		found := false
		for i, n := range weekdayNames {
			if n == name {
				days = append(days, time.Weekday(i))
				found = true
				break
			}
		}
		if !found {
			return 0, sharedDomain.NewFieldError("work_days", fmt.Sprintf("unknown weekday %q", part))
		}
	}
	return NewWeekdays(days...), nil
}

// Includes reports whether d is a working day.
func (w Weekdays) Includes(d time.Weekday) bool {
	return w == EveryDay || w&(1<<uint(d)) != 0
}

func (w Weekdays) String() string {
	if w == EveryDay {
		return "every day"
	}
	var names []string
	for i, n := range weekdayNames {
		if w&(1<<uint(i)) != 0 {
			names = append(names, n)
		}
	}
	return strings.Join(names, ",")
}

// Professional is a staff member whose time can be booked.
type Professional struct {
	sharedDomain.BaseEntity
	name         string
	specialty    string
	active       bool
	scheduleType ScheduleType
	customWindow *Interval
	workDays     Weekdays
	hireDate     Date
}

// ProfessionalInput holds the fields for registering a professional.
type ProfessionalInput struct {
	Name         string
	Specialty    string
	ScheduleType ScheduleType
	CustomWindow *Interval
	WorkDays     Weekdays
	HireDate     Date
}

// NewProfessional registers an active professional.
func NewProfessional(in ProfessionalInput, now time.Time) (*Professional, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, sharedDomain.NewFieldError("name", "is required")
	}
	if in.ScheduleType == "" {
		in.ScheduleType = ScheduleStandard
	}
	if !in.ScheduleType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScheduleType, in.ScheduleType)
	}

	var custom *Interval
	if in.ScheduleType == ScheduleCustom {
		if in.CustomWindow == nil {
			return nil, sharedDomain.NewFieldError("custom_window", "is required for custom schedules")
		}
		iv, err := NewInterval(in.CustomWindow.Start, in.CustomWindow.End)
		if err != nil {
			return nil, err
		}
		custom = &iv
	} else if in.CustomWindow != nil {
		return nil, sharedDomain.NewFieldError("custom_window", "is only allowed for custom schedules")
	}

	return &Professional{
		BaseEntity:   sharedDomain.NewBaseEntity(now),
		name:         name,
		specialty:    strings.TrimSpace(in.Specialty),
		active:       true,
		scheduleType: in.ScheduleType,
		customWindow: custom,
		workDays:     in.WorkDays,
		hireDate:     in.HireDate,
	}, nil
}

// RehydrateProfessional recreates a professional from persisted state.
func RehydrateProfessional(
	id uuid.UUID,
	name, specialty string,
	active bool,
	scheduleType ScheduleType,
	customWindow *Interval,
	workDays Weekdays,
	hireDate Date,
	createdAt, updatedAt time.Time,
) *Professional {
	return &Professional{
		BaseEntity:   sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name:         name,
		specialty:    specialty,
		active:       active,
		scheduleType: scheduleType,
		customWindow: customWindow,
		workDays:     workDays,
		hireDate:     hireDate,
	}
}

func (p *Professional) Name() string               { return p.name }
func (p *Professional) Specialty() string          { return p.specialty }
func (p *Professional) IsActive() bool             { return p.active }
func (p *Professional) ScheduleType() ScheduleType { return p.scheduleType }
func (p *Professional) WorkDays() Weekdays         { return p.workDays }
func (p *Professional) HireDate() Date             { return p.hireDate }

// CustomWindow returns the professional's own window, if any.
func (p *Professional) CustomWindow() (Interval, bool) {
	if p.customWindow == nil {
		return Interval{}, false
	}
	return *p.customWindow, true
}

// WorksOn reports whether date falls on a working weekday.
func (p *Professional) WorksOn(date Date) bool {
	return p.workDays.Includes(date.Weekday())
}

// TenureDays returns the days between the hire date and on, or -1 when the
// hire date is unknown.
func (p *Professional) TenureDays(on Date) int {
	if p.hireDate.IsZero() {
		return -1
	}
	return on.DaysSince(p.hireDate)
}

// Deactivate stops the professional from taking new bookings.
func (p *Professional) Deactivate(now time.Time) {
	p.active = false
	p.Touch(now)
}

// Activate re-enables the professional.
func (p *Professional) Activate(now time.Time) {
	p.active = true
	p.Touch(now)
}

// Summary returns the identifying fields shown next to availability.
func (p *Professional) Summary() ProfessionalSummary {
	return ProfessionalSummary{
		ID:           p.ID(),
		Name:         p.name,
		Specialty:    p.specialty,
		ScheduleType: p.scheduleType,
	}
}
