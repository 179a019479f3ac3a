package domain

import "fmt"

// ScheduleType selects a professional's working window.
type ScheduleType string

const (
	ScheduleStandard ScheduleType = "standard"
	ScheduleMorning  ScheduleType = "morning"
	ScheduleEvening  ScheduleType = "evening"
	ScheduleCustom   ScheduleType = "custom"
)

// ParseScheduleType validates s. Empty selects standard.
func ParseScheduleType(s string) (ScheduleType, error) {
	if s == "" {
		return ScheduleStandard, nil
	}
	t := ScheduleType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidScheduleType, s)
	}
	return t, nil
}

// Valid reports whether t is a known schedule type.
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleStandard, ScheduleMorning, ScheduleEvening, ScheduleCustom:
		return true
	default:
		return false
	}
}

// WorkWindow is the interval a professional works on a given day.
type WorkWindow struct {
	Type ScheduleType `json:"schedule_type"`
	Interval
}

// WindowCatalog maps fixed schedule types to their windows. It is an
// immutable value; custom windows come from the professional.
type WindowCatalog struct {
	windows map[ScheduleType]Interval
}

// DefaultWindowCatalog returns standard 10-20, morning 08-16 and evening 14-22.
func DefaultWindowCatalog() WindowCatalog {
	return WindowCatalog{windows: map[ScheduleType]Interval{
		ScheduleStandard: {Start: At(10, 0), End: At(20, 0)},
		ScheduleMorning:  {Start: At(8, 0), End: At(16, 0)},
		ScheduleEvening:  {Start: At(14, 0), End: At(22, 0)},
	}}
}

// NewWindowCatalog overlays overrides on the default catalogue.
func NewWindowCatalog(overrides map[ScheduleType]Interval) (WindowCatalog, error) {
	catalog := DefaultWindowCatalog()
	for t, iv := range overrides {
		if !t.Valid() || t == ScheduleCustom {
			return WindowCatalog{}, fmt.Errorf("%w: %q cannot be configured", ErrInvalidScheduleType, t)
		}
		if _, err := NewInterval(iv.Start, iv.End); err != nil {
			return WindowCatalog{}, fmt.Errorf("window %s: %w", t, err)
		}
		catalog.windows[t] = iv
	}
	return catalog, nil
}

// Lookup returns the fixed window for t.
func (c WindowCatalog) Lookup(t ScheduleType) (Interval, bool) {
	iv, ok := c.windows[t]
	return iv, ok
}

// WindowFor resolves the working window of p. Unknown types and custom
// professionals without a stored window fall back to standard.
func (c WindowCatalog) WindowFor(p *Professional) WorkWindow {
	if p.ScheduleType() == ScheduleCustom {
		if custom, ok := p.CustomWindow(); ok {
			return WorkWindow{Type: ScheduleCustom, Interval: custom}
		}
	}
	if iv, ok := c.windows[p.ScheduleType()]; ok {
		return WorkWindow{Type: p.ScheduleType(), Interval: iv}
	}
	iv, ok := c.windows[ScheduleStandard]
	if !ok {
		iv = Interval{Start: At(10, 0), End: At(20, 0)}
	}
	return WorkWindow{Type: ScheduleStandard, Interval: iv}
}
