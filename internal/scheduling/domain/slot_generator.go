package domain

import (
	"fmt"
	"iter"
	"slices"
)

// DefaultGranularity is the slot width used when none is configured.
const DefaultGranularity = 30

var allowedGranularities = []int{15, 30, 45, 60}

// ValidateGranularity accepts 15, 30, 45 or 60 minutes.
func ValidateGranularity(minutes int) error {
	if !slices.Contains(allowedGranularities, minutes) {
		return fmt.Errorf("%w: got %d", ErrInvalidGranularity, minutes)
	}
	return nil
}

// SlotGenerator lays candidate slots over a working window.
type SlotGenerator struct {
	Window Interval
	Step   int
}

// NewSlotGenerator validates the step against the allowed granularities.
func NewSlotGenerator(window Interval, step int) (SlotGenerator, error) {
	if err := ValidateGranularity(step); err != nil {
		return SlotGenerator{}, err
	}
	return SlotGenerator{Window: window, Step: step}, nil
}

// Grid yields step-wide display slots starting at the window start until
// the next start reaches the window end. The last slot may end past the
// window when the window is not a multiple of the step.
func (g SlotGenerator) Grid() iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if g.Step <= 0 {
			return
		}
		for s := g.Window.Start; s < g.Window.End; s = s.Add(g.Step) {
			end := min(s.Add(g.Step), TimeOfDay(MinutesPerDay))
			if !yield(Interval{Start: s, End: end}) {
				return
			}
		}
	}
}

// Fits yields [s, s+duration) for every grid start s whose full duration
// stays inside the window.
func (g SlotGenerator) Fits(duration int) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if g.Step <= 0 || duration <= 0 {
			return
		}
		for s := g.Window.Start; s.Add(duration) <= g.Window.End; s = s.Add(g.Step) {
			if !yield(Interval{Start: s, End: s.Add(duration)}) {
				return
			}
		}
	}
}
