package domain

import (
	"fmt"

	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
)

var (
	ErrInvalidTimeOfDay    = fmt.Errorf("%w: invalid time of day, expected HH:MM", sharedDomain.ErrValidation)
	ErrInvalidInterval     = fmt.Errorf("%w: interval start must be before end", sharedDomain.ErrValidation)
	ErrInvalidDate         = fmt.Errorf("%w: invalid date, expected YYYY-MM-DD", sharedDomain.ErrValidation)
	ErrInvalidGranularity  = fmt.Errorf("%w: granularity must be 15, 30, 45 or 60 minutes", sharedDomain.ErrValidation)
	ErrInvalidScheduleType = fmt.Errorf("%w: unknown schedule type", sharedDomain.ErrValidation)

	ErrProfessionalNotFound = fmt.Errorf("professional %w", sharedDomain.ErrNotFound)
	ErrClientNotFound       = fmt.Errorf("client %w", sharedDomain.ErrNotFound)
	ErrServiceNotFound      = fmt.Errorf("service %w", sharedDomain.ErrNotFound)
	ErrAbsenceNotFound      = fmt.Errorf("absence %w", sharedDomain.ErrNotFound)
	ErrBookingNotFound      = fmt.Errorf("booking %w", sharedDomain.ErrNotFound)

	ErrProfessionalInactive = fmt.Errorf("%w: professional is not active", sharedDomain.ErrValidation)
	ErrClientInactive       = fmt.Errorf("%w: client is not active", sharedDomain.ErrValidation)
	ErrServiceInactive      = fmt.Errorf("%w: service is not active", sharedDomain.ErrValidation)
	ErrOutsideWorkWindow    = fmt.Errorf("%w: requested time is outside working hours", sharedDomain.ErrValidation)
	ErrDayOff               = fmt.Errorf("%w: professional does not work on this day", sharedDomain.ErrValidation)
	ErrInvalidTransition    = fmt.Errorf("%w: invalid booking status transition", sharedDomain.ErrValidation)

	ErrSlotUnavailable        = fmt.Errorf("%w: time slot is no longer available", sharedDomain.ErrConflict)
	ErrAbsenceConflict        = fmt.Errorf("%w: professional is absent at the requested time", sharedDomain.ErrConflict)
	ErrClientDoubleBooked     = fmt.Errorf("%w: client already has a booking at the requested time", sharedDomain.ErrConflict)
	ErrClientDailyLimit       = fmt.Errorf("%w: client reached the daily booking limit", sharedDomain.ErrConflict)
	ErrAbsenceExists          = fmt.Errorf("%w: professional already has an absence record for this date", sharedDomain.ErrConflict)
	ErrAbsenceAlreadyVoided   = fmt.Errorf("%w: absence record is already voided", sharedDomain.ErrConflict)
	ErrBookingNotEditable     = fmt.Errorf("%w: only pending or in-progress bookings can be changed", sharedDomain.ErrConflict)
	ErrConcurrentModification = fmt.Errorf("%w: booking was modified concurrently", sharedDomain.ErrConflict)

	ErrAvailabilityUnavailable = fmt.Errorf("%w: availability could not be computed", sharedDomain.ErrInternal)
)
