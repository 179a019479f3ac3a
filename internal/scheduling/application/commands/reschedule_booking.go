package commands

import (
	"context"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/slotwise/internal/shared/application"
	"github.com/google/uuid"
)

// RescheduleBookingCommand moves a booking and optionally replaces its services.
// A nil Services keeps the current lines.
type RescheduleBookingCommand struct {
	ActorID   uuid.UUID
	BookingID uuid.UUID
	Date      domain.Date
	Start     domain.TimeOfDay
	Services  []ServiceRequest
}

// RescheduleBookingResult contains the booking's new placement.
type RescheduleBookingResult struct {
	BookingID  uuid.UUID
	Date       domain.Date
	Interval   domain.Interval
	TotalPrice int64
}

// RescheduleBookingHandler handles the RescheduleBookingCommand.
type RescheduleBookingHandler struct {
	deps BookingDeps
}

// NewRescheduleBookingHandler creates a new RescheduleBookingHandler.
func NewRescheduleBookingHandler(deps BookingDeps) *RescheduleBookingHandler {
	return &RescheduleBookingHandler{deps: deps}
}

// Handle re-admits the booking at its new placement, excluding itself.
func (h *RescheduleBookingHandler) Handle(ctx context.Context, cmd RescheduleBookingCommand) (*RescheduleBookingResult, error) {
	var (
		result   *RescheduleBookingResult
		affected []domain.SnapshotKey
	)

	err := sharedApplication.AfterCommit(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		booking, err := h.deps.Bookings.FindByID(txCtx, cmd.BookingID)
		if err != nil {
			return err
		}
		if err := h.deps.lockParticipants(txCtx, booking.ClientID(), booking.ProfessionalIDs()); err != nil {
			return err
		}

		lines, err := h.deps.buildLines(txCtx, cmd.Services)
		if err != nil {
			return err
		}
		before := booking.SnapshotKeys()
		if err := booking.Reschedule(cmd.Date, cmd.Start, lines, h.deps.Clock.Now()); err != nil {
			return err
		}

		if err := h.deps.admit(txCtx, booking, &cmd.BookingID); err != nil {
			return err
		}
		if err := h.deps.save(txCtx, booking, cmd.ActorID); err != nil {
			return err
		}

		affected = domain.MergeKeys(before, booking.SnapshotKeys())
		result = &RescheduleBookingResult{
			BookingID:  booking.ID(),
			Date:       booking.Date(),
			Interval:   booking.Interval(),
			TotalPrice: booking.TotalPrice(),
		}
		return nil
	}, h.deps.invalidateHook(&affected))
	if err != nil {
		return nil, err
	}

	h.deps.logger().InfoContext(ctx, "booking rescheduled",
		"booking_id", cmd.BookingID,
		"date", result.Date.String(),
		"interval", result.Interval.String(),
	)
	return result, nil
}
