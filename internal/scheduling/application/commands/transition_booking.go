package commands

import (
	"context"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/slotwise/internal/shared/application"
	"github.com/google/uuid"
)

// TransitionBookingCommand moves a booking to another status.
type TransitionBookingCommand struct {
	ActorID   uuid.UUID
	BookingID uuid.UUID
	Status    domain.BookingStatus
	Reason    string
}

// TransitionBookingResult contains the booking's status after the change.
type TransitionBookingResult struct {
	BookingID uuid.UUID
	From      domain.BookingStatus
	To        domain.BookingStatus
}

// TransitionBookingHandler handles the TransitionBookingCommand.
type TransitionBookingHandler struct {
	deps BookingDeps
}

// NewTransitionBookingHandler creates a new TransitionBookingHandler.
func NewTransitionBookingHandler(deps BookingDeps) *TransitionBookingHandler {
	return &TransitionBookingHandler{deps: deps}
}

// Handle applies the transition. Reactivating a booking cancelled by an
// absence runs admission again because its slot may have been taken.
func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*TransitionBookingResult, error) {
	var (
		result   *TransitionBookingResult
		affected []domain.SnapshotKey
	)

	err := sharedApplication.AfterCommit(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		booking, err := h.deps.Bookings.FindByID(txCtx, cmd.BookingID)
		if err != nil {
			return err
		}

		from := booking.Status()
		if booking.RequiresAdmission(cmd.Status) && booking.Status().CanTransitionTo(cmd.Status) {
			if err := h.deps.lockParticipants(txCtx, booking.ClientID(), booking.ProfessionalIDs()); err != nil {
				return err
			}
			if err := h.deps.admit(txCtx, booking, &cmd.BookingID); err != nil {
				return err
			}
		}

		if err := booking.Transition(cmd.Status, cmd.Reason, h.deps.Clock.Now()); err != nil {
			return err
		}
		if err := h.deps.save(txCtx, booking, cmd.ActorID); err != nil {
			return err
		}

		affected = booking.SnapshotKeys()
		result = &TransitionBookingResult{BookingID: booking.ID(), From: from, To: booking.Status()}
		return nil
	}, h.deps.invalidateHook(&affected))
	if err != nil {
		return nil, err
	}

	h.deps.logger().InfoContext(ctx, "booking status changed",
		"booking_id", cmd.BookingID,
		"from", string(result.From),
		"to", string(result.To),
	)
	return result, nil
}
