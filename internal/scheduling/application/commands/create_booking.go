package commands

import (
	"context"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/slotwise/internal/shared/application"
	"github.com/google/uuid"
)

// CreateBookingCommand contains the data needed to book a client.
type CreateBookingCommand struct {
	ActorID                   uuid.UUID
	ClientID                  uuid.UUID
	ProfessionalID            uuid.UUID
	AdditionalProfessionalIDs []uuid.UUID
	Services                  []ServiceRequest
	Date                      domain.Date
	Start                     domain.TimeOfDay
	Notes                     string
}

// CreateBookingResult contains the result of creating a booking.
type CreateBookingResult struct {
	BookingID  uuid.UUID
	Interval   domain.Interval
	TotalPrice int64
	Status     domain.BookingStatus
}

// CreateBookingHandler handles the CreateBookingCommand.
type CreateBookingHandler struct {
	deps BookingDeps
}

// NewCreateBookingHandler creates a new CreateBookingHandler.
func NewCreateBookingHandler(deps BookingDeps) *CreateBookingHandler {
	return &CreateBookingHandler{deps: deps}
}

// Handle admits and stores the booking in one transaction.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	var (
		result   *CreateBookingResult
		affected []domain.SnapshotKey
	)

	err := sharedApplication.AfterCommit(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		professionalIDs := append([]uuid.UUID{cmd.ProfessionalID}, cmd.AdditionalProfessionalIDs...)
		if err := h.deps.lockParticipants(txCtx, cmd.ClientID, professionalIDs); err != nil {
			return err
		}

		if _, err := h.deps.loadClient(txCtx, cmd.ClientID); err != nil {
			return err
		}
		if cmd.Services == nil {
			cmd.Services = []ServiceRequest{}
		}
		lines, err := h.deps.buildLines(txCtx, cmd.Services)
		if err != nil {
			return err
		}

		booking, err := domain.NewBooking(domain.BookingInput{
			ClientID:                  cmd.ClientID,
			ProfessionalID:            cmd.ProfessionalID,
			AdditionalProfessionalIDs: cmd.AdditionalProfessionalIDs,
			Lines:                     lines,
			Date:                      cmd.Date,
			Start:                     cmd.Start,
			Notes:                     cmd.Notes,
		}, h.deps.Clock.Now())
		if err != nil {
			return err
		}

		if err := h.deps.admit(txCtx, booking, nil); err != nil {
			return err
		}
		if err := h.deps.save(txCtx, booking, cmd.ActorID); err != nil {
			return err
		}

		affected = booking.SnapshotKeys()
		result = &CreateBookingResult{
			BookingID:  booking.ID(),
			Interval:   booking.Interval(),
			TotalPrice: booking.TotalPrice(),
			Status:     booking.Status(),
		}
		return nil
	}, h.deps.invalidateHook(&affected))
	if err != nil {
		return nil, err
	}

	h.deps.logger().InfoContext(ctx, "booking created",
		"booking_id", result.BookingID,
		"professional_id", cmd.ProfessionalID,
		"date", cmd.Date.String(),
		"interval", result.Interval.String(),
	)
	return result, nil
}
