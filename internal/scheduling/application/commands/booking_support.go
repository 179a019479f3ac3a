package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/slotwise/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ServiceRequest asks for quantity units of a service on a booking.
type ServiceRequest struct {
	ServiceID uuid.UUID
	Quantity  int
}

// BookingDeps bundles the collaborators of the booking command handlers.
type BookingDeps struct {
	Bookings      domain.BookingRepository
	Professionals domain.ProfessionalRepository
	Clients       domain.ClientRepository
	Services      domain.ServiceRepository
	Admission     *services.AdmissionChecker
	Outbox        outbox.Repository
	UnitOfWork    sharedApplication.UnitOfWork
	Invalidator   *services.SnapshotInvalidator
	Clock         sharedDomain.Clock
	Logger        *slog.Logger
}

func (d BookingDeps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// lockParticipants serialises concurrent writers touching the same
// professionals or client for the rest of the transaction.
func (d BookingDeps) lockParticipants(ctx context.Context, clientID uuid.UUID, professionalIDs []uuid.UUID) error {
	if err := d.Professionals.LockForBooking(ctx, professionalIDs); err != nil {
		return fmt.Errorf("failed to lock professionals: %w", err)
	}
	if err := d.Clients.LockForBooking(ctx, clientID); err != nil {
		return fmt.Errorf("failed to lock client: %w", err)
	}
	return nil
}

func (d BookingDeps) loadClient(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	client, err := d.Clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !client.IsActive() {
		return nil, fmt.Errorf("%w: %s", domain.ErrClientInactive, client.Name())
	}
	return client, nil
}

func (d BookingDeps) buildLines(ctx context.Context, requests []ServiceRequest) ([]domain.ServiceLine, error) {
	if requests == nil {
		return nil, nil
	}
	if len(requests) == 0 {
		return nil, sharedDomain.NewFieldError("services", "at least one service is required")
	}
	lines := make([]domain.ServiceLine, 0, len(requests))
	for _, r := range requests {
		svc, err := d.Services.FindByID(ctx, r.ServiceID)
		if err != nil {
			return nil, err
		}
		line, err := domain.NewServiceLine(svc, r.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// admit runs the admission check for the booking's current placement.
func (d BookingDeps) admit(ctx context.Context, b *domain.Booking, exclude *uuid.UUID) error {
	clientID := b.ClientID()
	decision, err := d.Admission.CanBook(ctx, domain.AdmissionRequest{
		ProfessionalID:            b.ProfessionalID(),
		AdditionalProfessionalIDs: b.AdditionalProfessionalIDs(),
		Date:                      b.Date(),
		Start:                     b.Start(),
		Duration:                  b.Duration(),
		ExcludeBookingID:          exclude,
		ClientID:                  &clientID,
	})
	if err != nil {
		return err
	}
	return decision.Err()
}

// save writes the booking and its events. A uniqueness violation raised by
// a concurrent writer surfaces as the same rejection admission would give.
func (d BookingDeps) save(ctx context.Context, b *domain.Booking, actorID uuid.UUID) error {
	if err := d.Bookings.Save(ctx, b); err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			return domain.SlotUnavailable(b.ProfessionalID(), b.Interval(), b.Date()).Err()
		}
		return err
	}
	if err := sharedApplication.RecordEvents(ctx, d.Outbox, b.DomainEvents(), sharedApplication.NewEventMetadata(actorID)); err != nil {
		return err
	}
	b.ClearDomainEvents()
	return nil
}

func (d BookingDeps) invalidateHook(keys *[]domain.SnapshotKey) func(ctx context.Context) {
	if d.Invalidator == nil {
		return func(context.Context) {}
	}
	return d.Invalidator.AfterCommitHook(func() []domain.SnapshotKey { return *keys })
}
