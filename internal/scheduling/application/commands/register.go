package commands

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// RegisterProfessionalHandler adds professionals to the roster.
type RegisterProfessionalHandler struct {
	repo   domain.ProfessionalRepository
	clock  sharedDomain.Clock
	logger *slog.Logger
}

// NewRegisterProfessionalHandler creates a new RegisterProfessionalHandler.
func NewRegisterProfessionalHandler(repo domain.ProfessionalRepository, clock sharedDomain.Clock, logger *slog.Logger) *RegisterProfessionalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterProfessionalHandler{repo: repo, clock: clock, logger: logger}
}

// Handle validates and stores a new professional.
func (h *RegisterProfessionalHandler) Handle(ctx context.Context, in domain.ProfessionalInput) (uuid.UUID, error) {
	p, err := domain.NewProfessional(in, h.clock.Now())
	if err != nil {
		return uuid.Nil, err
	}
	if err := h.repo.Save(ctx, p); err != nil {
		return uuid.Nil, err
	}
	h.logger.InfoContext(ctx, "professional registered",
		"professional_id", p.ID(),
		"specialty", p.Specialty(),
		"schedule_type", string(p.ScheduleType()),
	)
	return p.ID(), nil
}

// RegisterClientHandler adds clients.
type RegisterClientHandler struct {
	repo  domain.ClientRepository
	clock sharedDomain.Clock
}

// NewRegisterClientHandler creates a new RegisterClientHandler.
func NewRegisterClientHandler(repo domain.ClientRepository, clock sharedDomain.Clock) *RegisterClientHandler {
	return &RegisterClientHandler{repo: repo, clock: clock}
}

// Handle stores a new client.
func (h *RegisterClientHandler) Handle(ctx context.Context, name string) (uuid.UUID, error) {
	c, err := domain.NewClient(name, h.clock.Now())
	if err != nil {
		return uuid.Nil, err
	}
	if err := h.repo.Save(ctx, c); err != nil {
		return uuid.Nil, err
	}
	return c.ID(), nil
}

// RegisterServiceCommand describes a bookable service.
type RegisterServiceCommand struct {
	Name            string
	DurationMinutes int
	UnitPrice       int64
}

// RegisterServiceHandler adds services to the catalogue.
type RegisterServiceHandler struct {
	repo  domain.ServiceRepository
	clock sharedDomain.Clock
}

// NewRegisterServiceHandler creates a new RegisterServiceHandler.
func NewRegisterServiceHandler(repo domain.ServiceRepository, clock sharedDomain.Clock) *RegisterServiceHandler {
	return &RegisterServiceHandler{repo: repo, clock: clock}
}

// Handle stores a new service.
func (h *RegisterServiceHandler) Handle(ctx context.Context, cmd RegisterServiceCommand) (uuid.UUID, error) {
	s, err := domain.NewService(cmd.Name, cmd.DurationMinutes, cmd.UnitPrice, h.clock.Now())
	if err != nil {
		return uuid.Nil, err
	}
	if err := h.repo.Save(ctx, s); err != nil {
		return uuid.Nil, err
	}
	return s.ID(), nil
}
