package queries

import (
	"context"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/services"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// ServiceQuantity is quantity units of a service.
type ServiceQuantity struct {
	ServiceID uuid.UUID
	Quantity  int
}

// durationResolver turns a service list into minutes.
type durationResolver struct {
	services domain.ServiceRepository
}

// minutes returns duration when positive, otherwise the sum over items.
func (r durationResolver) minutes(ctx context.Context, duration int, items []ServiceQuantity) (int, error) {
	if duration > 0 {
		return duration, nil
	}
	if len(items) == 0 {
		return 0, sharedDomain.NewFieldError("duration", "a duration or at least one service is required")
	}
	total := 0
	for _, item := range items {
		svc, err := r.services.FindByID(ctx, item.ServiceID)
		if err != nil {
			return 0, err
		}
		line, err := domain.NewServiceLine(svc, item.Quantity)
		if err != nil {
			return 0, err
		}
		total += line.Minutes()
	}
	return total, nil
}

// AvailableStartsQuery asks where a booking of the given length could start.
type AvailableStartsQuery struct {
	ProfessionalID   uuid.UUID
	Date             domain.Date
	Duration         int
	Services         []ServiceQuantity
	ExcludeBookingID *uuid.UUID
}

// AvailableStartsResult lists the start times for a duration.
type AvailableStartsResult struct {
	Date     domain.Date        `json:"date"`
	Duration int                `json:"duration_minutes"`
	Starts   []domain.TimeOfDay `json:"starts"`
}

// AvailableStartsHandler handles the AvailableStartsQuery.
type AvailableStartsHandler struct {
	calculator *services.Calculator
	durations  durationResolver
}

// NewAvailableStartsHandler creates a new AvailableStartsHandler.
func NewAvailableStartsHandler(calculator *services.Calculator, serviceRepo domain.ServiceRepository) *AvailableStartsHandler {
	return &AvailableStartsHandler{calculator: calculator, durations: durationResolver{services: serviceRepo}}
}

// Handle executes the AvailableStartsQuery.
func (h *AvailableStartsHandler) Handle(ctx context.Context, query AvailableStartsQuery) (*AvailableStartsResult, error) {
	if query.Date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	duration, err := h.durations.minutes(ctx, query.Duration, query.Services)
	if err != nil {
		return nil, err
	}
	starts, err := h.calculator.AvailableStarts(ctx, query.ProfessionalID, query.Date, duration, query.ExcludeBookingID)
	if err != nil {
		return nil, err
	}
	return &AvailableStartsResult{Date: query.Date, Duration: duration, Starts: starts}, nil
}

// CanBookQuery asks whether a booking would be admitted right now.
type CanBookQuery struct {
	ProfessionalID            uuid.UUID
	AdditionalProfessionalIDs []uuid.UUID
	ClientID                  *uuid.UUID
	Date                      domain.Date
	Start                     domain.TimeOfDay
	Duration                  int
	Services                  []ServiceQuantity
	ExcludeBookingID          *uuid.UUID
}

// CanBookHandler runs admission without writing anything. The answer is
// advisory; the booking commands check again inside their transaction.
type CanBookHandler struct {
	admission *services.AdmissionChecker
	durations durationResolver
}

// NewCanBookHandler creates a new CanBookHandler.
func NewCanBookHandler(admission *services.AdmissionChecker, serviceRepo domain.ServiceRepository) *CanBookHandler {
	return &CanBookHandler{admission: admission, durations: durationResolver{services: serviceRepo}}
}

// Handle executes the CanBookQuery.
func (h *CanBookHandler) Handle(ctx context.Context, query CanBookQuery) (domain.AdmissionDecision, error) {
	if query.Date.IsZero() {
		return domain.AdmissionDecision{}, domain.ErrInvalidDate
	}
	duration, err := h.durations.minutes(ctx, query.Duration, query.Services)
	if err != nil {
		return domain.AdmissionDecision{}, err
	}
	return h.admission.CanBook(ctx, domain.AdmissionRequest{
		ProfessionalID:            query.ProfessionalID,
		AdditionalProfessionalIDs: query.AdditionalProfessionalIDs,
		Date:                      query.Date,
		Start:                     query.Start,
		Duration:                  duration,
		ExcludeBookingID:          query.ExcludeBookingID,
		ClientID:                  query.ClientID,
	})
}
