package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// AdmissionConfig holds the admission rules that vary per deployment.
type AdmissionConfig struct {
	Catalog          domain.WindowCatalog
	ClientDailyLimit int
}

// AdmissionChecker decides whether a booking may occupy an interval. It
// always reads live data and never the availability cache; callers run it
// inside the transaction that writes the booking.
type AdmissionChecker struct {
	professionals domain.ProfessionalRepository
	bookings      domain.BookingRepository
	absences      *AbsenceResolver
	occupied      *BookingResolver
	config        AdmissionConfig
	logger        *slog.Logger
	metrics       observability.Metrics
}

// NewAdmissionChecker creates a new AdmissionChecker.
func NewAdmissionChecker(
	professionals domain.ProfessionalRepository,
	bookings domain.BookingRepository,
	absences *AbsenceResolver,
	config AdmissionConfig,
	logger *slog.Logger,
	metrics observability.Metrics,
) *AdmissionChecker {
	if config.ClientDailyLimit <= 0 {
		config.ClientDailyLimit = domain.DefaultClientDailyLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &AdmissionChecker{
		professionals: professionals,
		bookings:      bookings,
		absences:      absences,
		occupied:      NewBookingResolver(bookings),
		config:        config,
		logger:        logger,
		metrics:       metrics,
	}
}

// CanBook runs the admission rules in order and stops at the first failure:
// professional exists and is active, the full interval fits the working
// window, no absence overlap, no booking overlap. Every professional of the
// request goes through these steps before the client overlap and daily cap
// are checked. Storage failures are returned as errors, not decisions.
func (a *AdmissionChecker) CanBook(ctx context.Context, req domain.AdmissionRequest) (_ domain.AdmissionDecision, err error) {
	ctx, span := observability.StartSpan(ctx, "admission.can_book",
		attribute.String("professional_id", req.ProfessionalID.String()),
		attribute.String("date", req.Date.String()),
		attribute.String("start", req.Start.String()),
		attribute.Int("duration", req.Duration),
	)
	defer func() { observability.EndSpan(span, err) }()

	decision, err := a.evaluate(ctx, req)
	if err != nil {
		a.logger.ErrorContext(ctx, "admission check failed",
			"professional_id", req.ProfessionalID,
			"date", req.Date.String(),
			"error", err,
		)
		return domain.AdmissionDecision{}, err
	}

	span.SetAttributes(attribute.String("reason", string(decision.Reason)))
	a.metrics.Counter(observability.MetricAdmissionDecisions, 1, observability.T("reason", string(decision.Reason)))
	return decision, nil
}

func (a *AdmissionChecker) evaluate(ctx context.Context, req domain.AdmissionRequest) (domain.AdmissionDecision, error) {
	requested, err := req.Interval()
	if err != nil {
		return domain.AdmissionDecision{}, err
	}

	for _, id := range req.ProfessionalIDs() {
		decision, err := a.checkProfessional(ctx, id, req.Date, requested, req.ExcludeBookingID)
		if err != nil || !decision.Allowed {
			return decision, err
		}
	}

	if req.ClientID == nil {
		return domain.Admit(), nil
	}
	others, err := a.bookings.FindActiveForClient(ctx, *req.ClientID, req.Date, req.ExcludeBookingID)
	if err != nil {
		return domain.AdmissionDecision{}, fmt.Errorf("failed to load client bookings: %w", err)
	}
	return domain.CheckClientDay(requested, req.Date, others, a.config.ClientDailyLimit), nil
}

func (a *AdmissionChecker) checkProfessional(ctx context.Context, id uuid.UUID, date domain.Date, requested domain.Interval, exclude *uuid.UUID) (domain.AdmissionDecision, error) {
	p, err := a.professionals.FindByID(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrProfessionalNotFound) {
		return domain.AdmissionDecision{}, fmt.Errorf("failed to load professional: %w", err)
	}
	if d := domain.CheckProfessional(p, id); !d.Allowed {
		return d, nil
	}

	window := a.config.Catalog.WindowFor(p)
	if d := domain.CheckWindow(p, date, window, requested); !d.Allowed {
		return d, nil
	}

	absences, err := a.absences.Resolve(ctx, id, date, window)
	if err != nil {
		return domain.AdmissionDecision{}, err
	}
	if d := domain.CheckAbsences(p, requested, absences); !d.Allowed {
		return d, nil
	}

	occupied, err := a.occupied.Resolve(ctx, id, date, exclude)
	if err != nil {
		return domain.AdmissionDecision{}, err
	}
	return domain.CheckBookings(p, requested, occupied), nil
}
