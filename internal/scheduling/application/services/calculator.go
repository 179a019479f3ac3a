package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// CalculatorConfig is the immutable configuration of availability computation.
type CalculatorConfig struct {
	Catalog     domain.WindowCatalog
	Granularity int
}

// DefaultCalculatorConfig returns the default catalogue at 30 minute slots.
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		Catalog:     domain.DefaultWindowCatalog(),
		Granularity: domain.DefaultGranularity,
	}
}

// Validate checks the granularity.
func (c CalculatorConfig) Validate() error {
	return domain.ValidateGranularity(c.Granularity)
}

// Calculator computes the slot list of a professional for a date.
type Calculator struct {
	professionals domain.ProfessionalRepository
	absences      *AbsenceResolver
	bookings      *BookingResolver
	config        CalculatorConfig
	logger        *slog.Logger
	metrics       observability.Metrics
}

// NewCalculator creates a new Calculator.
func NewCalculator(
	professionals domain.ProfessionalRepository,
	absences *AbsenceResolver,
	bookings *BookingResolver,
	config CalculatorConfig,
	logger *slog.Logger,
	metrics observability.Metrics,
) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Calculator{
		professionals: professionals,
		absences:      absences,
		bookings:      bookings,
		config:        config,
		logger:        logger,
		metrics:       metrics,
	}, nil
}

// Config returns the calculator configuration.
func (c *Calculator) Config() CalculatorConfig {
	return c.config
}

// professionalDay is everything known about one professional on one date.
type professionalDay struct {
	professional *domain.Professional
	window       domain.WorkWindow
	absences     []domain.BlockedInterval
	bookings     []domain.BlockedInterval
}

func (c *Calculator) loadDay(ctx context.Context, professionalID uuid.UUID, date domain.Date, exclude *uuid.UUID) (*professionalDay, error) {
	p, err := c.professionals.FindByID(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	day := &professionalDay{
		professional: p,
		window:       c.config.Catalog.WindowFor(p),
	}
	if day.absences, err = c.absences.Resolve(ctx, professionalID, date, day.window); err != nil {
		return nil, err
	}
	if day.bookings, err = c.bookings.Resolve(ctx, professionalID, date, exclude); err != nil {
		return nil, err
	}
	return day, nil
}

// Compute returns the availability of professionalID on date. Unknown
// professionals yield ErrProfessionalNotFound; every other failure is
// logged and reported as ErrAvailabilityUnavailable.
func (c *Calculator) Compute(ctx context.Context, professionalID uuid.UUID, date domain.Date) (_ *domain.Availability, err error) {
	ctx, span := observability.StartSpan(ctx, "availability.compute",
		attribute.String("professional_id", professionalID.String()),
		attribute.String("date", date.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	availability, err := c.compute(ctx, professionalID, date)

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrProfessionalNotFound):
		outcome = "not_found"
		err = fmt.Errorf("%w: %s", domain.ErrProfessionalNotFound, professionalID)
	default:
		outcome = "error"
		c.logger.ErrorContext(ctx, "availability computation failed",
			"professional_id", professionalID,
			"date", date.String(),
			"error", err,
		)
		err = domain.ErrAvailabilityUnavailable
	}

	c.metrics.Counter(observability.MetricAvailabilityComputations, 1, observability.T("outcome", outcome))
	c.metrics.Timing(observability.MetricAvailabilityDuration, time.Since(start))
	if err != nil {
		return nil, err
	}
	return availability, nil
}

func (c *Calculator) compute(ctx context.Context, professionalID uuid.UUID, date domain.Date) (*domain.Availability, error) {
	day, err := c.loadDay(ctx, professionalID, date, nil)
	if err != nil {
		return nil, err
	}

	gen := domain.SlotGenerator{Window: day.window.Interval, Step: c.config.Granularity}
	var slots []domain.Slot
	if day.professional.WorksOn(date) {
		slots = domain.MarkSlots(gen.Grid(), day.absences, day.bookings)
	} else {
		slots = domain.BlockAll(gen.Grid(), domain.DayOffReason(date), domain.BlockDayOff)
	}

	return &domain.Availability{
		Professional: day.professional.Summary(),
		Date:         date,
		WorkWindow:   day.window,
		Slots:        slots,
		Summary:      domain.Summarize(slots),
	}, nil
}

// AvailableStarts lists the start times at which a booking of duration
// minutes would pass the professional checks of admission.
func (c *Calculator) AvailableStarts(ctx context.Context, professionalID uuid.UUID, date domain.Date, duration int, exclude *uuid.UUID) ([]domain.TimeOfDay, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", domain.ErrInvalidInterval)
	}
	day, err := c.loadDay(ctx, professionalID, date, exclude)
	if errors.Is(err, domain.ErrProfessionalNotFound) {
		return nil, err
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "start time listing failed", "professional_id", professionalID, "error", err)
		return nil, domain.ErrAvailabilityUnavailable
	}
	if !day.professional.IsActive() || !day.professional.WorksOn(date) {
		return []domain.TimeOfDay{}, nil
	}

	gen := domain.SlotGenerator{Window: day.window.Interval, Step: c.config.Granularity}
	starts := []domain.TimeOfDay{}
	for candidate := range gen.Fits(duration) {
		if _, blocked := domain.FirstConflict(candidate, day.absences, day.bookings); !blocked {
			starts = append(starts, candidate.Start)
		}
	}
	return starts, nil
}
