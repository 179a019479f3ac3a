package cli

import (
	internalApp "github.com/felixgeelhaar/slotwise/internal/app"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/slotwise/pkg/config"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/google/uuid"
)

// App holds the CLI application dependencies.
type App struct {
	Config *config.Config

	// Booking Command Handlers
	CreateBookingHandler     *commands.CreateBookingHandler
	RescheduleBookingHandler *commands.RescheduleBookingHandler
	TransitionBookingHandler *commands.TransitionBookingHandler

	// Absence Command Handlers
	RecordAbsenceHandler *commands.RecordAbsenceHandler
	VoidAbsenceHandler   *commands.VoidAbsenceHandler

	// Availability Command Handlers
	RefreshAvailabilityHandler *commands.RefreshAvailabilityHandler

	// Roster Command Handlers
	RegisterProfessionalHandler *commands.RegisterProfessionalHandler
	RegisterClientHandler       *commands.RegisterClientHandler
	RegisterServiceHandler      *commands.RegisterServiceHandler

	// Availability Query Handlers
	GetAvailabilityHandler         *queries.GetAvailabilityHandler
	AvailabilityRangeHandler       *queries.AvailabilityRangeHandler
	NextAvailableHandler           *queries.NextAvailableHandler
	AvailabilityBySpecialtyHandler *queries.AvailabilityBySpecialtyHandler
	AvailableStartsHandler         *queries.AvailableStartsHandler
	CanBookHandler                 *queries.CanBookHandler

	// Booking and Absence Query Handlers
	GetBookingHandler        *queries.GetBookingHandler
	ListBookingsHandler      *queries.ListBookingsHandler
	GetAbsenceHandler        *queries.GetAbsenceHandler
	ListProfessionalsHandler *queries.ListProfessionalsHandler

	// Infrastructure
	Container *internalApp.Container
	DBConn    database.Connection
	Health    *observability.HealthRegistry

	// ActorID is recorded on events raised by this CLI session.
	ActorID uuid.UUID
	today   func() domain.Date
}

// NewApp creates a new CLI application from a wired container.
func NewApp(c *internalApp.Container) *App {
	return &App{
		Config:                         c.Config,
		CreateBookingHandler:           c.CreateBookingHandler,
		RescheduleBookingHandler:       c.RescheduleBookingHandler,
		TransitionBookingHandler:       c.TransitionBookingHandler,
		RecordAbsenceHandler:           c.RecordAbsenceHandler,
		VoidAbsenceHandler:             c.VoidAbsenceHandler,
		RefreshAvailabilityHandler:     c.RefreshAvailabilityHandler,
		RegisterProfessionalHandler:    c.RegisterProfessionalHandler,
		RegisterClientHandler:          c.RegisterClientHandler,
		RegisterServiceHandler:         c.RegisterServiceHandler,
		GetAvailabilityHandler:         c.GetAvailabilityHandler,
		AvailabilityRangeHandler:       c.AvailabilityRangeHandler,
		NextAvailableHandler:           c.NextAvailableHandler,
		AvailabilityBySpecialtyHandler: c.AvailabilityBySpecialtyHandler,
		AvailableStartsHandler:         c.AvailableStartsHandler,
		CanBookHandler:                 c.CanBookHandler,
		GetBookingHandler:              c.GetBookingHandler,
		ListBookingsHandler:            c.ListBookingsHandler,
		GetAbsenceHandler:              c.GetAbsenceHandler,
		ListProfessionalsHandler:       c.ListProfessionalsHandler,
		Container:                      c,
		DBConn:                         c.DBConn,
		Health:                         c.Health,
		today:                          c.Today,
	}
}

// SetActorID updates the actor recorded on events.
func (a *App) SetActorID(id uuid.UUID) {
	a.ActorID = id
}

// Today returns the current date in the configured timezone.
func (a *App) Today() domain.Date {
	if a.today == nil {
		return domain.Date{}
	}
	return a.today()
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
