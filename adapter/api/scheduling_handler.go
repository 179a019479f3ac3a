package api

import (
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/slotwise/internal/app"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// SchedulingHandler handles availability, booking and absence API requests.
type SchedulingHandler struct {
	cfg    SchedulingHandlerConfig
	logger *slog.Logger
}

// SchedulingHandlerConfig holds dependencies for the scheduling handler.
type SchedulingHandlerConfig struct {
	CreateBooking        *commands.CreateBookingHandler
	RescheduleBooking    *commands.RescheduleBookingHandler
	TransitionBooking    *commands.TransitionBookingHandler
	RecordAbsence        *commands.RecordAbsenceHandler
	VoidAbsence          *commands.VoidAbsenceHandler
	RefreshAvailability  *commands.RefreshAvailabilityHandler
	RegisterProfessional *commands.RegisterProfessionalHandler
	RegisterClient       *commands.RegisterClientHandler
	RegisterService      *commands.RegisterServiceHandler

	GetAvailability         *queries.GetAvailabilityHandler
	AvailabilityRange       *queries.AvailabilityRangeHandler
	NextAvailable           *queries.NextAvailableHandler
	AvailabilityBySpecialty *queries.AvailabilityBySpecialtyHandler
	AvailableStarts         *queries.AvailableStartsHandler
	CanBook                 *queries.CanBookHandler
	GetBooking              *queries.GetBookingHandler
	ListBookings            *queries.ListBookingsHandler
	GetAbsence              *queries.GetAbsenceHandler
	ListProfessionals       *queries.ListProfessionalsHandler

	// Today supplies the default date for requests that omit one.
	Today  func() domain.Date
	Logger *slog.Logger
}

// NewSchedulingHandler creates a new scheduling handler.
func NewSchedulingHandler(cfg SchedulingHandlerConfig) *SchedulingHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Today == nil {
		cfg.Today = func() domain.Date { return domain.DateOf(sharedDomain.SystemClock{}.Now()) }
	}
	return &SchedulingHandler{cfg: cfg, logger: cfg.Logger}
}

func (h *SchedulingHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeDomainError(w, r, h.logger, err)
}

type createdResponse struct {
	ID uuid.UUID `json:"id"`
}

// ListProfessionals handles GET /api/v1/professionals
func (h *SchedulingHandler) ListProfessionals(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") == ""
	list, err := h.cfg.ListProfessionals.Handle(r.Context(), r.URL.Query().Get("specialty"), activeOnly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"professionals": list,
		"total":         len(list),
	})
}

// RegisterProfessional handles POST /api/v1/professionals
func (h *SchedulingHandler) RegisterProfessional(w http.ResponseWriter, r *http.Request) {
	var req professionalRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.cfg.RegisterProfessional.Handle(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// RegisterClient handles POST /api/v1/clients
func (h *SchedulingHandler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.cfg.RegisterClient.Handle(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// RegisterService handles POST /api/v1/services
func (h *SchedulingHandler) RegisterService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.cfg.RegisterService.Handle(r.Context(), commands.RegisterServiceCommand{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		UnitPrice:       req.UnitPrice,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// GetAvailability handles GET /api/v1/professionals/{professionalID}/availability
func (h *SchedulingHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	professionalID, err := pathUUID(r, "professionalID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := queryDate(r, "date", h.cfg.Today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	availability, err := h.cfg.GetAvailability.Handle(r.Context(), queries.GetAvailabilityQuery{
		ProfessionalID: professionalID,
		Date:           date,
		Fresh:          queryBool(r, "fresh"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

// GetAvailabilityRange handles GET /api/v1/professionals/{professionalID}/availability/range
func (h *SchedulingHandler) GetAvailabilityRange(w http.ResponseWriter, r *http.Request) {
	professionalID, err := pathUUID(r, "professionalID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	from, err := queryDate(r, "from", h.cfg.Today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := queryDate(r, "to", from.AddDays(6))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	days, err := h.cfg.AvailabilityRange.Handle(r.Context(), queries.AvailabilityRangeQuery{
		ProfessionalID: professionalID,
		From:           from,
		To:             to,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from": from,
		"to":   to,
		"days": days,
	})
}

// GetNextAvailable handles GET /api/v1/professionals/{professionalID}/availability/next
func (h *SchedulingHandler) GetNextAvailable(w http.ResponseWriter, r *http.Request) {
	professionalID, err := pathUUID(r, "professionalID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	from, err := queryDate(r, "from", h.cfg.Today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	count, err := queryInt(r, "count", 1)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	days, err := h.cfg.NextAvailable.Handle(r.Context(), queries.NextAvailableQuery{
		ProfessionalID: professionalID,
		From:           from,
		Count:          count,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// GetAvailableStarts handles GET /api/v1/professionals/{professionalID}/availability/starts
func (h *SchedulingHandler) GetAvailableStarts(w http.ResponseWriter, r *http.Request) {
	professionalID, err := pathUUID(r, "professionalID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := queryDate(r, "date", h.cfg.Today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	duration, err := queryInt(r, "duration", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	exclude, err := queryUUID(r, "exclude_booking_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var items []queries.ServiceQuantity
	if serviceID, err := queryUUID(r, "service_id"); err != nil {
		h.fail(w, r, err)
		return
	} else if serviceID != nil {
		items = []queries.ServiceQuantity{{ServiceID: *serviceID, Quantity: 1}}
	}

	result, err := h.cfg.AvailableStarts.Handle(r.Context(), queries.AvailableStartsQuery{
		ProfessionalID:   professionalID,
		Date:             date,
		Duration:         duration,
		Services:         items,
		ExcludeBookingID: exclude,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetAvailabilityBySpecialty handles GET /api/v1/availability
func (h *SchedulingHandler) GetAvailabilityBySpecialty(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date", h.cfg.Today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.cfg.AvailabilityBySpecialty.Handle(r.Context(), queries.AvailabilityBySpecialtyQuery{
		Specialty:     r.URL.Query().Get("specialty"),
		Date:          date,
		OnlyAvailable: queryBool(r, "only_available"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":          date,
		"professionals": list,
		"total":         len(list),
	})
}

// CheckBooking handles POST /api/v1/availability/check
func (h *SchedulingHandler) CheckBooking(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	decision, err := h.cfg.CanBook.Handle(r.Context(), queries.CanBookQuery{
		ProfessionalID:            req.ProfessionalID,
		AdditionalProfessionalIDs: req.AdditionalProfessionalIDs,
		ClientID:                  req.ClientID,
		Date:                      req.Date,
		Start:                     req.Start,
		Duration:                  req.DurationMinutes,
		Services:                  toServiceQuantities(req.Services),
		ExcludeBookingID:          req.ExcludeBookingID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// RefreshAvailability handles POST /api/v1/availability/refresh
func (h *SchedulingHandler) RefreshAvailability(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Date.IsZero() {
		req.Date = h.cfg.Today()
	}
	result, err := h.cfg.RefreshAvailability.Handle(r.Context(), commands.RefreshAvailabilityCommand{
		Date:      req.Date,
		Specialty: req.Specialty,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListBookings handles GET /api/v1/bookings
func (h *SchedulingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	var filter domain.BookingFilter
	var err error
	if filter.ProfessionalID, err = queryUUID(r, "professional_id"); err != nil {
		h.fail(w, r, err)
		return
	}
	if filter.ClientID, err = queryUUID(r, "client_id"); err != nil {
		h.fail(w, r, err)
		return
	}
	if r.URL.Query().Get("date") != "" {
		date, err := queryDate(r, "date", domain.Date{})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		filter.Date = &date
	}
	filter.Status = domain.BookingStatus(r.URL.Query().Get("status"))

	list, err := h.cfg.ListBookings.Handle(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings": list,
		"total":    len(list),
	})
}

// CreateBooking handles POST /api/v1/bookings
func (h *SchedulingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.cfg.CreateBooking.Handle(r.Context(), commands.CreateBookingCommand{
		ActorID:                   actorID(r),
		ClientID:                  req.ClientID,
		ProfessionalID:            req.ProfessionalID,
		AdditionalProfessionalIDs: req.AdditionalProfessionalIDs,
		Services:                  toServiceRequests(req.Services),
		Date:                      req.Date,
		Start:                     req.Start,
		Notes:                     req.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeBooking(w, r, http.StatusCreated, result.BookingID)
}

// GetBooking handles GET /api/v1/bookings/{bookingID}
func (h *SchedulingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "bookingID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeBooking(w, r, http.StatusOK, id)
}

// RescheduleBooking handles POST /api/v1/bookings/{bookingID}/reschedule
func (h *SchedulingHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "bookingID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req rescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.cfg.RescheduleBooking.Handle(r.Context(), commands.RescheduleBookingCommand{
		ActorID:   actorID(r),
		BookingID: id,
		Date:      req.Date,
		Start:     req.Start,
		Services:  toServiceRequests(req.Services),
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeBooking(w, r, http.StatusOK, id)
}

// TransitionBooking handles POST /api/v1/bookings/{bookingID}/status
func (h *SchedulingHandler) TransitionBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "bookingID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	status := domain.BookingStatus(req.Status)
	if !status.Valid() {
		h.fail(w, r, sharedDomain.NewFieldError("status", "unknown booking status"))
		return
	}
	if _, err := h.cfg.TransitionBooking.Handle(r.Context(), commands.TransitionBookingCommand{
		ActorID:   actorID(r),
		BookingID: id,
		Status:    status,
		Reason:    req.Reason,
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeBooking(w, r, http.StatusOK, id)
}

func (h *SchedulingHandler) writeBooking(w http.ResponseWriter, r *http.Request, status int, id uuid.UUID) {
	booking, err := h.cfg.GetBooking.Handle(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, booking)
}

type recordAbsenceResponse struct {
	Absence           *queries.AbsenceDTO `json:"absence"`
	CancelledBookings []uuid.UUID         `json:"cancelled_bookings"`
}

// RecordAbsence handles POST /api/v1/absences
func (h *SchedulingHandler) RecordAbsence(w http.ResponseWriter, r *http.Request) {
	var req absenceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.cfg.RecordAbsence.Handle(r.Context(), commands.RecordAbsenceCommand{
		ActorID:        actorID(r),
		AbsenceInput:   in,
		CancelBookings: req.CancelBookings,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	absence, err := h.cfg.GetAbsence.Handle(r.Context(), queries.GetAbsenceQuery{ID: &result.AbsenceID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cancelled := result.CancelledBookings
	if cancelled == nil {
		cancelled = []uuid.UUID{}
	}
	writeJSON(w, http.StatusCreated, recordAbsenceResponse{Absence: absence, CancelledBookings: cancelled})
}

// GetAbsence handles GET /api/v1/absences/{absenceID}
func (h *SchedulingHandler) GetAbsence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "absenceID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	absence, err := h.cfg.GetAbsence.Handle(r.Context(), queries.GetAbsenceQuery{ID: &id})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, absence)
}

// GetAbsenceForDate handles GET /api/v1/professionals/{professionalID}/absence
func (h *SchedulingHandler) GetAbsenceForDate(w http.ResponseWriter, r *http.Request) {
	professionalID, err := pathUUID(r, "professionalID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := queryDate(r, "date", h.cfg.Today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	absence, err := h.cfg.GetAbsence.Handle(r.Context(), queries.GetAbsenceQuery{
		ProfessionalID: professionalID,
		Date:           date,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, absence)
}

// VoidAbsence handles POST /api/v1/absences/{absenceID}/void
func (h *SchedulingHandler) VoidAbsence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "absenceID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.cfg.VoidAbsence.Handle(r.Context(), commands.VoidAbsenceCommand{
		ActorID:   actorID(r),
		AbsenceID: id,
	}); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlerConfigFromContainer collects the container's handlers.
func HandlerConfigFromContainer(c *app.Container) SchedulingHandlerConfig {
	return SchedulingHandlerConfig{
		CreateBooking:           c.CreateBookingHandler,
		RescheduleBooking:       c.RescheduleBookingHandler,
		TransitionBooking:       c.TransitionBookingHandler,
		RecordAbsence:           c.RecordAbsenceHandler,
		VoidAbsence:             c.VoidAbsenceHandler,
		RefreshAvailability:     c.RefreshAvailabilityHandler,
		RegisterProfessional:    c.RegisterProfessionalHandler,
		RegisterClient:          c.RegisterClientHandler,
		RegisterService:         c.RegisterServiceHandler,
		GetAvailability:         c.GetAvailabilityHandler,
		AvailabilityRange:       c.AvailabilityRangeHandler,
		NextAvailable:           c.NextAvailableHandler,
		AvailabilityBySpecialty: c.AvailabilityBySpecialtyHandler,
		AvailableStarts:         c.AvailableStartsHandler,
		CanBook:                 c.CanBookHandler,
		GetBooking:              c.GetBookingHandler,
		ListBookings:            c.ListBookingsHandler,
		GetAbsence:              c.GetAbsenceHandler,
		ListProfessionals:       c.ListProfessionalsHandler,
		Today:                   c.Today,
		Logger:                  c.Logger,
	}
}
