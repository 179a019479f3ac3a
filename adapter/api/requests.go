package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type serviceItem struct {
	ServiceID uuid.UUID `json:"service_id"`
	Quantity  int       `json:"quantity"`
}

func toServiceRequests(items []serviceItem) []commands.ServiceRequest {
	if items == nil {
		return nil
	}
	out := make([]commands.ServiceRequest, len(items))
	for i, it := range items {
		out[i] = commands.ServiceRequest{ServiceID: it.ServiceID, Quantity: quantityOrOne(it.Quantity)}
	}
	return out
}

func toServiceQuantities(items []serviceItem) []queries.ServiceQuantity {
	out := make([]queries.ServiceQuantity, len(items))
	for i, it := range items {
		out[i] = queries.ServiceQuantity{ServiceID: it.ServiceID, Quantity: quantityOrOne(it.Quantity)}
	}
	return out
}

func quantityOrOne(q int) int {
	if q == 0 {
		return 1
	}
	return q
}

type professionalRequest struct {
	Name         string            `json:"name"`
	Specialty    string            `json:"specialty"`
	ScheduleType string            `json:"schedule_type"`
	CustomStart  *domain.TimeOfDay `json:"custom_start"`
	CustomEnd    *domain.TimeOfDay `json:"custom_end"`
	WorkDays     string            `json:"work_days"`
	HireDate     domain.Date       `json:"hire_date"`
}

func (r professionalRequest) input() (domain.ProfessionalInput, error) {
	scheduleType, err := domain.ParseScheduleType(r.ScheduleType)
	if err != nil {
		return domain.ProfessionalInput{}, err
	}
	workDays, err := domain.ParseWeekdays(r.WorkDays)
	if err != nil {
		return domain.ProfessionalInput{}, err
	}
	in := domain.ProfessionalInput{
		Name:         r.Name,
		Specialty:    r.Specialty,
		ScheduleType: scheduleType,
		WorkDays:     workDays,
		HireDate:     r.HireDate,
	}
	if r.CustomStart != nil || r.CustomEnd != nil {
		if r.CustomStart == nil || r.CustomEnd == nil {
			return domain.ProfessionalInput{}, sharedDomain.NewFieldError("custom_window", "start and end are both required")
		}
		in.CustomWindow = &domain.Interval{Start: *r.CustomStart, End: *r.CustomEnd}
	}
	return in, nil
}

type clientRequest struct {
	Name string `json:"name"`
}

type serviceRequest struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	UnitPrice       int64  `json:"unit_price"`
}

type createBookingRequest struct {
	ClientID                  uuid.UUID        `json:"client_id"`
	ProfessionalID            uuid.UUID        `json:"professional_id"`
	AdditionalProfessionalIDs []uuid.UUID      `json:"additional_professional_ids"`
	Services                  []serviceItem    `json:"services"`
	Date                      domain.Date      `json:"date"`
	Start                     domain.TimeOfDay `json:"start"`
	Notes                     string           `json:"notes"`
}

type rescheduleRequest struct {
	Date     domain.Date      `json:"date"`
	Start    domain.TimeOfDay `json:"start"`
	Services []serviceItem    `json:"services"`
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type checkRequest struct {
	ProfessionalID            uuid.UUID        `json:"professional_id"`
	AdditionalProfessionalIDs []uuid.UUID      `json:"additional_professional_ids"`
	ClientID                  *uuid.UUID       `json:"client_id"`
	Date                      domain.Date      `json:"date"`
	Start                     domain.TimeOfDay `json:"start"`
	DurationMinutes           int              `json:"duration_minutes"`
	Services                  []serviceItem    `json:"services"`
	ExcludeBookingID          *uuid.UUID       `json:"exclude_booking_id"`
}

type refreshRequest struct {
	Date      domain.Date `json:"date"`
	Specialty string      `json:"specialty"`
}

type absenceRequest struct {
	ProfessionalID  uuid.UUID         `json:"professional_id"`
	Date            domain.Date       `json:"date"`
	Kind            string            `json:"kind"`
	AbsentKind      string            `json:"absent_kind"`
	PartialStart    *domain.TimeOfDay `json:"partial_start"`
	PartialEnd      *domain.TimeOfDay `json:"partial_end"`
	Arrival         *domain.TimeOfDay `json:"arrival"`
	VacationDays    int               `json:"vacation_days"`
	MedicalDocument string            `json:"medical_document"`
	Shift           string            `json:"shift"`
	Notes           string            `json:"notes"`
	CancelBookings  bool              `json:"cancel_bookings"`
}

func (r absenceRequest) input() (domain.AbsenceInput, error) {
	in := domain.AbsenceInput{
		ProfessionalID:  r.ProfessionalID,
		Date:            r.Date,
		Kind:            domain.AbsenceKind(r.Kind),
		AbsentKind:      domain.AbsentKind(r.AbsentKind),
		Arrival:         r.Arrival,
		VacationDays:    r.VacationDays,
		MedicalDocument: r.MedicalDocument,
		Shift:           domain.Shift(r.Shift),
		Notes:           r.Notes,
	}
	if r.PartialStart != nil || r.PartialEnd != nil {
		if r.PartialStart == nil || r.PartialEnd == nil {
			return domain.AbsenceInput{}, sharedDomain.NewFieldError("partial", "start and end are required for partial absences")
		}
		in.Partial = &domain.Interval{Start: *r.PartialStart, End: *r.PartialEnd}
	}
	return in, nil
}

// decodeJSON reads a JSON body into v. Malformed bodies are validation errors.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var validation *sharedDomain.FieldError
		if errors.As(err, &validation) || errors.Is(err, sharedDomain.ErrValidation) {
			return err
		}
		return sharedDomain.NewFieldError("body", err.Error())
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, sharedDomain.NewFieldError(name, "must be a UUID")
	}
	return id, nil
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, sharedDomain.NewFieldError(name, "must be a UUID")
	}
	return &id, nil
}

// queryDate parses a YYYY-MM-DD parameter, falling back to def when absent.
func queryDate(r *http.Request, name string, def domain.Date) (domain.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, sharedDomain.NewFieldError(name, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, sharedDomain.NewFieldError(name, "must be an integer")
	}
	return n, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// actorID reads the optional X-Actor-ID header.
func actorID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(r.Header.Get("X-Actor-ID"))
	if err != nil {
		return uuid.Nil
	}
	return id
}
