// Package api provides the HTTP API for slot availability and bookings.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"golang.org/x/time/rate"
)

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *SchedulingHandler
	health  http.Handler
	metrics http.Handler
	limiter *rate.Limiter
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// RateLimit is the sustained request rate per second on /api routes;
	// zero disables limiting.
	RateLimit float64
	RateBurst int
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		RateLimit:    20,
		RateBurst:    40,
	}
}

// NewServer creates a new API server. health and metrics may be nil.
func NewServer(cfg ServerConfig, handler *SchedulingHandler, health, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		handler: handler,
		health:  health,
		metrics: metrics,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit)
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	// Register routes
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	h := s.handler
	api := func(pattern string, fn http.HandlerFunc) {
		s.mux.Handle(pattern, s.rateLimit(fn))
	}

	// Roster
	api("GET /api/v1/professionals", h.ListProfessionals)
	api("POST /api/v1/professionals", h.RegisterProfessional)
	api("POST /api/v1/clients", h.RegisterClient)
	api("POST /api/v1/services", h.RegisterService)

	// Availability
	api("GET /api/v1/professionals/{professionalID}/availability", h.GetAvailability)
	api("GET /api/v1/professionals/{professionalID}/availability/range", h.GetAvailabilityRange)
	api("GET /api/v1/professionals/{professionalID}/availability/next", h.GetNextAvailable)
	api("GET /api/v1/professionals/{professionalID}/availability/starts", h.GetAvailableStarts)
	api("GET /api/v1/availability", h.GetAvailabilityBySpecialty)
	api("POST /api/v1/availability/check", h.CheckBooking)
	api("POST /api/v1/availability/refresh", h.RefreshAvailability)

	// Bookings
	api("GET /api/v1/bookings", h.ListBookings)
	api("POST /api/v1/bookings", h.CreateBooking)
	api("GET /api/v1/bookings/{bookingID}", h.GetBooking)
	api("POST /api/v1/bookings/{bookingID}/reschedule", h.RescheduleBooking)
	api("POST /api/v1/bookings/{bookingID}/status", h.TransitionBooking)

	// Absences
	api("POST /api/v1/absences", h.RecordAbsence)
	api("GET /api/v1/absences/{absenceID}", h.GetAbsence)
	api("POST /api/v1/absences/{absenceID}/void", h.VoidAbsence)
	api("GET /api/v1/professionals/{professionalID}/absence", h.GetAbsenceForDate)
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		s.health.ServeHTTP(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := observability.NewRequestContext(r.Context(), r.Header.Get("X-Correlation-ID"))
		w.Header().Set("X-Request-ID", observability.RequestIDFromContext(ctx))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.logger.InfoContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting slotwise API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down slotwise API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but can't do much at this point
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Reason  domain.AdmissionReason `json:"reason,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// StatusFor maps an error kind onto its HTTP status.
func StatusFor(err error) int {
	switch sharedDomain.KindOf(err) {
	case sharedDomain.KindNotFound:
		return http.StatusNotFound
	case sharedDomain.KindValidation:
		return http.StatusBadRequest
	case sharedDomain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with the status of its kind. Internal errors
// are logged and answered with a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	body := errorBody{
		Error:   http.StatusText(status),
		Message: sharedDomain.PublicMessage(err),
	}
	var fieldErr *sharedDomain.FieldError
	if errors.As(err, &fieldErr) {
		body.Field = fieldErr.Field
	}
	var admissionErr *domain.AdmissionError
	if errors.As(err, &admissionErr) {
		body.Reason = admissionErr.Reason
	}
	writeJSON(w, status, body)
}
