// Package observability holds the structured logger, metrics, health checks
// and tracing helpers shared by the slotwise binaries.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	// Level is one of debug, info, warn or error. Anything else means info.
	Level string
	// Format is "json" or "text".
	Format string
	// Output defaults to os.Stderr.
	Output    io.Writer
	AddSource bool
	Service   string
	Version   string
}

// NewLogger builds a slog logger that stamps every record with the service
// name, version and the correlation and request ids found in its context.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level), AddSource: cfg.AddSource}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	var attrs []slog.Attr
	if cfg.Service != "" {
		attrs = append(attrs, slog.String("service", cfg.Service))
	}
	if cfg.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Version))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}
	return slog.New(contextHandler{Handler: handler})
}

// LoggerFromSettings builds the logger from APP_ENV, LOG_LEVEL, LOG_FORMAT
// and the build version. Production logs JSON with source to stdout unless
// the format is set explicitly.
func LoggerFromSettings(env, level, format, version string) *slog.Logger {
	cfg := LogConfig{Level: level, Format: format, Service: "slotwise", Version: version}
	if env == "production" {
		cfg.Output = os.Stdout
		cfg.AddSource = true
		if cfg.Format == "" {
			cfg.Format = "json"
		}
	}
	return NewLogger(cfg)
}

// ParseLevel maps a LOG_LEVEL value onto a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler adds request scoped ids to each record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}
