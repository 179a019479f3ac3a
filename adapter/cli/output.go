package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/slotwise/internal/shared/domain"
	"github.com/google/uuid"
)

// ErrNotInitialized is returned when a command runs without a wired app.
var ErrNotInitialized = errors.New("app not initialized: check DATABASE_DRIVER and DATABASE_URL")

// Require returns the global app or ErrNotInitialized.
func Require() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// JSONOutput reports whether --json was given.
func JSONOutput() bool {
	return jsonOutput
}

// SetJSONOutput overrides --json.
func SetJSONOutput(v bool) {
	jsonOutput = v
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Describe renders err for the terminal; internal failures are hidden
// behind a generic message.
func Describe(err error) error {
	var admissionErr *domain.AdmissionError
	if errors.As(err, &admissionErr) {
		return fmt.Errorf("%s (%s)", admissionErr.Message, admissionErr.Reason)
	}
	if sharedDomain.KindOf(err) == sharedDomain.KindInternal {
		Logger().Error("command failed", "error", err)
	}
	return errors.New(sharedDomain.PublicMessage(err))
}

// ParseDate parses a YYYY-MM-DD flag, defaulting to today when empty.
func ParseDate(a *App, raw string) (domain.Date, error) {
	if raw == "" {
		return a.Today(), nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	return d, nil
}

// ParseTime parses an HH:MM flag.
func ParseTime(raw string) (domain.TimeOfDay, error) {
	t, err := domain.ParseTimeOfDay(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid time format, use HH:MM: %w", err)
	}
	return t, nil
}

// ParseID parses a UUID argument.
func ParseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID %q", kind, raw)
	}
	return id, nil
}

// ParseIDs parses a list of UUID flags.
func ParseIDs(kind string, raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := ParseID(kind, r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatPrice renders cents as a decimal amount.
func FormatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// ServiceArg is one --service flag: an ID with an optional quantity.
type ServiceArg struct {
	ServiceID uuid.UUID
	Quantity  int
}

// ParseServices parses "ID" or "ID:quantity" flags.
func ParseServices(raw []string) ([]ServiceArg, error) {
	out := make([]ServiceArg, 0, len(raw))
	for _, r := range raw {
		idPart, qtyPart, hasQty := strings.Cut(r, ":")
		id, err := ParseID("service", idPart)
		if err != nil {
			return nil, err
		}
		qty := 1
		if hasQty {
			if qty, err = strconv.Atoi(qtyPart); err != nil || qty < 1 {
				return nil, fmt.Errorf("invalid quantity in %q", r)
			}
		}
		out = append(out, ServiceArg{ServiceID: id, Quantity: qty})
	}
	return out, nil
}
