package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const bookingColumns = `id, client_id, professional_id, date, start_minute, status, notes,
	cancellation_reason, completed_at, version, created_at, updated_at`

const (
	rolePrincipal  = "principal"
	roleAdditional = "additional"

	activeStatuses = `('pending', 'in_progress')`
)

// BookingRepository implements domain.BookingRepository.
type BookingRepository struct {
	sqlRepository
}

// NewBookingRepository creates a booking repository for conn.
func NewBookingRepository(conn database.Connection) *BookingRepository {
	return &BookingRepository{sqlRepository{conn: conn}}
}

// Save inserts a new booking (version 0) or updates an existing one with an
// optimistic version check. Losing the active-slot uniqueness race returns
// domain.ErrSlotUnavailable.
func (r *BookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	err := r.inTx(ctx, func(ctx context.Context) error {
		if b.Version() == 0 {
			if err := r.insert(ctx, b); err != nil {
				return err
			}
		} else if err := r.update(ctx, b); err != nil {
			return err
		}
		return r.replaceChildren(ctx, b)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrSlotUnavailable
		}
		return err
	}
	b.SetVersion(b.Version() + 1)
	return nil
}

func (r *BookingRepository) insert(ctx context.Context, b *domain.Booking) error {
	query := r.q(`
		INSERT INTO bookings (
			id, client_id, professional_id, date, start_minute, duration_minutes, total_price,
			status, notes, cancellation_reason, completed_at, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`)
	_, err := r.exec(ctx).Exec(ctx, query,
		b.ID(),
		b.ClientID(),
		b.ProfessionalID(),
		b.Date(),
		b.Start().Minutes(),
		b.Duration(),
		b.TotalPrice(),
		string(b.Status()),
		b.Notes(),
		nullString(b.CancellationReason()),
		utcOrNil(b.CompletedAt()),
		b.CreatedAt().UTC(),
		b.UpdatedAt().UTC(),
	)
	return err
}

func (r *BookingRepository) update(ctx context.Context, b *domain.Booking) error {
	query := r.q(`
		UPDATE bookings SET
			date = ?,
			start_minute = ?,
			duration_minutes = ?,
			total_price = ?,
			status = ?,
			notes = ?,
			cancellation_reason = ?,
			completed_at = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?`)
	res, err := r.exec(ctx).Exec(ctx, query,
		b.Date(),
		b.Start().Minutes(),
		b.Duration(),
		b.TotalPrice(),
		string(b.Status()),
		b.Notes(),
		nullString(b.CancellationReason()),
		utcOrNil(b.CompletedAt()),
		b.UpdatedAt().UTC(),
		b.ID(),
		b.Version(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: booking %s", domain.ErrConcurrentModification, b.ID())
	}
	return nil
}

func (r *BookingRepository) replaceChildren(ctx context.Context, b *domain.Booking) error {
	exec := r.exec(ctx)
	if _, err := exec.Exec(ctx, r.q(`DELETE FROM booking_professionals WHERE booking_id = ?`), b.ID()); err != nil {
		return err
	}
	if _, err := exec.Exec(ctx, r.q(`DELETE FROM booking_lines WHERE booking_id = ?`), b.ID()); err != nil {
		return err
	}

	insertProfessional := r.q(`INSERT INTO booking_professionals (booking_id, professional_id, role) VALUES (?, ?, ?)`)
	for i, id := range b.ProfessionalIDs() {
		role := roleAdditional
		if i == 0 {
			role = rolePrincipal
		}
		if _, err := exec.Exec(ctx, insertProfessional, b.ID(), id, role); err != nil {
			return err
		}
	}

	insertLine := r.q(`
		INSERT INTO booking_lines (booking_id, position, service_id, name, duration_minutes, quantity, unit_price)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for i, l := range b.Lines() {
		if _, err := exec.Exec(ctx, insertLine, b.ID(), i, l.ServiceID, l.Name, l.DurationMinutes, l.Quantity, l.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

// FindByID returns the booking or domain.ErrBookingNotFound.
func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row, err := scanBookingRow(r.exec(ctx).QueryRow(ctx, r.q(`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`), id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, row)
}

// FindActiveForProfessional returns the active bookings on date in which the
// professional takes part, ordered by start.
func (r *BookingRepository) FindActiveForProfessional(ctx context.Context, professionalID uuid.UUID, date domain.Date, exclude *uuid.UUID) ([]domain.ActiveBooking, error) {
	query := `
		SELECT b.id, b.client_id, c.name, bp.professional_id, b.start_minute, b.duration_minutes
		FROM bookings b
		JOIN booking_professionals bp ON bp.booking_id = b.id
		JOIN clients c ON c.id = b.client_id
		WHERE bp.professional_id = ? AND b.date = ? AND b.status IN ` + activeStatuses
	args := []any{professionalID, date}
	query, args = excludeBooking(query, args, exclude)
	query += ` ORDER BY b.start_minute, b.id`

	rows, err := r.exec(ctx).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	return database.CollectRows(rows, scanActiveBooking)
}

// FindActiveForClient returns the client's active bookings on date, ordered by start.
func (r *BookingRepository) FindActiveForClient(ctx context.Context, clientID uuid.UUID, date domain.Date, exclude *uuid.UUID) ([]domain.ActiveBooking, error) {
	query := `
		SELECT b.id, b.client_id, c.name, b.professional_id, b.start_minute, b.duration_minutes
		FROM bookings b
		JOIN clients c ON c.id = b.client_id
		WHERE b.client_id = ? AND b.date = ? AND b.status IN ` + activeStatuses
	args := []any{clientID, date}
	query, args = excludeBooking(query, args, exclude)
	query += ` ORDER BY b.start_minute, b.id`

	rows, err := r.exec(ctx).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	return database.CollectRows(rows, scanActiveBooking)
}

// List returns bookings matching filter ordered by date and start.
func (r *BookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ProfessionalID != nil {
		conds = append(conds, `id IN (SELECT booking_id FROM booking_professionals WHERE professional_id = ?)`)
		args = append(args, *filter.ProfessionalID)
	}
	if filter.ClientID != nil {
		conds = append(conds, `client_id = ?`)
		args = append(args, *filter.ClientID)
	}
	if filter.Date != nil {
		conds = append(conds, `date = ?`)
		args = append(args, *filter.Date)
	}
	if filter.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY date, start_minute, id`

	rows, err := r.exec(ctx).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	bookingRows, err := database.CollectRows(rows, scanBookingRow)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Booking, 0, len(bookingRows))
	for _, row := range bookingRows {
		b, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

type bookingRow struct {
	id, clientID, professionalID uuid.UUID
	date                         domain.Date
	start                        int64
	status                       string
	notes                        string
	cancellationReason           *string
	completedAt                  *time.Time
	version                      int
	createdAt, updatedAt         time.Time
}

func scanBookingRow(row database.Row) (bookingRow, error) {
	var b bookingRow
	err := row.Scan(&b.id, &b.clientID, &b.professionalID, &b.date, &b.start, &b.status, &b.notes,
		&b.cancellationReason, &b.completedAt, &b.version, &b.createdAt, &b.updatedAt)
	return b, err
}

func (r *BookingRepository) hydrate(ctx context.Context, row bookingRow) (*domain.Booking, error) {
	exec := r.exec(ctx)

	rows, err := exec.Query(ctx, r.q(`
		SELECT professional_id FROM booking_professionals
		WHERE booking_id = ? AND role = ?
		ORDER BY professional_id`), row.id, roleAdditional)
	if err != nil {
		return nil, err
	}
	additional, err := database.CollectRows(rows, func(row database.Row) (uuid.UUID, error) {
		var id uuid.UUID
		return id, row.Scan(&id)
	})
	if err != nil {
		return nil, err
	}

	rows, err = exec.Query(ctx, r.q(`
		SELECT service_id, name, duration_minutes, quantity, unit_price
		FROM booking_lines WHERE booking_id = ? ORDER BY position`), row.id)
	if err != nil {
		return nil, err
	}
	lines, err := database.CollectRows(rows, func(row database.Row) (domain.ServiceLine, error) {
		var l domain.ServiceLine
		err := row.Scan(&l.ServiceID, &l.Name, &l.DurationMinutes, &l.Quantity, &l.UnitPrice)
		return l, err
	})
	if err != nil {
		return nil, err
	}

	var completedAt *time.Time
	if row.completedAt != nil {
		t := row.completedAt.UTC()
		completedAt = &t
	}
	return domain.RehydrateBooking(
		row.id, row.clientID, row.professionalID,
		additional, lines,
		row.date, domain.TimeOfDay(row.start),
		domain.BookingStatus(row.status),
		row.notes, deref(row.cancellationReason),
		completedAt,
		row.version,
		row.createdAt, row.updatedAt,
	), nil
}

func scanActiveBooking(row database.Row) (domain.ActiveBooking, error) {
	var (
		b               domain.ActiveBooking
		start, duration int64
	)
	if err := row.Scan(&b.ID, &b.ClientID, &b.ClientName, &b.ProfessionalID, &start, &duration); err != nil {
		return b, err
	}
	b.Interval = domain.Interval{Start: domain.TimeOfDay(start), End: domain.TimeOfDay(start + duration)}
	return b, nil
}

func excludeBooking(query string, args []any, exclude *uuid.UUID) (string, []any) {
	if exclude == nil {
		return query, args
	}
	return query + ` AND b.id <> ?`, append(args, *exclude)
}

func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
