package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const professionalColumns = `id, name, specialty, active, schedule_type, custom_start, custom_end,
	work_days, hire_date, created_at, updated_at`

// ProfessionalRepository implements domain.ProfessionalRepository.
type ProfessionalRepository struct {
	sqlRepository
}

// NewProfessionalRepository creates a professional repository for conn.
func NewProfessionalRepository(conn database.Connection) *ProfessionalRepository {
	return &ProfessionalRepository{sqlRepository{conn: conn}}
}

// Save inserts or updates a professional.
func (r *ProfessionalRepository) Save(ctx context.Context, p *domain.Professional) error {
	var customStart, customEnd any
	if w, ok := p.CustomWindow(); ok {
		customStart, customEnd = w.Start.Minutes(), w.End.Minutes()
	}

	query := r.q(`
		INSERT INTO professionals (` + professionalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			specialty = excluded.specialty,
			active = excluded.active,
			schedule_type = excluded.schedule_type,
			custom_start = excluded.custom_start,
			custom_end = excluded.custom_end,
			work_days = excluded.work_days,
			hire_date = excluded.hire_date,
			updated_at = excluded.updated_at`)

	_, err := r.exec(ctx).Exec(ctx, query,
		p.ID(),
		p.Name(),
		p.Specialty(),
		p.IsActive(),
		string(p.ScheduleType()),
		customStart,
		customEnd,
		int(p.WorkDays()),
		p.HireDate(),
		p.CreatedAt().UTC(),
		p.UpdatedAt().UTC(),
	)
	return err
}

// FindByID returns the professional or domain.ErrProfessionalNotFound.
func (r *ProfessionalRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Professional, error) {
	query := r.q(`SELECT ` + professionalColumns + ` FROM professionals WHERE id = ?`)
	p, err := scanProfessional(r.exec(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrProfessionalNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListActive returns active professionals ordered by name.
func (r *ProfessionalRepository) ListActive(ctx context.Context, specialty string) ([]*domain.Professional, error) {
	query := `SELECT ` + professionalColumns + ` FROM professionals WHERE active = ?`
	args := []any{true}
	if specialty != "" {
		query += ` AND specialty = ?`
		args = append(args, specialty)
	}
	query += ` ORDER BY name, id`

	rows, err := r.exec(ctx).Query(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	return database.CollectRows(rows, scanProfessional)
}

// List returns every professional ordered by name.
func (r *ProfessionalRepository) List(ctx context.Context) ([]*domain.Professional, error) {
	rows, err := r.exec(ctx).Query(ctx, r.q(`SELECT `+professionalColumns+` FROM professionals ORDER BY name, id`))
	if err != nil {
		return nil, err
	}
	return database.CollectRows(rows, scanProfessional)
}

// LockForBooking takes row locks on the professionals in id order so that
// concurrent writers queue instead of deadlocking. SQLite already serialises
// writers, so it is a no-op there.
func (r *ProfessionalRepository) LockForBooking(ctx context.Context, ids []uuid.UUID) error {
	lock := r.conn.Driver().LockClause()
	if lock == "" || len(ids) == 0 {
		return nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := r.q(`SELECT id FROM professionals WHERE id IN (` + placeholders + `) ORDER BY id` + lock)

	rows, err := r.exec(ctx).Query(ctx, query, args...)
	if err != nil {
		return err
	}
	_, err = database.CollectRows(rows, func(row database.Row) (uuid.UUID, error) {
		var id uuid.UUID
		return id, row.Scan(&id)
	})
	return err
}

func scanProfessional(row database.Row) (*domain.Professional, error) {
	var (
		id                     uuid.UUID
		name, specialty        string
		active                 bool
		scheduleType           string
		customStart, customEnd *int64
		workDays               int64
		hireDate               domain.Date
		createdAt, updatedAt   time.Time
	)
	if err := row.Scan(&id, &name, &specialty, &active, &scheduleType, &customStart, &customEnd,
		&workDays, &hireDate, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var custom *domain.Interval
	if customStart != nil && customEnd != nil {
		custom = &domain.Interval{
			Start: domain.TimeOfDay(*customStart),
			End:   domain.TimeOfDay(*customEnd),
		}
	}
	return domain.RehydrateProfessional(id, name, specialty, active, domain.ScheduleType(scheduleType),
		custom, domain.Weekdays(workDays), hireDate, createdAt, updatedAt), nil
}
