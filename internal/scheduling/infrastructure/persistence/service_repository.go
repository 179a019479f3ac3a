package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const serviceColumns = `id, name, duration_minutes, unit_price, active, created_at, updated_at`

// ServiceRepository implements domain.ServiceRepository.
type ServiceRepository struct {
	sqlRepository
}

// NewServiceRepository creates a service repository for conn.
func NewServiceRepository(conn database.Connection) *ServiceRepository {
	return &ServiceRepository{sqlRepository{conn: conn}}
}

// Save inserts or updates a service.
func (r *ServiceRepository) Save(ctx context.Context, s *domain.Service) error {
	query := r.q(`
		INSERT INTO services (` + serviceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			duration_minutes = excluded.duration_minutes,
			unit_price = excluded.unit_price,
			active = excluded.active,
			updated_at = excluded.updated_at`)
	_, err := r.exec(ctx).Exec(ctx, query,
		s.ID(), s.Name(), s.DurationMinutes(), s.UnitPrice(), s.IsActive(),
		s.CreatedAt().UTC(), s.UpdatedAt().UTC(),
	)
	return err
}

// FindByID returns the service or domain.ErrServiceNotFound.
func (r *ServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	s, err := scanService(r.exec(ctx).QueryRow(ctx, r.q(`SELECT `+serviceColumns+` FROM services WHERE id = ?`), id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns every service ordered by name.
func (r *ServiceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	rows, err := r.exec(ctx).Query(ctx, r.q(`SELECT `+serviceColumns+` FROM services ORDER BY name, id`))
	if err != nil {
		return nil, err
	}
	return database.CollectRows(rows, scanService)
}

func scanService(row database.Row) (*domain.Service, error) {
	var (
		id                   uuid.UUID
		name                 string
		duration             int
		unitPrice            int64
		active               bool
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &duration, &unitPrice, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return domain.RehydrateService(id, name, duration, unitPrice, active, createdAt, updatedAt), nil
}
