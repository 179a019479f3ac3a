package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// ClientRepository implements domain.ClientRepository.
type ClientRepository struct {
	sqlRepository
}

// NewClientRepository creates a client repository for conn.
func NewClientRepository(conn database.Connection) *ClientRepository {
	return &ClientRepository{sqlRepository{conn: conn}}
}

// Save inserts or updates a client.
func (r *ClientRepository) Save(ctx context.Context, c *domain.Client) error {
	query := r.q(`
		INSERT INTO clients (id, name, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			updated_at = excluded.updated_at`)
	_, err := r.exec(ctx).Exec(ctx, query, c.ID(), c.Name(), c.IsActive(), c.CreatedAt().UTC(), c.UpdatedAt().UTC())
	return err
}

// FindByID returns the client or domain.ErrClientNotFound.
func (r *ClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var (
		name                 string
		active               bool
		createdAt, updatedAt time.Time
	)
	err := r.exec(ctx).QueryRow(ctx,
		r.q(`SELECT name, active, created_at, updated_at FROM clients WHERE id = ?`), id,
	).Scan(&name, &active, &createdAt, &updatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	return domain.RehydrateClient(id, name, active, createdAt, updatedAt), nil
}

// LockForBooking locks the client row for the rest of the transaction.
func (r *ClientRepository) LockForBooking(ctx context.Context, id uuid.UUID) error {
	lock := r.conn.Driver().LockClause()
	if lock == "" {
		return nil
	}
	var locked uuid.UUID
	err := r.exec(ctx).QueryRow(ctx, r.q(`SELECT id FROM clients WHERE id = ?`+lock), id).Scan(&locked)
	if database.IsNoRows(err) {
		return nil
	}
	return err
}
