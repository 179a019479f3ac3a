// Package persistence implements the scheduling repositories on any
// database.Connection. Queries are written once with ? placeholders and
// rebound for the connection's driver.
package persistence

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/slotwise/internal/shared/application"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
)

type sqlRepository struct {
	conn database.Connection
}

func (r sqlRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r sqlRepository) q(query string) string {
	return r.conn.Driver().Rebind(query)
}

// inTx runs fn in the caller's transaction, or in a new one when ctx has none.
func (r sqlRepository) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if database.TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	return sharedApplication.WithUnitOfWork(ctx, database.NewUnitOfWork(r.conn), fn)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
