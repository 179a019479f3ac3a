package database

import (
	"context"
	"errors"
)

var errNoTransaction = errors.New("no transaction in context")

type scopeKey struct{}

// scope is what a unit of work stores in the context. Only the scope that
// began tx (owner) may finish it; nested scopes join.
type scope struct {
	tx    Transaction
	owner bool
}

func scopeOf(ctx context.Context) (scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(scope)
	return s, ok && s.tx != nil
}

// TxFromContext returns the transaction ctx runs in, or nil.
func TxFromContext(ctx context.Context) Transaction {
	s, _ := scopeOf(ctx)
	return s.tx
}

// ExecutorFromContext picks the transaction in ctx over conn. Repositories
// resolve their executor this way on every call.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}

// GenericUnitOfWork is the application.UnitOfWork for both backends.
type GenericUnitOfWork struct {
	conn Connection
}

func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

// Begin opens a transaction, or joins the one already in ctx.
func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if outer, ok := scopeOf(ctx); ok {
		return context.WithValue(ctx, scopeKey{}, scope{tx: outer.tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, scopeKey{}, scope{tx: tx, owner: true}), nil
}

func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	return finish(ctx, Transaction.Commit)
}

func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	return finish(ctx, Transaction.Rollback)
}

// finish applies end to the owned transaction; joined scopes are a no-op.
func finish(ctx context.Context, end func(Transaction, context.Context) error) error {
	s, ok := scopeOf(ctx)
	switch {
	case !ok:
		return errNoTransaction
	case !s.owner:
		return nil
	}
	return end(s.tx, ctx)
}
