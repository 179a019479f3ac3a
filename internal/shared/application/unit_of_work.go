// Package application holds the transaction and event plumbing shared by
// command handlers.
package application

import (
	"context"
	"errors"
)

// UnitOfWork brackets a group of repository writes in one transaction.
// Begin returns the context that carries the transaction; repositories find
// it there.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc is the body of a transaction.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork runs fn inside a transaction and commits when it returns
// nil. On error the transaction is rolled back and a failed rollback is
// joined onto fn's error. A panic in fn rolls back and propagates.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if p := recover(); p != nil {
				_ = uow.Rollback(txCtx)
				panic(p)
			}
		}
	}()

	if fnErr := fn(txCtx); fnErr != nil {
		rbErr := uow.Rollback(txCtx)
		if rbErr == nil || errors.Is(rbErr, context.Canceled) {
			return fnErr
		}
		return errors.Join(fnErr, rbErr)
	}
	committed = true
	return uow.Commit(txCtx)
}

// AfterCommit is WithUnitOfWork followed by hooks that run with the outer
// ctx once the commit succeeded. Hooks report their own failures.
func AfterCommit(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc, hooks ...func(ctx context.Context)) error {
	err := WithUnitOfWork(ctx, uow, fn)
	if err == nil {
		for _, hook := range hooks {
			hook(ctx)
		}
	}
	return err
}
