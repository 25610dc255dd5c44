// Package dbx provides tiny DB abstractions shared by the row store and the
// repositories: a minimal interface (DBTX) implemented by both *sqlx.DB and
// *sqlx.Tx, and a helper to run functions inside a transaction.
package dbx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// DBTX is the subset of sqlx used by the row store.
// Both *sqlx.DB and *sqlx.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	Rebind(query string) string
}

// Transactor is anything with explicit start/end/rollback transaction
// control, such as the row store gateway.
type Transactor interface {
	StartTransaction(ctx context.Context, readonly bool) error
	EndTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
}

// WithTx starts a transaction on t, runs fn, and then commits on success or
// rolls back on error/panic. Panics are rethrown and fn's error is returned
// unchanged; a failing rollback does not mask it.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, gw, false, func(ctx context.Context) error {
//	    _, err := gw.Delete(ctx, "contacts", rowstore.Filter{"abook_id": ids})
//	    return err
//	})
func WithTx(ctx context.Context, t Transactor, readonly bool, fn func(ctx context.Context) error) (err error) {
	if err := t.StartTransaction(ctx, readonly); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = t.RollbackTransaction(ctx)
			panic(p)
		}
		if err != nil {
			_ = t.RollbackTransaction(ctx)
			return
		}
		err = t.EndTransaction(ctx)
	}()

	err = fn(ctx)
	return err
}
