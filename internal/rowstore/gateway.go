package rowstore

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/carddavsync/internal/common"
	"github.com/dmitrijs2005/carddavsync/internal/dbx"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SQLGateway struct {
	db     *sqlx.DB
	tx     *sqlx.Tx
	prefix string
}

func NewSQLGateway(db *sqlx.DB, prefix string) *SQLGateway {
	return &SQLGateway{db: db, prefix: prefix}
}

func (g *SQLGateway) q() dbx.DBTX {
	if g.tx != nil {
		return g.tx
	}
	return g.db
}

func (g *SQLGateway) table(name string) (string, error) {
	if err := checkIdent(name); err != nil {
		return "", err
	}
	return g.prefix + name, nil
}

func (g *SQLGateway) InTransaction() bool {
	return g.tx != nil
}

func (g *SQLGateway) Select(ctx context.Context, dest any, table string, filter Filter, cols ...string) error {
	t, err := g.table(table)
	if err != nil {
		return err
	}
	colList := "*"
	if len(cols) > 0 {
		if err := checkIdent(cols...); err != nil {
			return err
		}
		colList = strings.Join(cols, ", ")
	}

	where, args, err := buildWhere(filter)
	if err != nil {
		return err
	}

	q := g.q()
	query, args, err := expand(q.Rebind, "SELECT "+colList+" FROM "+t+where, args)
	if err != nil {
		return err
	}

	if err := q.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (g *SQLGateway) Insert(ctx context.Context, table string, cols []string, vals []any) (string, error) {
	t, err := g.table(table)
	if err != nil {
		return "", err
	}
	if len(cols) != len(vals) {
		return "", fmt.Errorf("insert into %s: %d columns but %d values", table, len(cols), len(vals))
	}
	if err := checkIdent(cols...); err != nil {
		return "", err
	}

	var id string
	if i := slices.Index(cols, "id"); i >= 0 {
		id = fmt.Sprint(vals[i])
	} else {
		id = uuid.NewString()
		cols = append([]string{"id"}, cols...)
		vals = append([]any{id}, vals...)
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := g.q().Rebind("INSERT INTO " + t + " (" + strings.Join(cols, ", ") + ") VALUES (" + marks + ")")

	if _, err := g.q().ExecContext(ctx, query, vals...); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (g *SQLGateway) Update(ctx context.Context, table string, filter Filter, cols []string, vals []any) (int64, error) {
	t, err := g.table(table)
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 || len(cols) != len(vals) {
		return 0, fmt.Errorf("update %s: %d columns but %d values", table, len(cols), len(vals))
	}
	if len(filter) == 0 {
		return 0, fmt.Errorf("update %s: refusing to update without a filter", table)
	}
	if err := checkIdent(cols...); err != nil {
		return 0, err
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}

	where, wargs, err := buildWhere(filter)
	if err != nil {
		return 0, err
	}
	args := append(slices.Clone(vals), wargs...)

	return g.exec(ctx, "UPDATE "+t+" SET "+strings.Join(sets, ", ")+where, args)
}

func (g *SQLGateway) Delete(ctx context.Context, table string, filter Filter) (int64, error) {
	t, err := g.table(table)
	if err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, fmt.Errorf("delete from %s: refusing to delete without a filter", table)
	}

	where, args, err := buildWhere(filter)
	if err != nil {
		return 0, err
	}
	return g.exec(ctx, "DELETE FROM "+t+where, args)
}

func (g *SQLGateway) exec(ctx context.Context, query string, args []any) (int64, error) {
	q := g.q()
	query, args, err := expand(q.Rebind, query, args)
	if err != nil {
		return 0, err
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// StartTransaction begins a transaction. Nested transactions are not
// supported. The read-only hint is passed to drivers that honor it.
func (g *SQLGateway) StartTransaction(ctx context.Context, readonly bool) error {
	if g.tx != nil {
		return common.ErrorAlreadyInTransaction
	}

	opts := &sql.TxOptions{ReadOnly: readonly && g.db.DriverName() != DriverSQLite}
	tx, err := g.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	g.tx = tx
	return nil
}

func (g *SQLGateway) EndTransaction(ctx context.Context) error {
	if g.tx == nil {
		return common.ErrorNotInTransaction
	}
	tx := g.tx
	g.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (g *SQLGateway) RollbackTransaction(ctx context.Context) error {
	if g.tx == nil {
		return common.ErrorNotInTransaction
	}
	tx := g.tx
	g.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
