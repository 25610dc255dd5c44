// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/carddavsync/internal/rowstore"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// NewSQLiteDB returns a migrated in-memory SQLite database private to the
// test. It is closed on cleanup.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := rowstore.Open(context.Background(), rowstore.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewGateway returns a gateway over a fresh database.
func NewGateway(t *testing.T) (*rowstore.SQLGateway, *sqlx.DB) {
	t.Helper()
	db := NewSQLiteDB(t)
	return rowstore.NewSQLGateway(db, rowstore.DefaultPrefix), db
}

// Count returns the number of rows of a prefixed table.
func Count(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+rowstore.DefaultPrefix+table))
	return n
}
