package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/groundwork/internal/db"
	"github.com/stretchr/testify/require"
)

// NewTestDB opens a migrated in-memory schedule database that lives for the
// duration of the test.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// NewTestUoW wraps database in the UnitOfWork the services use in production.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
