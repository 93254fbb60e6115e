// Package databasetest provides a migrated in-memory SQLite database for tests.
package databasetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lasierra/table-reservations/internal/infra/storage/database"
	"github.com/lasierra/table-reservations/pkg/dbmetrics"
)

// NewTestDB creates a new in-memory SQLite database with all migrations applied
func NewTestDB(t *testing.T) (*dbmetrics.DB, database.Dialect) {
	t.Helper()

	raw, dialect, err := database.Open(context.Background(), database.Options{
		Driver: database.DriverSQLite,
		DSN:    ":memory:",
	})
	require.NoError(t, err, "failed to create test database")

	_, err = database.Migrate(context.Background(), raw, dialect)
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		raw.Close()
	})

	return dbmetrics.Wrap(raw, nil), dialect
}
