package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	ctx := context.Background()

	db, dialect, err := Open(ctx, Options{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	applied, err := Migrate(ctx, db, dialect)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	for _, table := range []string{"reservations", "table_assignments"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s not found", table)
	}

	// Second run is a no-op
	applied, err = Migrate(ctx, db, dialect)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, _, err := Open(context.Background(), Options{Driver: "mysql"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := Open(ctx, Options{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = Migrate(ctx, db, dialect)
	require.NoError(t, err)

	insert := func(id string) error {
		_, err := db.Exec(`INSERT INTO reservations
			(id, name, email, phone, reservation_date, time_slot, guests, table_numbers, status, created_at, updated_at)
			VALUES (?, 'Ana', 'ana@example.com', '5551234567', '2026-03-01', 0, 2, '1', 'confirmed', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, id)
		if err != nil {
			return err
		}
		_, err = db.Exec(`INSERT INTO table_assignments (reservation_id, reservation_date, time_slot, table_number)
			VALUES (?, '2026-03-01', 0, 1)`, id)
		return err
	}

	require.NoError(t, insert("a"))
	err = insert("b")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsSerializationFailure(err))
	assert.False(t, IsUniqueViolation(errors.New("other")))
}

func TestDialectFor(t *testing.T) {
	pg, err := DialectFor(DriverPostgres)
	require.NoError(t, err)
	assert.NotNil(t, pg.SerializableTx)
	assert.Equal(t, "", pg.LockSuffix(context.Background()))

	lite, err := DialectFor(DriverSQLite)
	require.NoError(t, err)
	assert.Nil(t, lite.SerializableTx)
}
