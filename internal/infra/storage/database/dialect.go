package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/lasierra/table-reservations/pkg/dbmetrics"
	"github.com/lasierra/table-reservations/pkg/sqlbuilder"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// PostgreSQL error codes
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// Dialect differences between the supported databases
type Dialect struct {
	Driver  string
	Builder sqlbuilder.Builder
	Goose   goose.Dialect

	// SerializableTx options for conflict-checked transactions
	SerializableTx *sql.TxOptions
	// ReadOnlyTx options for read-only transactions
	ReadOnlyTx *sql.TxOptions

	rowLocks bool
}

// DialectFor returns the dialect of a driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres:
		return Dialect{
			Driver:         DriverPostgres,
			Builder:        sqlbuilder.Postgres(),
			Goose:          goose.DialectPostgres,
			SerializableTx: &sql.TxOptions{Isolation: sql.LevelSerializable},
			ReadOnlyTx:     &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
			rowLocks:       true,
		}, nil
	case DriverSQLite:
		// Single connection, transactions are serial by construction
		return Dialect{
			Driver:  DriverSQLite,
			Builder: sqlbuilder.SQLite(),
			Goose:   goose.DialectSQLite3,
		}, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// LockSuffix returns "FOR UPDATE" when ctx carries a transaction and the database supports row locks
func (d Dialect) LockSuffix(ctx context.Context) string {
	if d.rowLocks && dbmetrics.IsInTransaction(ctx) {
		return "FOR UPDATE"
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique/primary key violation of either driver
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// IsSerializationFailure reports whether err means the transaction lost a race and may be retried
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		primary := liteErr.Code() & 0xff
		return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
	}
	return false
}
