package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/lasierra/table-reservations/migrations"
)

// Options connection settings
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens and pings the database described by opts
func Open(ctx context.Context, opts Options) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(opts.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := sql.Open(dialect.Driver, opts.DSN)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	switch dialect.Driver {
	case DriverSQLite:
		// One connection keeps an in-memory database alive and serializes writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, Dialect{}, fmt.Errorf("%w: enable foreign keys: %w", ErrOpen, err)
		}
	default:
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxIdleConns)
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, Dialect{}, fmt.Errorf("%w: ping: %w", ErrOpen, err)
	}

	return db, dialect, nil
}

// Migrate applies every pending embedded migration and returns how many were applied
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) (int, error) {
	provider, err := goose.NewProvider(dialect.Goose, db, migrations.FS)
	if err != nil {
		return 0, fmt.Errorf("%w: create provider: %w", ErrMigrate, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("%w: %w", ErrMigrate, err)
	}
	return len(results), nil
}
