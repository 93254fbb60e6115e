package database

import "errors"

var (
	// ErrUnsupportedDriver driver is neither postgres nor sqlite
	ErrUnsupportedDriver = errors.New("database: unsupported driver")

	// ErrOpen connection could not be established
	ErrOpen = errors.New("database: failed to open connection")

	// ErrMigrate schema migration failed
	ErrMigrate = errors.New("database: failed to apply migrations")
)
