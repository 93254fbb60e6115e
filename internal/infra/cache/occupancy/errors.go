package occupancy

import "errors"

var (
	// ErrConnect returned when redis does not answer a ping
	ErrConnect = errors.New("occupancy cache: failed to connect")

	// ErrRead returned when a cached day cannot be fetched
	ErrRead = errors.New("occupancy cache: failed to read")

	// ErrWrite returned when a day cannot be stored or dropped
	ErrWrite = errors.New("occupancy cache: failed to write")

	// ErrDecode returned when a cached payload is malformed
	ErrDecode = errors.New("occupancy cache: failed to decode payload")
)
