package reservation

import "errors"

var (
	// ErrReservationNotFound returned when the reservation does not exist
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrTableTaken returned when a table is already held by an active reservation in the same slot
	ErrTableTaken = errors.New("reservation.repository: table already taken for this slot")

	// ErrInvalidReservation returned when the record breaks a field invariant
	ErrInvalidReservation = errors.New("reservation.repository: invalid reservation")

	// ErrTransaction returned on transaction errors
	ErrTransaction = errors.New("reservation.repository: transaction error")

	// ErrBuildQuery returned when a SQL query cannot be built
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery returned when a SQL query fails
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow returned when a result row cannot be scanned
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)
