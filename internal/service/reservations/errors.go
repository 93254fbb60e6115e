package reservations

import "errors"

var (
	// ErrReservationNotFound returned when the reservation does not exist
	ErrReservationNotFound = errors.New("reservations: reservation not found")

	// ErrCannotCancel returned when the reservation cannot be cancelled
	ErrCannotCancel = errors.New("reservations: reservation cannot be cancelled")

	// ErrCannotReactivate returned when a completed reservation is moved back to an active status
	ErrCannotReactivate = errors.New("reservations: completed reservation cannot be reactivated")

	// ErrInvalidInput returned for malformed request fields
	ErrInvalidInput = errors.New("reservations: invalid input data")

	// ErrTooLateToBook returned when the new slot does not start after now plus the notice period
	ErrTooLateToBook = errors.New("reservations: too late to book this slot")

	// ErrSlotFull returned when the target slot has no free table
	ErrSlotFull = errors.New("reservations: slot is full")

	// ErrTablesTaken returned when explicitly requested tables are held by another reservation
	ErrTablesTaken = errors.New("reservations: requested tables are taken")

	// ErrInternal returned on internal errors of the service
	ErrInternal = errors.New("reservations: internal error")
)
