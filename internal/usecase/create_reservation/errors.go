package create_reservation

import "errors"

var (
	// ErrInvalidInput returned for malformed request fields
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrTooLateToBook returned when the slot does not start after now plus the notice period
	ErrTooLateToBook = errors.New("create_reservation: too late to book this slot")

	// ErrSlotFull returned when no table is left in the slot
	ErrSlotFull = errors.New("create_reservation: slot is full")

	// ErrConflictRetriesExhausted returned when concurrent bookings kept winning the last tables
	ErrConflictRetriesExhausted = errors.New("create_reservation: conflicting bookings, retries exhausted")

	// ErrInternal returned on internal errors of the use case
	ErrInternal = errors.New("create_reservation: internal error")
)
