package domain

import "errors"

// Error taxonomy shared by use cases, services and handlers.
// Every error crossing a package boundary wraps exactly one of these.
var (
	// ErrValidation malformed or out-of-range input, never reaches the store
	ErrValidation = errors.New("validation error")

	// ErrPastTime requested date and slot are not in the future
	ErrPastTime = errors.New("requested time slot is in the past")

	// ErrSlotUnavailable every table of the slot is taken
	ErrSlotUnavailable = errors.New("time slot is not available")

	// ErrStorage transient or permanent backend failure
	ErrStorage = errors.New("storage error")

	// ErrNotFound reservation does not exist
	ErrNotFound = errors.New("reservation not found")

	// ErrInvalidTransition status change is not allowed
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Error kinds exposed to API clients
const (
	KindValidation        = "validation"
	KindPastTime          = "past_time"
	KindSlotUnavailable   = "slot_unavailable"
	KindStorage           = "storage"
	KindNotFound          = "not_found"
	KindInvalidTransition = "invalid_transition"
)

// ErrorKind returns the machine-readable kind of err.
// Unclassified errors are reported as storage failures.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrPastTime):
		return KindPastTime
	case errors.Is(err, ErrSlotUnavailable):
		return KindSlotUnavailable
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	default:
		return KindStorage
	}
}
