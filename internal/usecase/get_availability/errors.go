package get_availability

import "errors"

var (
	// ErrInvalidDate returned for a malformed date
	ErrInvalidDate = errors.New("get_availability: invalid date")

	// ErrInvalidTimeSlot returned for a label outside the slot vocabulary
	ErrInvalidTimeSlot = errors.New("get_availability: invalid time slot")

	// ErrInternal returned on internal errors of the use case
	ErrInternal = errors.New("get_availability: internal error")
)
