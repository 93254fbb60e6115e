package availability

import "errors"

var (
	// ErrCheckFailed availability is unknown because the store failed
	ErrCheckFailed = errors.New("availability: capacity check failed")
)
