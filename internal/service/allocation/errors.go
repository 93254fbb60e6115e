package allocation

import "errors"

var (
	// ErrNoFreeTable every table of the slot is held
	ErrNoFreeTable = errors.New("allocation: no free table in slot")
)
