package get_availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// validateRequest parses the date and the optional slot label
func validateRequest(req *Request) (time.Time, *domain.Slot, error) {
	if req == nil {
		return time.Time{}, nil, fmt.Errorf("%w: %w: empty request", domain.ErrValidation, ErrInvalidDate)
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}

	if strings.TrimSpace(req.Time) == "" {
		return date, nil, nil
	}

	slot, err := domain.ParseSlot(req.Time)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("%w: %w", ErrInvalidTimeSlot, err)
	}

	return date, &slot, nil
}
