package get_availability

import (
	"context"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// AvailabilityChecker slot capacity reads
type AvailabilityChecker interface {
	DayAvailability(ctx context.Context, date time.Time) ([]domain.SlotAvailability, error)
	SlotAvailability(ctx context.Context, date time.Time, slot domain.Slot) (*domain.SlotAvailability, error)
}

// Logger logging interface
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
