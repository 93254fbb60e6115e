package availability

import (
	"context"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// ReservationRepository reservation store reads needed by the checker
type ReservationRepository interface {
	CountTablesInUse(ctx context.Context, date time.Time, slot domain.Slot) (int, error)
	CountTablesInUseByDay(ctx context.Context, date time.Time) (map[domain.Slot]int, error)
}

// TimeProvider source of the current instant
type TimeProvider interface {
	Now() time.Time
}

// Logger logging interface
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider wall clock
type RealTimeProvider struct{}

// Now returns the current time
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
