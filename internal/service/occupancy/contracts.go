package occupancy

import (
	"context"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// ReservationRepository reservation store reads
type ReservationRepository interface {
	List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error)
}

// DayCache cached reservations of a day. Set must not store when the day was
// invalidated after the given generation was read.
type DayCache interface {
	Get(ctx context.Context, date time.Time) ([]*domain.Reservation, bool, error)
	Generation(ctx context.Context, date time.Time) (int64, error)
	Set(ctx context.Context, date time.Time, generation int64, reservations []*domain.Reservation) error
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
