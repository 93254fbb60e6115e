package create_reservation

import (
	"context"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// ReservationRepository reservation store writes
type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
}

// AvailabilityChecker slot capacity check
type AvailabilityChecker interface {
	IsSlotAvailable(ctx context.Context, date time.Time, slot domain.Slot) (bool, error)
}

// TableAllocator picks a free table
type TableAllocator interface {
	NextAvailableTable(ctx context.Context, date time.Time, slot domain.Slot) (int, error)
}

// TransactionManager runs the check-allocate-persist step atomically
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// OccupancyCache cached occupancy reads, dropped after every write
type OccupancyCache interface {
	Invalidate(ctx context.Context, date time.Time) error
}

// EventPublisher reservation change notifications
type EventPublisher interface {
	Publish(ctx context.Context, event domain.ReservationEvent) error
}

// Metrics booking outcome counters
type Metrics interface {
	IncReservation(operation, outcome string)
	IncAllocationRetry()
}

// TimeProvider source of the current instant, replaced in tests
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
