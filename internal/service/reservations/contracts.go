package reservations

import (
	"context"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// ReservationRepository reservation store
type ReservationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error)
	Update(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
	Delete(ctx context.Context, id string) error
	CompleteEnded(ctx context.Context, today time.Time, lastEndedSlot domain.Slot, now time.Time) ([]string, error)
}

// AvailabilityChecker slot capacity check, used when a reservation moves
type AvailabilityChecker interface {
	IsSlotAvailable(ctx context.Context, date time.Time, slot domain.Slot) (bool, error)
}

// TableAllocator picks a free table, used when a reservation moves
type TableAllocator interface {
	NextAvailableTable(ctx context.Context, date time.Time, slot domain.Slot) (int, error)
}

// TransactionManager runs multi-step changes atomically
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// OccupancyCache cached occupancy reads
type OccupancyCache interface {
	Invalidate(ctx context.Context, date time.Time) error
}

// EventPublisher reservation change notifications
type EventPublisher interface {
	Publish(ctx context.Context, event domain.ReservationEvent) error
}

// Metrics reservation outcome counters
type Metrics interface {
	IncReservation(operation, outcome string)
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
