package allocation

import (
	"context"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// ReservationRepository reservation store reads needed by the allocator
type ReservationRepository interface {
	TakenTables(ctx context.Context, date time.Time, slot domain.Slot) ([]int, error)
}

// Logger logging interface
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
