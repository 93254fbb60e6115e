package get_occupancy

import (
	"context"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

type OccupancyProjector interface {
	Project(ctx context.Context, day time.Time) (*domain.OccupancyGrid, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
