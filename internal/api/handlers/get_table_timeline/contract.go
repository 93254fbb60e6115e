package get_table_timeline

import (
	"context"

	"github.com/lasierra/table-reservations/internal/domain"
)

type OccupancyProjector interface {
	TableTimeline(ctx context.Context, table int, expanded bool) (*domain.TableTimeline, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
