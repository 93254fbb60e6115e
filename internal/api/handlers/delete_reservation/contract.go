package delete_reservation

import (
	"context"

	"github.com/lasierra/table-reservations/internal/service/reservations/models"
)

type ReservationService interface {
	Delete(ctx context.Context, id string) (*models.DeleteResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
