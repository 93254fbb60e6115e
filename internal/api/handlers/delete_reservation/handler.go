package delete_reservation

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lasierra/table-reservations/internal/api/handlers"
	"github.com/lasierra/table-reservations/internal/domain"
)

const (
	msgMissingID = "reservation id is required"
	msgNotFound  = "reservation not found"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/reservations/{id}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.logger.Warn("DELETE /reservations/{id} - Missing reservation ID")
		handlers.RespondBadRequest(w, msgMissingID)
		return
	}

	result, err := h.service.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("DELETE /reservations/{id} - Reservation not found: id=%s", id)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("DELETE /reservations/{id} - Failed to delete reservation: id=%s, error=%v", id, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /reservations/{id} - Reservation deleted: id=%s", id)
	handlers.RespondJSON(w, http.StatusOK, result)
}
