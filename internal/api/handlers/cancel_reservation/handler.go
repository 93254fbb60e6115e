package cancel_reservation

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lasierra/table-reservations/internal/api/handlers"
	"github.com/lasierra/table-reservations/internal/domain"
	"github.com/lasierra/table-reservations/internal/service/reservations"
)

const (
	msgMissingID    = "reservation id is required"
	msgNotFound     = "reservation not found"
	msgCannotCancel = "a completed reservation cannot be cancelled"
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

// Handle PATCH /api/reservations/{id}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.logger.Warn("PATCH /reservations/{id}/cancel - Missing reservation ID")
		handlers.RespondBadRequest(w, msgMissingID)
		return
	}

	reservation, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("PATCH /reservations/{id}/cancel - Reservation not found: id=%s", id)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrCannotCancel):
			h.logger.Warn("PATCH /reservations/{id}/cancel - Cannot cancel: id=%s", id)
			handlers.RespondConflict(w, domain.KindInvalidTransition, msgCannotCancel)

		default:
			h.logger.Error("PATCH /reservations/{id}/cancel - Failed to cancel reservation: id=%s, error=%v", id, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reservations/{id}/cancel - Reservation cancelled: id=%s", id)
	handlers.RespondJSON(w, http.StatusOK, reservation)
}
