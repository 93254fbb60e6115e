package update_reservation

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lasierra/table-reservations/internal/api/handlers"
	"github.com/lasierra/table-reservations/internal/domain"
	"github.com/lasierra/table-reservations/internal/service/reservations"
	"github.com/lasierra/table-reservations/internal/service/reservations/models"
)

const (
	msgMissingID          = "reservation id is required"
	msgInvalidRequestBody = "invalid request body"
	msgInvalidInput       = "invalid reservation data"
	msgNotFound           = "reservation not found"
	msgTooLateToBook      = "the requested time slot is in the past"
	msgSlotFull           = "no tables are left in the requested time slot"
	msgTablesTaken        = "the requested tables are already reserved in that time slot"
	msgCannotReactivate   = "a completed reservation cannot be reactivated"
	msgInvalidTransition  = "status change is not allowed"
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

// Handle PUT /api/reservations/{id}
// Body: any subset of name, email, phone, date, time, guests, tableNumbers, status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.logger.Warn("PUT /reservations/{id} - Missing reservation ID")
		handlers.RespondBadRequest(w, msgMissingID)
		return
	}

	var req models.UpdateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /reservations/{id} - Invalid request body: id=%s, error=%v", id, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	reservation, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("PUT /reservations/{id} - Invalid input: id=%s, error=%v", id, err)
			msg := handlers.Reason(err)
			if msg == "" {
				msg = msgInvalidInput
			}
			handlers.RespondBadRequest(w, msg)

		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("PUT /reservations/{id} - Reservation not found: id=%s", id)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrPastTime):
			h.logger.Warn("PUT /reservations/{id} - Too late to book: id=%s", id)
			handlers.RespondError(w, http.StatusBadRequest, domain.KindPastTime, msgTooLateToBook)

		case errors.Is(err, reservations.ErrTablesTaken):
			h.logger.Warn("PUT /reservations/{id} - Tables taken: id=%s, tables=%v", id, req.TableNumbers)
			handlers.RespondConflict(w, domain.KindSlotUnavailable, msgTablesTaken)

		case errors.Is(err, domain.ErrSlotUnavailable):
			h.logger.Warn("PUT /reservations/{id} - Slot full: id=%s", id)
			handlers.RespondConflict(w, domain.KindSlotUnavailable, msgSlotFull)

		case errors.Is(err, reservations.ErrCannotReactivate):
			h.logger.Warn("PUT /reservations/{id} - Cannot reactivate: id=%s", id)
			handlers.RespondConflict(w, domain.KindInvalidTransition, msgCannotReactivate)

		case errors.Is(err, domain.ErrInvalidTransition):
			h.logger.Warn("PUT /reservations/{id} - Invalid transition: id=%s", id)
			handlers.RespondConflict(w, domain.KindInvalidTransition, msgInvalidTransition)

		default:
			h.logger.Error("PUT /reservations/{id} - Failed to update reservation: id=%s, error=%v", id, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /reservations/{id} - Reservation updated: id=%s, status=%s", id, reservation.Status)
	handlers.RespondJSON(w, http.StatusOK, reservation)
}
