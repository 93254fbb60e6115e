package create_reservation

import (
	"errors"
	"net/http"

	"github.com/lasierra/table-reservations/internal/api/handlers"
	"github.com/lasierra/table-reservations/internal/domain"
	createReservation "github.com/lasierra/table-reservations/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgInvalidInput       = "invalid reservation data"
	msgTooLateToBook      = "the requested time slot is in the past"
	msgSlotFull           = "no tables are left in the requested time slot"
	msgSlotContended      = "the requested time slot was just taken, please try another one"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("POST /reservations - Invalid input: %v", err)
			handlers.RespondError(w, http.StatusBadRequest, domain.KindValidation, validationMessage(err))

		case errors.Is(err, createReservation.ErrTooLateToBook), errors.Is(err, domain.ErrPastTime):
			h.logger.Warn("POST /reservations - Too late to book: date=%s, time=%q", req.Date, req.Time)
			handlers.RespondError(w, http.StatusBadRequest, domain.KindPastTime, msgTooLateToBook)

		case errors.Is(err, createReservation.ErrConflictRetriesExhausted):
			h.logger.Warn("POST /reservations - Lost every allocation race: date=%s, time=%q", req.Date, req.Time)
			handlers.RespondConflict(w, domain.KindSlotUnavailable, msgSlotContended)

		case errors.Is(err, domain.ErrSlotUnavailable):
			h.logger.Warn("POST /reservations - Slot full: date=%s, time=%q", req.Date, req.Time)
			handlers.RespondConflict(w, domain.KindSlotUnavailable, msgSlotFull)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: date=%s, time=%q, error=%v",
				req.Date, req.Time, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Reservation created: id=%s, date=%s, time=%q, tables=%v",
		result.ID, req.Date, result.Slot.Label(), result.TableNumbers)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}

// validationMessage exposes the field-level reason, without the package prefixes
func validationMessage(err error) string {
	if reason := handlers.Reason(err); reason != "" {
		return reason
	}
	return msgInvalidInput
}
