package list_reservations

import (
	"errors"
	"net/http"

	"github.com/lasierra/table-reservations/internal/api/handlers"
	"github.com/lasierra/table-reservations/internal/domain"
)

const msgInvalidParams = "invalid query parameters"

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

// Handle GET /api/reservations
// Query params: status, from, to, email (all optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceReq := ToServiceRequest(r.URL.Query())

	result, err := h.service.List(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("GET /reservations - Invalid parameters: %v", err)
			msg := handlers.Reason(err)
			if msg == "" {
				msg = msgInvalidParams
			}
			handlers.RespondBadRequest(w, msg)

		default:
			h.logger.Error("GET /reservations - Failed to list reservations: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /reservations - Reservations retrieved: count=%d", len(result.Reservations))
	handlers.RespondJSON(w, http.StatusOK, result)
}
