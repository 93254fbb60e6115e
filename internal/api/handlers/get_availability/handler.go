package get_availability

import (
	"errors"
	"net/http"

	"github.com/lasierra/table-reservations/internal/api/handlers"
	getAvailability "github.com/lasierra/table-reservations/internal/usecase/get_availability"
)

const (
	msgMissingDate     = "date is required"
	msgInvalidDate     = "invalid date, expected YYYY-MM-DD"
	msgInvalidTimeSlot = "invalid time slot, expected one of the bookable slots such as 8:00 AM"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/availability
// Query params: date (required, YYYY-MM-DD), time (optional slot label)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /availability - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}
	timeStr := r.URL.Query().Get("time")

	result, err := h.useCase.Execute(r.Context(), ToUseCaseRequest(dateStr, timeStr))
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrInvalidDate):
			h.logger.Warn("GET /availability - Invalid date: date=%q", dateStr)
			handlers.RespondBadRequest(w, msgInvalidDate)

		case errors.Is(err, getAvailability.ErrInvalidTimeSlot):
			h.logger.Warn("GET /availability - Invalid time slot: time=%q", timeStr)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		default:
			h.logger.Error("GET /availability - Failed to get availability: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /availability - Availability retrieved: date=%s, slots_count=%d", dateStr, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
