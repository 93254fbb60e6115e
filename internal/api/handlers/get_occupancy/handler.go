package get_occupancy

import (
	"errors"
	"net/http"

	"github.com/lasierra/table-reservations/internal/api/handlers"
	"github.com/lasierra/table-reservations/internal/domain"
)

const (
	msgMissingDate = "date is required"
	msgInvalidDate = "invalid date, expected YYYY-MM-DD"
)

type Handler struct {
	projector OccupancyProjector
	logger    Logger
}

func NewHandler(projector OccupancyProjector, logger Logger) *Handler {
	return &Handler{
		projector: projector,
		logger:    logger,
	}
}

// Handle GET /api/occupancy
// Query params: date (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /occupancy - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	day, err := domain.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("GET /occupancy - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	grid, err := h.projector.Project(r.Context(), day)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("GET /occupancy - Invalid request: date=%s, error=%v", dateStr, err)
			handlers.RespondBadRequest(w, msgInvalidDate)

		default:
			h.logger.Error("GET /occupancy - Failed to project occupancy: date=%s, error=%v", dateStr, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /occupancy - Occupancy projected: date=%s, reserved=%d, percent=%d",
		dateStr, grid.TotalReserved, grid.OccupancyPercent)
	handlers.RespondJSON(w, http.StatusOK, FromDomainGrid(grid))
}
