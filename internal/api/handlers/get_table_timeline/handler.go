package get_table_timeline

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lasierra/table-reservations/internal/api/handlers"
	"github.com/lasierra/table-reservations/internal/domain"
)

const (
	msgInvalidTable  = "invalid table number"
	msgInvalidExpand = "invalid expand value, expected true or false"
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

// Handle GET /api/tables/{tableNumber}/reservations
// Query params: expand (optional bool, default false)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tableStr := mux.Vars(r)["tableNumber"]
	table, err := strconv.Atoi(tableStr)
	if err != nil || !domain.IsValidTable(table) {
		h.logger.Warn("GET /tables/{tableNumber}/reservations - Invalid table number: %q", tableStr)
		handlers.RespondBadRequest(w, msgInvalidTable)
		return
	}

	expanded := false
	if v := r.URL.Query().Get("expand"); v != "" {
		expanded, err = strconv.ParseBool(v)
		if err != nil {
			h.logger.Warn("GET /tables/{tableNumber}/reservations - Invalid expand: %q", v)
			handlers.RespondBadRequest(w, msgInvalidExpand)
			return
		}
	}

	timeline, err := h.projector.TableTimeline(r.Context(), table, expanded)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			h.logger.Warn("GET /tables/{tableNumber}/reservations - Invalid request: table=%d, error=%v", table, err)
			handlers.RespondBadRequest(w, msgInvalidTable)

		default:
			h.logger.Error("GET /tables/{tableNumber}/reservations - Failed to get timeline: table=%d, error=%v", table, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /tables/{tableNumber}/reservations - Timeline retrieved: table=%d, total=%d, more=%d",
		table, timeline.Total, timeline.MoreCount)
	handlers.RespondJSON(w, http.StatusOK, FromDomainTimeline(timeline))
}
