package get_table_timeline

import (
	"github.com/lasierra/table-reservations/internal/domain"
	"github.com/lasierra/table-reservations/internal/service/reservations/models"
)

// TimelineResponse HTTP response model
type TimelineResponse struct {
	TableNumber  int                          `json:"tableNumber"`
	Total        int                          `json:"total"`
	MoreCount    int                          `json:"moreCount"`
	Expanded     bool                         `json:"expanded"`
	Reservations []models.ReservationResponse `json:"reservations"`
}

func FromDomainTimeline(t *domain.TableTimeline) *TimelineResponse {
	return &TimelineResponse{
		TableNumber:  t.TableNumber,
		Total:        t.Total,
		MoreCount:    t.MoreCount,
		Expanded:     t.Expanded,
		Reservations: models.FromDomainReservationList(t.Reservations).Reservations,
	}
}
