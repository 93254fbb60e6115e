package list_reservations

import (
	"net/url"

	"github.com/lasierra/table-reservations/internal/service/reservations/models"
)

// ToServiceRequest builds the list filter from query params
func ToServiceRequest(query url.Values) *models.ListReservationsRequest {
	req := &models.ListReservationsRequest{}
	if v := query.Get("status"); v != "" {
		req.Status = &v
	}
	if v := query.Get("from"); v != "" {
		req.DateFrom = &v
	}
	if v := query.Get("to"); v != "" {
		req.DateTo = &v
	}
	if v := query.Get("email"); v != "" {
		req.Email = &v
	}
	return req
}
