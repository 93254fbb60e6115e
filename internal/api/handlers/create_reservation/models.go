package create_reservation

import (
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
	createReservation "github.com/lasierra/table-reservations/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model
type CreateReservationRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Date   string `json:"date"` // "2026-03-01"
	Time   string `json:"time"` // "8:00 AM"
	Guests int    `json:"guests"`
}

// ReservationResponse HTTP response model
type ReservationResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Guests       int    `json:"guests"`
	TableNumbers []int  `json:"tableNumbers"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func (r *CreateReservationRequest) ToUseCaseRequest() *createReservation.Request {
	return &createReservation.Request{
		Name:   r.Name,
		Email:  r.Email,
		Phone:  r.Phone,
		Date:   r.Date,
		Time:   r.Time,
		Guests: r.Guests,
	}
}

func FromUseCaseResponse(resp *createReservation.Response) *ReservationResponse {
	return &ReservationResponse{
		ID:           resp.ID,
		Name:         resp.Name,
		Email:        resp.Email,
		Phone:        resp.Phone,
		Date:         resp.Date.Format(domain.DateFormat),
		Time:         resp.Slot.Label(),
		Guests:       resp.Guests,
		TableNumbers: resp.TableNumbers,
		Status:       resp.Status,
		CreatedAt:    resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    resp.UpdatedAt.Format(time.RFC3339),
	}
}
