package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// Request models

// ListReservationsRequest list filter, every field optional
type ListReservationsRequest struct {
	Status   *string `json:"status,omitempty"`
	DateFrom *string `json:"from,omitempty"` // "2026-03-01"
	DateTo   *string `json:"to,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// ToDomainFilter converts the request into a store filter
func (r *ListReservationsRequest) ToDomainFilter() (domain.ReservationFilter, error) {
	var filter domain.ReservationFilter

	if r.Status != nil && strings.TrimSpace(*r.Status) != "" {
		status, err := domain.ParseReservationStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Statuses = []domain.ReservationStatus{status}
	}

	if r.DateFrom != nil && *r.DateFrom != "" {
		from, err := domain.ParseDate(*r.DateFrom)
		if err != nil {
			return filter, err
		}
		filter.DateFrom = &from
	}

	if r.DateTo != nil && *r.DateTo != "" {
		to, err := domain.ParseDate(*r.DateTo)
		if err != nil {
			return filter, err
		}
		filter.DateTo = &to
	}

	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return filter, fmt.Errorf("%w: 'to' is before 'from'", domain.ErrValidation)
	}

	if r.Email != nil && strings.TrimSpace(*r.Email) != "" {
		email := domain.NormalizeEmail(*r.Email)
		filter.Email = &email
	}

	return filter, nil
}

// UpdateReservationRequest partial update, nil fields are left untouched
type UpdateReservationRequest struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Date         *string `json:"date,omitempty"`
	Time         *string `json:"time,omitempty"`
	Guests       *int    `json:"guests,omitempty"`
	TableNumbers []int   `json:"tableNumbers,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// IsEmpty returns true when no field is set
func (r *UpdateReservationRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil && r.Phone == nil && r.Date == nil &&
		r.Time == nil && r.Guests == nil && r.TableNumbers == nil && r.Status == nil
}

// Response models

// ReservationResponse reservation as exposed to clients
type ReservationResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Date         string    `json:"date"` // "2026-03-01"
	Time         string    `json:"time"` // "8:00 AM"
	Guests       int       `json:"guests"`
	TableNumbers []int     `json:"tableNumbers"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ReservationListResponse list of reservations
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}

// DeleteResponse result of a hard delete
type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Conversion methods

// FromDomainReservation converts a domain model into a DTO
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	if r == nil {
		return nil
	}

	tables := make([]int, len(r.TableNumbers))
	copy(tables, r.TableNumbers)

	return &ReservationResponse{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Date:         r.Date.Format(domain.DateFormat),
		Time:         r.Slot.Label(),
		Guests:       r.Guests,
		TableNumbers: tables,
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// FromDomainReservationList converts a list of domain models into DTOs
func FromDomainReservationList(reservations []*domain.Reservation) *ReservationListResponse {
	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, 0, len(reservations)),
	}

	for _, r := range reservations {
		if item := FromDomainReservation(r); item != nil {
			resp.Reservations = append(resp.Reservations, *item)
		}
	}

	return resp
}
