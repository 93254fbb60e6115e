package create_reservation

import (
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// Request booking request as received from the client
type Request struct {
	Name   string
	Email  string
	Phone  string
	Date   string // "2026-03-01"
	Time   string // slot label, "8:00 AM"
	Guests int
}

// Response created reservation
type Response struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Date         time.Time
	Slot         domain.Slot
	Guests       int
	TableNumbers []int
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Options booking rules
type Options struct {
	// Location restaurant time zone used to interpret date+slot
	Location *time.Location
	// MinNotice minimum time between now and the slot start
	MinNotice time.Duration
	// StoreTimeout bound of each store call, 0 = unbounded
	StoreTimeout time.Duration
	// MaxAttempts attempts when a concurrent booking takes the allocated table
	MaxAttempts int
}

func fromDomain(r *domain.Reservation) *Response {
	tables := make([]int, len(r.TableNumbers))
	copy(tables, r.TableNumbers)
	return &Response{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Date:         r.Date,
		Slot:         r.Slot,
		Guests:       r.Guests,
		TableNumbers: tables,
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
