package create_reservation

import (
	"fmt"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

type validRequest struct {
	name   string
	email  string
	phone  string
	date   time.Time
	slot   domain.Slot
	guests int
}

// validateRequest checks every field before the store is touched
func validateRequest(req *Request) (*validRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: %w: empty request", domain.ErrValidation, ErrInvalidInput)
	}

	checks := []error{
		domain.ValidateName(req.Name),
		domain.ValidateEmail(req.Email),
		domain.ValidatePhone(req.Phone),
		domain.ValidateGuests(req.Guests),
	}
	for _, err := range checks {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	slot, err := domain.ParseSlot(req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	r := &domain.Reservation{Name: req.Name, Email: req.Email, Phone: req.Phone, Date: date}
	r.Normalize()

	return &validRequest{
		name:   r.Name,
		email:  r.Email,
		phone:  r.Phone,
		date:   r.Date,
		slot:   slot,
		guests: req.Guests,
	}, nil
}

// validateBookingTime requires the slot start to be strictly after now + minNotice
func validateBookingTime(date time.Time, slot domain.Slot, now time.Time, minNotice time.Duration, loc *time.Location) error {
	start := slot.StartOn(date, loc)
	earliest := now.Add(minNotice)
	if !start.After(earliest) {
		return fmt.Errorf("%w: %w: slot %s %s starts at %s, must be after %s",
			domain.ErrPastTime, ErrTooLateToBook, date.Format(domain.DateFormat), slot.Label(),
			start.Format(time.RFC3339), earliest.Format(time.RFC3339))
	}
	return nil
}
