package reservations

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
	"github.com/lasierra/table-reservations/internal/service/reservations/models"
)

// validPatch parsed update request
type validPatch struct {
	name   *string
	email  *string
	phone  *string
	date   *time.Time
	slot   *domain.Slot
	guests *int
	tables []int
	status *domain.ReservationStatus
}

// validatePatch checks only the fields present in the request
func validatePatch(req *models.UpdateReservationRequest) (*validPatch, error) {
	if req == nil || req.IsEmpty() {
		return nil, fmt.Errorf("%w: %w: no fields to update", domain.ErrValidation, ErrInvalidInput)
	}

	patch := &validPatch{}

	if req.Name != nil {
		if err := domain.ValidateName(*req.Name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		name := strings.TrimSpace(*req.Name)
		patch.name = &name
	}

	if req.Email != nil {
		if err := domain.ValidateEmail(*req.Email); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		email := domain.NormalizeEmail(*req.Email)
		patch.email = &email
	}

	if req.Phone != nil {
		if err := domain.ValidatePhone(*req.Phone); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		phone := strings.TrimSpace(*req.Phone)
		patch.phone = &phone
	}

	if req.Date != nil {
		date, err := domain.ParseDate(*req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		patch.date = &date
	}

	if req.Time != nil {
		slot, err := domain.ParseSlot(*req.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		patch.slot = &slot
	}

	if req.Guests != nil {
		if err := domain.ValidateGuests(*req.Guests); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		guests := *req.Guests
		patch.guests = &guests
	}

	if req.TableNumbers != nil {
		if err := domain.ValidateTables(req.TableNumbers); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		patch.tables = append([]int(nil), req.TableNumbers...)
		sort.Ints(patch.tables)
	}

	if req.Status != nil {
		status, err := domain.ParseReservationStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		patch.status = &status
	}

	return patch, nil
}

// apply writes the present fields onto r
func (p *validPatch) apply(r *domain.Reservation) {
	if p.name != nil {
		r.Name = *p.name
	}
	if p.email != nil {
		r.Email = *p.email
	}
	if p.phone != nil {
		r.Phone = *p.phone
	}
	if p.date != nil {
		r.Date = *p.date
	}
	if p.slot != nil {
		r.Slot = *p.slot
	}
	if p.guests != nil {
		r.Guests = *p.guests
	}
	if p.tables != nil {
		r.TableNumbers = append([]int(nil), p.tables...)
	}
	if p.status != nil {
		r.Status = *p.status
	}
}
