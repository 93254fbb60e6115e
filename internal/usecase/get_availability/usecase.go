package get_availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// UseCase reports free tables per slot
type UseCase struct {
	checker AvailabilityChecker
	logger  Logger
}

// NewUseCase creates a new instance of the use case
func NewUseCase(checker AvailabilityChecker, logger Logger) *UseCase {
	return &UseCase{
		checker: checker,
		logger:  logger,
	}
}

// Execute returns every slot of the day, or only the requested one
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	date, slot, err := validateRequest(req)
	if err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	if slot != nil {
		uc.logger.Info("GetAvailability: date=%s slot=%q", date.Format(domain.DateFormat), slot.Label())

		availability, err := uc.checker.SlotAvailability(ctx, date, *slot)
		if err != nil {
			return nil, uc.wrapError(date, err)
		}
		return &Response{Date: date, Slots: []Slot{fromDomain(*availability)}}, nil
	}

	uc.logger.Info("GetAvailability: date=%s", date.Format(domain.DateFormat))

	day, err := uc.checker.DayAvailability(ctx, date)
	if err != nil {
		return nil, uc.wrapError(date, err)
	}

	resp := &Response{Date: date, Slots: make([]Slot, 0, len(day))}
	for _, a := range day {
		resp.Slots = append(resp.Slots, fromDomain(a))
	}
	return resp, nil
}

func (uc *UseCase) wrapError(date time.Time, err error) error {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrStorage) {
		uc.logger.Error("GetAvailability: failed for date=%s: %v", date.Format(domain.DateFormat), err)
		return err
	}
	uc.logger.Error("GetAvailability: unexpected error for date=%s: %v", date.Format(domain.DateFormat), err)
	return fmt.Errorf("%w: %w: %w", domain.ErrStorage, ErrInternal, err)
}
