package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// Checker decides whether a date+slot still has a free table.
// The unit of scarcity is a table: capacity is TableCount tables per slot,
// party size is irrelevant here.
type Checker struct {
	repo         ReservationRepository
	location     *time.Location
	storeTimeout time.Duration
	timeProvider TimeProvider
	logger       Logger
}

// NewChecker creates a new availability checker.
// location is the restaurant time zone, storeTimeout bounds each store call (0 = no bound).
func NewChecker(repo ReservationRepository, location *time.Location, storeTimeout time.Duration, logger Logger) *Checker {
	if location == nil {
		location = time.Local
	}
	return &Checker{
		repo:         repo,
		location:     location,
		storeTimeout: storeTimeout,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// IsSlotAvailable reports whether fewer than TableCount tables are held in date+slot.
// A store failure yields false together with an error wrapping domain.ErrStorage,
// never a silent "available".
func (c *Checker) IsSlotAvailable(ctx context.Context, date time.Time, slot domain.Slot) (bool, error) {
	if !slot.Valid() {
		return false, fmt.Errorf("%w: unknown time slot", domain.ErrValidation)
	}

	storeCtx, cancel := c.storeContext(ctx)
	defer cancel()

	inUse, err := c.repo.CountTablesInUse(storeCtx, date, slot)
	if err != nil {
		c.logger.Error("IsSlotAvailable: failed to count tables date=%s slot=%q: %v",
			date.Format(domain.DateFormat), slot.Label(), err)
		return false, fmt.Errorf("%w: %w: date=%s slot=%q: %w",
			domain.ErrStorage, ErrCheckFailed, date.Format(domain.DateFormat), slot.Label(), err)
	}

	available := inUse < domain.TableCount
	if !available {
		c.logger.Info("IsSlotAvailable: slot full date=%s slot=%q tables=%d/%d",
			date.Format(domain.DateFormat), slot.Label(), inUse, domain.TableCount)
	}
	return available, nil
}

// SlotAvailability returns the capacity of a single slot
func (c *Checker) SlotAvailability(ctx context.Context, date time.Time, slot domain.Slot) (*domain.SlotAvailability, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: unknown time slot", domain.ErrValidation)
	}

	storeCtx, cancel := c.storeContext(ctx)
	defer cancel()

	inUse, err := c.repo.CountTablesInUse(storeCtx, date, slot)
	if err != nil {
		c.logger.Error("SlotAvailability: failed to count tables date=%s slot=%q: %v",
			date.Format(domain.DateFormat), slot.Label(), err)
		return nil, fmt.Errorf("%w: %w: %w", domain.ErrStorage, ErrCheckFailed, err)
	}

	result := c.buildAvailability(date, slot, inUse, c.timeProvider.Now())
	return &result, nil
}

// DayAvailability returns the capacity of every slot of a day in chronological order
func (c *Checker) DayAvailability(ctx context.Context, date time.Time) ([]domain.SlotAvailability, error) {
	storeCtx, cancel := c.storeContext(ctx)
	defer cancel()

	counts, err := c.repo.CountTablesInUseByDay(storeCtx, date)
	if err != nil {
		c.logger.Error("DayAvailability: failed to count tables date=%s: %v", date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: %w: %w", domain.ErrStorage, ErrCheckFailed, err)
	}

	now := c.timeProvider.Now()
	slots := domain.AllSlots()
	result := make([]domain.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		result = append(result, c.buildAvailability(date, slot, counts[slot], now))
	}

	return result, nil
}

func (c *Checker) buildAvailability(date time.Time, slot domain.Slot, inUse int, now time.Time) domain.SlotAvailability {
	free := domain.TableCount - inUse
	if free < 0 {
		free = 0
	}
	return domain.SlotAvailability{
		Slot:        slot,
		TablesInUse: inUse,
		TablesFree:  free,
		TotalTables: domain.TableCount,
		Temporal:    domain.TemporalStatusAt(slot.StartOn(date, c.location), now),
	}
}

func (c *Checker) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.storeTimeout)
}
