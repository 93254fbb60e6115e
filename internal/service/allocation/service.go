package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// Allocator picks a concrete table for a date+slot known to have capacity.
// It does not re-check capacity; call it after the availability checker.
type Allocator struct {
	repo         ReservationRepository
	storeTimeout time.Duration
	logger       Logger
}

// NewAllocator creates a new table allocator
func NewAllocator(repo ReservationRepository, storeTimeout time.Duration, logger Logger) *Allocator {
	return &Allocator{
		repo:         repo,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

// NextAvailableTable returns the lowest table number not held by an active
// reservation in the same date+slot. When every table is held it returns an
// error wrapping domain.ErrSlotUnavailable; it never wraps around to table 1.
func (a *Allocator) NextAvailableTable(ctx context.Context, date time.Time, slot domain.Slot) (int, error) {
	storeCtx, cancel := a.storeContext(ctx)
	defer cancel()

	taken, err := a.repo.TakenTables(storeCtx, date, slot)
	if err != nil {
		a.logger.Error("NextAvailableTable: failed to load taken tables date=%s slot=%q: %v",
			date.Format(domain.DateFormat), slot.Label(), err)
		return 0, fmt.Errorf("%w: NextAvailableTable - taken tables: %w", domain.ErrStorage, err)
	}

	table, ok := lowestFree(taken)
	if !ok {
		a.logger.Warn("NextAvailableTable: no free table date=%s slot=%q",
			date.Format(domain.DateFormat), slot.Label())
		return 0, fmt.Errorf("%w: %w", domain.ErrSlotUnavailable, ErrNoFreeTable)
	}

	return table, nil
}

// lowestFree scans 1..TableCount in ascending order
func lowestFree(taken []int) (int, bool) {
	held := make(map[int]struct{}, len(taken))
	for _, t := range taken {
		held[t] = struct{}{}
	}
	for _, table := range domain.Tables() {
		if _, ok := held[table]; !ok {
			return table, true
		}
	}
	return 0, false
}

func (a *Allocator) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.storeTimeout)
}
