package occupancy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// CollapsedTimelineSize reservations shown by a collapsed table timeline
const CollapsedTimelineSize = 3

// ErrProjection returned when the reservations of a day cannot be loaded
var ErrProjection = errors.New("occupancy: failed to load reservations")

// Projector derives table x slot occupancy from stored reservations.
// Nothing it computes is persisted.
type Projector struct {
	repo         ReservationRepository
	cache        DayCache
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewProjector creates a projector. cache may be nil.
func NewProjector(repo ReservationRepository, cache DayCache, location *time.Location, logger Logger) *Projector {
	if location == nil {
		location = time.Local
	}
	return &Projector{
		repo:         repo,
		cache:        cache,
		location:     location,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Project builds the occupancy grid of day. Slots that have already passed are left out.
func (p *Projector) Project(ctx context.Context, day time.Time) (*domain.OccupancyGrid, error) {
	day = domain.DateOnly(day)

	reservations, err := p.dayReservations(ctx, day)
	if err != nil {
		return nil, err
	}

	now := p.timeProvider.Now()
	grid := &domain.OccupancyGrid{
		Date:        day,
		GeneratedAt: now,
		Tables:      make([]domain.TableOccupancy, 0, domain.TableCount),
	}

	// (table, slot) -> reservation
	cells := make(map[[2]int]*domain.Reservation, len(reservations))
	for _, r := range reservations {
		for _, table := range r.TableNumbers {
			key := [2]int{table, int(r.Slot)}
			if _, taken := cells[key]; !taken {
				cells[key] = r
			}
		}
	}

	visible := make([]domain.Slot, 0, domain.SlotCount())
	temporal := make(map[domain.Slot]domain.TemporalStatus, domain.SlotCount())
	for _, slot := range domain.AllSlots() {
		status := domain.TemporalStatusAt(slot.StartOn(day, p.location), now)
		if status == domain.TemporalPassed {
			continue
		}
		visible = append(visible, slot)
		temporal[slot] = status
	}

	for _, table := range domain.Tables() {
		row := domain.TableOccupancy{
			TableNumber: table,
			Capacity:    domain.TableCapacity,
			Slots:       make([]domain.SlotCell, 0, len(visible)),
		}

		for _, slot := range visible {
			cell := domain.SlotCell{Slot: slot, Temporal: temporal[slot], Status: domain.CellFree}
			if r, ok := cells[[2]int{table, int(slot)}]; ok {
				cell.Status = domain.CellReserved
				cell.Reservation = domain.NewReservationRef(r)
				row.ReservedCount++
			}
			row.Slots = append(row.Slots, cell)
		}

		row.OccupancyPercent = percent(row.ReservedCount, domain.SlotCount())
		grid.TotalReserved += row.ReservedCount
		grid.Tables = append(grid.Tables, row)
	}

	grid.OccupancyPercent = percent(grid.TotalReserved, domain.TableCount*domain.SlotCount())

	p.logger.Info("Project: date=%s reservations=%d visible_slots=%d reserved_cells=%d",
		day.Format(domain.DateFormat), len(reservations), len(visible), grid.TotalReserved)

	return grid, nil
}

// TableTimeline lists the upcoming non-cancelled reservations of a table, newest created first.
// The collapsed view keeps CollapsedTimelineSize of them and reports the rest in MoreCount.
func (p *Projector) TableTimeline(ctx context.Context, table int, expanded bool) (*domain.TableTimeline, error) {
	if !domain.IsValidTable(table) {
		return nil, fmt.Errorf("%w: table %d is not between 1 and %d", domain.ErrValidation, table, domain.TableCount)
	}

	now := p.timeProvider.Now()
	today := domain.DateOnly(now.In(p.location))

	reservations, err := p.repo.List(ctx, domain.ReservationFilter{
		Statuses:    domain.VisibleStatuses,
		DateFrom:    &today,
		TableNumber: &table,
	})
	if err != nil {
		p.logger.Error("TableTimeline: failed to list reservations table=%d: %v", table, err)
		return nil, fmt.Errorf("%w: %w: TableTimeline - table %d: %w", domain.ErrStorage, ErrProjection, table, err)
	}

	upcoming := make([]*domain.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if domain.TemporalStatusAt(r.Start(p.location), now) == domain.TemporalPassed {
			continue
		}
		upcoming = append(upcoming, r)
	}

	timeline := &domain.TableTimeline{
		TableNumber:  table,
		Reservations: upcoming,
		Total:        len(upcoming),
		Expanded:     expanded,
	}
	if !expanded && len(upcoming) > CollapsedTimelineSize {
		timeline.Reservations = upcoming[:CollapsedTimelineSize]
		timeline.MoreCount = len(upcoming) - CollapsedTimelineSize
	}

	return timeline, nil
}

// dayReservations loads the non-cancelled reservations of day, through the cache when one is set
func (p *Projector) dayReservations(ctx context.Context, day time.Time) ([]*domain.Reservation, error) {
	fillCache := false
	var generation int64
	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, day)
		switch {
		case err != nil:
			p.logger.Warn("Project: cache read failed date=%s: %v", day.Format(domain.DateFormat), err)
		case ok:
			return cached, nil
		}

		// taken before the store read so a concurrent invalidation wins
		generation, err = p.cache.Generation(ctx, day)
		if err != nil {
			p.logger.Warn("Project: cache generation read failed date=%s: %v", day.Format(domain.DateFormat), err)
		} else {
			fillCache = true
		}
	}

	reservations, err := p.repo.List(ctx, domain.ReservationFilter{
		Statuses: domain.VisibleStatuses,
		DateFrom: &day,
		DateTo:   &day,
	})
	if err != nil {
		p.logger.Error("Project: failed to list reservations date=%s: %v", day.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: %w: Project - date %s: %w", domain.ErrStorage, ErrProjection, day.Format(domain.DateFormat), err)
	}

	if fillCache {
		if err := p.cache.Set(ctx, day, generation, reservations); err != nil {
			p.logger.Warn("Project: cache write failed date=%s: %v", day.Format(domain.DateFormat), err)
		}
	}

	return reservations, nil
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
