package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
	reservationRepo "github.com/lasierra/table-reservations/internal/infra/storage/reservation"
	"github.com/lasierra/table-reservations/internal/service/reservations/models"
	"github.com/lasierra/table-reservations/pkg/txmanager"
)

const defaultMaxAttempts = 3

// Options booking rules applied when a reservation moves
type Options struct {
	Location    *time.Location
	MinNotice   time.Duration
	MaxAttempts int
}

// Service manages existing reservations
type Service struct {
	reservationRepo ReservationRepository
	checker         AvailabilityChecker
	allocator       TableAllocator
	txManager       TransactionManager
	cache           OccupancyCache
	publisher       EventPublisher
	metrics         Metrics
	options         Options
	timeProvider    TimeProvider
	logger          Logger
}

// NewService creates a new reservations service
func NewService(
	reservationRepo ReservationRepository,
	checker AvailabilityChecker,
	allocator TableAllocator,
	txManager TransactionManager,
	cache OccupancyCache,
	publisher EventPublisher,
	metrics Metrics,
	options Options,
	logger Logger,
) *Service {
	if options.Location == nil {
		options.Location = time.Local
	}
	if options.MaxAttempts < 1 {
		options.MaxAttempts = defaultMaxAttempts
	}
	return &Service{
		reservationRepo: reservationRepo,
		checker:         checker,
		allocator:       allocator,
		txManager:       txManager,
		cache:           cache,
		publisher:       publisher,
		metrics:         metrics,
		options:         options,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// List returns reservations matching the filter, newest created first
func (s *Service) List(ctx context.Context, req *models.ListReservationsRequest) (*models.ReservationListResponse, error) {
	if req == nil {
		req = &models.ListReservationsRequest{}
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	reservations, err := s.reservationRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: %w: List - repository error: %w", domain.ErrStorage, ErrInternal, err)
	}

	s.logger.Info("List: fetched %d reservations", len(reservations))
	return models.FromDomainReservationList(reservations), nil
}

// GetByID returns a single reservation
func (s *Service) GetByID(ctx context.Context, id string) (*models.ReservationResponse, error) {
	reservation, err := s.get(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}
	return models.FromDomainReservation(reservation), nil
}

// Update applies a partial update. Only present fields are validated.
// Moving an active reservation to another date or slot, or reactivating it,
// re-runs the time, capacity and allocation checks. Explicit table numbers
// are kept as given and guarded by the storage constraint.
func (s *Service) Update(ctx context.Context, id string, req *models.UpdateReservationRequest) (*models.ReservationResponse, error) {
	s.logger.Info("Update: updating reservation id=%s", id)

	patch, err := validatePatch(req)
	if err != nil {
		s.logger.Warn("Update: validation failed for id=%s: %v", id, err)
		s.metrics.IncReservation("update", domain.KindValidation)
		return nil, err
	}

	now := s.timeProvider.Now()

	var before, after *domain.Reservation
	for attempt := 1; ; attempt++ {
		before, after, err = s.applyPatch(ctx, id, patch, now)
		retryable := patch.tables == nil && isConflict(err)
		if err == nil || !retryable || attempt >= s.options.MaxAttempts {
			break
		}
		s.logger.Warn("Update: conflict for id=%s, retrying (attempt %d/%d): %v", id, attempt, s.options.MaxAttempts, err)
	}
	if err != nil {
		err = s.classifyWriteError(err, patch.tables != nil)
		s.metrics.IncReservation("update", domain.ErrorKind(err))
		s.logWriteError("Update", id, err)
		return nil, err
	}

	s.metrics.IncReservation("update", "updated")
	s.logger.Info("Update: successfully updated reservation id=%s status=%s", id, after.Status)

	eventType := domain.EventReservationUpdated
	if after.IsCancelled() && !before.IsCancelled() {
		eventType = domain.EventReservationCancelled
	}
	s.afterWrite(ctx, eventType, after, now, before.Date, after.Date)

	return models.FromDomainReservation(after), nil
}

// Cancel sets a reservation to cancelled and frees its tables.
// Cancelling an already cancelled reservation returns it unchanged.
func (s *Service) Cancel(ctx context.Context, id string) (*models.ReservationResponse, error) {
	s.logger.Info("Cancel: cancelling reservation id=%s", id)

	now := s.timeProvider.Now()
	var result *domain.Reservation
	changed := false

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		reservation, err := s.get(txCtx, "Cancel", id)
		if err != nil {
			return err
		}

		switch {
		case reservation.IsCancelled():
			result = reservation
			return nil
		case reservation.IsCompleted():
			return fmt.Errorf("%w: %w: id=%s status=%s", domain.ErrInvalidTransition, ErrCannotCancel, id, reservation.Status)
		}

		reservation.Status = domain.StatusCancelled
		reservation.UpdatedAt = now
		updated, err := s.reservationRepo.Update(txCtx, reservation)
		if err != nil {
			return err
		}

		result = updated
		changed = true
		return nil
	})
	if err != nil {
		err = s.classifyWriteError(err, false)
		s.metrics.IncReservation("cancel", domain.ErrorKind(err))
		s.logWriteError("Cancel", id, err)
		return nil, err
	}

	if !changed {
		s.logger.Info("Cancel: reservation id=%s already cancelled", id)
		return models.FromDomainReservation(result), nil
	}

	s.metrics.IncReservation("cancel", "cancelled")
	s.logger.Info("Cancel: successfully cancelled reservation id=%s", id)
	s.afterWrite(ctx, domain.EventReservationCancelled, result, now, result.Date)

	return models.FromDomainReservation(result), nil
}

// Delete removes a reservation permanently
func (s *Service) Delete(ctx context.Context, id string) (*models.DeleteResponse, error) {
	s.logger.Info("Delete: deleting reservation id=%s", id)

	now := s.timeProvider.Now()
	var deleted *domain.Reservation

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		reservation, err := s.get(txCtx, "Delete", id)
		if err != nil {
			return err
		}
		if err := s.reservationRepo.Delete(txCtx, id); err != nil {
			return err
		}
		deleted = reservation
		return nil
	})
	if err != nil {
		err = s.classifyWriteError(err, false)
		s.metrics.IncReservation("delete", domain.ErrorKind(err))
		s.logWriteError("Delete", id, err)
		return nil, err
	}

	s.metrics.IncReservation("delete", "deleted")
	s.logger.Info("Delete: successfully deleted reservation id=%s", id)
	s.afterWrite(ctx, domain.EventReservationDeleted, deleted, now, deleted.Date)

	return &models.DeleteResponse{Deleted: true, ID: id}, nil
}

// CompleteEnded marks every active reservation whose slot has ended as completed.
// Returns the number of completed reservations.
func (s *Service) CompleteEnded(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()
	local := now.In(s.options.Location)
	today := domain.DateOnly(local)
	lastEnded := lastEndedSlot(today, now, s.options.Location)

	ids, err := s.reservationRepo.CompleteEnded(ctx, today, lastEnded, now)
	if err != nil {
		s.logger.Error("CompleteEnded: repository error: %v", err)
		return 0, fmt.Errorf("%w: %w: CompleteEnded - repository error: %w", domain.ErrStorage, ErrInternal, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	s.logger.Info("CompleteEnded: completed %d reservations", len(ids))
	for range ids {
		s.metrics.IncReservation("complete", "completed")
	}

	if err := s.cache.Invalidate(ctx, today); err != nil {
		s.logger.Warn("CompleteEnded: failed to invalidate occupancy cache date=%s: %v", today.Format(domain.DateFormat), err)
	}
	for _, id := range ids {
		event := domain.ReservationEvent{
			Type:          domain.EventReservationCompleted,
			ReservationID: id,
			OccurredAt:    now,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("CompleteEnded: failed to publish event id=%s: %v", id, err)
		}
	}

	return len(ids), nil
}

// Helpers

// applyPatch runs one serializable attempt of the update
func (s *Service) applyPatch(ctx context.Context, id string, patch *validPatch, now time.Time) (*domain.Reservation, *domain.Reservation, error) {
	var before, after *domain.Reservation

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		existing, err := s.get(txCtx, "Update", id)
		if err != nil {
			return err
		}
		snapshot := *existing
		snapshot.TableNumbers = append([]int(nil), existing.TableNumbers...)
		before = &snapshot

		updated := existing
		patch.apply(updated)

		if before.IsCompleted() && updated.IsActive() {
			return fmt.Errorf("%w: %w: id=%s", domain.ErrInvalidTransition, ErrCannotReactivate, id)
		}

		moved := !updated.Date.Equal(before.Date) || updated.Slot != before.Slot
		claimsTables := updated.IsActive() && (moved || !before.IsActive())

		if claimsTables {
			if err := s.validateBookingTime(updated.Date, updated.Slot, now); err != nil {
				return err
			}
			if patch.tables == nil {
				table, err := s.allocate(txCtx, updated.Date, updated.Slot)
				if err != nil {
					return err
				}
				updated.TableNumbers = []int{table}
			}
		}

		updated.UpdatedAt = now
		result, err := s.reservationRepo.Update(txCtx, updated)
		if err != nil {
			return err
		}

		after = result
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return before, after, nil
}

func (s *Service) allocate(ctx context.Context, date time.Time, slot domain.Slot) (int, error) {
	available, err := s.checker.IsSlotAvailable(ctx, date, slot)
	if err != nil {
		return 0, err
	}
	if !available {
		return 0, fmt.Errorf("%w: %w: date=%s slot=%q",
			domain.ErrSlotUnavailable, ErrSlotFull, date.Format(domain.DateFormat), slot.Label())
	}
	return s.allocator.NextAvailableTable(ctx, date, slot)
}

func (s *Service) validateBookingTime(date time.Time, slot domain.Slot, now time.Time) error {
	start := slot.StartOn(date, s.options.Location)
	if !start.After(now.Add(s.options.MinNotice)) {
		return fmt.Errorf("%w: %w: slot %s %s", domain.ErrPastTime, ErrTooLateToBook,
			date.Format(domain.DateFormat), slot.Label())
	}
	return nil
}

// get loads a reservation and maps a missing row to domain.ErrNotFound
func (s *Service) get(ctx context.Context, op, id string) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("%s: reservation id=%s not found", op, id)
			return nil, fmt.Errorf("%w: %w: id=%s", domain.ErrNotFound, ErrReservationNotFound, id)
		}
		s.logger.Error("%s: repository error for reservation id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %w: %s - repository error: %w", domain.ErrStorage, ErrInternal, op, err)
	}
	return reservation, nil
}

// afterWrite drops cached occupancy of every touched day and publishes the change
func (s *Service) afterWrite(ctx context.Context, eventType domain.EventType, r *domain.Reservation, now time.Time, dates ...time.Time) {
	seen := make(map[string]struct{}, len(dates))
	for _, date := range dates {
		key := date.Format(domain.DateFormat)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if err := s.cache.Invalidate(ctx, date); err != nil {
			s.logger.Warn("%s: failed to invalidate occupancy cache date=%s: %v", eventType, key, err)
		}
	}

	if err := s.publisher.Publish(ctx, domain.NewReservationEvent(eventType, r, now)); err != nil {
		s.logger.Warn("%s: failed to publish event id=%s: %v", eventType, r.ID, err)
	}
}

func (s *Service) logWriteError(op, id string, err error) {
	switch {
	case errors.Is(err, domain.ErrStorage):
		s.logger.Error("%s: failed for reservation id=%s: %v", op, id, err)
	default:
		s.logger.Warn("%s: rejected for reservation id=%s: %v", op, id, err)
	}
}

// classifyWriteError maps store and transaction failures onto the domain taxonomy
func (s *Service) classifyWriteError(err error, explicitTables bool) error {
	switch {
	case errors.Is(err, reservationRepo.ErrTableTaken) && explicitTables:
		return fmt.Errorf("%w: %w: %v", domain.ErrSlotUnavailable, ErrTablesTaken, err)
	case isConflict(err):
		return fmt.Errorf("%w: %w: conflicting bookings: %v", domain.ErrSlotUnavailable, ErrSlotFull, err)
	case errors.Is(err, reservationRepo.ErrInvalidReservation):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrPastTime),
		errors.Is(err, domain.ErrSlotUnavailable),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStorage):
		return err
	default:
		return fmt.Errorf("%w: %w: %w", domain.ErrStorage, ErrInternal, err)
	}
}

func isConflict(err error) bool {
	return errors.Is(err, reservationRepo.ErrTableTaken) || errors.Is(err, txmanager.ErrConflict)
}

// lastEndedSlot returns the latest slot of today that has ended by now, -1 when none has
func lastEndedSlot(today, now time.Time, loc *time.Location) domain.Slot {
	last := domain.Slot(-1)
	for _, slot := range domain.AllSlots() {
		if slot.EndOn(today, loc).After(now) {
			break
		}
		last = slot
	}
	return last
}
