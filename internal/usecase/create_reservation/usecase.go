package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lasierra/table-reservations/internal/domain"
	reservationRepo "github.com/lasierra/table-reservations/internal/infra/storage/reservation"
	"github.com/lasierra/table-reservations/pkg/txmanager"
)

const (
	defaultMaxAttempts = 3
	metricsOperation   = "create"
)

// UseCase books a table for a guest
type UseCase struct {
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

// NewUseCase creates a new instance of the use case
func NewUseCase(
	reservationRepo ReservationRepository,
	checker AvailabilityChecker,
	allocator TableAllocator,
	txManager TransactionManager,
	cache OccupancyCache,
	publisher EventPublisher,
	metrics Metrics,
	options Options,
	logger Logger,
) *UseCase {
	if options.Location == nil {
		options.Location = time.Local
	}
	if options.MaxAttempts < 1 {
		options.MaxAttempts = defaultMaxAttempts
	}
	return &UseCase{
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

// Execute validates the request, checks the time, then checks capacity, allocates a
// table and persists a confirmed reservation in one serializable transaction.
// A lost race on the allocated table re-runs the transaction; when attempts run
// out the request fails with domain.ErrSlotUnavailable.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req != nil {
		uc.logger.Info("CreateReservation: email=%s, date=%s, time=%q, guests=%d",
			req.Email, req.Date, req.Time, req.Guests)
	}

	// 1. Field validation, no store access
	valid, err := validateRequest(req)
	if err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		uc.metrics.IncReservation(metricsOperation, domain.KindValidation)
		return nil, err
	}

	// 2. Time validity
	now := uc.timeProvider.Now()
	if err := validateBookingTime(valid.date, valid.slot, now, uc.options.MinNotice, uc.options.Location); err != nil {
		uc.logger.Warn("CreateReservation: booking time validation failed: %v", err)
		uc.metrics.IncReservation(metricsOperation, domain.KindPastTime)
		return nil, err
	}

	// 3. Check, allocate and persist atomically, retrying lost races
	var created *domain.Reservation
	for attempt := 1; ; attempt++ {
		created, err = uc.book(ctx, valid, now)
		if err == nil || !isConflict(err) || attempt >= uc.options.MaxAttempts {
			break
		}
		uc.metrics.IncAllocationRetry()
		uc.logger.Warn("CreateReservation: conflict on date=%s slot=%q, retrying (attempt %d/%d): %v",
			valid.date.Format(domain.DateFormat), valid.slot.Label(), attempt, uc.options.MaxAttempts, err)
	}

	if err != nil {
		err = classifyError(err)
		uc.metrics.IncReservation(metricsOperation, domain.ErrorKind(err))
		if errors.Is(err, domain.ErrSlotUnavailable) {
			uc.logger.Warn("CreateReservation: slot unavailable date=%s slot=%q: %v",
				valid.date.Format(domain.DateFormat), valid.slot.Label(), err)
		} else {
			uc.logger.Error("CreateReservation: failed to create reservation: %v", err)
		}
		return nil, err
	}

	uc.metrics.IncReservation(metricsOperation, "created")
	uc.logger.Info("CreateReservation: successfully created reservation id=%s table=%v date=%s slot=%q",
		created.ID, created.TableNumbers, created.Date.Format(domain.DateFormat), created.Slot.Label())

	// 4. Post-commit side effects never fail the booking
	if err := uc.cache.Invalidate(ctx, created.Date); err != nil {
		uc.logger.Warn("CreateReservation: failed to invalidate occupancy cache date=%s: %v",
			created.Date.Format(domain.DateFormat), err)
	}
	event := domain.NewReservationEvent(domain.EventReservationCreated, created, now)
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("CreateReservation: failed to publish event id=%s: %v", created.ID, err)
	}

	return fromDomain(created), nil
}

// book runs one serializable attempt of check -> allocate -> persist
func (uc *UseCase) book(ctx context.Context, req *validRequest, now time.Time) (*domain.Reservation, error) {
	var result *domain.Reservation

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		available, err := uc.checker.IsSlotAvailable(txCtx, req.date, req.slot)
		if err != nil {
			return err
		}
		if !available {
			return fmt.Errorf("%w: %w: date=%s slot=%q",
				domain.ErrSlotUnavailable, ErrSlotFull, req.date.Format(domain.DateFormat), req.slot.Label())
		}

		table, err := uc.allocator.NextAvailableTable(txCtx, req.date, req.slot)
		if err != nil {
			return err
		}

		reservation := &domain.Reservation{
			ID:           uuid.NewString(),
			Name:         req.name,
			Email:        req.email,
			Phone:        req.phone,
			Date:         req.date,
			Slot:         req.slot,
			Guests:       req.guests,
			TableNumbers: []int{table},
			Status:       domain.StatusConfirmed,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		storeCtx, cancel := uc.storeContext(txCtx)
		defer cancel()

		created, err := uc.reservationRepo.Create(storeCtx, reservation)
		if err != nil {
			return err
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *UseCase) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.options.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, uc.options.StoreTimeout)
}

// isConflict reports a lost race that a fresh attempt may win
func isConflict(err error) bool {
	return errors.Is(err, reservationRepo.ErrTableTaken) || errors.Is(err, txmanager.ErrConflict)
}

// classifyError maps any failure onto the domain error taxonomy
func classifyError(err error) error {
	switch {
	case isConflict(err):
		return fmt.Errorf("%w: %w: %v", domain.ErrSlotUnavailable, ErrConflictRetriesExhausted, err)
	case errors.Is(err, domain.ErrSlotUnavailable),
		errors.Is(err, domain.ErrStorage),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrPastTime):
		return err
	default:
		return fmt.Errorf("%w: %w: %w", domain.ErrStorage, ErrInternal, err)
	}
}
