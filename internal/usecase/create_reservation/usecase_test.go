package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lasierra/table-reservations/internal/domain"
	"github.com/lasierra/table-reservations/internal/infra/storage/database"
	"github.com/lasierra/table-reservations/internal/infra/storage/database/databasetest"
	reservationRepo "github.com/lasierra/table-reservations/internal/infra/storage/reservation"
	"github.com/lasierra/table-reservations/internal/service/allocation"
	"github.com/lasierra/table-reservations/internal/service/availability"
	"github.com/lasierra/table-reservations/pkg/logger"
	"github.com/lasierra/table-reservations/pkg/txmanager"
)

var testNow = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Invalidate(ctx context.Context, date time.Time) error {
	args := m.Called(ctx, date)
	return args.Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	retries  int
}

func (m *countingMetrics) IncReservation(_, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}

func (m *countingMetrics) IncAllocationRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

type testEnv struct {
	uc        *UseCase
	repo      *reservationRepo.Repository
	cache     *mockCache
	publisher *recordingPublisher
	metrics   *countingMetrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, dialect := databasetest.NewTestDB(t)
	repo := reservationRepo.NewRepository(db, dialect)
	log := logger.NewNop()

	txManager := txmanager.NewTransactionManager(db, txmanager.Options{
		SerializableOpts: dialect.SerializableTx,
		MaxAttempts:      3,
		IsRetryable:      database.IsSerializationFailure,
	})

	checker := availability.NewChecker(repo, time.UTC, time.Second, log)
	allocator := allocation.NewAllocator(repo, time.Second, log)

	cache := &mockCache{}
	cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)
	publisher := &recordingPublisher{}
	metrics := &countingMetrics{}

	uc := NewUseCase(repo, checker, allocator, txManager, cache, publisher, metrics, Options{
		Location:     time.UTC,
		StoreTimeout: time.Second,
		MaxAttempts:  3,
	}, log)
	uc.timeProvider = fixedClock{now: testNow}

	return &testEnv{uc: uc, repo: repo, cache: cache, publisher: publisher, metrics: metrics}
}

func newRequest(i int) *Request {
	return &Request{
		Name:   fmt.Sprintf("Guest %d", i),
		Email:  fmt.Sprintf("guest%d@example.com", i),
		Phone:  "+1 (555) 123-4567",
		Date:   "2026-03-01",
		Time:   "8:00 AM",
		Guests: 2,
	}
}

func TestExecute_Success(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.uc.Execute(context.Background(), newRequest(1))

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	assert.Equal(t, []int{1}, resp.TableNumbers)
	assert.Equal(t, domain.Slot(0), resp.Slot)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), resp.Date)
	assert.True(t, testNow.Equal(resp.CreatedAt))

	stored, err := env.repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)

	env.cache.AssertCalled(t, "Invalidate", mock.Anything, resp.Date)
	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, domain.EventReservationCreated, env.publisher.events[0].Type)
	assert.Equal(t, resp.ID, env.publisher.events[0].ReservationID)
	assert.Equal(t, 1, env.metrics.outcomes["created"])
}

func TestExecute_ExhaustsInventory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seen := map[int]bool{}
	for i := 1; i <= domain.TableCount; i++ {
		resp, err := env.uc.Execute(ctx, newRequest(i))
		require.NoError(t, err, "booking %d", i)
		require.Len(t, resp.TableNumbers, 1)
		table := resp.TableNumbers[0]
		assert.False(t, seen[table], "table %d assigned twice", table)
		seen[table] = true
	}
	assert.Len(t, seen, domain.TableCount)

	_, err := env.uc.Execute(ctx, newRequest(domain.TableCount+1))
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	assert.ErrorIs(t, err, ErrSlotFull)
	assert.Equal(t, domain.KindSlotUnavailable, domain.ErrorKind(err))

	// other slots of the same day are untouched
	other := newRequest(99)
	other.Time = "8:45 AM"
	resp, err := env.uc.Execute(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, resp.TableNumbers)
}

func TestExecute_CancelledTableIsReused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var cancelID string
	var cancelTable int
	for i := 1; i <= domain.TableCount; i++ {
		resp, err := env.uc.Execute(ctx, newRequest(i))
		require.NoError(t, err)
		if i == 17 {
			cancelID = resp.ID
			cancelTable = resp.TableNumbers[0]
		}
	}

	stored, err := env.repo.GetByID(ctx, cancelID)
	require.NoError(t, err)
	stored.Status = domain.StatusCancelled
	_, err = env.repo.Update(ctx, stored)
	require.NoError(t, err)

	resp, err := env.uc.Execute(ctx, newRequest(100))
	require.NoError(t, err)
	assert.Equal(t, []int{cancelTable}, resp.TableNumbers)
}

func TestExecute_ConcurrentRequestsForLastTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 1; i < domain.TableCount; i++ {
		_, err := env.uc.Execute(ctx, newRequest(i))
		require.NoError(t, err)
	}

	const contenders = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.uc.Execute(ctx, newRequest(200+i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrSlotUnavailable):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, contenders-1, rejected)

	inUse, err := env.repo.CountTablesInUse(ctx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.TableCount, inUse)
}

func TestExecute_BookingTimeBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{name: "one minute before start", now: time.Date(2026, 3, 1, 7, 59, 0, 0, time.UTC)},
		{name: "exactly at start", now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), wantErr: true},
		{name: "half an hour after start", now: time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC), wantErr: true},
		{name: "previous day", now: time.Date(2026, 2, 28, 21, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.uc.timeProvider = fixedClock{now: tt.now}

			_, err := env.uc.Execute(context.Background(), newRequest(1))

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrPastTime)
			assert.ErrorIs(t, err, ErrTooLateToBook)
			assert.Empty(t, env.publisher.events)
		})
	}
}

func TestExecute_MinNotice(t *testing.T) {
	env := newTestEnv(t)
	env.uc.options.MinNotice = 2 * time.Hour
	env.uc.timeProvider = fixedClock{now: time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC)}

	_, err := env.uc.Execute(context.Background(), newRequest(1))
	assert.ErrorIs(t, err, domain.ErrPastTime)
}

func TestExecute_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Request)
	}{
		{name: "short name", modify: func(r *Request) { r.Name = "A" }},
		{name: "bad email", modify: func(r *Request) { r.Email = "not-an-email" }},
		{name: "bad phone", modify: func(r *Request) { r.Phone = "12ab" }},
		{name: "too many guests", modify: func(r *Request) { r.Guests = domain.MaxGuests + 1 }},
		{name: "no guests", modify: func(r *Request) { r.Guests = 0 }},
		{name: "bad date", modify: func(r *Request) { r.Date = "01/03/2026" }},
		{name: "unknown slot", modify: func(r *Request) { r.Time = "8:30 AM" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := newRequest(1)
			tt.modify(req)

			_, err := env.uc.Execute(context.Background(), req)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, domain.KindValidation, domain.ErrorKind(err))
		})
	}

	t.Run("nil request", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.uc.Execute(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestExecute_SideEffectFailuresDoNotFailBooking(t *testing.T) {
	env := newTestEnv(t)
	env.cache = &mockCache{}
	env.cache.On("Invalidate", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	env.uc.cache = env.cache
	env.publisher.err = errors.New("broker down")

	resp, err := env.uc.Execute(context.Background(), newRequest(1))

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
}

type stubChecker struct {
	available bool
	err       error
}

func (s stubChecker) IsSlotAvailable(context.Context, time.Time, domain.Slot) (bool, error) {
	return s.available, s.err
}

type stubAllocator struct {
	table int
	err   error
}

func (s stubAllocator) NextAvailableTable(context.Context, time.Time, domain.Slot) (int, error) {
	return s.table, s.err
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

type passthroughTx struct{}

func (passthroughTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newStubUseCase(repo ReservationRepository, checker AvailabilityChecker, allocator TableAllocator, metrics *countingMetrics) *UseCase {
	cache := &mockCache{}
	cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)
	uc := NewUseCase(repo, checker, allocator, passthroughTx{}, cache, &recordingPublisher{}, metrics,
		Options{Location: time.UTC, MaxAttempts: 3}, logger.NewNop())
	uc.timeProvider = fixedClock{now: testNow}
	return uc
}

func TestExecute_StorageFailureOfChecker(t *testing.T) {
	checkErr := fmt.Errorf("%w: %w", domain.ErrStorage, availability.ErrCheckFailed)
	uc := newStubUseCase(&mockRepository{}, stubChecker{err: checkErr}, stubAllocator{}, &countingMetrics{})

	_, err := uc.Execute(context.Background(), newRequest(1))

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrSlotUnavailable)
}

func TestExecute_UnclassifiedErrorIsStorage(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))
	uc := newStubUseCase(repo, stubChecker{available: true}, stubAllocator{table: 5}, &countingMetrics{})

	_, err := uc.Execute(context.Background(), newRequest(1))

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestExecute_RetriesLostRaceThenGivesUp(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: table 5", reservationRepo.ErrTableTaken))
	metrics := &countingMetrics{}
	uc := newStubUseCase(repo, stubChecker{available: true}, stubAllocator{table: 5}, metrics)

	_, err := uc.Execute(context.Background(), newRequest(1))

	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	assert.ErrorIs(t, err, ErrConflictRetriesExhausted)
	repo.AssertNumberOfCalls(t, "Create", 3)
	assert.Equal(t, 2, metrics.retries)
}

func TestExecute_RetryWinsAfterConflict(t *testing.T) {
	repo := &mockRepository{}
	repo.On("Create", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: table 5", reservationRepo.ErrTableTaken)).Once()
	repo.On("Create", mock.Anything, mock.Anything).
		Return(&domain.Reservation{ID: "r1", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), TableNumbers: []int{5},
			Status: domain.StatusConfirmed}, nil).Once()
	uc := newStubUseCase(repo, stubChecker{available: true}, stubAllocator{table: 5}, &countingMetrics{})

	resp, err := uc.Execute(context.Background(), newRequest(1))

	require.NoError(t, err)
	assert.Equal(t, "r1", resp.ID)
}

// serializationFailingRepo fails the first TakenTables read the way postgres
// aborts a serializable transaction that lost a race
type serializationFailingRepo struct {
	*reservationRepo.Repository
	mu    sync.Mutex
	calls int
}

func (r *serializationFailingRepo) TakenTables(ctx context.Context, date time.Time, slot domain.Slot) ([]int, error) {
	r.mu.Lock()
	r.calls++
	first := r.calls == 1
	r.mu.Unlock()
	if first {
		return nil, fmt.Errorf("%w: TakenTables - execute query: %w",
			reservationRepo.ErrExecQuery, &pq.Error{Code: "40001", Message: "could not serialize access"})
	}
	return r.Repository.TakenTables(ctx, date, slot)
}

func TestExecute_SerializationFailureIsRetried(t *testing.T) {
	db, dialect := databasetest.NewTestDB(t)
	repo := reservationRepo.NewRepository(db, dialect)
	flaky := &serializationFailingRepo{Repository: repo}
	log := logger.NewNop()

	txManager := txmanager.NewTransactionManager(db, txmanager.Options{
		SerializableOpts: dialect.SerializableTx,
		MaxAttempts:      3,
		IsRetryable:      database.IsSerializationFailure,
	})
	cache := &mockCache{}
	cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)

	uc := NewUseCase(repo,
		availability.NewChecker(repo, time.UTC, time.Second, log),
		allocation.NewAllocator(flaky, time.Second, log),
		txManager, cache, &recordingPublisher{}, &countingMetrics{},
		Options{Location: time.UTC, StoreTimeout: time.Second, MaxAttempts: 3}, log)
	uc.timeProvider = fixedClock{now: testNow}

	resp, err := uc.Execute(context.Background(), newRequest(1))

	require.NoError(t, err)
	assert.Equal(t, []int{1}, resp.TableNumbers)
	assert.Equal(t, 2, flaky.calls)
}

func TestExecute_SerializationFailuresExhaustedIsSlotUnavailable(t *testing.T) {
	serializationErr := fmt.Errorf("%w: %w", domain.ErrStorage, &pq.Error{Code: "40001"})
	metrics := &countingMetrics{}
	log := logger.NewNop()
	txManager := &retryingTx{attempts: 3}

	uc := NewUseCase(&mockRepository{}, stubChecker{err: serializationErr}, stubAllocator{table: 1},
		txManager, noopCache{}, &recordingPublisher{}, metrics,
		Options{Location: time.UTC, MaxAttempts: 1}, log)
	uc.timeProvider = fixedClock{now: testNow}

	_, err := uc.Execute(context.Background(), newRequest(1))

	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	assert.ErrorIs(t, err, ErrConflictRetriesExhausted)
	assert.Equal(t, domain.KindSlotUnavailable, domain.ErrorKind(err))
	assert.Equal(t, 3, txManager.runs)
}

// retryingTx re-runs fn like the transaction manager does for serialization failures
type retryingTx struct {
	attempts int
	runs     int
}

func (m *retryingTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < m.attempts; i++ {
		m.runs++
		if err = fn(ctx); err == nil || !database.IsSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", txmanager.ErrConflict, err)
}

type noopCache struct{}

func (noopCache) Invalidate(context.Context, time.Time) error { return nil }

func TestExecute_AcceptsBrowserTimestampDate(t *testing.T) {
	env := newTestEnv(t)
	req := newRequest(1)
	req.Date = "2026-03-01T00:00:00.000Z"

	resp, err := env.uc.Execute(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), resp.Date)
	assert.Equal(t, []int{1}, resp.TableNumbers)
}
