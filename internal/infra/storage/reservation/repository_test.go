package reservation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasierra/table-reservations/internal/domain"
	"github.com/lasierra/table-reservations/internal/infra/storage/database/databasetest"
	"github.com/lasierra/table-reservations/pkg/ptr"
)

var (
	testDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	baseTime = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, dialect := databasetest.NewTestDB(t)
	return NewRepository(db, dialect)
}

func newReservation(id string, slot domain.Slot, tables []int, status domain.ReservationStatus, createdAt time.Time) *domain.Reservation {
	return &domain.Reservation{
		ID:           id,
		Name:         "Guest " + id,
		Email:        fmt.Sprintf("Guest.%s@Example.com ", id),
		Phone:        "5551234567",
		Date:         testDate,
		Slot:         slot,
		Guests:       2,
		TableNumbers: tables,
		Status:       status,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newReservation("r1", 0, []int{4, 3}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)
	assert.Equal(t, "guest.r1@example.com", created.Email)

	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Guest r1", got.Name)
	assert.Equal(t, "guest.r1@example.com", got.Email)
	assert.Equal(t, testDate, got.Date)
	assert.Equal(t, domain.Slot(0), got.Slot)
	assert.Equal(t, []int{3, 4}, got.TableNumbers)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
	assert.True(t, baseTime.Equal(got.CreatedAt))

	taken, err := repo.TakenTables(ctx, testDate, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, taken)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestRepository_Create_InvalidReservation(t *testing.T) {
	repo := newTestRepository(t)

	res := newReservation("r1", 0, []int{1, 2, 3}, domain.StatusConfirmed, baseTime)
	_, err := repo.Create(context.Background(), res)

	assert.ErrorIs(t, err, ErrInvalidReservation)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRepository_Create_TableTakenInSameSlot(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newReservation("r1", 0, []int{5}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newReservation("r2", 0, []int{5}, domain.StatusPending, baseTime))
	assert.ErrorIs(t, err, ErrTableTaken)

	// The failed insert left nothing behind
	_, err = repo.GetByID(ctx, "r2")
	assert.ErrorIs(t, err, ErrReservationNotFound)

	// Same table in another slot is fine
	_, err = repo.Create(ctx, newReservation("r3", 1, []int{5}, domain.StatusConfirmed, baseTime))
	assert.NoError(t, err)
}

func TestRepository_InactiveReservationsHoldNoTables(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newReservation("r1", 2, []int{7}, domain.StatusCancelled, baseTime))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newReservation("r2", 2, []int{7}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)

	count, err := repo.CountTablesInUse(ctx, testDate, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRepository_CountTablesInUse(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newReservation("r1", 3, []int{1, 2}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newReservation("r2", 3, []int{3}, domain.StatusPending, baseTime))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newReservation("r3", 5, []int{1}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)

	count, err := repo.CountTablesInUse(ctx, testDate, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	byDay, err := repo.CountTablesInUseByDay(ctx, testDate)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Slot]int{3: 3, 5: 1}, byDay)

	otherDay, err := repo.CountTablesInUse(ctx, testDate.AddDate(0, 0, 1), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, otherDay)
}

func TestRepository_List(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newReservation("r1", 0, []int{1}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newReservation("r2", 1, []int{13}, domain.StatusCancelled, baseTime.Add(time.Minute)))
	require.NoError(t, err)
	later := newReservation("r3", 1, []int{3}, domain.StatusConfirmed, baseTime.Add(2*time.Minute))
	later.Date = testDate.AddDate(0, 0, 2)
	_, err = repo.Create(ctx, later)
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		all, err := repo.List(ctx, domain.ReservationFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "r3", all[0].ID)
		assert.Equal(t, "r2", all[1].ID)
		assert.Equal(t, "r1", all[2].ID)
	})

	t.Run("by status", func(t *testing.T) {
		active, err := repo.List(ctx, domain.ReservationFilter{Statuses: domain.ActiveStatuses})
		require.NoError(t, err)
		assert.Len(t, active, 2)
	})

	t.Run("by date range", func(t *testing.T) {
		day, err := repo.List(ctx, domain.ReservationFilter{DateFrom: &testDate, DateTo: &testDate})
		require.NoError(t, err)
		assert.Len(t, day, 2)
	})

	t.Run("by table matches whole numbers only", func(t *testing.T) {
		table3, err := repo.List(ctx, domain.ReservationFilter{TableNumber: ptr.Ptr(3)})
		require.NoError(t, err)
		require.Len(t, table3, 1)
		assert.Equal(t, "r3", table3[0].ID)
	})

	t.Run("by email", func(t *testing.T) {
		byEmail, err := repo.List(ctx, domain.ReservationFilter{Email: ptr.Ptr(" GUEST.R1@example.com")})
		require.NoError(t, err)
		require.Len(t, byEmail, 1)
		assert.Equal(t, "r1", byEmail[0].ID)
	})

	t.Run("by slot", func(t *testing.T) {
		slot := domain.Slot(1)
		bySlot, err := repo.List(ctx, domain.ReservationFilter{Slot: &slot})
		require.NoError(t, err)
		assert.Len(t, bySlot, 2)
	})
}

func TestRepository_Update(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	res, err := repo.Create(ctx, newReservation("r1", 0, []int{1}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)

	res.Slot = 4
	res.TableNumbers = []int{8, 9}
	res.Guests = 6
	res.UpdatedAt = baseTime.Add(time.Hour)
	_, err = repo.Update(ctx, res)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.Slot(4), got.Slot)
	assert.Equal(t, 6, got.Guests)
	assert.True(t, baseTime.Add(time.Hour).Equal(got.UpdatedAt))

	oldSlot, err := repo.TakenTables(ctx, testDate, 0)
	require.NoError(t, err)
	assert.Empty(t, oldSlot)

	newSlot, err := repo.TakenTables(ctx, testDate, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 9}, newSlot)
}

func TestRepository_Update_CancelFreesTables(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	res, err := repo.Create(ctx, newReservation("r1", 0, []int{1}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)

	res.Status = domain.StatusCancelled
	_, err = repo.Update(ctx, res)
	require.NoError(t, err)

	count, err := repo.CountTablesInUse(ctx, testDate, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRepository_Update_Conflict(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newReservation("r1", 0, []int{1}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)
	res, err := repo.Create(ctx, newReservation("r2", 0, []int{2}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)

	res.TableNumbers = []int{1}
	_, err = repo.Update(ctx, res)
	assert.ErrorIs(t, err, ErrTableTaken)

	// Rolled back: r2 still holds table 2
	taken, err := repo.TakenTables(ctx, testDate, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, taken)
}

func TestRepository_Update_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Update(context.Background(), newReservation("missing", 0, []int{1}, domain.StatusConfirmed, baseTime))
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newReservation("r1", 0, []int{1}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "r1"))

	_, err = repo.GetByID(ctx, "r1")
	assert.ErrorIs(t, err, ErrReservationNotFound)

	count, err := repo.CountTablesInUse(ctx, testDate, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.ErrorIs(t, repo.Delete(ctx, "r1"), ErrReservationNotFound)
}

func TestRepository_CompleteEnded(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	yesterday := newReservation("old", 10, []int{1}, domain.StatusConfirmed, baseTime)
	yesterday.Date = testDate.AddDate(0, 0, -1)
	_, err := repo.Create(ctx, yesterday)
	require.NoError(t, err)
	_, err = repo.Create(ctx, newReservation("ended", 1, []int{1}, domain.StatusPending, baseTime))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newReservation("upcoming", 2, []int{1}, domain.StatusConfirmed, baseTime))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newReservation("cancelled", 0, []int{2}, domain.StatusCancelled, baseTime))
	require.NoError(t, err)

	now := baseTime.Add(time.Hour)
	ids, err := repo.CompleteEnded(ctx, testDate, 1, now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"old", "ended"}, ids)

	got, err := repo.GetByID(ctx, "ended")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	cancelled, err := repo.GetByID(ctx, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	ended, err := repo.CountTablesInUse(ctx, testDate, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, ended)

	upcoming, err := repo.CountTablesInUse(ctx, testDate, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, upcoming)

	// Nothing left to complete
	ids, err = repo.CompleteEnded(ctx, testDate, 1, now)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
