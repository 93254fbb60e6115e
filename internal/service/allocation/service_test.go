package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lasierra/table-reservations/internal/domain"
	"github.com/lasierra/table-reservations/internal/infra/storage/database"
	"github.com/lasierra/table-reservations/pkg/logger"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) TakenTables(ctx context.Context, date time.Time, slot domain.Slot) ([]int, error) {
	args := m.Called(ctx, date, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

var testDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestNextAvailableTable(t *testing.T) {
	allTables := domain.Tables()

	tests := []struct {
		name  string
		taken []int
		want  int
	}{
		{name: "empty slot", taken: []int{}, want: 1},
		{name: "first tables taken", taken: []int{1, 2, 3}, want: 4},
		{name: "gap is reused", taken: []int{1, 2, 4, 5}, want: 3},
		{name: "unsorted input", taken: []int{3, 1, 2}, want: 4},
		{name: "last table", taken: allTables[:domain.TableCount-1], want: domain.TableCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{}
			repo.On("TakenTables", mock.Anything, testDate, domain.Slot(2)).Return(tt.taken, nil)

			table, err := NewAllocator(repo, time.Second, logger.NewNop()).
				NextAvailableTable(context.Background(), testDate, 2)

			require.NoError(t, err)
			assert.Equal(t, tt.want, table)
		})
	}
}

func TestNextAvailableTable_ExhaustedDoesNotWrapAround(t *testing.T) {
	repo := &mockRepository{}
	repo.On("TakenTables", mock.Anything, testDate, domain.Slot(0)).Return(domain.Tables(), nil)

	table, err := NewAllocator(repo, 0, logger.NewNop()).NextAvailableTable(context.Background(), testDate, 0)

	assert.Zero(t, table)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	assert.ErrorIs(t, err, ErrNoFreeTable)
}

func TestNextAvailableTable_StorageFailure(t *testing.T) {
	repo := &mockRepository{}
	repo.On("TakenTables", mock.Anything, testDate, domain.Slot(0)).Return(nil, errors.New("broken pipe"))

	_, err := NewAllocator(repo, 0, logger.NewNop()).NextAvailableTable(context.Background(), testDate, 0)

	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestNextAvailableTable_StorageFailureKeepsDriverError(t *testing.T) {
	repo := &mockRepository{}
	repo.On("TakenTables", mock.Anything, testDate, domain.Slot(0)).
		Return(nil, &pq.Error{Code: "40001", Message: "could not serialize access"})

	_, err := NewAllocator(repo, 0, logger.NewNop()).NextAvailableTable(context.Background(), testDate, 0)

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.True(t, database.IsSerializationFailure(err), "serialization failure must stay retryable: %v", err)
}
