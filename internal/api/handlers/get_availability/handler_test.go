package get_availability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lasierra/table-reservations/internal/domain"
	getAvailability "github.com/lasierra/table-reservations/internal/usecase/get_availability"
	"github.com/lasierra/table-reservations/pkg/logger"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) Execute(ctx context.Context, req *getAvailability.Request) (*getAvailability.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*getAvailability.Response), args.Error(1)
}

func serve(uc GetAvailabilityUseCase, query string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewHandler(uc, logger.NewNop()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/availability?"+query, nil))
	return rec
}

func TestHandle_SingleSlot(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, &getAvailability.Request{Date: "2026-03-01", Time: "8:45 AM"}).Return(&getAvailability.Response{
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Slots: []getAvailability.Slot{{
			Slot: 1, TablesInUse: 30, TablesFree: 1, TotalTables: domain.TableCount,
			Temporal: domain.TemporalFuture, Bookable: true,
		}},
	}, nil)

	rec := serve(uc, "date=2026-03-01&time=8:45%20AM")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2026-03-01","slots":[
		{"time":"8:45 AM","tablesInUse":30,"tablesFree":1,"totalTables":31,"temporal":"future","bookable":true}
	]}`, rec.Body.String())
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{"missing date", "", nil, http.StatusBadRequest},
		{"invalid date", "date=tomorrow", fmt.Errorf("%w: %w", getAvailability.ErrInvalidDate, domain.ErrValidation), http.StatusBadRequest},
		{"invalid slot", "date=2026-03-01&time=8:30", fmt.Errorf("%w: %w", getAvailability.ErrInvalidTimeSlot, domain.ErrValidation), http.StatusBadRequest},
		{"storage", "date=2026-03-01", errors.New("down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{}
			if tt.err != nil {
				uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			rec := serve(uc, tt.query)

			assert.Equal(t, tt.status, rec.Code)
			uc.AssertExpectations(t)
		})
	}
}
