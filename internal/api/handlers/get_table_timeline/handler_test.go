package get_table_timeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lasierra/table-reservations/internal/domain"
	"github.com/lasierra/table-reservations/pkg/logger"
)

type mockProjector struct {
	mock.Mock
}

func (m *mockProjector) TableTimeline(ctx context.Context, table int, expanded bool) (*domain.TableTimeline, error) {
	args := m.Called(ctx, table, expanded)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TableTimeline), args.Error(1)
}

func serve(p OccupancyProjector, table, query string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tables/"+table+"/reservations?"+query, nil)
	req = mux.SetURLVars(req, map[string]string{"tableNumber": table})
	NewHandler(p, logger.NewNop()).Handle(rec, req)
	return rec
}

func TestHandle_Collapsed(t *testing.T) {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &mockProjector{}
	p.On("TableTimeline", mock.Anything, 5, false).Return(&domain.TableTimeline{
		TableNumber: 5,
		Total:       4,
		MoreCount:   1,
		Reservations: []*domain.Reservation{
			{ID: "r-1", Date: date, Slot: 2, TableNumbers: []int{5}, Status: domain.StatusConfirmed},
		},
	}, nil)

	rec := serve(p, "5", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"moreCount":1`)
	assert.Contains(t, rec.Body.String(), `"time":"9:00 AM"`)
	p.AssertExpectations(t)
}

func TestHandle_Expanded(t *testing.T) {
	p := &mockProjector{}
	p.On("TableTimeline", mock.Anything, 31, true).Return(&domain.TableTimeline{TableNumber: 31, Expanded: true}, nil)

	rec := serve(p, "31", "expand=true")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reservations":[]`)
}

func TestHandle_BadInput(t *testing.T) {
	p := &mockProjector{}

	assert.Equal(t, http.StatusBadRequest, serve(p, "0", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(p, "32", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(p, "x", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(p, "3", "expand=maybe").Code)
	p.AssertNotCalled(t, "TableTimeline", mock.Anything, mock.Anything, mock.Anything)
}
