package get_occupancy

import (
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// OccupancyResponse HTTP response model of the table x slot grid
type OccupancyResponse struct {
	Date             string          `json:"date"`
	GeneratedAt      string          `json:"generatedAt"`
	TotalReserved    int             `json:"totalReserved"`
	OccupancyPercent int             `json:"occupancyPercent"`
	Tables           []TableResponse `json:"tables"`
}

type TableResponse struct {
	TableNumber      int            `json:"tableNumber"`
	Capacity         int            `json:"capacity"`
	ReservedCount    int            `json:"reservedCount"`
	OccupancyPercent int            `json:"occupancyPercent"`
	Slots            []CellResponse `json:"slots"`
}

type CellResponse struct {
	Time        string         `json:"time"`
	Temporal    string         `json:"temporal"`
	Status      string         `json:"status"`
	Reservation *GuestResponse `json:"reservation,omitempty"`
}

// GuestResponse details of the reservation holding a cell
type GuestResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Guests       int    `json:"guests"`
	Time         string `json:"time"`
	TableNumbers []int  `json:"tableNumbers"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
}

func FromDomainGrid(grid *domain.OccupancyGrid) *OccupancyResponse {
	resp := &OccupancyResponse{
		Date:             grid.Date.Format(domain.DateFormat),
		GeneratedAt:      grid.GeneratedAt.Format(time.RFC3339),
		TotalReserved:    grid.TotalReserved,
		OccupancyPercent: grid.OccupancyPercent,
		Tables:           make([]TableResponse, 0, len(grid.Tables)),
	}

	for _, t := range grid.Tables {
		table := TableResponse{
			TableNumber:      t.TableNumber,
			Capacity:         t.Capacity,
			ReservedCount:    t.ReservedCount,
			OccupancyPercent: t.OccupancyPercent,
			Slots:            make([]CellResponse, 0, len(t.Slots)),
		}
		for _, c := range t.Slots {
			table.Slots = append(table.Slots, CellResponse{
				Time:        c.Slot.Label(),
				Temporal:    string(c.Temporal),
				Status:      string(c.Status),
				Reservation: fromRef(c.Reservation),
			})
		}
		resp.Tables = append(resp.Tables, table)
	}

	return resp
}

func fromRef(ref *domain.ReservationRef) *GuestResponse {
	if ref == nil {
		return nil
	}
	return &GuestResponse{
		ID:           ref.ReservationID,
		Name:         ref.GuestName,
		Email:        ref.GuestEmail,
		Phone:        ref.GuestPhone,
		Guests:       ref.Guests,
		Time:         ref.Slot.Label(),
		TableNumbers: ref.TableNumbers,
		Status:       string(ref.Status),
		CreatedAt:    ref.CreatedAt.Format(time.RFC3339),
	}
}
