package domain

import "time"

// CellStatus state of a table in a slot
type CellStatus string

const (
	CellFree     CellStatus = "free"
	CellReserved CellStatus = "reserved"
)

// ReservationRef guest details shown on a reserved cell
type ReservationRef struct {
	ReservationID string
	GuestName     string
	GuestEmail    string
	GuestPhone    string
	Guests        int
	Slot          Slot
	TableNumbers  []int
	Status        ReservationStatus
	CreatedAt     time.Time
}

// NewReservationRef builds the cell details from a reservation
func NewReservationRef(r *Reservation) *ReservationRef {
	tables := make([]int, len(r.TableNumbers))
	copy(tables, r.TableNumbers)
	return &ReservationRef{
		ReservationID: r.ID,
		GuestName:     r.Name,
		GuestEmail:    r.Email,
		GuestPhone:    r.Phone,
		Guests:        r.Guests,
		Slot:          r.Slot,
		TableNumbers:  tables,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
	}
}

// SlotCell one table in one slot
type SlotCell struct {
	Slot        Slot
	Temporal    TemporalStatus
	Status      CellStatus
	Reservation *ReservationRef // nil when free
}

// TableOccupancy occupancy snapshot of a single table for a day.
// Derived on every read, never persisted.
type TableOccupancy struct {
	TableNumber      int
	Capacity         int
	Slots            []SlotCell // passed slots are omitted
	ReservedCount    int
	OccupancyPercent int
}

// OccupancyGrid table x slot matrix for a day
type OccupancyGrid struct {
	Date             time.Time
	GeneratedAt      time.Time
	Tables           []TableOccupancy
	TotalReserved    int
	OccupancyPercent int
}

// TableTimeline upcoming reservations of a table, newest first
type TableTimeline struct {
	TableNumber  int
	Reservations []*Reservation
	Total        int
	MoreCount    int // hidden by the collapsed view
	Expanded     bool
}
