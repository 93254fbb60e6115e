package get_availability

import (
	"time"

	"github.com/lasierra/table-reservations/internal/domain"
)

// Request availability query
type Request struct {
	Date string // "2026-03-01"
	Time string // optional slot label, empty = whole day
}

// Response availability of a day, or of a single slot when one was requested
type Response struct {
	Date  time.Time
	Slots []Slot
}

// Slot capacity of one time slot
type Slot struct {
	Slot        domain.Slot
	TablesInUse int
	TablesFree  int
	TotalTables int
	Temporal    domain.TemporalStatus
	Bookable    bool
}

func fromDomain(a domain.SlotAvailability) Slot {
	return Slot{
		Slot:        a.Slot,
		TablesInUse: a.TablesInUse,
		TablesFree:  a.TablesFree,
		TotalTables: a.TotalTables,
		Temporal:    a.Temporal,
		Bookable:    a.Bookable(),
	}
}
