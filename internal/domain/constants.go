package domain

// Table inventory. Configuration, never persisted.
const (
	TableCount    = 31
	TableCapacity = 8

	MinTablesPerReservation = 1
	MaxTablesPerReservation = 2
)

// Business validation constants
const (
	MinGuests      = 1
	MaxGuests      = TableCapacity
	MinNameLength  = 2
	MaxNameLength  = 100
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
	SlotFormat = "3:04 PM"
)

// ActiveStatuses statuses that hold a table
var ActiveStatuses = []ReservationStatus{
	StatusPending,
	StatusConfirmed,
}

// VisibleStatuses statuses shown on the occupancy grid
var VisibleStatuses = []ReservationStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
}

// Tables returns the inventory table numbers in ascending order.
func Tables() []int {
	tables := make([]int, TableCount)
	for i := range tables {
		tables[i] = i + 1
	}
	return tables
}

// IsValidTable reports whether n is part of the inventory.
func IsValidTable(n int) bool {
	return n >= 1 && n <= TableCount
}
