package domain

import (
	"fmt"
	"strings"
	"time"
)

// SlotDuration length of every reservation window
const SlotDuration = 45 * time.Minute

// Slot index into the fixed daily slot vocabulary (0 = 8:00 AM).
// ParseSlot and Label are the only places where labels are converted.
type Slot int

type slotDef struct {
	hour   int
	minute int
	label  string
}

var (
	slotDefs    = buildSlotDefs()
	slotByClock = indexSlotDefs(slotDefs)
)

// buildSlotDefs generates 8:00 AM, 8:45 AM, 9:00 AM ... 7:45 PM, 8:00 PM and the final 8:15 PM
func buildSlotDefs() []slotDef {
	defs := make([]slotDef, 0, 26)
	for hour := 8; hour < 20; hour++ {
		for _, minute := range []int{0, 45} {
			defs = append(defs, slotDef{hour: hour, minute: minute, label: formatClock(hour, minute)})
		}
	}
	defs = append(defs,
		slotDef{hour: 20, minute: 0, label: formatClock(20, 0)},
		slotDef{hour: 20, minute: 15, label: formatClock(20, 15)},
	)
	return defs
}

func indexSlotDefs(defs []slotDef) map[int]Slot {
	idx := make(map[int]Slot, len(defs))
	for i, d := range defs {
		idx[d.hour*60+d.minute] = Slot(i)
	}
	return idx
}

func formatClock(hour, minute int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	h := hour
	if hour > 12 {
		h -= 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, period)
}

// SlotCount number of slots per day
func SlotCount() int {
	return len(slotDefs)
}

// AllSlots returns every slot of the day in chronological order.
func AllSlots() []Slot {
	slots := make([]Slot, len(slotDefs))
	for i := range slots {
		slots[i] = Slot(i)
	}
	return slots
}

// ParseSlot converts a label such as "8:00 AM" into a Slot.
// Leading/trailing spaces and letter case are ignored.
func ParseSlot(label string) (Slot, error) {
	normalized := strings.ToUpper(strings.TrimSpace(label))
	if normalized == "" {
		return 0, fmt.Errorf("%w: time slot is required", ErrValidation)
	}

	t, err := time.Parse(SlotFormat, normalized)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time slot %q, expected H:MM AM/PM", ErrValidation, label)
	}

	slot, ok := slotByClock[t.Hour()*60+t.Minute()]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a bookable time slot", ErrValidation, label)
	}
	return slot, nil
}

// Valid returns true if s is part of the vocabulary
func (s Slot) Valid() bool {
	return s >= 0 && int(s) < len(slotDefs)
}

// Label returns the canonical "H:MM AM/PM" label, or "" for an invalid slot
func (s Slot) Label() string {
	if !s.Valid() {
		return ""
	}
	return slotDefs[s].label
}

func (s Slot) String() string {
	return s.Label()
}

// StartOn returns the instant the slot starts on the calendar day of day, in loc.
func (s Slot) StartOn(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	d := slotDefs[s]
	y, m, dd := day.Date()
	return time.Date(y, m, dd, d.hour, d.minute, 0, 0, loc)
}

// EndOn returns StartOn + SlotDuration
func (s Slot) EndOn(day time.Time, loc *time.Location) time.Time {
	return s.StartOn(day, loc).Add(SlotDuration)
}

func (s Slot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: slot index %d out of range", ErrValidation, int(s))
	}
	return []byte(s.Label()), nil
}

func (s *Slot) UnmarshalText(text []byte) error {
	parsed, err := ParseSlot(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// TemporalStatus position of a slot relative to the current instant
type TemporalStatus string

const (
	TemporalPassed  TemporalStatus = "passed"
	TemporalCurrent TemporalStatus = "current"
	TemporalFuture  TemporalStatus = "future"
)

// TemporalStatusAt classifies a slot starting at start:
// future if now < start, current if start <= now < start+45m, passed otherwise.
func TemporalStatusAt(start, now time.Time) TemporalStatus {
	switch {
	case now.Before(start):
		return TemporalFuture
	case now.Before(start.Add(SlotDuration)):
		return TemporalCurrent
	default:
		return TemporalPassed
	}
}

// SlotAvailability capacity of one slot on one day
type SlotAvailability struct {
	Slot        Slot
	TablesInUse int
	TablesFree  int
	TotalTables int
	Temporal    TemporalStatus
}

// IsFull returns true if every table is taken
func (a *SlotAvailability) IsFull() bool {
	return a.TablesFree <= 0
}

// Bookable returns true if the slot still accepts new reservations
func (a *SlotAvailability) Bookable() bool {
	return !a.IsFull() && a.Temporal == TemporalFuture
}

// OccupancyRate returns the share of tables in use as a percentage (0-100)
func (a *SlotAvailability) OccupancyRate() float64 {
	if a.TotalTables == 0 {
		return 0
	}
	return float64(a.TablesInUse) / float64(a.TotalTables) * 100
}
