package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// ParseReservationStatus converts a raw status string
func ParseReservationStatus(s string) (ReservationStatus, error) {
	status := ReservationStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return status, nil
}

// Valid returns true for a known status
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsActive returns true if the status holds a table
func (s ReservationStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// Reservation represents a table reservation
type Reservation struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Date         time.Time // calendar day, midnight UTC
	Slot         Slot
	Guests       int
	TableNumbers []int
	Status       ReservationStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the reservation holds its tables
func (r *Reservation) IsActive() bool {
	return r.Status.IsActive()
}

// IsCancelled returns true if the reservation has been cancelled
func (r *Reservation) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// IsCompleted returns true if the reservation has been completed
func (r *Reservation) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// HasTable returns true if table is assigned to the reservation
func (r *Reservation) HasTable(table int) bool {
	for _, t := range r.TableNumbers {
		if t == table {
			return true
		}
	}
	return false
}

// Start returns the instant the reservation begins in loc
func (r *Reservation) Start(loc *time.Location) time.Time {
	return r.Slot.StartOn(r.Date, loc)
}

// Normalize trims text fields, lower-cases the email, truncates Date to a calendar
// day and sorts the assigned tables.
func (r *Reservation) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	if !r.Date.IsZero() {
		r.Date = DateOnly(r.Date)
	}
	sort.Ints(r.TableNumbers)
}

// Validate checks the field invariants of a single reservation.
// Cross-record rules (no double booking) are not checked here.
func (r *Reservation) Validate() error {
	if err := ValidateName(r.Name); err != nil {
		return err
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if err := ValidatePhone(r.Phone); err != nil {
		return err
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if !r.Slot.Valid() {
		return fmt.Errorf("%w: time slot is required", ErrValidation)
	}
	if err := ValidateGuests(r.Guests); err != nil {
		return err
	}
	if err := ValidateTables(r.TableNumbers); err != nil {
		return err
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, r.Status)
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName checks the guest name length (2-100 characters)
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < MinNameLength || n > MaxNameLength {
		return fmt.Errorf("%w: name must be between %d and %d characters", ErrValidation, MinNameLength, MaxNameLength)
	}
	return nil
}

// ValidateEmail checks the address syntax
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(NormalizeEmail(email)) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}

// ValidatePhone accepts 10-15 digits with an optional leading "+" and
// space, dash, dot or parenthesis separators
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	digits := 0
	for i, c := range phone {
		switch {
		case unicode.IsDigit(c):
			digits++
		case c == '+' && i == 0:
		case c == ' ' || c == '-' || c == '.' || c == '(' || c == ')':
		default:
			return fmt.Errorf("%w: phone contains invalid character %q", ErrValidation, c)
		}
	}
	if digits < MinPhoneDigits || digits > MaxPhoneDigits {
		return fmt.Errorf("%w: phone must contain between %d and %d digits", ErrValidation, MinPhoneDigits, MaxPhoneDigits)
	}
	return nil
}

// ValidateGuests checks the party size (1-8)
func ValidateGuests(guests int) error {
	if guests < MinGuests || guests > MaxGuests {
		return fmt.Errorf("%w: guests must be between %d and %d", ErrValidation, MinGuests, MaxGuests)
	}
	return nil
}

// ValidateTables checks a table group: 1 or 2 distinct inventory tables
func ValidateTables(tables []int) error {
	if len(tables) < MinTablesPerReservation || len(tables) > MaxTablesPerReservation {
		return fmt.Errorf("%w: a reservation must have %d or %d tables", ErrValidation,
			MinTablesPerReservation, MaxTablesPerReservation)
	}
	seen := make(map[int]struct{}, len(tables))
	for _, t := range tables {
		if !IsValidTable(t) {
			return fmt.Errorf("%w: table %d is not between 1 and %d", ErrValidation, t, TableCount)
		}
		if _, dup := seen[t]; dup {
			return fmt.Errorf("%w: table %d is listed twice", ErrValidation, t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date. An RFC 3339 timestamp, as sent by
// browsers serializing a Date, is accepted too and reduced to its UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if t, err := time.Parse(DateFormat, trimmed); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return DateOnly(t.UTC()), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, s)
}

// DateOnly drops the clock part of t, keeping its calendar day
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ReservationFilter filter for listing reservations
type ReservationFilter struct {
	Statuses    []ReservationStatus // empty = any status
	DateFrom    *time.Time          // inclusive
	DateTo      *time.Time          // inclusive
	Slot        *Slot
	TableNumber *int
	Email       *string
}
