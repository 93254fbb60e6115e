package domain

import "time"

// EventType kind of reservation change
type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationUpdated   EventType = "reservation.updated"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationDeleted   EventType = "reservation.deleted"
	EventReservationCompleted EventType = "reservation.completed"
)

// ReservationEvent change notification for downstream consumers
type ReservationEvent struct {
	Type          EventType
	ReservationID string
	Reservation   *Reservation // nil when only the ID is known
	OccurredAt    time.Time
}

// NewReservationEvent builds an event carrying a snapshot of r
func NewReservationEvent(eventType EventType, r *Reservation, at time.Time) ReservationEvent {
	snapshot := *r
	snapshot.TableNumbers = append([]int(nil), r.TableNumbers...)
	return ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID,
		Reservation:   &snapshot,
		OccurredAt:    at,
	}
}
