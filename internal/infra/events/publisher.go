// Package events publishes reservation change notifications to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lasierra/table-reservations/internal/domain"
)

var (
	// ErrConnect broker connection or channel could not be opened
	ErrConnect = errors.New("events: failed to connect to broker")

	// ErrPublish message could not be published
	ErrPublish = errors.New("events: failed to publish")

	// ErrClosed publisher has been closed
	ErrClosed = errors.New("events: publisher closed")
)

const defaultExchange = "reservations"

// Channel subset of *amqp.Channel used by the publisher
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Options broker settings
type Options struct {
	URL      string
	Exchange string // topic exchange, routing key is the event type
}

// Publisher publishes events as persistent JSON messages.
// A channel is not safe for concurrent use, publishes are serialized.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       Channel
	exchange string
	closed   bool
}

// NewPublisher dials the broker and declares a durable topic exchange
func NewPublisher(opts Options) (*Publisher, error) {
	exchange := opts.Exchange
	if exchange == "" {
		exchange = defaultExchange
	}

	conn, err := amqp.Dial(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %w", ErrConnect, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: open channel: %w", ErrConnect, err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: declare exchange %q: %w", ErrConnect, exchange, err)
	}

	p := NewPublisherWithChannel(ch, exchange)
	p.conn = conn
	return p, nil
}

// NewPublisherWithChannel wraps an already opened channel
func NewPublisherWithChannel(ch Channel, exchange string) *Publisher {
	if exchange == "" {
		exchange = defaultExchange
	}
	return &Publisher{ch: ch, exchange: exchange}
}

// Message JSON body of a published event
type Message struct {
	Type          string       `json:"type"`
	ReservationID string       `json:"reservationId"`
	OccurredAt    time.Time    `json:"occurredAt"`
	Reservation   *Reservation `json:"reservation,omitempty"`
}

// Reservation snapshot carried by a message
type Reservation struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Guests       int    `json:"guests"`
	TableNumbers []int  `json:"tableNumbers"`
	Status       string `json:"status"`
}

// NewMessage converts a domain event into its wire form
func NewMessage(event domain.ReservationEvent) Message {
	msg := Message{
		Type:          string(event.Type),
		ReservationID: event.ReservationID,
		OccurredAt:    event.OccurredAt.UTC(),
	}
	if r := event.Reservation; r != nil {
		msg.Reservation = &Reservation{
			ID:           r.ID,
			Name:         r.Name,
			Email:        r.Email,
			Phone:        r.Phone,
			Date:         r.Date.Format(domain.DateFormat),
			Time:         r.Slot.Label(),
			Guests:       r.Guests,
			TableNumbers: append([]int(nil), r.TableNumbers...),
			Status:       string(r.Status),
		}
	}
	return msg
}

// Publish sends event to the exchange with the event type as routing key
func (p *Publisher) Publish(ctx context.Context, event domain.ReservationEvent) error {
	body, err := json.Marshal(NewMessage(event))
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrPublish, event.Type, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		string(event.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ReservationID + ":" + string(event.Type),
			Timestamp:    event.OccurredAt.UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %s id=%s: %w", ErrPublish, event.Type, event.ReservationID, err)
	}

	return nil
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if err := p.ch.Close(); err != nil {
		errs = append(errs, err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop publisher used when the broker is disabled
type Noop struct{}

// Publish does nothing
func (Noop) Publish(context.Context, domain.ReservationEvent) error {
	return nil
}
