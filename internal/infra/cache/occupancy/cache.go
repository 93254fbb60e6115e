// Package occupancy caches the reservations of a day for occupancy reads.
// Writers drop the affected day after commit; the booking path never reads it.
//
// Every day carries a generation counter bumped by Invalidate. A reader takes the
// generation before loading from the store and Set only stores while it is
// unchanged, so a write that lands during the load never leaves a stale day behind.
package occupancy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lasierra/table-reservations/internal/domain"
)

const (
	defaultPrefix = "reservations:occupancy"
	defaultTTL    = 5 * time.Minute
	pingTimeout   = 2 * time.Second

	// generations outlive any in-flight load by a wide margin
	generationTTL = 24 * time.Hour
)

// setIfGeneration stores ARGV[2] at KEYS[2] for ARGV[3] ms when the generation
// at KEYS[1] (0 when absent) still equals ARGV[1]
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// ClientOptions redis connection settings
type ClientOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a redis client and checks it with a short ping
func NewClient(ctx context.Context, opts ClientOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, opts.Addr, err)
	}

	return client, nil
}

// Cache redis backed day cache
type Cache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewCache creates a cache. Empty prefix and non-positive ttl fall back to defaults.
func NewCache(client redis.Cmdable, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// cachedReservation wire form of a cached reservation
type cachedReservation struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Date         string    `json:"date"`
	Slot         int       `json:"slot"`
	Guests       int       `json:"guests"`
	TableNumbers []int     `json:"tableNumbers"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Get returns the cached reservations of date. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, date time.Time) ([]*domain.Reservation, bool, error) {
	payload, err := c.client.Get(ctx, c.key(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: Get - %s: %w", ErrRead, c.key(date), err)
	}

	var entries []cachedReservation
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, false, fmt.Errorf("%w: Get - %s: %v", ErrDecode, c.key(date), err)
	}

	reservations := make([]*domain.Reservation, 0, len(entries))
	for _, e := range entries {
		r, err := e.toDomain()
		if err != nil {
			return nil, false, fmt.Errorf("%w: Get - %s: %v", ErrDecode, c.key(date), err)
		}
		reservations = append(reservations, r)
	}

	return reservations, true, nil
}

// Generation returns the current generation of date, 0 when it was never invalidated
func (c *Cache) Generation(ctx context.Context, date time.Time) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(date)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: Generation - %s: %w", ErrRead, c.generationKey(date), err)
	}
	return gen, nil
}

// Set stores the reservations of date for the configured TTL, unless date was
// invalidated after generation was read. A skipped write is not an error.
func (c *Cache) Set(ctx context.Context, date time.Time, generation int64, reservations []*domain.Reservation) error {
	entries := make([]cachedReservation, 0, len(reservations))
	for _, r := range reservations {
		entries = append(entries, fromDomain(r))
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: Set - marshal: %v", ErrWrite, err)
	}

	keys := []string{c.generationKey(date), c.key(date)}
	err = setIfGeneration.Run(ctx, c.client, keys, generation, payload, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("%w: Set - %s: %w", ErrWrite, c.key(date), err)
	}
	return nil
}

// Invalidate drops the cached reservations of date and bumps its generation
func (c *Cache) Invalidate(ctx context.Context, date time.Time) error {
	genKey := c.generationKey(date)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, c.key(date))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: Invalidate - %s: %w", ErrWrite, c.key(date), err)
	}
	return nil
}

func (c *Cache) key(date time.Time) string {
	return c.prefix + ":" + date.Format(domain.DateFormat)
}

func (c *Cache) generationKey(date time.Time) string {
	return c.prefix + ":gen:" + date.Format(domain.DateFormat)
}

func fromDomain(r *domain.Reservation) cachedReservation {
	return cachedReservation{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Date:         r.Date.Format(domain.DateFormat),
		Slot:         int(r.Slot),
		Guests:       r.Guests,
		TableNumbers: append([]int(nil), r.TableNumbers...),
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (e cachedReservation) toDomain() (*domain.Reservation, error) {
	date, err := domain.ParseDate(e.Date)
	if err != nil {
		return nil, err
	}
	slot := domain.Slot(e.Slot)
	if !slot.Valid() {
		return nil, fmt.Errorf("slot index %d out of range", e.Slot)
	}
	return &domain.Reservation{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Phone:        e.Phone,
		Date:         date,
		Slot:         slot,
		Guests:       e.Guests,
		TableNumbers: e.TableNumbers,
		Status:       domain.ReservationStatus(e.Status),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}, nil
}

// Noop cache used when redis is disabled. Every read is a miss.
type Noop struct{}

// Get always misses
func (Noop) Get(context.Context, time.Time) ([]*domain.Reservation, bool, error) {
	return nil, false, nil
}

// Generation is always 0
func (Noop) Generation(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// Set does nothing
func (Noop) Set(context.Context, time.Time, int64, []*domain.Reservation) error {
	return nil
}

// Invalidate does nothing
func (Noop) Invalidate(context.Context, time.Time) error {
	return nil
}
