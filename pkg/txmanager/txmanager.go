package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lasierra/table-reservations/pkg/dbmetrics"
)

var (
	// ErrBeginTx transaction could not be started
	ErrBeginTx = errors.New("txmanager: failed to begin transaction")

	// ErrCommitTx transaction could not be committed
	ErrCommitTx = errors.New("txmanager: failed to commit transaction")

	// ErrConflict serializable transaction kept conflicting until attempts ran out
	ErrConflict = errors.New("txmanager: transaction conflict, attempts exhausted")
)

// TxBeginner starts transactions. *dbmetrics.DB implements it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// Options transaction behaviour, usually derived from the database dialect
type Options struct {
	// SerializableOpts options for DoSerializable, nil = driver default
	SerializableOpts *sql.TxOptions
	// ReadOnlyOpts options for DoReadOnly, nil = driver default
	ReadOnlyOpts *sql.TxOptions
	// MaxAttempts attempts of DoSerializable, at least 1
	MaxAttempts int
	// Backoff delay before the second attempt, doubled on each retry
	Backoff time.Duration
	// IsRetryable classifies errors that justify a retry (serialization failures)
	IsRetryable func(error) bool
}

// TransactionManager runs functions inside transactions.
// The transaction is placed into the context, repositories pick it up via dbmetrics.GetExecutor.
type TransactionManager struct {
	db   TxBeginner
	opts Options
}

// NewTransactionManager creates a transaction manager
func NewTransactionManager(db TxBeginner, opts Options) *TransactionManager {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.IsRetryable == nil {
		opts.IsRetryable = func(error) bool { return false }
	}
	return &TransactionManager{db: db, opts: opts}
}

// Do runs fn in a transaction with default isolation
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, nil, fn)
}

// DoReadOnly runs fn in a read-only transaction
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, m.opts.ReadOnlyOpts, fn)
}

// DoSerializable runs fn in a serializable transaction.
// Serialization failures roll back and re-run fn from scratch, up to MaxAttempts times.
// fn must therefore be free of side effects outside the transaction.
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := m.opts.Backoff
	var lastErr error

	for attempt := 1; attempt <= m.opts.MaxAttempts; attempt++ {
		err := m.run(ctx, m.opts.SerializableOpts, fn)
		if err == nil {
			return nil
		}
		if !m.opts.IsRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == m.opts.MaxAttempts {
			break
		}
		if backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return fmt.Errorf("%w: DoSerializable - %d attempts: %w", ErrConflict, m.opts.MaxAttempts, lastErr)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	// Nested call joins the outer transaction
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginTx, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitTx, err)
	}
	return nil
}
