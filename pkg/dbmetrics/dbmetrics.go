package dbmetrics

import (
	"context"
	"database/sql"
	"time"
)

// DBExecutor common subset of *sql.DB, *sql.Tx, *DB and *Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxExecutor executor bound to an open transaction
type TxExecutor interface {
	DBExecutor
	Commit() error
	Rollback() error
}

// Recorder receives query timings. *metrics.Metrics implements it.
type Recorder interface {
	ObserveDBQuery(operation string, err error, duration time.Duration)
	SetDBPoolStats(open, inUse, idle int, waitCount int64)
}

// DB wraps *sql.DB and records query metrics when a recorder is set
type DB struct {
	db       *sql.DB
	recorder Recorder
}

// Wrap wraps db. recorder may be nil, then nothing is recorded.
func Wrap(db *sql.DB, recorder Recorder) *DB {
	return &DB{db: db, recorder: recorder}
}

// WrapWithDefault wraps db and starts the pool stats collector with the default interval
func WrapWithDefault(db *sql.DB, recorder Recorder, stop <-chan struct{}) *DB {
	wrapped := Wrap(db, recorder)
	wrapped.StartPoolCollector(DefaultPoolStatsInterval, stop)
	return wrapped
}

// DefaultPoolStatsInterval how often pool gauges are refreshed
const DefaultPoolStatsInterval = 15 * time.Second

// Unwrap returns the underlying *sql.DB
func (d *DB) Unwrap() *sql.DB {
	return d.db
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := d.db.ExecContext(ctx, query, args...)
	d.observe("exec", err, start)
	return res, err
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.observe("query", err, start)
	return rows, err
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := d.db.QueryRowContext(ctx, query, args...)
	d.observe("query_row", row.Err(), start)
	return row
}

// BeginTx starts a transaction whose queries are recorded as well
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (TxExecutor, error) {
	start := time.Now()
	tx, err := d.db.BeginTx(ctx, opts)
	d.observe("begin", err, start)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, recorder: d.recorder}, nil
}

// PingContext checks the connection
func (d *DB) PingContext(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the underlying pool
func (d *DB) Close() error {
	return d.db.Close()
}

// StartPoolCollector publishes sql.DBStats every interval until stop is closed
func (d *DB) StartPoolCollector(interval time.Duration, stop <-chan struct{}) {
	if d.recorder == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		d.collectPoolStats()
		for {
			select {
			case <-ticker.C:
				d.collectPoolStats()
			case <-stop:
				return
			}
		}
	}()
}

func (d *DB) collectPoolStats() {
	stats := d.db.Stats()
	d.recorder.SetDBPoolStats(stats.OpenConnections, stats.InUse, stats.Idle, stats.WaitCount)
}

func (d *DB) observe(operation string, err error, start time.Time) {
	if d.recorder == nil {
		return
	}
	if err == sql.ErrNoRows {
		err = nil
	}
	d.recorder.ObserveDBQuery(operation, err, time.Since(start))
}

// Tx wraps *sql.Tx
type Tx struct {
	tx       *sql.Tx
	recorder Recorder
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := t.tx.ExecContext(ctx, query, args...)
	t.observe("tx_exec", err, start)
	return res, err
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.tx.QueryContext(ctx, query, args...)
	t.observe("tx_query", err, start)
	return rows, err
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := t.tx.QueryRowContext(ctx, query, args...)
	t.observe("tx_query_row", row.Err(), start)
	return row
}

func (t *Tx) Commit() error {
	start := time.Now()
	err := t.tx.Commit()
	t.observe("commit", err, start)
	return err
}

func (t *Tx) Rollback() error {
	start := time.Now()
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return err
	}
	t.observe("rollback", err, start)
	return err
}

func (t *Tx) observe(operation string, err error, start time.Time) {
	if t.recorder == nil {
		return
	}
	if err == sql.ErrNoRows {
		err = nil
	}
	t.recorder.ObserveDBQuery(operation, err, time.Since(start))
}
