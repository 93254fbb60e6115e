package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/lasierra/table-reservations/internal/domain"
	"github.com/lasierra/table-reservations/internal/infra/storage/database"
	"github.com/lasierra/table-reservations/pkg/dbmetrics"
)

const (
	reservationsTable = "reservations"
	assignmentsTable  = "table_assignments"
)

var reservationColumns = []string{
	"id",
	"name",
	"email",
	"phone",
	"reservation_date",
	"time_slot",
	"guests",
	"table_numbers",
	"status",
	"created_at",
	"updated_at",
}

// Repository reservation store.
// Table assignments of active reservations live in table_assignments, whose primary key
// (reservation_date, time_slot, table_number) rejects a second active holder of a table.
type Repository struct {
	db      DB
	dialect database.Dialect
}

// NewRepository creates a new reservation repository
func NewRepository(db DB, dialect database.Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

// Create inserts a reservation and, when it is active, its table assignments.
// Returns ErrTableTaken if one of the tables is already held in the same slot.
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	res.Normalize()
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("%w: Create - %w", ErrInvalidReservation, err)
	}

	err := r.withTx(ctx, func(ctx context.Context) error {
		executor := dbmetrics.GetExecutor(ctx, r.db)

		query, args, err := r.dialect.Builder.Insert(reservationsTable).
			Columns(reservationColumns...).
			Values(
				res.ID,
				res.Name,
				res.Email,
				res.Phone,
				formatDate(res.Date),
				int(res.Slot),
				res.Guests,
				encodeTables(res.TableNumbers),
				string(res.Status),
				res.CreatedAt.UTC(),
				res.UpdatedAt.UTC(),
			).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
		}

		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
		}

		if res.IsActive() {
			return r.insertAssignments(ctx, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// GetByID returns a reservation by ID.
// Inside a transaction the row is locked on databases that support it.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.dialect.Builder.Select(reservationColumns...).
		From(reservationsTable).
		Where(squirrel.Eq{"id": id})
	if lock := r.dialect.LockSuffix(ctx); lock != "" {
		selectBuilder = selectBuilder.Suffix(lock)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %w", ErrScanRow, err)
	}

	return res, nil
}

// List returns reservations matching filter, newest created first
func (r *Repository) List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.dialect.Builder.Select(reservationColumns...).
		From(reservationsTable)

	if len(filter.Statuses) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	}
	if filter.DateFrom != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"reservation_date": formatDate(*filter.DateFrom)})
	}
	if filter.DateTo != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"reservation_date": formatDate(*filter.DateTo)})
	}
	if filter.Slot != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"time_slot": int(*filter.Slot)})
	}
	if filter.Email != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"email": domain.NormalizeEmail(*filter.Email)})
	}
	if filter.TableNumber != nil {
		// table_numbers is a comma separated list, match a whole element
		selectBuilder = selectBuilder.Where("(',' || table_numbers || ',') LIKE ?",
			fmt.Sprintf("%%,%d,%%", *filter.TableNumber))
	}

	query, args, err := selectBuilder.
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// Update rewrites a reservation and re-syncs its table assignments.
// Returns ErrReservationNotFound for a missing ID and ErrTableTaken on a table conflict.
func (r *Repository) Update(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	res.Normalize()
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("%w: Update - %w", ErrInvalidReservation, err)
	}

	err := r.withTx(ctx, func(ctx context.Context) error {
		executor := dbmetrics.GetExecutor(ctx, r.db)

		query, args, err := r.dialect.Builder.Update(reservationsTable).
			Set("name", res.Name).
			Set("email", res.Email).
			Set("phone", res.Phone).
			Set("reservation_date", formatDate(res.Date)).
			Set("time_slot", int(res.Slot)).
			Set("guests", res.Guests).
			Set("table_numbers", encodeTables(res.TableNumbers)).
			Set("status", string(res.Status)).
			Set("updated_at", res.UpdatedAt.UTC()).
			Where(squirrel.Eq{"id": res.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
		}

		result, err := executor.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: Update - get rows affected: %w", ErrExecQuery, err)
		}
		if rowsAffected == 0 {
			return ErrReservationNotFound
		}

		if err := r.deleteAssignments(ctx, []string{res.ID}); err != nil {
			return err
		}
		if res.IsActive() {
			return r.insertAssignments(ctx, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Delete removes a reservation and its table assignments (hard delete)
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.withTx(ctx, func(ctx context.Context) error {
		if err := r.deleteAssignments(ctx, []string{id}); err != nil {
			return err
		}

		executor := dbmetrics.GetExecutor(ctx, r.db)

		query, args, err := r.dialect.Builder.Delete(reservationsTable).
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
		}

		result, err := executor.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: Delete - execute delete: %w", ErrExecQuery, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: Delete - get rows affected: %w", ErrExecQuery, err)
		}
		if rowsAffected == 0 {
			return ErrReservationNotFound
		}
		return nil
	})
}

// CountTablesInUse returns how many tables active reservations hold in date+slot
func (r *Repository) CountTablesInUse(ctx context.Context, date time.Time, slot domain.Slot) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Builder.Select("COUNT(*)").
		From(assignmentsTable).
		Where(squirrel.Eq{"reservation_date": formatDate(date), "time_slot": int(slot)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountTablesInUse - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountTablesInUse - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// CountTablesInUseByDay returns tables in use per slot of a day. Slots without reservations are absent.
func (r *Repository) CountTablesInUseByDay(ctx context.Context, date time.Time) (map[domain.Slot]int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Builder.Select("time_slot", "COUNT(*)").
		From(assignmentsTable).
		Where(squirrel.Eq{"reservation_date": formatDate(date)}).
		GroupBy("time_slot").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CountTablesInUseByDay - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: CountTablesInUseByDay - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	counts := make(map[domain.Slot]int)
	for rows.Next() {
		var slot, count int
		if err := rows.Scan(&slot, &count); err != nil {
			return nil, fmt.Errorf("%w: CountTablesInUseByDay - scan row: %w", ErrScanRow, err)
		}
		counts[domain.Slot(slot)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: CountTablesInUseByDay - rows error: %w", ErrScanRow, err)
	}

	return counts, nil
}

// TakenTables returns the table numbers held in date+slot in ascending order.
// Inside a transaction the assignment rows are locked on databases that support it.
func (r *Repository) TakenTables(ctx context.Context, date time.Time, slot domain.Slot) ([]int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.dialect.Builder.Select("table_number").
		From(assignmentsTable).
		Where(squirrel.Eq{"reservation_date": formatDate(date), "time_slot": int(slot)}).
		OrderBy("table_number ASC")
	if lock := r.dialect.LockSuffix(ctx); lock != "" {
		selectBuilder = selectBuilder.Suffix(lock)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: TakenTables - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: TakenTables - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	tables := make([]int, 0)
	for rows.Next() {
		var table int
		if err := rows.Scan(&table); err != nil {
			return nil, fmt.Errorf("%w: TakenTables - scan row: %w", ErrScanRow, err)
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: TakenTables - rows error: %w", ErrScanRow, err)
	}

	return tables, nil
}

// CompleteEnded marks active reservations as completed when their slot has ended:
// every day before today, and today's slots up to and including lastEndedSlot
// (pass a negative slot when nothing has ended today). Returns the completed IDs.
func (r *Repository) CompleteEnded(ctx context.Context, today time.Time, lastEndedSlot domain.Slot, now time.Time) ([]string, error) {
	var ids []string

	err := r.withTx(ctx, func(ctx context.Context) error {
		executor := dbmetrics.GetExecutor(ctx, r.db)
		day := formatDate(today)

		query, args, err := r.dialect.Builder.Select("id").
			From(reservationsTable).
			Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)}).
			Where(squirrel.Or{
				squirrel.Lt{"reservation_date": day},
				squirrel.And{
					squirrel.Eq{"reservation_date": day},
					squirrel.LtOrEq{"time_slot": int(lastEndedSlot)},
				},
			}).
			OrderBy("id ASC").
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: CompleteEnded - build select query: %v", ErrBuildQuery, err)
		}

		rows, err := executor.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: CompleteEnded - execute query: %w", ErrExecQuery, err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("%w: CompleteEnded - scan row: %w", ErrScanRow, err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("%w: CompleteEnded - rows error: %w", ErrScanRow, err)
		}
		rows.Close()

		if len(ids) == 0 {
			return nil
		}

		query, args, err = r.dialect.Builder.Update(reservationsTable).
			Set("status", string(domain.StatusCompleted)).
			Set("updated_at", now.UTC()).
			Where(squirrel.Eq{"id": ids}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: CompleteEnded - build update query: %v", ErrBuildQuery, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: CompleteEnded - execute update: %w", ErrExecQuery, err)
		}

		return r.deleteAssignments(ctx, ids)
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *Repository) insertAssignments(ctx context.Context, res *domain.Reservation) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertBuilder := r.dialect.Builder.Insert(assignmentsTable).
		Columns("reservation_id", "reservation_date", "time_slot", "table_number")
	for _, table := range res.TableNumbers {
		insertBuilder = insertBuilder.Values(res.ID, formatDate(res.Date), int(res.Slot), table)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: insertAssignments - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: date=%s slot=%q tables=%v: %w",
				ErrTableTaken, formatDate(res.Date), res.Slot.Label(), res.TableNumbers, err)
		}
		return fmt.Errorf("%w: insertAssignments - execute insert: %w", ErrExecQuery, err)
	}
	return nil
}

func (r *Repository) deleteAssignments(ctx context.Context, reservationIDs []string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.dialect.Builder.Delete(assignmentsTable).
		Where(squirrel.Eq{"reservation_id": reservationIDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: deleteAssignments - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: deleteAssignments - execute delete: %w", ErrExecQuery, err)
	}
	return nil
}

// withTx runs fn in the ambient transaction, or in a new one when ctx has none
func (r *Repository) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrTransaction, err)
	}

	if err := fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrTransaction, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var (
		res       domain.Reservation
		date      string
		slot      int
		tables    string
		status    string
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(
		&res.ID,
		&res.Name,
		&res.Email,
		&res.Phone,
		&date,
		&slot,
		&res.Guests,
		&tables,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.Date, err = domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	res.TableNumbers, err = decodeTables(tables)
	if err != nil {
		return nil, err
	}
	res.Slot = domain.Slot(slot)
	res.Status = domain.ReservationStatus(status)
	res.CreatedAt = createdAt.UTC()
	res.UpdatedAt = updatedAt.UTC()

	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %w", ErrScanRow, err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %w", ErrScanRow, err)
	}

	return reservations, nil
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateFormat)
}

func encodeTables(tables []int) string {
	parts := make([]string, len(tables))
	for i, t := range tables {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, ",")
}

func decodeTables(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	tables := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid table list %q: %w", s, err)
		}
		tables = append(tables, n)
	}
	return tables, nil
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
