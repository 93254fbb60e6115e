package reservation

import (
	"context"
	"database/sql"

	"github.com/lasierra/table-reservations/pkg/dbmetrics"
)

// Reuse the executor interfaces from dbmetrics
type DBExecutor = dbmetrics.DBExecutor
type TxExecutor = dbmetrics.TxExecutor

// TxBeginner starts transactions, implemented by *dbmetrics.DB
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (TxExecutor, error)
}

// DB executor that can also open its own transaction for multi-statement writes
type DB interface {
	DBExecutor
	TxBeginner
}
