package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"log"
)

// RunStatement executes statement on a dedicated connection taken from db.
//
// The statement runs inside one transaction that is always committed, even for reads.
// When it has column metadata all rows of the first result set are fetched, otherwise
// the Outcome is NoResult. Rows and the connection are released on every path; the
// transaction is rolled back when anything fails after it began.
func RunStatement(ctx context.Context, db *sql.DB, statement string, mapRow RowMapper) (out Outcome, err error) {
	conn, err := db.Conn(ctx) // connects
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil && err == nil {
			out, err = Outcome{}, closeErr
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, err
	}
	out, err = queryTx(ctx, tx, statement, mapRow)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("[WARN] rollback failed: %v", rbErr)
		}
		return Outcome{}, err
	}
	if err = tx.Commit(); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func queryTx(ctx context.Context, tx *sql.Tx, statement string, mapRow RowMapper) (Outcome, error) {
	rows, err := tx.QueryContext(ctx, statement)
	if err != nil {
		return Outcome{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Outcome{}, err
	}
	if len(columns) == 0 {
		// no result set, drain whatever the driver still holds
		if err = rows.Close(); err != nil {
			return Outcome{}, err
		}
		return NoResultOutcome(), rows.Err()
	}

	data, err := fetchAll(rows, columns, mapRow)
	if err != nil {
		return Outcome{}, err
	}
	if err = rows.Close(); err != nil {
		return Outcome{}, err
	}
	return RowsOutcome(columns, data), nil
}
