package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/order"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordRun(r RunRecord) error {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := j.db.Exec(`
		INSERT INTO runs
		(id, strategy, start_time, end_time, orders_open, orders_closed, profit, profit_unrealized, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Strategy, r.Start, r.End, r.OrdersOpen, r.OrdersClosed,
		r.Profit.String(), r.ProfitUnrealized.String(), createdAt,
	)
	return err
}

func (j *SQLiteJournal) RecordOrders(recs []OrderRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}

	for _, rec := range recs {
		_, err := tx.Exec(`
			INSERT INTO orders
			(run_id, order_id, type, amount, entry_price, exit_price, open_time, close_time, profit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, int64(rec.OrderID), rec.Type, rec.Amount.String(),
			rec.EntryPrice.String(), rec.ExitPrice.String(),
			rec.OpenTime, rec.CloseTime, rec.Profit.String(),
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// GetRun returns a single run summary by id.
func (j *SQLiteJournal) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`
		SELECT id, strategy, start_time, end_time, orders_open, orders_closed, profit, profit_unrealized, created_at
		FROM runs
		WHERE id = ?`, runID)

	rec, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return RunRecord{}, fmt.Errorf("run %q not found", runID)
	}
	return rec, err
}

// ListRuns returns run summaries, newest first.
func (j *SQLiteJournal) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, strategy, start_time, end_time, orders_open, orders_closed, profit, profit_unrealized, created_at
		FROM runs
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListOrdersByRun returns a run's orders in submission order.
func (j *SQLiteJournal) ListOrdersByRun(runID string) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, order_id, type, amount, entry_price, exit_price, open_time, close_time, profit
		FROM orders
		WHERE run_id = ?
		ORDER BY order_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var rec OrderRecord
		var orderID int64
		var amount, entryPrice, exitPrice, profit string

		if err := rows.Scan(
			&rec.RunID, &orderID, &rec.Type, &amount,
			&entryPrice, &exitPrice, &rec.OpenTime, &rec.CloseTime, &profit,
		); err != nil {
			return nil, err
		}
		rec.OrderID = order.ID(orderID)

		if err := parseDecimals(
			pair{amount, &rec.Amount},
			pair{entryPrice, &rec.EntryPrice},
			pair{exitPrice, &rec.ExitPrice},
			pair{profit, &rec.Profit},
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func scanRun(scan func(dest ...any) error) (RunRecord, error) {
	var rec RunRecord
	var profit, unrealized string

	err := scan(
		&rec.ID, &rec.Strategy, &rec.Start, &rec.End,
		&rec.OrdersOpen, &rec.OrdersClosed, &profit, &unrealized, &rec.CreatedAt,
	)
	if err != nil {
		return RunRecord{}, err
	}

	if err := parseDecimals(
		pair{profit, &rec.Profit},
		pair{unrealized, &rec.ProfitUnrealized},
	); err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

type pair struct {
	raw string
	dst *decimal.Decimal
}

func parseDecimals(pairs ...pair) error {
	for _, p := range pairs {
		d, err := decimal.NewFromString(p.raw)
		if err != nil {
			return fmt.Errorf("corrupt decimal %q in journal: %w", p.raw, err)
		}
		*p.dst = d
	}
	return nil
}
