package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(fill_id, run_id, instrument, side, quantity, price, commission, day, date, cash_delta, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FillID, f.RunID, f.Instrument, f.Side, f.Quantity,
		f.Price, f.Commission, f.Day, f.Date, f.CashDelta, f.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, day, date, cash, equity, realized)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Day, e.Date, e.Cash, e.Equity, e.Realized,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// ListFills returns a run's fills ordered by day, then insertion order
// (fill IDs are ULIDs, so they sort by creation time).
func (j *SQLite) ListFills(runID string) ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT fill_id, run_id, instrument, side, quantity, price, commission, day, date, cash_delta, reason
		FROM fills
		WHERE run_id = ?
		ORDER BY day ASC, fill_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var f FillRecord
		if err := rows.Scan(
			&f.FillID, &f.RunID, &f.Instrument, &f.Side, &f.Quantity,
			&f.Price, &f.Commission, &f.Day, &f.Date, &f.CashDelta, &f.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListEquity returns a run's equity curve ordered by day.
func (j *SQLite) ListEquity(runID string) ([]EquityRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, day, date, cash, equity, realized
		FROM equity
		WHERE run_id = ?
		ORDER BY day ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var e EquityRecord
		if err := rows.Scan(&e.RunID, &e.Day, &e.Date, &e.Cash, &e.Equity, &e.Realized); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListRuns returns the distinct run IDs present in the journal, most
// recent first.
func (j *SQLite) ListRuns() ([]string, error) {
	rows, err := j.db.Query(`SELECT DISTINCT run_id FROM equity ORDER BY run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run ID in the journal.
func (j *SQLite) LatestRun() (string, error) {
	runs, err := j.ListRuns()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("journal: no runs recorded")
	}
	return runs[0], nil
}
