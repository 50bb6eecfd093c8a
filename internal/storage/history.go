package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS observables (
	iter INTEGER NOT NULL,
	t REAL NOT NULL,
	norm2 REAL NOT NULL,
	total REAL NOT NULL,
	kinetic REAL NOT NULL,
	potential REAL NOT NULL,
	PRIMARY KEY (iter)
);`

// History records the observable trace of one run in a sqlite file, so
// long evolutions can be inspected and plotted without re-running.
type History struct {
	db *sql.DB
}

// Sample is one row of the observable trace.
type Sample struct {
	Iter      int
	Time      float64
	Norm2     float64
	Total     float64
	Kinetic   float64
	Potential float64
}

func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, historySchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return errors.Wrap(h.db.Close(), "")
}

func (h *History) Record(s Sample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := h.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO observables (iter, t, norm2, total, kinetic, potential) VALUES (?, ?, ?, ?, ?, ?)`,
		s.Iter, s.Time, s.Norm2, s.Total, s.Kinetic, s.Potential)
	return errors.Wrap(err, "")
}

// Samples returns the trace in iteration order.
func (h *History) Samples() ([]Sample, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rows, err := h.db.QueryContext(ctx,
		`SELECT iter, t, norm2, total, kinetic, potential FROM observables ORDER BY iter`)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.Iter, &s.Time, &s.Norm2, &s.Total, &s.Kinetic, &s.Potential); err != nil {
			return nil, errors.Wrap(err, "")
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "")
}
