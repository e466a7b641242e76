package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO
)

// runIndex records conversion outcomes in a SQLite database so repeated
// corpus runs can be compared over time.
type runIndex struct {
	db *sql.DB
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	input_path  TEXT NOT NULL,
	input_hash  TEXT NOT NULL,
	from_format TEXT NOT NULL,
	to_format   TEXT NOT NULL,
	output_path TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	error_kind  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_by_run ON runs(run_id);
CREATE INDEX IF NOT EXISTS runs_by_hash ON runs(input_hash);
`

// openIndex opens (creating if needed) a run index database.
func openIndex(path string) (*runIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing index schema: %w", err)
	}
	return &runIndex{db: db}, nil
}

// Record inserts one file outcome under a run id.
func (x *runIndex) Record(runID, from, to string, res fileResult) error {
	outcome := "ok"
	errKind := ""
	if res.Err != nil {
		outcome = "fail"
		errKind = res.ErrorKind
	}
	_, err := x.db.Exec(
		`INSERT INTO runs (run_id, recorded_at, input_path, input_hash,
			from_format, to_format, output_path, outcome, error_kind)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), res.Path, res.Hash,
		from, to, res.Output, outcome, errKind,
	)
	if err != nil {
		return fmt.Errorf("recording run row: %w", err)
	}
	return nil
}

// List returns one formatted line per recorded row, newest run first.
func (x *runIndex) List() ([]string, error) {
	rows, err := x.db.Query(
		`SELECT run_id, recorded_at, input_path, from_format, to_format, outcome, error_kind
		 FROM runs ORDER BY recorded_at DESC, input_path`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var runID, at, path, from, to, outcome, errKind string
		if err := rows.Scan(&runID, &at, &path, &from, &to, &outcome, &errKind); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		line := fmt.Sprintf("%s %s %s %s->%s %s", at, runID[:8], path, from, to, outcome)
		if errKind != "" {
			line += " (" + errKind + ")"
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (x *runIndex) Close() error {
	return x.db.Close()
}
