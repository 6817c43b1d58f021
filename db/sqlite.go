package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"geoflow/validate"
)

// ReportStore 校验运行历史存储
type ReportStore struct {
	db *sql.DB
}

// RunSummary 一次校验运行的摘要
type RunSummary struct {
	ID        int64
	StartedAt time.Time
	Passed    bool
	Failed    []string // names of failed checks
}

// Open opens (creating if needed) the report database at path.
func Open(path string) (*ReportStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS check_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        started_at DATETIME NOT NULL,
        passed BOOLEAN NOT NULL
    );
    CREATE TABLE IF NOT EXISTS check_results (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id INTEGER NOT NULL,
        name TEXT NOT NULL,
        passed BOOLEAN NOT NULL,
        duration_ms INTEGER NOT NULL,
        details TEXT,
        FOREIGN KEY(run_id) REFERENCES check_runs(id)
    );`
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create report tables: %v", err)
	}
	return &ReportStore{db: database}, nil
}

// Close closes the underlying database.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// SaveRun persists one suite run and its per-check results.
func (s *ReportStore) SaveRun(startedAt time.Time, results []validate.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	passed := true
	for _, r := range results {
		if !r.Passed {
			passed = false
			break
		}
	}

	res, err := tx.Exec(
		"INSERT INTO check_runs (started_at, passed) VALUES (?, ?)",
		startedAt, passed,
	)
	if err != nil {
		return err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, r := range results {
		_, err := tx.Exec(
			"INSERT INTO check_results (run_id, name, passed, duration_ms, details) VALUES (?, ?, ?, ?, ?)",
			runID, r.Name, r.Passed, r.Duration.Milliseconds(), strings.Join(r.Details, "\n"),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// History returns the most recent n runs, newest first.
func (s *ReportStore) History(n int) ([]RunSummary, error) {
	rows, err := s.db.Query(
		"SELECT id, started_at, passed FROM check_runs ORDER BY started_at DESC LIMIT ?", n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.Passed); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		failed, err := s.failedChecks(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Failed = failed
	}
	return runs, nil
}

func (s *ReportStore) failedChecks(runID int64) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT name FROM check_results WHERE run_id = ? AND passed = 0 ORDER BY id", runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
