package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jankar86/dgi-dash/src/models"
)

// RunStore records the per-source outcome of every ingestion run so skip
// counts and rejected files stay inspectable after the fact.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// RecordSource appends one source's outcome under the run identifier.
func (s *RunStore) RecordSource(runID string, report models.SourceReport) error {
	_, err := s.db.Exec(`INSERT INTO ingestion_runs
		(run_id, source_path, dialect, rows_parsed, inserted_count, skipped_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, report.Path, report.Dialect, report.RowsParsed,
		report.Inserted, report.Skipped, nullableString(report.Error),
	)
	if err != nil {
		return fmt.Errorf("error recording ingestion run for %s: %w", report.Path, err)
	}
	return nil
}

// RunHistoryEntry is one persisted per-source outcome.
type RunHistoryEntry struct {
	RunID      string    `json:"run_id"`
	SourcePath string    `json:"source_path"`
	Dialect    string    `json:"dialect,omitempty"`
	RowsParsed int       `json:"rows_parsed"`
	Inserted   int       `json:"inserted"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// History returns the most recent limit entries, newest first.
func (s *RunStore) History(limit int) ([]RunHistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT run_id, source_path, COALESCE(dialect, ''), rows_parsed,
		       inserted_count, skipped_count, COALESCE(error, ''), created_at
		FROM ingestion_runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying ingestion history: %w", err)
	}
	defer rows.Close()

	var out []RunHistoryEntry
	for rows.Next() {
		var e RunHistoryEntry
		if err := rows.Scan(&e.RunID, &e.SourcePath, &e.Dialect, &e.RowsParsed,
			&e.Inserted, &e.Skipped, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning ingestion history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
