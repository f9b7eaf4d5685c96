package store

import (
	"database/sql"
	"time"

	"github.com/PakBOSS-007/Jaga-pohon/internal/models"
)

// ImportRun represents a single bulk-import operation for auditing.
type ImportRun struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Source       string // "upload", "cli"
	FileCount    sql.NullInt64
	Processed    sql.NullInt64
	Successes    sql.NullInt64
	Failures     sql.NullInt64
	Success      bool
	ErrorMessage sql.NullString
}

// StartImportRun creates a new import run record and returns it.
func (s *Store) StartImportRun(source string, fileCount int) (*ImportRun, error) {
	run := &ImportRun{
		StartedAt: time.Now().UTC(),
		Source:    source,
		FileCount: sql.NullInt64{Int64: int64(fileCount), Valid: true},
	}

	result, err := s.db.Exec(`
		INSERT INTO import_runs (started_at, source, file_count, success)
		VALUES (?, ?, ?, FALSE)
	`, run.StartedAt, run.Source, run.FileCount)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteImportRun updates the import run with its final counters.
func (s *Store) CompleteImportRun(run *ImportRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE import_runs SET
			finished_at = ?,
			processed = ?,
			successes = ?,
			failures = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.Processed, run.Successes, run.Failures,
		run.Success, run.ErrorMessage, run.ID)
	return err
}

// InsertImportFailure records one failed file within a run.
func (s *Store) InsertImportFailure(runID int64, fileName, errorMessage string) error {
	_, err := s.db.Exec(`
		INSERT INTO import_failures (run_id, file_name, error_message)
		VALUES (?, ?, ?)
	`, runID, fileName, errorMessage)
	return err
}

// GetRecentImportRuns returns the most recent bulk-import runs, newest first.
func (s *Store) GetRecentImportRuns(limit int) ([]ImportRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, source, file_count, processed, successes, failures, success, error_message
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var r ImportRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Source, &r.FileCount,
			&r.Processed, &r.Successes, &r.Failures, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetImportFailures returns the per-file failures for a run.
func (s *Store) GetImportFailures(runID int64) ([]models.ImportFailure, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, file_name, error_message, created_at
		FROM import_failures
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []models.ImportFailure
	for rows.Next() {
		var f models.ImportFailure
		if err := rows.Scan(&f.ID, &f.RunID, &f.FileName, &f.ErrorMessage, &f.CreatedAt); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
