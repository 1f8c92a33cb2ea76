package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RetryRun summarizes one `triage retry` invocation.
type RetryRun struct {
	ID          string    `json:"id"`
	Command     string    `json:"command"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	Succeeded   bool      `json:"succeeded"`
	LastErrorID string    `json:"last_error_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// InsertRetryRun stores run, assigning an ID and timestamp when unset.
func InsertRetryRun(db *sql.DB, run *RetryRun) error {
	if run.ID == "" {
		run.ID = generatePrefixedID("run")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	var lastErr sql.NullString
	if run.LastErrorID != "" {
		lastErr = sql.NullString{String: run.LastErrorID, Valid: true}
	}

	return RetryWithBackoff(func() error {
		_, err := db.Exec(`
			INSERT INTO retry_runs (id, command, attempts, max_attempts, succeeded, last_error, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.Command, run.Attempts, run.MaxAttempts, boolToInt(run.Succeeded), lastErr, run.CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert retry run: %w", err)
		}
		return nil
	})
}

// RetryRunStats aggregates the retry_runs table.
type RetryRunStats struct {
	Runs      int64 `json:"runs"`
	Succeeded int64 `json:"succeeded"`
	Attempts  int64 `json:"attempts"`
}

// CountRetryRuns returns totals across all recorded runs.
func CountRetryRuns(db *sql.DB) (RetryRunStats, error) {
	var st RetryRunStats
	err := RetryWithBackoff(func() error {
		return db.QueryRow(`
			SELECT COUNT(*), COALESCE(SUM(succeeded), 0), COALESCE(SUM(attempts), 0)
			FROM retry_runs
		`).Scan(&st.Runs, &st.Succeeded, &st.Attempts)
	})
	if err != nil {
		return RetryRunStats{}, fmt.Errorf("failed to count retry runs: %w", err)
	}
	return st, nil
}
