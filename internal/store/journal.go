package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dotcommander/triage/pkg/triage"
)

// Journal persists processed errors. It implements triage.Recorder.
type Journal struct {
	db *sql.DB
}

// NewJournal returns a Journal writing to db.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

var _ triage.Recorder = (*Journal)(nil)

// Record inserts one row for pe.
func (j *Journal) Record(pe triage.ProcessedError) error {
	return InsertError(j.db, pe)
}

// InsertError writes pe to the errors table.
func InsertError(db *sql.DB, pe triage.ProcessedError) error {
	suggestions, err := json.Marshal(nonNilStrings(pe.Suggestions))
	if err != nil {
		return fmt.Errorf("failed to encode suggestions: %w", err)
	}
	ctxJSON, err := json.Marshal(nonNilContext(pe.Context))
	if err != nil {
		return fmt.Errorf("failed to encode context: %w", err)
	}

	return RetryWithBackoff(func() error {
		_, err := db.Exec(`
			INSERT INTO errors (id, category, severity, severity_rank, message, user_message, suggestions, context, retryable, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, pe.ID, string(pe.Category), string(pe.Severity), pe.Severity.Rank(), pe.Message, pe.UserMessage,
			string(suggestions), string(ctxJSON), boolToInt(pe.Retryable), pe.Timestamp.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert error: %w", err)
		}
		return nil
	})
}

// ListFilter narrows ListErrors. Zero values mean "no filter".
type ListFilter struct {
	Category    triage.Category
	MinSeverity triage.Severity
	Limit       int
}

const errorColumns = `id, category, severity, message, user_message, suggestions, context, retryable, created_at`

// ListErrors returns journal entries newest first.
func ListErrors(db *sql.DB, f ListFilter) ([]*triage.ProcessedError, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 1000 {
		f.Limit = 1000
	}

	where := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.MinSeverity != "" {
		where = append(where, "severity_rank >= ?")
		args = append(args, f.MinSeverity.Rank())
	}

	query := `SELECT ` + errorColumns + ` FROM errors`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, seq DESC LIMIT ?"
	args = append(args, f.Limit)

	var out []*triage.ProcessedError
	err := RetryWithBackoff(func() error {
		rows, err := db.Query(query, args...)
		if err != nil {
			return fmt.Errorf("failed to list errors: %w", err)
		}
		defer func() { _ = rows.Close() }()

		out = make([]*triage.ProcessedError, 0)
		for rows.Next() {
			var s errorRowScanner
			if err := s.scan(rows); err != nil {
				return err
			}
			out = append(out, s.hydrate())
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetError returns the most recent journal entry with the given id.
func GetError(db *sql.DB, id string) (*triage.ProcessedError, error) {
	var out *triage.ProcessedError
	err := RetryWithBackoff(func() error {
		var s errorRowScanner
		err := s.scan(db.QueryRow(`SELECT `+errorColumns+` FROM errors WHERE id = ? ORDER BY seq DESC LIMIT 1`, id))
		if err != nil {
			return err
		}
		out = s.hydrate()
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ErrorNotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CategoryCount is one row of CountByCategory.
type CategoryCount struct {
	Category  triage.Category `json:"category"`
	Count     int64           `json:"count"`
	Retryable int64           `json:"retryable"`
}

// CountByCategory returns per-category totals, largest first.
func CountByCategory(db *sql.DB) ([]CategoryCount, error) {
	var out []CategoryCount
	err := RetryWithBackoff(func() error {
		rows, err := db.Query(`
			SELECT category, COUNT(*), COALESCE(SUM(retryable), 0)
			FROM errors
			GROUP BY category
			ORDER BY COUNT(*) DESC, category ASC
		`)
		if err != nil {
			return fmt.Errorf("failed to count errors: %w", err)
		}
		defer func() { _ = rows.Close() }()

		out = make([]CategoryCount, 0)
		for rows.Next() {
			var c CategoryCount
			var category string
			if err := rows.Scan(&category, &c.Count, &c.Retryable); err != nil {
				return fmt.Errorf("failed to scan category count: %w", err)
			}
			c.Category = triage.Category(category)
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PruneErrors deletes entries older than olderThan and returns the number removed.
func PruneErrors(db *sql.DB, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, &InvalidFilterError{Field: "older_than", Value: olderThan.String()}
	}
	cutoff := time.Now().Add(-olderThan).UnixMilli()

	var removed int64
	err := Transact(db, func(tx *sql.Tx) error {
		n, err := deleteOlderThan(tx, "errors", cutoff)
		if err != nil {
			return err
		}
		removed = n
		_, err = deleteOlderThan(tx, "retry_runs", cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// deleteOlderThan removes rows of table with created_at before cutoff (unix ms).
// table is always a constant from this package.
func deleteOlderThan(q Querier, table string, cutoff int64) (int64, error) {
	res, err := q.Exec(`DELETE FROM `+table+` WHERE created_at < ?`, cutoff) //nolint:gosec // G202: table is a package constant
	if err != nil {
		return 0, fmt.Errorf("failed to prune %s: %w", table, err)
	}
	return res.RowsAffected()
}

// errorRowScanner encapsulates the common errors row scanning logic.
type errorRowScanner struct {
	pe          triage.ProcessedError
	category    string
	severity    string
	suggestions string
	context     string
	retryable   int
	createdAt   int64
}

func (s *errorRowScanner) scan(row interface {
	Scan(dest ...any) error
}) error {
	err := row.Scan(
		&s.pe.ID,
		&s.category,
		&s.severity,
		&s.pe.Message,
		&s.pe.UserMessage,
		&s.suggestions,
		&s.context,
		&s.retryable,
		&s.createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to scan error: %w", err)
	}
	return nil
}

func (s *errorRowScanner) hydrate() *triage.ProcessedError {
	pe := s.pe
	pe.Category = triage.Category(s.category)
	pe.Severity = triage.Severity(s.severity)
	pe.Retryable = s.retryable != 0
	pe.Timestamp = time.UnixMilli(s.createdAt).UTC()
	// Rows are written by InsertError; malformed JSON leaves the field empty.
	_ = json.Unmarshal([]byte(s.suggestions), &pe.Suggestions)
	_ = json.Unmarshal([]byte(s.context), &pe.Context)
	return &pe
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilContext(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
