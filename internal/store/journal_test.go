package store

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dotcommander/triage/pkg/triage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeProcessed(id string, c triage.Category, s triage.Severity, at time.Time) triage.ProcessedError {
	return triage.ProcessedError{
		ID:          id,
		Category:    c,
		Severity:    s,
		Message:     "message for " + id,
		UserMessage: "user message for " + id,
		Suggestions: []string{"first", "second"},
		Context:     map[string]any{"component": "ProjectList", "attempt": 2},
		Retryable:   c == triage.CategoryNetwork,
		Timestamp:   at,
	}
}

func seedJournal(t *testing.T, db *sql.DB, entries ...triage.ProcessedError) {
	t.Helper()
	j := NewJournal(db)
	for _, pe := range entries {
		require.NoError(t, j.Record(pe))
	}
}

func TestJournal_RecordAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	want := makeProcessed("err_1_1", triage.CategoryNetwork, triage.SeverityMedium, at)
	seedJournal(t, db, want)

	got, err := GetError(db, "err_1_1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, triage.CategoryNetwork, got.Category)
	assert.Equal(t, triage.SeverityMedium, got.Severity)
	assert.Equal(t, want.Message, got.Message)
	assert.Equal(t, want.UserMessage, got.UserMessage)
	assert.Equal(t, want.Suggestions, got.Suggestions)
	assert.True(t, got.Retryable)
	assert.Equal(t, at.UnixMilli(), got.Timestamp.UnixMilli())
	assert.Equal(t, "ProjectList", got.Context["component"])
	// JSON numbers decode as float64.
	assert.Equal(t, float64(2), got.Context["attempt"])
	assert.Nil(t, got.Raw)
}

func TestJournal_NilSlicesStoredAsEmpty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	pe := makeProcessed("err_2_1", triage.CategoryUnknown, triage.SeverityMedium, time.Now())
	pe.Suggestions = nil
	pe.Context = nil
	seedJournal(t, db, pe)

	var suggestions, ctx string
	require.NoError(t, db.QueryRow(`SELECT suggestions, context FROM errors WHERE id = ?`, pe.ID).Scan(&suggestions, &ctx))
	assert.Equal(t, "[]", suggestions)
	assert.Equal(t, "{}", ctx)
}

func TestGetError_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := GetError(db, "err_missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrErrorNotFound)

	var nf *ErrorNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "err_missing", nf.ID)
}

func TestGetError_DuplicateIDReturnsNewest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	first := makeProcessed("err_5_1", triage.CategoryAPI, triage.SeverityMedium, now)
	second := makeProcessed("err_5_1", triage.CategoryAuth, triage.SeverityHigh, now)
	seedJournal(t, db, first, second)

	got, err := GetError(db, "err_5_1")
	require.NoError(t, err)
	assert.Equal(t, triage.CategoryAuth, got.Category)
}

func TestListErrors_FiltersAndOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	seedJournal(t, db,
		makeProcessed("err_a", triage.CategoryValidation, triage.SeverityLow, base),
		makeProcessed("err_b", triage.CategoryNetwork, triage.SeverityMedium, base.Add(time.Minute)),
		makeProcessed("err_c", triage.CategoryAuth, triage.SeverityHigh, base.Add(2*time.Minute)),
		makeProcessed("err_d", triage.CategoryNetwork, triage.SeverityMedium, base.Add(3*time.Minute)),
	)

	all, err := ListErrors(db, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"err_d", "err_c", "err_b", "err_a"}, ids(all))

	network, err := ListErrors(db, ListFilter{Category: triage.CategoryNetwork})
	require.NoError(t, err)
	assert.Equal(t, []string{"err_d", "err_b"}, ids(network))

	severe, err := ListErrors(db, ListFilter{MinSeverity: triage.SeverityMedium})
	require.NoError(t, err)
	assert.Equal(t, []string{"err_d", "err_c", "err_b"}, ids(severe))

	limited, err := ListErrors(db, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"err_d"}, ids(limited))
}

func TestListErrors_EmptyJournal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := ListErrors(db, ListFilter{Category: triage.CategoryRuntime})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCountByCategory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	for i := range 3 {
		seedJournal(t, db, makeProcessed(fmt.Sprintf("err_n%d", i), triage.CategoryNetwork, triage.SeverityMedium, now))
	}
	seedJournal(t, db,
		makeProcessed("err_v", triage.CategoryValidation, triage.SeverityLow, now),
		makeProcessed("err_x", triage.CategoryAuth, triage.SeverityHigh, now),
	)

	counts, err := CountByCategory(db)
	require.NoError(t, err)
	require.Equal(t, []CategoryCount{
		{Category: triage.CategoryNetwork, Count: 3, Retryable: 3},
		{Category: triage.CategoryAuth, Count: 1},
		{Category: triage.CategoryValidation, Count: 1},
	}, counts)
}

func TestPruneErrors(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	seedJournal(t, db,
		makeProcessed("err_old", triage.CategoryAPI, triage.SeverityMedium, now.Add(-48*time.Hour)),
		makeProcessed("err_new", triage.CategoryAPI, triage.SeverityMedium, now),
	)
	require.NoError(t, InsertRetryRun(db, &RetryRun{Command: "curl", Attempts: 1, MaxAttempts: 3, CreatedAt: now.Add(-72 * time.Hour)}))

	removed, err := PruneErrors(db, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	left, err := ListErrors(db, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"err_new"}, ids(left))

	st, err := CountRetryRuns(db)
	require.NoError(t, err)
	assert.Zero(t, st.Runs)

	_, err = PruneErrors(db, 0)
	var invalid *InvalidFilterError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "older_than", invalid.Field)
}

func TestJournal_RecordsThroughProcessor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	p := triage.NewProcessor(
		triage.WithLogger(discardLogger()),
		triage.WithRecorder(NewJournal(db)),
	)
	pe := p.Process(errors.New("403 Forbidden"), &triage.ErrorContext{Component: "Settings"})

	got, err := GetError(db, pe.ID)
	require.NoError(t, err)
	assert.Equal(t, triage.CategoryAuth, got.Category)
	assert.Equal(t, pe.UserMessage, got.UserMessage)
	assert.Equal(t, "Settings", got.Context["component"])
}

func ids(list []*triage.ProcessedError) []string {
	out := make([]string, 0, len(list))
	for _, pe := range list {
		out = append(out, pe.ID)
	}
	return out
}
