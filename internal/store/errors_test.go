package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorNotFoundError(t *testing.T) {
	err := fmt.Errorf("show: %w", &ErrorNotFoundError{ID: "err_1_1"})

	assert.ErrorIs(t, err, ErrErrorNotFound)
	assert.EqualError(t, err, "show: error not found: err_1_1")

	var re RecoverableError
	assert.True(t, errors.As(err, &re))
	assert.Equal(t, "ERROR_NOT_FOUND", re.ErrorCode())
	assert.Equal(t, map[string]string{"error_id": "err_1_1"}, re.Context())
	assert.Equal(t, "triage history --limit 20", re.SuggestedAction())
}

func TestInvalidFilterError(t *testing.T) {
	var re RecoverableError = &InvalidFilterError{Field: "older_than", Value: "0s"}

	assert.Equal(t, `invalid older_than filter: "0s"`, re.Error())
	assert.Equal(t, "INVALID_FILTER", re.ErrorCode())
	assert.Equal(t, map[string]string{"field": "older_than", "value": "0s"}, re.Context())
	assert.False(t, errors.Is(re, ErrErrorNotFound))
}
