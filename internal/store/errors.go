package store

import (
	"errors"
	"fmt"

	"github.com/dotcommander/triage/internal/models"
)

// RecoverableError is an alias for models.RecoverableError.
type RecoverableError = models.RecoverableError

// ErrErrorNotFound is matched by ErrorNotFoundError via errors.Is.
var ErrErrorNotFound = errors.New("error not found")

// ErrorNotFoundError is returned when a journal lookup misses.
type ErrorNotFoundError struct {
	ID string
}

func (e *ErrorNotFoundError) Error() string     { return fmt.Sprintf("error not found: %s", e.ID) }
func (e *ErrorNotFoundError) ErrorCode() string { return "ERROR_NOT_FOUND" }
func (e *ErrorNotFoundError) Context() map[string]string {
	return map[string]string{"error_id": e.ID}
}
func (e *ErrorNotFoundError) SuggestedAction() string {
	return "triage history --limit 20"
}
func (e *ErrorNotFoundError) Is(target error) bool { return target == ErrErrorNotFound }

// InvalidFilterError reports a journal query filter that cannot be applied.
type InvalidFilterError struct {
	Field string
	Value string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid %s filter: %q", e.Field, e.Value)
}
func (e *InvalidFilterError) ErrorCode() string { return "INVALID_FILTER" }
func (e *InvalidFilterError) Context() map[string]string {
	return map[string]string{"field": e.Field, "value": e.Value}
}
func (e *InvalidFilterError) SuggestedAction() string {
	return "triage schema commands"
}
