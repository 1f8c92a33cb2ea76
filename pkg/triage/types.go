package triage

import (
	"fmt"
	"strings"
	"time"
)

// Category is the coarse failure class derived from a raw failure's message.
type Category string

// Category constants. The set is closed: anything unmatched is CategoryUnknown.
const (
	CategoryNetwork    Category = "network"
	CategoryAPI        Category = "api"
	CategoryAuth       Category = "auth"
	CategoryValidation Category = "validation"
	CategoryRuntime    Category = "runtime"
	CategoryUnknown    Category = "unknown"
)

// Categories lists every category in classification priority order.
func Categories() []Category {
	return []Category{
		CategoryNetwork,
		CategoryAuth,
		CategoryAPI,
		CategoryValidation,
		CategoryRuntime,
		CategoryUnknown,
	}
}

// ParseCategory converts a case-insensitive name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Severity ranks how urgently a processed error needs attention.
type Severity string

// Severity constants. SeverityCritical is never produced by the default
// classifier; it is reachable through a custom Classifier.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from 1 (low) to 4 (critical). Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// ParseSeverity converts a case-insensitive name into a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if sev.Rank() == 0 {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// Classification is the (category, severity, retryability) triple for a failure.
type Classification struct {
	Category  Category `json:"category"`
	Severity  Severity `json:"severity"`
	Retryable bool     `json:"retryable"`
}

// ErrorContext describes where a failure happened. All fields are optional.
type ErrorContext struct {
	Component  string         `json:"component,omitempty"`
	Action     string         `json:"action,omitempty"`
	SubjectID  string         `json:"subject_id,omitempty"`
	Additional map[string]any `json:"additional,omitempty"`
}

// fields flattens the context into log/record keys. Additional keys are
// applied after the named fields.
func (c *ErrorContext) fields() map[string]any {
	out := make(map[string]any, 3+len(c.Additional))
	if c.Component != "" {
		out["component"] = c.Component
	}
	if c.Action != "" {
		out["action"] = c.Action
	}
	if c.SubjectID != "" {
		out["subject_id"] = c.SubjectID
	}
	for k, v := range c.Additional {
		out[k] = v
	}
	return out
}

// With returns a copy of c with extra Additional entries. The receiver is not modified.
func (c *ErrorContext) With(extra map[string]any) *ErrorContext {
	out := &ErrorContext{}
	if c != nil {
		*out = *c
	}
	merged := make(map[string]any, len(out.Additional)+len(extra))
	for k, v := range out.Additional {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	out.Additional = merged
	return out
}

// ProcessedError is the enriched record produced by Processor.Process.
// A fresh value is built on every call; identical inputs never share an ID.
type ProcessedError struct {
	ID          string         `json:"id"`
	Category    Category       `json:"category"`
	Severity    Severity       `json:"severity"`
	Message     string         `json:"message"`
	Raw         any            `json:"-"`
	Context     map[string]any `json:"context"`
	UserMessage string         `json:"user_message"`
	Suggestions []string       `json:"suggestions"`
	Retryable   bool           `json:"retryable"`
	Timestamp   time.Time      `json:"timestamp"`
}

func (e ProcessedError) Error() string {
	return fmt.Sprintf("%s [%s/%s]: %s", e.ID, e.Category, e.Severity, e.Message)
}

// Unwrap exposes the raw failure when it is an error.
func (e ProcessedError) Unwrap() error {
	if err, ok := e.Raw.(error); ok {
		return err
	}
	return nil
}

// ErrorCode returns the upper-cased category, e.g. "NETWORK".
func (e ProcessedError) ErrorCode() string { return strings.ToUpper(string(e.Category)) }

// SuggestedAction returns the first remediation suggestion, if any.
func (e ProcessedError) SuggestedAction() string {
	if len(e.Suggestions) == 0 {
		return ""
	}
	return e.Suggestions[0]
}

// ContextStrings returns the merged context rendered as strings.
func (e ProcessedError) ContextStrings() map[string]string {
	out := make(map[string]string, len(e.Context))
	for k, v := range e.Context {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Classification returns the triple this record was built from.
func (e ProcessedError) Classification() Classification {
	return Classification{Category: e.Category, Severity: e.Severity, Retryable: e.Retryable}
}

// SlogAttrs returns key/value pairs for slog.
func (e ProcessedError) SlogAttrs() []any {
	return []any{
		"error_id", e.ID,
		"category", string(e.Category),
		"severity", string(e.Severity),
		"retryable", e.Retryable,
	}
}
