package output

import (
	"encoding/json"
	"errors"
	"io"
	"os"
)

// SchemaVersion is stamped on every envelope.
const SchemaVersion = "v1"

// Response represents a standard JSON response
type Response struct {
	SchemaVersion   string            `json:"schema_version"`
	Success         bool              `json:"success"`
	Data            interface{}       `json:"data,omitempty"`
	Error           string            `json:"error,omitempty"`
	ErrorCode       string            `json:"error_code,omitempty"`
	ErrorContext    map[string]string `json:"error_context,omitempty"`
	SuggestedAction string            `json:"suggested_action,omitempty"`
}

// recoverableError mirrors models.RecoverableError without importing it.
type recoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}

// Config controls where and how envelopes are written.
type Config struct {
	Writer io.Writer
	Pretty bool
}

// DefaultConfig writes to stdout. Pretty JSON is enabled via TRIAGE_PRETTY_JSON=1.
func DefaultConfig() Config {
	v := os.Getenv("TRIAGE_PRETTY_JSON")
	return Config{
		Writer: os.Stdout,
		Pretty: v == "1" || v == "true",
	}
}

// Success wraps a successful response with data
func Success(data interface{}) Response {
	return Response{
		SchemaVersion: SchemaVersion,
		Success:       true,
		Data:          data,
	}
}

// Error wraps an error in a response. Recoverable errors also populate
// error_code, error_context and suggested_action.
func Error(err error) Response {
	resp := Response{
		SchemaVersion: SchemaVersion,
		Success:       false,
		Error:         err.Error(),
	}
	var re recoverableError
	if errors.As(err, &re) {
		resp.ErrorCode = re.ErrorCode()
		resp.ErrorContext = re.Context()
		resp.SuggestedAction = re.SuggestedAction()
	}
	return resp
}

// PrintWith encodes v as JSON using cfg.
func PrintWith(cfg Config, v interface{}) error {
	enc := json.NewEncoder(cfg.Writer)
	if cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Print prints a value as JSON to stdout
func Print(v interface{}) error {
	return PrintWith(DefaultConfig(), v)
}

// PrintSuccess prints a success response
func PrintSuccess(data interface{}) error {
	return Print(Success(data))
}

// PrintError prints an error response
func PrintError(err error) error {
	return Print(Error(err))
}
