package commands

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/triage/internal/app"
)

func requireFlagExists(t *testing.T, cmd *cobra.Command, name string) {
	t.Helper()
	f := cmd.Flags().Lookup(name)
	require.NotNil(t, f)
}

// setupCLIEnv isolates HOME, the working directory and the journal path.
func setupCLIEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TRIAGE_ENV", "")
	t.Setenv("TRIAGE_JOURNAL", "")
	t.Setenv("TRIAGE_PRETTY_JSON", "")
	dbPath := filepath.Join(home, "journal.db")
	t.Setenv("TRIAGE_DB_PATH", dbPath)
	t.Chdir(t.TempDir())
	t.Cleanup(app.ResetOverrides)
	return dbPath
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = original }()

	fn()

	require.NoError(t, w.Close())

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(b)
}

// runCLI executes the root command with args and returns stdout and the error.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var runErr error
	out := captureStdout(t, func() {
		root := newRootCmd("test", nil)
		root.SetArgs(args)
		runErr = root.Execute()
	})
	return out, runErr
}

type envelope struct {
	SchemaVersion   string            `json:"schema_version"`
	Success         bool              `json:"success"`
	Data            json.RawMessage   `json:"data"`
	Error           string            `json:"error"`
	ErrorCode       string            `json:"error_code"`
	ErrorContext    map[string]string `json:"error_context"`
	SuggestedAction string            `json:"suggested_action"`
}

func decodeEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "stdout: %s", out)
	require.Equal(t, "v1", env.SchemaVersion)
	return env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
