package app

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// ConfigDir returns ~/.config/triage/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "triage"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables that are already set are left alone. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

const defaultConfig = `# triage configuration
# Run: triage --help

# Deployment environment. "production" enables critical-error reporting.
# Can also be set via TRIAGE_ENV or --env.
# environment: development

# Record every processed error in the local journal.
# Can also be set via TRIAGE_JOURNAL=1 or --journal.
# journal_enabled: false

# Optional: override the journal database location.
# Can also be set via TRIAGE_DB_PATH or --db-path.
# db_path: ~/.config/triage/journal.db

# Defaults for "triage retry".
# retry_max_attempts: 3
# retry_base_delay_ms: 1000

# Log handler on stderr: json or text.
# log_format: json
`
