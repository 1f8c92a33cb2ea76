package app

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	DBPath           string `yaml:"db_path"`
	Environment      string `yaml:"environment"`
	JournalEnabled   bool   `yaml:"journal_enabled"`
	RetryMaxAttempts int    `yaml:"retry_max_attempts"`
	RetryBaseDelayMS int    `yaml:"retry_base_delay_ms"`
	LogFormat        string `yaml:"log_format"`
}

// RetrySettings are effective defaults for the retry command.
type RetrySettings struct {
	MaxAttempts int           `json:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay"`
}

const (
	defaultRetryMaxAttempts = 3
	defaultRetryBaseDelayMS = 1000
	maxRetryMaxAttempts     = 20
	maxRetryBaseDelayMS     = 60000

	defaultEnvironment = "development"
)

// EffectiveRetrySettings returns validated retry settings with defaults.
// Invalid or missing config values fall back to safe defaults.
func EffectiveRetrySettings() RetrySettings {
	attempts := defaultRetryMaxAttempts
	delayMS := defaultRetryBaseDelayMS

	s, err := LoadSettings()
	if err == nil {
		if s.RetryMaxAttempts > 0 {
			attempts = s.RetryMaxAttempts
		}
		if s.RetryBaseDelayMS > 0 {
			delayMS = s.RetryBaseDelayMS
		}
	}

	if attempts > maxRetryMaxAttempts {
		attempts = maxRetryMaxAttempts
	}
	if delayMS > maxRetryBaseDelayMS {
		delayMS = maxRetryBaseDelayMS
	}
	return RetrySettings{MaxAttempts: attempts, BaseDelay: time.Duration(delayMS) * time.Millisecond}
}

// ResolveEnvironment returns the deployment environment name and where it came from.
// Order of precedence: CLI override, TRIAGE_ENV, config.yaml, "development".
func ResolveEnvironment() (name string, source string) {
	if v := getOverride(&envOverride); v != "" {
		return v, "cli(--env)"
	}
	if v := strings.TrimSpace(os.Getenv("TRIAGE_ENV")); v != "" {
		return v, "env(TRIAGE_ENV)"
	}
	if s, err := LoadSettings(); err == nil && s.Environment != "" {
		return s.Environment, "config"
	}
	return defaultEnvironment, "default"
}

// JournalEnabled reports whether processed errors should be written to the journal.
// Order of precedence: CLI override, TRIAGE_JOURNAL, config.yaml, off.
func JournalEnabled() bool {
	if v := getOverride(&journalOverride); v != "" {
		return v == "true"
	}
	if v := os.Getenv("TRIAGE_JOURNAL"); v != "" {
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	s, err := LoadSettings()
	return err == nil && s.JournalEnabled
}

// LogFormat returns "json" or "text". Anything else falls back to json.
func LogFormat() string {
	v := getOverride(&logFormatOverride)
	if v == "" {
		if s, err := LoadSettings(); err == nil {
			v = s.LogFormat
		}
	}
	if strings.EqualFold(v, "text") {
		return "text"
	}
	return "json"
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
// The override values hold process-wide CLI flag overrides behind one RWMutex.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex overrides are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	overrideMu        sync.RWMutex
	dbPathOverride    string
	envOverride       string
	journalOverride   string
	logFormatOverride string
)

func setOverride(dst *string, v string) {
	overrideMu.Lock()
	*dst = v
	overrideMu.Unlock()
}

func getOverride(src *string) string {
	overrideMu.RLock()
	v := *src
	overrideMu.RUnlock()
	return v
}

// ResetOverrides clears every CLI override.
func ResetOverrides() {
	overrideMu.Lock()
	dbPathOverride, envOverride, journalOverride, logFormatOverride = "", "", "", ""
	overrideMu.Unlock()
}

// SetDBPathOverride sets a process-wide database path override.
// Intended for CLI flag support (e.g. --db-path).
func SetDBPathOverride(path string) { setOverride(&dbPathOverride, path) }

func getDBPathOverride() string { return getOverride(&dbPathOverride) }

// SetEnvironmentOverride sets a process-wide environment name (--env).
func SetEnvironmentOverride(name string) { setOverride(&envOverride, strings.TrimSpace(name)) }

// SetJournalOverride forces journal writes on or off (--journal).
func SetJournalOverride(enabled bool) { setOverride(&journalOverride, strconv.FormatBool(enabled)) }

// SetLogFormatOverride sets the log handler format (--log-format).
func SetLogFormatOverride(format string) { setOverride(&logFormatOverride, format) }

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/triage/config.yaml
// 2) /etc/triage/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}

		for _, p := range configPaths(dir) {
			s, err := loadSettingsFile(p)
			if err == nil {
				settings = s
				return
			}
			if !errors.Is(err, os.ErrNotExist) {
				settingsErr = err
				return
			}
		}
	})

	return settings, settingsErr
}

// configPaths lists config files in lookup order.
func configPaths(dir string) []string {
	return []string{
		filepath.Join(dir, "config.yaml"),
		filepath.Join(string(os.PathSeparator), "etc", "triage", "config.yaml"),
		"config.yaml",
	}
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: config paths are fixed lookup locations
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
