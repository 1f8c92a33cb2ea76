package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/triage/internal/app"
	"github.com/dotcommander/triage/internal/output"
	"github.com/dotcommander/triage/internal/store"
)

func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and journal connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, dbSource, err := app.ResolveDBPathDetailed()
			if err != nil {
				return cmdErr(err)
			}
			envName, envSource := app.ResolveEnvironment()
			retry := app.EffectiveRetrySettings()

			type resp struct {
				Version        string `json:"version"`
				Environment    string `json:"environment"`
				EnvSource      string `json:"environment_source"`
				JournalEnabled bool   `json:"journal_enabled"`
				LogFormat      string `json:"log_format"`
				RetryAttempts  int    `json:"retry_max_attempts"`
				RetryDelay     string `json:"retry_base_delay"`
				DBPath         string `json:"db_path"`
				DBSource       string `json:"db_source"`
				DBOK           bool   `json:"db_ok"`
				DBErr          string `json:"db_error,omitempty"`
				SchemaCurrent  int64  `json:"schema_version"`
				SchemaLatest   int64  `json:"schema_latest"`
				Hint           string `json:"hint,omitempty"`
			}
			out := resp{
				Version:        buildVersion,
				Environment:    envName,
				EnvSource:      envSource,
				JournalEnabled: app.JournalEnabled(),
				LogFormat:      app.LogFormat(),
				RetryAttempts:  retry.MaxAttempts,
				RetryDelay:     retry.BaseDelay.String(),
				DBPath:         dbPath,
				DBSource:       dbSource,
			}

			db, err := store.InitDBWithPath(dbPath)
			if err != nil {
				out.DBErr = err.Error()
				out.Hint = "If this is running in a sandboxed environment, set db_path to a writable location or use --db-path."
				return output.PrintSuccess(out)
			}
			defer db.Close()

			current, latest, err := store.SchemaVersion(db)
			if err != nil {
				out.DBErr = err.Error()
				return output.PrintSuccess(out)
			}
			out.DBOK = true
			out.SchemaCurrent = current
			out.SchemaLatest = latest
			return output.PrintSuccess(out)
		},
	}
}
