package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/triage/internal/app"
	"github.com/dotcommander/triage/internal/metrics"
	"github.com/dotcommander/triage/internal/output"
)

// buildVersion is the CLI version reported by --version and stamped into the
// processor's user agent.
//
//nolint:gochecknoglobals // set once by Execute
var buildVersion = "dev"

// Execute runs the CLI application.
func Execute(version string) error {
	buildVersion = version
	slog.SetDefault(newLogger(os.Stderr, "json"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *metrics.Server
	defer func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = metricsServer.Stop(shutdownCtx)
	}()

	root := newRootCmd(version, func(addr string) error {
		metricsServer = metrics.NewServer(addr)
		if err := metricsServer.Start(); err != nil {
			metricsServer = nil
			return err
		}
		slog.Info("metrics server listening", "addr", addr)
		return nil
	})

	err := root.ExecuteContext(ctx)
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
		}
	}
	return err
}

func newRootCmd(version string, startMetrics func(addr string) error) *cobra.Command {
	root := &cobra.Command{
		Use:           "triage",
		Short:         "Classify, explain, retry and journal application errors",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadDotEnv(".env"); err != nil {
				slog.Warn("ignoring unreadable .env", "error", err)
			}
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}

			applyOverrides(cmd)
			slog.SetDefault(newLogger(os.Stderr, app.LogFormat()))

			if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" && startMetrics != nil {
				if err := startMetrics(addr); err != nil {
					return cmdErr(err)
				}
			}
			return nil
		},
	}

	root.PersistentFlags().String("db-path", "", "Override journal database path")
	root.PersistentFlags().Bool("journal", false, "Record processed errors in the journal (default: $TRIAGE_JOURNAL)")
	root.PersistentFlags().String("env", "", "Deployment environment name (default: $TRIAGE_ENV)")
	root.PersistentFlags().String("log-format", "", "Log format on stderr: json|text")
	root.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	root.Flags().BoolP("version", "v", false, "version for triage")

	root.AddCommand(NewClassifyCmd())
	root.AddCommand(NewProcessCmd())
	root.AddCommand(NewRetryCmd())
	root.AddCommand(NewHistoryCmd())
	root.AddCommand(NewShowCmd())
	root.AddCommand(NewStatsCmd())
	root.AddCommand(NewPruneCmd())
	root.AddCommand(NewDoctorCmd())
	root.AddCommand(NewSchemaCmd(root))

	return root
}

// applyOverrides wires persistent flags into the app-level resolvers.
func applyOverrides(cmd *cobra.Command) {
	app.ResetOverrides()
	flags := cmd.Flags()
	if dbPath, err := flags.GetString("db-path"); err == nil && dbPath != "" {
		app.SetDBPathOverride(dbPath)
	}
	if env, err := flags.GetString("env"); err == nil && env != "" {
		app.SetEnvironmentOverride(env)
	}
	if flags.Changed("journal") {
		enabled, _ := flags.GetBool("journal")
		app.SetJournalOverride(enabled)
	}
	if format, err := flags.GetString("log-format"); err == nil && format != "" {
		app.SetLogFormatOverride(format)
	}
}
