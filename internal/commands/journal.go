package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/triage/internal/output"
	"github.com/dotcommander/triage/internal/store"
	"github.com/dotcommander/triage/pkg/triage"
)

func NewHistoryCmd() *cobra.Command {
	var (
		category    string
		minSeverity string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled errors, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.ListFilter{Limit: limit}
			if category != "" {
				c, err := triage.ParseCategory(category)
				if err != nil {
					return cmdErr(&store.InvalidFilterError{Field: "category", Value: category})
				}
				filter.Category = c
			}
			if minSeverity != "" {
				s, err := triage.ParseSeverity(minSeverity)
				if err != nil {
					return cmdErr(&store.InvalidFilterError{Field: "min_severity", Value: minSeverity})
				}
				filter.MinSeverity = s
			}

			var errs []*triage.ProcessedError
			if err := withDB(func(db *DB) error {
				list, err := store.ListErrors(db, filter)
				if err != nil {
					return err
				}
				errs = list
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Category    string                   `json:"category,omitempty"`
				MinSeverity string                   `json:"min_severity,omitempty"`
				Count       int                      `json:"count"`
				Errors      []*triage.ProcessedError `json:"errors"`
			}
			return output.PrintSuccess(resp{
				Category:    string(filter.Category),
				MinSeverity: string(filter.MinSeverity),
				Count:       len(errs),
				Errors:      errs,
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category: network|api|auth|validation|runtime|unknown")
	cmd.Flags().StringVar(&minSeverity, "min-severity", "", "Minimum severity: low|medium|high|critical")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to return")

	return cmd
}

func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <error-id>",
		Short: "Show one journaled error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pe *triage.ProcessedError
			if err := withDB(func(db *DB) error {
				got, err := store.GetError(db, args[0])
				if err != nil {
					return err
				}
				pe = got
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(pe)
		},
	}
}

func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the journal by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			type resp struct {
				Total      int64                 `json:"total"`
				Categories []store.CategoryCount `json:"categories"`
				RetryRuns  store.RetryRunStats   `json:"retry_runs"`
			}
			var out resp
			if err := withDB(func(db *DB) error {
				counts, err := store.CountByCategory(db)
				if err != nil {
					return err
				}
				runs, err := store.CountRetryRuns(db)
				if err != nil {
					return err
				}
				out.Categories = counts
				out.RetryRuns = runs
				for _, c := range counts {
					out.Total += c.Count
				}
				return nil
			}); err != nil {
				return err
			}
			return output.PrintSuccess(out)
		},
	}
}

func NewPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed int64
			if err := withDB(func(db *DB) error {
				n, err := store.PruneErrors(db, olderThan)
				if err != nil {
					return err
				}
				removed = n
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				OlderThan string `json:"older_than"`
				Removed   int64  `json:"removed"`
			}
			return output.PrintSuccess(resp{OlderThan: olderThan.String(), Removed: removed})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove entries older than this duration")

	return cmd
}
