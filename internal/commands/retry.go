package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/dotcommander/triage/internal/app"
	"github.com/dotcommander/triage/internal/metrics"
	"github.com/dotcommander/triage/internal/output"
	"github.com/dotcommander/triage/internal/store"
	"github.com/dotcommander/triage/pkg/triage"
)

func NewRetryCmd() *cobra.Command {
	var (
		attempts  int
		delay     time.Duration
		ratePerS  float64
		component string
	)

	cmd := &cobra.Command{
		Use:   "retry [flags] -- <command> [args...]",
		Short: "Run a command, retrying transient failures with linear backoff",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := app.EffectiveRetrySettings()
			if attempts <= 0 {
				attempts = defaults.MaxAttempts
			}
			if delay <= 0 {
				delay = defaults.BaseDelay
			}

			session, err := openProcessor()
			if err != nil {
				return cmdErr(err)
			}
			defer session.close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			result, runErr := runWithRetry(ctx, session.processor, retryPlan{
				Args:        args,
				MaxAttempts: attempts,
				BaseDelay:   delay,
				RatePerSec:  ratePerS,
				Component:   component,
			})

			if session.journaling() {
				run := &store.RetryRun{
					Command:     result.Command,
					Attempts:    result.Attempts,
					MaxAttempts: attempts,
					Succeeded:   runErr == nil,
				}
				if result.LastError != nil {
					run.LastErrorID = result.LastError.ID
				}
				if err := store.InsertRetryRun(session.db, run); err != nil {
					slog.Warn("failed to journal retry run", "error", err)
				}
			}

			if runErr != nil {
				return cmdErr(runErr)
			}
			return output.PrintSuccess(result)
		},
	}

	cmd.Flags().IntVar(&attempts, "attempts", 0, "Maximum attempts (default: retry_max_attempts or 3)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Base delay; the n-th retry waits n*delay (default: retry_base_delay_ms or 1s)")
	cmd.Flags().Float64Var(&ratePerS, "rate", 0, "Cap attempts per second; 0 disables pacing")
	cmd.Flags().StringVar(&component, "component", "retry", "Component recorded in the error context")

	return cmd
}

type retryPlan struct {
	Args        []string
	MaxAttempts int
	BaseDelay   time.Duration
	RatePerSec  float64
	Component   string
}

type retryResult struct {
	Command     string                 `json:"command"`
	Attempts    int                    `json:"attempts"`
	MaxAttempts int                    `json:"max_attempts"`
	Succeeded   bool                   `json:"succeeded"`
	Stdout      string                 `json:"stdout,omitempty"`
	LastError   *triage.ProcessedError `json:"last_error,omitempty"`
}

// runWithRetry executes plan.Args through the retry executor.
func runWithRetry(ctx context.Context, p *triage.Processor, plan retryPlan) (retryResult, error) {
	result := retryResult{
		Command:     strings.Join(plan.Args, " "),
		MaxAttempts: plan.MaxAttempts,
	}

	opts := []triage.RetryOption{
		triage.WithMaxAttempts(plan.MaxAttempts),
		triage.WithBaseDelay(plan.BaseDelay),
		triage.WithProcessor(p),
		triage.WithRetryContext(&triage.ErrorContext{
			Component:  plan.Component,
			Action:     plan.Args[0],
			Additional: map[string]any{"command": result.Command},
		}),
		triage.WithOnRetry(func(attempt int, pe triage.ProcessedError, next time.Duration) {
			metrics.ObserveRetry(attempt, pe, next)
			slog.Info("retrying command", "attempt", attempt, "error_id", pe.ID, "next_delay", next.String())
		}),
		triage.WithOnGiveUp(func(attempt int, pe triage.ProcessedError) {
			metrics.ObserveGiveUp(attempt, pe)
			result.LastError = &pe
		}),
	}
	if plan.RatePerSec > 0 {
		opts = append(opts, triage.WithRateLimiter(rate.NewLimiter(rate.Limit(plan.RatePerSec), 1)))
	}

	stdout, err := triage.Retry(ctx, func() (string, error) {
		result.Attempts++
		return runCommand(ctx, plan.Args)
	}, opts...)
	if err != nil {
		return result, &retryFailedError{Result: result, err: err}
	}

	metrics.ObserveSuccess()
	result.Succeeded = true
	result.Stdout = stdout
	return result, nil
}

// commandError describes a failed child process. Its message is the trimmed
// stderr followed by the exit status, which is what the classifier sees.
type commandError struct {
	Stderr string
	err    error
}

func (e *commandError) Error() string {
	if e.Stderr == "" {
		return e.err.Error()
	}
	return e.Stderr + ": " + e.err.Error()
}

func (e *commandError) Unwrap() error { return e.err }

func runCommand(ctx context.Context, args []string) (string, error) {
	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // G204: running the user's command is the point
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		return stdout.String(), &commandError{Stderr: strings.TrimSpace(stderr.String()), err: err}
	}
	return stdout.String(), nil
}

// retryFailedError is returned when the retry executor gives up.
type retryFailedError struct {
	Result retryResult
	err    error
}

func (e *retryFailedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Result.Command, e.Result.Attempts, e.err)
}

func (e *retryFailedError) Unwrap() error { return e.err }

func (e *retryFailedError) ErrorCode() string {
	switch {
	case errors.Is(e.err, context.Canceled), errors.Is(e.err, context.DeadlineExceeded):
		return "RETRY_CANCELED"
	case e.Result.LastError != nil && !e.Result.LastError.Retryable:
		return "NOT_RETRYABLE"
	default:
		return "RETRY_EXHAUSTED"
	}
}

func (e *retryFailedError) Context() map[string]string {
	ctx := map[string]string{
		"command":      e.Result.Command,
		"attempts":     strconv.Itoa(e.Result.Attempts),
		"max_attempts": strconv.Itoa(e.Result.MaxAttempts),
	}
	if pe := e.Result.LastError; pe != nil {
		ctx["error_id"] = pe.ID
		ctx["category"] = string(pe.Category)
		ctx["severity"] = string(pe.Severity)
		ctx["user_message"] = pe.UserMessage
	}
	return ctx
}

func (e *retryFailedError) SuggestedAction() string {
	if pe := e.Result.LastError; pe != nil {
		return pe.SuggestedAction()
	}
	return ""
}

// SlogAttrs lets cmdErr log the processed error alongside the failure.
func (e *retryFailedError) SlogAttrs() []any {
	if pe := e.Result.LastError; pe != nil {
		return pe.SlogAttrs()
	}
	return nil
}
