// Package metrics exposes Prometheus instrumentation for processed errors and
// retry runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dotcommander/triage/pkg/triage"
)

// Retry outcomes used as the "outcome" label.
const (
	OutcomeRetry   = "retry"
	OutcomeGaveUp  = "gave_up"
	OutcomeSuccess = "success"
)

var (
	// ErrorsProcessed counts processed errors per category and severity
	ErrorsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_errors_processed_total",
			Help: "Total number of processed errors",
		},
		[]string{"category", "severity"},
	)

	// RetryAttempts counts retry executor decisions
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_retry_attempts_total",
			Help: "Total number of retry executor outcomes",
		},
		[]string{"outcome"},
	)

	// RetryBackoff tracks the delay scheduled before each retry
	RetryBackoff = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "triage_retry_backoff_seconds",
			Help:    "Backoff delay scheduled before a retry in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Recorder counts every processed error. It implements triage.Recorder.
type Recorder struct{}

var _ triage.Recorder = Recorder{}

// Record increments ErrorsProcessed for pe.
func (Recorder) Record(pe triage.ProcessedError) error {
	ErrorsProcessed.WithLabelValues(string(pe.Category), string(pe.Severity)).Inc()
	return nil
}

// ObserveRetry matches the triage.WithOnRetry callback signature.
func ObserveRetry(_ int, _ triage.ProcessedError, next time.Duration) {
	RetryAttempts.WithLabelValues(OutcomeRetry).Inc()
	RetryBackoff.Observe(next.Seconds())
}

// ObserveGiveUp matches the triage.WithOnGiveUp callback signature.
func ObserveGiveUp(_ int, _ triage.ProcessedError) {
	RetryAttempts.WithLabelValues(OutcomeGaveUp).Inc()
}

// ObserveSuccess records a retry run that eventually succeeded.
func ObserveSuccess() {
	RetryAttempts.WithLabelValues(OutcomeSuccess).Inc()
}
