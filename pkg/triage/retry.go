package triage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Retry defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// LinearBackOff waits Base, 2*Base, 3*Base, ... between attempts.
// It implements backoff.BackOff and is not safe for concurrent use.
type LinearBackOff struct {
	Base time.Duration
	n    int
}

// NextBackOff returns Base multiplied by the number of calls since Reset.
func (b *LinearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.Base * time.Duration(b.n)
}

// Reset restarts the sequence.
func (b *LinearBackOff) Reset() { b.n = 0 }

// RetryOption configures Retry.
type RetryOption func(*retryOptions)

type retryOptions struct {
	maxAttempts int
	baseDelay   time.Duration
	ec          *ErrorContext
	processor   *Processor
	limiter     *rate.Limiter
	onRetry     func(attempt int, pe ProcessedError, next time.Duration)
	onGiveUp    func(attempt int, pe ProcessedError)
}

// WithMaxAttempts bounds the total number of invocations. Values below 1 mean 1.
func WithMaxAttempts(n int) RetryOption { return func(o *retryOptions) { o.maxAttempts = n } }

// WithBaseDelay sets the linear backoff step.
func WithBaseDelay(d time.Duration) RetryOption { return func(o *retryOptions) { o.baseDelay = d } }

// WithRetryContext sets the context passed to the processor on each failure.
func WithRetryContext(ec *ErrorContext) RetryOption { return func(o *retryOptions) { o.ec = ec } }

// WithProcessor sets the processor consulted after each failure. The default
// is the package-level processor.
func WithProcessor(p *Processor) RetryOption { return func(o *retryOptions) { o.processor = p } }

// WithRateLimiter gates every attempt, including the first, on l.
func WithRateLimiter(l *rate.Limiter) RetryOption { return func(o *retryOptions) { o.limiter = l } }

// WithOnRetry is called after a retryable failure, before sleeping next.
func WithOnRetry(f func(attempt int, pe ProcessedError, next time.Duration)) RetryOption {
	return func(o *retryOptions) { o.onRetry = f }
}

// WithOnGiveUp is called once when a failure ends the loop.
func WithOnGiveUp(f func(attempt int, pe ProcessedError)) RetryOption {
	return func(o *retryOptions) { o.onGiveUp = f }
}

// Retry invokes op until it succeeds, a failure is classified as not
// retryable, or the attempt budget is spent. Between attempts it sleeps
// baseDelay*attempt. Attempts are strictly sequential and op is never given a
// timeout. The error returned is op's own last error, not a ProcessedError;
// callers that want the enriched record call ProcessError on it.
//
// ctx only bounds the waits between attempts: cancelling it aborts the loop
// with ctx.Err(). Pass context.Background() for an uncancellable loop.
func Retry[T any](ctx context.Context, op func() (T, error), opts ...RetryOption) (T, error) {
	o := retryOptions{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxAttempts < 1 {
		o.maxAttempts = 1
	}
	processor := o.processor
	if processor == nil {
		processor = Default()
	}

	var (
		attempt int
		last    ProcessedError
	)
	operation := func() (T, error) {
		attempt++
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				var zero T
				return zero, backoff.Permanent(err)
			}
		}

		v, err := op()
		if err == nil {
			return v, nil
		}

		last = processor.Process(err, o.ec.With(map[string]any{
			"attempt":      attempt,
			"max_attempts": o.maxAttempts,
		}))
		if !last.Retryable || attempt >= o.maxAttempts {
			if o.onGiveUp != nil {
				o.onGiveUp(attempt, last)
			}
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	notify := func(_ error, next time.Duration) {
		if o.onRetry != nil {
			o.onRetry(attempt, last, next)
		}
	}

	b := backoff.WithContext(&LinearBackOff{Base: o.baseDelay}, ctx)
	return backoff.RetryNotifyWithData(operation, b, notify)
}

// RetryErr is Retry for operations without a result.
func RetryErr(ctx context.Context, op func() error, opts ...RetryOption) error {
	_, err := Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	}, opts...)
	return err
}
