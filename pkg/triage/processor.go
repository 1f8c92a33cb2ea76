package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync/atomic"
	"time"
)

// Processor turns raw failures into ProcessedError records and emits one
// structured log entry per record. A Processor is safe for concurrent use.
type Processor struct {
	logger     *slog.Logger
	now        func() time.Time
	counter    Counter
	env        Environment
	classifier Classifier
	reporter   Reporter
	recorders  []Recorder
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets the logger. The default is slog.Default() at log time.
func WithLogger(l *slog.Logger) ProcessorOption { return func(p *Processor) { p.logger = l } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ProcessorOption { return func(p *Processor) { p.now = now } }

// WithCounter sets the ID sequence source.
func WithCounter(c Counter) ProcessorOption { return func(p *Processor) { p.counter = c } }

// WithEnvironment sets the host descriptors merged into every context.
func WithEnvironment(env Environment) ProcessorOption { return func(p *Processor) { p.env = env } }

// WithClassifier replaces the built-in classification policy.
func WithClassifier(c Classifier) ProcessorOption { return func(p *Processor) { p.classifier = c } }

// WithReporter sets the hook used for critical errors in production.
func WithReporter(r Reporter) ProcessorOption { return func(p *Processor) { p.reporter = r } }

// WithRecorder appends a Recorder. May be given more than once.
func WithRecorder(r Recorder) ProcessorOption {
	return func(p *Processor) { p.recorders = append(p.recorders, r) }
}

// NewProcessor returns a Processor with the built-in classifier, an
// AtomicCounter, the default environment and a LogReporter.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		now:        time.Now,
		counter:    &AtomicCounter{},
		env:        DefaultEnvironment(""),
		classifier: DefaultClassifier(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.reporter == nil {
		p.reporter = LogReporter{Logger: p.logger}
	}
	return p
}

// Environment returns the environment the processor stamps on records.
func (p *Processor) Environment() Environment { return p.env }

// Process classifies raw, builds its user-facing message, stamps an ID and
// merged context, logs it, and notifies recorders. It never panics: failures
// inside logging, recorders or the reporter are swallowed.
func (p *Processor) Process(raw any, ec *ErrorContext) ProcessedError {
	ts := p.now()
	c := p.classify(raw)
	text, suggestions := UserMessage(raw, c.Category)

	pe := ProcessedError{
		ID:          fmt.Sprintf("err_%d_%d", ts.UnixMilli(), p.counter.Next()),
		Category:    c.Category,
		Severity:    c.Severity,
		Message:     MessageOf(raw),
		Raw:         raw,
		Context:     p.mergeContext(ts, ec),
		UserMessage: text,
		Suggestions: suggestions,
		Retryable:   c.Retryable,
		Timestamp:   ts,
	}

	bestEffort(func() { p.log(pe) })
	for _, r := range p.recorders {
		bestEffort(func() { _ = r.Record(pe) })
	}
	if p.env.IsProduction() && pe.Severity == SeverityCritical {
		bestEffort(func() { _ = p.reporter.Report(pe) })
	}
	return pe
}

// classify falls back to the built-in policy if a custom classifier panics.
func (p *Processor) classify(raw any) (c Classification) {
	defer func() {
		if r := recover(); r != nil {
			c = Classify(raw)
		}
	}()
	return p.classifier.Classify(raw)
}

// mergeContext applies environment fields first, then caller fields.
// Caller keys win on collision.
func (p *Processor) mergeContext(ts time.Time, ec *ErrorContext) map[string]any {
	out := map[string]any{
		"timestamp":   ts.Format(time.RFC3339Nano),
		"user_agent":  p.env.UserAgent,
		"url":         p.env.Location,
		"environment": p.env.Name,
	}
	if ec != nil {
		maps.Copy(out, ec.fields())
	}
	return out
}

func (p *Processor) log(pe ProcessedError) {
	logger := p.logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.Group("error",
			"id", pe.ID,
			"category", string(pe.Category),
			"severity", string(pe.Severity),
			"message", pe.Message,
			"retryable", pe.Retryable,
			"timestamp", pe.Timestamp,
		),
		slog.Group("context", sortedAttrs(pe.Context)...),
	}
	if stack := stackOf(pe.Raw); stack != "" {
		attrs = append(attrs, slog.String("stack", stack))
	}
	attrs = append(attrs, slog.Any("suggestions", pe.Suggestions))

	logger.LogAttrs(context.Background(), levelFor(pe.Severity), "error processed", attrs...)
}

func levelFor(s Severity) slog.Level {
	switch s {
	case SeverityCritical, SeverityHigh:
		return slog.LevelError
	case SeverityMedium:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func sortedAttrs(m map[string]any) []any {
	out := make([]any, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, slog.Any(k, m[k]))
	}
	return out
}

type stackTracer interface {
	StackTrace() string
}

type stacker interface {
	Stack() []byte
}

// stackOf renders whatever trace the raw failure carries. Plain Go errors
// have no stack, so a wrap chain of two or more errors is rendered instead.
func stackOf(raw any) string {
	switch v := raw.(type) {
	case stackTracer:
		return v.StackTrace()
	case stacker:
		return string(v.Stack())
	case error:
		var chain []string
		for err := v; err != nil; err = errors.Unwrap(err) {
			chain = append(chain, fmt.Sprintf("%T: %s", err, err.Error()))
		}
		if len(chain) < 2 {
			return ""
		}
		return strings.Join(chain, "\n")
	default:
		return ""
	}
}

func bestEffort(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

var defaultProcessor atomic.Pointer[Processor]

func init() {
	defaultProcessor.Store(NewProcessor())
}

// Default returns the processor used by ProcessError and Retry.
func Default() *Processor { return defaultProcessor.Load() }

// SetDefault replaces the package-level processor. A nil p is ignored.
func SetDefault(p *Processor) {
	if p != nil {
		defaultProcessor.Store(p)
	}
}

// ProcessError runs raw through the default processor.
func ProcessError(raw any, ec *ErrorContext) ProcessedError {
	return Default().Process(raw, ec)
}
