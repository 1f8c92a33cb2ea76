package triage

import "log/slog"

// Recorder receives every processed error after it is logged. Errors returned
// by Record are discarded; a failing recorder never affects Process.
type Recorder interface {
	Record(pe ProcessedError) error
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(pe ProcessedError) error

// Record calls f(pe).
func (f RecorderFunc) Record(pe ProcessedError) error { return f(pe) }

// Reporter is the hook for forwarding critical production errors to an
// external monitoring sink.
type Reporter interface {
	Report(pe ProcessedError) error
}

// LogReporter is the default Reporter. It only logs that a report would be sent.
type LogReporter struct {
	Logger *slog.Logger
}

// Report logs pe at error level.
func (r LogReporter) Report(pe ProcessedError) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("critical error reported", pe.SlogAttrs()...)
	return nil
}
