package commands

import (
	"log/slog"

	"github.com/dotcommander/triage/internal/app"
	"github.com/dotcommander/triage/internal/metrics"
	"github.com/dotcommander/triage/internal/store"
	"github.com/dotcommander/triage/pkg/triage"
)

// processorSession bundles a processor with the journal it writes to, if any.
type processorSession struct {
	processor *triage.Processor
	db        *DB
	close     func()
}

// journaling reports whether processed errors are persisted.
func (s *processorSession) journaling() bool { return s.db != nil }

// openProcessor builds the processor used by process and retry. The journal
// recorder is attached only when journaling is enabled.
func openProcessor() (*processorSession, error) {
	envName, _ := app.ResolveEnvironment()
	env := triage.DefaultEnvironment(buildVersion)
	env.Name = envName

	opts := []triage.ProcessorOption{
		triage.WithLogger(slog.Default()),
		triage.WithEnvironment(env),
		triage.WithRecorder(metrics.Recorder{}),
	}

	s := &processorSession{close: func() {}}
	if app.JournalEnabled() {
		db, closeDB, err := openDB()
		if err != nil {
			return nil, err
		}
		s.db = db
		s.close = closeDB
		opts = append(opts, triage.WithRecorder(store.NewJournal(db)))
	}

	s.processor = triage.NewProcessor(opts...)
	triage.SetDefault(s.processor)
	return s, nil
}
