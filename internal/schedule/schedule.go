// Package schedule starts incremental analysis runs for units with pending
// comments on a cron schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/internal/jobs"
	"github.com/JaimeStill/verbatim/pkg/lifecycle"
)

// Source reports which units have comments awaiting analysis.
type Source interface {
	PendingUnits(ctx context.Context) ([]catalog.PendingUnit, error)
}

// Starter begins a run for a scope.
type Starter interface {
	Start(ctx context.Context, scope catalog.Scope) (*jobs.Job, error)
}

// Tick is the outcome of a single scheduled pass.
type Tick struct {
	Started int
	Skipped int
	Failed  int
}

// Scheduler runs a pass over pending units on every cron activation.
// Passes never overlap.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	source  Source
	starter Starter
	logger  *slog.Logger
}

// New creates a Scheduler for a standard cron spec or descriptor such as
// "@every 15m". It does not fire until Start is called.
func New(spec string, source Source, starter Starter, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	logger = logger.With("system", "schedule")
	adapter := cronLogger{logger: logger}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		spec:    spec,
		source:  source,
		starter: starter,
		logger:  logger,
	}

	return s, nil
}

// Start registers the pass with the cron runner and begins firing. The runner
// halts on shutdown once any in-flight pass returns.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.Run(lc.Context()); err != nil {
			s.logger.Error("scheduled pass failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-s.cron.Stop().Done()
		s.logger.Info("scheduler stopped")
	})

	return nil
}

// Run starts a unit-scoped run for every unit with pending comments. Units
// already processing are skipped.
func (s *Scheduler) Run(ctx context.Context) (Tick, error) {
	var tick Tick

	units, err := s.source.PendingUnits(ctx)
	if err != nil {
		return tick, fmt.Errorf("pending units: %w", err)
	}

	for _, u := range units {
		if u.Pending <= 0 {
			continue
		}

		_, err := s.starter.Start(ctx, catalog.Scope{UnitID: u.UnitID})
		switch {
		case err == nil:
			tick.Started++
			s.logger.Info("scheduled run started", "unit", u.Name, "pending", u.Pending)
		case errors.Is(err, jobs.ErrJobActive):
			tick.Skipped++
		default:
			tick.Failed++
			s.logger.Warn("scheduled run not started", "unit", u.Name, "error", err)
		}
	}

	s.logger.Debug("scheduled pass complete", "started", tick.Started, "skipped", tick.Skipped, "failed", tick.Failed)
	return tick, nil
}

// cronLogger routes cron runner events to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
