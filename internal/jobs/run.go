package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/verbatim/internal/analyses"
	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/internal/classify"
)

// execution is the state of a single run. Checkpoint values only advance
// once the store has accepted them.
type execution struct {
	run    *run
	job    *Job
	cp     Checkpoint
	lookup analyses.Lookup
	base   classify.Request
	logger *slog.Logger
}

type preconditions struct {
	unit       *catalog.Unit
	categories []catalog.Category
	units      []catalog.Unit
	estimate   int
}

func (e *Engine) execute(r *run, job *Job) {
	ctx := e.ctx
	x := &execution{
		run:    r,
		job:    job,
		cp:     checkpointOf(job),
		logger: e.logger.With("job_id", job.ID, "scope", r.scope.String()),
	}
	x.logger.Info("run started")

	pre, err := e.loadPreconditions(ctx, r.scope)
	if err != nil {
		e.finish(x, StatusFailed, LevelError, fmt.Sprintf("loading preconditions failed: %v", err))
		return
	}

	if len(pre.categories) == 0 {
		e.finish(x, StatusFailed, LevelError, "unit has no categories; nothing to classify against")
		return
	}

	names := make([]string, len(pre.units))
	for i, u := range pre.units {
		names[i] = u.Name
	}
	categories := make([]classify.Category, len(pre.categories))
	for i, c := range pre.categories {
		categories[i] = classify.Category{Name: c.Name, Description: c.Description}
	}

	x.lookup = analyses.NewLookup(pre.categories, pre.units)
	x.base = classify.Request{
		Categories:   categories,
		Units:        names,
		Instructions: pre.unit.Context,
	}

	x.cp.Total = pre.estimate
	x.log(e.cfg.LogSize, LevelInfo, fmt.Sprintf("%d comments pending", pre.estimate))
	if err := e.store.Checkpoint(ctx, job.ID, x.cp); err != nil {
		x.logger.Warn("checkpoint failed", "error", err)
	}

	for {
		if ctx.Err() != nil {
			e.finish(x, StatusStopped, LevelWarn, "run interrupted by shutdown")
			return
		}

		if e.stopRequested(ctx, x) {
			e.finish(x, StatusStopped, LevelInfo, fmt.Sprintf(
				"stopped after %d batches: %d processed, %d failed",
				x.cp.Batches, x.cp.Processed, x.cp.Failed,
			))
			return
		}

		items, err := e.fetch(ctx, x)
		if err != nil {
			if ctx.Err() != nil {
				e.finish(x, StatusStopped, LevelWarn, "run interrupted by shutdown")
				return
			}
			e.finish(x, StatusFailed, LevelError, fmt.Sprintf("fetching comments failed: %v", err))
			return
		}

		if len(items) == 0 {
			e.finish(x, StatusCompleted, LevelInfo, fmt.Sprintf(
				"completed after %d batches: %d processed, %d failed",
				x.cp.Batches, x.cp.Processed, x.cp.Failed,
			))
			return
		}

		if err := e.process(ctx, x, items); err != nil {
			x.logger.Error("run abandoned", "error", err)
			return
		}

		e.pause(ctx, x.run)
	}
}

func (e *Engine) loadPreconditions(ctx context.Context, scope catalog.Scope) (*preconditions, error) {
	var pre preconditions
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		u, err := e.catalog.Unit(gctx, scope.UnitID)
		if err != nil {
			return fmt.Errorf("unit: %w", err)
		}
		pre.unit = u
		return nil
	})

	g.Go(func() error {
		categories, err := e.catalog.Categories(gctx, scope.UnitID)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		pre.categories = categories
		return nil
	})

	g.Go(func() error {
		units, err := e.catalog.Units(gctx)
		if err != nil {
			return fmt.Errorf("units: %w", err)
		}
		pre.units = units
		return nil
	})

	g.Go(func() error {
		n, err := e.catalog.Estimate(gctx, scope)
		if err != nil {
			return fmt.Errorf("estimate: %w", err)
		}
		pre.estimate = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &pre, nil
}

func (e *Engine) fetch(ctx context.Context, x *execution) ([]catalog.Item, error) {
	req := catalog.BatchRequest{After: x.cp.Cursor, Limit: e.cfg.BatchSize}

	return retry.DoWithData(
		func() ([]catalog.Item, error) {
			return e.catalog.FetchBatch(ctx, x.run.scope, req)
		},
		retry.Context(ctx),
		retry.Attempts(max(e.cfg.FetchAttempts, 1)),
		retry.Delay(e.cfg.FetchDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			x.logger.Warn("fetch attempt failed", "attempt", n+1, "after", req.After, "error", err)
		}),
	)
}

// process classifies, reconciles, and commits one batch. A failed batch is
// recorded and skipped; only loss of the job row aborts the run.
func (e *Engine) process(ctx context.Context, x *execution, items []catalog.Item) error {
	batch := x.cp.Batches + 1
	last := items[len(items)-1].ID

	req := x.base
	req.Items = make([]classify.Item, len(items))
	for i, item := range items {
		req.Items[i] = classify.Item{ID: item.ID, Text: item.Text}
	}

	start := time.Now()
	results, err := e.classifier.Classify(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return e.failBatch(ctx, x, items, fmt.Sprintf("batch %d failed: classification: %v", batch, err))
	}

	rec := analyses.Reconcile(items, results, x.lookup)

	message := fmt.Sprintf("batch %d: %d comments classified, %d placeholders", batch, rec.Covered, rec.Placeholders)
	if rec.Unknown > 0 {
		message += fmt.Sprintf(", %d results for unknown comments ignored", rec.Unknown)
	}

	next := x.cp
	next.Processed += len(items)
	next.Batches = batch
	next.Cursor = last
	next.Logs = appendLog(x.cp.Logs, newEntry(LevelInfo, message), e.cfg.LogSize)

	written, err := e.store.CommitBatch(ctx, x.job, rec.Rows, next)
	if err != nil {
		if errors.Is(err, ErrNotRunning) {
			return err
		}
		return e.failBatch(ctx, x, items, fmt.Sprintf("batch %d failed: persisting results: %v", batch, err))
	}

	x.cp = next
	x.logger.Info(
		"batch committed",
		"batch", batch,
		"items", len(items),
		"rows", written,
		"placeholders", rec.Placeholders,
		"cursor", last,
		"duration", time.Since(start),
	)
	return nil
}

// failBatch counts the batch as failed and moves the cursor past it so the
// run continues. Its items stay pending for the next run.
func (e *Engine) failBatch(ctx context.Context, x *execution, items []catalog.Item, message string) error {
	x.cp.Failed += len(items)
	x.cp.Batches++
	x.cp.Cursor = items[len(items)-1].ID
	x.log(e.cfg.LogSize, LevelError, message)
	x.logger.Warn("batch failed", "batch", x.cp.Batches, "items", len(items), "reason", message)

	if err := e.store.Checkpoint(ctx, x.job.ID, x.cp); err != nil {
		if errors.Is(err, ErrNotRunning) {
			return err
		}
		x.logger.Warn("checkpoint failed", "error", err)
	}
	return nil
}

func (e *Engine) stopRequested(ctx context.Context, x *execution) bool {
	if x.run.stopping() {
		return true
	}

	requested, err := e.store.StopRequested(ctx, x.job.ID)
	if err != nil {
		x.logger.Warn("stop flag check failed", "error", err)
		return false
	}
	return requested
}

func (e *Engine) pause(ctx context.Context, r *run) {
	if e.cfg.BatchDelay <= 0 {
		return
	}

	timer := time.NewTimer(e.cfg.BatchDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-r.stop:
	case <-ctx.Done():
	}
}

func (e *Engine) finish(x *execution, status Status, level, message string) {
	x.log(e.cfg.LogSize, level, message)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(e.ctx), finishTimeout)
	defer cancel()

	job, err := e.store.Finish(ctx, x.job.ID, status, x.cp)
	if err != nil {
		x.logger.Error("finishing job failed", "status", status, "error", err)
		return
	}

	x.logger.Info(
		"run finished",
		"status", job.Status,
		"processed", job.ProcessedItems,
		"failed", job.FailedItems,
		"batches", job.Batches,
	)

	if e.reports != nil {
		if err := e.reports.Archive(ctx, job); err != nil {
			x.logger.Warn("archiving run report failed", "error", err)
		}
	}
}

func (x *execution) log(size int, level, message string) {
	x.cp.Logs = appendLog(x.cp.Logs, newEntry(level, message), size)
}
