package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/internal/classify"
	"github.com/JaimeStill/verbatim/pkg/pagination"
	"github.com/JaimeStill/verbatim/pkg/storage"
)

const finishTimeout = 30 * time.Second

// Config tunes the batch loop.
type Config struct {
	BatchSize     int
	BatchDelay    time.Duration
	LogSize       int
	ResetPageSize int
	FetchAttempts uint
	FetchDelay    time.Duration
}

// Catalog is the view of the work catalog a run reads from.
type Catalog interface {
	Estimate(ctx context.Context, scope catalog.Scope) (int, error)
	FetchBatch(ctx context.Context, scope catalog.Scope, req catalog.BatchRequest) ([]catalog.Item, error)
	Categories(ctx context.Context, unitID uuid.UUID) ([]catalog.Category, error)
	Units(ctx context.Context) ([]catalog.Unit, error)
	Unit(ctx context.Context, id uuid.UUID) (*catalog.Unit, error)
}

// Runtime bundles the dependencies an Engine requires.
// Reports is optional; a nil value disables the run report archive.
type Runtime struct {
	Store      Store
	Catalog    Catalog
	Classifier classify.Classifier
	Reports    *Reports
	Logger     *slog.Logger
}

// Engine runs at most one analysis per scope within the process. Runs for
// different scopes proceed concurrently; batches within a run are strictly
// sequential.
type Engine struct {
	cfg        Config
	store      Store
	catalog    Catalog
	classifier classify.Classifier
	reports    *Reports
	logger     *slog.Logger
	pagination pagination.Config

	ctx  context.Context
	mu   sync.Mutex
	runs map[string]*run
	wg   sync.WaitGroup
}

// New creates an Engine whose runs are bound to ctx. Cancelling ctx stops
// every run after its in-flight batch.
func New(ctx context.Context, cfg Config, rt *Runtime, pagination pagination.Config) *Engine {
	return &Engine{
		cfg:        cfg,
		store:      rt.Store,
		catalog:    rt.Catalog,
		classifier: rt.Classifier,
		reports:    rt.Reports,
		logger:     rt.Logger.With("system", "jobs"),
		pagination: pagination,
		ctx:        ctx,
		runs:       make(map[string]*run),
	}
}

// run is the in-process handle of an active scope.
type run struct {
	scope catalog.Scope
	stop  chan struct{}
	once  sync.Once
	done  chan struct{}
}

func (r *run) signal() {
	r.once.Do(func() { close(r.stop) })
}

func (r *run) stopping() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

func (e *Engine) reserve(scope catalog.Scope) (*run, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := scope.String()
	if _, ok := e.runs[key]; ok {
		return nil, ErrJobActive
	}

	r := &run{
		scope: scope,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	e.runs[key] = r
	return r, nil
}

func (e *Engine) release(r *run) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := r.scope.String()
	if e.runs[key] == r {
		delete(e.runs, key)
	}
	close(r.done)
}

func (e *Engine) lookupRun(scope catalog.Scope) *run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs[scope.String()]
}

func (e *Engine) Handler() *Handler {
	return NewHandler(e, e.logger, e.pagination)
}

// Start claims the scope's job and begins a run in the background.
func (e *Engine) Start(ctx context.Context, scope catalog.Scope) (*Job, error) {
	r, err := e.reserve(scope)
	if err != nil {
		return nil, err
	}

	job, err := e.claim(ctx, scope)
	if err != nil {
		e.release(r)
		return nil, err
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.release(r)
		e.execute(r, job)
	}()

	return job, nil
}

func (e *Engine) claim(ctx context.Context, scope catalog.Scope) (*Job, error) {
	job, err := e.store.Ensure(ctx, scope)
	if err != nil {
		return nil, err
	}

	if job.Status == StatusProcessing {
		return nil, ErrJobActive
	}

	if job.Status.Terminal() {
		if err := e.store.Arm(ctx, job.ID); err != nil {
			return nil, err
		}
	}

	return e.store.Claim(ctx, job.ID, []LogEntry{newEntry(LevelInfo, "run started")})
}

// Stop requests the scope's active run to stop after its in-flight batch.
// A pending job stops immediately.
func (e *Engine) Stop(ctx context.Context, scope catalog.Scope) (*Job, error) {
	job, err := e.store.FindByScope(ctx, scope)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotRunning
		}
		return nil, err
	}

	if job.Status.Terminal() {
		return nil, ErrNotRunning
	}

	job, err = e.store.RequestStop(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	if r := e.lookupRun(scope); r != nil {
		r.signal()
	}

	e.logger.Info("stop requested", "job_id", job.ID, "scope", scope.String())
	return job, nil
}

// Reset deletes every result in the scope and clears the job's progress.
// It is rejected while the scope is processing.
func (e *Engine) Reset(ctx context.Context, scope catalog.Scope) (*ResetResult, error) {
	r, err := e.reserve(scope)
	if err != nil {
		return nil, err
	}
	defer e.release(r)

	job, err := e.store.FindByScope(ctx, scope)
	switch {
	case err == nil && job.Status == StatusProcessing:
		return nil, ErrJobActive
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, err
	}

	deleted, job, err := e.store.Reset(ctx, scope, e.cfg.ResetPageSize)
	if err != nil {
		return nil, err
	}

	e.logger.Info("scope reset", "scope", scope.String(), "deleted", deleted)
	return &ResetResult{Scope: scope, Deleted: deleted, Job: job}, nil
}

// Progress returns a snapshot of the scope's job.
func (e *Engine) Progress(ctx context.Context, scope catalog.Scope) (*Progress, error) {
	job, err := e.store.FindByScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	return NewProgress(job), nil
}

func (e *Engine) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Job], error) {
	return e.store.List(ctx, page, filters)
}

func (e *Engine) Find(ctx context.Context, id uuid.UUID) (*Job, error) {
	return e.store.Find(ctx, id)
}

// Report opens the archived report of the job's most recent run.
func (e *Engine) Report(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	if e.reports == nil {
		return nil, ErrReportsDisabled
	}

	job, err := e.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	rc, err := e.reports.Open(ctx, job)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: no report for job %s", ErrNotFound, id)
		}
		return nil, err
	}
	return rc, nil
}

// Recover marks jobs left active by a previous process as stopped. It must
// run before any run is started in this process.
func (e *Engine) Recover(ctx context.Context) (int, error) {
	active, err := e.store.Active(ctx)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, job := range active {
		if e.lookupRun(job.Scope()) != nil {
			continue
		}

		cp := checkpointOf(&job)
		cp.Logs = appendLog(cp.Logs, newEntry(LevelWarn, "run interrupted; marked stopped during recovery"), e.cfg.LogSize)

		if _, err := e.store.Finish(ctx, job.ID, StatusStopped, cp); err != nil {
			if errors.Is(err, ErrNotRunning) {
				continue
			}
			return recovered, err
		}

		e.logger.Warn("recovered interrupted job", "job_id", job.ID, "scope", job.Scope().String())
		recovered++
	}

	return recovered, nil
}

// Wait blocks until the scope's in-process run, if any, has ended.
func (e *Engine) Wait(ctx context.Context, scope catalog.Scope) error {
	r := e.lookupRun(scope)
	if r == nil {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain blocks until every in-process run has ended.
func (e *Engine) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newEntry(level, message string) LogEntry {
	return LogEntry{Time: time.Now().UTC(), Level: level, Message: message}
}

func checkpointOf(j *Job) Checkpoint {
	return Checkpoint{
		Total:     j.TotalItems,
		Processed: j.ProcessedItems,
		Failed:    j.FailedItems,
		Batches:   j.Batches,
		Cursor:    j.Cursor,
		Logs:      j.Logs,
	}
}
