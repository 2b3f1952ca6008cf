package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/analyses"
	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/pkg/pagination"
	"github.com/JaimeStill/verbatim/pkg/query"
	"github.com/JaimeStill/verbatim/pkg/repository"
)

// Store persists job rows and commits batch results.
type Store interface {
	// Ensure returns the scope's job, creating it as pending if absent.
	// Returns catalog.ErrInvalidScope if the survey belongs to another unit.
	Ensure(ctx context.Context, scope catalog.Scope) (*Job, error)
	Find(ctx context.Context, id uuid.UUID) (*Job, error)
	FindByScope(ctx context.Context, scope catalog.Scope) (*Job, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Job], error)
	// Active returns every pending or processing job.
	Active(ctx context.Context) ([]Job, error)

	// Arm moves a terminal job back to pending. Non-terminal jobs are left as is.
	Arm(ctx context.Context, id uuid.UUID) error
	// Claim moves a pending job to processing and clears the previous run's
	// state. Returns ErrJobActive if the job is not pending.
	Claim(ctx context.Context, id uuid.UUID, logs []LogEntry) (*Job, error)
	// RequestStop flags an active job to stop. A pending job stops at once.
	// Returns ErrNotRunning if the job is not active.
	RequestStop(ctx context.Context, id uuid.UUID) (*Job, error)
	StopRequested(ctx context.Context, id uuid.UUID) (bool, error)

	Checkpoint(ctx context.Context, id uuid.UUID, cp Checkpoint) error
	// CommitBatch appends rows and writes cp in one transaction.
	CommitBatch(ctx context.Context, job *Job, rows []analyses.Row, cp Checkpoint) (int64, error)
	// Finish moves an active job to a terminal status. Completion of a job
	// with a pending stop request records it as stopped.
	Finish(ctx context.Context, id uuid.UUID, status Status, cp Checkpoint) (*Job, error)

	// Reset deletes the scope's results in pages of pageSize and clears the
	// scope's job counters in one transaction. Returns ErrJobActive without
	// deleting anything if the scope is processing.
	Reset(ctx context.Context, scope catalog.Scope, pageSize int) (int64, *Job, error)
}

type store struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// NewStore creates a PostgreSQL-backed Store.
func NewStore(db *sql.DB, logger *slog.Logger, pagination pagination.Config) Store {
	return &store{
		db:         db,
		logger:     logger.With("system", "jobs-store"),
		pagination: pagination,
	}
}

func (s *store) Ensure(ctx context.Context, scope catalog.Scope) (*Job, error) {
	q := `
		INSERT INTO public.analysis_jobs (id, unit_id, survey_id, status, logs)
		SELECT $1, $2, $3::uuid, 'pending', '[]'::jsonb
		WHERE $3::uuid IS NULL
			OR EXISTS (SELECT 1 FROM public.surveys s WHERE s.id = $3::uuid AND s.unit_id = $2)
		ON CONFLICT DO NOTHING`

	if _, err := s.db.ExecContext(ctx, q, uuid.New(), scope.UnitID, scope.SurveyID); err != nil {
		return nil, repository.MapError(err, catalog.ErrNotFound, ErrDuplicate)
	}

	j, err := s.FindByScope(ctx, scope)
	if errors.Is(err, ErrNotFound) && scope.SurveyID != nil {
		return nil, fmt.Errorf("%w: survey %s does not belong to unit %s", catalog.ErrInvalidScope, scope.SurveyID, scope.UnitID)
	}
	return j, err
}

func (s *store) Find(ctx context.Context, id uuid.UUID) (*Job, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	j, err := repository.QueryOne(ctx, s.db, q, args, scanJob)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &j, nil
}

func (s *store) FindByScope(ctx context.Context, scope catalog.Scope) (*Job, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("UnitID", scope.UnitID).
		WhereNullable("SurveyID", scope.SurveyID).
		Build()

	j, err := repository.QueryOne(ctx, s.db, q, args, scanJob)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &j, nil
}

func (s *store) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Job], error) {
	page.Normalize(s.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	jobs, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanJob)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	result := pagination.NewPageResult(jobs, total, page.Page, page.PageSize)
	return &result, nil
}

func (s *store) Active(ctx context.Context) ([]Job, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "CreatedAt"}).
		WhereIn("Status", []any{string(StatusPending), string(StatusProcessing)}).
		Build()

	jobs, err := repository.QueryMany(ctx, s.db, q, args, scanJob)
	if err != nil {
		return nil, fmt.Errorf("query active jobs: %w", err)
	}
	return jobs, nil
}

func (s *store) Arm(ctx context.Context, id uuid.UUID) error {
	q := `
		UPDATE public.analysis_jobs
		SET status = 'pending', updated_at = now()
		WHERE id = $1 AND status IN ('completed', 'stopped', 'failed')`

	if _, err := repository.ExecCount(ctx, s.db, q, id); err != nil {
		return fmt.Errorf("arm job %s: %w", id, err)
	}
	return nil
}

func (s *store) Claim(ctx context.Context, id uuid.UUID, logs []LogEntry) (*Job, error) {
	encoded, err := encodeLogs(logs)
	if err != nil {
		return nil, err
	}

	q := `
		UPDATE public.analysis_jobs
		SET status = 'processing',
			total_items = 0,
			processed_items = 0,
			failed_items = 0,
			batches = 0,
			cursor = 0,
			stop_requested = false,
			logs = $2::jsonb,
			started_at = now(),
			finished_at = NULL,
			updated_at = now()
		WHERE id = $1 AND status = 'pending'
		` + returning

	j, err := repository.QueryOne(ctx, s.db, q, []any{id, encoded}, scanJob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobActive
		}
		return nil, fmt.Errorf("claim job %s: %w", id, err)
	}
	return &j, nil
}

func (s *store) RequestStop(ctx context.Context, id uuid.UUID) (*Job, error) {
	q := `
		UPDATE public.analysis_jobs
		SET stop_requested = true,
			status = CASE WHEN status = 'pending' THEN 'stopped' ELSE status END,
			finished_at = CASE WHEN status = 'pending' THEN now() ELSE finished_at END,
			updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'processing')
		` + returning

	j, err := repository.QueryOne(ctx, s.db, q, []any{id}, scanJob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotRunning
		}
		return nil, fmt.Errorf("request stop %s: %w", id, err)
	}
	return &j, nil
}

func (s *store) StopRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	var requested bool
	err := s.db.QueryRowContext(ctx,
		"SELECT stop_requested FROM public.analysis_jobs WHERE id = $1", id,
	).Scan(&requested)
	if err != nil {
		return false, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return requested, nil
}

const checkpointSQL = `
	UPDATE public.analysis_jobs
	SET total_items = $2,
		processed_items = $3,
		failed_items = $4,
		batches = $5,
		cursor = $6,
		logs = $7::jsonb,
		updated_at = now()
	WHERE id = $1 AND status = 'processing'`

func checkpointArgs(id uuid.UUID, cp Checkpoint) ([]any, error) {
	logs, err := encodeLogs(cp.Logs)
	if err != nil {
		return nil, err
	}
	return []any{id, cp.Total, cp.Processed, cp.Failed, cp.Batches, cp.Cursor, logs}, nil
}

func (s *store) Checkpoint(ctx context.Context, id uuid.UUID, cp Checkpoint) error {
	args, err := checkpointArgs(id, cp)
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(ctx, s.db, checkpointSQL, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotRunning
		}
		return fmt.Errorf("checkpoint job %s: %w", id, err)
	}
	return nil
}

func (s *store) CommitBatch(ctx context.Context, job *Job, rows []analyses.Row, cp Checkpoint) (int64, error) {
	args, err := checkpointArgs(job.ID, cp)
	if err != nil {
		return 0, err
	}

	return repository.WithTx(ctx, s.db, func(tx *sql.Tx) (int64, error) {
		// Serializes commits per unit so the insert's NOT EXISTS check
		// observes results committed by any overlapping run.
		if err := lockUnit(ctx, tx, job.UnitID); err != nil {
			return 0, err
		}

		n, err := analyses.Insert(ctx, tx, job.ID, rows)
		if err != nil {
			return 0, err
		}

		if err := repository.ExecExpectOne(ctx, tx, checkpointSQL, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, ErrNotRunning
			}
			return 0, fmt.Errorf("checkpoint job %s: %w", job.ID, err)
		}

		return n, nil
	})
}

func (s *store) Finish(ctx context.Context, id uuid.UUID, status Status, cp Checkpoint) (*Job, error) {
	logs, err := encodeLogs(cp.Logs)
	if err != nil {
		return nil, err
	}

	q := `
		UPDATE public.analysis_jobs
		SET status = CASE WHEN $2::text = 'completed' AND stop_requested THEN 'stopped' ELSE $2::text END,
			total_items = $3,
			processed_items = $4,
			failed_items = $5,
			batches = $6,
			cursor = $7,
			logs = $8::jsonb,
			finished_at = now(),
			updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'processing')
		` + returning

	args := []any{id, string(status), cp.Total, cp.Processed, cp.Failed, cp.Batches, cp.Cursor, logs}

	j, err := repository.QueryOne(ctx, s.db, q, args, scanJob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotRunning
		}
		return nil, fmt.Errorf("finish job %s: %w", id, err)
	}
	return &j, nil
}

const resetSQL = `
	UPDATE public.analysis_jobs
	SET total_items = 0,
		processed_items = 0,
		failed_items = 0,
		batches = 0,
		cursor = 0,
		stop_requested = false,
		logs = '[]'::jsonb,
		updated_at = now()
	WHERE id = $1 AND status <> 'processing'
	` + returning

type resetOutcome struct {
	deleted int64
	job     *Job
}

func (s *store) Reset(ctx context.Context, scope catalog.Scope, pageSize int) (int64, *Job, error) {
	out, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (resetOutcome, error) {
		var out resetOutcome

		// Holding the unit lock keeps any run that claims the scope after
		// the status check from committing until the reset is done.
		if err := lockUnit(ctx, tx, scope.UnitID); err != nil {
			return out, err
		}

		var (
			id     uuid.UUID
			status Status
		)
		err := tx.QueryRowContext(ctx, `
			SELECT id, status FROM public.analysis_jobs
			WHERE unit_id = $1 AND survey_id IS NOT DISTINCT FROM $2
			FOR UPDATE`,
			scope.UnitID, scope.SurveyID,
		).Scan(&id, &status)

		exists := true
		switch {
		case errors.Is(err, sql.ErrNoRows):
			exists = false
		case err != nil:
			return out, fmt.Errorf("lock job %s: %w", scope, err)
		case status == StatusProcessing:
			return out, ErrJobActive
		}

		out.deleted, err = analyses.DeleteByScope(ctx, tx, scope, pageSize)
		if err != nil {
			return out, err
		}

		if !exists {
			return out, nil
		}

		j, err := repository.QueryOne(ctx, tx, resetSQL, []any{id}, scanJob)
		if err != nil {
			return out, fmt.Errorf("reset job %s: %w", scope, err)
		}
		out.job = &j
		return out, nil
	})
	if err != nil {
		return 0, nil, err
	}
	return out.deleted, out.job, nil
}

// lockUnit takes the transaction-scoped advisory lock that serializes result
// writes and resets for a unit.
func lockUnit(ctx context.Context, tx *sql.Tx, unitID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx,
		"SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", unitID.String(),
	); err != nil {
		return fmt.Errorf("lock unit %s: %w", unitID, err)
	}
	return nil
}
