package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/pkg/query"
	"github.com/JaimeStill/verbatim/pkg/repository"
)

type repo struct {
	db           *sql.DB
	logger       *slog.Logger
	maxBatchSize int
}

// New creates a catalog repository implementing the System interface.
// FetchBatch limits are clamped to [1, maxBatchSize].
func New(db *sql.DB, logger *slog.Logger, maxBatchSize int) System {
	return &repo{
		db:           db,
		logger:       logger.With("system", "catalog"),
		maxBatchSize: max(maxBatchSize, 1),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Estimate(ctx context.Context, scope Scope) (int, error) {
	q, args := pending(scope).BuildCount()

	var count int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("catalog: estimate %s: %w", scope, err)
	}
	return count, nil
}

func (r *repo) FetchBatch(ctx context.Context, scope Scope, req BatchRequest) ([]Item, error) {
	limit := min(max(req.Limit, 1), r.maxBatchSize)

	q, args := pending(scope).
		Where("c.id > $%d", req.After).
		BuildLimit(limit)

	items, err := repository.QueryMany(ctx, r.db, q, args, scanItem)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch batch %s after %d: %w", scope, req.After, err)
	}
	return items, nil
}

func (r *repo) Categories(ctx context.Context, unitID uuid.UUID) ([]Category, error) {
	q, args := query.
		NewBuilder(categoryProjection, query.SortField{Field: "Name"}).
		WhereEquals("UnitID", unitID).
		Build()

	categories, err := repository.QueryMany(ctx, r.db, q, args, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("catalog: categories %s: %w", unitID, err)
	}
	return categories, nil
}

func (r *repo) Units(ctx context.Context) ([]Unit, error) {
	q, args := query.
		NewBuilder(unitProjection, query.SortField{Field: "Name"}).
		Build()

	units, err := repository.QueryMany(ctx, r.db, q, args, scanUnit)
	if err != nil {
		return nil, fmt.Errorf("catalog: units: %w", err)
	}
	return units, nil
}

func (r *repo) Unit(ctx context.Context, id uuid.UUID) (*Unit, error) {
	q, args := query.NewBuilder(unitProjection).BuildSingle("ID", id)

	u, err := repository.QueryOne(ctx, r.db, q, args, scanUnit)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &u, nil
}

func (r *repo) PendingUnits(ctx context.Context) ([]PendingUnit, error) {
	q := `
		SELECT u.id, u.name, COUNT(c.id)
		FROM public.units u
		JOIN public.comments c ON c.unit_id = u.id
		WHERE ` + pendingClause + `
		GROUP BY u.id, u.name
		ORDER BY u.name`

	units, err := repository.QueryMany(ctx, r.db, q, nil, scanPendingUnit)
	if err != nil {
		return nil, fmt.Errorf("catalog: pending units: %w", err)
	}
	return units, nil
}
