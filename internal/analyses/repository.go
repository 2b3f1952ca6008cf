package analyses

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/verbatim/pkg/pagination"
	"github.com/JaimeStill/verbatim/pkg/query"
	"github.com/JaimeStill/verbatim/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an analysis repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "analyses"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Analysis], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "Text", "Category")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	rows, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAnalysis)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}

	result := pagination.NewPageResult(rows, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAnalysis)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) Summary(ctx context.Context, filters Filters) (*Summary, error) {
	var s Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		q, args := filters.Apply(query.NewBuilder(projection)).BuildAggregate(
			"COUNT(*), COUNT(DISTINCT a.comment_id), " +
				"COUNT(*) FILTER (WHERE a.suggestion), COUNT(*) FILTER (WHERE a.placeholder)",
		)
		err := r.db.QueryRowContext(ctx, q, args...).Scan(&s.Total, &s.Comments, &s.Suggestions, &s.Placeholders)
		if err != nil {
			return fmt.Errorf("summarize totals: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		q, args := filters.Apply(query.NewBuilder(projection)).BuildAggregate("a.sentiment, COUNT(*)", "a.sentiment")
		counts, err := repository.QueryMany(ctx, r.db, q+" ORDER BY a.sentiment", args, scanCount)
		if err != nil {
			return fmt.Errorf("summarize sentiments: %w", err)
		}
		s.Sentiments = counts
		return nil
	})

	g.Go(func() error {
		q, args := filters.Apply(query.NewBuilder(projection)).
			BuildAggregate("COALESCE(k.name, 'Uncategorized'), COUNT(*)", "COALESCE(k.name, 'Uncategorized')")
		counts, err := repository.QueryMany(ctx, r.db, q+" ORDER BY 2 DESC, 1", args, scanCount)
		if err != nil {
			return fmt.Errorf("summarize categories: %w", err)
		}
		s.Categories = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}
