package analyses

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/pkg/repository"
)

const insertColumns = 9

// Insert appends rows in a single statement and returns the number written.
// Rows for comments that already hold a result are skipped, so a batch
// committed twice never duplicates results.
func Insert(ctx context.Context, e repository.Executor, jobID uuid.UUID, rows []Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*insertColumns)

	for i, row := range rows {
		related, err := json.Marshal(row.RelatedUnitIDs)
		if err != nil {
			return 0, fmt.Errorf("encode related units for comment %d: %w", row.CommentID, err)
		}

		n := i * insertColumns
		values = append(values, fmt.Sprintf(
			"($%d::uuid, $%d::bigint, $%d::text, $%d::text, $%d::uuid, $%d::jsonb, $%d::boolean, $%d::boolean, $%d::uuid)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9,
		))
		args = append(args,
			uuid.New(),
			row.CommentID,
			row.Text,
			string(row.Sentiment),
			row.CategoryID,
			string(related),
			row.Suggestion,
			row.Placeholder,
			jobID,
		)
	}

	q := `
		INSERT INTO public.analyses (id, comment_id, body, sentiment, category_id, related_unit_ids, suggestion, placeholder, job_id)
		SELECT v.id, v.comment_id, v.body, v.sentiment, v.category_id, v.related_unit_ids, v.suggestion, v.placeholder, v.job_id
		FROM (VALUES ` + strings.Join(values, ", ") + `)
			AS v(id, comment_id, body, sentiment, category_id, related_unit_ids, suggestion, placeholder, job_id)
		WHERE NOT EXISTS (SELECT 1 FROM public.analyses a WHERE a.comment_id = v.comment_id)`

	n, err := repository.ExecCount(ctx, e, q, args...)
	if err != nil {
		return 0, fmt.Errorf("insert analyses: %w", err)
	}
	return n, nil
}

// DeleteByScope removes every result for the scope's comments in passes of
// at most pageSize rows and returns the number deleted.
func DeleteByScope(ctx context.Context, e repository.Executor, scope catalog.Scope, pageSize int) (int64, error) {
	q, args := deleteByScope(scope)

	n, err := repository.ExecPaged(ctx, e, pageSize, q, args...)
	if err != nil {
		return n, fmt.Errorf("delete analyses %s: %w", scope, err)
	}
	return n, nil
}

func deleteByScope(scope catalog.Scope) (string, []any) {
	where := "c.unit_id = $1"
	args := []any{scope.UnitID}
	if scope.SurveyID != nil {
		where += " AND c.survey_id = $2"
		args = append(args, *scope.SurveyID)
	}

	q := fmt.Sprintf(`
		DELETE FROM public.analyses WHERE id IN (
			SELECT a.id FROM public.analyses a
			JOIN public.comments c ON c.id = a.comment_id
			WHERE %s
			LIMIT $%d
		)`, where, len(args)+1)

	return q, args
}
