package analyses

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/pkg/pagination"
)

// System defines the read interface over classification results.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Analysis], error)
	Find(ctx context.Context, id uuid.UUID) (*Analysis, error)
	Summary(ctx context.Context, filters Filters) (*Summary, error)
}
