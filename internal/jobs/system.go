package jobs

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/pkg/pagination"
)

// System defines the job control surface.
type System interface {
	Handler() *Handler

	Start(ctx context.Context, scope catalog.Scope) (*Job, error)
	Stop(ctx context.Context, scope catalog.Scope) (*Job, error)
	Reset(ctx context.Context, scope catalog.Scope) (*ResetResult, error)
	Progress(ctx context.Context, scope catalog.Scope) (*Progress, error)

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Job], error)
	Find(ctx context.Context, id uuid.UUID) (*Job, error)
	Report(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
}

var _ System = (*Engine)(nil)
