package catalog

import (
	"context"

	"github.com/google/uuid"
)

// System defines the read contract over units, taxonomies, and analyzable items.
type System interface {
	Handler() *Handler

	// Estimate counts comments in scope that have no analyses. The count is
	// advisory and may be stale by the time a run finishes.
	Estimate(ctx context.Context, scope Scope) (int, error)

	// FetchBatch returns up to req.Limit pending comments in scope with
	// id > req.After, ordered by id ascending. An empty slice means the
	// scope is exhausted.
	FetchBatch(ctx context.Context, scope Scope, req BatchRequest) ([]Item, error)

	Categories(ctx context.Context, unitID uuid.UUID) ([]Category, error)
	Units(ctx context.Context) ([]Unit, error)
	Unit(ctx context.Context, id uuid.UUID) (*Unit, error)
	PendingUnits(ctx context.Context) ([]PendingUnit, error)
}
