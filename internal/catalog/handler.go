package catalog

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/pkg/handlers"
	"github.com/JaimeStill/verbatim/pkg/routes"
)

// Handler provides read-only HTTP endpoints over units, taxonomies, and pending work.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "catalog"),
	}
}

// Routes returns the route group definition for catalog endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/catalog",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/units", Handler: h.Units},
			{Method: "GET", Pattern: "/units/{unitId}", Handler: h.Unit},
			{Method: "GET", Pattern: "/units/{unitId}/categories", Handler: h.Categories},
			{Method: "GET", Pattern: "/units/{unitId}/pending", Handler: h.Pending},
			{Method: "GET", Pattern: "/pending", Handler: h.PendingUnits},
		},
	}
}

// Units lists all units.
func (h *Handler) Units(w http.ResponseWriter, r *http.Request) {
	units, err := h.sys.Units(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, units)
}

// Unit returns a single unit by its {unitId} path parameter.
func (h *Handler) Unit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("unitId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidScope)
		return
	}

	unit, err := h.sys.Unit(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, unit)
}

// Categories lists the taxonomy of a unit.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("unitId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidScope)
		return
	}

	categories, err := h.sys.Categories(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, categories)
}

// Pending returns the pending estimate for a scope.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	scope, err := ScopeFromRequest(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	count, err := h.sys.Estimate(r.Context(), scope)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, Estimate{Scope: scope, Pending: count})
}

// PendingUnits lists units that still have comments without analyses.
func (h *Handler) PendingUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.sys.PendingUnits(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, units)
}
