package api

import (
	"net/http"

	"github.com/JaimeStill/verbatim/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) []string {
	return routes.Register(
		mux,
		domain.Catalog.Handler().Routes(),
		domain.Analyses.Handler().Routes(),
		domain.Jobs.Handler().Routes(),
	)
}
