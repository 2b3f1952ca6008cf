// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/verbatim/internal/config"
	"github.com/JaimeStill/verbatim/internal/infrastructure"
	"github.com/JaimeStill/verbatim/pkg/middleware"
	"github.com/JaimeStill/verbatim/pkg/module"
)

// API is the mounted HTTP module together with the domain systems behind it.
type API struct {
	Module *module.Module
	Domain *Domain
}

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*API, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	patterns := registerRoutes(mux, domain)
	runtime.Logger.Debug("api routes registered", "count", len(patterns), "routes", patterns)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
	)

	return &API{Module: m, Domain: domain}, nil
}
