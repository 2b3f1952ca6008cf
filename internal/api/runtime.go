package api

import (
	"github.com/JaimeStill/verbatim/internal/config"
	"github.com/JaimeStill/verbatim/internal/infrastructure"
	"github.com/JaimeStill/verbatim/internal/jobs"
	"github.com/JaimeStill/verbatim/pkg/pagination"
	"github.com/JaimeStill/verbatim/pkg/storage"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination   pagination.Config
	Engine       jobs.Config
	MaxBatchSize int
	Reports      *storage.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	rt := &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle:  infra.Lifecycle,
			Logger:     infra.Logger.With("module", "api"),
			Database:   infra.Database,
			Storage:    infra.Storage,
			Classifier: infra.Classifier,
		},
		Pagination: cfg.API.Pagination,
		Engine: jobs.Config{
			BatchSize:     cfg.Engine.BatchSize,
			BatchDelay:    cfg.Engine.BatchDelayDuration(),
			LogSize:       cfg.Engine.LogSize,
			ResetPageSize: cfg.Engine.ResetPageSize,
			FetchAttempts: uint(cfg.Engine.FetchAttempts),
			FetchDelay:    cfg.Engine.FetchDelayDuration(),
		},
		MaxBatchSize: cfg.Engine.MaxBatchSize,
	}

	if infra.Storage != nil {
		rt.Reports = &cfg.Storage
	}

	return rt
}
