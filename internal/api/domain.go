package api

import (
	"github.com/JaimeStill/verbatim/internal/analyses"
	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/internal/jobs"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Catalog  catalog.System
	Analyses analyses.System
	Jobs     *jobs.Engine
}

// NewDomain creates all domain systems from the API runtime. Runs started by
// the engine are bound to the lifecycle context.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	catalogSystem := catalog.New(db, runtime.Logger, runtime.MaxBatchSize)
	analysesSystem := analyses.New(db, runtime.Logger, runtime.Pagination)

	var reports *jobs.Reports
	if runtime.Reports != nil {
		reports = jobs.NewReports(runtime.Storage, runtime.Reports)
	}

	engine := jobs.New(
		runtime.Lifecycle.Context(),
		runtime.Engine,
		&jobs.Runtime{
			Store:      jobs.NewStore(db, runtime.Logger, runtime.Pagination),
			Catalog:    catalogSystem,
			Classifier: runtime.Classifier,
			Reports:    reports,
			Logger:     runtime.Logger,
		},
		runtime.Pagination,
	)

	return &Domain{
		Catalog:  catalogSystem,
		Analyses: analysesSystem,
		Jobs:     engine,
	}
}
