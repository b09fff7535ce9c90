package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/signalboard/internal/modules/catalog"
)

// CatalogReloadJob re-reads the model log files so signal updates
// written by the upstream pipeline become visible without a restart.
// The catalog refresh hook invalidates the memoized statistics.
type CatalogReloadJob struct {
	catalog *catalog.Service
	log     zerolog.Logger
}

// NewCatalogReloadJob creates a catalog reload job
func NewCatalogReloadJob(catalogService *catalog.Service, log zerolog.Logger) *CatalogReloadJob {
	return &CatalogReloadJob{
		catalog: catalogService,
		log:     log.With().Str("job", "catalog_reload").Logger(),
	}
}

// Run executes the reload
func (j *CatalogReloadJob) Run() error {
	return j.catalog.Reload()
}

// Name returns the job name for the scheduler
func (j *CatalogReloadJob) Name() string {
	return "catalog_reload"
}
