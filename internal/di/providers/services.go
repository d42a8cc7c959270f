package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark-server/internal/config"
	"github.com/shelfmark/shelfmark-server/internal/logger"
	"github.com/shelfmark/shelfmark-server/internal/metadata"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

// ProvideReconcileService provides the volume reconciliation service.
func ProvideReconcileService(i do.Injector) (*service.ReconcileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReconcileService(storeHandle.Store, log.Logger), nil
}

// ProvideBookService provides the book ingestion service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	lookup := do.MustInvoke[metadata.Lookup](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, lookup, log.Logger), nil
}

// ProvideSeriesService provides the series registry service.
func ProvideSeriesService(i do.Injector) (*service.SeriesService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	recon := do.MustInvoke[*service.ReconcileService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSeriesService(storeHandle.Store, recon, log.Logger), nil
}

// ProvideImportService provides the CSV import orchestrator.
func ProvideImportService(i do.Injector) (*service.ImportService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	books := do.MustInvoke[*service.BookService](i)
	series := do.MustInvoke[*service.SeriesService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewImportService(books, series, cfg.Import.RowTimeout, log.Logger), nil
}

// ProvideJobManager provides the in-memory import job registry.
// JobManager implements do.Shutdowner, so the container stops its
// eviction janitor on shutdown.
func ProvideJobManager(i do.Injector) (*service.JobManager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewJobManager(cfg.Import.JobTTL, log.Logger), nil
}
