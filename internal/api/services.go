package api

import (
	"github.com/shelfmark/shelfmark-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Books     *service.BookService
	Series    *service.SeriesService
	Reconcile *service.ReconcileService
	Imports   *service.ImportService
	Jobs      *service.JobManager
	Search    *service.SearchService
}
