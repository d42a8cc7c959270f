package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "reconcileSeries",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/reconcile",
		Summary:     "Reconcile all series",
		Description: "Sweeps every series, repopulating expected volume slots and relinking books",
		Tags:        []string{"Admin"},
	}, s.handleReconcileSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/reindex",
		Summary:     "Rebuild search index",
		Description: "Clears the search index and reindexes every book and series from the store",
		Tags:        []string{"Admin"},
	}, s.handleReindexSearch)
}

// === DTOs ===

// ReconcileResponse summarizes a full reconciliation sweep.
type ReconcileResponse struct {
	Processed int `json:"processed" doc:"Series reconciled"`
	Errors    int `json:"errors" doc:"Series that failed and were skipped"`
}

// ReconcileOutput wraps the reconcile response for Huma.
type ReconcileOutput struct {
	Body ReconcileResponse
}

// ReindexResponse summarizes a search index rebuild.
type ReindexResponse struct {
	Indexed int `json:"indexed" doc:"Documents written to the index"`
}

// ReindexOutput wraps the reindex response for Huma.
type ReindexOutput struct {
	Body ReindexResponse
}

// === Handlers ===

func (s *Server) handleReconcileSeries(ctx context.Context, _ *struct{}) (*ReconcileOutput, error) {
	report, err := s.services.Reconcile.ReconcileAllSeries(ctx)
	if err != nil {
		return nil, err
	}

	return &ReconcileOutput{
		Body: ReconcileResponse{
			Processed: report.Processed,
			Errors:    report.Errors,
		},
	}, nil
}

func (s *Server) handleReindexSearch(ctx context.Context, _ *struct{}) (*ReindexOutput, error) {
	indexed, err := s.services.Search.Reindex(ctx)
	if err != nil {
		return nil, err
	}

	return &ReindexOutput{Body: ReindexResponse{Indexed: indexed}}, nil
}
