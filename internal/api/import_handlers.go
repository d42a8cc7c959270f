package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerImportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "startImport",
		Method:      http.MethodPost,
		Path:        "/api/v1/imports",
		Summary:     "Start CSV import",
		Description: "Starts a background HandyLib CSV import and returns the tracking job",
		Tags:        []string{"Imports"},
	}, s.handleStartImport)

	huma.Register(s.api, huma.Operation{
		OperationID: "importGenericCSV",
		Method:      http.MethodPost,
		Path:        "/api/v1/imports/generic",
		Summary:     "Import generic CSV",
		Description: "Runs a synchronous import of arbitrary CSV data with a caller-supplied column mapping",
		Tags:        []string{"Imports"},
	}, s.handleImportGeneric)

	huma.Register(s.api, huma.Operation{
		OperationID: "listImports",
		Method:      http.MethodGet,
		Path:        "/api/v1/imports",
		Summary:     "List imports",
		Description: "Returns the caller's import jobs, newest first",
		Tags:        []string{"Imports"},
	}, s.handleListImports)

	huma.Register(s.api, huma.Operation{
		OperationID: "getImport",
		Method:      http.MethodGet,
		Path:        "/api/v1/imports/{id}",
		Summary:     "Get import",
		Description: "Returns one import job with progress counters and row errors",
		Tags:        []string{"Imports"},
	}, s.handleGetImport)

	huma.Register(s.api, huma.Operation{
		OperationID: "pauseImport",
		Method:      http.MethodPost,
		Path:        "/api/v1/imports/{id}/pause",
		Summary:     "Pause import",
		Description: "Pauses a running import between rows",
		Tags:        []string{"Imports"},
	}, s.handlePauseImport)

	huma.Register(s.api, huma.Operation{
		OperationID: "resumeImport",
		Method:      http.MethodPost,
		Path:        "/api/v1/imports/{id}/resume",
		Summary:     "Resume import",
		Description: "Resumes a paused import",
		Tags:        []string{"Imports"},
	}, s.handleResumeImport)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelImport",
		Method:      http.MethodPost,
		Path:        "/api/v1/imports/{id}/cancel",
		Summary:     "Cancel import",
		Description: "Cancels a pending, running, or paused import",
		Tags:        []string{"Imports"},
	}, s.handleCancelImport)
}

// === DTOs ===

// RowErrorResponse describes one failed CSV row.
type RowErrorResponse struct {
	Row     int               `json:"row" doc:"1-indexed data row number"`
	Message string            `json:"message" doc:"Failure reason"`
	Data    map[string]string `json:"data,omitempty" doc:"Raw row values by header"`
}

// WarningResponse describes a non-fatal problem on an imported row.
type WarningResponse struct {
	Row     int    `json:"row" doc:"1-indexed data row number"`
	Message string `json:"message" doc:"Warning detail"`
}

// ImportJobResponse contains import job data in API responses.
type ImportJobResponse struct {
	ID          string             `json:"id" doc:"Job ID"`
	UserID      string             `json:"user_id" doc:"Owning user"`
	Status      string             `json:"status" doc:"Job status: pending, running, paused, cancelled, completed, or failed"`
	Total       int                `json:"total" doc:"Total data rows"`
	Processed   int                `json:"processed" doc:"Rows processed so far"`
	Succeeded   int                `json:"succeeded" doc:"Rows imported"`
	Failed      int                `json:"failed" doc:"Rows failed"`
	Errors      []RowErrorResponse `json:"errors,omitempty" doc:"Per-row failures"`
	Warnings    []WarningResponse  `json:"warnings,omitempty" doc:"Per-row warnings"`
	CreatedAt   time.Time          `json:"created_at" doc:"Creation time"`
	StartedAt   *time.Time         `json:"started_at,omitempty" doc:"When the run started"`
	PausedAt    *time.Time         `json:"paused_at,omitempty" doc:"When the run was paused"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty" doc:"When the run was cancelled"`
	CompletedAt *time.Time         `json:"completed_at,omitempty" doc:"When the run finished"`
}

// ImportJobOutput wraps the import job response for Huma.
type ImportJobOutput struct {
	Body ImportJobResponse
}

// StartImportRequest is the request body for starting a HandyLib import.
type StartImportRequest struct {
	CSV           string `json:"csv" validate:"required" doc:"Raw CSV text including the header row"`
	DefaultStatus string `json:"default_status,omitempty" validate:"omitempty,oneof=owned wanted missing" doc:"Ownership status for imported editions (default: owned)"`
}

// StartImportInput wraps the start import request for Huma.
type StartImportInput struct {
	UserID string `header:"X-User-ID" doc:"Acting user (default: local)"`
	Body   StartImportRequest
}

// GenericImportRequest is the request body for a synchronous generic import.
type GenericImportRequest struct {
	CSV           string            `json:"csv" validate:"required" doc:"Raw CSV text including the header row"`
	Mapping       map[string]string `json:"mapping" validate:"required" doc:"Logical field to CSV header mapping (isbn, title, author, publisher, published, pages, description, format, cover)"`
	DefaultStatus string            `json:"default_status,omitempty" validate:"omitempty,oneof=owned wanted missing" doc:"Ownership status for imported editions (default: owned)"`
}

// GenericImportInput wraps the generic import request for Huma.
type GenericImportInput struct {
	UserID string `header:"X-User-ID" doc:"Acting user (default: local)"`
	Body   GenericImportRequest
}

// ImportReportResponse is the complete outcome of a synchronous import run.
type ImportReportResponse struct {
	Success  int                `json:"success" doc:"Rows imported"`
	Failed   int                `json:"failed" doc:"Rows failed"`
	Errors   []RowErrorResponse `json:"errors,omitempty" doc:"Per-row failures"`
	Warnings []WarningResponse  `json:"warnings,omitempty" doc:"Per-row warnings"`
}

// ImportReportOutput wraps the import report response for Huma.
type ImportReportOutput struct {
	Body ImportReportResponse
}

// ListImportsInput contains parameters for listing import jobs.
type ListImportsInput struct {
	UserID string `header:"X-User-ID" doc:"Acting user (default: local)"`
}

// ImportJobListResponse contains the caller's import jobs.
type ImportJobListResponse struct {
	Jobs []ImportJobResponse `json:"jobs" doc:"Import jobs, newest first"`
}

// ImportJobListOutput wraps the import job list response for Huma.
type ImportJobListOutput struct {
	Body ImportJobListResponse
}

// ImportJobInput contains parameters addressing one import job.
type ImportJobInput struct {
	ID string `path:"id" doc:"Job ID"`
}

// === Handlers ===

func (s *Server) handleStartImport(ctx context.Context, input *StartImportInput) (*ImportJobOutput, error) {
	userID := userOrLocal(input.UserID)

	job := s.services.Imports.StartImport(s.services.Jobs, input.Body.CSV, userID, service.ImportOptions{
		DefaultStatus: domain.OwnershipStatus(input.Body.DefaultStatus),
	})

	return &ImportJobOutput{Body: toImportJobResponse(job)}, nil
}

func (s *Server) handleImportGeneric(ctx context.Context, input *GenericImportInput) (*ImportReportOutput, error) {
	userID := userOrLocal(input.UserID)

	report, err := s.services.Imports.ImportGenericCSV(ctx, input.Body.CSV, userID,
		service.ColumnMapping(input.Body.Mapping), service.ImportOptions{
			DefaultStatus: domain.OwnershipStatus(input.Body.DefaultStatus),
		})
	if err != nil {
		return nil, err
	}

	return &ImportReportOutput{
		Body: ImportReportResponse{
			Success:  report.Success,
			Failed:   report.Failed,
			Errors:   toRowErrorResponses(report.Errors),
			Warnings: toWarningResponses(report.Warnings),
		},
	}, nil
}

func (s *Server) handleListImports(ctx context.Context, input *ListImportsInput) (*ImportJobListOutput, error) {
	userID := userOrLocal(input.UserID)

	jobs := s.services.Jobs.ListJobs(userID)
	resp := make([]ImportJobResponse, len(jobs))
	for i, j := range jobs {
		resp[i] = toImportJobResponse(j)
	}

	return &ImportJobListOutput{Body: ImportJobListResponse{Jobs: resp}}, nil
}

func (s *Server) handleGetImport(ctx context.Context, input *ImportJobInput) (*ImportJobOutput, error) {
	job, err := s.services.Jobs.GetJob(input.ID)
	if err != nil {
		return nil, err
	}

	return &ImportJobOutput{Body: toImportJobResponse(job)}, nil
}

func (s *Server) handlePauseImport(ctx context.Context, input *ImportJobInput) (*ImportJobOutput, error) {
	if err := s.services.Jobs.PauseJob(input.ID); err != nil {
		return nil, err
	}
	return s.handleGetImport(ctx, input)
}

func (s *Server) handleResumeImport(ctx context.Context, input *ImportJobInput) (*ImportJobOutput, error) {
	if err := s.services.Jobs.ResumeJob(input.ID); err != nil {
		return nil, err
	}
	return s.handleGetImport(ctx, input)
}

func (s *Server) handleCancelImport(ctx context.Context, input *ImportJobInput) (*ImportJobOutput, error) {
	if err := s.services.Jobs.CancelJob(input.ID); err != nil {
		return nil, err
	}
	return s.handleGetImport(ctx, input)
}

// === Converters ===

func toImportJobResponse(j *domain.ImportJob) ImportJobResponse {
	return ImportJobResponse{
		ID:          j.ID,
		UserID:      j.UserID,
		Status:      string(j.Status),
		Total:       j.Total,
		Processed:   j.Processed,
		Succeeded:   j.Succeeded,
		Failed:      j.Failed,
		Errors:      toRowErrorResponses(j.Errors),
		Warnings:    toWarningResponses(j.Warnings),
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		PausedAt:    j.PausedAt,
		CancelledAt: j.CancelledAt,
		CompletedAt: j.CompletedAt,
	}
}

func toRowErrorResponses(errs []domain.ImportRowError) []RowErrorResponse {
	if len(errs) == 0 {
		return nil
	}
	resp := make([]RowErrorResponse, len(errs))
	for i, e := range errs {
		resp[i] = RowErrorResponse{Row: e.Row, Message: e.Message, Data: e.Data}
	}
	return resp
}

func toWarningResponses(warnings []domain.ImportWarning) []WarningResponse {
	if len(warnings) == 0 {
		return nil
	}
	resp := make([]WarningResponse, len(warnings))
	for i, w := range warnings {
		resp[i] = WarningResponse{Row: w.Row, Message: w.Message}
	}
	return resp
}
