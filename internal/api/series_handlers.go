package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerSeriesRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createSeries",
		Method:      http.MethodPost,
		Path:        "/api/v1/series",
		Summary:     "Create series",
		Description: "Creates a series; a declared volume total pre-populates expected volume slots",
		Tags:        []string{"Series"},
	}, s.handleCreateSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSeries",
		Method:      http.MethodGet,
		Path:        "/api/v1/series",
		Summary:     "List series",
		Description: "Returns a paginated listing of all series",
		Tags:        []string{"Series"},
	}, s.handleListSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSeries",
		Method:      http.MethodGet,
		Path:        "/api/v1/series/{id}",
		Summary:     "Get series",
		Description: "Returns a series with per-volume ownership for the caller",
		Tags:        []string{"Series"},
	}, s.handleGetSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSeries",
		Method:      http.MethodPatch,
		Path:        "/api/v1/series/{id}",
		Summary:     "Update series",
		Description: "Partially updates a series; raising the volume total adds expected slots",
		Tags:        []string{"Series"},
	}, s.handleUpdateSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSeries",
		Method:      http.MethodDelete,
		Path:        "/api/v1/series/{id}",
		Summary:     "Delete series",
		Description: "Deletes a series with its links and volume slots; books persist",
		Tags:        []string{"Series"},
	}, s.handleDeleteSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "addSeriesBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/series/{id}/books",
		Summary:     "Add book to series",
		Description: "Links an existing book into a series at a volume number",
		Tags:        []string{"Series"},
	}, s.handleAddSeriesBook)
}

// === DTOs ===

// SeriesResponse contains series data in API responses.
type SeriesResponse struct {
	ID           string    `json:"id" doc:"Series ID"`
	Name         string    `json:"name" doc:"Series name"`
	Description  string    `json:"description,omitempty" doc:"Description"`
	TotalVolumes int       `json:"total_volumes" doc:"Declared volume total, 0 if unknown"`
	Status       string    `json:"status" doc:"Publication status: ongoing, completed, hiatus, or cancelled"`
	Type         string    `json:"type,omitempty" doc:"Series type (manga, novel...)"`
	Source       string    `json:"source,omitempty" doc:"Metadata origin"`
	CoverURL     string    `json:"cover_url,omitempty" doc:"Cover image URL"`
	CreatedAt    time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt    time.Time `json:"updated_at" doc:"Last update time"`
}

// VolumeResponse is one volume slot with the caller's ownership tri-state.
type VolumeResponse struct {
	VolumeNumber    int    `json:"volume_number" doc:"Volume number"`
	Title           string `json:"title,omitempty" doc:"Volume title"`
	BookID          string `json:"book_id,omitempty" doc:"Linked book, empty while unfilled"`
	Released        bool   `json:"released" doc:"Whether the volume is published"`
	Announced       bool   `json:"announced" doc:"Whether the volume is announced but unreleased"`
	Ownership       string `json:"ownership" doc:"Caller's status: owned, wanted, or missing"`
	DisplayCoverURL string `json:"display_cover_url,omitempty" doc:"Resolved display cover"`
}

// SeriesDetailResponse is the full per-user series view.
type SeriesDetailResponse struct {
	SeriesResponse
	Volumes      []VolumeResponse `json:"volumes" doc:"Volume lineup with ownership"`
	OwnedVolumes int              `json:"owned_volumes" doc:"Count of volumes the caller owns"`
}

// SeriesDetailOutput wraps the series detail response for Huma.
type SeriesDetailOutput struct {
	Body SeriesDetailResponse
}

// CreateSeriesRequest is the request body for creating a series.
type CreateSeriesRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=500" doc:"Series name"`
	Description  string `json:"description,omitempty" doc:"Description"`
	TotalVolumes int    `json:"total_volumes,omitempty" validate:"omitempty,min=0" doc:"Declared volume total"`
	Status       string `json:"status,omitempty" validate:"omitempty,oneof=ongoing completed hiatus cancelled" doc:"Publication status (default: ongoing)"`
	Type         string `json:"type,omitempty" doc:"Series type"`
	Source       string `json:"source,omitempty" doc:"Metadata origin"`
	CoverURL     string `json:"cover_url,omitempty" doc:"Cover image URL"`
}

// CreateSeriesInput wraps the create series request for Huma.
type CreateSeriesInput struct {
	Body CreateSeriesRequest
}

// SeriesOutput wraps the series response for Huma.
type SeriesOutput struct {
	Body SeriesResponse
}

// ListSeriesInput contains parameters for listing series.
type ListSeriesInput struct {
	Limit  int    `query:"limit" doc:"Items per page (default 100, max 1000)"`
	Cursor string `query:"cursor" doc:"Opaque cursor from a previous page"`
}

// SeriesListResponse contains a page of series.
type SeriesListResponse struct {
	Series     []SeriesResponse `json:"series" doc:"Series on this page"`
	NextCursor string           `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool             `json:"has_more" doc:"Whether more pages exist"`
}

// SeriesListOutput wraps the series list response for Huma.
type SeriesListOutput struct {
	Body SeriesListResponse
}

// GetSeriesInput contains parameters for getting a series.
type GetSeriesInput struct {
	UserID string `header:"X-User-ID" doc:"Acting user (default: local)"`
	ID     string `path:"id" doc:"Series ID"`
}

// UpdateSeriesRequest is the request body for updating a series.
type UpdateSeriesRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=500" doc:"Series name"`
	Description  *string `json:"description,omitempty" doc:"Description"`
	TotalVolumes *int    `json:"total_volumes,omitempty" validate:"omitempty,min=0" doc:"Declared volume total"`
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=ongoing completed hiatus cancelled" doc:"Publication status"`
	Type         *string `json:"type,omitempty" doc:"Series type"`
	CoverURL     *string `json:"cover_url,omitempty" doc:"Cover image URL"`
}

// UpdateSeriesInput wraps the update series request for Huma.
type UpdateSeriesInput struct {
	ID   string `path:"id" doc:"Series ID"`
	Body UpdateSeriesRequest
}

// DeleteSeriesInput contains parameters for deleting a series.
type DeleteSeriesInput struct {
	ID string `path:"id" doc:"Series ID"`
}

// AddSeriesBookRequest is the request body for linking a book into a series.
type AddSeriesBookRequest struct {
	BookID       string `json:"book_id" validate:"required" doc:"Book to link"`
	VolumeNumber int    `json:"volume_number,omitempty" validate:"omitempty,min=0" doc:"Volume number within the series"`
	VolumeName   string `json:"volume_name,omitempty" doc:"Volume title"`
	PartNumber   int    `json:"part_number,omitempty" doc:"Part number for split volumes"`
	ArcName      string `json:"arc_name,omitempty" doc:"Story arc name"`
}

// AddSeriesBookInput wraps the add series book request for Huma.
type AddSeriesBookInput struct {
	ID   string `path:"id" doc:"Series ID"`
	Body AddSeriesBookRequest
}

// SeriesBookResponse contains a series link in API responses.
type SeriesBookResponse struct {
	ID           string `json:"id" doc:"Link ID"`
	SeriesID     string `json:"series_id" doc:"Series"`
	BookID       string `json:"book_id" doc:"Linked book"`
	VolumeNumber int    `json:"volume_number" doc:"Volume number"`
	VolumeName   string `json:"volume_name,omitempty" doc:"Volume title"`
	PartNumber   int    `json:"part_number,omitempty" doc:"Part number"`
	ArcName      string `json:"arc_name,omitempty" doc:"Story arc name"`
	Position     int    `json:"position" doc:"Display order"`
}

// SeriesBookOutput wraps the series book response for Huma.
type SeriesBookOutput struct {
	Body SeriesBookResponse
}

// === Handlers ===

func (s *Server) handleCreateSeries(ctx context.Context, input *CreateSeriesInput) (*SeriesOutput, error) {
	series, err := s.services.Series.CreateSeries(ctx, service.CreateSeriesInput{
		Name:         input.Body.Name,
		Description:  input.Body.Description,
		TotalVolumes: input.Body.TotalVolumes,
		Status:       domain.SeriesStatus(input.Body.Status),
		Type:         input.Body.Type,
		Source:       input.Body.Source,
		CoverURL:     input.Body.CoverURL,
	})
	if err != nil {
		return nil, err
	}

	return &SeriesOutput{Body: toSeriesResponse(series)}, nil
}

func (s *Server) handleListSeries(ctx context.Context, input *ListSeriesInput) (*SeriesListOutput, error) {
	page, err := s.services.Series.ListSeries(ctx, paginationParams(input.Limit, input.Cursor))
	if err != nil {
		return nil, err
	}

	resp := make([]SeriesResponse, len(page.Items))
	for i, sr := range page.Items {
		resp[i] = toSeriesResponse(sr)
	}

	return &SeriesListOutput{
		Body: SeriesListResponse{
			Series:     resp,
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
		},
	}, nil
}

func (s *Server) handleGetSeries(ctx context.Context, input *GetSeriesInput) (*SeriesDetailOutput, error) {
	userID := userOrLocal(input.UserID)

	detail, err := s.services.Series.GetSeries(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	volumes := make([]VolumeResponse, len(detail.Volumes))
	for i, v := range detail.Volumes {
		volumes[i] = VolumeResponse{
			VolumeNumber:    v.VolumeNumber,
			Title:           v.Title,
			BookID:          v.BookID,
			Released:        v.Released,
			Announced:       v.Announced,
			Ownership:       string(v.Ownership),
			DisplayCoverURL: v.DisplayCoverURL,
		}
	}

	return &SeriesDetailOutput{
		Body: SeriesDetailResponse{
			SeriesResponse: toSeriesResponse(detail.Series),
			Volumes:        volumes,
			OwnedVolumes:   detail.OwnedVolumes,
		},
	}, nil
}

func (s *Server) handleUpdateSeries(ctx context.Context, input *UpdateSeriesInput) (*SeriesOutput, error) {
	var status *domain.SeriesStatus
	if input.Body.Status != nil {
		st := domain.SeriesStatus(*input.Body.Status)
		status = &st
	}

	series, err := s.services.Series.UpdateSeries(ctx, input.ID, service.UpdateSeriesInput{
		Name:         input.Body.Name,
		Description:  input.Body.Description,
		TotalVolumes: input.Body.TotalVolumes,
		Status:       status,
		Type:         input.Body.Type,
		CoverURL:     input.Body.CoverURL,
	})
	if err != nil {
		return nil, err
	}

	return &SeriesOutput{Body: toSeriesResponse(series)}, nil
}

func (s *Server) handleDeleteSeries(ctx context.Context, input *DeleteSeriesInput) (*MessageOutput, error) {
	if err := s.services.Series.DeleteSeries(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Series deleted"}}, nil
}

func (s *Server) handleAddSeriesBook(ctx context.Context, input *AddSeriesBookInput) (*SeriesBookOutput, error) {
	link, err := s.services.Series.AddBookToSeries(ctx, service.AddBookInput{
		SeriesID:     input.ID,
		BookID:       input.Body.BookID,
		VolumeNumber: input.Body.VolumeNumber,
		VolumeName:   input.Body.VolumeName,
		PartNumber:   input.Body.PartNumber,
		ArcName:      input.Body.ArcName,
	})
	if err != nil {
		return nil, err
	}

	return &SeriesBookOutput{
		Body: SeriesBookResponse{
			ID:           link.ID,
			SeriesID:     link.SeriesID,
			BookID:       link.BookID,
			VolumeNumber: link.VolumeNumber,
			VolumeName:   link.VolumeName,
			PartNumber:   link.PartNumber,
			ArcName:      link.ArcName,
			Position:     link.Position,
		},
	}, nil
}

// === Converters ===

func toSeriesResponse(sr *domain.Series) SeriesResponse {
	return SeriesResponse{
		ID:           sr.ID,
		Name:         sr.Name,
		Description:  sr.Description,
		TotalVolumes: sr.TotalVolumes,
		Status:       string(sr.Status),
		Type:         sr.Type,
		Source:       sr.Source,
		CoverURL:     sr.CoverURL,
		CreatedAt:    sr.CreatedAt,
		UpdatedAt:    sr.UpdatedAt,
	}
}
