package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfmark/shelfmark-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search catalog",
		Description: "Full-text search across books and series",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching the catalog.
type SearchInput struct {
	Query      string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Types      string `query:"types" validate:"omitempty,max=100" doc:"Comma-separated types to search (book,series). Omit for all."`
	Categories string `query:"categories" validate:"omitempty,max=200" doc:"Comma-separated category filters"`
	MinYear    int    `query:"min_year" validate:"omitempty,gte=0" doc:"Minimum publish year"`
	MaxYear    int    `query:"max_year" validate:"omitempty,gte=0" doc:"Maximum publish year"`
	Limit      int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 10)"`
	Offset     int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset (default 0)"`
	SortBy     string `query:"sort" validate:"omitempty,oneof=relevance title author recent" doc:"Sort field (default relevance)"`
	SortOrder  string `query:"order" validate:"omitempty,oneof=asc desc" doc:"Sort direction"`
	Highlight  bool   `query:"highlight" doc:"Include match highlighting"`
}

// SearchHitResult contains a single search result (book or series).
type SearchHitResult struct {
	ID          string            `json:"id" doc:"Entity ID"`
	Type        string            `json:"type" doc:"Type: book or series"`
	Score       float64           `json:"score" doc:"Search relevance score"`
	Name        string            `json:"name" doc:"Display name (title for books)"`
	Subtitle    string            `json:"subtitle,omitempty" doc:"Subtitle (for books)"`
	Author      string            `json:"author,omitempty" doc:"Primary author (for books)"`
	SeriesName  string            `json:"series_name,omitempty" doc:"Series name (for books)"`
	PageCount   int               `json:"page_count,omitempty" doc:"Page count (for books)"`
	VolumeCount int               `json:"volume_count,omitempty" doc:"Declared volume total (for series)"`
	Highlights  map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string            `json:"query" doc:"Original search query"`
	Total  int64             `json:"total" doc:"Total matches"`
	TookMs int64             `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult `json:"hits" doc:"Search results"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	params := search.SearchParams{
		Query:     input.Query,
		MinYear:   input.MinYear,
		MaxYear:   input.MaxYear,
		Limit:     limit,
		Offset:    input.Offset,
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
		Highlight: input.Highlight,
	}

	if input.Types != "" {
		for t := range strings.SplitSeq(input.Types, ",") {
			switch strings.TrimSpace(t) {
			case "book":
				params.Types = append(params.Types, string(search.DocTypeBook))
			case "series":
				params.Types = append(params.Types, string(search.DocTypeSeries))
			}
		}
	}

	if input.Categories != "" {
		for c := range strings.SplitSeq(input.Categories, ",") {
			if c = strings.TrimSpace(c); c != "" {
				params.Categories = append(params.Categories, c)
			}
		}
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", input.Query)
		return nil, err
	}

	resp := SearchResponse{
		Query:  result.Query,
		Total:  int64(result.Total), //nolint:gosec // Safe: total count won't exceed int64
		TookMs: result.TookMs,
		Hits:   make([]SearchHitResult, len(result.Hits)),
	}
	for i, hit := range result.Hits {
		resp.Hits[i] = SearchHitResult{
			ID:          hit.ID,
			Type:        string(hit.Type),
			Score:       hit.Score,
			Name:        hit.Name,
			Subtitle:    hit.Subtitle,
			Author:      hit.Author,
			SeriesName:  hit.SeriesName,
			PageCount:   hit.PageCount,
			VolumeCount: hit.VolumeCount,
			Highlights:  hit.Highlights,
		}
	}

	return &SearchOutput{Body: resp}, nil
}
