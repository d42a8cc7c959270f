package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfmark/shelfmark-server/internal/search"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/shelfmark/shelfmark-server/internal/store/sqlite"
)

// SearchService queries the full-text index and rebuilds it from the store.
type SearchService struct {
	store  *sqlite.Store
	index  *search.SearchIndex
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(store *sqlite.Store, index *search.SearchIndex, logger *slog.Logger) *SearchService {
	return &SearchService{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// Search runs a full-text query over the catalog.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	return s.index.Search(ctx, params)
}

// DocumentCount returns the number of documents in the index.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// Reindex clears the index and re-walks the whole store: every series, then
// every book with its first series name denormalized into the document.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	indexed := 0
	var docs []*search.SearchDocument

	allSeries, err := s.store.ListAllSeries(ctx)
	if err != nil {
		return 0, fmt.Errorf("list series: %w", err)
	}
	for _, series := range allSeries {
		docs = append(docs, search.SeriesToSearchDocument(series))
	}

	params := store.PaginationParams{Limit: 500}
	for {
		page, err := s.store.ListBooks(ctx, params)
		if err != nil {
			return 0, fmt.Errorf("list books: %w", err)
		}
		for _, book := range page.Items {
			seriesName := ""
			links, err := s.store.ListSeriesForBook(ctx, book.ID)
			if err != nil {
				s.logger.Warn("failed to load series for book", "book_id", book.ID, "error", err)
			} else if len(links) > 0 {
				for _, series := range allSeries {
					if series.ID == links[0].SeriesID {
						seriesName = series.Name
						break
					}
				}
			}
			docs = append(docs, search.BookToSearchDocument(book, seriesName))
		}
		if !page.HasMore {
			break
		}
		params.Cursor = page.NextCursor
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return 0, fmt.Errorf("index documents: %w", err)
	}
	indexed = len(docs)
	s.logger.Info("reindex complete", "documents", indexed)
	return indexed, nil
}
