package store

import (
	"context"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// SearchIndexer keeps the search index in sync with store writes without the
// store depending on a search implementation.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, bookID string) error
	IndexSeries(ctx context.Context, s *domain.Series) error
	DeleteSeries(ctx context.Context, seriesID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book) error   { return nil }
func (NoopSearchIndexer) DeleteBook(context.Context, string) error        { return nil }
func (NoopSearchIndexer) IndexSeries(context.Context, *domain.Series) error { return nil }
func (NoopSearchIndexer) DeleteSeries(context.Context, string) error      { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer { return NoopSearchIndexer{} }
