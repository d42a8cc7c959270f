package search

import (
	"context"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// Indexer adapts SearchIndex to the store's SearchIndexer hook so writes
// keep the index current without the store importing this package.
type Indexer struct {
	index *SearchIndex
}

// NewIndexer creates a store-facing indexer over the search index.
func NewIndexer(index *SearchIndex) *Indexer {
	return &Indexer{index: index}
}

func (i *Indexer) IndexBook(_ context.Context, book *domain.Book) error {
	return i.index.IndexDocument(BookToSearchDocument(book, ""))
}

func (i *Indexer) DeleteBook(_ context.Context, bookID string) error {
	return i.index.DeleteDocument(bookID)
}

func (i *Indexer) IndexSeries(_ context.Context, s *domain.Series) error {
	return i.index.IndexDocument(SeriesToSearchDocument(s))
}

func (i *Indexer) DeleteSeries(_ context.Context, seriesID string) error {
	return i.index.DeleteDocument(seriesID)
}
