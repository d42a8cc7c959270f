package sqlite

import (
	"context"
	"fmt"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// CreateBookWithEdition inserts a book, its author credits, and its first
// edition as one atomic unit. A crash can never leave a book behind with no
// edition.
func (s *Store) CreateBookWithEdition(ctx context.Context, book *domain.Book, edition *domain.Edition) error {
	categoriesJSON, err := marshalCategories(book.Categories)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, title, subtitle, description, language,
			publisher, published_date, page_count, categories, google_books_id, open_library_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.Title,
		nullString(book.Subtitle),
		nullString(book.Description),
		nullString(book.Language),
		nullString(book.Publisher),
		nullString(book.PublishedDate),
		nullInt64(book.PageCount),
		categoriesJSON,
		nullString(book.GoogleBooksID),
		nullString(book.OpenLibraryID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert book: %w", err)
	}

	authors, err := s.setBookAuthorsTx(ctx, tx, book.ID, book.Authors)
	if err != nil {
		return err
	}

	edition.BookID = book.ID
	_, err = tx.ExecContext(ctx, `
		INSERT INTO editions (
			id, created_at, updated_at, book_id, isbn_10, isbn_13,
			format, pages, publisher, published_date, cover_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		edition.ID,
		formatTime(edition.CreatedAt),
		formatTime(edition.UpdatedAt),
		edition.BookID,
		nullString(domain.NormalizeISBN(edition.ISBN10)),
		nullString(domain.NormalizeISBN(edition.ISBN13)),
		nullString(edition.Format),
		nullInt64(edition.Pages),
		nullString(edition.Publisher),
		nullString(edition.PublishedDate),
		nullString(edition.CoverURL),
	)
	if err != nil {
		return fmt.Errorf("insert edition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	book.Authors = authors

	if err := s.searchIndexer.IndexBook(ctx, book); err != nil {
		s.logger.Warn("index book", "book_id", book.ID, "error", err)
	}
	return nil
}
