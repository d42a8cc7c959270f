package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

const editionColumns = `id, created_at, updated_at, book_id, isbn_10, isbn_13,
	format, pages, publisher, published_date, cover_url`

func scanEdition(scanner interface{ Scan(dest ...any) error }) (*domain.Edition, error) {
	var e domain.Edition

	var (
		createdAt     string
		updatedAt     string
		isbn10        sql.NullString
		isbn13        sql.NullString
		format        sql.NullString
		pages         sql.NullInt64
		publisher     sql.NullString
		publishedDate sql.NullString
		coverURL      sql.NullString
	)

	err := scanner.Scan(
		&e.ID,
		&createdAt,
		&updatedAt,
		&e.BookID,
		&isbn10,
		&isbn13,
		&format,
		&pages,
		&publisher,
		&publishedDate,
		&coverURL,
	)
	if err != nil {
		return nil, err
	}

	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	e.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	e.ISBN10 = isbn10.String
	e.ISBN13 = isbn13.String
	e.Format = format.String
	if pages.Valid {
		e.Pages = int(pages.Int64)
	}
	e.Publisher = publisher.String
	e.PublishedDate = publishedDate.String
	e.CoverURL = coverURL.String

	return &e, nil
}

// CreateEdition inserts a new edition. ISBNs are stored normalized
// (hyphens and spaces stripped) so lookups need no fuzzy matching.
func (s *Store) CreateEdition(ctx context.Context, e *domain.Edition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO editions (
			id, created_at, updated_at, book_id, isbn_10, isbn_13,
			format, pages, publisher, published_date, cover_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		formatTime(e.CreatedAt),
		formatTime(e.UpdatedAt),
		e.BookID,
		nullString(domain.NormalizeISBN(e.ISBN10)),
		nullString(domain.NormalizeISBN(e.ISBN13)),
		nullString(e.Format),
		nullInt64(e.Pages),
		nullString(e.Publisher),
		nullString(e.PublishedDate),
		nullString(e.CoverURL),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert edition: %w", err)
	}
	return nil
}

// GetEdition retrieves an edition by ID.
// Returns store.ErrNotFound if the edition does not exist.
func (s *Store) GetEdition(ctx context.Context, editionID string) (*domain.Edition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+editionColumns+` FROM editions WHERE id = ?`, editionID)

	e, err := scanEdition(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// FindEditionByISBN looks an edition up by either ISBN form. The input is
// normalized before matching. Returns store.ErrNotFound when absent.
func (s *Store) FindEditionByISBN(ctx context.Context, isbn string) (*domain.Edition, error) {
	norm := domain.NormalizeISBN(isbn)
	if norm == "" {
		return nil, store.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+editionColumns+` FROM editions
		WHERE isbn_10 = ? OR isbn_13 = ?
		LIMIT 1`, norm, norm)

	e, err := scanEdition(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEditionsByBook returns all editions of a book, oldest first.
func (s *Store) ListEditionsByBook(ctx context.Context, bookID string) ([]*domain.Edition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+editionColumns+` FROM editions
		WHERE book_id = ?
		ORDER BY created_at ASC, id ASC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query editions: %w", err)
	}
	defer rows.Close()

	var editions []*domain.Edition
	for rows.Next() {
		e, err := scanEdition(rows)
		if err != nil {
			return nil, err
		}
		editions = append(editions, e)
	}
	return editions, rows.Err()
}

// UpdateEdition performs a full row update on an existing edition.
// Returns store.ErrNotFound if the edition does not exist.
func (s *Store) UpdateEdition(ctx context.Context, e *domain.Edition) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE editions SET
			updated_at = ?,
			isbn_10 = ?,
			isbn_13 = ?,
			format = ?,
			pages = ?,
			publisher = ?,
			published_date = ?,
			cover_url = ?
		WHERE id = ?`,
		formatTime(e.UpdatedAt),
		nullString(domain.NormalizeISBN(e.ISBN10)),
		nullString(domain.NormalizeISBN(e.ISBN13)),
		nullString(e.Format),
		nullInt64(e.Pages),
		nullString(e.Publisher),
		nullString(e.PublishedDate),
		nullString(e.CoverURL),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("update edition: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
