package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, created_at, updated_at, title, subtitle, description, language,
	publisher, published_date, page_count, categories, google_books_id, open_library_id`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
// Authors are loaded separately.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book

	var (
		createdAt     string
		updatedAt     string
		subtitle      sql.NullString
		description   sql.NullString
		language      sql.NullString
		publisher     sql.NullString
		publishedDate sql.NullString
		pageCount     sql.NullInt64
		categories    sql.NullString
		googleBooksID sql.NullString
		openLibraryID sql.NullString
	)

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&b.Title,
		&subtitle,
		&description,
		&language,
		&publisher,
		&publishedDate,
		&pageCount,
		&categories,
		&googleBooksID,
		&openLibraryID,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	b.Subtitle = subtitle.String
	b.Description = description.String
	b.Language = language.String
	b.Publisher = publisher.String
	b.PublishedDate = publishedDate.String
	if pageCount.Valid {
		b.PageCount = int(pageCount.Int64)
	}
	b.GoogleBooksID = googleBooksID.String
	b.OpenLibraryID = openLibraryID.String

	if categories.Valid && categories.String != "" {
		if err := json.Unmarshal([]byte(categories.String), &b.Categories); err != nil {
			return nil, fmt.Errorf("unmarshal categories: %w", err)
		}
	}

	return &b, nil
}

// CreateBook inserts a book together with its author credits in one
// transaction. Authors are deduplicated by exact name; new ones are created
// as needed and credit order is preserved.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
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

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	book.Authors = authors

	if err := s.searchIndexer.IndexBook(ctx, book); err != nil {
		s.logger.Warn("index book", "book_id", book.ID, "error", err)
	}
	return nil
}

// setBookAuthorsTx replaces the author credits for a book inside tx,
// creating author rows for names not yet seen. Returns the resolved authors
// in credit order.
func (s *Store) setBookAuthorsTx(ctx context.Context, tx *sql.Tx, bookID string, authors []domain.Author) ([]domain.Author, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM book_authors WHERE book_id = ?`, bookID); err != nil {
		return nil, fmt.Errorf("delete book_authors: %w", err)
	}

	resolved := make([]domain.Author, 0, len(authors))
	for pos, a := range authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}

		author, err := getOrCreateAuthorTx(ctx, tx, name)
		if err != nil {
			return nil, err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO book_authors (book_id, author_id, position)
			VALUES (?, ?, ?)`,
			bookID, author.ID, pos)
		if err != nil {
			return nil, fmt.Errorf("insert book_authors: %w", err)
		}
		resolved = append(resolved, *author)
	}
	return resolved, nil
}

func getOrCreateAuthorTx(ctx context.Context, tx *sql.Tx, name string) (*domain.Author, error) {
	var a domain.Author
	var createdAt, updatedAt string

	err := tx.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at, name FROM authors WHERE name = ?`, name).
		Scan(&a.ID, &createdAt, &updatedAt, &a.Name)
	switch {
	case err == sql.ErrNoRows:
		a.ID = id.MustGenerate("au")
		a.Name = name
		a.InitTimestamps()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO authors (id, created_at, updated_at, name)
			VALUES (?, ?, ?, ?)`,
			a.ID, formatTime(a.CreatedAt), formatTime(a.UpdatedAt), a.Name)
		if err != nil {
			return nil, fmt.Errorf("insert author: %w", err)
		}
		return &a, nil
	case err != nil:
		return nil, fmt.Errorf("query author: %w", err)
	}

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetBook retrieves a book by ID with its authors in credit order.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, bookID)

	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	book.Authors, err = s.loadAuthors(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (s *Store) loadAuthors(ctx context.Context, bookID string) ([]domain.Author, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.created_at, a.updated_at, a.name
		FROM authors a
		JOIN book_authors ba ON ba.author_id = a.id
		WHERE ba.book_id = ?
		ORDER BY ba.position ASC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	defer rows.Close()

	var authors []domain.Author
	for rows.Next() {
		var (
			a                    domain.Author
			createdAt, updatedAt string
		)
		if err := rows.Scan(&a.ID, &createdAt, &updatedAt, &a.Name); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// FindBookByTitleAuthor looks up a book by exact title (case-insensitive),
// optionally narrowed to one credited with the given author name. Returns
// store.ErrNotFound when nothing matches.
func (s *Store) FindBookByTitleAuthor(ctx context.Context, title, author string) (*domain.Book, error) {
	var row *sql.Row
	if author != "" {
		row = s.db.QueryRowContext(ctx, `
			SELECT DISTINCT `+prefixColumns("b", bookColumns)+`
			FROM books b
			JOIN book_authors ba ON ba.book_id = b.id
			JOIN authors a ON a.id = ba.author_id
			WHERE b.title = ? COLLATE NOCASE AND a.name = ? COLLATE NOCASE
			LIMIT 1`, title, author)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+bookColumns+` FROM books WHERE title = ? COLLATE NOCASE LIMIT 1`, title)
	}

	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	book.Authors, err = s.loadAuthors(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// FindBookByExternalID looks up a book by a catalog identifier. Returns
// store.ErrNotFound when no book carries it.
func (s *Store) FindBookByExternalID(ctx context.Context, googleBooksID, openLibraryID string) (*domain.Book, error) {
	if googleBooksID == "" && openLibraryID == "" {
		return nil, store.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE (? != '' AND google_books_id = ?)
		   OR (? != '' AND open_library_id = ?)
		LIMIT 1`,
		googleBooksID, googleBooksID, openLibraryID, openLibraryID)

	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	book.Authors, err = s.loadAuthors(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// ListBooks returns paginated books ordered by title (case-insensitive) then id.
func (s *Store) ListBooks(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	params.Validate()

	var cursorTitle, cursorID string
	if params.Cursor != "" {
		decoded, err := store.DecodeCursor(params.Cursor)
		if err != nil {
			return nil, fmt.Errorf("decode cursor: %w", err)
		}
		parts := strings.SplitN(decoded, "|", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid cursor format")
		}
		cursorTitle = parts[0]
		cursorID = parts[1]
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&total); err != nil {
		return nil, err
	}

	fetchLimit := params.Limit + 1

	var (
		rows *sql.Rows
		err  error
	)
	if cursorTitle != "" || cursorID != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+bookColumns+` FROM books
			WHERE (title COLLATE NOCASE > ? OR (title COLLATE NOCASE = ? AND id > ?))
			ORDER BY title COLLATE NOCASE ASC, id ASC
			LIMIT ?`,
			cursorTitle, cursorTitle, cursorID, fetchLimit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+bookColumns+` FROM books
			ORDER BY title COLLATE NOCASE ASC, id ASC
			LIMIT ?`,
			fetchLimit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, book := range items {
		if book.Authors, err = s.loadAuthors(ctx, book.ID); err != nil {
			return nil, err
		}
	}

	result := &store.PaginatedResult[*domain.Book]{
		Items: items,
		Total: total,
	}
	if len(items) > params.Limit {
		result.HasMore = true
		result.Items = items[:params.Limit]
		last := result.Items[params.Limit-1]
		result.NextCursor = store.EncodeCursor(last.Title + "|" + last.ID)
	}
	if result.Items == nil {
		result.Items = []*domain.Book{}
	}
	return result, nil
}

// UpdateBook performs a full row update, replacing author credits.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	categoriesJSON, err := marshalCategories(book.Categories)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE books SET
			updated_at = ?,
			title = ?,
			subtitle = ?,
			description = ?,
			language = ?,
			publisher = ?,
			published_date = ?,
			page_count = ?,
			categories = ?,
			google_books_id = ?,
			open_library_id = ?
		WHERE id = ?`,
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
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	authors, err := s.setBookAuthorsTx(ctx, tx, book.ID, book.Authors)
	if err != nil {
		return err
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

// DeleteBook removes a book; editions, credits, series links, and volume
// back-references are cleaned up by cascade.
func (s *Store) DeleteBook(ctx context.Context, bookID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, bookID)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := s.searchIndexer.DeleteBook(ctx, bookID); err != nil {
		s.logger.Warn("deindex book", "book_id", bookID, "error", err)
	}
	return nil
}

func marshalCategories(categories []string) (sql.NullString, error) {
	if len(categories) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(categories)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal categories: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// prefixColumns qualifies each column in a comma-separated list with a table
// alias, for joined queries reusing the shared column constants.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
