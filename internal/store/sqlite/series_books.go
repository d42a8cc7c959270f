package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

const seriesBookColumns = `id, created_at, updated_at, series_id, book_id,
	volume_number, volume_name, part_number, arc_name, position`

func scanSeriesBook(scanner interface{ Scan(dest ...any) error }) (*domain.SeriesBook, error) {
	var sb domain.SeriesBook

	var (
		createdAt  string
		updatedAt  string
		volumeName sql.NullString
		partNumber sql.NullInt64
		arcName    sql.NullString
	)

	err := scanner.Scan(
		&sb.ID,
		&createdAt,
		&updatedAt,
		&sb.SeriesID,
		&sb.BookID,
		&sb.VolumeNumber,
		&volumeName,
		&partNumber,
		&arcName,
		&sb.Position,
	)
	if err != nil {
		return nil, err
	}

	sb.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sb.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	sb.VolumeName = volumeName.String
	if partNumber.Valid {
		sb.PartNumber = int(partNumber.Int64)
	}
	sb.ArcName = arcName.String

	return &sb, nil
}

// CreateSeriesBook links a book to a series at a volume number.
// Returns store.ErrAlreadyExists if the (series, book) pair is already
// linked; callers must treat that as a hard error, not an upsert.
func (s *Store) CreateSeriesBook(ctx context.Context, sb *domain.SeriesBook) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series_books (
			id, created_at, updated_at, series_id, book_id,
			volume_number, volume_name, part_number, arc_name, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sb.ID,
		formatTime(sb.CreatedAt),
		formatTime(sb.UpdatedAt),
		sb.SeriesID,
		sb.BookID,
		sb.VolumeNumber,
		nullString(sb.VolumeName),
		nullInt64(sb.PartNumber),
		nullString(sb.ArcName),
		sb.Position,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert series_book: %w", err)
	}
	return nil
}

// GetSeriesBook retrieves the link row for a (series, book) pair.
// Returns store.ErrNotFound when the pair is not linked.
func (s *Store) GetSeriesBook(ctx context.Context, seriesID, bookID string) (*domain.SeriesBook, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+seriesBookColumns+` FROM series_books
		WHERE series_id = ? AND book_id = ?`, seriesID, bookID)

	sb, err := scanSeriesBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sb, nil
}

// ListSeriesBooks returns all book links for a series ordered by volume
// number then position.
func (s *Store) ListSeriesBooks(ctx context.Context, seriesID string) ([]*domain.SeriesBook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+seriesBookColumns+` FROM series_books
		WHERE series_id = ?
		ORDER BY volume_number ASC, position ASC, id ASC`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query series_books: %w", err)
	}
	defer rows.Close()

	var items []*domain.SeriesBook
	for rows.Next() {
		sb, err := scanSeriesBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sb)
	}
	return items, rows.Err()
}

// ListSeriesForBook returns all series links a book participates in.
func (s *Store) ListSeriesForBook(ctx context.Context, bookID string) ([]*domain.SeriesBook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+seriesBookColumns+` FROM series_books
		WHERE book_id = ?
		ORDER BY created_at ASC, id ASC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query series_books: %w", err)
	}
	defer rows.Close()

	var items []*domain.SeriesBook
	for rows.Next() {
		sb, err := scanSeriesBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sb)
	}
	return items, rows.Err()
}

// DeleteSeriesBook removes a series link.
// Returns store.ErrNotFound if the pair is not linked.
func (s *Store) DeleteSeriesBook(ctx context.Context, seriesID, bookID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM series_books WHERE series_id = ? AND book_id = ?`, seriesID, bookID)
	if err != nil {
		return fmt.Errorf("delete series_book: %w", err)
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
