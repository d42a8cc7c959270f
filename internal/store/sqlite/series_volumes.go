package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

const seriesVolumeColumns = `id, created_at, updated_at, series_id, volume_number,
	title, book_id, cover_url, released, announced`

func scanSeriesVolume(scanner interface{ Scan(dest ...any) error }) (*domain.SeriesVolume, error) {
	var v domain.SeriesVolume

	var (
		createdAt string
		updatedAt string
		title     sql.NullString
		bookID    sql.NullString
		coverURL  sql.NullString
	)

	err := scanner.Scan(
		&v.ID,
		&createdAt,
		&updatedAt,
		&v.SeriesID,
		&v.VolumeNumber,
		&title,
		&bookID,
		&coverURL,
		&v.Released,
		&v.Announced,
	)
	if err != nil {
		return nil, err
	}

	v.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	v.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	v.Title = title.String
	v.BookID = bookID.String
	v.CoverURL = coverURL.String

	return &v, nil
}

// CreateSeriesVolume inserts a volume slot.
// Returns store.ErrAlreadyExists if the (series, volume number) slot exists.
func (s *Store) CreateSeriesVolume(ctx context.Context, v *domain.SeriesVolume) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series_volumes (
			id, created_at, updated_at, series_id, volume_number,
			title, book_id, cover_url, released, announced
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID,
		formatTime(v.CreatedAt),
		formatTime(v.UpdatedAt),
		v.SeriesID,
		v.VolumeNumber,
		nullString(v.Title),
		nullString(v.BookID),
		nullString(v.CoverURL),
		v.Released,
		v.Announced,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert series_volume: %w", err)
	}
	return nil
}

// GetSeriesVolume retrieves the slot at a (series, volume number).
// Returns store.ErrNotFound when the slot does not exist.
func (s *Store) GetSeriesVolume(ctx context.Context, seriesID string, volumeNumber int) (*domain.SeriesVolume, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+seriesVolumeColumns+` FROM series_volumes
		WHERE series_id = ? AND volume_number = ?`, seriesID, volumeNumber)

	v, err := scanSeriesVolume(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListSeriesVolumes returns every slot for a series in volume order.
func (s *Store) ListSeriesVolumes(ctx context.Context, seriesID string) ([]*domain.SeriesVolume, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+seriesVolumeColumns+` FROM series_volumes
		WHERE series_id = ?
		ORDER BY volume_number ASC`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query series_volumes: %w", err)
	}
	defer rows.Close()

	var items []*domain.SeriesVolume
	for rows.Next() {
		v, err := scanSeriesVolume(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// UpdateSeriesVolume performs a full row update on a volume slot.
// Returns store.ErrNotFound if the slot does not exist.
func (s *Store) UpdateSeriesVolume(ctx context.Context, v *domain.SeriesVolume) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE series_volumes SET
			updated_at = ?,
			title = ?,
			book_id = ?,
			cover_url = ?,
			released = ?,
			announced = ?
		WHERE id = ?`,
		formatTime(v.UpdatedAt),
		nullString(v.Title),
		nullString(v.BookID),
		nullString(v.CoverURL),
		v.Released,
		v.Announced,
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("update series_volume: %w", err)
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

// ListVolumeOwnership returns one row per (volume, edition) combination for
// a series, joined against the given user's ownership rows. Services reduce
// this to a per-volume ownership tri-state and a display cover without
// issuing per-volume queries.
func (s *Store) ListVolumeOwnership(ctx context.Context, seriesID, userID string) ([]store.VolumeOwnershipRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sv.volume_number, sv.book_id, e.id, e.cover_url, ub.status
		FROM series_volumes sv
		LEFT JOIN editions e ON e.book_id = sv.book_id
		LEFT JOIN user_books ub ON ub.edition_id = e.id AND ub.user_id = ?
		WHERE sv.series_id = ?
		ORDER BY sv.volume_number ASC`, userID, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query volume ownership: %w", err)
	}
	defer rows.Close()

	var items []store.VolumeOwnershipRow
	for rows.Next() {
		var (
			r         store.VolumeOwnershipRow
			bookID    sql.NullString
			editionID sql.NullString
			coverURL  sql.NullString
			status    sql.NullString
		)
		if err := rows.Scan(&r.VolumeNumber, &bookID, &editionID, &coverURL, &status); err != nil {
			return nil, fmt.Errorf("scan volume ownership: %w", err)
		}
		r.BookID = bookID.String
		r.EditionID = editionID.String
		r.EditionCoverURL = coverURL.String
		r.Status = domain.OwnershipStatus(status.String)
		items = append(items, r)
	}
	return items, rows.Err()
}
