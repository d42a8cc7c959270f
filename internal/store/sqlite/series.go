package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// seriesColumns is the ordered list of columns selected in series queries.
// Must match the scan order in scanSeries.
const seriesColumns = `id, created_at, updated_at, name, description, total_volumes,
	status, type, source, cover_url`

// scanSeries scans a sql.Row (or sql.Rows via its Scan method) into a domain.Series.
func scanSeries(scanner interface{ Scan(dest ...any) error }) (*domain.Series, error) {
	var s domain.Series

	var (
		createdAt    string
		updatedAt    string
		description  sql.NullString
		totalVolumes sql.NullInt64
		seriesType   sql.NullString
		source       sql.NullString
		coverURL     sql.NullString
	)

	err := scanner.Scan(
		&s.ID,
		&createdAt,
		&updatedAt,
		&s.Name,
		&description,
		&totalVolumes,
		&s.Status,
		&seriesType,
		&source,
		&coverURL,
	)
	if err != nil {
		return nil, err
	}

	s.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	s.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	s.Description = description.String
	if totalVolumes.Valid {
		s.TotalVolumes = int(totalVolumes.Int64)
	}
	s.Type = seriesType.String
	s.Source = source.String
	s.CoverURL = coverURL.String

	return &s, nil
}

// CreateSeries inserts a new series.
// Returns store.ErrAlreadyExists when a series with the same name already
// exists (names are unique case-insensitively).
func (s *Store) CreateSeries(ctx context.Context, series *domain.Series) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series (
			id, created_at, updated_at, name, description, total_volumes,
			status, type, source, cover_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		series.ID,
		formatTime(series.CreatedAt),
		formatTime(series.UpdatedAt),
		series.Name,
		nullString(series.Description),
		series.TotalVolumes,
		string(series.Status),
		nullString(series.Type),
		nullString(series.Source),
		nullString(series.CoverURL),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert series: %w", err)
	}

	if err := s.searchIndexer.IndexSeries(ctx, series); err != nil {
		s.logger.Warn("index series", "series_id", series.ID, "error", err)
	}
	return nil
}

// GetSeries retrieves a series by ID.
// Returns store.ErrNotFound if the series does not exist.
func (s *Store) GetSeries(ctx context.Context, id string) (*domain.Series, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+seriesColumns+` FROM series WHERE id = ?`, id)

	series, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return series, nil
}

// FindSeriesByName looks a series up by case-insensitive exact name match.
// Returns store.ErrNotFound when absent.
func (s *Store) FindSeriesByName(ctx context.Context, name string) (*domain.Series, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+seriesColumns+` FROM series WHERE name = ? COLLATE NOCASE`, name)

	series, err := scanSeries(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return series, nil
}

// ListSeries returns paginated series ordered by name (case-insensitive) then id.
func (s *Store) ListSeries(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Series], error) {
	params.Validate()

	var cursorName, cursorID string
	if params.Cursor != "" {
		decoded, err := store.DecodeCursor(params.Cursor)
		if err != nil {
			return nil, fmt.Errorf("decode cursor: %w", err)
		}
		parts := strings.SplitN(decoded, "|", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid cursor format")
		}
		cursorName = parts[0]
		cursorID = parts[1]
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM series`).Scan(&total); err != nil {
		return nil, err
	}

	fetchLimit := params.Limit + 1

	var (
		rows *sql.Rows
		err  error
	)
	if cursorName != "" || cursorID != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+seriesColumns+` FROM series
			WHERE (name COLLATE NOCASE > ? OR (name COLLATE NOCASE = ? AND id > ?))
			ORDER BY name COLLATE NOCASE ASC, id ASC
			LIMIT ?`,
			cursorName, cursorName, cursorID, fetchLimit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+seriesColumns+` FROM series
			ORDER BY name COLLATE NOCASE ASC, id ASC
			LIMIT ?`,
			fetchLimit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, series)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.Series]{
		Items: items,
		Total: total,
	}
	if len(items) > params.Limit {
		result.HasMore = true
		result.Items = items[:params.Limit]
		last := result.Items[params.Limit-1]
		result.NextCursor = store.EncodeCursor(last.Name + "|" + last.ID)
	}
	if result.Items == nil {
		result.Items = []*domain.Series{}
	}
	return result, nil
}

// ListAllSeries returns every series row, unordered. Used by the
// administrative reconciliation sweep.
func (s *Store) ListAllSeries(ctx context.Context) ([]*domain.Series, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+seriesColumns+` FROM series`)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var items []*domain.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, series)
	}
	return items, rows.Err()
}

// UpdateSeries performs a full row update on an existing series.
// Returns store.ErrNotFound if the series does not exist.
func (s *Store) UpdateSeries(ctx context.Context, series *domain.Series) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE series SET
			updated_at = ?,
			name = ?,
			description = ?,
			total_volumes = ?,
			status = ?,
			type = ?,
			source = ?,
			cover_url = ?
		WHERE id = ?`,
		formatTime(series.UpdatedAt),
		series.Name,
		nullString(series.Description),
		series.TotalVolumes,
		string(series.Status),
		nullString(series.Type),
		nullString(series.Source),
		nullString(series.CoverURL),
		series.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("update series: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := s.searchIndexer.IndexSeries(ctx, series); err != nil {
		s.logger.Warn("index series", "series_id", series.ID, "error", err)
	}
	return nil
}

// DeleteSeries removes a series with a single delete; series_books and
// series_volumes children are cleaned up by cascade.
func (s *Store) DeleteSeries(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM series WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := s.searchIndexer.DeleteSeries(ctx, id); err != nil {
		s.logger.Warn("deindex series", "series_id", id, "error", err)
	}
	return nil
}
