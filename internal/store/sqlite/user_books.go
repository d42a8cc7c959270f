package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

const userBookColumns = `id, created_at, updated_at, user_id, edition_id, status,
	acquired_at, notes, current_page, started_at, finished_at`

func scanUserBook(scanner interface{ Scan(dest ...any) error }) (*domain.UserBook, error) {
	var ub domain.UserBook

	var (
		createdAt  string
		updatedAt  string
		acquiredAt sql.NullString
		notes      sql.NullString
		startedAt  sql.NullString
		finishedAt sql.NullString
	)

	err := scanner.Scan(
		&ub.ID,
		&createdAt,
		&updatedAt,
		&ub.UserID,
		&ub.EditionID,
		&ub.Status,
		&acquiredAt,
		&notes,
		&ub.CurrentPage,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	ub.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	ub.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	if ub.AcquiredAt, err = parseNullableTime(acquiredAt); err != nil {
		return nil, err
	}
	if ub.StartedAt, err = parseNullableTime(startedAt); err != nil {
		return nil, err
	}
	if ub.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, err
	}
	ub.Notes = notes.String

	return &ub, nil
}

// CreateUserBook inserts an ownership row.
// Returns store.ErrAlreadyExists if the (user, edition) pair already exists.
func (s *Store) CreateUserBook(ctx context.Context, ub *domain.UserBook) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_books (
			id, created_at, updated_at, user_id, edition_id, status,
			acquired_at, notes, current_page, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ub.ID,
		formatTime(ub.CreatedAt),
		formatTime(ub.UpdatedAt),
		ub.UserID,
		ub.EditionID,
		string(ub.Status),
		nullTimeString(ub.AcquiredAt),
		nullString(ub.Notes),
		ub.CurrentPage,
		nullTimeString(ub.StartedAt),
		nullTimeString(ub.FinishedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert user_book: %w", err)
	}
	return nil
}

// GetUserBook retrieves an ownership row by ID.
func (s *Store) GetUserBook(ctx context.Context, id string) (*domain.UserBook, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userBookColumns+` FROM user_books WHERE id = ?`, id)

	ub, err := scanUserBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ub, nil
}

// FindUserBook retrieves the ownership row for a (user, edition) pair.
// Returns store.ErrNotFound when the user has no row for that edition.
func (s *Store) FindUserBook(ctx context.Context, userID, editionID string) (*domain.UserBook, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userBookColumns+` FROM user_books WHERE user_id = ? AND edition_id = ?`,
		userID, editionID)

	ub, err := scanUserBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ub, nil
}

// ListUserBooks returns all ownership rows for a user, newest first.
func (s *Store) ListUserBooks(ctx context.Context, userID string) ([]*domain.UserBook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userBookColumns+` FROM user_books
		WHERE user_id = ?
		ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user_books: %w", err)
	}
	defer rows.Close()

	var items []*domain.UserBook
	for rows.Next() {
		ub, err := scanUserBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ub)
	}
	return items, rows.Err()
}

// UpdateUserBook performs a full row update on an ownership row.
// Returns store.ErrNotFound if the row does not exist.
func (s *Store) UpdateUserBook(ctx context.Context, ub *domain.UserBook) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE user_books SET
			updated_at = ?,
			status = ?,
			acquired_at = ?,
			notes = ?,
			current_page = ?,
			started_at = ?,
			finished_at = ?
		WHERE id = ?`,
		formatTime(ub.UpdatedAt),
		string(ub.Status),
		nullTimeString(ub.AcquiredAt),
		nullString(ub.Notes),
		ub.CurrentPage,
		nullTimeString(ub.StartedAt),
		nullTimeString(ub.FinishedAt),
		ub.ID,
	)
	if err != nil {
		return fmt.Errorf("update user_book: %w", err)
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

// DeleteUserBook removes an ownership row. The edition and book stay behind
// as shared metadata.
func (s *Store) DeleteUserBook(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM user_books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user_book: %w", err)
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
