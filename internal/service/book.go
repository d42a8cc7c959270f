// Package service implements the business logic over the sqlite store:
// book ingestion, the series registry, volume reconciliation, CSV import,
// import job tracking, and search.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	apperrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/metadata"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/shelfmark/shelfmark-server/internal/store/sqlite"
)

// BookService resolves or creates canonical books plus editions, and manages
// per-user ownership records.
type BookService struct {
	store  *sqlite.Store
	lookup metadata.Lookup
	logger *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store *sqlite.Store, lookup metadata.Lookup, logger *slog.Logger) *BookService {
	return &BookService{
		store:  store,
		lookup: lookup,
		logger: logger,
	}
}

// ResolveInput carries the identifying fields for a book plus manual-entry
// fallback data. When the metadata lookup finds nothing, the fallback values
// become the permanent record instead of the resolution failing.
type ResolveInput struct {
	ISBN    string
	Title   string
	Authors []string

	Publisher     string
	PublishedDate string
	Description   string
	PageCount     int
	Categories    []string
	Language      string
	Format        string
	CoverURL      string
}

// ResolvedBook is the outcome of ResolveOrCreate: the canonical book, the
// edition it resolved to, and whether the book row was created by this call.
type ResolvedBook struct {
	Book    *domain.Book
	Edition *domain.Edition
	Created bool
}

// ResolveOrCreate finds the canonical book and edition for the input, creating
// them when absent. Resolution order: exact ISBN match against existing
// editions, then metadata enrichment (dedupe by the provider's external ids),
// then case-insensitive title/author match, then creation from the enriched
// or manual data. Lookup failures are tolerated; the input fields alone are
// enough to create a record.
func (s *BookService) ResolveOrCreate(ctx context.Context, in ResolveInput) (*ResolvedBook, error) {
	if in.ISBN == "" && in.Title == "" {
		return nil, apperrors.Validation("either an ISBN or a title is required")
	}

	if in.ISBN != "" {
		edition, err := s.store.FindEditionByISBN(ctx, in.ISBN)
		if err == nil {
			book, err := s.store.GetBook(ctx, edition.BookID)
			if err != nil {
				return nil, fmt.Errorf("get book for edition %s: %w", edition.ID, err)
			}
			return &ResolvedBook{Book: book, Edition: edition, Created: false}, nil
		}
		if err != store.ErrNotFound {
			return nil, fmt.Errorf("find edition by isbn: %w", err)
		}
	}

	enriched := s.enrich(ctx, in)

	// A provider hit may correspond to a book we already hold under a
	// different edition.
	if enriched != nil && (enriched.GoogleBooksID != "" || enriched.OpenLibraryID != "") {
		book, err := s.store.FindBookByExternalID(ctx, enriched.GoogleBooksID, enriched.OpenLibraryID)
		if err == nil {
			edition, err := s.createEdition(ctx, book.ID, in, enriched)
			if err != nil {
				return nil, err
			}
			return &ResolvedBook{Book: book, Edition: edition, Created: false}, nil
		}
		if err != store.ErrNotFound {
			return nil, fmt.Errorf("find book by external id: %w", err)
		}
	}

	title := in.Title
	author := ""
	if len(in.Authors) > 0 {
		author = in.Authors[0]
	}
	if enriched != nil {
		if enriched.Title != "" {
			title = enriched.Title
		}
		if len(enriched.Authors) > 0 {
			author = enriched.Authors[0]
		}
	}
	if title != "" {
		book, err := s.store.FindBookByTitleAuthor(ctx, title, author)
		if err == nil {
			edition, err := s.createEdition(ctx, book.ID, in, enriched)
			if err != nil {
				return nil, err
			}
			return &ResolvedBook{Book: book, Edition: edition, Created: false}, nil
		}
		if err != store.ErrNotFound {
			return nil, fmt.Errorf("find book by title: %w", err)
		}
	}

	book, edition := buildBookEdition(in, enriched)
	if err := s.store.CreateBookWithEdition(ctx, book, edition); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return &ResolvedBook{Book: book, Edition: edition, Created: true}, nil
}

// enrich queries the metadata lookup, by ISBN first and title second. Lookup
// errors are logged and treated as no match.
func (s *BookService) enrich(ctx context.Context, in ResolveInput) *metadata.NormalizedMetadata {
	if s.lookup == nil {
		return nil
	}
	if in.ISBN != "" {
		meta, err := s.lookup.EnrichByISBN(ctx, in.ISBN)
		if err != nil {
			s.logger.Warn("metadata ISBN lookup failed", "isbn", in.ISBN, "error", err)
		} else if meta != nil {
			return meta
		}
	}
	if in.Title != "" {
		author := ""
		if len(in.Authors) > 0 {
			author = in.Authors[0]
		}
		results, err := s.lookup.SearchByTitle(ctx, in.Title, author)
		if err != nil {
			s.logger.Warn("metadata title search failed", "title", in.Title, "error", err)
			return nil
		}
		return metadata.BestMatch(results)
	}
	return nil
}

// buildBookEdition assembles fresh book and edition records, preferring
// enriched metadata per field and falling back to the manual input.
func buildBookEdition(in ResolveInput, meta *metadata.NormalizedMetadata) (*domain.Book, *domain.Edition) {
	book := &domain.Book{
		Title:         in.Title,
		Description:   in.Description,
		Language:      in.Language,
		Publisher:     in.Publisher,
		PublishedDate: in.PublishedDate,
		PageCount:     in.PageCount,
		Categories:    in.Categories,
	}
	edition := &domain.Edition{
		Format:        in.Format,
		Pages:         in.PageCount,
		Publisher:     in.Publisher,
		PublishedDate: in.PublishedDate,
		CoverURL:      in.CoverURL,
	}
	if len(domain.NormalizeISBN(in.ISBN)) == 10 {
		edition.ISBN10 = in.ISBN
	} else if in.ISBN != "" {
		edition.ISBN13 = in.ISBN
	}

	authors := in.Authors
	if meta != nil {
		if meta.Title != "" {
			book.Title = meta.Title
		}
		book.Subtitle = meta.Subtitle
		if meta.Description != "" {
			book.Description = metadata.CleanDescription(meta.Description)
		}
		if meta.Language != "" {
			book.Language = meta.Language
		}
		if meta.Publisher != "" {
			book.Publisher = meta.Publisher
			edition.Publisher = meta.Publisher
		}
		if meta.PublishedDate != "" {
			book.PublishedDate = meta.PublishedDate
			edition.PublishedDate = meta.PublishedDate
		}
		if meta.PageCount > 0 {
			book.PageCount = meta.PageCount
			edition.Pages = meta.PageCount
		}
		if len(meta.Categories) > 0 {
			book.Categories = meta.Categories
		}
		book.GoogleBooksID = meta.GoogleBooksID
		book.OpenLibraryID = meta.OpenLibraryID
		if len(meta.Authors) > 0 {
			authors = meta.Authors
		}
		if meta.ISBN10 != "" {
			edition.ISBN10 = meta.ISBN10
		}
		if meta.ISBN13 != "" {
			edition.ISBN13 = meta.ISBN13
		}
		if meta.CoverURL != "" {
			edition.CoverURL = meta.CoverURL
		} else if meta.ThumbnailURL != "" && edition.CoverURL == "" {
			edition.CoverURL = meta.ThumbnailURL
		}
	}
	for _, name := range authors {
		book.Authors = append(book.Authors, domain.Author{Name: name})
	}

	book.ID = id.MustGenerate("bk")
	book.InitTimestamps()
	edition.ID = id.MustGenerate("ed")
	edition.BookID = book.ID
	edition.InitTimestamps()
	return book, edition
}

// createEdition attaches a new edition to an existing book, reusing an
// existing edition when the ISBN already matches one of the book's editions.
func (s *BookService) createEdition(ctx context.Context, bookID string, in ResolveInput, meta *metadata.NormalizedMetadata) (*domain.Edition, error) {
	existing, err := s.store.ListEditionsByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	if in.ISBN != "" {
		for _, e := range existing {
			if e.MatchesISBN(in.ISBN) {
				return e, nil
			}
		}
	} else if len(existing) > 0 {
		// No ISBN to distinguish editions; reuse rather than multiply.
		return existing[0], nil
	}

	edition := &domain.Edition{
		BookID:        bookID,
		Format:        in.Format,
		Pages:         in.PageCount,
		Publisher:     in.Publisher,
		PublishedDate: in.PublishedDate,
		CoverURL:      in.CoverURL,
	}
	if len(domain.NormalizeISBN(in.ISBN)) == 10 {
		edition.ISBN10 = in.ISBN
	} else if in.ISBN != "" {
		edition.ISBN13 = in.ISBN
	}
	if meta != nil {
		if meta.ISBN10 != "" {
			edition.ISBN10 = meta.ISBN10
		}
		if meta.ISBN13 != "" {
			edition.ISBN13 = meta.ISBN13
		}
		if meta.CoverURL != "" {
			edition.CoverURL = meta.CoverURL
		}
		if meta.PageCount > 0 {
			edition.Pages = meta.PageCount
		}
	}
	edition.ID = id.MustGenerate("ed")
	edition.InitTimestamps()

	if err := s.store.CreateEdition(ctx, edition); err != nil {
		return nil, fmt.Errorf("create edition: %w", err)
	}
	return edition, nil
}

// AddToLibrary resolves the book described by in and upserts the calling
// user's ownership record for the resolved edition. Re-adding an edition the
// user already holds updates its status instead of duplicating the row.
func (s *BookService) AddToLibrary(ctx context.Context, userID string, in ResolveInput, status domain.OwnershipStatus) (*ResolvedBook, *domain.UserBook, error) {
	if status == "" {
		status = domain.OwnershipOwned
	}
	if !domain.ValidOwnershipStatus(status) {
		return nil, nil, apperrors.Validationf("invalid ownership status %q", status)
	}

	resolved, err := s.ResolveOrCreate(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	ub, err := s.store.FindUserBook(ctx, userID, resolved.Edition.ID)
	if err == nil {
		ub.Status = status
		ub.Touch()
		if err := s.store.UpdateUserBook(ctx, ub); err != nil {
			return nil, nil, fmt.Errorf("update ownership: %w", err)
		}
		return resolved, ub, nil
	}
	if err != store.ErrNotFound {
		return nil, nil, fmt.Errorf("find ownership: %w", err)
	}

	ub = &domain.UserBook{
		UserID:    userID,
		EditionID: resolved.Edition.ID,
		Status:    status,
	}
	if status == domain.OwnershipOwned {
		now := time.Now().UTC()
		ub.AcquiredAt = &now
	}
	ub.ID = id.MustGenerate("ub")
	ub.InitTimestamps()
	if err := s.store.CreateUserBook(ctx, ub); err != nil {
		return nil, nil, fmt.Errorf("create ownership: %w", err)
	}
	return resolved, ub, nil
}

// RemoveFromLibrary deletes the user's ownership record for an edition. The
// book and edition rows persist as shared catalog metadata.
func (s *BookService) RemoveFromLibrary(ctx context.Context, userID, editionID string) error {
	ub, err := s.store.FindUserBook(ctx, userID, editionID)
	if err != nil {
		if err == store.ErrNotFound {
			return apperrors.NotFound("edition is not in your library")
		}
		return fmt.Errorf("find ownership: %w", err)
	}
	if err := s.store.DeleteUserBook(ctx, ub.ID); err != nil {
		return fmt.Errorf("delete ownership: %w", err)
	}
	return nil
}

// UpdateOwnershipInput holds the patchable ownership fields; nil means
// unchanged.
type UpdateOwnershipInput struct {
	Status      *domain.OwnershipStatus
	Notes       *string
	CurrentPage *int
	StartedAt   *time.Time
	FinishedAt  *time.Time
}

// UpdateOwnership applies a partial update to the user's ownership record.
func (s *BookService) UpdateOwnership(ctx context.Context, userID, editionID string, in UpdateOwnershipInput) (*domain.UserBook, error) {
	ub, err := s.store.FindUserBook(ctx, userID, editionID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, apperrors.NotFound("edition is not in your library")
		}
		return nil, fmt.Errorf("find ownership: %w", err)
	}

	if in.Status != nil {
		if !domain.ValidOwnershipStatus(*in.Status) {
			return nil, apperrors.Validationf("invalid ownership status %q", *in.Status)
		}
		if *in.Status == domain.OwnershipOwned && ub.Status != domain.OwnershipOwned && ub.AcquiredAt == nil {
			now := time.Now().UTC()
			ub.AcquiredAt = &now
		}
		ub.Status = *in.Status
	}
	if in.Notes != nil {
		ub.Notes = *in.Notes
	}
	if in.CurrentPage != nil {
		if *in.CurrentPage < 0 {
			return nil, apperrors.Validation("current page cannot be negative")
		}
		ub.CurrentPage = *in.CurrentPage
	}
	if in.StartedAt != nil {
		ub.StartedAt = in.StartedAt
	}
	if in.FinishedAt != nil {
		ub.FinishedAt = in.FinishedAt
	}
	ub.Touch()

	if err := s.store.UpdateUserBook(ctx, ub); err != nil {
		return nil, fmt.Errorf("update ownership: %w", err)
	}
	return ub, nil
}

// GetBook returns a book with its ordered author credits.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, apperrors.NotFoundf("book %s not found", bookID)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// ListBooks returns a paginated catalog listing.
func (s *BookService) ListBooks(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	return s.store.ListBooks(ctx, params)
}

// ListEditions returns the editions of a book.
func (s *BookService) ListEditions(ctx context.Context, bookID string) ([]*domain.Edition, error) {
	return s.store.ListEditionsByBook(ctx, bookID)
}

// ListLibrary returns the user's ownership records.
func (s *BookService) ListLibrary(ctx context.Context, userID string) ([]*domain.UserBook, error) {
	return s.store.ListUserBooks(ctx, userID)
}
