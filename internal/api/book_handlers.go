package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "addBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Add book",
		Description: "Resolves a book by ISBN or title and adds it to the caller's library",
		Tags:        []string{"Books"},
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns a paginated listing of the shared catalog",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book with its ordered author credits",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookEditions",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/editions",
		Summary:     "List book editions",
		Description: "Returns all known editions of a book",
		Tags:        []string{"Books"},
	}, s.handleListBookEditions)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "List library",
		Description: "Returns the caller's ownership records",
		Tags:        []string{"Library"},
	}, s.handleListLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateOwnership",
		Method:      http.MethodPatch,
		Path:        "/api/v1/library/{editionID}",
		Summary:     "Update ownership",
		Description: "Partially updates the caller's ownership record for an edition",
		Tags:        []string{"Library"},
	}, s.handleUpdateOwnership)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFromLibrary",
		Method:      http.MethodDelete,
		Path:        "/api/v1/library/{editionID}",
		Summary:     "Remove from library",
		Description: "Removes an edition from the caller's library; the catalog entry persists",
		Tags:        []string{"Library"},
	}, s.handleRemoveFromLibrary)
}

// === DTOs ===

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// AuthorResponse contains author data in API responses.
type AuthorResponse struct {
	ID   string `json:"id" doc:"Author ID"`
	Name string `json:"name" doc:"Author name"`
}

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID            string           `json:"id" doc:"Book ID"`
	Title         string           `json:"title" doc:"Title"`
	Subtitle      string           `json:"subtitle,omitempty" doc:"Subtitle"`
	Description   string           `json:"description,omitempty" doc:"Description"`
	Language      string           `json:"language,omitempty" doc:"Language code"`
	Publisher     string           `json:"publisher,omitempty" doc:"Publisher"`
	PublishedDate string           `json:"published_date,omitempty" doc:"Publication date"`
	PageCount     int              `json:"page_count,omitempty" doc:"Page count"`
	Categories    []string         `json:"categories,omitempty" doc:"Categories"`
	GoogleBooksID string           `json:"google_books_id,omitempty" doc:"Google Books volume ID"`
	OpenLibraryID string           `json:"open_library_id,omitempty" doc:"Open Library work ID"`
	Authors       []AuthorResponse `json:"authors,omitempty" doc:"Credited authors in order"`
	CreatedAt     time.Time        `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time        `json:"updated_at" doc:"Last update time"`
}

// EditionResponse contains edition data in API responses.
type EditionResponse struct {
	ID            string    `json:"id" doc:"Edition ID"`
	BookID        string    `json:"book_id" doc:"Parent book ID"`
	ISBN10        string    `json:"isbn10,omitempty" doc:"ISBN-10"`
	ISBN13        string    `json:"isbn13,omitempty" doc:"ISBN-13"`
	Format        string    `json:"format,omitempty" doc:"Physical or digital format"`
	Pages         int       `json:"pages,omitempty" doc:"Page count"`
	Publisher     string    `json:"publisher,omitempty" doc:"Publisher"`
	PublishedDate string    `json:"published_date,omitempty" doc:"Publication date"`
	CoverURL      string    `json:"cover_url,omitempty" doc:"Cover image URL"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update time"`
}

// OwnershipResponse contains a user's ownership record in API responses.
type OwnershipResponse struct {
	ID          string     `json:"id" doc:"Ownership record ID"`
	UserID      string     `json:"user_id" doc:"Owning user"`
	EditionID   string     `json:"edition_id" doc:"Owned edition"`
	Status      string     `json:"status" doc:"Ownership status: owned, wanted, or missing"`
	AcquiredAt  *time.Time `json:"acquired_at,omitempty" doc:"When the edition was acquired"`
	Notes       string     `json:"notes,omitempty" doc:"Free-form notes"`
	CurrentPage int        `json:"current_page,omitempty" doc:"Reading progress"`
	StartedAt   *time.Time `json:"started_at,omitempty" doc:"When reading started"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" doc:"When reading finished"`
	CreatedAt   time.Time  `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time  `json:"updated_at" doc:"Last update time"`
}

// AddBookRequest is the request body for adding a book.
type AddBookRequest struct {
	ISBN    string   `json:"isbn,omitempty" doc:"ISBN-10 or ISBN-13, hyphens allowed"`
	Title   string   `json:"title,omitempty" validate:"omitempty,max=500" doc:"Title, required when no ISBN is given"`
	Authors []string `json:"authors,omitempty" doc:"Author names in credit order"`

	Publisher     string   `json:"publisher,omitempty" doc:"Publisher"`
	PublishedDate string   `json:"published_date,omitempty" doc:"Publication date"`
	Description   string   `json:"description,omitempty" doc:"Description"`
	PageCount     int      `json:"page_count,omitempty" validate:"omitempty,min=0" doc:"Page count"`
	Categories    []string `json:"categories,omitempty" doc:"Categories"`
	Language      string   `json:"language,omitempty" doc:"Language code"`
	Format        string   `json:"format,omitempty" doc:"Edition format"`
	CoverURL      string   `json:"cover_url,omitempty" doc:"Cover image URL"`

	Status string `json:"status,omitempty" validate:"omitempty,oneof=owned wanted missing" doc:"Ownership status (default: owned)"`
}

// AddBookInput wraps the add book request for Huma.
type AddBookInput struct {
	UserID string `header:"X-User-ID" doc:"Acting user (default: local)"`
	Body   AddBookRequest
}

// LibraryEntryResponse is the outcome of adding a book: the resolved catalog
// entry plus the caller's ownership record.
type LibraryEntryResponse struct {
	Book      BookResponse      `json:"book" doc:"Canonical book"`
	Edition   EditionResponse   `json:"edition" doc:"Resolved edition"`
	Ownership OwnershipResponse `json:"ownership" doc:"Caller's ownership record"`
	Created   bool              `json:"created" doc:"Whether the book row was created by this call"`
}

// LibraryEntryOutput wraps the library entry response for Huma.
type LibraryEntryOutput struct {
	Body LibraryEntryResponse
}

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Limit  int    `query:"limit" doc:"Items per page (default 100, max 1000)"`
	Cursor string `query:"cursor" doc:"Opaque cursor from a previous page"`
}

// BookListResponse contains a page of books.
type BookListResponse struct {
	Books      []BookResponse `json:"books" doc:"Books on this page"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more pages exist"`
}

// BookListOutput wraps the book list response for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// BookOutput wraps the book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// EditionListResponse contains the editions of a book.
type EditionListResponse struct {
	Editions []EditionResponse `json:"editions" doc:"Editions of the book"`
}

// EditionListOutput wraps the edition list response for Huma.
type EditionListOutput struct {
	Body EditionListResponse
}

// ListLibraryInput contains parameters for listing the caller's library.
type ListLibraryInput struct {
	UserID string `header:"X-User-ID" doc:"Acting user (default: local)"`
}

// LibraryListResponse contains the caller's ownership records.
type LibraryListResponse struct {
	Entries []OwnershipResponse `json:"entries" doc:"Ownership records"`
}

// LibraryListOutput wraps the library list response for Huma.
type LibraryListOutput struct {
	Body LibraryListResponse
}

// UpdateOwnershipRequest is the request body for updating an ownership record.
type UpdateOwnershipRequest struct {
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=owned wanted missing" doc:"Ownership status"`
	Notes       *string    `json:"notes,omitempty" doc:"Free-form notes"`
	CurrentPage *int       `json:"current_page,omitempty" validate:"omitempty,min=0" doc:"Reading progress"`
	StartedAt   *time.Time `json:"started_at,omitempty" doc:"When reading started"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" doc:"When reading finished"`
}

// UpdateOwnershipInput wraps the update ownership request for Huma.
type UpdateOwnershipInput struct {
	UserID    string `header:"X-User-ID" doc:"Acting user (default: local)"`
	EditionID string `path:"editionID" doc:"Edition ID"`
	Body      UpdateOwnershipRequest
}

// OwnershipOutput wraps the ownership response for Huma.
type OwnershipOutput struct {
	Body OwnershipResponse
}

// RemoveFromLibraryInput contains parameters for removing an edition.
type RemoveFromLibraryInput struct {
	UserID    string `header:"X-User-ID" doc:"Acting user (default: local)"`
	EditionID string `path:"editionID" doc:"Edition ID"`
}

// === Handlers ===

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*LibraryEntryOutput, error) {
	userID := userOrLocal(input.UserID)

	resolved, ub, err := s.services.Books.AddToLibrary(ctx, userID, service.ResolveInput{
		ISBN:          input.Body.ISBN,
		Title:         input.Body.Title,
		Authors:       input.Body.Authors,
		Publisher:     input.Body.Publisher,
		PublishedDate: input.Body.PublishedDate,
		Description:   input.Body.Description,
		PageCount:     input.Body.PageCount,
		Categories:    input.Body.Categories,
		Language:      input.Body.Language,
		Format:        input.Body.Format,
		CoverURL:      input.Body.CoverURL,
	}, domain.OwnershipStatus(input.Body.Status))
	if err != nil {
		return nil, err
	}

	return &LibraryEntryOutput{
		Body: LibraryEntryResponse{
			Book:      toBookResponse(resolved.Book),
			Edition:   toEditionResponse(resolved.Edition),
			Ownership: toOwnershipResponse(ub),
			Created:   resolved.Created,
		},
	}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookListOutput, error) {
	page, err := s.services.Books.ListBooks(ctx, paginationParams(input.Limit, input.Cursor))
	if err != nil {
		return nil, err
	}

	books := make([]BookResponse, len(page.Items))
	for i, b := range page.Items {
		books[i] = toBookResponse(b)
	}

	return &BookListOutput{
		Body: BookListResponse{
			Books:      books,
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
		},
	}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.services.Books.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleListBookEditions(ctx context.Context, input *GetBookInput) (*EditionListOutput, error) {
	if _, err := s.services.Books.GetBook(ctx, input.ID); err != nil {
		return nil, err
	}

	editions, err := s.services.Books.ListEditions(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]EditionResponse, len(editions))
	for i, e := range editions {
		resp[i] = toEditionResponse(e)
	}

	return &EditionListOutput{Body: EditionListResponse{Editions: resp}}, nil
}

func (s *Server) handleListLibrary(ctx context.Context, input *ListLibraryInput) (*LibraryListOutput, error) {
	userID := userOrLocal(input.UserID)

	entries, err := s.services.Books.ListLibrary(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]OwnershipResponse, len(entries))
	for i, ub := range entries {
		resp[i] = toOwnershipResponse(ub)
	}

	return &LibraryListOutput{Body: LibraryListResponse{Entries: resp}}, nil
}

func (s *Server) handleUpdateOwnership(ctx context.Context, input *UpdateOwnershipInput) (*OwnershipOutput, error) {
	userID := userOrLocal(input.UserID)

	var status *domain.OwnershipStatus
	if input.Body.Status != nil {
		st := domain.OwnershipStatus(*input.Body.Status)
		status = &st
	}

	ub, err := s.services.Books.UpdateOwnership(ctx, userID, input.EditionID, service.UpdateOwnershipInput{
		Status:      status,
		Notes:       input.Body.Notes,
		CurrentPage: input.Body.CurrentPage,
		StartedAt:   input.Body.StartedAt,
		FinishedAt:  input.Body.FinishedAt,
	})
	if err != nil {
		return nil, err
	}

	return &OwnershipOutput{Body: toOwnershipResponse(ub)}, nil
}

func (s *Server) handleRemoveFromLibrary(ctx context.Context, input *RemoveFromLibraryInput) (*MessageOutput, error) {
	userID := userOrLocal(input.UserID)

	if err := s.services.Books.RemoveFromLibrary(ctx, userID, input.EditionID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Edition removed from library"}}, nil
}

// === Converters ===

func toBookResponse(b *domain.Book) BookResponse {
	authors := make([]AuthorResponse, len(b.Authors))
	for i, a := range b.Authors {
		authors[i] = AuthorResponse{ID: a.ID, Name: a.Name}
	}

	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Subtitle:      b.Subtitle,
		Description:   b.Description,
		Language:      b.Language,
		Publisher:     b.Publisher,
		PublishedDate: b.PublishedDate,
		PageCount:     b.PageCount,
		Categories:    b.Categories,
		GoogleBooksID: b.GoogleBooksID,
		OpenLibraryID: b.OpenLibraryID,
		Authors:       authors,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func toEditionResponse(e *domain.Edition) EditionResponse {
	return EditionResponse{
		ID:            e.ID,
		BookID:        e.BookID,
		ISBN10:        e.ISBN10,
		ISBN13:        e.ISBN13,
		Format:        e.Format,
		Pages:         e.Pages,
		Publisher:     e.Publisher,
		PublishedDate: e.PublishedDate,
		CoverURL:      e.CoverURL,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toOwnershipResponse(ub *domain.UserBook) OwnershipResponse {
	return OwnershipResponse{
		ID:          ub.ID,
		UserID:      ub.UserID,
		EditionID:   ub.EditionID,
		Status:      string(ub.Status),
		AcquiredAt:  ub.AcquiredAt,
		Notes:       ub.Notes,
		CurrentPage: ub.CurrentPage,
		StartedAt:   ub.StartedAt,
		FinishedAt:  ub.FinishedAt,
		CreatedAt:   ub.CreatedAt,
		UpdatedAt:   ub.UpdatedAt,
	}
}
