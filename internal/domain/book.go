package domain

import "strings"

// Book represents a canonical work in the catalog. One Book row exists per
// distinct work; removing a book from a user's library only removes the
// ownership link, so the Book persists as shared metadata.
type Book struct {
	Record
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Description   string   `json:"description,omitempty"`
	Language      string   `json:"language,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	GoogleBooksID string   `json:"google_books_id,omitempty"`
	OpenLibraryID string   `json:"open_library_id,omitempty"`
	Authors       []Author `json:"authors,omitempty"` // credit order preserved
}

// PrimaryAuthor returns the first credited author's name, or empty string.
func (b *Book) PrimaryAuthor() string {
	if len(b.Authors) == 0 {
		return ""
	}
	return b.Authors[0].Name
}

// Edition represents a specific published form of a Book (hardcover, ebook,
// paperback...). Many editions per book; uniqueness is soft, matched by ISBN
// when one is present.
type Edition struct {
	Record
	BookID        string `json:"book_id"`
	ISBN10        string `json:"isbn10,omitempty"`
	ISBN13        string `json:"isbn13,omitempty"`
	Format        string `json:"format,omitempty"`
	Pages         int    `json:"pages,omitempty"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
}

// MatchesISBN reports whether the edition carries the given ISBN in either
// its 10- or 13-digit field. Comparison ignores hyphens.
func (e *Edition) MatchesISBN(isbn string) bool {
	if isbn == "" {
		return false
	}
	norm := NormalizeISBN(isbn)
	return NormalizeISBN(e.ISBN10) == norm || NormalizeISBN(e.ISBN13) == norm
}

// NormalizeISBN strips hyphens and spaces from an ISBN for comparison and storage.
func NormalizeISBN(isbn string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, isbn)
}

// Author is a credited contributor, deduplicated by exact name match.
type Author struct {
	Record
	Name string `json:"name"`
}
