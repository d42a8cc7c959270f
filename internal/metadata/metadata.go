// Package metadata defines the normalized record shape returned by external
// book catalogs (Google Books, OpenLibrary, AniList) and the Lookup interface
// the rest of the system consumes. Callers treat lookups as best-effort:
// a nil result or an empty slice means "no match", not an error, and import
// paths fall back to whatever data they already have.
package metadata

import "context"

// NormalizedMetadata is a catalog result reduced to the fields the library
// persists, independent of which provider produced it.
type NormalizedMetadata struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Description   string   `json:"description,omitempty"`
	ISBN10        string   `json:"isbn_10,omitempty"`
	ISBN13        string   `json:"isbn_13,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	ThumbnailURL  string   `json:"thumbnail_url,omitempty"`
	Language      string   `json:"language,omitempty"`
	GoogleBooksID string   `json:"google_books_id,omitempty"`
	OpenLibraryID string   `json:"open_library_id,omitempty"`
	Source        string   `json:"source,omitempty"`
}

// Lookup is the catalog collaborator. EnrichByISBN returns nil when the ISBN
// is unknown to the catalog; SearchByTitle returns results best-match first
// and an empty slice when nothing matches. Neither condition is an error.
type Lookup interface {
	EnrichByISBN(ctx context.Context, isbn string) (*NormalizedMetadata, error)
	SearchByTitle(ctx context.Context, title, author string) ([]*NormalizedMetadata, error)
}

// BestMatch returns the first search result, or nil for an empty set.
func BestMatch(results []*NormalizedMetadata) *NormalizedMetadata {
	if len(results) == 0 {
		return nil
	}
	return results[0]
}
