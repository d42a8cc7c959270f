// Package search provides full-text search over the catalog using Bleve.
// Books and series are indexed as unified documents with type discrimination
// so one query serves the library's search box.
package search

import (
	"strconv"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeBook   DocType = "book"
	DocTypeSeries DocType = "series"
)

// SearchDocument is the unified document structure for the Bleve index.
//
// Author and series names are denormalized into book documents so a single
// query covers everything users type into the search box; the storage cost
// is negligible at personal-library scale.
type SearchDocument struct {
	ID   string  `json:"id"`
	Type DocType `json:"type"`

	// Book: title. Series: name.
	Name string `json:"name"`

	// Book-specific fields (empty for series documents).
	Subtitle    string   `json:"subtitle,omitempty"`
	Description string   `json:"description,omitempty"`
	Author      string   `json:"author,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	SeriesName  string   `json:"series_name,omitempty"`
	Categories  []string `json:"categories,omitempty"`

	// Numeric fields for range queries and sorting.
	PageCount   int `json:"page_count,omitempty"`
	PublishYear int `json:"publish_year,omitempty"`
	VolumeCount int `json:"volume_count,omitempty"` // series only

	// Timestamps for sorting, unix millis.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve would otherwise index Go's capitalized struct field names, which
// would not match the mapping.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"type":       string(d.Type),
		"name":       d.Name,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.Subtitle != "" {
		m["subtitle"] = d.Subtitle
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.Publisher != "" {
		m["publisher"] = d.Publisher
	}
	if d.SeriesName != "" {
		m["series_name"] = d.SeriesName
	}
	if len(d.Categories) > 0 {
		m["categories"] = d.Categories
	}
	if d.PageCount > 0 {
		m["page_count"] = d.PageCount
	}
	if d.PublishYear > 0 {
		m["publish_year"] = d.PublishYear
	}
	if d.VolumeCount > 0 {
		m["volume_count"] = d.VolumeCount
	}

	return m
}

// BookToSearchDocument converts a domain Book to a SearchDocument.
// The series name is passed in by the caller; the search package does not
// depend on the store.
func BookToSearchDocument(book *domain.Book, seriesName string) *SearchDocument {
	doc := &SearchDocument{
		ID:          book.ID,
		Type:        DocTypeBook,
		Name:        book.Title,
		Subtitle:    book.Subtitle,
		Description: book.Description,
		Author:      book.PrimaryAuthor(),
		Publisher:   book.Publisher,
		SeriesName:  seriesName,
		Categories:  book.Categories,
		PageCount:   book.PageCount,
		CreatedAt:   book.CreatedAt.UnixMilli(),
		UpdatedAt:   book.UpdatedAt.UnixMilli(),
	}

	// Published dates arrive as "2006", "2006-01", or "2006-01-02".
	if len(book.PublishedDate) >= 4 {
		if year, err := strconv.Atoi(book.PublishedDate[:4]); err == nil {
			doc.PublishYear = year
		}
	}

	return doc
}

// SeriesToSearchDocument converts a domain Series to a SearchDocument.
func SeriesToSearchDocument(s *domain.Series) *SearchDocument {
	return &SearchDocument{
		ID:          s.ID,
		Type:        DocTypeSeries,
		Name:        s.Name,
		Description: s.Description,
		VolumeCount: s.TotalVolumes,
		CreatedAt:   s.CreatedAt.UnixMilli(),
		UpdatedAt:   s.UpdatedAt.UnixMilli(),
	}
}
