package metadata

import (
	"context"
	"strings"
)

// Static is a Lookup backed by a fixed in-memory record set. It serves tests
// and offline mode, where imports must still succeed using manual-entry data.
type Static struct {
	byISBN  map[string]*NormalizedMetadata
	records []*NormalizedMetadata
}

// NewStatic builds a Static lookup. Records are indexed by both ISBN-10 and
// ISBN-13 where present.
func NewStatic(records ...*NormalizedMetadata) *Static {
	s := &Static{
		byISBN:  make(map[string]*NormalizedMetadata, len(records)*2),
		records: records,
	}
	for _, r := range records {
		if r.ISBN10 != "" {
			s.byISBN[r.ISBN10] = r
		}
		if r.ISBN13 != "" {
			s.byISBN[r.ISBN13] = r
		}
	}
	return s
}

func (s *Static) EnrichByISBN(_ context.Context, isbn string) (*NormalizedMetadata, error) {
	return s.byISBN[isbn], nil
}

// SearchByTitle matches case-insensitively on title substring, optionally
// narrowed by author.
func (s *Static) SearchByTitle(_ context.Context, title, author string) ([]*NormalizedMetadata, error) {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return nil, nil
	}
	author = strings.ToLower(strings.TrimSpace(author))

	var results []*NormalizedMetadata
	for _, r := range s.records {
		if !strings.Contains(strings.ToLower(r.Title), title) {
			continue
		}
		if author != "" && !matchesAuthor(r.Authors, author) {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

func matchesAuthor(authors []string, want string) bool {
	for _, a := range authors {
		if strings.Contains(strings.ToLower(a), want) {
			return true
		}
	}
	return false
}

// Disabled is a Lookup that never matches. Used when catalog lookups are
// turned off in config.
type Disabled struct{}

func (Disabled) EnrichByISBN(context.Context, string) (*NormalizedMetadata, error) {
	return nil, nil
}

func (Disabled) SearchByTitle(context.Context, string, string) ([]*NormalizedMetadata, error) {
	return nil, nil
}
