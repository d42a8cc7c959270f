package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	apperrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/metadata"
)

func TestResolveOrCreateRequiresIdentifier(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.books.ResolveOrCreate(context.Background(), ResolveInput{})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestResolveOrCreateManualFallback(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	resolved, err := env.books.ResolveOrCreate(ctx, ResolveInput{
		ISBN:      "978-1-250-31807-5",
		Title:     "Gideon the Ninth",
		Authors:   []string{"Tamsyn Muir"},
		Publisher: "Tor",
		PageCount: 448,
	})
	require.NoError(t, err)
	assert.True(t, resolved.Created)
	assert.Equal(t, "Gideon the Ninth", resolved.Book.Title)
	assert.Equal(t, "Tamsyn Muir", resolved.Book.PrimaryAuthor())
	assert.Equal(t, "Tor", resolved.Book.Publisher)
	assert.Equal(t, "978-1-250-31807-5", resolved.Edition.ISBN13)
	assert.Equal(t, 448, resolved.Edition.Pages)
}

func TestResolveOrCreateReusesEditionByISBN(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.books.ResolveOrCreate(ctx, ResolveInput{
		ISBN:  "9781250318075",
		Title: "Gideon the Ninth",
	})
	require.NoError(t, err)

	// Same ISBN, hyphenated this time; resolution must land on the same
	// edition without creating anything.
	second, err := env.books.ResolveOrCreate(ctx, ResolveInput{
		ISBN:  "978-1-250-31807-5",
		Title: "Gideon the Ninth (some reseller suffix)",
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Book.ID, second.Book.ID)
	assert.Equal(t, first.Edition.ID, second.Edition.ID)
}

func TestResolveOrCreateMatchesTitleAuthorCaseInsensitive(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.books.ResolveOrCreate(ctx, ResolveInput{
		Title:   "The Fifth Season",
		Authors: []string{"N. K. Jemisin"},
	})
	require.NoError(t, err)

	second, err := env.books.ResolveOrCreate(ctx, ResolveInput{
		Title:   "the fifth season",
		Authors: []string{"N. K. Jemisin"},
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Book.ID, second.Book.ID)
}

func TestResolveOrCreateEnrichment(t *testing.T) {
	lookup := metadata.NewStatic(&metadata.NormalizedMetadata{
		Title:         "Project Hail Mary",
		Authors:       []string{"Andy Weir"},
		Publisher:     "Ballantine Books",
		PublishedDate: "2021-05-04",
		Description:   "<p>A lone astronaut must save the earth.</p>",
		ISBN13:        "9780593135204",
		PageCount:     496,
		CoverURL:      "https://covers.example/phm.jpg",
		GoogleBooksID: "gb123",
		Source:        "googlebooks",
	})
	env := newTestEnv(t, lookup)
	ctx := context.Background()

	resolved, err := env.books.ResolveOrCreate(ctx, ResolveInput{ISBN: "9780593135204"})
	require.NoError(t, err)
	assert.True(t, resolved.Created)
	assert.Equal(t, "Project Hail Mary", resolved.Book.Title)
	assert.Equal(t, "Andy Weir", resolved.Book.PrimaryAuthor())
	assert.Equal(t, "gb123", resolved.Book.GoogleBooksID)
	assert.Equal(t, 496, resolved.Book.PageCount)
	// HTML descriptions come back as markdown-ish plain text.
	assert.NotContains(t, resolved.Book.Description, "<p>")
	assert.Contains(t, resolved.Book.Description, "lone astronaut")
	assert.Equal(t, "https://covers.example/phm.jpg", resolved.Edition.CoverURL)
}

func TestResolveOrCreateDedupesByExternalID(t *testing.T) {
	lookup := metadata.NewStatic(
		&metadata.NormalizedMetadata{
			Title:         "Project Hail Mary",
			ISBN13:        "9780593135204",
			GoogleBooksID: "gb123",
		},
		&metadata.NormalizedMetadata{
			Title:         "Project Hail Mary",
			ISBN10:        "0593135202",
			GoogleBooksID: "gb123",
		},
	)
	env := newTestEnv(t, lookup)
	ctx := context.Background()

	first, err := env.books.ResolveOrCreate(ctx, ResolveInput{ISBN: "9780593135204"})
	require.NoError(t, err)

	// A different edition of the same provider record folds into the
	// existing book rather than creating a second one.
	second, err := env.books.ResolveOrCreate(ctx, ResolveInput{ISBN: "0593135202"})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Book.ID, second.Book.ID)
	assert.NotEqual(t, first.Edition.ID, second.Edition.ID)
}

func TestAddToLibraryUpsertsOwnership(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	const userID = "usr_1"

	resolved, ub, err := env.books.AddToLibrary(ctx, userID, ResolveInput{
		Title: "Piranesi",
	}, domain.OwnershipWanted)
	require.NoError(t, err)
	assert.Equal(t, domain.OwnershipWanted, ub.Status)
	assert.Nil(t, ub.AcquiredAt)

	// Re-adding the same edition flips status in place.
	_, again, err := env.books.AddToLibrary(ctx, userID, ResolveInput{
		Title: "Piranesi",
	}, domain.OwnershipOwned)
	require.NoError(t, err)
	assert.Equal(t, ub.ID, again.ID)
	assert.Equal(t, domain.OwnershipOwned, again.Status)

	library, err := env.books.ListLibrary(ctx, userID)
	require.NoError(t, err)
	require.Len(t, library, 1)
	assert.Equal(t, resolved.Edition.ID, library[0].EditionID)
}

func TestRemoveFromLibraryKeepsBook(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	const userID = "usr_1"

	resolved, _, err := env.books.AddToLibrary(ctx, userID, ResolveInput{
		Title: "Annihilation",
	}, domain.OwnershipOwned)
	require.NoError(t, err)

	require.NoError(t, env.books.RemoveFromLibrary(ctx, userID, resolved.Edition.ID))

	library, err := env.books.ListLibrary(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, library)

	// The catalog record persists as shared metadata.
	_, err = env.books.GetBook(ctx, resolved.Book.ID)
	assert.NoError(t, err)

	err = env.books.RemoveFromLibrary(ctx, userID, resolved.Edition.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateOwnershipProgress(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	const userID = "usr_1"

	resolved, _, err := env.books.AddToLibrary(ctx, userID, ResolveInput{
		Title:     "A Memory Called Empire",
		PageCount: 462,
	}, domain.OwnershipOwned)
	require.NoError(t, err)

	page := 120
	notes := "slow start, picks up"
	ub, err := env.books.UpdateOwnership(ctx, userID, resolved.Edition.ID, UpdateOwnershipInput{
		CurrentPage: &page,
		Notes:       &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, 120, ub.CurrentPage)
	assert.Equal(t, "slow start, picks up", ub.Notes)

	bad := -1
	_, err = env.books.UpdateOwnership(ctx, userID, resolved.Edition.ID, UpdateOwnershipInput{
		CurrentPage: &bad,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}
