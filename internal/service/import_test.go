package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

const handyLibCSV = `Title,Author,ISBN,Series,Publisher
"The Way of Kings (The Stormlight Archive #1)","Brandon Sanderson",9780765326355,"The Stormlight Archive",Tor
"Words of Radiance","Brandon Sanderson",9780765326362,"The Stormlight Archive #2",Tor
"Blue Exorcist, Vol. 1","Kazue Kato",9781421540320,"Blue Exorcist",VIZ
`

func TestImportHandyLibCSV(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	report, err := env.imports.ImportHandyLibCSV(ctx, handyLibCSV, "usr_1", ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Success)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)

	// Volume 1 inferred from the title's parenthetical, volume 2 from the
	// series field's "#2" marker, volume 1 default-free via the comma form.
	stormlight, err := env.store.FindSeriesByName(ctx, "The Stormlight Archive")
	require.NoError(t, err)
	links, err := env.store.ListSeriesBooks(ctx, stormlight.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, 1, links[0].VolumeNumber)
	assert.Equal(t, "The Way of Kings", links[0].VolumeName)
	assert.Equal(t, 2, links[1].VolumeNumber)

	exorcist, err := env.store.FindSeriesByName(ctx, "Blue Exorcist")
	require.NoError(t, err)
	exLinks, err := env.store.ListSeriesBooks(ctx, exorcist.ID)
	require.NoError(t, err)
	require.Len(t, exLinks, 1)
	assert.Equal(t, 1, exLinks[0].VolumeNumber)

	// Every imported edition landed in the user's library as owned.
	library, err := env.books.ListLibrary(ctx, "usr_1")
	require.NoError(t, err)
	assert.Len(t, library, 3)
	for _, ub := range library {
		assert.Equal(t, domain.OwnershipOwned, ub.Status)
	}
}

func TestImportPartialFailureIsolation(t *testing.T) {
	env := newTestEnv(t, nil)

	csv := strings.Join([]string{
		"Title,Author,ISBN",
		"Book One,Author A,9780000000001",
		"Book Two,Author B,9780000000002",
		",,",
		"Book Four,Author D,9780000000004",
		"Book Five,Author E,9780000000005",
	}, "\n")

	report, err := env.imports.ImportHandyLibCSV(context.Background(), csv, "usr_1", ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Success)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)
	assert.Contains(t, report.Errors[0].Message, "missing both ISBN and title")
}

func TestImportSeriesLinkFailureIsWarningNotRowFailure(t *testing.T) {
	env := newTestEnv(t, nil)

	// Both rows resolve to the same book (same ISBN) and name the same
	// series; the second link is a duplicate, which must surface as a
	// warning while the row still counts as imported.
	csv := strings.Join([]string{
		"Title,ISBN,Series",
		"Dune,9780441013593,Dune Saga",
		"Dune (Reprint),9780441013593,Dune Saga",
	}, "\n")

	report, err := env.imports.ImportHandyLibCSV(context.Background(), csv, "usr_1", ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, 2, report.Warnings[0].Row)
	assert.Contains(t, report.Warnings[0].Message, "Dune Saga")
}

func TestImportRaggedRowTolerated(t *testing.T) {
	env := newTestEnv(t, nil)

	// Second data row is short one column; the missing series defaults to
	// empty and the row still imports.
	csv := "Title,Author,Series\nBook A,Author A,Solo Series\nBook B,Author B"

	report, err := env.imports.ImportHandyLibCSV(context.Background(), csv, "usr_1", ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 0, report.Failed)
}

func TestImportDefaultsUnknownAuthor(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	report, err := env.imports.ImportHandyLibCSV(ctx, "Title,Author\nAnonymous Work,", "usr_1", ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Success)

	book, err := env.store.FindBookByTitleAuthor(ctx, "Anonymous Work", "")
	require.NoError(t, err)
	assert.Equal(t, "Unknown Author", book.PrimaryAuthor())
}

func TestImportStopsBetweenRows(t *testing.T) {
	env := newTestEnv(t, nil)

	csv := strings.Join([]string{
		"Title",
		"Book One",
		"Book Two",
		"Book Three",
	}, "\n")

	processed := 0
	report, err := env.imports.ImportHandyLibCSV(context.Background(), csv, "usr_1", ImportOptions{
		Progress:   func(*ImportReport) { processed++ },
		ShouldStop: func() bool { return processed >= 1 },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Success)
	assert.Equal(t, 1, processed)
}

func TestImportGenericCSVWithMapping(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	csv := strings.Join([]string{
		"book_name,writer,code",
		"Neuromancer,William Gibson,9780441569595",
		",,",
	}, "\n")

	report, err := env.imports.ImportGenericCSV(ctx, csv, "usr_1", ColumnMapping{
		"title":  "book_name",
		"author": "writer",
		"isbn":   "code",
	}, ImportOptions{DefaultStatus: domain.OwnershipWanted})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Success)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Errors[0].Row)

	book, err := env.store.FindBookByTitleAuthor(ctx, "Neuromancer", "William Gibson")
	require.NoError(t, err)
	assert.Equal(t, "William Gibson", book.PrimaryAuthor())

	library, err := env.books.ListLibrary(ctx, "usr_1")
	require.NoError(t, err)
	require.Len(t, library, 1)
	assert.Equal(t, domain.OwnershipWanted, library[0].Status)
}

func TestInferVolume(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		seriesField string
		wantSeries  string
		wantVolume  int
		wantName    string
	}{
		{
			name:        "title parenthetical wins when series matches",
			title:       "The Way of Kings (The Stormlight Archive #1)",
			seriesField: "The Stormlight Archive",
			wantSeries:  "The Stormlight Archive",
			wantVolume:  1,
			wantName:    "The Way of Kings",
		},
		{
			name:        "title parse ignored when series differs",
			title:       "Mistborn, Vol. 3",
			seriesField: "Wax and Wayne",
			wantSeries:  "Wax and Wayne",
			wantVolume:  1,
		},
		{
			name:        "series field hash marker",
			title:       "Words of Radiance",
			seriesField: "The Stormlight Archive #2",
			wantSeries:  "The Stormlight Archive",
			wantVolume:  2,
		},
		{
			name:        "series field book marker",
			title:       "The Great Hunt",
			seriesField: "The Wheel of Time, Book 2",
			wantSeries:  "The Wheel of Time",
			wantVolume:  2,
		},
		{
			name:        "series field vol marker",
			title:       "Something",
			seriesField: "One Piece Vol. 12",
			wantSeries:  "One Piece",
			wantVolume:  12,
		},
		{
			name:        "defaults to volume one",
			title:       "Standalone",
			seriesField: "Quiet Series",
			wantSeries:  "Quiet Series",
			wantVolume:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, volume, name := inferVolume(tt.title, tt.seriesField)
			assert.Equal(t, tt.wantSeries, series)
			assert.Equal(t, tt.wantVolume, volume)
			assert.Equal(t, tt.wantName, name)
		})
	}
}
