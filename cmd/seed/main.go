// Package main provides a tool to seed the database with sample library data.
//
// This creates a handful of books, series links, and ownership rows so the
// API and search features have something to show against a fresh database.
//
// Usage:
//
//	DATA_PATH=~/shelfmark go run ./cmd/seed
//	DATA_PATH=~/shelfmark go run ./cmd/seed --user alice
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/metadata"
	"github.com/shelfmark/shelfmark-server/internal/service"
	"github.com/shelfmark/shelfmark-server/internal/store/sqlite"
)

var userID = flag.String("user", "local", "User to receive the seeded library")

type seedBook struct {
	isbn    string
	title   string
	authors []string
	series  string
	volume  int
	status  domain.OwnershipStatus
}

var seedBooks = []seedBook{
	{"9780765326355", "The Way of Kings", []string{"Brandon Sanderson"}, "The Stormlight Archive", 1, domain.OwnershipOwned},
	{"9780765326362", "Words of Radiance", []string{"Brandon Sanderson"}, "The Stormlight Archive", 2, domain.OwnershipOwned},
	{"9780765326386", "Oathbringer", []string{"Brandon Sanderson"}, "The Stormlight Archive", 3, domain.OwnershipWanted},
	{"9781421540320", "Blue Exorcist, Vol. 1", []string{"Kazue Kato"}, "Blue Exorcist", 1, domain.OwnershipOwned},
	{"9781421540337", "Blue Exorcist, Vol. 2", []string{"Kazue Kato"}, "Blue Exorcist", 2, domain.OwnershipOwned},
	{"9780441013593", "Dune", []string{"Frank Herbert"}, "", 0, domain.OwnershipOwned},
	{"9781250318075", "Gideon the Ninth", []string{"Tamsyn Muir"}, "The Locked Tomb", 1, domain.OwnershipOwned},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/shelfmark")
	}
	dbPath := filepath.Join(dataPath, "shelfmark.db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	recon := service.NewReconcileService(st, logger)
	books := service.NewBookService(st, metadata.Disabled{}, logger)
	series := service.NewSeriesService(st, recon, logger)

	ctx := context.Background()
	seeded := 0

	for _, sb := range seedBooks {
		resolved, _, err := books.AddToLibrary(ctx, *userID, service.ResolveInput{
			ISBN:    sb.isbn,
			Title:   sb.title,
			Authors: sb.authors,
		}, sb.status)
		if err != nil {
			log.Printf("Failed to add %q: %v", sb.title, err)
			continue
		}

		if sb.series != "" {
			sr, err := series.FindOrCreateSeries(ctx, sb.series, "")
			if err != nil {
				log.Printf("Failed to resolve series %q: %v", sb.series, err)
				continue
			}
			_, err = series.AddBookToSeries(ctx, service.AddBookInput{
				SeriesID:     sr.ID,
				BookID:       resolved.Book.ID,
				VolumeNumber: sb.volume,
			})
			if err != nil {
				// Re-running the seeder hits existing links; not a failure.
				log.Printf("Series link for %q: %v", sb.title, err)
			}
		}

		seeded++
		fmt.Printf("  %s (%s)\n", sb.title, sb.status)
	}

	fmt.Printf("\nSeeded %d books for user %q\n", seeded, *userID)
}
