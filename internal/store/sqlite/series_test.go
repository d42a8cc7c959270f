package sqlite

import (
	"context"
	"testing"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

func newTestSeries(name string, totalVolumes int) *domain.Series {
	sr := &domain.Series{
		Name:         name,
		TotalVolumes: totalVolumes,
		Status:       domain.SeriesOngoing,
	}
	sr.ID = id.MustGenerate("sr")
	sr.InitTimestamps()
	return sr
}

func TestCreateFindSeriesCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sr := newTestSeries("One Piece", 0)
	if err := s.CreateSeries(ctx, sr); err != nil {
		t.Fatalf("create series: %v", err)
	}

	got, err := s.FindSeriesByName(ctx, "one piece")
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if got.ID != sr.ID {
		t.Errorf("got id %s, want %s", got.ID, sr.ID)
	}

	// A second series differing only in case is rejected.
	dup := newTestSeries("ONE PIECE", 0)
	if err := s.CreateSeries(ctx, dup); err != store.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestSeriesBookDuplicateLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sr := newTestSeries("Berserk", 0)
	if err := s.CreateSeries(ctx, sr); err != nil {
		t.Fatalf("create series: %v", err)
	}
	book := newTestBook("Berserk, Vol. 1", "Kentaro Miura")
	if err := s.CreateBook(ctx, book); err != nil {
		t.Fatalf("create book: %v", err)
	}

	link := &domain.SeriesBook{SeriesID: sr.ID, BookID: book.ID, VolumeNumber: 1}
	link.ID = id.MustGenerate("sb")
	link.InitTimestamps()
	if err := s.CreateSeriesBook(ctx, link); err != nil {
		t.Fatalf("create link: %v", err)
	}

	// Second link for the same pair must fail, even at another volume.
	dup := &domain.SeriesBook{SeriesID: sr.ID, BookID: book.ID, VolumeNumber: 2}
	dup.ID = id.MustGenerate("sb")
	dup.InitTimestamps()
	if err := s.CreateSeriesBook(ctx, dup); err != store.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	links, err := s.ListSeriesBooks(ctx, sr.ID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 1 {
		t.Errorf("expected exactly 1 link row, got %d", len(links))
	}
}

func TestSeriesVolumeUniqueSlot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sr := newTestSeries("Berserk", 0)
	if err := s.CreateSeries(ctx, sr); err != nil {
		t.Fatalf("create series: %v", err)
	}

	v := &domain.SeriesVolume{SeriesID: sr.ID, VolumeNumber: 1, Released: true}
	v.ID = id.MustGenerate("vol")
	v.InitTimestamps()
	if err := s.CreateSeriesVolume(ctx, v); err != nil {
		t.Fatalf("create volume: %v", err)
	}

	dup := &domain.SeriesVolume{SeriesID: sr.ID, VolumeNumber: 1}
	dup.ID = id.MustGenerate("vol")
	dup.InitTimestamps()
	if err := s.CreateSeriesVolume(ctx, dup); err != store.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestDeleteSeriesCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sr := newTestSeries("Berserk", 3)
	if err := s.CreateSeries(ctx, sr); err != nil {
		t.Fatalf("create series: %v", err)
	}
	book := newTestBook("Berserk, Vol. 1", "Kentaro Miura")
	if err := s.CreateBook(ctx, book); err != nil {
		t.Fatalf("create book: %v", err)
	}

	link := &domain.SeriesBook{SeriesID: sr.ID, BookID: book.ID, VolumeNumber: 1}
	link.ID = id.MustGenerate("sb")
	link.InitTimestamps()
	if err := s.CreateSeriesBook(ctx, link); err != nil {
		t.Fatalf("create link: %v", err)
	}
	v := &domain.SeriesVolume{SeriesID: sr.ID, VolumeNumber: 1, BookID: book.ID}
	v.ID = id.MustGenerate("vol")
	v.InitTimestamps()
	if err := s.CreateSeriesVolume(ctx, v); err != nil {
		t.Fatalf("create volume: %v", err)
	}

	// One delete against the series row; children go via cascade.
	if err := s.DeleteSeries(ctx, sr.ID); err != nil {
		t.Fatalf("delete series: %v", err)
	}

	var links, volumes int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM series_books WHERE series_id = ?`, sr.ID).Scan(&links); err != nil {
		t.Fatal(err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM series_volumes WHERE series_id = ?`, sr.ID).Scan(&volumes); err != nil {
		t.Fatal(err)
	}
	if links != 0 || volumes != 0 {
		t.Errorf("cascade left links=%d volumes=%d", links, volumes)
	}

	// The book itself survives as shared metadata.
	if _, err := s.GetBook(ctx, book.ID); err != nil {
		t.Errorf("book should survive series delete: %v", err)
	}
}

func TestListVolumeOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sr := newTestSeries("Berserk", 2)
	if err := s.CreateSeries(ctx, sr); err != nil {
		t.Fatalf("create series: %v", err)
	}
	book := newTestBook("Berserk, Vol. 1", "Kentaro Miura")
	if err := s.CreateBook(ctx, book); err != nil {
		t.Fatalf("create book: %v", err)
	}
	ed := &domain.Edition{BookID: book.ID, ISBN13: "9781593070205", CoverURL: "https://covers.example/b1.jpg"}
	ed.ID = id.MustGenerate("ed")
	ed.InitTimestamps()
	if err := s.CreateEdition(ctx, ed); err != nil {
		t.Fatalf("create edition: %v", err)
	}
	ub := &domain.UserBook{UserID: "user-1", EditionID: ed.ID, Status: domain.OwnershipOwned}
	ub.ID = id.MustGenerate("ub")
	ub.InitTimestamps()
	if err := s.CreateUserBook(ctx, ub); err != nil {
		t.Fatalf("create user_book: %v", err)
	}

	for n, bookID := range map[int]string{1: book.ID, 2: ""} {
		v := &domain.SeriesVolume{SeriesID: sr.ID, VolumeNumber: n, BookID: bookID, Released: true}
		v.ID = id.MustGenerate("vol")
		v.InitTimestamps()
		if err := s.CreateSeriesVolume(ctx, v); err != nil {
			t.Fatalf("create volume %d: %v", n, err)
		}
	}

	rows, err := s.ListVolumeOwnership(ctx, sr.ID, "user-1")
	if err != nil {
		t.Fatalf("list ownership: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if rows[0].VolumeNumber != 1 || rows[0].Status != domain.OwnershipOwned {
		t.Errorf("volume 1: %+v", rows[0])
	}
	if rows[0].EditionCoverURL != "https://covers.example/b1.jpg" {
		t.Errorf("volume 1 cover: %q", rows[0].EditionCoverURL)
	}
	if rows[1].VolumeNumber != 2 || rows[1].Status != "" || rows[1].EditionID != "" {
		t.Errorf("volume 2 should be unowned: %+v", rows[1])
	}

	// A different user owns nothing.
	rows, err = s.ListVolumeOwnership(ctx, sr.ID, "user-2")
	if err != nil {
		t.Fatalf("list ownership user-2: %v", err)
	}
	if rows[0].Status != "" {
		t.Errorf("user-2 should not own volume 1: %+v", rows[0])
	}
}
