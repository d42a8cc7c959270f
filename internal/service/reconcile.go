package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	apperrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/shelfmark/shelfmark-server/internal/store/sqlite"
)

// ReconcileService maintains the series_volumes table: one slot per expected
// volume, derived from a series' declared total and from the books actually
// linked. After any of its operations, every series_books row has exactly one
// series_volumes row at the same volume number carrying the same book id.
type ReconcileService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewReconcileService creates a new reconciliation service.
func NewReconcileService(store *sqlite.Store, logger *slog.Logger) *ReconcileService {
	return &ReconcileService{store: store, logger: logger}
}

// ReconcileReport summarizes an administrative sweep.
type ReconcileReport struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// PopulateExpectedVolumes ensures a slot exists for every volume number
// 1..TotalVolumes, then links owned books into their slots. Idempotent:
// existing slots are left untouched, so it is safe to call on every series
// update. A missing series is a logged no-op since callers invoke this
// speculatively.
func (s *ReconcileService) PopulateExpectedVolumes(ctx context.Context, seriesID string) error {
	series, err := s.store.GetSeries(ctx, seriesID)
	if err != nil {
		if err == store.ErrNotFound {
			s.logger.Info("populate volumes: series not found, skipping", "series_id", seriesID)
			return nil
		}
		return fmt.Errorf("get series: %w", err)
	}

	if series.TotalVolumes > 0 {
		for n := 1; n <= series.TotalVolumes; n++ {
			_, err := s.store.GetSeriesVolume(ctx, seriesID, n)
			if err == nil {
				continue
			}
			if err != store.ErrNotFound {
				return fmt.Errorf("get volume %d: %w", n, err)
			}

			v := &domain.SeriesVolume{
				SeriesID:     seriesID,
				VolumeNumber: n,
				Released:     true,
				Announced:    false,
			}
			v.ID = id.MustGenerate("vol")
			v.InitTimestamps()
			if err := s.store.CreateSeriesVolume(ctx, v); err != nil && err != store.ErrAlreadyExists {
				return fmt.Errorf("create volume %d: %w", n, err)
			}
		}
	}

	// Runs whether or not a total is declared: this is what populates slots
	// for series known only through their linked books.
	return s.LinkOwnedBooksToVolumes(ctx, seriesID)
}

// LinkOwnedBooksToVolumes walks every book linked to the series and
// guarantees a volume slot at its volume number carries that book. Existing
// slots are updated in place; missing ones are created.
func (s *ReconcileService) LinkOwnedBooksToVolumes(ctx context.Context, seriesID string) error {
	links, err := s.store.ListSeriesBooks(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("list series books: %w", err)
	}

	for _, link := range links {
		book, err := s.store.GetBook(ctx, link.BookID)
		if err != nil {
			if err == store.ErrNotFound {
				s.logger.Error("linked book missing during reconciliation",
					"series_id", seriesID, "book_id", link.BookID)
				continue
			}
			return fmt.Errorf("get book %s: %w", link.BookID, err)
		}

		if err := s.fillVolumeSlot(ctx, seriesID, link.VolumeNumber, link.VolumeName, book); err != nil {
			return err
		}
	}
	return nil
}

// ReconcileAfterBookAdded is the single-volume hot path invoked synchronously
// after every successful series link. A missing book here means the caller's
// just-resolved book vanished; log loudly and skip rather than fail the link.
func (s *ReconcileService) ReconcileAfterBookAdded(ctx context.Context, seriesID, bookID string, volumeNumber int, volumeName string) error {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if err == store.ErrNotFound {
			s.logger.Error("book missing immediately after series link",
				"series_id", seriesID, "book_id", bookID, "volume", volumeNumber)
			return nil
		}
		return fmt.Errorf("get book: %w", err)
	}

	return s.fillVolumeSlot(ctx, seriesID, volumeNumber, volumeName, book)
}

// fillVolumeSlot updates the slot at volumeNumber to carry the book, or
// creates the slot if the series has no declared total and this number has
// not been seen. Title prefers the link's volume name over the book's title.
func (s *ReconcileService) fillVolumeSlot(ctx context.Context, seriesID string, volumeNumber int, volumeName string, book *domain.Book) error {
	title := volumeName
	if title == "" {
		title = book.Title
	}
	cover := s.coverForBook(ctx, book.ID)

	v, err := s.store.GetSeriesVolume(ctx, seriesID, volumeNumber)
	switch {
	case err == store.ErrNotFound:
		v = &domain.SeriesVolume{
			SeriesID:     seriesID,
			VolumeNumber: volumeNumber,
			Title:        title,
			BookID:       book.ID,
			CoverURL:     cover,
			Released:     true,
		}
		v.ID = id.MustGenerate("vol")
		v.InitTimestamps()
		if err := s.store.CreateSeriesVolume(ctx, v); err != nil && err != store.ErrAlreadyExists {
			return fmt.Errorf("create volume %d: %w", volumeNumber, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("get volume %d: %w", volumeNumber, err)
	}

	v.BookID = book.ID
	v.Title = title
	if v.CoverURL == "" {
		v.CoverURL = cover
	}
	v.Touch()
	if err := s.store.UpdateSeriesVolume(ctx, v); err != nil {
		return fmt.Errorf("update volume %d: %w", volumeNumber, err)
	}
	return nil
}

// coverForBook returns the first edition cover for a book, or empty string.
func (s *ReconcileService) coverForBook(ctx context.Context, bookID string) string {
	editions, err := s.store.ListEditionsByBook(ctx, bookID)
	if err != nil {
		s.logger.Warn("list editions for cover", "book_id", bookID, "error", err)
		return ""
	}
	for _, e := range editions {
		if e.CoverURL != "" {
			return e.CoverURL
		}
	}
	return ""
}

// ReconcileAllSeries runs PopulateExpectedVolumes over every series.
// One bad series is counted, not fatal; the sweep always completes.
func (s *ReconcileService) ReconcileAllSeries(ctx context.Context) (*ReconcileReport, error) {
	all, err := s.store.ListAllSeries(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "list series")
	}

	report := &ReconcileReport{}
	for _, series := range all {
		if err := s.PopulateExpectedVolumes(ctx, series.ID); err != nil {
			s.logger.Error("reconcile series failed",
				"series_id", series.ID, "name", series.Name, "error", err)
			report.Errors++
			continue
		}
		report.Processed++
	}
	return report, nil
}
