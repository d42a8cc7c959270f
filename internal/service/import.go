package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shelfmark/shelfmark-server/internal/csvx"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/titleparse"
)

// seriesCacheSize bounds the per-run series cache. A HandyLib export rarely
// names more than a few hundred distinct series.
const seriesCacheSize = 256

// HandyLib exports are inconsistent about header casing across versions, so
// each logical field is tried under several exact spellings.
var (
	isbnAliases    = []string{"ISBN", "isbn", "ISBN13", "isbn13", "ISBN-13", "EAN"}
	titleAliases   = []string{"Title", "title", "TITLE"}
	authorAliases  = []string{"Author", "Authors", "author", "authors", "Creator"}
	seriesAliases  = []string{"Series", "series", "SERIES"}
	volumeAliases  = []string{"Volume", "volume", "Vol", "vol"}
	pubAliases     = []string{"Publisher", "publisher"}
	pubDateAliases = []string{"Published", "published", "PublishedDate", "Publication Date", "Year"}
	pagesAliases   = []string{"Pages", "pages", "PageCount"}
	summaryAliases = []string{"Summary", "summary", "Description", "description", "Comments"}
	formatAliases  = []string{"Format", "format", "Binding"}
	coverAliases   = []string{"Cover", "cover", "Image", "CoverURL"}
	genreAliases   = []string{"Genre", "Genres", "genre", "Categories", "Tags"}
)

// Volume-number fallback patterns run against the series field itself when
// the title parser finds nothing: "One Piece #3", "One Piece Book 3",
// "One Piece Vol. 3". The matched marker is stripped from the series name.
var seriesFieldVolumePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*?)\s*#(\d+)\s*$`),
	regexp.MustCompile(`(?i)^(.*?)[,\s]+book\s+(\d+)\s*$`),
	regexp.MustCompile(`(?i)^(.*?)[,\s]+vol(?:\.|ume)?\s*(\d+)\s*$`),
}

// ImportReport is the complete outcome of one CSV import run. It is always
// returned in full, even when every row failed; the caller renders the error
// list.
type ImportReport struct {
	Success  int                     `json:"success"`
	Failed   int                     `json:"failed"`
	Errors   []domain.ImportRowError `json:"errors,omitempty"`
	Warnings []domain.ImportWarning  `json:"warnings,omitempty"`
}

// ProgressFunc receives running totals after each processed row.
type ProgressFunc func(report *ImportReport)

// StopFunc is polled once per row; returning true breaks out of the loop
// before the next row is processed.
type StopFunc func() bool

// ImportOptions tunes one import run. All fields are optional.
type ImportOptions struct {
	Progress   ProgressFunc
	ShouldStop StopFunc
	// DefaultStatus is the ownership status applied to imported editions
	// (default: owned).
	DefaultStatus domain.OwnershipStatus
}

// ColumnMapping maps logical field names to CSV header names for generic
// imports. Recognized keys: isbn, title, author, publisher, published,
// pages, description, format, cover.
type ColumnMapping map[string]string

// ImportService orchestrates CSV imports: parse, per-row book ingestion,
// series resolution and linking. Rows are processed strictly sequentially;
// series find-or-create is a read-then-maybe-write sequence that is not safe
// under concurrent rows naming the same new series.
type ImportService struct {
	books      *BookService
	series     *SeriesService
	rowTimeout time.Duration
	logger     *slog.Logger
}

// NewImportService creates a new import service. rowTimeout bounds a single
// row's work, metadata lookup included; zero disables the per-row deadline.
func NewImportService(books *BookService, series *SeriesService, rowTimeout time.Duration, logger *slog.Logger) *ImportService {
	return &ImportService{
		books:      books,
		series:     series,
		rowTimeout: rowTimeout,
		logger:     logger,
	}
}

// ImportHandyLibCSV imports a HandyLib export for the given user. Each row is
// independent: a failed row is recorded and the loop continues. A book that
// imports but fails to link to its series still counts as a success, with the
// link failure surfaced as a warning.
func (s *ImportService) ImportHandyLibCSV(ctx context.Context, csvText, userID string, opts ImportOptions) (*ImportReport, error) {
	records, csvWarnings := csvx.Parse(csvText)

	report := &ImportReport{}
	for _, w := range csvWarnings {
		report.Warnings = append(report.Warnings, domain.ImportWarning{Row: w.Row, Message: w.Message})
	}

	// Series resolved once per run; repeated rows for the same series skip
	// the registry round trip.
	seriesCache, err := lru.New[string, *domain.Series](seriesCacheSize)
	if err != nil {
		return nil, fmt.Errorf("series cache: %w", err)
	}

	for i, rec := range records {
		if opts.ShouldStop != nil && opts.ShouldStop() {
			s.logger.Info("import stopped", "processed", i, "total", len(records))
			break
		}

		rowNum := i + 1
		if err := s.importRow(ctx, rec, rowNum, userID, opts.DefaultStatus, seriesCache, report); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, domain.ImportRowError{
				Row:     rowNum,
				Message: err.Error(),
				Data:    rec,
			})
			s.logger.Warn("import row failed", "row", rowNum, "error", err)
		} else {
			report.Success++
		}

		if opts.Progress != nil {
			opts.Progress(report)
		}
	}
	return report, nil
}

func (s *ImportService) importRow(ctx context.Context, rec csvx.Record, rowNum int, userID string, status domain.OwnershipStatus, seriesCache *lru.Cache[string, *domain.Series], report *ImportReport) error {
	if s.rowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.rowTimeout)
		defer cancel()
	}

	isbn := rec.Get(isbnAliases...)
	title := rec.Get(titleAliases...)
	if isbn == "" && title == "" {
		return fmt.Errorf("missing both ISBN and title")
	}

	resolved, _, err := s.books.AddToLibrary(ctx, userID, ResolveInput{
		ISBN:          isbn,
		Title:         title,
		Authors:       splitAuthors(rec.Get(authorAliases...)),
		Publisher:     rec.Get(pubAliases...),
		PublishedDate: rec.Get(pubDateAliases...),
		Description:   rec.Get(summaryAliases...),
		PageCount:     parseIntField(rec.Get(pagesAliases...)),
		Categories:    splitList(rec.Get(genreAliases...)),
		Format:        rec.Get(formatAliases...),
		CoverURL:      rec.Get(coverAliases...),
	}, status)
	if err != nil {
		return err
	}

	seriesField := rec.Get(seriesAliases...)
	if seriesField == "" {
		return nil
	}
	if err := s.linkSeries(ctx, rec, resolved.Book, seriesField, seriesCache); err != nil {
		// The book itself imported; a failed series link is a warning,
		// not a row failure.
		s.logger.Warn("series link failed", "row", rowNum, "series", seriesField, "book_id", resolved.Book.ID, "error", err)
		report.Warnings = append(report.Warnings, domain.ImportWarning{
			Row:     rowNum,
			Message: fmt.Sprintf("imported but not linked to series %q: %v", seriesField, err),
		})
	}
	return nil
}

func (s *ImportService) linkSeries(ctx context.Context, rec csvx.Record, book *domain.Book, seriesField string, cache *lru.Cache[string, *domain.Series]) error {
	seriesName, volumeNumber, volumeName := inferVolume(book.Title, seriesField)
	if v := parseIntField(rec.Get(volumeAliases...)); v > 0 {
		volumeNumber = v
	}

	cacheKey := strings.ToLower(seriesName)
	series, ok := cache.Get(cacheKey)
	if !ok {
		var err error
		series, err = s.series.FindOrCreateSeries(ctx, seriesName, "")
		if err != nil {
			return err
		}
		cache.Add(cacheKey, series)
	}

	_, err := s.series.AddBookToSeries(ctx, AddBookInput{
		SeriesID:     series.ID,
		BookID:       book.ID,
		VolumeNumber: volumeNumber,
		VolumeName:   volumeName,
	})
	return err
}

// inferVolume decides which series name and volume number a row implies. The
// title parser runs first; when it agrees the title belongs to the spreadsheet's
// series, its result wins. Otherwise the series field itself is checked for a
// trailing volume marker. Default is volume 1.
func inferVolume(title, seriesField string) (seriesName string, volumeNumber int, volumeName string) {
	seriesName = strings.TrimSpace(seriesField)
	volumeNumber = 1

	if parsed := titleparse.Parse(title); parsed != nil && titleparse.AreSeriesSimilar(parsed.SeriesName, seriesName) {
		return seriesName, parsed.VolumeNumber, parsed.VolumeName
	}

	for _, re := range seriesFieldVolumePatterns {
		m := re.FindStringSubmatch(seriesName)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		return name, n, ""
	}
	return seriesName, volumeNumber, ""
}

// ImportGenericCSV imports arbitrary CSV data using a caller-supplied column
// mapping. Rows have the same failure isolation as the HandyLib path, but no
// series linking or title parsing happens.
func (s *ImportService) ImportGenericCSV(ctx context.Context, csvText, userID string, mapping ColumnMapping, opts ImportOptions) (*ImportReport, error) {
	records, csvWarnings := csvx.Parse(csvText)

	report := &ImportReport{}
	for _, w := range csvWarnings {
		report.Warnings = append(report.Warnings, domain.ImportWarning{Row: w.Row, Message: w.Message})
	}

	col := func(rec csvx.Record, field string) string {
		if header, ok := mapping[field]; ok {
			return rec[header]
		}
		return ""
	}

	for i, rec := range records {
		if opts.ShouldStop != nil && opts.ShouldStop() {
			s.logger.Info("import stopped", "processed", i, "total", len(records))
			break
		}

		rowNum := i + 1
		err := func() error {
			rowCtx := ctx
			if s.rowTimeout > 0 {
				var cancel context.CancelFunc
				rowCtx, cancel = context.WithTimeout(ctx, s.rowTimeout)
				defer cancel()
			}

			isbn := col(rec, "isbn")
			title := col(rec, "title")
			if isbn == "" && title == "" {
				return fmt.Errorf("missing both ISBN and title")
			}
			_, _, err := s.books.AddToLibrary(rowCtx, userID, ResolveInput{
				ISBN:          isbn,
				Title:         title,
				Authors:       splitAuthors(col(rec, "author")),
				Publisher:     col(rec, "publisher"),
				PublishedDate: col(rec, "published"),
				Description:   col(rec, "description"),
				PageCount:     parseIntField(col(rec, "pages")),
				Format:        col(rec, "format"),
				CoverURL:      col(rec, "cover"),
			}, opts.DefaultStatus)
			return err
		}()
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, domain.ImportRowError{
				Row:     rowNum,
				Message: err.Error(),
				Data:    rec,
			})
			s.logger.Warn("import row failed", "row", rowNum, "error", err)
		} else {
			report.Success++
		}

		if opts.Progress != nil {
			opts.Progress(report)
		}
	}
	return report, nil
}

// StartImport registers a job for the import and runs it on its own
// goroutine. Progress flows into the job registry after each row; the row
// loop polls the registry for pause and cancel signals. The returned job is
// a snapshot taken before the run starts.
func (s *ImportService) StartImport(jobs *JobManager, csvText, userID string, opts ImportOptions) *domain.ImportJob {
	records, _ := csvx.Parse(csvText)
	job := jobs.CreateJob(userID, len(records))
	snapshot := *job

	go func() {
		jobs.markRunning(job.ID)
		opts.Progress = func(report *ImportReport) {
			jobs.recordProgress(job.ID, report)
		}
		opts.ShouldStop = func() bool {
			return jobs.shouldStop(job.ID)
		}

		report, err := s.ImportHandyLibCSV(context.Background(), csvText, userID, opts)
		if report != nil {
			jobs.recordProgress(job.ID, report)
		}
		if err != nil {
			s.logger.Error("import run failed", "job_id", job.ID, "error", err)
		}
		jobs.finishJob(job.ID, err)
	}()

	return &snapshot
}

// splitAuthors splits a multi-author field on commas or semicolons, defaulting
// to a single unknown author when the field is empty.
func splitAuthors(field string) []string {
	parts := splitList(field)
	if len(parts) == 0 {
		return []string{"Unknown Author"}
	}
	return parts
}

func splitList(field string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(field, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntField(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
