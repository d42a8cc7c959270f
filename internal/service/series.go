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
	"github.com/shelfmark/shelfmark-server/internal/validation"
)

// SeriesService manages the series registry: creation, case-insensitive
// find-or-create, book linking, and the per-user series detail view.
type SeriesService struct {
	store      *sqlite.Store
	reconciler *ReconcileService
	validator  *validation.Validator
	logger     *slog.Logger
}

// NewSeriesService creates a new series service.
func NewSeriesService(store *sqlite.Store, reconciler *ReconcileService, logger *slog.Logger) *SeriesService {
	return &SeriesService{
		store:      store,
		reconciler: reconciler,
		validator:  validation.New(),
		logger:     logger,
	}
}

// CreateSeriesInput holds the fields accepted when creating a series.
type CreateSeriesInput struct {
	Name         string              `json:"name" validate:"required,min=1,max=500"`
	Description  string              `json:"description"`
	TotalVolumes int                 `json:"total_volumes" validate:"min=0"`
	Status       domain.SeriesStatus `json:"status" validate:"omitempty,oneof=ongoing completed hiatus cancelled"`
	Type         string              `json:"type"`
	Source       string              `json:"source"`
	CoverURL     string              `json:"cover_url" validate:"omitempty,url"`
}

// CreateSeries creates a series and, when a volume total is declared,
// immediately populates the expected-volume slots so they exist before any
// book is linked.
func (s *SeriesService) CreateSeries(ctx context.Context, in CreateSeriesInput) (*domain.Series, error) {
	if in.Status == "" {
		in.Status = domain.SeriesOngoing
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	series := &domain.Series{
		Name:         in.Name,
		Description:  in.Description,
		TotalVolumes: in.TotalVolumes,
		Status:       in.Status,
		Type:         in.Type,
		Source:       in.Source,
		CoverURL:     in.CoverURL,
	}
	series.ID = id.MustGenerate("sr")
	series.InitTimestamps()

	if err := s.store.CreateSeries(ctx, series); err != nil {
		if err == store.ErrAlreadyExists {
			return nil, apperrors.AlreadyExistsf("series %q already exists", in.Name)
		}
		return nil, fmt.Errorf("create series: %w", err)
	}

	if series.TotalVolumes > 0 {
		if err := s.reconciler.PopulateExpectedVolumes(ctx, series.ID); err != nil {
			return nil, fmt.Errorf("populate volumes: %w", err)
		}
	}
	return series, nil
}

// FindOrCreateSeries resolves a series by case-insensitive exact name match,
// creating it with default status "ongoing" when absent. This is the primary
// entry point used by CSV import, where spreadsheet series names vary in
// casing.
func (s *SeriesService) FindOrCreateSeries(ctx context.Context, name, seriesType string) (*domain.Series, error) {
	if name == "" {
		return nil, apperrors.Validation("series name is required")
	}

	series, err := s.store.FindSeriesByName(ctx, name)
	if err == nil {
		return series, nil
	}
	if err != store.ErrNotFound {
		return nil, fmt.Errorf("find series: %w", err)
	}

	created, err := s.CreateSeries(ctx, CreateSeriesInput{
		Name:   name,
		Status: domain.SeriesOngoing,
		Type:   seriesType,
	})
	if err == nil {
		return created, nil
	}
	// Lost a find/create race; the winner's row is the answer.
	if apperrors.Is(err, apperrors.ErrAlreadyExists) {
		return s.store.FindSeriesByName(ctx, name)
	}
	return nil, err
}

// AddBookInput holds the fields for linking a book into a series.
type AddBookInput struct {
	SeriesID     string
	BookID       string
	VolumeNumber int
	VolumeName   string
	PartNumber   int
	ArcName      string
}

// AddBookToSeries links a book to a series at a volume number. A duplicate
// (series, book) pair is a hard error; silently double-linking would corrupt
// the volume table. On success the volume slot is reconciled synchronously,
// in the same logical operation.
func (s *SeriesService) AddBookToSeries(ctx context.Context, in AddBookInput) (*domain.SeriesBook, error) {
	if in.VolumeNumber < 0 {
		return nil, apperrors.Validation("volume number cannot be negative")
	}

	if _, err := s.store.GetSeries(ctx, in.SeriesID); err != nil {
		if err == store.ErrNotFound {
			return nil, apperrors.NotFoundf("series %s not found", in.SeriesID)
		}
		return nil, fmt.Errorf("get series: %w", err)
	}

	link := &domain.SeriesBook{
		SeriesID:     in.SeriesID,
		BookID:       in.BookID,
		VolumeNumber: in.VolumeNumber,
		VolumeName:   in.VolumeName,
		PartNumber:   in.PartNumber,
		ArcName:      in.ArcName,
		Position:     in.VolumeNumber,
	}
	link.ID = id.MustGenerate("sb")
	link.InitTimestamps()

	if err := s.store.CreateSeriesBook(ctx, link); err != nil {
		if err == store.ErrAlreadyExists {
			return nil, apperrors.AlreadyExists("book already linked to series")
		}
		return nil, fmt.Errorf("create series link: %w", err)
	}

	if err := s.reconciler.ReconcileAfterBookAdded(ctx, in.SeriesID, in.BookID, in.VolumeNumber, in.VolumeName); err != nil {
		return nil, fmt.Errorf("reconcile after link: %w", err)
	}
	return link, nil
}

// VolumeDetail is one volume slot in the per-user series view, with its
// ownership tri-state and resolved display cover.
type VolumeDetail struct {
	*domain.SeriesVolume
	Ownership       domain.OwnershipStatus `json:"ownership"`
	DisplayCoverURL string                 `json:"display_cover_url,omitempty"`
}

// SeriesDetail is the full per-user series view.
type SeriesDetail struct {
	*domain.Series
	Volumes      []VolumeDetail `json:"volumes"`
	OwnedVolumes int            `json:"owned_volumes"`
}

// GetSeries returns a series with per-volume ownership for the given user.
// An unfilled slot, or one whose book the user holds no edition of, reads
// as missing. Display cover fallback order: owned edition, any edition, the
// slot's own cover, the series cover.
func (s *SeriesService) GetSeries(ctx context.Context, seriesID, userID string) (*SeriesDetail, error) {
	series, err := s.store.GetSeries(ctx, seriesID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, apperrors.NotFoundf("series %s not found", seriesID)
		}
		return nil, fmt.Errorf("get series: %w", err)
	}

	volumes, err := s.store.ListSeriesVolumes(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list volumes: %w", err)
	}

	ownershipRows, err := s.store.ListVolumeOwnership(ctx, seriesID, userID)
	if err != nil {
		return nil, fmt.Errorf("list ownership: %w", err)
	}

	type volumeAgg struct {
		status     domain.OwnershipStatus
		ownedCover string
		anyCover   string
	}
	agg := make(map[int]*volumeAgg, len(volumes))
	for _, row := range ownershipRows {
		a := agg[row.VolumeNumber]
		if a == nil {
			a = &volumeAgg{status: domain.OwnershipMissing}
			agg[row.VolumeNumber] = a
		}
		if a.anyCover == "" && row.EditionCoverURL != "" {
			a.anyCover = row.EditionCoverURL
		}
		switch row.Status {
		case domain.OwnershipOwned:
			a.status = domain.OwnershipOwned
			if a.ownedCover == "" && row.EditionCoverURL != "" {
				a.ownedCover = row.EditionCoverURL
			}
		case domain.OwnershipWanted:
			if a.status != domain.OwnershipOwned {
				a.status = domain.OwnershipWanted
			}
		}
	}

	detail := &SeriesDetail{
		Series:  series,
		Volumes: make([]VolumeDetail, 0, len(volumes)),
	}
	for _, v := range volumes {
		vd := VolumeDetail{
			SeriesVolume: v,
			Ownership:    domain.OwnershipMissing,
		}
		if a := agg[v.VolumeNumber]; a != nil {
			vd.Ownership = a.status
			vd.DisplayCoverURL = firstNonEmpty(a.ownedCover, a.anyCover, v.CoverURL, series.CoverURL)
		} else {
			vd.DisplayCoverURL = firstNonEmpty(v.CoverURL, series.CoverURL)
		}
		if vd.Ownership == domain.OwnershipOwned {
			detail.OwnedVolumes++
		}
		detail.Volumes = append(detail.Volumes, vd)
	}
	return detail, nil
}

// ListSeries returns a paginated series listing.
func (s *SeriesService) ListSeries(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Series], error) {
	return s.store.ListSeries(ctx, params)
}

// UpdateSeriesInput holds the patchable series fields; nil means unchanged.
type UpdateSeriesInput struct {
	Name         *string
	Description  *string
	TotalVolumes *int
	Status       *domain.SeriesStatus
	Type         *string
	CoverURL     *string
}

// UpdateSeries applies a partial update. Raising the declared volume total
// re-populates the expected-volume slots; populate is idempotent, so a
// lowered total leaves previously created slots alone.
func (s *SeriesService) UpdateSeries(ctx context.Context, seriesID string, in UpdateSeriesInput) (*domain.Series, error) {
	series, err := s.store.GetSeries(ctx, seriesID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, apperrors.NotFoundf("series %s not found", seriesID)
		}
		return nil, fmt.Errorf("get series: %w", err)
	}

	totalChanged := false
	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperrors.Validation("series name cannot be empty")
		}
		series.Name = *in.Name
	}
	if in.Description != nil {
		series.Description = *in.Description
	}
	if in.TotalVolumes != nil {
		if *in.TotalVolumes < 0 {
			return nil, apperrors.Validation("total volumes cannot be negative")
		}
		totalChanged = series.TotalVolumes != *in.TotalVolumes
		series.TotalVolumes = *in.TotalVolumes
	}
	if in.Status != nil {
		if !domain.ValidSeriesStatus(*in.Status) {
			return nil, apperrors.Validationf("invalid series status %q", *in.Status)
		}
		series.Status = *in.Status
	}
	if in.Type != nil {
		series.Type = *in.Type
	}
	if in.CoverURL != nil {
		series.CoverURL = *in.CoverURL
	}
	series.Touch()

	if err := s.store.UpdateSeries(ctx, series); err != nil {
		if err == store.ErrAlreadyExists {
			return nil, apperrors.AlreadyExistsf("series %q already exists", series.Name)
		}
		return nil, fmt.Errorf("update series: %w", err)
	}

	if totalChanged {
		if err := s.reconciler.PopulateExpectedVolumes(ctx, seriesID); err != nil {
			return nil, fmt.Errorf("populate volumes: %w", err)
		}
	}
	return series, nil
}

// DeleteSeries removes a series with one delete against the series row;
// the storage layer's cascades clean up links and volume slots.
func (s *SeriesService) DeleteSeries(ctx context.Context, seriesID string) error {
	if err := s.store.DeleteSeries(ctx, seriesID); err != nil {
		if err == store.ErrNotFound {
			return apperrors.NotFoundf("series %s not found", seriesID)
		}
		return fmt.Errorf("delete series: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
