package store

import "github.com/shelfmark/shelfmark-server/internal/domain"

// VolumeOwnershipRow is one (volume, edition, ownership) combination for a
// series, produced by a single join so services can compute per-volume
// ownership tri-states without N+1 queries. Status and EditionCoverURL are
// empty when the volume's book has no edition or the user owns no row for it.
type VolumeOwnershipRow struct {
	VolumeNumber    int
	BookID          string
	EditionID       string
	EditionCoverURL string
	Status          domain.OwnershipStatus
}

// SeriesWithCounts pairs a series with how many of its volume slots are
// filled, for list views.
type SeriesWithCounts struct {
	Series       *domain.Series `json:"series"`
	VolumeCount  int            `json:"volume_count"`
	OwnedVolumes int            `json:"owned_volumes"`
}
