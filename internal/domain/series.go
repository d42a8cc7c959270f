package domain

// SeriesStatus describes the publication state of a series.
type SeriesStatus string

const (
	SeriesOngoing   SeriesStatus = "ongoing"
	SeriesCompleted SeriesStatus = "completed"
	SeriesHiatus    SeriesStatus = "hiatus"
	SeriesCancelled SeriesStatus = "cancelled"
)

// ValidSeriesStatus reports whether s is a recognized status value.
func ValidSeriesStatus(s SeriesStatus) bool {
	switch s {
	case SeriesOngoing, SeriesCompleted, SeriesHiatus, SeriesCancelled:
		return true
	}
	return false
}

// Series is a named collection of volumes.
type Series struct {
	Record
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	TotalVolumes int          `json:"total_volumes"` // declared total, 0 if unknown/ongoing
	Status       SeriesStatus `json:"status"`
	Type         string       `json:"type,omitempty"`   // manga, light novel, novel...
	Source       string       `json:"source,omitempty"` // metadata origin tag (anilist, manual...)
	CoverURL     string       `json:"cover_url,omitempty"`
}

// HasKnownTotal reports whether the series declares how many volumes exist.
func (s *Series) HasKnownTotal() bool {
	return s.TotalVolumes > 0
}

// SeriesBook links a Book to a Series at a specific volume number.
// A given (series, book) pair appears at most once; volume numbers are not
// required to be contiguous.
type SeriesBook struct {
	Record
	SeriesID     string `json:"series_id"`
	BookID       string `json:"book_id"`
	VolumeNumber int    `json:"volume_number"`
	VolumeName   string `json:"volume_name,omitempty"`
	PartNumber   int    `json:"part_number,omitempty"`
	ArcName      string `json:"arc_name,omitempty"`
	Position     int    `json:"position"` // display order within the series
}

// SeriesVolume is one slot in a series' expected lineup, kept for every
// volume number 1..TotalVolumes plus any number actually used by a linked
// book. BookID is empty while the slot is expected but unfilled.
type SeriesVolume struct {
	Record
	SeriesID     string `json:"series_id"`
	VolumeNumber int    `json:"volume_number"`
	Title        string `json:"title,omitempty"`
	BookID       string `json:"book_id,omitempty"`
	CoverURL     string `json:"cover_url,omitempty"`
	Released     bool   `json:"released"`
	Announced    bool   `json:"announced"`
}

// IsFilled reports whether a linked book occupies this slot.
func (v *SeriesVolume) IsFilled() bool {
	return v.BookID != ""
}
