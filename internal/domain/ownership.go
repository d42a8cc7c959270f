package domain

import "time"

// OwnershipStatus is the user's relationship to a given edition.
type OwnershipStatus string

const (
	// OwnershipOwned means the user has this edition on their shelf.
	OwnershipOwned OwnershipStatus = "owned"
	// OwnershipWanted means the user wants to acquire this edition.
	OwnershipWanted OwnershipStatus = "wanted"
	// OwnershipMissing means the edition belongs to a tracked series lineup
	// but is absent from the user's shelf.
	OwnershipMissing OwnershipStatus = "missing"
)

// ValidOwnershipStatus reports whether s is a recognized status value.
func ValidOwnershipStatus(s OwnershipStatus) bool {
	switch s {
	case OwnershipOwned, OwnershipWanted, OwnershipMissing:
		return true
	}
	return false
}

// UserBook links a user to an Edition with an ownership status and
// acquisition/reading metadata. One row per (user, edition); re-adding the
// same edition updates the status rather than duplicating the row.
type UserBook struct {
	Record
	UserID      string          `json:"user_id"`
	EditionID   string          `json:"edition_id"`
	Status      OwnershipStatus `json:"status"`
	AcquiredAt  *time.Time      `json:"acquired_at,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CurrentPage int             `json:"current_page,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// IsReading reports whether the user has started but not finished this book.
func (ub *UserBook) IsReading() bool {
	return ub.StartedAt != nil && ub.FinishedAt == nil
}
