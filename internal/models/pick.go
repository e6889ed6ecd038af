package models

import (
	"time"
)

// Pick is one entry in a draft's append-only pick log. Picks are never
// updated or deleted once written.
type Pick struct {
	// ID is the unique identifier for the pick
	ID string

	// DraftID is the draft the pick belongs to
	DraftID string

	// PickNumber is the 1-based global pick number within the draft.
	// The sequence is contiguous: no gaps, no duplicates.
	PickNumber int

	// UserID is the participant who made the pick
	UserID string

	// TeamName is the canonical name of the picked team
	TeamName string

	// PickedAt is when the pick was committed
	PickedAt time.Time
}
