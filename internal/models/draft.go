package models

import (
	"time"
)

// DraftStatus represents the lifecycle state of a draft
type DraftStatus string

const (
	// DraftStatusPending indicates a draft is in its pre-draft phases
	DraftStatusPending DraftStatus = "pending"

	// DraftStatusActive indicates turn-based picking is in progress
	DraftStatusActive DraftStatus = "active"

	// DraftStatusCompleted indicates a draft finished normally
	DraftStatusCompleted DraftStatus = "completed"

	// DraftStatusCancelled indicates a draft was cancelled by an admin
	DraftStatusCancelled DraftStatus = "cancelled"
)

// DraftStage represents the coarse phase a draft is in
type DraftStage string

const (
	// DraftStageConference indicates participants are choosing conferences
	DraftStageConference DraftStage = "conference"

	// DraftStageClaim indicates participants are claiming their preassigned team
	DraftStageClaim DraftStage = "claim"

	// DraftStageDrafting indicates turn-based team picking is underway
	DraftStageDrafting DraftStage = "drafting"

	// DraftStageDone indicates the draft has finished
	DraftStageDone DraftStage = "done"
)

// Draft represents one guild-scoped draft session
type Draft struct {
	// ID is the unique identifier for the draft
	ID string

	// GuildID is the Discord guild the draft belongs to
	GuildID string

	// ChannelID is the Discord channel the draft was started in
	ChannelID string

	// Status is the lifecycle state of the draft
	Status DraftStatus

	// Stage is the phase the draft is currently in
	Stage DraftStage

	// CurrentPickIndex is the 0-based cursor into the turn sequence
	CurrentPickIndex int

	// PickCount is the number of picks committed so far; the next
	// pick_number is always PickCount+1
	PickCount int

	// Participants holds the draft's participants in pick order
	Participants []*Participant

	// Limits holds the per-user pick caps, keyed by user ID
	Limits map[string]*ParticipantLimit

	// Version is the optimistic concurrency token. Every committed
	// write bumps it by one; a writer holding a stale snapshot loses.
	Version int

	// CreatedAt is when the draft was created
	CreatedAt time.Time

	// UpdatedAt is when the draft was last updated
	UpdatedAt time.Time
}

// Participant returns the participant for a user ID, or nil
func (d *Draft) Participant(userID string) *Participant {
	for _, p := range d.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// PicksAllowed returns the pick cap for a user. 0 means unlimited.
func (d *Draft) PicksAllowed(userID string) int {
	if l, ok := d.Limits[userID]; ok {
		return l.PicksAllowed
	}
	return 0
}

// Open reports whether the draft still accepts actions
func (d *Draft) Open() bool {
	return d.Status == DraftStatusPending || d.Status == DraftStatusActive
}
