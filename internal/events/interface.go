package events

//go:generate mockgen -package=mocks -destination=mocks/mock_publisher.go github.com/draftnight/draftbot/internal/events Publisher

import (
	"context"
	"time"
)

// Event types emitted by the draft engine
const (
	TypeDraftStarted      = "draft.started"
	TypeConferenceChosen  = "conference.chosen"
	TypeTeamClaimed       = "team.claimed"
	TypePickMade          = "pick.made"
	TypeStageAdvanced     = "draft.stage_advanced"
	TypeDraftCompleted    = "draft.completed"
	TypeDraftCancelled    = "draft.cancelled"
)

// Event describes one committed draft state change. Events are published
// after the commit succeeds and are best-effort: consumers must not be the
// source of truth for draft state.
type Event struct {
	// ID is the unique identifier for the event
	ID string `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// DraftID is the draft the event belongs to
	DraftID string `json:"draft_id"`

	// GuildID is the guild the draft belongs to
	GuildID string `json:"guild_id"`

	// UserID is the acting user, when the event has one
	UserID string `json:"user_id,omitempty"`

	// Team is the affected team name, when the event has one
	Team string `json:"team,omitempty"`

	// Stage is the draft stage after the event
	Stage string `json:"stage,omitempty"`

	// PickNumber is set for pick.made events
	PickNumber int `json:"pick_number,omitempty"`

	// Timestamp is when the event was committed
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers draft events to interested consumers
type Publisher interface {
	// Publish delivers one event
	Publish(ctx context.Context, event Event) error

	// Close releases the publisher's resources
	Close()
}
