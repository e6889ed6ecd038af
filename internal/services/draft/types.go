package draft

import (
	"github.com/draftnight/draftbot/internal/common/clock"
	"github.com/draftnight/draftbot/internal/common/uuid"
	"github.com/draftnight/draftbot/internal/events"
	"github.com/draftnight/draftbot/internal/models"
	draftRepo "github.com/draftnight/draftbot/internal/repositories/draft"
	"github.com/draftnight/draftbot/internal/teams"
)

// TurnPolicy selects how the turn tracker maps the pick index to a participant
type TurnPolicy string

const (
	// TurnPolicyRoundRobin repeats the pick order every round
	TurnPolicyRoundRobin TurnPolicy = "round_robin"

	// TurnPolicySnake reverses the pick order on every other round
	TurnPolicySnake TurnPolicy = "snake"
)

// Config holds configuration for the draft service
type Config struct {
	// Repository dependency
	Repo draftRepo.Repository

	// Pool is the conference-partitioned set of draftable teams
	Pool *teams.Pool

	// Publisher receives best-effort events after successful commits
	Publisher events.Publisher

	// Clock provides timestamps
	Clock clock.Clock

	// UUIDGenerator provides draft and pick IDs
	UUIDGenerator uuid.UUID

	// TurnPolicy selects round-robin or snake ordering
	TurnPolicy TurnPolicy

	// DefaultPicksAllowed is the per-user pick cap applied when a draft
	// does not specify one; 0 means unlimited
	DefaultPicksAllowed int

	// MaxUsersPerConference caps how many participants may choose the
	// same conference
	MaxUsersPerConference int

	// ReleaseTeamsOnCancel frees a cancelled draft's team assignments
	ReleaseTeamsOnCancel bool

	// RestrictPicksToConference limits picks to the participant's chosen
	// conference; claims are always restricted
	RestrictPicksToConference bool

	// CommitRetries bounds how often a lost commit race is retried
	CommitRetries int
}

// StartDraftInput contains parameters for starting a draft
type StartDraftInput struct {
	// GuildID is the Discord guild the draft belongs to
	GuildID string

	// ChannelID is the Discord channel the draft was started in
	ChannelID string

	// UserIDs lists the participants in pick order
	UserIDs []string

	// PicksAllowed overrides the default per-user pick cap when > 0
	PicksAllowed int
}

// StartDraftOutput contains the result of starting a draft
type StartDraftOutput struct {
	// Draft is the created draft
	Draft *models.Draft
}

// ChooseConferenceInput contains parameters for a conference choice
type ChooseConferenceInput struct {
	// GuildID is the Discord guild of the draft
	GuildID string

	// UserID is the choosing participant
	UserID string

	// Conference is the requested conference name, matched loosely
	Conference string
}

// ChooseConferenceOutput contains the result of a conference choice
type ChooseConferenceOutput struct {
	// Draft is the committed draft state
	Draft *models.Draft

	// Conference is the canonical conference name that was recorded
	Conference string

	// StageAdvanced is true when the choice completed the conference stage
	StageAdvanced bool

	// Remaining is how many participants still need to choose
	Remaining int
}

// ClaimTeamInput contains parameters for a pre-draft team claim
type ClaimTeamInput struct {
	// GuildID is the Discord guild of the draft
	GuildID string

	// UserID is the claiming participant
	UserID string

	// TeamName is the requested team, matched loosely
	TeamName string
}

// ClaimTeamOutput contains the result of a team claim
type ClaimTeamOutput struct {
	// Draft is the committed draft state
	Draft *models.Draft

	// Team is the canonical team name that was claimed
	Team string

	// StageAdvanced is true when the claim completed the claim stage and
	// started the drafting stage
	StageAdvanced bool

	// Remaining is how many participants still need to claim
	Remaining int

	// NextUserID is whose turn it is to pick, set when drafting started
	NextUserID string
}

// MakePickInput contains parameters for an in-draft pick
type MakePickInput struct {
	// GuildID is the Discord guild of the draft
	GuildID string

	// UserID is the picking participant
	UserID string

	// TeamName is the requested team, matched loosely
	TeamName string
}

// MakePickOutput contains the result of a pick
type MakePickOutput struct {
	// Draft is the committed draft state
	Draft *models.Draft

	// Team is the canonical team name that was picked
	Team string

	// PickNumber is the global pick number assigned to the pick
	PickNumber int

	// NextUserID is whose turn is next, empty when the draft completed
	NextUserID string

	// Completed is true when the pick finished the draft
	Completed bool
}

// CancelDraftInput contains parameters for cancelling a draft
type CancelDraftInput struct {
	// GuildID is the Discord guild of the draft
	GuildID string
}

// CancelDraftOutput contains the result of a cancellation
type CancelDraftOutput struct {
	// Draft is the cancelled draft
	Draft *models.Draft
}

// GetStatusInput contains parameters for reading draft status
type GetStatusInput struct {
	// GuildID is the Discord guild to look up
	GuildID string
}

// GetStatusOutput contains a draft's current state and pick log
type GetStatusOutput struct {
	// Draft is the open draft, or the latest one when none is open
	Draft *models.Draft

	// Picks is the draft's pick log in pick-number order
	Picks []*models.Pick

	// CurrentUserID is whose turn it is, empty outside the drafting stage
	CurrentUserID string
}

// ListAvailableTeamsInput contains parameters for listing unassigned teams
type ListAvailableTeamsInput struct {
	// GuildID is the Discord guild to look up
	GuildID string
}

// ListAvailableTeamsOutput contains the unassigned teams per conference
type ListAvailableTeamsOutput struct {
	// ByConference maps conference name to its available teams
	ByConference map[string][]string

	// Total is the number of available teams across all conferences
	Total int
}

// ConferenceRostersInput contains parameters for reading conference rosters
type ConferenceRostersInput struct {
	// GuildID is the Discord guild to look up
	GuildID string

	// Conference, when set, limits the rosters to that conference,
	// matched loosely
	Conference string
}

// ConferenceRostersOutput maps conferences to their participants' teams
type ConferenceRostersOutput struct {
	// DraftID is the draft the rosters belong to
	DraftID string

	// Rosters maps conference -> user ID -> team names (claimed team
	// first, then picks in order). Participants without a conference are
	// grouped under UnassignedKey.
	Rosters map[string]map[string][]string
}

// ListConferencesInput contains parameters for reading conference slot usage
type ListConferencesInput struct {
	// GuildID is the Discord guild to look up
	GuildID string
}

// ListConferencesOutput describes conference slot usage for a draft
type ListConferencesOutput struct {
	// DraftID is the draft the slots belong to
	DraftID string

	// Slots maps conference name to the user IDs occupying it, in pick
	// order. Participants without a conference appear under UnassignedKey.
	Slots map[string][]string

	// MaxPerConference is the configured slot cap
	MaxPerConference int
}

// UnassignedKey groups participants who have not chosen a conference yet in
// roster and slot listings
const UnassignedKey = "(unassigned)"
