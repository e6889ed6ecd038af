package draft

import (
	"github.com/draftnight/draftbot/internal/models"
)

// CreateDraftInput contains parameters for persisting a new draft
type CreateDraftInput struct {
	// Draft is the fully-built draft to persist
	Draft *models.Draft
}

// GetDraftInput contains parameters for retrieving a draft by ID
type GetDraftInput struct {
	// DraftID is the unique identifier of the draft
	DraftID string
}

// GetOpenDraftByGuildInput contains parameters for looking up a guild's open draft
type GetOpenDraftByGuildInput struct {
	// GuildID is the Discord guild ID
	GuildID string
}

// GetLatestDraftByGuildInput contains parameters for looking up a guild's latest draft
type GetLatestDraftByGuildInput struct {
	// GuildID is the Discord guild ID
	GuildID string
}

// UpdateDraftInput contains parameters for committing a mutated draft snapshot
type UpdateDraftInput struct {
	// Draft is the mutated snapshot. Its Version must match the stored
	// version; on success the committed version is Version+1.
	Draft *models.Draft
}

// ClaimTeamInput contains parameters for committing a pre-draft team claim
type ClaimTeamInput struct {
	// Draft is the mutated snapshot with the claim applied
	Draft *models.Draft

	// Assignment is the registry entry to create for the claimed team
	Assignment *models.AssignedTeam
}

// RecordPickInput contains parameters for committing an in-draft pick
type RecordPickInput struct {
	// Draft is the mutated snapshot with the pick applied
	Draft *models.Draft

	// Pick is the log entry to append
	Pick *models.Pick

	// Assignment is the registry entry to create for the picked team
	Assignment *models.AssignedTeam
}

// CancelDraftInput contains parameters for committing a cancellation
type CancelDraftInput struct {
	// Draft is the mutated snapshot with status set to cancelled
	Draft *models.Draft

	// ReleaseTeams controls whether the draft's team assignments are
	// removed from the registry, freeing the names for future drafts
	ReleaseTeams bool
}

// GetPicksInput contains parameters for reading a draft's pick log
type GetPicksInput struct {
	// DraftID is the unique identifier of the draft
	DraftID string
}

// GetTeamAssignmentInput contains parameters for reading a registry entry
type GetTeamAssignmentInput struct {
	// TeamName is the canonical team name
	TeamName string
}

// ListAssignedTeamsInput contains parameters for listing assigned team names
type ListAssignedTeamsInput struct{}
