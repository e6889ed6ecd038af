package draft

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/draftnight/draftbot/internal/repositories/draft Repository

import (
	"context"

	"github.com/draftnight/draftbot/internal/models"
)

// Repository defines the interface for draft persistence. Every
// state-changing method commits atomically: either all of its effects are
// visible or none are. Methods taking a draft snapshot reject stale
// snapshots with ErrVersionConflict, which callers handle by reloading,
// revalidating, and retrying.
type Repository interface {
	// CreateDraft persists a new draft and marks it as the guild's open draft
	CreateDraft(ctx context.Context, input *CreateDraftInput) error

	// GetDraft retrieves a draft by ID
	GetDraft(ctx context.Context, input *GetDraftInput) (*models.Draft, error)

	// GetOpenDraftByGuild retrieves the guild's open (pending or active) draft
	GetOpenDraftByGuild(ctx context.Context, input *GetOpenDraftByGuildInput) (*models.Draft, error)

	// GetLatestDraftByGuild retrieves the most recently created draft for a guild
	GetLatestDraftByGuild(ctx context.Context, input *GetLatestDraftByGuildInput) (*models.Draft, error)

	// UpdateDraft commits a mutated draft snapshot
	UpdateDraft(ctx context.Context, input *UpdateDraftInput) error

	// ClaimTeam commits a mutated draft snapshot together with a team
	// assignment; fails with ErrTeamTaken if the team is already owned
	ClaimTeam(ctx context.Context, input *ClaimTeamInput) error

	// RecordPick commits a mutated draft snapshot together with a pick log
	// entry and a team assignment; fails with ErrTeamTaken if the team is
	// already owned
	RecordPick(ctx context.Context, input *RecordPickInput) error

	// CancelDraft commits a cancelled draft snapshot, optionally releasing
	// the draft's team assignments
	CancelDraft(ctx context.Context, input *CancelDraftInput) error

	// GetPicks retrieves a draft's pick log in pick-number order
	GetPicks(ctx context.Context, input *GetPicksInput) ([]*models.Pick, error)

	// GetTeamAssignment retrieves the registry entry for a team name
	GetTeamAssignment(ctx context.Context, input *GetTeamAssignmentInput) (*models.AssignedTeam, error)

	// ListAssignedTeams returns the set of all currently assigned team names
	ListAssignedTeams(ctx context.Context, input *ListAssignedTeamsInput) (map[string]bool, error)
}
