package draft

import "context"

// Service defines the interface for draft operations
type Service interface {
	// StartDraft creates a new draft for a guild with participants in pick order
	StartDraft(ctx context.Context, input *StartDraftInput) (*StartDraftOutput, error)

	// ChooseConference records a participant's conference choice
	ChooseConference(ctx context.Context, input *ChooseConferenceInput) (*ChooseConferenceOutput, error)

	// ClaimTeam records a participant's pre-draft team claim
	ClaimTeam(ctx context.Context, input *ClaimTeamInput) (*ClaimTeamOutput, error)

	// MakePick records an in-draft, turn-ordered team pick
	MakePick(ctx context.Context, input *MakePickInput) (*MakePickOutput, error)

	// CancelDraft cancels a guild's open draft
	CancelDraft(ctx context.Context, input *CancelDraftInput) (*CancelDraftOutput, error)

	// GetStatus returns a draft's state and pick log
	GetStatus(ctx context.Context, input *GetStatusInput) (*GetStatusOutput, error)

	// ListAvailableTeams returns the unassigned teams grouped by conference
	ListAvailableTeams(ctx context.Context, input *ListAvailableTeamsInput) (*ListAvailableTeamsOutput, error)

	// ConferenceRosters returns each conference's participants and their teams
	ConferenceRosters(ctx context.Context, input *ConferenceRostersInput) (*ConferenceRostersOutput, error)

	// ListConferences returns conference slot usage for a draft
	ListConferences(ctx context.Context, input *ListConferencesInput) (*ListConferencesOutput, error)
}
