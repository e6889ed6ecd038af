package models

// AssignedTeam records which draft and user own a team name. The registry
// is keyed globally by team name: a team maps to at most one (draft, user)
// pair at any time, which is what makes claim races safe to lose.
type AssignedTeam struct {
	// TeamName is the canonical team name, the registry key
	TeamName string

	// DraftID is the draft the team was assigned in
	DraftID string

	// UserID is the user the team was assigned to
	UserID string

	// PickNumber is the global pick number that assigned the team, or 0
	// if the team was taken by a pre-draft claim
	PickNumber int
}
