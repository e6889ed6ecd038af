package models

// Participant represents a user's membership in a draft
type Participant struct {
	// UserID is the Discord user ID of the participant
	UserID string

	// PickOrder is the participant's position in the turn sequence,
	// unique within a draft
	PickOrder int

	// Conference is the conference the participant chose, empty until chosen
	Conference string

	// ConferenceChosen is true once Conference has been set
	ConferenceChosen bool

	// ClaimedTeam is the team claimed in the pre-draft round, empty until claimed
	ClaimedTeam string

	// Claimed is true once ClaimedTeam has been set
	Claimed bool

	// PicksMade counts this participant's committed picks. Kept in step
	// with the pick log because both are written in the same transaction.
	PicksMade int
}

// ParticipantLimit caps the number of picks a user may make in a draft.
// Created at draft setup and immutable afterwards.
type ParticipantLimit struct {
	// DraftID is the draft the limit applies to
	DraftID string

	// UserID is the user the limit applies to
	UserID string

	// PicksAllowed is the cap on team picks; 0 means unlimited
	PicksAllowed int
}
