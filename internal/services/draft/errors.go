package draft

import (
	"errors"
	"fmt"
)

// Define errors
var (
	ErrNoActiveDraft       = errors.New("no active draft for this guild")
	ErrNoDraft             = errors.New("no draft data for this guild")
	ErrDraftInProgress     = errors.New("a draft is already in progress for this guild")
	ErrNotAParticipant     = errors.New("user is not a participant in this draft")
	ErrInvalidStage        = errors.New("action does not match the draft's current stage")
	ErrAlreadyChosen       = errors.New("conference or team already set for this participant")
	ErrTeamAlreadyClaimed  = errors.New("team has already been claimed")
	ErrTeamUnavailable     = errors.New("team is not available")
	ErrNotYourTurn         = errors.New("it is not your turn to pick")
	ErrLimitReached        = errors.New("pick limit reached")
	ErrDraftCancelled      = errors.New("draft has been cancelled")
	ErrDraftCompleted      = errors.New("draft has been completed")
	ErrUnknownTeam         = errors.New("unknown team name")
	ErrUnknownConference   = errors.New("unknown conference name")
	ErrConferenceFull      = errors.New("conference has no open slots")
	ErrConferenceNotChosen = errors.New("participant has not chosen a conference")
	ErrTooFewParticipants  = errors.New("a draft needs at least two participants")
	ErrDuplicateUser       = errors.New("duplicate user in participant list")
	ErrTryAgain            = errors.New("draft is busy, try again")
)

// TeamTakenError reports who holds a contested team. It unwraps to
// ErrTeamAlreadyClaimed (claim stage) or ErrTeamUnavailable (pick stage) so
// callers can still match on the sentinel.
type TeamTakenError struct {
	// TeamName is the contested team
	TeamName string

	// UserID is the holder of the team
	UserID string

	// DraftID is the draft the team was taken in
	DraftID string

	// PickNumber is the pick that took the team, or 0 for a pre-draft claim
	PickNumber int

	sentinel error
}

// NewTeamTakenError builds a TeamTakenError wrapping the given sentinel
func NewTeamTakenError(teamName, userID, draftID string, pickNumber int, sentinel error) *TeamTakenError {
	return &TeamTakenError{
		TeamName:   teamName,
		UserID:     userID,
		DraftID:    draftID,
		PickNumber: pickNumber,
		sentinel:   sentinel,
	}
}

func (e *TeamTakenError) Error() string {
	if e.PickNumber > 0 {
		return fmt.Sprintf("%s was taken by %s with pick #%d", e.TeamName, e.UserID, e.PickNumber)
	}
	return fmt.Sprintf("%s was claimed by %s", e.TeamName, e.UserID)
}

func (e *TeamTakenError) Unwrap() error {
	return e.sentinel
}
