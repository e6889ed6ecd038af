package draft

import (
	"github.com/draftnight/draftbot/internal/models"
)

// participantAt maps a pick index to a participant under the configured
// turn policy. Round-robin repeats the pick order every round; snake
// reverses it on odd rounds.
func (s *service) participantAt(d *models.Draft, index int) *models.Participant {
	n := len(d.Participants)
	if n == 0 {
		return nil
	}

	pos := index % n
	if s.config.TurnPolicy == TurnPolicySnake && (index/n)%2 == 1 {
		pos = n - 1 - pos
	}

	for _, p := range d.Participants {
		if p.PickOrder == pos {
			return p
		}
	}
	return nil
}

// whoseTurn returns the participant the current pick index points at
func (s *service) whoseTurn(d *models.Draft) *models.Participant {
	return s.participantAt(d, d.CurrentPickIndex)
}

// canPick reports whether a participant is still able to pick: under their
// cap, with at least one eligible team left
func (s *service) canPick(d *models.Draft, p *models.Participant, taken map[string]bool) bool {
	allowed := d.PicksAllowed(p.UserID)
	if allowed > 0 && p.PicksMade >= allowed {
		return false
	}

	conference := ""
	if s.config.RestrictPicksToConference {
		conference = p.Conference
	}
	return len(s.pool.Available(conference, taken)) > 0
}

// advanceTurn moves the pick index to the next participant who can still
// pick. Returns false when nobody can, which ends the draft. The scan is
// bounded at two rounds: a snake reversal needs that much lookahead to
// visit every participant.
func (s *service) advanceTurn(d *models.Draft, taken map[string]bool) bool {
	n := len(d.Participants)
	for step := 1; step <= 2*n; step++ {
		cand := s.participantAt(d, d.CurrentPickIndex+step)
		if cand != nil && s.canPick(d, cand, taken) {
			d.CurrentPickIndex += step
			return true
		}
	}
	return false
}
