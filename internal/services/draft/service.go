package draft

import (
	"context"
	"errors"
	"fmt"

	"github.com/draftnight/draftbot/internal/common/clock"
	"github.com/draftnight/draftbot/internal/common/uuid"
	"github.com/draftnight/draftbot/internal/events"
	"github.com/draftnight/draftbot/internal/models"
	draftRepo "github.com/draftnight/draftbot/internal/repositories/draft"
	"github.com/draftnight/draftbot/internal/teams"
	"github.com/rs/zerolog/log"
)

// service implements the Service interface
type service struct {
	config    *Config
	repo      draftRepo.Repository
	pool      *teams.Pool
	publisher events.Publisher
	clock     clock.Clock
	uuider    uuid.UUID
}

// New creates a new draft service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Repo == nil {
		return nil, errors.New("repository cannot be nil")
	}

	if cfg.Pool == nil {
		return nil, errors.New("team pool cannot be nil")
	}

	// Set default values if not provided
	if cfg.Publisher == nil {
		cfg.Publisher = events.NoopPublisher{}
	}

	if cfg.Clock == nil {
		cfg.Clock = &clock.DefaultClock{}
	}

	if cfg.UUIDGenerator == nil {
		cfg.UUIDGenerator = uuid.New()
	}

	if cfg.TurnPolicy == "" {
		cfg.TurnPolicy = TurnPolicyRoundRobin
	}

	if cfg.MaxUsersPerConference == 0 {
		cfg.MaxUsersPerConference = 2
	}

	if cfg.CommitRetries == 0 {
		cfg.CommitRetries = 3
	}

	return &service{
		config:    cfg,
		repo:      cfg.Repo,
		pool:      cfg.Pool,
		publisher: cfg.Publisher,
		clock:     cfg.Clock,
		uuider:    cfg.UUIDGenerator,
	}, nil
}

// StartDraft creates a new draft for a guild with participants in pick order
func (s *service) StartDraft(ctx context.Context, input *StartDraftInput) (*StartDraftOutput, error) {
	if len(input.UserIDs) < 2 {
		return nil, ErrTooFewParticipants
	}

	seen := make(map[string]bool, len(input.UserIDs))
	for _, userID := range input.UserIDs {
		if seen[userID] {
			return nil, ErrDuplicateUser
		}
		seen[userID] = true
	}

	picksAllowed := s.config.DefaultPicksAllowed
	if input.PicksAllowed > 0 {
		picksAllowed = input.PicksAllowed
	}

	now := s.clock.Now()
	d := &models.Draft{
		ID:        s.uuider.NewUUID(),
		GuildID:   input.GuildID,
		ChannelID: input.ChannelID,
		Status:    models.DraftStatusPending,
		Stage:     models.DraftStageConference,
		Limits:    make(map[string]*models.ParticipantLimit, len(input.UserIDs)),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for order, userID := range input.UserIDs {
		d.Participants = append(d.Participants, &models.Participant{
			UserID:    userID,
			PickOrder: order,
		})
		d.Limits[userID] = &models.ParticipantLimit{
			DraftID:      d.ID,
			UserID:       userID,
			PicksAllowed: picksAllowed,
		}
	}

	err := s.repo.CreateDraft(ctx, &draftRepo.CreateDraftInput{Draft: d})
	if err != nil {
		if errors.Is(err, draftRepo.ErrGuildHasOpenDraft) {
			return nil, ErrDraftInProgress
		}
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	log.Info().
		Str("draft_id", d.ID).
		Str("guild_id", d.GuildID).
		Int("participants", len(d.Participants)).
		Msg("draft started")

	s.publish(ctx, events.Event{Type: events.TypeDraftStarted, DraftID: d.ID, GuildID: d.GuildID, Stage: string(d.Stage)})

	return &StartDraftOutput{Draft: d}, nil
}

// ChooseConference records a participant's conference choice
func (s *service) ChooseConference(ctx context.Context, input *ChooseConferenceInput) (*ChooseConferenceOutput, error) {
	conference, ok := s.pool.HasConference(input.Conference)
	if !ok {
		return nil, ErrUnknownConference
	}

	var d *models.Draft
	for attempt := 0; attempt <= s.config.CommitRetries; attempt++ {
		var err error
		d, err = s.reload(ctx, input.GuildID, d)
		if err != nil {
			return nil, err
		}

		if err := s.checkStage(d, models.DraftStageConference); err != nil {
			return nil, err
		}

		p := d.Participant(input.UserID)
		if p == nil {
			return nil, ErrNotAParticipant
		}
		if p.ConferenceChosen {
			return nil, ErrAlreadyChosen
		}

		if s.countConference(d, conference) >= s.config.MaxUsersPerConference {
			return nil, ErrConferenceFull
		}

		p.Conference = conference
		p.ConferenceChosen = true
		d.UpdatedAt = s.clock.Now()

		remaining := 0
		for _, other := range d.Participants {
			if !other.ConferenceChosen {
				remaining++
			}
		}

		advanced := remaining == 0
		if advanced {
			d.Stage = models.DraftStageClaim
		}

		err = s.repo.UpdateDraft(ctx, &draftRepo.UpdateDraftInput{Draft: d})
		if errors.Is(err, draftRepo.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to commit conference choice: %w", err)
		}

		s.publish(ctx, events.Event{Type: events.TypeConferenceChosen, DraftID: d.ID, GuildID: d.GuildID, UserID: input.UserID, Stage: string(d.Stage)})
		if advanced {
			s.publish(ctx, events.Event{Type: events.TypeStageAdvanced, DraftID: d.ID, GuildID: d.GuildID, Stage: string(d.Stage)})
		}

		return &ChooseConferenceOutput{
			Draft:         d,
			Conference:    conference,
			StageAdvanced: advanced,
			Remaining:     remaining,
		}, nil
	}

	return nil, ErrTryAgain
}

// ClaimTeam records a participant's pre-draft team claim
func (s *service) ClaimTeam(ctx context.Context, input *ClaimTeamInput) (*ClaimTeamOutput, error) {
	team, err := s.pool.Canonical(input.TeamName)
	if err != nil {
		return nil, ErrUnknownTeam
	}

	var d *models.Draft
	for attempt := 0; attempt <= s.config.CommitRetries; attempt++ {
		d, err = s.reload(ctx, input.GuildID, d)
		if err != nil {
			return nil, err
		}

		if err := s.checkStage(d, models.DraftStageClaim); err != nil {
			return nil, err
		}

		p := d.Participant(input.UserID)
		if p == nil {
			return nil, ErrNotAParticipant
		}
		if p.Claimed {
			return nil, ErrAlreadyChosen
		}

		// The claim pool is partitioned by conference
		conference, err := s.pool.ConferenceOf(team)
		if err != nil || conference != p.Conference {
			return nil, ErrTeamUnavailable
		}

		p.ClaimedTeam = team
		p.Claimed = true
		d.UpdatedAt = s.clock.Now()

		remaining := 0
		for _, other := range d.Participants {
			if !other.Claimed {
				remaining++
			}
		}

		advanced := remaining == 0
		if advanced {
			// Everyone has claimed: the turn-based draft begins
			d.Stage = models.DraftStageDrafting
			d.Status = models.DraftStatusActive
			d.CurrentPickIndex = 0
		}

		err = s.repo.ClaimTeam(ctx, &draftRepo.ClaimTeamInput{
			Draft: d,
			Assignment: &models.AssignedTeam{
				TeamName: team,
				DraftID:  d.ID,
				UserID:   input.UserID,
			},
		})
		if errors.Is(err, draftRepo.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, draftRepo.ErrTeamTaken) {
			// Benign race: a concurrent claimer won the team. Nothing
			// was mutated; the caller may retry with another team.
			return nil, s.teamTakenError(ctx, team, ErrTeamAlreadyClaimed)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to commit team claim: %w", err)
		}

		s.publish(ctx, events.Event{Type: events.TypeTeamClaimed, DraftID: d.ID, GuildID: d.GuildID, UserID: input.UserID, Team: team, Stage: string(d.Stage)})
		if advanced {
			s.publish(ctx, events.Event{Type: events.TypeStageAdvanced, DraftID: d.ID, GuildID: d.GuildID, Stage: string(d.Stage)})
		}

		out := &ClaimTeamOutput{
			Draft:         d,
			Team:          team,
			StageAdvanced: advanced,
			Remaining:     remaining,
		}
		if advanced {
			if next := s.whoseTurn(d); next != nil {
				out.NextUserID = next.UserID
			}
		}
		return out, nil
	}

	return nil, ErrTryAgain
}

// MakePick records an in-draft, turn-ordered team pick
func (s *service) MakePick(ctx context.Context, input *MakePickInput) (*MakePickOutput, error) {
	team, err := s.pool.Canonical(input.TeamName)
	if err != nil {
		return nil, ErrUnknownTeam
	}

	var d *models.Draft
	for attempt := 0; attempt <= s.config.CommitRetries; attempt++ {
		d, err = s.reload(ctx, input.GuildID, d)
		if err != nil {
			return nil, err
		}

		if err := s.checkStage(d, models.DraftStageDrafting); err != nil {
			return nil, err
		}

		p := d.Participant(input.UserID)
		if p == nil {
			return nil, ErrNotAParticipant
		}
		if !p.ConferenceChosen {
			return nil, ErrConferenceNotChosen
		}

		if turn := s.whoseTurn(d); turn == nil || turn.UserID != input.UserID {
			return nil, ErrNotYourTurn
		}

		allowed := d.PicksAllowed(input.UserID)
		if allowed > 0 && p.PicksMade >= allowed {
			return nil, ErrLimitReached
		}

		if s.config.RestrictPicksToConference {
			conference, err := s.pool.ConferenceOf(team)
			if err != nil || conference != p.Conference {
				return nil, ErrTeamUnavailable
			}
		}

		taken, err := s.repo.ListAssignedTeams(ctx, &draftRepo.ListAssignedTeamsInput{})
		if err != nil {
			return nil, fmt.Errorf("failed to list assigned teams: %w", err)
		}
		if taken[team] {
			return nil, s.teamTakenError(ctx, team, ErrTeamUnavailable)
		}

		now := s.clock.Now()
		pickNumber := d.PickCount + 1
		d.PickCount++
		p.PicksMade++
		d.UpdatedAt = now

		// Advance the turn against the availability the pick leaves behind
		taken[team] = true
		completed := !s.advanceTurn(d, taken)
		if completed {
			d.Stage = models.DraftStageDone
			d.Status = models.DraftStatusCompleted
		}

		err = s.repo.RecordPick(ctx, &draftRepo.RecordPickInput{
			Draft: d,
			Pick: &models.Pick{
				ID:         s.uuider.NewUUID(),
				DraftID:    d.ID,
				PickNumber: pickNumber,
				UserID:     input.UserID,
				TeamName:   team,
				PickedAt:   now,
			},
			Assignment: &models.AssignedTeam{
				TeamName:   team,
				DraftID:    d.ID,
				UserID:     input.UserID,
				PickNumber: pickNumber,
			},
		})
		if errors.Is(err, draftRepo.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, draftRepo.ErrTeamTaken) {
			return nil, s.teamTakenError(ctx, team, ErrTeamUnavailable)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to commit pick: %w", err)
		}

		log.Info().
			Str("draft_id", d.ID).
			Str("user_id", input.UserID).
			Str("team", team).
			Int("pick_number", pickNumber).
			Msg("pick committed")

		s.publish(ctx, events.Event{Type: events.TypePickMade, DraftID: d.ID, GuildID: d.GuildID, UserID: input.UserID, Team: team, PickNumber: pickNumber, Stage: string(d.Stage)})
		if completed {
			s.publish(ctx, events.Event{Type: events.TypeDraftCompleted, DraftID: d.ID, GuildID: d.GuildID, Stage: string(d.Stage)})
		}

		out := &MakePickOutput{
			Draft:      d,
			Team:       team,
			PickNumber: pickNumber,
			Completed:  completed,
		}
		if !completed {
			if next := s.whoseTurn(d); next != nil {
				out.NextUserID = next.UserID
			}
		}
		return out, nil
	}

	return nil, ErrTryAgain
}

// CancelDraft cancels a guild's open draft
func (s *service) CancelDraft(ctx context.Context, input *CancelDraftInput) (*CancelDraftOutput, error) {
	var d *models.Draft
	for attempt := 0; attempt <= s.config.CommitRetries; attempt++ {
		var err error
		d, err = s.reload(ctx, input.GuildID, d)
		if err != nil {
			return nil, err
		}

		switch d.Status {
		case models.DraftStatusCancelled:
			return nil, ErrDraftCancelled
		case models.DraftStatusCompleted:
			return nil, ErrDraftCompleted
		}

		d.Status = models.DraftStatusCancelled
		d.UpdatedAt = s.clock.Now()

		err = s.repo.CancelDraft(ctx, &draftRepo.CancelDraftInput{
			Draft:        d,
			ReleaseTeams: s.config.ReleaseTeamsOnCancel,
		})
		if errors.Is(err, draftRepo.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to cancel draft: %w", err)
		}

		log.Info().
			Str("draft_id", d.ID).
			Str("guild_id", d.GuildID).
			Bool("released_teams", s.config.ReleaseTeamsOnCancel).
			Msg("draft cancelled")

		s.publish(ctx, events.Event{Type: events.TypeDraftCancelled, DraftID: d.ID, GuildID: d.GuildID, Stage: string(d.Stage)})

		return &CancelDraftOutput{Draft: d}, nil
	}

	return nil, ErrTryAgain
}

// GetStatus returns a draft's state and pick log
func (s *service) GetStatus(ctx context.Context, input *GetStatusInput) (*GetStatusOutput, error) {
	d, err := s.loadOpenOrLatest(ctx, input.GuildID)
	if err != nil {
		return nil, err
	}

	picks, err := s.repo.GetPicks(ctx, &draftRepo.GetPicksInput{DraftID: d.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to read pick log: %w", err)
	}

	out := &GetStatusOutput{
		Draft: d,
		Picks: picks,
	}
	if d.Status == models.DraftStatusActive && d.Stage == models.DraftStageDrafting {
		if turn := s.whoseTurn(d); turn != nil {
			out.CurrentUserID = turn.UserID
		}
	}

	return out, nil
}

// ListAvailableTeams returns the unassigned teams grouped by conference
func (s *service) ListAvailableTeams(ctx context.Context, input *ListAvailableTeamsInput) (*ListAvailableTeamsOutput, error) {
	if _, err := s.loadOpenDraft(ctx, input.GuildID); err != nil {
		return nil, err
	}

	taken, err := s.repo.ListAssignedTeams(ctx, &draftRepo.ListAssignedTeamsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned teams: %w", err)
	}

	out := &ListAvailableTeamsOutput{
		ByConference: make(map[string][]string),
	}
	for _, conference := range s.pool.Conferences() {
		available := s.pool.Available(conference, taken)
		if len(available) == 0 {
			continue
		}
		out.ByConference[conference] = available
		out.Total += len(available)
	}

	return out, nil
}

// ConferenceRosters returns each conference's participants and their teams,
// optionally limited to a single conference
func (s *service) ConferenceRosters(ctx context.Context, input *ConferenceRostersInput) (*ConferenceRostersOutput, error) {
	only := ""
	if input.Conference != "" {
		canon, ok := s.pool.HasConference(input.Conference)
		if !ok {
			return nil, ErrUnknownConference
		}
		only = canon
	}

	d, err := s.loadOpenOrLatest(ctx, input.GuildID)
	if err != nil {
		return nil, err
	}

	rosters := make(map[string]map[string][]string)
	confOf := make(map[string]string, len(d.Participants))
	for _, p := range d.Participants {
		conference := p.Conference
		if conference == "" {
			conference = UnassignedKey
		}
		confOf[p.UserID] = conference

		if rosters[conference] == nil {
			rosters[conference] = make(map[string][]string)
		}
		rosters[conference][p.UserID] = nil
		if p.ClaimedTeam != "" {
			rosters[conference][p.UserID] = append(rosters[conference][p.UserID], p.ClaimedTeam)
		}
	}

	picks, err := s.repo.GetPicks(ctx, &draftRepo.GetPicksInput{DraftID: d.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to read pick log: %w", err)
	}
	for _, pick := range picks {
		conference, ok := confOf[pick.UserID]
		if !ok {
			conference = UnassignedKey
		}
		if rosters[conference] == nil {
			rosters[conference] = make(map[string][]string)
		}
		rosters[conference][pick.UserID] = append(rosters[conference][pick.UserID], pick.TeamName)
	}

	if only != "" {
		filtered := make(map[string]map[string][]string)
		if roster, ok := rosters[only]; ok {
			filtered[only] = roster
		}
		rosters = filtered
	}

	return &ConferenceRostersOutput{
		DraftID: d.ID,
		Rosters: rosters,
	}, nil
}

// ListConferences returns conference slot usage for a draft
func (s *service) ListConferences(ctx context.Context, input *ListConferencesInput) (*ListConferencesOutput, error) {
	d, err := s.loadOpenOrLatest(ctx, input.GuildID)
	if err != nil {
		return nil, err
	}

	slots := make(map[string][]string)
	for _, p := range d.Participants {
		conference := p.Conference
		if conference == "" {
			conference = UnassignedKey
		}
		slots[conference] = append(slots[conference], p.UserID)
	}

	return &ListConferencesOutput{
		DraftID:          d.ID,
		Slots:            slots,
		MaxPerConference: s.config.MaxUsersPerConference,
	}, nil
}

// reload fetches the draft for a write operation. The first load resolves
// the guild's open draft, falling back to the latest one so actions against
// a closed draft report its completed or cancelled state. Retries after a
// lost commit race re-read the same draft by ID so a cancellation that
// happened in between is reported as such rather than as a missing draft.
func (s *service) reload(ctx context.Context, guildID string, prev *models.Draft) (*models.Draft, error) {
	if prev == nil {
		d, err := s.loadOpenOrLatest(ctx, guildID)
		if errors.Is(err, ErrNoDraft) {
			return nil, ErrNoActiveDraft
		}
		return d, err
	}

	d, err := s.repo.GetDraft(ctx, &draftRepo.GetDraftInput{DraftID: prev.ID})
	if err != nil {
		if errors.Is(err, draftRepo.ErrDraftNotFound) {
			return nil, ErrNoActiveDraft
		}
		return nil, fmt.Errorf("failed to reload draft: %w", err)
	}
	return d, nil
}

// loadOpenDraft resolves a guild's open draft
func (s *service) loadOpenDraft(ctx context.Context, guildID string) (*models.Draft, error) {
	d, err := s.repo.GetOpenDraftByGuild(ctx, &draftRepo.GetOpenDraftByGuildInput{GuildID: guildID})
	if err != nil {
		if errors.Is(err, draftRepo.ErrDraftNotFound) {
			return nil, ErrNoActiveDraft
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return d, nil
}

// loadOpenOrLatest resolves the open draft, falling back to the most
// recent one for post-draft reads
func (s *service) loadOpenOrLatest(ctx context.Context, guildID string) (*models.Draft, error) {
	d, err := s.repo.GetOpenDraftByGuild(ctx, &draftRepo.GetOpenDraftByGuildInput{GuildID: guildID})
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, draftRepo.ErrDraftNotFound) {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	d, err = s.repo.GetLatestDraftByGuild(ctx, &draftRepo.GetLatestDraftByGuildInput{GuildID: guildID})
	if err != nil {
		if errors.Is(err, draftRepo.ErrDraftNotFound) {
			return nil, ErrNoDraft
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return d, nil
}

// checkStage verifies the draft accepts the requested kind of action
func (s *service) checkStage(d *models.Draft, want models.DraftStage) error {
	switch d.Status {
	case models.DraftStatusCancelled:
		return ErrDraftCancelled
	case models.DraftStatusCompleted:
		return ErrDraftCompleted
	}

	if d.Stage != want {
		if d.Stage == models.DraftStageDone {
			return ErrDraftCompleted
		}
		return ErrInvalidStage
	}
	return nil
}

// countConference counts participants who chose the given conference
func (s *service) countConference(d *models.Draft, conference string) int {
	count := 0
	for _, p := range d.Participants {
		if p.ConferenceChosen && p.Conference == conference {
			count++
		}
	}
	return count
}

// teamTakenError decorates a taken-team failure with who holds the team
func (s *service) teamTakenError(ctx context.Context, team string, sentinel error) error {
	assignment, err := s.repo.GetTeamAssignment(ctx, &draftRepo.GetTeamAssignmentInput{TeamName: team})
	if err != nil {
		return sentinel
	}
	return &TeamTakenError{
		TeamName:   assignment.TeamName,
		UserID:     assignment.UserID,
		DraftID:    assignment.DraftID,
		PickNumber: assignment.PickNumber,
		sentinel:   sentinel,
	}
}

// publish sends an event after a successful commit. Failures are logged
// and never affect the committed action.
func (s *service) publish(ctx context.Context, event events.Event) {
	event.ID = s.uuider.NewUUID()
	event.Timestamp = s.clock.Now()

	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("type", event.Type).
			Str("draft_id", event.DraftID).
			Msg("failed to publish draft event")
	}
}
