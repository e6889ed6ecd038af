package draft

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	clockMocks "github.com/draftnight/draftbot/internal/common/clock/mocks"
	"github.com/draftnight/draftbot/internal/events"
	eventMocks "github.com/draftnight/draftbot/internal/events/mocks"
	"github.com/draftnight/draftbot/internal/models"
	draftRepo "github.com/draftnight/draftbot/internal/repositories/draft"
	"github.com/draftnight/draftbot/internal/teams"
)

const (
	testGuild   = "guild-1"
	testChannel = "channel-1"
)

type DraftServiceTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mr        *miniredis.Miniredis
	client    *redis.Client
	repo      draftRepo.Repository
	pool      *teams.Pool
	publisher *eventMocks.MockPublisher
	clock     *clockMocks.MockClock
	published []string
	ctx       context.Context
	testNow   time.Time
}

func (s *DraftServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ctx = context.Background()
	s.testNow = time.Date(2025, 9, 6, 12, 0, 0, 0, time.UTC)

	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	repo, err := draftRepo.NewRedis(&draftRepo.Config{
		RedisClient: s.client,
	})
	s.Require().NoError(err)
	s.repo = repo

	pool, err := teams.New(map[string][]string{
		"East": {"Red Hawks", "Blue Jays", "Green Gators", "Gold Eagles", "Iron Hornets"},
		"West": {"Silver Wolves", "Black Bears", "White Sharks", "Purple Lions", "Copper Rams"},
	})
	s.Require().NoError(err)
	s.pool = pool

	s.clock = clockMocks.NewMockClock(s.ctrl)
	s.clock.EXPECT().Now().Return(s.testNow).AnyTimes()

	s.published = nil
	s.publisher = eventMocks.NewMockPublisher(s.ctrl)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event events.Event) error {
			s.published = append(s.published, event.Type)
			return nil
		}).AnyTimes()
}

func (s *DraftServiceTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
	s.ctrl.Finish()
}

func TestDraftServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DraftServiceTestSuite))
}

func (s *DraftServiceTestSuite) newService(mutate func(*Config)) Service {
	cfg := &Config{
		Repo:                  s.repo,
		Pool:                  s.pool,
		Publisher:             s.publisher,
		Clock:                 s.clock,
		DefaultPicksAllowed:   2,
		MaxUsersPerConference: 2,
		ReleaseTeamsOnCancel:  true,
	}
	if mutate != nil {
		mutate(cfg)
	}

	svc, err := New(cfg)
	s.Require().NoError(err)
	return svc
}

func (s *DraftServiceTestSuite) startDraft(svc Service, users ...string) *models.Draft {
	out, err := svc.StartDraft(s.ctx, &StartDraftInput{
		GuildID:   testGuild,
		ChannelID: testChannel,
		UserIDs:   users,
	})
	s.Require().NoError(err)
	return out.Draft
}

func (s *DraftServiceTestSuite) choose(svc Service, userID, conference string) *ChooseConferenceOutput {
	out, err := svc.ChooseConference(s.ctx, &ChooseConferenceInput{
		GuildID:    testGuild,
		UserID:     userID,
		Conference: conference,
	})
	s.Require().NoError(err)
	return out
}

func (s *DraftServiceTestSuite) claim(svc Service, userID, team string) *ClaimTeamOutput {
	out, err := svc.ClaimTeam(s.ctx, &ClaimTeamInput{
		GuildID:  testGuild,
		UserID:   userID,
		TeamName: team,
	})
	s.Require().NoError(err)
	return out
}

func (s *DraftServiceTestSuite) pick(svc Service, userID, team string) *MakePickOutput {
	out, err := svc.MakePick(s.ctx, &MakePickInput{
		GuildID:  testGuild,
		UserID:   userID,
		TeamName: team,
	})
	s.Require().NoError(err)
	return out
}

// toDrafting walks a two-user draft through both pre-draft stages
func (s *DraftServiceTestSuite) toDrafting(svc Service) *models.Draft {
	s.startDraft(svc, "user-1", "user-2")
	s.choose(svc, "user-1", "East")
	s.choose(svc, "user-2", "West")
	s.claim(svc, "user-1", "Red Hawks")
	out := s.claim(svc, "user-2", "Silver Wolves")
	s.Require().True(out.StageAdvanced)
	return out.Draft
}

func (s *DraftServiceTestSuite) TestStartDraft() {
	svc := s.newService(nil)

	d := s.startDraft(svc, "user-1", "user-2", "user-3")

	s.Equal(models.DraftStatusPending, d.Status)
	s.Equal(models.DraftStageConference, d.Stage)
	s.Len(d.Participants, 3)
	s.Equal(0, d.Participants[0].PickOrder)
	s.Equal(2, d.Participants[2].PickOrder)
	s.Equal(2, d.PicksAllowed("user-1"))
	s.Equal(s.testNow, d.CreatedAt)
	s.Contains(s.published, events.TypeDraftStarted)
}

func (s *DraftServiceTestSuite) TestStartDraftGuildAlreadyHasOne() {
	svc := s.newService(nil)
	s.startDraft(svc, "user-1", "user-2")

	_, err := svc.StartDraft(s.ctx, &StartDraftInput{
		GuildID:   testGuild,
		ChannelID: testChannel,
		UserIDs:   []string{"user-3", "user-4"},
	})
	s.ErrorIs(err, ErrDraftInProgress)
}

func (s *DraftServiceTestSuite) TestStartDraftValidation() {
	svc := s.newService(nil)

	_, err := svc.StartDraft(s.ctx, &StartDraftInput{
		GuildID: testGuild,
		UserIDs: []string{"user-1"},
	})
	s.ErrorIs(err, ErrTooFewParticipants)

	_, err = svc.StartDraft(s.ctx, &StartDraftInput{
		GuildID: testGuild,
		UserIDs: []string{"user-1", "user-1"},
	})
	s.ErrorIs(err, ErrDuplicateUser)
}

func (s *DraftServiceTestSuite) TestStartDraftPickCapOverride() {
	svc := s.newService(nil)

	out, err := svc.StartDraft(s.ctx, &StartDraftInput{
		GuildID:      testGuild,
		ChannelID:    testChannel,
		UserIDs:      []string{"user-1", "user-2"},
		PicksAllowed: 5,
	})
	s.Require().NoError(err)
	s.Equal(5, out.Draft.PicksAllowed("user-2"))
}

func (s *DraftServiceTestSuite) TestChooseConference() {
	svc := s.newService(nil)
	s.startDraft(svc, "user-1", "user-2")

	// Loose match: case and spacing are normalized away
	out := s.choose(svc, "user-1", "  east ")
	s.Equal("East", out.Conference)
	s.False(out.StageAdvanced)
	s.Equal(1, out.Remaining)

	out = s.choose(svc, "user-2", "West")
	s.True(out.StageAdvanced)
	s.Equal(0, out.Remaining)
	s.Equal(models.DraftStageClaim, out.Draft.Stage)
	s.Contains(s.published, events.TypeStageAdvanced)
}

func (s *DraftServiceTestSuite) TestChooseConferenceRejections() {
	svc := s.newService(nil)
	s.startDraft(svc, "user-1", "user-2", "user-3")

	_, err := svc.ChooseConference(s.ctx, &ChooseConferenceInput{
		GuildID: testGuild, UserID: "stranger", Conference: "East",
	})
	s.ErrorIs(err, ErrNotAParticipant)

	_, err = svc.ChooseConference(s.ctx, &ChooseConferenceInput{
		GuildID: testGuild, UserID: "user-1", Conference: "Midwest",
	})
	s.ErrorIs(err, ErrUnknownConference)

	s.choose(svc, "user-1", "East")
	_, err = svc.ChooseConference(s.ctx, &ChooseConferenceInput{
		GuildID: testGuild, UserID: "user-1", Conference: "West",
	})
	s.ErrorIs(err, ErrAlreadyChosen)
}

func (s *DraftServiceTestSuite) TestChooseConferenceFull() {
	svc := s.newService(nil)
	s.startDraft(svc, "user-1", "user-2", "user-3")

	s.choose(svc, "user-1", "East")
	s.choose(svc, "user-2", "East")

	_, err := svc.ChooseConference(s.ctx, &ChooseConferenceInput{
		GuildID: testGuild, UserID: "user-3", Conference: "East",
	})
	s.ErrorIs(err, ErrConferenceFull)

	out := s.choose(svc, "user-3", "West")
	s.True(out.StageAdvanced)
}

func (s *DraftServiceTestSuite) TestClaimTeam() {
	svc := s.newService(nil)
	s.startDraft(svc, "user-1", "user-2")
	s.choose(svc, "user-1", "East")
	s.choose(svc, "user-2", "West")

	out := s.claim(svc, "user-1", "red hawks")
	s.Equal("Red Hawks", out.Team)
	s.False(out.StageAdvanced)
	s.Equal(1, out.Remaining)

	out = s.claim(svc, "user-2", "Silver Wolves")
	s.True(out.StageAdvanced)
	s.Equal(models.DraftStageDrafting, out.Draft.Stage)
	s.Equal(models.DraftStatusActive, out.Draft.Status)
	s.Equal(0, out.Draft.CurrentPickIndex)
	s.Equal("user-1", out.NextUserID)
}

func (s *DraftServiceTestSuite) TestClaimBeforeConferenceStageDone() {
	svc := s.newService(nil)
	s.startDraft(svc, "user-1", "user-2")
	s.choose(svc, "user-1", "East")

	_, err := svc.ClaimTeam(s.ctx, &ClaimTeamInput{
		GuildID: testGuild, UserID: "user-1", TeamName: "Red Hawks",
	})
	s.ErrorIs(err, ErrInvalidStage)
}

func (s *DraftServiceTestSuite) TestClaimOutsideOwnConference() {
	svc := s.newService(nil)
	s.startDraft(svc, "user-1", "user-2")
	s.choose(svc, "user-1", "East")
	s.choose(svc, "user-2", "West")

	_, err := svc.ClaimTeam(s.ctx, &ClaimTeamInput{
		GuildID: testGuild, UserID: "user-1", TeamName: "Silver Wolves",
	})
	s.ErrorIs(err, ErrTeamUnavailable)
}

func (s *DraftServiceTestSuite) TestClaimContestedTeam() {
	svc := s.newService(nil)
	s.startDraft(svc, "user-1", "user-2", "user-3")
	s.choose(svc, "user-1", "East")
	s.choose(svc, "user-2", "East")
	s.choose(svc, "user-3", "West")
	s.claim(svc, "user-1", "Red Hawks")

	_, err := svc.ClaimTeam(s.ctx, &ClaimTeamInput{
		GuildID: testGuild, UserID: "user-2", TeamName: "Red Hawks",
	})
	s.ErrorIs(err, ErrTeamAlreadyClaimed)

	var taken *TeamTakenError
	s.Require().ErrorAs(err, &taken)
	s.Equal("Red Hawks", taken.TeamName)
	s.Equal("user-1", taken.UserID)
	s.Equal(0, taken.PickNumber)

	// The loser keeps their claim slot
	out := s.claim(svc, "user-2", "Blue Jays")
	s.Equal("Blue Jays", out.Team)
}

func (s *DraftServiceTestSuite) TestMakePickTurnOrder() {
	svc := s.newService(nil)
	s.toDrafting(svc)

	_, err := svc.MakePick(s.ctx, &MakePickInput{
		GuildID: testGuild, UserID: "user-2", TeamName: "Black Bears",
	})
	s.ErrorIs(err, ErrNotYourTurn)

	out := s.pick(svc, "user-1", "Blue Jays")
	s.Equal(1, out.PickNumber)
	s.Equal("user-2", out.NextUserID)

	out = s.pick(svc, "user-2", "Black Bears")
	s.Equal(2, out.PickNumber)
	s.Equal("user-1", out.NextUserID)
}

func (s *DraftServiceTestSuite) TestMakePickRejections() {
	svc := s.newService(nil)
	s.toDrafting(svc)

	_, err := svc.MakePick(s.ctx, &MakePickInput{
		GuildID: testGuild, UserID: "user-1", TeamName: "Crimson Yetis",
	})
	s.ErrorIs(err, ErrUnknownTeam)

	// Claimed teams are off the board for picks too
	_, err = svc.MakePick(s.ctx, &MakePickInput{
		GuildID: testGuild, UserID: "user-1", TeamName: "Silver Wolves",
	})
	s.ErrorIs(err, ErrTeamUnavailable)

	var taken *TeamTakenError
	s.Require().ErrorAs(err, &taken)
	s.Equal("user-2", taken.UserID)
}

func (s *DraftServiceTestSuite) TestMakePickConferenceRestricted() {
	svc := s.newService(func(cfg *Config) {
		cfg.RestrictPicksToConference = true
	})
	s.toDrafting(svc)

	_, err := svc.MakePick(s.ctx, &MakePickInput{
		GuildID: testGuild, UserID: "user-1", TeamName: "Black Bears",
	})
	s.ErrorIs(err, ErrTeamUnavailable)

	out := s.pick(svc, "user-1", "Blue Jays")
	s.Equal(1, out.PickNumber)
}

func (s *DraftServiceTestSuite) TestDraftCompletes() {
	svc := s.newService(func(cfg *Config) {
		cfg.DefaultPicksAllowed = 1
	})
	s.toDrafting(svc)

	out := s.pick(svc, "user-1", "Blue Jays")
	s.False(out.Completed)

	out = s.pick(svc, "user-2", "Black Bears")
	s.True(out.Completed)
	s.Empty(out.NextUserID)
	s.Equal(models.DraftStatusCompleted, out.Draft.Status)
	s.Equal(models.DraftStageDone, out.Draft.Stage)
	s.Contains(s.published, events.TypeDraftCompleted)

	// The draft is closed: no further actions, but status still reads
	_, err := svc.MakePick(s.ctx, &MakePickInput{
		GuildID: testGuild, UserID: "user-1", TeamName: "Green Gators",
	})
	s.ErrorIs(err, ErrDraftCompleted)

	status, err := svc.GetStatus(s.ctx, &GetStatusInput{GuildID: testGuild})
	s.Require().NoError(err)
	s.Equal(models.DraftStatusCompleted, status.Draft.Status)
	s.Len(status.Picks, 2)
}

func (s *DraftServiceTestSuite) TestPickLimitReached() {
	svc := s.newService(nil)
	s.toDrafting(svc)

	s.pick(svc, "user-1", "Blue Jays")
	s.pick(svc, "user-2", "Black Bears")
	s.pick(svc, "user-1", "Green Gators")

	// user-1 is capped at 2, so the turn tracker skips straight past them
	// once user-2 has picked again
	out := s.pick(svc, "user-2", "White Sharks")
	s.True(out.Completed)
}

func (s *DraftServiceTestSuite) TestSingleRoundRunsInPickOrder() {
	svc := s.newService(func(cfg *Config) {
		cfg.DefaultPicksAllowed = 1
	})
	s.startDraft(svc, "user-1", "user-2", "user-3")
	s.choose(svc, "user-1", "East")
	s.choose(svc, "user-2", "East")
	s.choose(svc, "user-3", "West")
	s.claim(svc, "user-1", "Red Hawks")
	s.claim(svc, "user-2", "Blue Jays")
	s.claim(svc, "user-3", "Silver Wolves")

	s.Equal(1, s.pick(svc, "user-1", "Green Gators").PickNumber)
	s.Equal(2, s.pick(svc, "user-2", "Gold Eagles").PickNumber)

	final := s.pick(svc, "user-3", "Black Bears")
	s.Equal(3, final.PickNumber)
	s.True(final.Completed)

	_, err := svc.MakePick(s.ctx, &MakePickInput{
		GuildID: testGuild, UserID: "user-2", TeamName: "White Sharks",
	})
	s.ErrorIs(err, ErrDraftCompleted)
}

func (s *DraftServiceTestSuite) TestSnakeOrder() {
	svc := s.newService(func(cfg *Config) {
		cfg.TurnPolicy = TurnPolicySnake
	})
	s.startDraft(svc, "user-1", "user-2", "user-3")
	s.choose(svc, "user-1", "East")
	s.choose(svc, "user-2", "East")
	s.choose(svc, "user-3", "West")
	s.claim(svc, "user-1", "Red Hawks")
	s.claim(svc, "user-2", "Blue Jays")
	out := s.claim(svc, "user-3", "Silver Wolves")
	s.Equal("user-1", out.NextUserID)

	// Snake: 1, 2, 3 then 3, 2, 1
	s.Equal("user-2", s.pick(svc, "user-1", "Green Gators").NextUserID)
	s.Equal("user-3", s.pick(svc, "user-2", "Gold Eagles").NextUserID)
	s.Equal("user-3", s.pick(svc, "user-3", "Black Bears").NextUserID)
	s.Equal("user-2", s.pick(svc, "user-3", "White Sharks").NextUserID)
	s.Equal("user-1", s.pick(svc, "user-2", "Iron Hornets").NextUserID)
	s.True(s.pick(svc, "user-1", "Purple Lions").Completed)
}

func (s *DraftServiceTestSuite) TestCancelDraft() {
	svc := s.newService(nil)
	s.toDrafting(svc)
	s.pick(svc, "user-1", "Blue Jays")

	out, err := svc.CancelDraft(s.ctx, &CancelDraftInput{GuildID: testGuild})
	s.Require().NoError(err)
	s.Equal(models.DraftStatusCancelled, out.Draft.Status)
	s.Contains(s.published, events.TypeDraftCancelled)

	_, err = svc.CancelDraft(s.ctx, &CancelDraftInput{GuildID: testGuild})
	s.ErrorIs(err, ErrDraftCancelled)

	// Released teams are claimable again in the guild's next draft
	s.startDraft(svc, "user-1", "user-2")
	s.choose(svc, "user-1", "East")
	s.choose(svc, "user-2", "West")
	claimed := s.claim(svc, "user-1", "Red Hawks")
	s.Equal("Red Hawks", claimed.Team)
}

func (s *DraftServiceTestSuite) TestCancelKeepsTeamsWhenConfigured() {
	svc := s.newService(func(cfg *Config) {
		cfg.ReleaseTeamsOnCancel = false
	})
	s.toDrafting(svc)

	_, err := svc.CancelDraft(s.ctx, &CancelDraftInput{GuildID: testGuild})
	s.Require().NoError(err)

	s.startDraft(svc, "user-1", "user-2")
	s.choose(svc, "user-1", "East")
	s.choose(svc, "user-2", "West")
	_, err = svc.ClaimTeam(s.ctx, &ClaimTeamInput{
		GuildID: testGuild, UserID: "user-1", TeamName: "Red Hawks",
	})
	s.ErrorIs(err, ErrTeamAlreadyClaimed)
}

func (s *DraftServiceTestSuite) TestGetStatus() {
	svc := s.newService(nil)

	_, err := svc.GetStatus(s.ctx, &GetStatusInput{GuildID: testGuild})
	s.ErrorIs(err, ErrNoDraft)

	s.toDrafting(svc)
	s.pick(svc, "user-1", "Blue Jays")

	out, err := svc.GetStatus(s.ctx, &GetStatusInput{GuildID: testGuild})
	s.Require().NoError(err)
	s.Equal(models.DraftStageDrafting, out.Draft.Stage)
	s.Equal("user-2", out.CurrentUserID)
	s.Require().Len(out.Picks, 1)
	s.Equal("Blue Jays", out.Picks[0].TeamName)
	s.Equal(1, out.Picks[0].PickNumber)
}

func (s *DraftServiceTestSuite) TestListAvailableTeams() {
	svc := s.newService(nil)
	s.toDrafting(svc)
	s.pick(svc, "user-1", "Blue Jays")

	out, err := svc.ListAvailableTeams(s.ctx, &ListAvailableTeamsInput{GuildID: testGuild})
	s.Require().NoError(err)
	s.Equal(7, out.Total)
	s.NotContains(out.ByConference["East"], "Red Hawks")
	s.NotContains(out.ByConference["East"], "Blue Jays")
	s.NotContains(out.ByConference["West"], "Silver Wolves")
	s.Contains(out.ByConference["West"], "Black Bears")
}

func (s *DraftServiceTestSuite) TestConferenceRosters() {
	svc := s.newService(nil)
	s.toDrafting(svc)
	s.pick(svc, "user-1", "Blue Jays")
	s.pick(svc, "user-2", "Black Bears")

	out, err := svc.ConferenceRosters(s.ctx, &ConferenceRostersInput{GuildID: testGuild})
	s.Require().NoError(err)
	s.Equal([]string{"Red Hawks", "Blue Jays"}, out.Rosters["East"]["user-1"])
	s.Equal([]string{"Silver Wolves", "Black Bears"}, out.Rosters["West"]["user-2"])
}

func (s *DraftServiceTestSuite) TestConferenceRostersSingleConference() {
	svc := s.newService(nil)
	s.toDrafting(svc)
	s.pick(svc, "user-1", "Blue Jays")
	s.pick(svc, "user-2", "Black Bears")

	// Loose match scopes the view to one conference
	out, err := svc.ConferenceRosters(s.ctx, &ConferenceRostersInput{
		GuildID:    testGuild,
		Conference: " west ",
	})
	s.Require().NoError(err)
	s.Require().Len(out.Rosters, 1)
	s.Equal([]string{"Silver Wolves", "Black Bears"}, out.Rosters["West"]["user-2"])

	_, err = svc.ConferenceRosters(s.ctx, &ConferenceRostersInput{
		GuildID:    testGuild,
		Conference: "Midwest",
	})
	s.ErrorIs(err, ErrUnknownConference)
}

func (s *DraftServiceTestSuite) TestListConferences() {
	svc := s.newService(nil)
	s.startDraft(svc, "user-1", "user-2", "user-3")
	s.choose(svc, "user-1", "East")
	s.choose(svc, "user-2", "East")

	out, err := svc.ListConferences(s.ctx, &ListConferencesInput{GuildID: testGuild})
	s.Require().NoError(err)
	s.Equal([]string{"user-1", "user-2"}, out.Slots["East"])
	s.Equal([]string{"user-3"}, out.Slots[UnassignedKey])
	s.Equal(2, out.MaxPerConference)
}
