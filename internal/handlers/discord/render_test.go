package discord

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"

	"github.com/draftnight/draftbot/internal/models"
	draftsvc "github.com/draftnight/draftbot/internal/services/draft"
)

type RenderTestSuite struct {
	suite.Suite
}

func TestRenderTestSuite(t *testing.T) {
	suite.Run(t, new(RenderTestSuite))
}

func (s *RenderTestSuite) TestErrorMessageMapsSentinels() {
	s.Contains(errorMessage(draftsvc.ErrNotYourTurn), "not your turn")
	s.Contains(errorMessage(draftsvc.ErrNoActiveDraft), "/draft start")
	s.Contains(errorMessage(draftsvc.ErrConferenceFull), "full")
}

func (s *RenderTestSuite) TestErrorMessageNamesTeamHolder() {
	err := draftsvc.NewTeamTakenError("Georgia", "user-1", "draft-1", 3, draftsvc.ErrTeamUnavailable)

	message := errorMessage(err)
	s.Contains(message, "Georgia")
	s.Contains(message, "<@user-1>")
	s.Contains(message, "pick #3")
}

func (s *RenderTestSuite) TestRenderStatusShowsTurnAndPicks() {
	output := &draftsvc.GetStatusOutput{
		Draft: &models.Draft{
			Status: models.DraftStatusActive,
			Stage:  models.DraftStageDrafting,
			Participants: []*models.Participant{
				{UserID: "user-1", PickOrder: 0, Conference: "SEC", ClaimedTeam: "Georgia", PicksMade: 1},
				{UserID: "user-2", PickOrder: 1, Conference: "ACC", ClaimedTeam: "Clemson"},
			},
			PickCount: 1,
		},
		Picks: []*models.Pick{
			{PickNumber: 1, UserID: "user-1", TeamName: "Alabama"},
		},
		CurrentUserID: "user-2",
	}

	title, description, fields := renderStatus(output)
	s.Equal("Draft in Progress", title)
	s.Contains(description, "<@user-2> is on the clock")
	s.Require().Len(fields, 2)
	s.Contains(fields[0].Value, "claimed **Georgia**")
	s.Contains(fields[1].Value, "#1 <@user-1>: **Alabama**")
}

func (s *RenderTestSuite) TestTruncateRespectsEmbedLimit() {
	s.Equal("-", truncate(""))
	s.Equal("short", truncate("short"))

	long := truncate(strings.Repeat("x", 2000))
	s.Len(long, maxFieldLength)
	s.True(strings.HasSuffix(long, "..."))
}

func (s *RenderTestSuite) TestTruncateKeepsRunesIntact() {
	long := truncate(strings.Repeat("é", 1500))
	s.True(utf8.ValidString(long))
	s.LessOrEqual(len(long), maxFieldLength)
	s.True(strings.HasSuffix(long, "..."))
}

func (s *RenderTestSuite) TestMemberUserID() {
	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: &discordgo.User{ID: "user-1"}},
	}}
	userID, ok := memberUserID(guild)
	s.True(ok)
	s.Equal("user-1", userID)

	// DM interactions carry the user directly and no member
	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		User: &discordgo.User{ID: "user-1"},
	}}
	_, ok = memberUserID(dm)
	s.False(ok)
}
