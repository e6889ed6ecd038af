package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	draftsvc "github.com/draftnight/draftbot/internal/services/draft"
)

// DraftCommand handles the /draft command
type DraftCommand struct {
	BaseCommand
	draftService draftsvc.Service
	adminUserID  string
}

// NewDraftCommand creates a new draft command handler
func NewDraftCommand(draftService draftsvc.Service, adminUserID string) *DraftCommand {
	userOption := func(name string, required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        name,
			Description: "Draft participant, in pick order",
			Required:    required,
		}
	}

	return &DraftCommand{
		BaseCommand: BaseCommand{
			Name:        "draft",
			Description: "Team draft commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Start a new draft with the listed users",
					Options: []*discordgo.ApplicationCommandOption{
						userOption("user1", true),
						userOption("user2", true),
						userOption("user3", false),
						userOption("user4", false),
						userOption("user5", false),
						userOption("user6", false),
						userOption("user7", false),
						userOption("user8", false),
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "picks_allowed",
							Description: "Picks per participant (0 for unlimited)",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "conference",
					Description: "Choose your conference",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Conference name",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "claim",
					Description: "Claim your team before the draft begins",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "team",
							Description: "Team name",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "pick",
					Description: "Pick a team on your turn",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "team",
							Description: "Team name",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show the draft's current state",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "available",
					Description: "List the teams still on the board",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "rosters",
					Description: "Show conference rosters",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Show only this conference",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "conferences",
					Description: "Show conference slot usage",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "end",
					Description: "Cancel the current draft",
				},
			},
		},
		draftService: draftService,
		adminUserID:  adminUserID,
	}
}

// Handle processes a Discord interaction for the draft command
func (c *DraftCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	data := i.ApplicationCommandData()
	if data.Name != c.Name {
		return nil
	}

	userID, ok := memberUserID(i)
	if !ok {
		return RespondWithEphemeralMessage(s, i, "Draft commands only work inside a server.")
	}

	options := optionMap(data.Options[0].Options)

	switch data.Options[0].Name {
	case "start":
		return c.handleStart(s, i, userID, options)
	case "conference":
		return c.handleConference(s, i, userID, options)
	case "claim":
		return c.handleClaim(s, i, userID, options)
	case "pick":
		return c.handlePick(s, i, userID, options)
	case "status":
		return c.handleStatus(s, i)
	case "available":
		return c.handleAvailable(s, i)
	case "rosters":
		return c.handleRosters(s, i, options)
	case "conferences":
		return c.handleConferences(s, i)
	case "end":
		return c.handleEnd(s, i, userID)
	default:
		return errors.New("unknown subcommand")
	}
}

// isAdmin reports whether the user may run admin-only subcommands
func (c *DraftCommand) isAdmin(userID string) bool {
	return c.adminUserID == "" || c.adminUserID == userID
}

// handleStart handles the start subcommand
func (c *DraftCommand) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate, userID string, options map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	if !c.isAdmin(userID) {
		return RespondWithError(s, i, "Only the draft admin can start a draft.")
	}

	ctx := context.Background()

	var userIDs []string
	for n := 1; n <= 8; n++ {
		opt, ok := options[fmt.Sprintf("user%d", n)]
		if !ok {
			continue
		}
		userIDs = append(userIDs, opt.UserValue(nil).ID)
	}

	picksAllowed := 0
	if opt, ok := options["picks_allowed"]; ok {
		picksAllowed = int(opt.IntValue())
	}

	output, err := c.draftService.StartDraft(ctx, &draftsvc.StartDraftInput{
		GuildID:      i.GuildID,
		ChannelID:    i.ChannelID,
		UserIDs:      userIDs,
		PicksAllowed: picksAllowed,
	})
	if err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("failed to start draft")
		return RespondWithError(s, i, errorMessage(err))
	}

	return RespondWithEmbed(s, i, "Draft Started", renderDraftStarted(output.Draft), nil)
}

// handleConference handles the conference subcommand
func (c *DraftCommand) handleConference(s *discordgo.Session, i *discordgo.InteractionCreate, userID string, options map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	ctx := context.Background()

	output, err := c.draftService.ChooseConference(ctx, &draftsvc.ChooseConferenceInput{
		GuildID:    i.GuildID,
		UserID:     userID,
		Conference: options["name"].StringValue(),
	})
	if err != nil {
		return RespondWithError(s, i, errorMessage(err))
	}

	message := fmt.Sprintf("<@%s> joined the **%s** conference.", userID, output.Conference)
	if output.StageAdvanced {
		message += "\n\nEveryone has chosen a conference. Claim your team with `/draft claim`."
	} else {
		message += fmt.Sprintf(" Waiting on %d more.", output.Remaining)
	}

	return RespondWithMessage(s, i, message)
}

// handleClaim handles the claim subcommand
func (c *DraftCommand) handleClaim(s *discordgo.Session, i *discordgo.InteractionCreate, userID string, options map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	ctx := context.Background()

	output, err := c.draftService.ClaimTeam(ctx, &draftsvc.ClaimTeamInput{
		GuildID:  i.GuildID,
		UserID:   userID,
		TeamName: options["team"].StringValue(),
	})
	if err != nil {
		return RespondWithError(s, i, errorMessage(err))
	}

	message := fmt.Sprintf("<@%s> claimed **%s**.", userID, output.Team)
	if output.StageAdvanced {
		message += fmt.Sprintf("\n\nAll teams are claimed. The draft begins! <@%s> is on the clock.", output.NextUserID)
	} else {
		message += fmt.Sprintf(" Waiting on %d more claim(s).", output.Remaining)
	}

	return RespondWithMessage(s, i, message)
}

// handlePick handles the pick subcommand
func (c *DraftCommand) handlePick(s *discordgo.Session, i *discordgo.InteractionCreate, userID string, options map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	ctx := context.Background()

	output, err := c.draftService.MakePick(ctx, &draftsvc.MakePickInput{
		GuildID:  i.GuildID,
		UserID:   userID,
		TeamName: options["team"].StringValue(),
	})
	if err != nil {
		return RespondWithError(s, i, errorMessage(err))
	}

	message := fmt.Sprintf("Pick #%d: <@%s> takes **%s**.", output.PickNumber, userID, output.Team)
	if output.Completed {
		message += "\n\nThat's the last pick. The draft is complete! 🏆"
	} else {
		message += fmt.Sprintf(" <@%s> is on the clock.", output.NextUserID)
	}

	return RespondWithMessage(s, i, message)
}

// handleStatus handles the status subcommand
func (c *DraftCommand) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	output, err := c.draftService.GetStatus(ctx, &draftsvc.GetStatusInput{
		GuildID: i.GuildID,
	})
	if err != nil {
		return RespondWithError(s, i, errorMessage(err))
	}

	title, description, fields := renderStatus(output)
	return RespondWithEmbed(s, i, title, description, fields)
}

// handleAvailable handles the available subcommand
func (c *DraftCommand) handleAvailable(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	output, err := c.draftService.ListAvailableTeams(ctx, &draftsvc.ListAvailableTeamsInput{
		GuildID: i.GuildID,
	})
	if err != nil {
		return RespondWithError(s, i, errorMessage(err))
	}

	description := fmt.Sprintf("%d team(s) still on the board.", output.Total)
	return RespondWithEmbed(s, i, "Available Teams", description, renderAvailable(output))
}

// handleRosters handles the rosters subcommand, optionally scoped to one
// conference
func (c *DraftCommand) handleRosters(s *discordgo.Session, i *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) error {
	ctx := context.Background()

	conference := ""
	if opt, ok := options["name"]; ok {
		conference = opt.StringValue()
	}

	output, err := c.draftService.ConferenceRosters(ctx, &draftsvc.ConferenceRostersInput{
		GuildID:    i.GuildID,
		Conference: conference,
	})
	if err != nil {
		return RespondWithError(s, i, errorMessage(err))
	}

	return RespondWithEmbed(s, i, "Conference Rosters", "", renderRosters(output))
}

// handleConferences handles the conferences subcommand
func (c *DraftCommand) handleConferences(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	output, err := c.draftService.ListConferences(ctx, &draftsvc.ListConferencesInput{
		GuildID: i.GuildID,
	})
	if err != nil {
		return RespondWithError(s, i, errorMessage(err))
	}

	description := fmt.Sprintf("Up to %d participant(s) per conference.", output.MaxPerConference)
	return RespondWithEmbed(s, i, "Conferences", description, renderConferences(output))
}

// handleEnd handles the end subcommand
func (c *DraftCommand) handleEnd(s *discordgo.Session, i *discordgo.InteractionCreate, userID string) error {
	if !c.isAdmin(userID) {
		return RespondWithError(s, i, "Only the draft admin can end a draft.")
	}

	ctx := context.Background()

	output, err := c.draftService.CancelDraft(ctx, &draftsvc.CancelDraftInput{
		GuildID: i.GuildID,
	})
	if err != nil {
		return RespondWithError(s, i, errorMessage(err))
	}

	return RespondWithMessage(s, i, fmt.Sprintf("The draft has been cancelled after %d pick(s).", output.Draft.PickCount))
}

// memberUserID resolves the invoking guild member's user ID. Interactions
// arriving outside a guild (DMs) carry no Member and are rejected.
func memberUserID(i *discordgo.InteractionCreate) (string, bool) {
	if i.Member == nil || i.Member.User == nil {
		return "", false
	}
	return i.Member.User.ID, true
}

// optionMap indexes a subcommand's options by name
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
