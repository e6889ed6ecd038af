package discord

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/draftnight/draftbot/internal/models"
	draftsvc "github.com/draftnight/draftbot/internal/services/draft"
)

// Discord caps embed field values at 1024 characters
const maxFieldLength = 1024

// errorMessage maps service errors to user-facing text
func errorMessage(err error) string {
	var taken *draftsvc.TeamTakenError
	if errors.As(err, &taken) {
		if taken.PickNumber > 0 {
			return fmt.Sprintf("**%s** was already taken by <@%s> with pick #%d.", taken.TeamName, taken.UserID, taken.PickNumber)
		}
		return fmt.Sprintf("**%s** was already claimed by <@%s>.", taken.TeamName, taken.UserID)
	}

	switch {
	case errors.Is(err, draftsvc.ErrNoActiveDraft):
		return "There's no draft running in this server. Start one with `/draft start`."
	case errors.Is(err, draftsvc.ErrNoDraft):
		return "This server has never run a draft."
	case errors.Is(err, draftsvc.ErrDraftInProgress):
		return "A draft is already running in this server. End it first with `/draft end`."
	case errors.Is(err, draftsvc.ErrNotAParticipant):
		return "You're not a participant in this draft."
	case errors.Is(err, draftsvc.ErrInvalidStage):
		return "You can't do that right now. Check `/draft status` for the current stage."
	case errors.Is(err, draftsvc.ErrAlreadyChosen):
		return "You've already made that choice."
	case errors.Is(err, draftsvc.ErrTeamAlreadyClaimed):
		return "That team is already claimed."
	case errors.Is(err, draftsvc.ErrTeamUnavailable):
		return "That team isn't available to you."
	case errors.Is(err, draftsvc.ErrNotYourTurn):
		return "It's not your turn to pick."
	case errors.Is(err, draftsvc.ErrLimitReached):
		return "You've used all of your picks."
	case errors.Is(err, draftsvc.ErrDraftCancelled):
		return "That draft was cancelled."
	case errors.Is(err, draftsvc.ErrDraftCompleted):
		return "That draft already finished."
	case errors.Is(err, draftsvc.ErrUnknownTeam):
		return "I don't know that team. Check `/draft available` for spelling."
	case errors.Is(err, draftsvc.ErrUnknownConference):
		return "I don't know that conference. Check `/draft conferences`."
	case errors.Is(err, draftsvc.ErrConferenceFull):
		return "That conference is full. Pick another one."
	case errors.Is(err, draftsvc.ErrConferenceNotChosen):
		return "Choose a conference first with `/draft conference`."
	case errors.Is(err, draftsvc.ErrTooFewParticipants):
		return "A draft needs at least two participants."
	case errors.Is(err, draftsvc.ErrDuplicateUser):
		return "Each participant can only be listed once."
	case errors.Is(err, draftsvc.ErrTryAgain):
		return "The draft is busy right now. Try again in a moment."
	default:
		return "Something went wrong. Try again in a moment."
	}
}

// renderDraftStarted builds the announcement for a freshly started draft
func renderDraftStarted(d *models.Draft) string {
	var b strings.Builder
	b.WriteString("Pick order:\n")
	for _, p := range d.Participants {
		fmt.Fprintf(&b, "%d. <@%s>\n", p.PickOrder+1, p.UserID)
	}

	if len(d.Limits) > 0 {
		if allowed := d.PicksAllowed(d.Participants[0].UserID); allowed > 0 {
			fmt.Fprintf(&b, "\nEach participant gets %d pick(s).", allowed)
		}
	}

	b.WriteString("\nChoose your conference with `/draft conference`.")
	return b.String()
}

// renderStatus builds the status embed for a draft
func renderStatus(output *draftsvc.GetStatusOutput) (title, description string, fields []*discordgo.MessageEmbedField) {
	d := output.Draft

	switch d.Status {
	case models.DraftStatusCancelled:
		title = "Draft Cancelled"
	case models.DraftStatusCompleted:
		title = "Draft Complete"
	default:
		title = "Draft in Progress"
	}

	description = stageDescription(d)
	if output.CurrentUserID != "" {
		description += fmt.Sprintf("\n<@%s> is on the clock.", output.CurrentUserID)
	}

	participants := ""
	for _, p := range d.Participants {
		line := fmt.Sprintf("<@%s>", p.UserID)
		if p.Conference != "" {
			line += fmt.Sprintf(" [%s]", p.Conference)
		}
		if p.ClaimedTeam != "" {
			line += fmt.Sprintf(" claimed **%s**", p.ClaimedTeam)
		}
		if allowed := d.PicksAllowed(p.UserID); allowed > 0 {
			line += fmt.Sprintf(" (%d/%d picks)", p.PicksMade, allowed)
		} else if p.PicksMade > 0 {
			line += fmt.Sprintf(" (%d picks)", p.PicksMade)
		}
		participants += line + "\n"
	}
	fields = append(fields, &discordgo.MessageEmbedField{
		Name:  "Participants",
		Value: truncate(participants),
	})

	if len(output.Picks) > 0 {
		picks := ""
		for _, pick := range output.Picks {
			picks += fmt.Sprintf("#%d <@%s>: **%s**\n", pick.PickNumber, pick.UserID, pick.TeamName)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Picks",
			Value: truncate(picks),
		})
	}

	return title, description, fields
}

// renderAvailable builds per-conference fields of unassigned teams
func renderAvailable(output *draftsvc.ListAvailableTeamsOutput) []*discordgo.MessageEmbedField {
	var fields []*discordgo.MessageEmbedField
	for _, conference := range sortedKeys(output.ByConference) {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  conference,
			Value: truncate(strings.Join(output.ByConference[conference], ", ")),
		})
	}
	return fields
}

// renderRosters builds per-conference roster fields
func renderRosters(output *draftsvc.ConferenceRostersOutput) []*discordgo.MessageEmbedField {
	var fields []*discordgo.MessageEmbedField
	for _, conference := range sortedKeys(output.Rosters) {
		roster := output.Rosters[conference]

		value := ""
		for _, userID := range sortedKeys(roster) {
			teams := roster[userID]
			if len(teams) == 0 {
				value += fmt.Sprintf("<@%s>: no teams yet\n", userID)
				continue
			}
			value += fmt.Sprintf("<@%s>: %s\n", userID, strings.Join(teams, ", "))
		}

		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  conference,
			Value: truncate(value),
		})
	}
	return fields
}

// renderConferences builds conference slot usage fields
func renderConferences(output *draftsvc.ListConferencesOutput) []*discordgo.MessageEmbedField {
	var fields []*discordgo.MessageEmbedField
	for _, conference := range sortedKeys(output.Slots) {
		mentions := make([]string, 0, len(output.Slots[conference]))
		for _, userID := range output.Slots[conference] {
			mentions = append(mentions, fmt.Sprintf("<@%s>", userID))
		}

		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  conference,
			Value: truncate(strings.Join(mentions, ", ")),
		})
	}
	return fields
}

// stageDescription describes what the draft is waiting on
func stageDescription(d *models.Draft) string {
	switch d.Stage {
	case models.DraftStageConference:
		return "Participants are choosing conferences with `/draft conference`."
	case models.DraftStageClaim:
		return "Participants are claiming their teams with `/draft claim`."
	case models.DraftStageDrafting:
		return fmt.Sprintf("The draft is underway. %d pick(s) made so far.", d.PickCount)
	case models.DraftStageDone:
		return fmt.Sprintf("The draft finished after %d pick(s).", d.PickCount)
	default:
		return ""
	}
}

// truncate trims a field value to Discord's embed limit, never splitting a
// multibyte rune at the cut
func truncate(value string) string {
	if value == "" {
		return "-"
	}
	if len(value) <= maxFieldLength {
		return value
	}

	cut := maxFieldLength - 3
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + "..."
}

// sortedKeys returns a map's keys in sorted order for stable rendering
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
