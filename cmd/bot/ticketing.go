package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/cmd/bot/config"
	"github.com/example/warden/cmd/bot/monitoring"
	"github.com/example/warden/pkg/dataaccess"
	"github.com/example/warden/pkg/entities"
	"github.com/example/warden/pkg/logging"
	"github.com/example/warden/pkg/messages"
)

const (
	// CategoriesDropdownID is the ID for the category select menu on the
	// join message.
	CategoriesDropdownID = "categories_dropdown"

	// TicketAdminDropdownID is the ID for the action select menu on the
	// admin embed.
	TicketAdminDropdownID = "ticket_admin_dropdown"

	// TicketMarkOpenButtonID is the ID for the mark-open button.
	TicketMarkOpenButtonID = "ticket_mark_open_button"

	// TicketMarkSolvedButtonID is the ID for the mark-solved button.
	TicketMarkSolvedButtonID = "ticket_mark_solved_button"
)

// ticketVisibilityPermissions are the channel permissions toggled when a
// ticket is shown to or hidden from its members.
const ticketVisibilityPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// ticketControlRow builds the button row of the in-ticket control message.
// The button matching the current state is disabled.
func ticketControlRow(t *entities.Ticket) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Mark Open",
				Style:    discordgo.SuccessButton,
				Disabled: !t.Solved(),
				CustomID: TicketMarkOpenButtonID,
			},
			discordgo.Button{
				Label:    "Mark Solved",
				Style:    discordgo.PrimaryButton,
				Disabled: t.Solved(),
				CustomID: TicketMarkSolvedButtonID,
			},
		},
	}
}

// ticketChannelName builds the channel name of a ticket. Open tickets carry
// their category id as the middle segment; any other state replaces it with
// the state id.
func ticketChannelName(t *entities.Ticket, username string) string {
	segment := t.CategoryID
	if t.State.ID != entities.StateOpen.ID {
		segment = t.State.ID
	}
	nick := strings.ToLower(strings.ReplaceAll(username, " ", "-"))
	return fmt.Sprintf("ticket-%s-%s", segment, nick)
}

func renameTicketChannel(a IApp, t *entities.Ticket) error {
	creator, err := a.Session().User(t.CreatorID)
	if err != nil {
		return fmt.Errorf("error getting ticket creator: %w", err)
	}

	if _, err := a.Session().ChannelEdit(t.ChannelID, &discordgo.ChannelEdit{
		Name: ticketChannelName(t, creator.Username),
	}); err != nil {
		return fmt.Errorf("error editing channel: %w", err)
	}
	return nil
}

// setVisibility shows or hides the ticket channel for the creator and every
// named user. Roles holding the ticket-admin node see the channel regardless
// of the flag.
func setVisibility(a IApp, gd *dataaccess.GuildData, t *entities.Ticket, visible bool) error {
	var allow, deny int64
	if visible {
		allow = ticketVisibilityPermissions
	} else {
		deny = ticketVisibilityPermissions
	}

	for _, memberID := range t.MemberIDs() {
		if err := a.Session().ChannelPermissionSet(t.ChannelID, memberID, discordgo.PermissionOverwriteTypeMember, allow, deny); err != nil {
			return fmt.Errorf("error setting member visibility: %w", err)
		}
	}

	for _, role := range gd.RoleRecords() {
		if !role.HasPermissionNode(PermissionTicketAdmin, a.Groups()) {
			continue
		}
		if err := a.Session().ChannelPermissionSet(t.ChannelID, role.RoleID, discordgo.PermissionOverwriteTypeRole, ticketVisibilityPermissions, 0); err != nil {
			return fmt.Errorf("error setting role visibility: %w", err)
		}
	}
	return nil
}

// makeTicket creates a ticket channel and registers the ticket on the guild.
// A non-empty second return is a message for the invoking member; it is only
// set when the ticket could not be created for a reason of their own making.
func makeTicket(a IApp, i *discordgo.InteractionCreate, categoryID string) (*entities.Ticket, string, error) {
	gd, err := a.Guilds().Data(i.GuildID)
	if err != nil {
		return nil, a.Messages().Get(messages.KeyServerNotLoaded), nil
	}

	if !gd.IsComplete() {
		return nil, a.Messages().Get(messages.KeySetupIncomplete, checkSetup(gd)), nil
	}

	category, ok := config.Category(categoryID)
	if !ok {
		return nil, a.Messages().Get(messages.KeyActionNotSupported), nil
	}

	// The configured category has to still exist and actually be a category;
	// both can change out-of-band.
	parent, err := gd.TicketsCategory.Resolve(a.Session())
	if err != nil {
		return nil, "", fmt.Errorf("error resolving tickets category: %w", err)
	}
	if parent.Type != discordgo.ChannelTypeGuildCategory {
		return nil, "", fmt.Errorf("channel %s is not a category", parent.ID)
	}

	member, err := a.Session().GuildMember(i.GuildID, i.Member.User.ID)
	if err != nil {
		return nil, "", fmt.Errorf("error getting member: %w", err)
	}

	ticket := entities.NewTicket("", category.ID, member.User.ID, nil)

	// Create the channel hidden from everyone; setup grants access after.
	channel, err := a.Session().GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:  ticketChannelName(ticket, member.User.Username),
		Type:  discordgo.ChannelTypeGuildText,
		Topic: fmt.Sprintf("Ticket created by %s", member.User.Username),
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			// Deny @everyone from seeing the ticket.
			{
				ID:   i.GuildID,
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionAll,
			},
		},
		ParentID: parent.ID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("error creating ticket channel: %w", err)
	}

	ticket.ChannelID = channel.ID

	// Registering is idempotent; an existing entry for the channel wins.
	ticket = gd.AddTicketIfAbsent(ticket)

	if err := setupTicketChannel(a, gd, ticket, category); err != nil {
		a.Log().Error("Error setting up ticket channel, rolling back",
			slog.String(logging.KeyGuild, i.GuildID),
			slog.String(logging.KeyChannel, channel.ID),
			slog.String(logging.KeyError, err.Error()),
		)

		// Roll back: drop the channel and forget the ticket.
		if _, derr := a.Session().ChannelDelete(channel.ID); derr != nil {
			a.Log().Error("Error deleting ticket channel",
				slog.String(logging.KeyChannel, channel.ID),
				slog.String(logging.KeyError, derr.Error()),
			)
		}
		gd.RemoveTicket(ticket)
		return nil, "", fmt.Errorf("error setting up ticket channel: %w", err)
	}

	monitoring.TotalTicketsCreated.Inc()
	a.Notify(TicketCreatedEvent{GuildID: i.GuildID, Ticket: ticket})
	return ticket, "", nil
}

// setupTicketChannel grants the members access and sends the welcome message
// for the chosen category.
func setupTicketChannel(a IApp, gd *dataaccess.GuildData, t *entities.Ticket, category config.TicketCategory) error {
	if err := setVisibility(a, gd, t, true); err != nil {
		return fmt.Errorf("error granting visibility: %w", err)
	}

	if _, err := a.Session().ChannelMessageSendComplex(t.ChannelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", t.CreatorID),
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       category.Name,
				Description: strings.ReplaceAll(category.Info, "%n", "\n"),
			},
		},
	}); err != nil {
		return fmt.Errorf("error sending welcome message: %w", err)
	}
	return nil
}

// setTicketState moves the ticket into the given state, persists the change
// and fans it out over the event bus. Same-state transitions are no-ops.
func setTicketState(a IApp, gd *dataaccess.GuildData, guildID string, t *entities.Ticket, state entities.TicketState) {
	if t.State.ID == state.ID {
		return
	}

	previous := t.State
	t.State = state
	gd.Save()

	a.Notify(TicketStateChangedEvent{GuildID: guildID, Ticket: t, Previous: previous})
}

// deleteTicket deletes the ticket channel and removes the ticket from the
// guild. Channel deletion is best-effort; the local entry goes regardless so
// a failed delete cannot wedge the guild record.
func deleteTicket(a IApp, gd *dataaccess.GuildData, t *entities.Ticket) {
	if _, err := a.Session().ChannelDelete(t.ChannelID); err != nil {
		a.Log().Error("Error deleting ticket channel",
			slog.String(logging.KeyChannel, t.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	gd.RemoveTicket(t)
	monitoring.TotalTicketsDeleted.Inc()
}

// checkSetup names the setup parts that are still missing. Empty means the
// guild is fully configured.
func checkSetup(gd *dataaccess.GuildData) string {
	var missing []string
	for _, part := range setupParts {
		if !part.IsSet(gd) {
			missing = append(missing, part.Name)
		}
	}
	return strings.Join(missing, ", ")
}

// clearResources removes everything the bot has created in the guild: the
// join message and every ticket channel along with its record.
func clearResources(a IApp, gd *dataaccess.GuildData) {
	if msgID, ok := gd.Get(dataaccess.KeyJoinMessage); ok {
		if gd.JoinChannel.IsPresent() {
			if err := a.Session().ChannelMessageDelete(gd.JoinChannel.Get(), msgID); err != nil {
				a.Log().Error("Error deleting join message",
					slog.String(logging.KeyChannel, gd.JoinChannel.Get()),
					slog.String(logging.KeyError, err.Error()),
				)
			}
		}
		gd.Unset(dataaccess.KeyJoinMessage)
	}

	for _, t := range gd.ClearTickets() {
		if _, err := a.Session().ChannelDelete(t.ChannelID); err != nil {
			a.Log().Error("Error deleting ticket channel",
				slog.String(logging.KeyChannel, t.ChannelID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
		monitoring.TotalTicketsDeleted.Inc()
	}
}

// runSetup finishes the setup flow: existing resources are torn down and the
// join message is re-sent.
func runSetup(a IApp, gd *dataaccess.GuildData) error {
	clearResources(a, gd)
	return joinMessageHandler.OnReload(a, gd)
}
