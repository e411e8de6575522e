package main

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/cmd/bot/config"
	"github.com/example/warden/pkg/dataaccess"
	"github.com/example/warden/pkg/entities"
	"github.com/example/warden/pkg/messages"
)

const (
	// TicketCmdName is the command for administering tickets.
	TicketCmdName = "ticket"

	// AdminCmdName is the sub command opening the admin embed.
	AdminCmdName = "admin"

	// TicketDeleteValue deletes the ticket when selected from the admin
	// dropdown.
	TicketDeleteValue = "delete"
)

var (
	// ticketCmd is the command for administering tickets.
	ticketCmd = &discordgo.ApplicationCommand{
		Name:        TicketCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for administering tickets.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        AdminCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This administers the ticket for the channel that the command was executed in.",
			},
		},
	}
)

func ticketCmdController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	switch subCommand(i) {
	case AdminCmdName:
		return ticketAdminProcessor, nil
	default:
		if err := respondEphemeral(a, i, a.Messages().Get(messages.KeyActionNotSupported)); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

// ticketGate resolves the interaction's channel to a ticket and checks the
// ticket-admin permission. A nil ticket means the reply has already been
// sent.
func ticketGate(a IApp, i *discordgo.InteractionCreate) (*dataaccess.GuildData, *entities.Ticket, error) {
	gd, err := a.Guilds().Data(i.GuildID)
	if err != nil {
		return nil, nil, respondEphemeral(a, i, a.Messages().Get(messages.KeyServerNotLoaded))
	}

	ticket, ok := gd.Ticket(i.ChannelID)
	if !ok {
		return nil, nil, respondEphemeral(a, i, a.Messages().Get(messages.KeyNotTicketChannel))
	}

	if !hasPermission(a, gd, i.Member, PermissionTicketAdmin) {
		return nil, nil, respondEphemeral(a, i, a.Messages().Get(messages.KeyNoPermission))
	}
	return gd, ticket, nil
}

// ticketAdminProcessor replies with the admin embed for the ticket of the
// current channel.
func ticketAdminProcessor(a IApp, i *discordgo.InteractionCreate) error {
	_, ticket, err := ticketGate(a, i)
	if err != nil || ticket == nil {
		return err
	}

	categoryName := a.Messages().Get(messages.KeyAdminEmbedCategoryUnknown)
	if category, ok := config.Category(ticket.CategoryID); ok {
		categoryName = category.Name
	}

	embed := &discordgo.MessageEmbed{
		Title:       a.Messages().Get(messages.KeyAdminEmbedTitle),
		Description: a.Messages().Get(messages.KeyAdminEmbedDesc, fmt.Sprintf("<#%s>", ticket.ChannelID)),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   a.Messages().Get(messages.KeyAdminEmbedCategory),
				Value:  categoryName,
				Inline: true,
			},
			{
				Name:   a.Messages().Get(messages.KeyAdminEmbedState),
				Value:  ticket.State.Name,
				Inline: true,
			},
		},
	}

	return respondEphemeralEmbed(a, i, embed, []discordgo.MessageComponent{
		ticketControlRow(ticket),
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID: TicketAdminDropdownID,
					Options: []discordgo.SelectMenuOption{
						{
							Label:       "Delete ticket",
							Value:       TicketDeleteValue,
							Description: "Delete the channel and forget the ticket.",
						},
					},
				},
			},
		},
	})
}

// markStateHandler builds the processor for one of the state buttons. The
// creator may flip their own ticket; everyone else needs ticket-admin.
func markStateHandler(state entities.TicketState) commandProcessor {
	return func(a IApp, i *discordgo.InteractionCreate) error {
		gd, err := a.Guilds().Data(i.GuildID)
		if err != nil {
			return respondEphemeral(a, i, a.Messages().Get(messages.KeyServerNotLoaded))
		}

		ticket, ok := gd.Ticket(i.ChannelID)
		if !ok {
			return respondEphemeral(a, i, a.Messages().Get(messages.KeyNotTicketChannel))
		}

		if i.Member.User.ID != ticket.CreatorID && !hasPermission(a, gd, i.Member, PermissionTicketAdmin) {
			return respondEphemeral(a, i, a.Messages().Get(messages.KeyNoPermission))
		}

		setTicketState(a, gd, i.GuildID, ticket, state)
		return respondUpdate(a, i)
	}
}

var (
	markOpenHandler   = markStateHandler(entities.StateOpen)
	markSolvedHandler = markStateHandler(entities.StateSolved)
)

// ticketAdminSelectHandler applies the action picked from the admin dropdown.
func ticketAdminSelectHandler(a IApp, i *discordgo.InteractionCreate) error {
	gd, ticket, err := ticketGate(a, i)
	if err != nil || ticket == nil {
		return err
	}

	switch selectedValue(i) {
	case TicketDeleteValue:
		// Acknowledge before the channel disappears under the interaction.
		if err := respondUpdate(a, i); err != nil {
			return fmt.Errorf("error acknowledging interaction: %w", err)
		}
		deleteTicket(a, gd, ticket)
		return nil
	default:
		return respondEphemeral(a, i, a.Messages().Get(messages.KeyActionNotSupported))
	}
}
