package main

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/cmd/bot/config"
	"github.com/example/warden/pkg/dataaccess"
	"github.com/example/warden/pkg/messages"
)

// joinMessageHandler keeps the join message in the configured join channel up
// to date. The existing message is edited in place when it still exists;
// otherwise a fresh one is sent and its id remembered on the guild record.
var joinMessageHandler = reloadHandler{
	ID: "join-message",
	OnReload: func(a IApp, gd *dataaccess.GuildData) error {
		if !gd.IsComplete() {
			// Nothing to do until setup has finished.
			return nil
		}

		channel, err := gd.JoinChannel.Resolve(a.Session())
		if err != nil {
			return fmt.Errorf("error resolving join channel: %w", err)
		}

		embed := buildJoinEmbed(a)
		embeds := []*discordgo.MessageEmbed{embed}
		components := []discordgo.MessageComponent{categoriesRow()}

		if msgID, ok := gd.Get(dataaccess.KeyJoinMessage); ok {
			if _, err := a.Session().ChannelMessageEditComplex(&discordgo.MessageEdit{
				Channel:    channel.ID,
				ID:         msgID,
				Embeds:     &embeds,
				Components: &components,
			}); err == nil {
				return nil
			}
			// The message is gone; send a fresh one.
			gd.Unset(dataaccess.KeyJoinMessage)
		}

		msg, err := a.Session().ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
			Embeds:     embeds,
			Components: components,
		})
		if err != nil {
			return fmt.Errorf("error sending join message: %w", err)
		}

		gd.Set(dataaccess.KeyJoinMessage, msg.ID)
		return nil
	},
}

func buildJoinEmbed(a IApp) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       a.Messages().Get(messages.KeyJoinEmbedTitle),
		Description: a.Messages().Get(messages.KeyJoinEmbedDesc),
		Footer: &discordgo.MessageEmbedFooter{
			Text: a.Messages().Get(messages.KeyJoinEmbedFooter),
		},
	}
}

// categoriesRow builds the category select menu members open tickets with.
func categoriesRow() discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(config.Categories))
	for _, c := range config.Categories {
		options = append(options, discordgo.SelectMenuOption{
			Label: c.Name,
			Value: c.ID,
		})
	}
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    CategoriesDropdownID,
				Placeholder: "Pick a category to open a ticket",
				Options:     options,
			},
		},
	}
}

// categorySelectHandler opens a ticket for the selected category.
func categorySelectHandler(a IApp, i *discordgo.InteractionCreate) error {
	if !a.TicketLimiter(i.GuildID).Allow() {
		return respondEphemeral(a, i, a.Messages().Get(messages.KeyTicketRateLimited))
	}

	ticket, userMsg, err := makeTicket(a, i, selectedValue(i))
	if err != nil {
		return fmt.Errorf("error creating ticket: %w", err)
	}
	if userMsg != "" {
		return respondEphemeral(a, i, userMsg)
	}

	return respondEphemeral(a, i, a.Messages().Get(messages.KeyTicketCreated, fmt.Sprintf("<#%s>", ticket.ChannelID)))
}
