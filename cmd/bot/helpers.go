package main

import (
	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/pkg/messages"
)

func respondSlashError(a IApp, i *discordgo.InteractionCreate) error {
	return respondEphemeral(a, i, messages.ErrUserErrorProcessing)
}

func respondEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEphemeralEmbed(a IApp, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondUpdate acknowledges a component interaction without changing the
// message it came from.
func respondUpdate(a IApp, i *discordgo.InteractionCreate) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

func isAdministrator(member *discordgo.Member) bool {
	return member.Permissions&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator
}

// subCommand returns the name of the requested sub command.
func subCommand(i *discordgo.InteractionCreate) string {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		return ""
	}
	return opts[0].Name
}

// selectedValue returns the first selected value of a component interaction.
func selectedValue(i *discordgo.InteractionCreate) string {
	vals := i.MessageComponentData().Values
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
