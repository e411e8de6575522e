package main

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/pkg/dataaccess"
	"github.com/example/warden/pkg/messages"
)

const (
	// TicketsCmdName is the command for managing the ticket system.
	TicketsCmdName = "tickets"

	// SetupCmdName is the sub command for configuring the ticket system.
	SetupCmdName = "setup"

	// ReloadCmdName is the sub command for reloading the bot for the guild.
	ReloadCmdName = "reload"

	// AssignUserGroupCmdName is the sub command for assigning a permission
	// group to a member.
	AssignUserGroupCmdName = "assignusergroup"

	// AssignRoleGroupCmdName is the sub command for assigning a permission
	// group to a role.
	AssignRoleGroupCmdName = "assignrolegroup"

	// optionUser is the member option of the group assignment sub command.
	optionUser = "user"

	// optionRole is the role option of the group assignment sub command.
	optionRole = "role"

	// optionGroup is the group option of the group assignment sub commands.
	optionGroup = "group"

	// SetupSelectMenuID is the ID for the setup action select menu.
	SetupSelectMenuID = "setup_select_menu"

	// SetupFinishValue finishes the setup flow when selected.
	SetupFinishValue = "finish"
)

// setupPart is one piece of guild configuration the setup flow manages.
type setupPart struct {
	// Name is the display name shown on the setup embed.
	Name string

	// Value is the select menu value that configures the part.
	Value string

	// Description explains the select menu option.
	Description string

	// IsSet reports whether the part is configured.
	IsSet func(gd *dataaccess.GuildData) bool
}

// setupParts drive both the setup embed and the completeness message.
var setupParts = []setupPart{
	{
		Name:        "Join Channel",
		Value:       dataaccess.KeyJoinChannel,
		Description: "Use the current channel as the join channel.",
		IsSet:       func(gd *dataaccess.GuildData) bool { return gd.JoinChannel.IsPresent() },
	},
	{
		Name:        "Tickets Category",
		Value:       dataaccess.KeyTicketsCategory,
		Description: "Use the current channel's category for new tickets.",
		IsSet:       func(gd *dataaccess.GuildData) bool { return gd.TicketsCategory.IsPresent() },
	},
}

var (
	// ticketsCmd is the command for managing the ticket system.
	ticketsCmd = &discordgo.ApplicationCommand{
		Name:        TicketsCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for managing the ticket system.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        SetupCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This configures the ticket system for this server.",
			},
			{
				Name:        ReloadCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This reloads the ticket system for this server.",
			},
			{
				Name:        AssignUserGroupCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This assigns a permission group to a member.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        optionUser,
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "This is the member to assign the group to.",
						Required:    true,
					},
					{
						Name:        optionGroup,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the group to assign.",
						Required:    true,
						Choices:     groupOptionChoices(),
					},
				},
			},
			{
				Name:        AssignRoleGroupCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This assigns a permission group to a role.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        optionRole,
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the role to assign the group to.",
						Required:    true,
					},
					{
						Name:        optionGroup,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the group to assign.",
						Required:    true,
						Choices:     groupOptionChoices(),
					},
				},
			},
		},
	}
)

// groupOptionChoices builds the group option choices from the registry, plus
// the clearing pseudo-choice.
func groupOptionChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Clear all groups", Value: clearGroupValue},
	}
	for _, g := range newGroupRegistry().Groups() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  g.Name,
			Value: g.ID,
		})
	}
	return choices
}

func ticketsCmdController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	gd, err := a.Guilds().Data(i.GuildID)
	if err != nil {
		if rerr := respondEphemeral(a, i, a.Messages().Get(messages.KeyServerNotLoaded)); rerr != nil {
			return nil, rerr
		}
		return nil, nil
	}

	// Every sub command is a configuration action.
	if !hasPermission(a, gd, i.Member, PermissionSetup) {
		if err := respondEphemeral(a, i, a.Messages().Get(messages.KeyNoPermission)); err != nil {
			return nil, err
		}
		return nil, nil
	}

	switch subCommand(i) {
	case SetupCmdName:
		return setupProcessor, nil
	case ReloadCmdName:
		return reloadProcessor, nil
	case AssignUserGroupCmdName:
		return assignUserGroupProcessor, nil
	case AssignRoleGroupCmdName:
		return assignRoleGroupProcessor, nil
	default:
		if err := respondEphemeral(a, i, a.Messages().Get(messages.KeyActionNotSupported)); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

// setupProcessor replies with the setup embed and its action select menu.
func setupProcessor(a IApp, i *discordgo.InteractionCreate) error {
	gd, err := a.Guilds().Data(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild data: %w", err)
	}

	options := make([]discordgo.SelectMenuOption, 0, len(setupParts)+1)
	for _, part := range setupParts {
		options = append(options, discordgo.SelectMenuOption{
			Label:       "Set " + part.Name,
			Value:       part.Value,
			Description: part.Description,
		})
	}
	options = append(options, discordgo.SelectMenuOption{
		Label:       "Finish",
		Value:       SetupFinishValue,
		Description: "Tear down old resources and send the join message.",
	})

	return respondEphemeralEmbed(a, i, buildSetupEmbed(a, gd), []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID: SetupSelectMenuID,
					Options:  options,
				},
			},
		},
	})
}

func buildSetupEmbed(a IApp, gd *dataaccess.GuildData) *discordgo.MessageEmbed {
	titleKey, descKey := messages.KeySetupEmbedIncompleteTitle, messages.KeySetupEmbedIncompleteDesc
	if gd.IsComplete() {
		titleKey, descKey = messages.KeySetupEmbedCompleteTitle, messages.KeySetupEmbedCompleteDesc
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(setupParts))
	for _, part := range setupParts {
		value := a.Messages().Get(messages.KeyNotSet)
		if part.IsSet(gd) {
			value = a.Messages().Get(messages.KeySet)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   part.Name,
			Value:  value,
			Inline: true,
		})
	}

	return &discordgo.MessageEmbed{
		Title:       a.Messages().Get(titleKey),
		Description: a.Messages().Get(descKey),
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: a.Messages().Get(messages.KeySetupEmbedFooter),
		},
	}
}

// setupSelectHandler applies the action picked from the setup select menu.
func setupSelectHandler(a IApp, i *discordgo.InteractionCreate) error {
	gd, err := a.Guilds().Data(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild data: %w", err)
	}

	// The embed is ephemeral, but the custom id is not a secret; gate again.
	if !hasPermission(a, gd, i.Member, PermissionSetup) {
		return respondEphemeral(a, i, a.Messages().Get(messages.KeyNoPermission))
	}

	switch selectedValue(i) {
	case dataaccess.KeyJoinChannel:
		channel, err := a.Session().Channel(i.ChannelID)
		if err != nil {
			return fmt.Errorf("error getting channel: %w", err)
		}
		if channel.Type != discordgo.ChannelTypeGuildText {
			return respondEphemeral(a, i, a.Messages().Get(messages.KeyBadChannel))
		}
		gd.JoinChannel.Set(channel.ID)
		return respondEphemeral(a, i, a.Messages().Get(messages.KeyJoinChannelSet))

	case dataaccess.KeyTicketsCategory:
		channel, err := a.Session().Channel(i.ChannelID)
		if err != nil {
			return fmt.Errorf("error getting channel: %w", err)
		}
		if channel.ParentID == "" {
			return respondEphemeral(a, i, a.Messages().Get(messages.KeyNotChildChannel))
		}
		gd.TicketsCategory.Set(channel.ParentID)
		return respondEphemeral(a, i, a.Messages().Get(messages.KeyTicketsCategorySet))

	case SetupFinishValue:
		if missing := checkSetup(gd); missing != "" {
			return respondEphemeral(a, i, a.Messages().Get(messages.KeySetupIncomplete, missing))
		}
		if err := runSetup(a, gd); err != nil {
			return fmt.Errorf("error running setup: %w", err)
		}
		return respondEphemeral(a, i, a.Messages().Get(messages.KeySetupFinish))

	default:
		return respondEphemeral(a, i, a.Messages().Get(messages.KeyActionNotSupported))
	}
}

func assignUserGroupProcessor(a IApp, i *discordgo.InteractionCreate) error {
	gd, err := a.Guilds().Data(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild data: %w", err)
	}

	var targetID, groupID string
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		switch opt.Name {
		case optionUser:
			targetID = opt.UserValue(nil).ID
		case optionGroup:
			groupID = opt.StringValue()
		}
	}

	holder := gd.User(targetID)
	if groupID == clearGroupValue {
		holder.ClearGroups()
		gd.Save()
		return respondEphemeral(a, i, a.Messages().Get(messages.KeyUserGroupsCleared, "<@"+targetID+">"))
	}

	group, ok := a.Groups().Group(groupID)
	if !ok {
		return respondEphemeral(a, i, a.Messages().Get(messages.KeyGroupNotFound))
	}

	holder.AssignGroup(group.ID)
	gd.Save()
	return respondEphemeral(a, i, a.Messages().Get(messages.KeyUserGroupChanged, "<@"+targetID+">", group.Name))
}

func assignRoleGroupProcessor(a IApp, i *discordgo.InteractionCreate) error {
	gd, err := a.Guilds().Data(i.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild data: %w", err)
	}

	var targetID, groupID string
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		switch opt.Name {
		case optionRole:
			targetID = opt.RoleValue(nil, "").ID
		case optionGroup:
			groupID = opt.StringValue()
		}
	}

	holder := gd.Role(targetID)
	if groupID == clearGroupValue {
		holder.ClearGroups()
		gd.Save()
		return respondEphemeral(a, i, a.Messages().Get(messages.KeyRoleGroupsCleared, "<@&"+targetID+">"))
	}

	group, ok := a.Groups().Group(groupID)
	if !ok {
		return respondEphemeral(a, i, a.Messages().Get(messages.KeyGroupNotFound))
	}

	holder.AssignGroup(group.ID)
	gd.Save()
	return respondEphemeral(a, i, a.Messages().Get(messages.KeyRoleGroupChanged, "<@&"+targetID+">", group.Name))
}
