package main

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/cmd/bot/monitoring"
	"github.com/example/warden/pkg/logging"
)

func guildJoinedHandler(a *App) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		a.Info(fmt.Sprintf("Joined guild %s", g.Name))

		// Increment the total number of guilds.
		monitoring.TotalDiscordGuilds.Inc()

		if err := a.registerGuildCommands(g.ID); err != nil {
			a.Error("Error registering guild commands",
				slog.String(logging.KeyGuild, g.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}

		// Load (or create) the guild record up front so interactions never
		// hit a cold cache.
		if _, err := a.guilds.Data(g.ID); err != nil {
			a.Error("Error loading guild data",
				slog.String(logging.KeyGuild, g.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

func guildLeaveHandler(a *App) func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		a.Info(fmt.Sprintf("Left guild %s", g.ID))

		// Decrement the total number of guilds.
		monitoring.TotalDiscordGuilds.Dec()

		// Drop the cached aggregate. The stored record is kept in case the
		// bot rejoins.
		a.guilds.Forget(g.ID)
	}
}
