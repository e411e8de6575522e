package main

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/pkg/dataaccess"
	"github.com/example/warden/pkg/logging"
	"github.com/example/warden/pkg/messages"
)

// reloadHandler is a named hook run for every guild on reload.
type reloadHandler struct {
	// ID identifies the handler in logs.
	ID string

	// OnReload runs against a freshly reloaded guild.
	OnReload func(a IApp, gd *dataaccess.GuildData) error
}

// reloadHandlers run in order after a guild's record has been re-read.
var reloadHandlers = []reloadHandler{
	joinMessageHandler,
}

// reloadProcessor reloads the message catalogue and every loaded guild.
func reloadProcessor(a IApp, i *discordgo.InteractionCreate) error {
	if err := a.Messages().Reload(); err != nil {
		return fmt.Errorf("error reloading messages: %w", err)
	}

	reloadAllGuilds(a)
	return respondEphemeral(a, i, a.Messages().Get(messages.KeyBotReloaded))
}

// reloadAllGuilds reloads every loaded guild sequentially. A failing guild is
// logged and the rest still reload.
func reloadAllGuilds(a IApp) {
	for _, gd := range a.Guilds().Loaded() {
		reloadGuild(a, gd)
	}
}

// reloadGuild re-reads the guild record and runs the reload handlers. Each
// handler failure is logged; the rest still run.
func reloadGuild(a IApp, gd *dataaccess.GuildData) {
	if err := gd.Reload(); err != nil {
		a.Log().Error("Error reloading guild data",
			slog.String(logging.KeyGuild, gd.GuildID()),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}

	for _, h := range reloadHandlers {
		if err := h.OnReload(a, gd); err != nil {
			a.Log().Error("Error running reload handler",
				slog.String(logging.KeyGuild, gd.GuildID()),
				slog.String(logging.KeyHandler, h.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}
