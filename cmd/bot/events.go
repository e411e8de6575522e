package main

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/cmd/bot/monitoring"
	"github.com/example/warden/pkg/entities"
	"github.com/example/warden/pkg/logging"
)

// Event is an internal ticket lifecycle event. Handlers publish events after
// persisting their changes; subscribers react to them off the interaction
// path.
type Event interface {
	// EventName names the event for logs and metrics.
	EventName() string
}

// TicketCreatedEvent fires after a ticket channel has been created and set
// up.
type TicketCreatedEvent struct {
	// GuildID is the guild the ticket belongs to.
	GuildID string

	// Ticket is the created ticket.
	Ticket *entities.Ticket
}

func (TicketCreatedEvent) EventName() string { return "ticket.create" }

// TicketStateChangedEvent fires after a ticket changed state and the change
// was persisted.
type TicketStateChangedEvent struct {
	// GuildID is the guild the ticket belongs to.
	GuildID string

	// Ticket is the ticket, already carrying the new state.
	Ticket *entities.Ticket

	// Previous is the state the ticket left.
	Previous entities.TicketState
}

func (TicketStateChangedEvent) EventName() string { return "ticket.stateChange" }

// eventListener drains the internal event bus. It runs on its own goroutine
// for the lifetime of the process.
func (a *App) eventListener() {
	for e := range a.eventNotifier {
		monitoring.TotalDiscordEvents.WithLabelValues(e.EventName()).Inc()

		var err error
		switch ev := e.(type) {
		case TicketCreatedEvent:
			err = a.handleTicketCreated(ev)
		case TicketStateChangedEvent:
			err = a.handleTicketStateChanged(ev)
		default:
			a.Warn("Unhandled internal event", slog.String("event", e.EventName()))
		}
		if err != nil {
			a.Error("Error handling internal event",
				slog.String("event", e.EventName()),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

// handleTicketCreated sends the control message into the new ticket channel
// and remembers its id on the ticket.
func (a *App) handleTicketCreated(e TicketCreatedEvent) error {
	gd, err := a.guilds.Data(e.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild data: %w", err)
	}

	msg, err := a.s.ChannelMessageSendComplex(e.Ticket.ChannelID, &discordgo.MessageSend{
		Content: "Use the buttons below to manage this ticket.",
		Components: []discordgo.MessageComponent{
			ticketControlRow(e.Ticket),
		},
	})
	if err != nil {
		return fmt.Errorf("error sending control message: %w", err)
	}

	// Remember the control message so state changes can update its buttons.
	e.Ticket.SetOther(entities.OtherKeyUserController, msg.ID)
	gd.Save()
	return nil
}

// handleTicketStateChanged fans a persisted state change out to the external
// surfaces: channel name, channel visibility, the control message buttons and
// the members' DMs. Each step is best-effort; a failing one is logged and the
// rest still run.
func (a *App) handleTicketStateChanged(e TicketStateChangedEvent) error {
	gd, err := a.guilds.Data(e.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild data: %w", err)
	}

	monitoring.TicketStateChanges.WithLabelValues(e.Ticket.State.ID).Inc()

	l := a.With(
		slog.String(logging.KeyGuild, e.GuildID),
		slog.String(logging.KeyChannel, e.Ticket.ChannelID),
		slog.String(logging.KeyState, e.Ticket.State.ID),
	)

	// Rename the channel so the state is visible in the channel list.
	if err := renameTicketChannel(a, e.Ticket); err != nil {
		l.Error("Error renaming ticket channel", slog.String(logging.KeyError, err.Error()))
	}

	// Solved tickets are hidden from the creator and named users; admin
	// roles keep seeing them either way.
	if err := setVisibility(a, gd, e.Ticket, !e.Ticket.Solved()); err != nil {
		l.Error("Error updating ticket visibility", slog.String(logging.KeyError, err.Error()))
	}

	// Update the control message so the button for the current state is
	// disabled.
	if msgID, ok := e.Ticket.GetOther(entities.OtherKeyUserController); ok {
		components := []discordgo.MessageComponent{ticketControlRow(e.Ticket)}
		if _, err := a.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
			Channel:    e.Ticket.ChannelID,
			ID:         msgID,
			Components: &components,
		}); err != nil {
			l.Error("Error updating control message", slog.String(logging.KeyError, err.Error()))
		}
	}

	// Tell everyone on the ticket.
	for _, memberID := range e.Ticket.MemberIDs() {
		dm, err := a.s.UserChannelCreate(memberID)
		if err != nil {
			l.Error("Error opening DM channel",
				slog.String(logging.KeyUser, memberID),
				slog.String(logging.KeyError, err.Error()),
			)
			continue
		}
		if _, err := a.s.ChannelMessageSend(dm.ID, fmt.Sprintf("Ticket <#%s> is now **%s**.", e.Ticket.ChannelID, e.Ticket.State.Name)); err != nil {
			l.Error("Error sending DM",
				slog.String(logging.KeyUser, memberID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
	return nil
}
