package main

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/pkg/dataaccess"
	"github.com/example/warden/pkg/entities"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func newTestGuildData(t *testing.T) *dataaccess.GuildData {
	t.Helper()
	store, err := dataaccess.NewJSONFileStore(filepath.Join(t.TempDir(), "guilds.json"))
	require.NoError(t, err)
	gd := dataaccess.NewGuildData(store, "g1", slog.Default())
	require.NoError(t, gd.Reload())
	return gd
}

func TestTicketChannelName(t *testing.T) {
	ticket := entities.NewTicket("c1", "general", "u1", nil)
	require.Equal(t, "ticket-general-some-user", ticketChannelName(ticket, "Some User"))

	// Leaving the open state swaps the category segment for the state id.
	ticket.State = entities.StateSolved
	require.Equal(t, "ticket-solved-some-user", ticketChannelName(ticket, "Some User"))
}

func TestTicketControlRow(t *testing.T) {
	ticket := entities.NewTicket("c1", "general", "u1", nil)

	row := ticketControlRow(ticket).(discordgo.ActionsRow)
	require.True(t, row.Components[0].(discordgo.Button).Disabled)
	require.False(t, row.Components[1].(discordgo.Button).Disabled)

	ticket.State = entities.StateSolved
	row = ticketControlRow(ticket).(discordgo.ActionsRow)
	require.False(t, row.Components[0].(discordgo.Button).Disabled)
	require.True(t, row.Components[1].(discordgo.Button).Disabled)
}

func TestCheckSetup(t *testing.T) {
	gd := newTestGuildData(t)

	require.Equal(t, "Join Channel, Tickets Category", checkSetup(gd))

	gd.JoinChannel.Set("c1")
	require.Equal(t, "Tickets Category", checkSetup(gd))

	gd.TicketsCategory.Set("cat1")
	require.Empty(t, checkSetup(gd))
	require.True(t, gd.IsComplete())
}

func TestGroupOptionChoices(t *testing.T) {
	choices := groupOptionChoices()
	require.Len(t, choices, 2)
	require.Equal(t, clearGroupValue, choices[0].Value)
	require.Equal(t, AdminGroupID, choices[1].Value)
}

func TestHasPermissionAdministratorOverride(t *testing.T) {
	member := &discordgo.Member{
		User:        &discordgo.User{ID: "u1"},
		Permissions: discordgo.PermissionAdministrator,
	}
	require.True(t, hasPermission(nil, nil, member, PermissionSetup))
}

func TestHasPermission(t *testing.T) {
	a := NewApp(slog.Default(), mux.NewRouter())
	a.groups = newGroupRegistry()

	gd := newTestGuildData(t)

	member := &discordgo.Member{User: &discordgo.User{ID: "u1"}}
	require.False(t, hasPermission(a, gd, member, PermissionTicketAdmin))

	// Via the member's own record.
	gd.User("u1").AssignGroup(AdminGroupID)
	require.True(t, hasPermission(a, gd, member, PermissionTicketAdmin))

	// Via a role the member holds.
	other := &discordgo.Member{User: &discordgo.User{ID: "u2"}, Roles: []string{"r1"}}
	require.False(t, hasPermission(a, gd, other, PermissionTicketAdmin))
	gd.Role("r1").AddNode(PermissionTicketAdmin)
	require.True(t, hasPermission(a, gd, other, PermissionTicketAdmin))
}

func TestTicketLimiter(t *testing.T) {
	a := NewApp(slog.Default(), mux.NewRouter())

	l := a.TicketLimiter("g1")
	require.Same(t, l, a.TicketLimiter("g1"))
	require.NotSame(t, l, a.TicketLimiter("g2"))

	// Burst of three, then throttled.
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.False(t, l.Allow())
}
