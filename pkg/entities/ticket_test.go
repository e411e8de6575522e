package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTicket(t *testing.T) {
	ticket := NewTicket("chan1", "general", "creator1", nil)
	require.Equal(t, StateOpen, ticket.State)
	require.False(t, ticket.Solved())
	require.NotNil(t, ticket.Other)
}

func TestTicketAddUser(t *testing.T) {
	ticket := NewTicket("chan1", "general", "creator1", nil)

	require.True(t, ticket.AddUser("a"))
	require.False(t, ticket.AddUser("a"))
	require.True(t, ticket.AddUser("b"))

	require.Equal(t, []string{"a", "b"}, ticket.UserIDs)
	require.Equal(t, []string{"a", "b", "creator1"}, ticket.MemberIDs())
}

func TestTicketOther(t *testing.T) {
	ticket := NewTicket("chan1", "general", "creator1", nil)

	_, ok := ticket.GetOther(OtherKeyUserController)
	require.False(t, ok)

	ticket.SetOther(OtherKeyUserController, "msg1")
	v, ok := ticket.GetOther(OtherKeyUserController)
	require.True(t, ok)
	require.Equal(t, "msg1", v)

	// Tickets decoded from records without an "other" field have a nil map.
	bare := &Ticket{}
	bare.SetOther("k", "v")
	v, ok = bare.GetOther("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestTicketSolved(t *testing.T) {
	ticket := NewTicket("chan1", "general", "creator1", nil)
	require.False(t, ticket.Solved())

	ticket.State = StateSolved
	require.True(t, ticket.Solved())
}

func TestChannelRef(t *testing.T) {
	ref := NewChannelRef("")
	require.True(t, ref.IsEmpty())
	require.False(t, ref.IsPresent())

	_, err := ref.Resolve(nil)
	require.ErrorIs(t, err, ErrChannelNotSet)

	ref.Set("123")
	require.True(t, ref.IsPresent())
	require.Equal(t, "123", ref.Get())

	ref.Clear()
	require.True(t, ref.IsEmpty())
}

func TestTicketJSONKeepsStoredFields(t *testing.T) {
	// An entry written by an older build: no state or other field, plus a
	// field this build does not model.
	stored := `{"canalId":"t1","categoryId":"general","creatorId":"u1","userIds":["u2"],"legacy":"kept"}`

	var ticket Ticket
	require.NoError(t, json.Unmarshal([]byte(stored), &ticket))
	require.Equal(t, "t1", ticket.ChannelID)
	require.Equal(t, []string{"u2"}, ticket.UserIDs)

	// Encoding an untouched ticket reproduces the stored entry: the legacy
	// field survives and no zero-value state or other field is injected.
	out, err := json.Marshal(&ticket)
	require.NoError(t, err)
	require.JSONEq(t, stored, string(out))

	// A field shows up once it gains content.
	ticket.State = StateSolved
	out, err = json.Marshal(&ticket)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"canalId":"t1","categoryId":"general","creatorId":"u1","userIds":["u2"],"legacy":"kept","state":{"id":"solved","name":"Solved"}}`,
		string(out),
	)
}

func TestTicketJSONFreshTicket(t *testing.T) {
	ticket := NewTicket("t1", "general", "u1", nil)
	ticket.SetOther(OtherKeyUserController, "m1")

	out, err := json.Marshal(ticket)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"canalId":"t1","categoryId":"general","creatorId":"u1","state":{"id":"open","name":"Open"},"other":{"userControllerId":"m1"}}`,
		string(out),
	)
}
