package dataaccess

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/example/warden/pkg/entities"
	"github.com/stretchr/testify/require"
)

func newTestGuildData(t *testing.T) (*GuildData, *JSONFileStore) {
	t.Helper()
	s, err := NewJSONFileStore(filepath.Join(t.TempDir(), "guilds.json"))
	require.NoError(t, err)
	return NewGuildData(s, "g1", slog.Default()), s
}

func TestGuildDataSaveBeforeReload(t *testing.T) {
	gd, _ := newTestGuildData(t)
	require.False(t, gd.Save())
}

func TestGuildDataReloadSeedsRecord(t *testing.T) {
	gd, store := newTestGuildData(t)
	require.NoError(t, gd.Reload())

	raw, err := store.GetGuild("g1")
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(raw))
	require.False(t, gd.IsComplete())
}

func TestGuildDataRoundTrip(t *testing.T) {
	gd, store := newTestGuildData(t)

	// t2 is an entry written by an older build: no state or other field, and
	// a field this build does not model.
	seed := `{
		"joinCanal": "c1",
		"ticketsCategory": "cat1",
		"ticket-ids": [
			{"canalId":"t1","categoryId":"general","creatorId":"u1","userIds":["u2"],"state":{"id":"open","name":"Open"},"other":{}},
			{"canalId":"t2","categoryId":"general","creatorId":"u3","claimedBy":"u9"}
		],
		"user-ids": [{"memberId":"u1","permissions":{"nodes":["ticket_admin"]},"groups":["admin"],"note":"kept"}],
		"custom": "kept"
	}`
	require.NoError(t, store.SetGuild("g1", json.RawMessage(seed)))
	require.NoError(t, gd.Reload())

	require.True(t, gd.IsComplete())
	require.Equal(t, "c1", gd.JoinChannel.Get())
	require.Equal(t, "cat1", gd.TicketsCategory.Get())
	require.Equal(t, []string{"t1", "t2"}, gd.TicketIDs())

	// A load-save cycle with no mutations leaves the record as it was,
	// unknown fields included.
	require.True(t, gd.Save())
	raw, err := store.GetGuild("g1")
	require.NoError(t, err)
	require.JSONEq(t, seed, string(raw))
}

func TestGuildDataReloadIdempotent(t *testing.T) {
	gd, _ := newTestGuildData(t)
	require.NoError(t, gd.Reload())

	gd.JoinChannel.Set("c1")
	require.NoError(t, gd.Reload())
	require.Equal(t, "c1", gd.JoinChannel.Get())
	require.NoError(t, gd.Reload())
	require.Equal(t, "c1", gd.JoinChannel.Get())
}

func TestGuildDataUserLazyCreate(t *testing.T) {
	gd, store := newTestGuildData(t)
	require.NoError(t, gd.Reload())

	u := gd.User("u1")
	require.Equal(t, "u1", u.MemberID)

	// The same record comes back on the second call.
	require.Same(t, u, gd.User("u1"))

	// Empty holders are pruned from storage.
	raw, err := store.GetGuild("g1")
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(raw))

	// A holder with content is persisted.
	u.AssignGroup("admin")
	require.True(t, gd.Save())
	raw, err = store.GetGuild("g1")
	require.NoError(t, err)
	require.JSONEq(t, `{"user-ids":[{"memberId":"u1","permissions":{"nodes":[]},"groups":["admin"]}]}`, string(raw))
}

func TestGuildDataRoleLazyCreate(t *testing.T) {
	gd, _ := newTestGuildData(t)
	require.NoError(t, gd.Reload())

	r := gd.Role("r1")
	require.Equal(t, "r1", r.RoleID)
	require.Same(t, r, gd.Role("r1"))
}

func TestGuildDataTickets(t *testing.T) {
	gd, _ := newTestGuildData(t)
	require.NoError(t, gd.Reload())

	ticket := entities.NewTicket("t1", "general", "u1", nil)
	require.Same(t, ticket, gd.AddTicketIfAbsent(ticket))

	// Re-registering the same channel returns the existing entry.
	dup := entities.NewTicket("t1", "general", "u2", nil)
	require.Same(t, ticket, gd.AddTicketIfAbsent(dup))
	require.Equal(t, []string{"t1"}, gd.TicketIDs())

	got, ok := gd.Ticket("t1")
	require.True(t, ok)
	require.Same(t, ticket, got)

	require.True(t, gd.RemoveTicket(ticket))
	require.False(t, gd.RemoveTicket(ticket))
	_, ok = gd.Ticket("t1")
	require.False(t, ok)
}

func TestGuildDataConcurrentAccess(t *testing.T) {
	gd, _ := newTestGuildData(t)
	require.NoError(t, gd.Reload())

	// Writers and readers run on separate handler goroutines in production;
	// the race detector flags any unguarded access to the collections.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket := entities.NewTicket(fmt.Sprintf("t%d", i), "general", "u1", nil)
			gd.AddTicketIfAbsent(ticket)
			gd.RemoveTicket(ticket)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			gd.TicketIDs()
			gd.Ticket(fmt.Sprintf("t%d", i))
			gd.IsComplete()
			gd.RoleRecords()
		}()
	}
	wg.Wait()
}

func TestGuildDataClearTickets(t *testing.T) {
	gd, _ := newTestGuildData(t)
	require.NoError(t, gd.Reload())

	gd.AddTicketIfAbsent(entities.NewTicket("t1", "general", "u1", nil))
	gd.AddTicketIfAbsent(entities.NewTicket("t2", "general", "u2", nil))

	removed := gd.ClearTickets()
	require.Len(t, removed, 2)
	require.Empty(t, gd.TicketIDs())
}

func TestGuildDataFreeFormValues(t *testing.T) {
	gd, store := newTestGuildData(t)
	require.NoError(t, gd.Reload())

	_, ok := gd.Get(KeyJoinMessage)
	require.False(t, ok)

	gd.Set(KeyJoinMessage, "m1")
	v, ok := gd.Get(KeyJoinMessage)
	require.True(t, ok)
	require.Equal(t, "m1", v)

	// Set writes through immediately.
	raw, err := store.GetGuild("g1")
	require.NoError(t, err)
	require.JSONEq(t, `{"join-message":"m1"}`, string(raw))

	gd.Unset(KeyJoinMessage)
	_, ok = gd.Get(KeyJoinMessage)
	require.False(t, ok)
}

func TestGuildDalCachesAggregates(t *testing.T) {
	s, err := NewJSONFileStore(filepath.Join(t.TempDir(), "guilds.json"))
	require.NoError(t, err)
	dal := NewGuildDal(s, slog.Default())

	gd, err := dal.Data("g1")
	require.NoError(t, err)

	again, err := dal.Data("g1")
	require.NoError(t, err)
	require.Same(t, gd, again)
	require.Len(t, dal.Loaded(), 1)

	dal.Forget("g1")
	require.Empty(t, dal.Loaded())

	// The stored record survives a Forget.
	require.True(t, s.HasGuild("g1"))
}
