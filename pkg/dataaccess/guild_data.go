package dataaccess

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/example/warden/pkg/entities"
	"github.com/example/warden/pkg/logging"
)

// Record field names. These are the wire format of the guild record and must
// not change, or existing data files stop loading.
const (
	// KeyJoinChannel is the field holding the join channel id.
	KeyJoinChannel = "joinCanal"

	// KeyTicketsCategory is the field holding the tickets category id.
	KeyTicketsCategory = "ticketsCategory"

	// KeyTicketIDs is the field holding the ticket records.
	KeyTicketIDs = "ticket-ids"

	// KeyUserIDs is the field holding the user permission records.
	KeyUserIDs = "user-ids"

	// KeyRoleIDs is the field holding the role permission records.
	KeyRoleIDs = "role-ids"

	// KeyJoinMessage is the field holding the id of the join message.
	KeyJoinMessage = "join-message"
)

// SavedChannel is a channel reference bound to a field on the guild record.
// Setting it writes through to the store immediately.
type SavedChannel struct {
	ref   entities.ChannelRef
	key   string
	owner *GuildData
}

// IsPresent reports whether a channel id is configured.
func (c *SavedChannel) IsPresent() bool {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	return c.ref.IsPresent()
}

// IsEmpty reports whether no channel id is configured.
func (c *SavedChannel) IsEmpty() bool {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	return c.ref.IsEmpty()
}

// Get returns the raw channel id. Empty when unset.
func (c *SavedChannel) Get() string {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	return c.ref.Get()
}

// Set updates the channel id and persists the owning guild record.
func (c *SavedChannel) Set(id string) {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	c.ref.Set(id)
	c.owner.set(c.key, id)
}

// Resolve fetches the live channel from Discord. The result is never cached;
// channel state can change out-of-band at any time. The lock is not held
// across the API call.
func (c *SavedChannel) Resolve(s *discordgo.Session) (*discordgo.Channel, error) {
	c.owner.mu.Lock()
	ref := c.ref
	c.owner.mu.Unlock()
	return ref.Resolve(s)
}

// load reads the id from the guild record. Callers hold the owner's lock.
func (c *SavedChannel) load(record map[string]json.RawMessage) {
	c.ref.Clear()
	raw, ok := record[c.key]
	if !ok {
		return
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		c.owner.l.Warn("Ignoring malformed channel id field",
			slog.String("key", c.key),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}
	c.ref.Set(id)
}

// save writes the id into the guild record, dropping the field when unset.
// Callers hold the owner's lock.
func (c *SavedChannel) save(record map[string]json.RawMessage) {
	if c.ref.IsEmpty() {
		delete(record, c.key)
		return
	}
	raw, _ := json.Marshal(c.ref.Get())
	record[c.key] = raw
}

// GuildData aggregates everything the bot persists for one guild: the join
// channel, the tickets category, and the ticket/user/role collections. It is
// a cache over the guild's JSON record; mutations are in-memory until Save.
type GuildData struct {
	// mu serializes every read and mutation-and-save pair. Handlers run on
	// separate goroutines, so unlike a single event loop this needs a real
	// lock. The exported collections are not synchronized on their own; go
	// through the accessor methods from handler code.
	mu sync.Mutex

	// l is the logger.
	l *slog.Logger

	// store is the backing persistence layer.
	store Store

	// guildID is the primary key into the store.
	guildID string

	// record is the decoded guild record. Nil until the first Reload.
	record map[string]json.RawMessage

	// JoinChannel is the channel the join message lives in.
	JoinChannel *SavedChannel

	// TicketsCategory is the category ticket channels are created under.
	TicketsCategory *SavedChannel

	// Tickets are the tickets of the guild, in creation order.
	Tickets *SavedCollection[*entities.Ticket]

	// Users are the per-member permission records. Empty ones are kept in
	// memory but excluded from persistence.
	Users *SavedCollection[*entities.TicketUser]

	// Roles are the per-role permission records.
	Roles *SavedCollection[*entities.TicketRole]
}

// NewGuildData creates the aggregate for a guild. Reload must be called
// before anything else; Save reports false until then.
func NewGuildData(store Store, guildID string, l *slog.Logger) *GuildData {
	d := &GuildData{
		l:       l.With(slog.String(logging.KeyGuild, guildID)),
		store:   store,
		guildID: guildID,
	}
	d.JoinChannel = &SavedChannel{key: KeyJoinChannel, owner: d}
	d.TicketsCategory = &SavedChannel{key: KeyTicketsCategory, owner: d}
	d.Tickets = NewSavedCollection[*entities.Ticket](KeyTicketIDs)
	d.Users = NewSavedCollection[*entities.TicketUser](KeyUserIDs).
		WithRetention(func(u *entities.TicketUser) bool { return !u.Empty() })
	d.Roles = NewSavedCollection[*entities.TicketRole](KeyRoleIDs).
		WithRetention(func(r *entities.TicketRole) bool { return !r.Empty() })
	return d
}

// GuildID returns the id of the guild.
func (d *GuildData) GuildID() string {
	return d.guildID
}

// Reload re-reads the guild record from the store and rebuilds the channel
// references and collections from it. A guild with no record gets an empty
// one seeded and persisted. Safe to call repeatedly.
func (d *GuildData) Reload() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	raw, err := d.store.GetGuild(d.guildID)
	if err != nil {
		return fmt.Errorf("error reading guild record: %w", err)
	}

	if raw == nil {
		// First run for this guild.
		d.record = make(map[string]json.RawMessage)
		if !d.save() {
			return fmt.Errorf("error seeding empty guild record")
		}
	} else {
		record := make(map[string]json.RawMessage)
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("error decoding guild record: %w", err)
		}
		d.record = record
	}

	d.JoinChannel.load(d.record)
	d.TicketsCategory.load(d.record)

	if err := d.Tickets.Load(d.record); err != nil {
		return fmt.Errorf("error loading tickets: %w", err)
	}
	if err := d.Users.Load(d.record); err != nil {
		return fmt.Errorf("error loading users: %w", err)
	}
	if err := d.Roles.Load(d.record); err != nil {
		return fmt.Errorf("error loading roles: %w", err)
	}
	return nil
}

// Save merges the channel references and collections into the guild record
// and writes it to the store in a single atomic write. Reports false when no
// record has been loaded yet or the store write fails.
func (d *GuildData) Save() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.save()
}

// save performs the merge and write. Callers hold mu.
func (d *GuildData) save() bool {
	if d.record == nil {
		return false
	}

	d.JoinChannel.save(d.record)
	d.TicketsCategory.save(d.record)

	for _, err := range []error{
		d.Tickets.Save(d.record),
		d.Users.Save(d.record),
		d.Roles.Save(d.record),
	} {
		if err != nil {
			d.l.Error("Error serializing guild record", slog.String(logging.KeyError, err.Error()))
			return false
		}
	}

	raw, err := json.Marshal(d.record)
	if err != nil {
		d.l.Error("Error encoding guild record", slog.String(logging.KeyError, err.Error()))
		return false
	}
	if err := d.store.SetGuild(d.guildID, raw); err != nil {
		d.l.Error("Error writing guild record", slog.String(logging.KeyError, err.Error()))
		return false
	}
	return true
}

// IsComplete reports whether both the join channel and the tickets category
// are configured. Ticket creation and the reload handlers are gated on this.
func (d *GuildData) IsComplete() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.JoinChannel.ref.IsPresent() && d.TicketsCategory.ref.IsPresent()
}

// Set stores a free-form string value on the guild record and persists it.
func (d *GuildData) Set(key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.set(key, value)
}

// set performs the store-and-persist. Callers hold mu.
func (d *GuildData) set(key, value string) {
	if d.record == nil {
		d.record = make(map[string]json.RawMessage)
	}
	raw, _ := json.Marshal(value)
	d.record[key] = raw
	d.save()
}

// Get returns a free-form string value from the guild record.
func (d *GuildData) Get(key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	raw, ok := d.record[key]
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

// Unset drops a free-form value from the guild record and persists.
func (d *GuildData) Unset(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.record[key]; !ok {
		return
	}
	delete(d.record, key)
	d.save()
}

// User returns the permission record for a member, creating and persisting
// an empty one on first sight. The holder stays in memory even while empty;
// the retention filter keeps it out of storage until it gains content.
func (d *GuildData) User(memberID string) *entities.TicketUser {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.Users.Find(func(u *entities.TicketUser) bool { return u.MemberID == memberID })
	if ok {
		return user
	}

	user = entities.NewTicketUser(memberID)
	d.Users.Push(user)
	d.save()
	return user
}

// Role returns the permission record for a role, creating and persisting an
// empty one on first sight.
func (d *GuildData) Role(roleID string) *entities.TicketRole {
	d.mu.Lock()
	defer d.mu.Unlock()

	role, ok := d.Roles.Find(func(r *entities.TicketRole) bool { return r.RoleID == roleID })
	if ok {
		return role
	}

	role = entities.NewTicketRole(roleID)
	d.Roles.Push(role)
	d.save()
	return role
}

// Ticket returns the ticket backed by the given channel.
func (d *GuildData) Ticket(channelID string) (*entities.Ticket, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Tickets.Find(func(t *entities.Ticket) bool { return t.ChannelID == channelID })
}

// TicketIDs returns the channel ids of every ticket, in creation order.
func (d *GuildData) TicketIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	items := d.Tickets.Items()
	ids := make([]string, 0, len(items))
	for _, t := range items {
		ids = append(ids, t.ChannelID)
	}
	return ids
}

// RoleRecords returns a snapshot of the role permission records.
func (d *GuildData) RoleRecords() []*entities.TicketRole {
	d.mu.Lock()
	defer d.mu.Unlock()

	items := d.Roles.Items()
	out := make([]*entities.TicketRole, len(items))
	copy(out, items)
	return out
}

// AddTicketIfAbsent registers a ticket unless its channel already has one,
// persisting on insert. Returns the registered ticket either way.
func (d *GuildData) AddTicketIfAbsent(ticket *entities.Ticket) *entities.Ticket {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, ok := d.Tickets.Find(func(t *entities.Ticket) bool { return t.ChannelID == ticket.ChannelID })
	if ok {
		return existing
	}
	d.Tickets.Push(ticket)
	d.save()
	return ticket
}

// RemoveTicket drops a ticket from the collection and persists the removal.
func (d *GuildData) RemoveTicket(ticket *entities.Ticket) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.Tickets.Remove(ticket) {
		return false
	}
	d.save()
	return true
}

// ClearTickets empties the ticket collection and persists. Returns the
// removed tickets.
func (d *GuildData) ClearTickets() []*entities.Ticket {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := d.Tickets.Splice(0, d.Tickets.Len())
	d.save()
	return removed
}
