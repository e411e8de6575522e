package entities

import "encoding/json"

// TicketState is the lifecycle state of a ticket. States beyond the two
// pre-defined ones only need an id and a display name.
type TicketState struct {
	// ID is the identifier of the state.
	ID string `json:"id"`

	// Name is the display name of the state.
	Name string `json:"name"`
}

var (
	// StateOpen is the initial state of every ticket.
	StateOpen = TicketState{ID: "open", Name: "Open"}

	// StateSolved is the state of a resolved ticket.
	StateSolved = TicketState{ID: "solved", Name: "Solved"}
)

// OtherKeyUserController is the side-channel key holding the id of the
// in-ticket control message.
const OtherKeyUserController = "userControllerId"

// Ticket identifies a channel as a ticket. The channel id is the identity of
// the ticket; there is at most one ticket per channel.
type Ticket struct {
	// ChannelID is the ID of the channel backing the ticket.
	ChannelID string `json:"canalId"`

	// CategoryID is the identifier of the ticket category the creator chose.
	CategoryID string `json:"categoryId"`

	// CreatorID is the ID of the member that created the ticket.
	CreatorID string `json:"creatorId"`

	// UserIDs are the members granted access to the ticket channel, in the
	// order they were added. The creator is not repeated here.
	UserIDs []string `json:"userIds"`

	// State is the lifecycle state of the ticket.
	State TicketState `json:"state"`

	// Other carries free-form side-channel values, such as the id of the
	// control message sent into the ticket channel.
	Other map[string]string `json:"other"`

	// wire is the stored object the ticket was decoded from. Fields this
	// program does not model are merged back on encode.
	wire wireObject
}

// MarshalJSON implements the json.Marshaler interface. The ticket's fields
// are merged over the object it was decoded from, so unknown fields survive
// a load/save cycle and zero values are not injected into older entries.
func (t Ticket) MarshalJSON() ([]byte, error) {
	o := t.wire.clone()
	for _, err := range []error{
		o.set("canalId", t.ChannelID),
		o.setPresent("categoryId", t.CategoryID, t.CategoryID != ""),
		o.setPresent("creatorId", t.CreatorID, t.CreatorID != ""),
		o.setPresent("userIds", t.UserIDs, len(t.UserIDs) > 0),
		o.setPresent("state", t.State, t.State != TicketState{}),
		o.setPresent("other", t.Other, len(t.Other) > 0),
	} {
		if err != nil {
			return nil, err
		}
	}
	return o.encode()
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *Ticket) UnmarshalJSON(data []byte) error {
	type plain Ticket
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	wire, err := decodeWireObject(data)
	if err != nil {
		return err
	}
	*t = Ticket(p)
	t.wire = wire
	return nil
}

// NewTicket creates an open ticket for the given channel.
func NewTicket(channelID, categoryID, creatorID string, userIDs []string) *Ticket {
	return &Ticket{
		ChannelID:  channelID,
		CategoryID: categoryID,
		CreatorID:  creatorID,
		UserIDs:    userIDs,
		State:      StateOpen,
		Other:      make(map[string]string),
	}
}

// AddUser grants a member access to the ticket. Returns false when the
// member already had access.
func (t *Ticket) AddUser(memberID string) bool {
	for _, id := range t.UserIDs {
		if id == memberID {
			return false
		}
	}
	t.UserIDs = append(t.UserIDs, memberID)
	return true
}

// MemberIDs returns every member of the ticket, creator included.
func (t *Ticket) MemberIDs() []string {
	out := make([]string, 0, len(t.UserIDs)+1)
	out = append(out, t.UserIDs...)
	out = append(out, t.CreatorID)
	return out
}

// SetOther stores a side-channel value, allocating the map on first use so
// that tickets loaded from records without an "other" field stay usable.
func (t *Ticket) SetOther(key, value string) {
	if t.Other == nil {
		t.Other = make(map[string]string)
	}
	t.Other[key] = value
}

// GetOther returns a side-channel value.
func (t *Ticket) GetOther(key string) (string, bool) {
	v, ok := t.Other[key]
	return v, ok
}

// Solved reports whether the ticket is in the solved state.
func (t *Ticket) Solved() bool {
	return t.State.ID == StateSolved.ID
}
