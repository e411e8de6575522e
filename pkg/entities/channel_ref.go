package entities

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ErrChannelNotSet is returned when resolving a channel reference that has
// no id configured.
var ErrChannelNotSet = errors.New("channel is not set")

// ChannelRef wraps a possibly-unset channel id. Resolution always goes back
// to Discord, as the channel can be deleted or moved out-of-band at any time;
// the result is never cached.
type ChannelRef struct {
	id string
}

// NewChannelRef creates a reference to the given channel id. An empty id
// means "not configured".
func NewChannelRef(id string) *ChannelRef {
	return &ChannelRef{id: id}
}

// IsPresent reports whether an id is set.
func (c *ChannelRef) IsPresent() bool {
	return c.id != ""
}

// IsEmpty reports whether no id is set.
func (c *ChannelRef) IsEmpty() bool {
	return c.id == ""
}

// Get returns the raw channel id. Empty when unset.
func (c *ChannelRef) Get() string {
	return c.id
}

// Set updates the raw channel id.
func (c *ChannelRef) Set(id string) {
	c.id = id
}

// Clear unsets the reference.
func (c *ChannelRef) Clear() {
	c.id = ""
}

// Resolve fetches the live channel from Discord.
func (c *ChannelRef) Resolve(s *discordgo.Session) (*discordgo.Channel, error) {
	if c.IsEmpty() {
		return nil, ErrChannelNotSet
	}

	channel, err := s.Channel(c.id)
	if err != nil {
		return nil, fmt.Errorf("error getting channel %s: %w", c.id, err)
	}
	return channel, nil
}
