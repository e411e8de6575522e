package messages

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUserErrorProcessing is the generic failure message shown to users when
// a command blows up.
const ErrUserErrorProcessing = "There was an error processing your request. Please try again later."

// Message keys. The YAML file mirrors this dotted layout as nested mappings.
const (
	KeyServerNotLoaded    = "server-not-loaded"
	KeyBadChannel         = "bad-channel"
	KeyNotTicketChannel   = "not-ticket-channel"
	KeyNotChildChannel    = "not-child-channel"
	KeyJoinChannelSet     = "join-canal-set"
	KeyTicketsCategorySet = "tickets-category-set"
	KeySetupFinish        = "setup-finish"
	KeySetupIncomplete    = "setup-incomplete"
	KeyActionNotSupported = "action-not-supported"
	KeyBotReloaded        = "bot-reloaded"
	KeyTicketCreated      = "ticket-created"
	KeyTicketRateLimited  = "ticket-rate-limited"
	KeyGroupNotFound      = "group-not-found"
	KeyUserGroupChanged   = "user-group-changed"
	KeyUserGroupsCleared  = "user-groups-cleared"
	KeyRoleGroupChanged   = "role-group-changed"
	KeyRoleGroupsCleared  = "role-groups-cleared"
	KeyNoPermission       = "no-permission"
	KeySet                = "set"
	KeyNotSet             = "not-set"

	KeyJoinEmbedTitle  = "join-embed.title"
	KeyJoinEmbedDesc   = "join-embed.desc"
	KeyJoinEmbedFooter = "join-embed.footer"

	KeySetupEmbedIncompleteTitle = "setup-embed.incomplete.title"
	KeySetupEmbedIncompleteDesc  = "setup-embed.incomplete.desc"
	KeySetupEmbedCompleteTitle   = "setup-embed.complete.title"
	KeySetupEmbedCompleteDesc    = "setup-embed.complete.desc"
	KeySetupEmbedFooter          = "setup-embed.footer"

	KeyAdminEmbedTitle           = "ticket.admin-embed.title"
	KeyAdminEmbedDesc            = "ticket.admin-embed.desc"
	KeyAdminEmbedCategory        = "ticket.admin-embed.fields.category"
	KeyAdminEmbedCategoryUnknown = "ticket.admin-embed.fields.category-unknown"
	KeyAdminEmbedState           = "ticket.admin-embed.fields.state"
)

// defaults are the built-in message strings. A catalogue file only needs the
// keys it wants to override.
var defaults = map[string]string{
	KeyServerNotLoaded:    "This server is not loaded yet. Please try again in a moment.",
	KeyBadChannel:         "This command cannot be used in this channel.",
	KeyNotTicketChannel:   "This channel is not a ticket.",
	KeyNotChildChannel:    "This channel does not belong to a category.",
	KeyJoinChannelSet:     "The join channel has been set to this channel.",
	KeyTicketsCategorySet: "The tickets category has been set to this channel's category.",
	KeySetupFinish:        "Setup finished. Tickets are ready to go!",
	KeySetupIncomplete:    "Setup is not complete: %s",
	KeyActionNotSupported: "That action is not supported.",
	KeyBotReloaded:        "The bot has been reloaded for this server.",
	KeyTicketCreated:      "Your ticket has been created: %s",
	KeyTicketRateLimited:  "Slow down, too many tickets are being created. Try again shortly.",
	KeyGroupNotFound:      "That permission group does not exist.",
	KeyUserGroupChanged:   "%s has been assigned to the **%s** group.",
	KeyUserGroupsCleared:  "All groups have been removed from %s.",
	KeyRoleGroupChanged:   "%s has been assigned to the **%s** group.",
	KeyRoleGroupsCleared:  "All groups have been removed from %s.",
	KeyNoPermission:       "You don't have permission to do this.",
	KeySet:                "Set",
	KeyNotSet:             "Not set",

	KeyJoinEmbedTitle:  "Need help?",
	KeyJoinEmbedDesc:   "Select a category below to open a ticket.\nA private channel will be created for you.",
	KeyJoinEmbedFooter: "Tickets",

	KeySetupEmbedIncompleteTitle: "Setup incomplete",
	KeySetupEmbedIncompleteDesc:  "Pick an action below to finish setting up tickets.",
	KeySetupEmbedCompleteTitle:   "Setup complete",
	KeySetupEmbedCompleteDesc:    "Tickets are configured for this server.",
	KeySetupEmbedFooter:          "Run setup again at any time to reconfigure.",

	KeyAdminEmbedTitle:           "Ticket administration",
	KeyAdminEmbedDesc:            "Administration of ticket %s.",
	KeyAdminEmbedCategory:        "Category",
	KeyAdminEmbedCategoryUnknown: "Unknown Category",
	KeyAdminEmbedState:           "State",
}

// Catalogue resolves message keys to user-facing strings, with YAML
// overrides layered over the built-in defaults.
type Catalogue struct {
	// mu guards overrides across Reload.
	mu sync.RWMutex

	// path is the overrides file. Empty means defaults only.
	path string

	// overrides are the values loaded from the file.
	overrides map[string]string
}

// Load creates a catalogue over the given overrides file. A missing file is
// fine; the defaults cover every key.
func Load(path string) (*Catalogue, error) {
	c := &Catalogue{
		path:      path,
		overrides: make(map[string]string),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the overrides file.
func (c *Catalogue) Reload() error {
	if c.path == "" {
		return nil
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading messages file %s: %w", c.path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("error decoding messages file %s: %w", c.path, err)
	}

	overrides := make(map[string]string)
	flatten("", doc, overrides)

	c.mu.Lock()
	c.overrides = overrides
	c.mu.Unlock()
	return nil
}

// Get returns the message for a key, formatted with the given arguments when
// any are supplied. Unknown keys come back as the key itself, so a typo is
// visible instead of silent.
func (c *Catalogue) Get(key string, args ...any) string {
	c.mu.RLock()
	msg, ok := c.overrides[key]
	c.mu.RUnlock()
	if !ok {
		msg, ok = defaults[key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// flatten turns nested YAML mappings into dotted keys.
func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
}
