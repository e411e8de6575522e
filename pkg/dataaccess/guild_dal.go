package dataaccess

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/warden/pkg/logging"
)

const guildDalName = "guild_dal"

// GuildDal hands out the per-guild data aggregates. Aggregates are created
// lazily on first access and live for the process lifetime, or until the bot
// leaves the guild.
type GuildDal interface {
	// Data returns the aggregate for a guild, loading it from the store on
	// first access.
	Data(guildID string) (*GuildData, error)

	// Loaded returns every aggregate created so far.
	Loaded() []*GuildData

	// Forget drops the in-memory aggregate for a guild.
	Forget(guildID string)
}

type guildDal struct {
	// mu guards data.
	mu sync.Mutex

	// l is the logger.
	l *slog.Logger

	// store is the backing persistence layer.
	store Store

	// data holds the aggregates, keyed by guild id.
	data map[string]*GuildData

	// order preserves first-access order for Loaded.
	order []string
}

// NewGuildDal creates a new guild data access layer over the given store.
func NewGuildDal(store Store, l *slog.Logger) GuildDal {
	return &guildDal{
		l:     l.With(slog.String(logging.KeyDal, guildDalName)),
		store: store,
		data:  make(map[string]*GuildData),
	}
}

func (g *guildDal) Data(guildID string) (*GuildData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if d, ok := g.data[guildID]; ok {
		return d, nil
	}

	d := NewGuildData(g.store, guildID, g.l)
	if err := d.Reload(); err != nil {
		return nil, fmt.Errorf("error loading guild %s: %w", guildID, err)
	}
	g.data[guildID] = d
	g.order = append(g.order, guildID)
	return d, nil
}

func (g *guildDal) Loaded() []*GuildData {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*GuildData, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.data[id])
	}
	return out
}

func (g *guildDal) Forget(guildID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.data[guildID]; !ok {
		return
	}
	delete(g.data, guildID)
	for i, id := range g.order {
		if id == guildID {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}
