package dataaccess

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/example/warden/pkg/dataaccess/monitoring"
	"github.com/prometheus/client_golang/prometheus"
)

const storeDalName = "guild_store"

// Store is the key-value persistence layer over guild records. Each record
// is an arbitrary JSON object owned by the store; a whole record is rewritten
// on every set, there are no partial writes.
type Store interface {
	// GetGuild returns the record of a guild, or nil when the guild has no
	// record yet. A missing record is first-run state, not an error.
	GetGuild(guildID string) (json.RawMessage, error)

	// SetGuild writes the record of a guild through to disk synchronously.
	SetGuild(guildID string, record json.RawMessage) error

	// HasGuild reports whether the guild has a record.
	HasGuild(guildID string) bool
}

// JSONFileStore is a Store over a single JSON document on disk that maps
// guild ids to their records.
type JSONFileStore struct {
	// mu guards data and the backing file.
	mu sync.Mutex

	// path is the location of the backing file.
	path string

	// data is the decoded document.
	data map[string]json.RawMessage
}

// NewJSONFileStore opens the store at the given path, creating an empty
// document when the file does not exist yet.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	s := &JSONFileStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run.
			return s, nil
		}
		return nil, fmt.Errorf("error reading store file %s: %w", path, err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("error decoding store file %s: %w", path, err)
		}
	}
	return s, nil
}

// Path returns the location of the backing file.
func (s *JSONFileStore) Path() string {
	return s.path
}

// GetGuild returns the record of a guild, or nil when absent.
func (s *JSONFileStore) GetGuild(guildID string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Start the prometheus metrics.
	monitoring.StoreTotalRequests.WithLabelValues(storeDalName, "get_guild").Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(storeDalName, "get_guild"))
	defer t.ObserveDuration()

	record, ok := s.data[guildID]
	if !ok {
		return nil, nil
	}

	// Hand out a copy so that callers cannot mutate the document behind the
	// store's back.
	out := make(json.RawMessage, len(record))
	copy(out, record)
	return out, nil
}

// SetGuild replaces the record of a guild and rewrites the backing file.
func (s *JSONFileStore) SetGuild(guildID string, record json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Start the prometheus metrics.
	monitoring.StoreTotalRequests.WithLabelValues(storeDalName, "set_guild").Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(storeDalName, "set_guild"))
	defer t.ObserveDuration()

	kept := make(json.RawMessage, len(record))
	copy(kept, record)
	s.data[guildID] = kept

	if err := s.flush(); err != nil {
		return fmt.Errorf("error writing store file %s: %w", s.path, err)
	}
	return nil
}

// HasGuild reports whether the guild has a record.
func (s *JSONFileStore) HasGuild(guildID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data[guildID]
	return ok
}

// RemoveGuild drops the record of a guild, for when the bot leaves it.
func (s *JSONFileStore) RemoveGuild(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	monitoring.StoreTotalRequests.WithLabelValues(storeDalName, "remove_guild").Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(storeDalName, "remove_guild"))
	defer t.ObserveDuration()

	if _, ok := s.data[guildID]; !ok {
		return nil
	}
	delete(s.data, guildID)

	if err := s.flush(); err != nil {
		return fmt.Errorf("error writing store file %s: %w", s.path, err)
	}
	return nil
}

// flush serializes the whole document and writes it out. Callers hold mu.
func (s *JSONFileStore) flush() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("error encoding store document: %w", err)
	}
	return os.WriteFile(s.path, raw, 0o644)
}
