package dataaccess

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *JSONFileStore {
	t.Helper()
	s, err := NewJSONFileStore(filepath.Join(t.TempDir(), "guilds.json"))
	require.NoError(t, err)
	return s
}

func TestJSONFileStoreFirstRun(t *testing.T) {
	s := newTestStore(t)

	raw, err := s.GetGuild("g1")
	require.NoError(t, err)
	require.Nil(t, raw)
	require.False(t, s.HasGuild("g1"))
}

func TestJSONFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.json")
	s, err := NewJSONFileStore(path)
	require.NoError(t, err)

	record := json.RawMessage(`{"joinCanal":"c1"}`)
	require.NoError(t, s.SetGuild("g1", record))
	require.True(t, s.HasGuild("g1"))

	got, err := s.GetGuild("g1")
	require.NoError(t, err)
	require.JSONEq(t, string(record), string(got))

	// Writes are flushed immediately; a fresh store over the same file sees
	// them.
	reopened, err := NewJSONFileStore(path)
	require.NoError(t, err)
	got, err = reopened.GetGuild("g1")
	require.NoError(t, err)
	require.JSONEq(t, string(record), string(got))
}

func TestJSONFileStoreRemoveGuild(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetGuild("g1", json.RawMessage(`{}`)))
	require.NoError(t, s.RemoveGuild("g1"))
	require.False(t, s.HasGuild("g1"))
}
