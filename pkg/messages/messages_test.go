package messages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogueDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "Set", c.Get(KeySet))
	require.Equal(t, "Setup is not complete: Join Channel", c.Get(KeySetupIncomplete, "Join Channel"))
	require.Equal(t, "Slow down, too many tickets are being created. Try again shortly.", c.Get(KeyTicketRateLimited))

	// Unknown keys come back verbatim.
	require.Equal(t, "no-such-key", c.Get("no-such-key"))
}

func TestCatalogueOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("set: Configured\njoin-embed:\n  title: Hello\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "Configured", c.Get(KeySet))
	require.Equal(t, "Hello", c.Get(KeyJoinEmbedTitle))

	// Keys without overrides fall back on the defaults.
	require.Equal(t, "Not set", c.Get(KeyNotSet))
}

func TestCatalogueReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("set: One\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "One", c.Get(KeySet))

	require.NoError(t, os.WriteFile(path, []byte("set: Two\n"), 0o644))
	require.NoError(t, c.Reload())
	require.Equal(t, "Two", c.Get(KeySet))
}

func TestCatalogueMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "Set", c.Get(KeySet))
}
