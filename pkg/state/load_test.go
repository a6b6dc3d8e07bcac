package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshot(t *testing.T) {
	snap, err := Parse([]byte(`
ports:
  - id: 2
    name: eth1/1/2
    enabled: true
    speed: 10000
  - id: 1
    enabled: true
    speed: 40000
    profile: PROFILE_40G_4_NRZ
`))
	require.NoError(t, err)
	require.Equal(t, 2, snap.Len())

	p := snap.Port(1)
	require.NotNil(t, p)
	assert.Equal(t, Speed40G, p.Speed)
	assert.Equal(t, ProfileID("PROFILE_40G_4_NRZ"), p.Profile)
	assert.Equal(t, PortID(1), snap.Ports()[0].ID)
}

func TestParseSnapshotBadYAML(t *testing.T) {
	_, err := Parse([]byte("ports: {not a list}"))
	assert.Error(t, err)
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ports:\n  - id: 3\n    enabled: false\n"), 0o644))

	snap, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())
	assert.False(t, snap.Port(3).Enabled)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
