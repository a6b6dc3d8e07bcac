package port

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetplane/switchd/pkg/asic"
	"github.com/packetplane/switchd/pkg/asic/sim"
	"github.com/packetplane/switchd/pkg/errdefs"
	"github.com/packetplane/switchd/pkg/platform"
	"github.com/packetplane/switchd/pkg/state"
)

func testPlatform() *platform.Config {
	return &platform.Config{
		Ports: []platform.PortMapping{
			{ID: 1, Phys: 1, ControllingPort: 1, LaneSpeeds: []state.Speed{state.Speed10G, state.Speed20G, state.Speed40G}},
			{ID: 2, Phys: 2, ControllingPort: 1, LaneSpeeds: []state.Speed{state.Speed10G}},
			{ID: 3, Phys: 3, ControllingPort: 1, LaneSpeeds: []state.Speed{state.Speed10G}},
			{ID: 4, Phys: 4, ControllingPort: 1, LaneSpeeds: []state.Speed{state.Speed10G}},
		},
	}
}

func TestTableAddRemoveGet(t *testing.T) {
	tbl := NewTable(sim.New(), testPlatform())

	p, err := tbl.Add(1, false)
	require.NoError(t, err)
	assert.Equal(t, state.PortID(1), p.ID())
	assert.Equal(t, asic.PhysID(1), p.Phys())

	_, err = tbl.Add(1, false)
	assert.True(t, errdefs.IsAlreadyExists(err))

	_, err = tbl.Add(99, false)
	assert.True(t, errdefs.IsNotFound(err))

	got, err := tbl.Get(1)
	require.NoError(t, err)
	assert.Same(t, p, got)

	require.NoError(t, tbl.Remove(1))
	assert.True(t, errdefs.IsNotFound(tbl.Remove(1)))
	_, err = tbl.Get(1)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestTableOrdering(t *testing.T) {
	tbl := NewTable(sim.New(), testPlatform())
	for _, id := range []state.PortID{4, 2, 1, 3} {
		_, err := tbl.Add(id, true)
		require.NoError(t, err)
	}
	assert.Equal(t, []state.PortID{1, 2, 3, 4}, tbl.IDs())
	assert.Equal(t, 4, tbl.Len())

	ports := tbl.Ports()
	require.Len(t, ports, 4)
	for i, p := range ports {
		assert.Equal(t, state.PortID(i+1), p.ID())
	}
}

func TestSupportsSpeed(t *testing.T) {
	tbl := NewTable(sim.New(), testPlatform())
	p1, err := tbl.Add(1, false)
	require.NoError(t, err)
	p2, err := tbl.Add(2, false)
	require.NoError(t, err)

	// port 1 carries 10G/20G/40G lane denominations
	assert.True(t, p1.SupportsSpeed(state.Speed40G))
	assert.True(t, p1.SupportsSpeed(state.Speed20G))
	assert.True(t, p1.SupportsSpeed(state.Speed10G))
	assert.True(t, p1.SupportsSpeed(state.SpeedDefault))
	assert.False(t, p1.SupportsSpeed(state.Speed25G))

	// port 2 only has the 10G denomination, up to four lanes
	assert.True(t, p2.SupportsSpeed(state.Speed40G))
	assert.False(t, p2.SupportsSpeed(state.Speed50G))
}

func TestPortEnableDisable(t *testing.T) {
	s := sim.New()
	s.CreatePort(1)
	tbl := NewTable(s, testPlatform())
	p, err := tbl.Add(1, false)
	require.NoError(t, err)

	cfg := &state.PortConfig{ID: 1, Enabled: true, Speed: state.Speed10G}
	require.NoError(t, p.Enable(cfg))
	assert.True(t, s.Enabled(1))

	require.NoError(t, p.Disable(cfg))
	assert.False(t, s.Enabled(1))

	require.NoError(t, p.EnableLinkscan())
	assert.True(t, s.LinkscanEnabled(1))
	require.NoError(t, p.DisableLinkscan())
	assert.False(t, s.LinkscanEnabled(1))
}

func TestPortEnableFailurePropagates(t *testing.T) {
	s := sim.New()
	s.CreatePort(1)
	tbl := NewTable(s, testPlatform())
	p, err := tbl.Add(1, false)
	require.NoError(t, err)

	s.FailNext(sim.CallPortEnableSet, asic.StatusFail)
	err = p.Enable(&state.PortConfig{ID: 1, Enabled: true})
	require.Error(t, err)
	assert.True(t, asic.IsCallError(err))
}
