package portgroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetplane/switchd/pkg/errdefs"
	"github.com/packetplane/switchd/pkg/lanemode"
	"github.com/packetplane/switchd/pkg/platform"
	"github.com/packetplane/switchd/pkg/state"
)

func enabledPort(id state.PortID, speed state.Speed) *state.PortConfig {
	return &state.PortConfig{ID: id, Enabled: true, Speed: speed}
}

func disabledPort(id state.PortID) *state.PortConfig {
	return &state.PortConfig{ID: id}
}

func TestNeededLaneModeForSpeed(t *testing.T) {
	tenOnly := []state.Speed{state.Speed10G}
	full := []state.Speed{state.Speed10G, state.Speed20G, state.Speed40G}

	tests := []struct {
		name       string
		speed      state.Speed
		laneSpeeds []state.Speed
		lane       int
		want       lanemode.Mode
		wantErr    func(error) bool
	}{
		{name: "10G over 10G lanes", speed: state.Speed10G, laneSpeeds: tenOnly, lane: 0, want: lanemode.Single},
		{name: "20G over 10G lanes", speed: state.Speed20G, laneSpeeds: tenOnly, lane: 0, want: lanemode.Dual},
		{name: "40G over 10G lanes", speed: state.Speed40G, laneSpeeds: tenOnly, lane: 0, want: lanemode.Quad},
		// the smallest satisfying lane count wins when several
		// denominations divide evenly
		{name: "40G prefers one 40G lane", speed: state.Speed40G, laneSpeeds: full, lane: 0, want: lanemode.Single},
		{name: "20G prefers one 20G lane", speed: state.Speed20G, laneSpeeds: full, lane: 3, want: lanemode.Single},
		// odd quotients in (2,4] round up to QUAD
		{name: "30G over 10G lanes", speed: state.Speed(30_000), laneSpeeds: tenOnly, lane: 0, want: lanemode.Quad},
		{name: "DEFAULT speed always fails", speed: state.SpeedDefault, laneSpeeds: full, lane: 0, wantErr: errdefs.IsUnsupportedSpeed},
		{name: "no denomination divides", speed: state.Speed25G, laneSpeeds: tenOnly, lane: 0, wantErr: errdefs.IsUnsupportedSpeed},
		{name: "too many lanes needed", speed: state.Speed100G, laneSpeeds: tenOnly, lane: 0, wantErr: errdefs.IsUnsupportedSpeed},
		// divisible but positionally illegal
		{name: "quad requirement off lane 0", speed: state.Speed40G, laneSpeeds: tenOnly, lane: 2, wantErr: errdefs.IsIllegalLaneAssignment},
		{name: "dual requirement on odd lane", speed: state.Speed20G, laneSpeeds: tenOnly, lane: 1, wantErr: errdefs.IsIllegalLaneAssignment},
		{name: "dual requirement on lane 2", speed: state.Speed20G, laneSpeeds: tenOnly, lane: 2, want: lanemode.Dual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := neededLaneModeForSpeed(tt.speed, tt.laneSpeeds, tt.lane)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error class: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateDesiredLaneMode(t *testing.T) {
	tenOnly := []state.Speed{state.Speed10G}

	t.Run("all single", func(t *testing.T) {
		mode, err := CalculateDesiredLaneMode([]*state.PortConfig{
			enabledPort(1, state.Speed10G),
			enabledPort(2, state.Speed10G),
			enabledPort(3, state.Speed10G),
			enabledPort(4, state.Speed10G),
		}, tenOnly)
		require.NoError(t, err)
		assert.Equal(t, lanemode.Single, mode)
	})

	t.Run("disabled ports do not contribute", func(t *testing.T) {
		mode, err := CalculateDesiredLaneMode([]*state.PortConfig{
			enabledPort(1, state.Speed40G),
			disabledPort(2),
			disabledPort(3),
			disabledPort(4),
		}, tenOnly)
		require.NoError(t, err)
		assert.Equal(t, lanemode.Quad, mode)
	})

	t.Run("group takes the widest requirement", func(t *testing.T) {
		mode, err := CalculateDesiredLaneMode([]*state.PortConfig{
			enabledPort(1, state.Speed10G),
			disabledPort(2),
			enabledPort(3, state.Speed20G),
			disabledPort(4),
		}, tenOnly)
		require.NoError(t, err)
		assert.Equal(t, lanemode.Dual, mode)
	})

	t.Run("single lane port legal at any position under quad", func(t *testing.T) {
		// lane 2 only needs one lane; lane 0 drives the group to QUAD.
		// Position 0 is always legal, and a single-lane requirement
		// never conflicts with the group widening.
		mode, err := CalculateDesiredLaneMode([]*state.PortConfig{
			enabledPort(1, state.Speed40G),
			disabledPort(2),
			enabledPort(3, state.Speed10G),
			disabledPort(4),
		}, tenOnly)
		require.NoError(t, err)
		assert.Equal(t, lanemode.Quad, mode)
	})

	t.Run("quad requirement off lane 0 fails", func(t *testing.T) {
		_, err := CalculateDesiredLaneMode([]*state.PortConfig{
			enabledPort(1, state.Speed10G),
			disabledPort(2),
			enabledPort(3, state.Speed40G),
			disabledPort(4),
		}, tenOnly)
		require.Error(t, err)
		assert.True(t, errdefs.IsIllegalLaneAssignment(err))
	})

	t.Run("dual port at lane 2 illegal once group widens to quad", func(t *testing.T) {
		_, err := CalculateDesiredLaneMode([]*state.PortConfig{
			enabledPort(1, state.Speed40G),
			disabledPort(2),
			enabledPort(3, state.Speed20G),
			disabledPort(4),
		}, tenOnly)
		require.Error(t, err)
		assert.True(t, errdefs.IsIllegalLaneAssignment(err))
	})

	t.Run("enabled DEFAULT speed fails regardless of siblings", func(t *testing.T) {
		_, err := CalculateDesiredLaneMode([]*state.PortConfig{
			enabledPort(1, state.Speed10G),
			enabledPort(2, state.SpeedDefault),
		}, tenOnly)
		require.Error(t, err)
		assert.True(t, errdefs.IsUnsupportedSpeed(err))
	})

	t.Run("no enabled ports yields single", func(t *testing.T) {
		mode, err := CalculateDesiredLaneMode([]*state.PortConfig{
			disabledPort(1), disabledPort(2),
		}, tenOnly)
		require.NoError(t, err)
		assert.Equal(t, lanemode.Single, mode)
	})
}

func TestCalculateDesiredLaneModeFromProfiles(t *testing.T) {
	profiles := map[state.ProfileID]platform.Profile{
		"PROFILE_10G_1_NRZ": {Lanes: 1, Speed: state.Speed10G},
		"PROFILE_20G_2_NRZ": {Lanes: 2, Speed: state.Speed20G},
		"PROFILE_40G_4_NRZ": {Lanes: 4, Speed: state.Speed40G},
		"PROFILE_BROKEN":    {Lanes: 3},
	}

	profilePort := func(id state.PortID, profile state.ProfileID) *state.PortConfig {
		return &state.PortConfig{ID: id, Enabled: true, Profile: profile}
	}

	t.Run("widest profile wins", func(t *testing.T) {
		mode, err := CalculateDesiredLaneModeFromProfiles([]*state.PortConfig{
			profilePort(1, "PROFILE_40G_4_NRZ"),
			disabledPort(2),
			profilePort(3, "PROFILE_10G_1_NRZ"),
			disabledPort(4),
		}, profiles)
		require.NoError(t, err)
		assert.Equal(t, lanemode.Quad, mode)
	})

	t.Run("unsupported profile", func(t *testing.T) {
		_, err := CalculateDesiredLaneModeFromProfiles([]*state.PortConfig{
			profilePort(1, "PROFILE_MISSING"),
		}, profiles)
		require.Error(t, err)
		assert.True(t, errdefs.IsUnsupportedProfile(err))
	})

	t.Run("malformed profile table is fatal", func(t *testing.T) {
		_, err := CalculateDesiredLaneModeFromProfiles([]*state.PortConfig{
			profilePort(1, "PROFILE_BROKEN"),
		}, profiles)
		require.Error(t, err)
		assert.True(t, errdefs.IsInvalidLaneCount(err))
	})

	t.Run("quad profile off lane 0 fails", func(t *testing.T) {
		_, err := CalculateDesiredLaneModeFromProfiles([]*state.PortConfig{
			profilePort(1, "PROFILE_10G_1_NRZ"),
			disabledPort(2),
			profilePort(3, "PROFILE_40G_4_NRZ"),
			disabledPort(4),
		}, profiles)
		require.Error(t, err)
		assert.True(t, errdefs.IsIllegalLaneAssignment(err))
	})

	t.Run("dual profile legal at lane 2", func(t *testing.T) {
		mode, err := CalculateDesiredLaneModeFromProfiles([]*state.PortConfig{
			profilePort(1, "PROFILE_20G_2_NRZ"),
			disabledPort(2),
			profilePort(3, "PROFILE_20G_2_NRZ"),
			disabledPort(4),
		}, profiles)
		require.NoError(t, err)
		assert.Equal(t, lanemode.Dual, mode)
	})
}
