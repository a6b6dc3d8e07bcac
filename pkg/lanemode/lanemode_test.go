package lanemode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetplane/switchd/pkg/errdefs"
)

func TestFromLaneCount(t *testing.T) {
	tests := []struct {
		lanes   int
		want    Mode
		wantErr bool
	}{
		{1, Single, false},
		{2, Dual, false},
		{4, Quad, false},
		{0, 0, true},
		{3, 0, true},
		{5, 0, true},
		{8, 0, true},
		{-1, 0, true},
	}

	for _, tt := range tests {
		got, err := FromLaneCount(tt.lanes)
		if tt.wantErr {
			require.Error(t, err, "lanes=%d", tt.lanes)
			assert.True(t, errdefs.IsInvalidLaneCount(err))
			continue
		}
		require.NoError(t, err, "lanes=%d", tt.lanes)
		assert.Equal(t, tt.want, got)
	}
}

func TestOrdering(t *testing.T) {
	assert.True(t, Quad.Wider(Dual))
	assert.True(t, Quad.Wider(Single))
	assert.True(t, Dual.Wider(Single))
	assert.False(t, Single.Wider(Dual))
	assert.False(t, Dual.Wider(Dual))
}

func TestLanes(t *testing.T) {
	assert.Equal(t, 1, Single.Lanes())
	assert.Equal(t, 2, Dual.Lanes())
	assert.Equal(t, 4, Quad.Lanes())
}

func TestString(t *testing.T) {
	assert.Equal(t, "SINGLE", Single.String())
	assert.Equal(t, "DUAL", Dual.String())
	assert.Equal(t, "QUAD", Quad.String())
	assert.Equal(t, "Mode(3)", Mode(3).String())
}

// Exhaustive over all modes and all four lane positions of a resource.
func TestLegalPosition(t *testing.T) {
	legal := map[Mode][4]bool{
		Single: {true, true, true, true},
		Dual:   {true, false, true, false},
		Quad:   {true, false, false, false},
	}

	for mode, positions := range legal {
		for pos, want := range positions {
			assert.Equal(t, want, LegalPosition(mode, pos),
				"mode=%s position=%d", mode, pos)
		}
	}

	// unknown modes fail closed
	for pos := 0; pos < 4; pos++ {
		assert.False(t, LegalPosition(Mode(3), pos))
		assert.False(t, LegalPosition(Mode(0), pos))
	}
}
