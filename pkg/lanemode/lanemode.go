// Package lanemode defines the lane grouping modes of a port group and
// the per-mode lane position legality rules.
package lanemode

import (
	"fmt"

	"github.com/packetplane/switchd/pkg/errdefs"
)

// Mode is the number of active lanes ganged behind one controlling
// port. The numeric value equals the lane count, which gives the modes
// a total order by width.
type Mode uint8

const (
	// Single uses one lane per port (e.g. 4x10G on a 4-lane resource).
	Single Mode = 1
	// Dual uses two lanes per port (e.g. 2x20G).
	Dual Mode = 2
	// Quad gangs all four lanes into one port (e.g. 1x40G).
	Quad Mode = 4
)

// FromLaneCount converts a lane count into a Mode. Anything outside
// {1, 2, 4} fails closed with ErrInvalidLaneCount.
func FromLaneCount(lanes int) (Mode, error) {
	switch lanes {
	case 1:
		return Single, nil
	case 2:
		return Dual, nil
	case 4:
		return Quad, nil
	default:
		return 0, fmt.Errorf("%w: %d", errdefs.ErrInvalidLaneCount, lanes)
	}
}

// Lanes returns the active lane count for the mode.
func (m Mode) Lanes() int {
	return int(m)
}

// Wider reports whether m uses more lanes per port than other.
func (m Mode) Wider(other Mode) bool {
	return m > other
}

func (m Mode) String() string {
	switch m {
	case Single:
		return "SINGLE"
	case Dual:
		return "DUAL"
	case Quad:
		return "QUAD"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// LegalPosition reports whether a port at the given lane position may
// be an active (controlling) lane under the mode. In Quad mode only
// lane 0 may be active; in Dual mode lanes 0 and 2; in Single mode any
// lane may independently be active.
func LegalPosition(m Mode, position int) bool {
	switch m {
	case Quad:
		return position == 0
	case Dual:
		return position == 0 || position == 2
	case Single:
		return true
	default:
		return false
	}
}
