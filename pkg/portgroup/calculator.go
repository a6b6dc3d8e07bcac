package portgroup

import (
	"fmt"

	"github.com/packetplane/switchd/pkg/errdefs"
	"github.com/packetplane/switchd/pkg/lanemode"
	"github.com/packetplane/switchd/pkg/log"
	"github.com/packetplane/switchd/pkg/platform"
	"github.com/packetplane/switchd/pkg/state"
)

// neededLaneModeForSpeed finds the narrowest lane mode that can realize
// the requested speed out of the port's per-lane speed denominations,
// subject to lane position legality at the port's own position.
func neededLaneModeForSpeed(speed state.Speed, laneSpeeds []state.Speed, lane int) (lanemode.Mode, error) {
	if speed == state.SpeedDefault {
		return 0, fmt.Errorf("%w: speed cannot be DEFAULT when flex-porting is enabled", errdefs.ErrUnsupportedSpeed)
	}

	var (
		best      lanemode.Mode
		divisible bool
	)
	for _, laneSpeed := range laneSpeeds {
		if laneSpeed == 0 || speed%laneSpeed != 0 {
			// skip denominations that do not divide evenly
			continue
		}
		neededLanes := int(speed / laneSpeed)

		var mode lanemode.Mode
		switch {
		case neededLanes == 1:
			mode = lanemode.Single
		case neededLanes == 2:
			mode = lanemode.Dual
		case neededLanes > 2 && neededLanes <= 4:
			mode = lanemode.Quad
		default:
			continue
		}
		divisible = true

		if !lanemode.LegalPosition(mode, lane) {
			continue
		}
		if best == 0 || best.Wider(mode) {
			best = mode
		}
	}

	if best != 0 {
		return best, nil
	}
	if divisible {
		return 0, fmt.Errorf("%w: lane %d cannot realize speed %s", errdefs.ErrIllegalLaneAssignment, lane, speed)
	}
	return 0, fmt.Errorf("%w: %s", errdefs.ErrUnsupportedSpeed, speed)
}

// CalculateDesiredLaneMode folds the legacy per-lane speed calculation
// across the ordered member ports: every enabled port contributes the
// narrowest mode its speed allows, and the group takes the widest. The
// index of each port in the slice is its physical lane position.
func CalculateDesiredLaneMode(ports []*state.PortConfig, laneSpeeds []state.Speed) (lanemode.Mode, error) {
	desired := lanemode.Single
	needed := make([]lanemode.Mode, len(ports))

	for lane, p := range ports {
		if !p.Enabled {
			continue
		}
		mode, err := neededLaneModeForSpeed(p.Speed, laneSpeeds, lane)
		if err != nil {
			return 0, fmt.Errorf("port %d: %w", p.ID, err)
		}
		needed[lane] = mode
		if mode.Wider(desired) {
			desired = mode
		}
		log.Logger.Debugw("port lane requirement", "port", p.ID, "speed", p.Speed, "mode", mode.String())
	}

	if err := checkLaneAssignments(ports, needed, desired); err != nil {
		return 0, err
	}
	return desired, nil
}

// CalculateDesiredLaneModeFromProfiles is the profile-based
// calculation: every enabled port looks up its profile's lane count in
// the supported-profile table. Unknown lane counts in the table are a
// configuration-integrity failure, not a transient condition.
func CalculateDesiredLaneModeFromProfiles(ports []*state.PortConfig, profiles map[state.ProfileID]platform.Profile) (lanemode.Mode, error) {
	desired := lanemode.Single
	needed := make([]lanemode.Mode, len(ports))

	for lane, p := range ports {
		if !p.Enabled {
			continue
		}
		profile, ok := profiles[p.Profile]
		if !ok {
			return 0, fmt.Errorf("port %d: %w: %q", p.ID, errdefs.ErrUnsupportedProfile, p.Profile)
		}
		mode, err := lanemode.FromLaneCount(profile.Lanes)
		if err != nil {
			return 0, fmt.Errorf("port %d, profile %q: %w", p.ID, p.Profile, err)
		}
		needed[lane] = mode
		if mode.Wider(desired) {
			desired = mode
		}
	}

	if err := checkLaneAssignments(ports, needed, desired); err != nil {
		return 0, err
	}
	return desired, nil
}

// checkLaneAssignments re-validates lane position legality against the
// folded group mode. Only ports that themselves require more than one
// lane are constrained: a multi-lane port legal under a narrower mode
// may become illegal once the group widens, while a single-lane port
// may sit at any position.
func checkLaneAssignments(ports []*state.PortConfig, needed []lanemode.Mode, desired lanemode.Mode) error {
	for lane, p := range ports {
		if !p.Enabled || needed[lane] == 0 || needed[lane] == lanemode.Single {
			continue
		}
		if !lanemode.LegalPosition(desired, lane) {
			return fmt.Errorf("port %d: %w: lane %d cannot be active in %s mode",
				p.ID, errdefs.ErrIllegalLaneAssignment, lane, desired)
		}
	}
	return nil
}
