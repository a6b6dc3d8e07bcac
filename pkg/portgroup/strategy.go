package portgroup

import (
	"fmt"
	"sort"

	"github.com/packetplane/switchd/pkg/asic"
	"github.com/packetplane/switchd/pkg/lanemode"
	"github.com/packetplane/switchd/pkg/log"
	"github.com/packetplane/switchd/pkg/platform"
	"github.com/packetplane/switchd/pkg/port"
	"github.com/packetplane/switchd/pkg/portresource"
	"github.com/packetplane/switchd/pkg/state"
)

// transitionStrategy realizes a lane mode change on the ASIC. The two
// implementations have structurally different invariants, so the choice
// is made once at group construction from platform metadata and never
// revisited.
type transitionStrategy interface {
	Name() string
	// SetActiveLanes changes the lane grouping of g's resource to the
	// desired mode. All members are already quiesced. On success the
	// group's member list reflects the new hardware state.
	SetActiveLanes(g *Group, newPorts []*state.PortConfig, desired lanemode.Mode) error
}

func newTransitionStrategy(cfg *platform.Config, sdk asic.SDK, table *port.Table) (transitionStrategy, error) {
	if cfg.UsePortResourceAPIs {
		if !cfg.SupportsAddRemovePorts {
			return nil, fmt.Errorf("platform %q requires port resource APIs but does not support adding or removing ports", cfg.Name)
		}
		return &flexportStrategy{sdk: sdk, table: table, cfg: cfg}, nil
	}
	return &registerStrategy{sdk: sdk}, nil
}

// registerStrategy is the legacy path for platforms without dynamic
// port add/remove: only the controlling port's lane-count register is
// written and member port objects survive.
//
// The hardware cannot move directly between single and dual lane
// grouping; those transitions are staged through QUAD first. The ports
// are all disabled at this point, so the extra write causes no packet
// loss.
type registerStrategy struct {
	sdk asic.SDK
}

func (s *registerStrategy) Name() string { return "register" }

func (s *registerStrategy) SetActiveLanes(g *Group, newPorts []*state.PortConfig, desired lanemode.Mode) error {
	current := g.LaneMode()
	if (current == lanemode.Single && desired == lanemode.Dual) ||
		(current == lanemode.Dual && desired == lanemode.Single) {
		if err := s.setLanesControl(g, lanemode.Quad); err != nil {
			return err
		}
	}
	return s.setLanesControl(g, desired)
}

func (s *registerStrategy) setLanesControl(g *Group, mode lanemode.Mode) error {
	base := g.ControllingPort()
	rv := s.sdk.PortControlSet(base.Phys(), asic.PortControlLanes, mode.Lanes())
	if err := asic.CheckError(rv, "configure %d active lanes for port %d", mode.Lanes(), base.ID()); err != nil {
		return err
	}
	metricLaneRegisterWritesTotal.Inc()
	return nil
}

// flexportStrategy destroys and recreates port objects through one
// remove/add transaction. Forwarding state and per-port trap controls
// are not preserved by the transaction and are handled explicitly
// around it.
type flexportStrategy struct {
	sdk   asic.SDK
	table *port.Table
	cfg   *platform.Config
}

func (s *flexportStrategy) Name() string { return "flexport" }

func (s *flexportStrategy) SetActiveLanes(g *Group, newPorts []*state.PortConfig, desired lanemode.Mode) error {
	// Clear forwarding state and suspend trap controls for every
	// current member before the ports are destroyed. Stale address
	// entries must never point at a removed hardware object.
	for _, member := range g.members {
		rv := s.sdk.L2AddrDeleteByPort(member.Phys(), asic.L2DeleteStatic)
		if err := asic.CheckError(rv, "delete static l2 entries for port %d", member.ID()); err != nil {
			return err
		}
		rv = s.sdk.L2AddrDeleteByPort(member.Phys(), asic.L2DeletePending)
		if err := asic.CheckError(rv, "delete pending l2 entries for port %d", member.ID()); err != nil {
			return err
		}
		if err := s.setPortSpecificControls(member, false); err != nil {
			return err
		}
	}

	// Build and commit the transaction: remove every current member,
	// add every port of the new snapshot, program once. A failed
	// program may leave the resource with the old ports removed and no
	// new ports added; that residual risk is surfaced to the caller,
	// not hidden here.
	builder := portresource.NewBuilder(s.sdk, s.cfg, g.ControllingPort(), desired)
	builder.RemovePorts(g.members)
	added, err := builder.AddPorts(newPorts)
	if err != nil {
		return err
	}
	if err := builder.Program(); err != nil {
		return err
	}

	// Resync the port table: old handles out, new handles in.
	controllingID := g.ControllingPortID()
	for _, member := range g.members {
		if err := s.table.Remove(member.ID()); err != nil {
			return err
		}
	}
	newMembers := make([]*port.Port, 0, len(added))
	for _, cfg := range added {
		member, err := s.table.Add(cfg.ID, false)
		if err != nil {
			return err
		}
		newMembers = append(newMembers, member)
	}

	// Rebind the group to the newly created handles. The transaction
	// returns them in the positional order they were requested in, but
	// the sort keeps the member ordering invariant explicit.
	sort.Slice(newMembers, func(i, j int) bool { return newMembers[i].ID() < newMembers[j].ID() })
	controlling, err := s.table.Get(controllingID)
	if err != nil {
		return fmt.Errorf("controlling port %d missing after reconfiguration: %w", controllingID, err)
	}
	g.controlling = controlling
	g.members = newMembers
	for _, member := range g.members {
		member.SetGroup(g)
	}

	// Restore the trap controls suspended above, now on the new member
	// set.
	for _, member := range g.members {
		if err := s.setPortSpecificControls(member, true); err != nil {
			return err
		}
	}

	log.Logger.Infow("programmed flexport transaction",
		"controllingPort", controllingID,
		"laneMode", desired.String(),
		"members", len(g.members))
	return nil
}

// Some switch controls are programmed on a port-by-port basis and are
// not updated by the flexport transaction, so they are disabled before
// changing the port group and re-enabled after.
func (s *flexportStrategy) setPortSpecificControls(p *port.Port, enable bool) error {
	value := 0
	action := "disable"
	if enable {
		value = 1
		action = "enable"
	}
	controls := []asic.SwitchControl{
		asic.SwitchControlARPRequestToCPU,
		asic.SwitchControlARPReplyToCPU,
		asic.SwitchControlDHCPPacketDrop,
		asic.SwitchControlDHCPPacketToCPU,
		asic.SwitchControlNDPacketToCPU,
	}
	for _, control := range controls {
		rv := s.sdk.SwitchControlPortSet(p.Phys(), control, value)
		if err := asic.CheckError(rv, "failed to %s %s for port %d", action, control, p.ID()); err != nil {
			return err
		}
	}
	return nil
}
