// Package portgroup implements the lane-group reconfiguration engine:
// each Group owns the ports sharing one lane resource of the ASIC,
// tracks the lane mode programmed in hardware, and drives the teardown
// and rebuild sequence when the desired configuration requires a
// different lane grouping.
//
// The engine is single threaded: the caller applies state transitions
// one at a time and never runs a per-port operation concurrently with a
// reconfiguration of the same lane resource.
package portgroup

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/packetplane/switchd/pkg/asic"
	"github.com/packetplane/switchd/pkg/errdefs"
	"github.com/packetplane/switchd/pkg/lanemode"
	"github.com/packetplane/switchd/pkg/log"
	"github.com/packetplane/switchd/pkg/platform"
	"github.com/packetplane/switchd/pkg/port"
	"github.com/packetplane/switchd/pkg/state"
)

// TransitionEvent describes one completed or failed lane transition,
// for the event journal.
type TransitionEvent struct {
	Attempt         string
	ControllingPort state.PortID
	From, To        lanemode.Mode
	Strategy        string
	MembersBefore   int
	MembersAfter    int
	Err             error
}

// EventSink receives transition events. Implementations must not block.
type EventSink interface {
	RecordTransition(TransitionEvent)
}

// Group owns one lane resource: a controlling port and its sibling
// ports.
type Group struct {
	sdk      asic.SDK
	table    *port.Table
	cfg      *platform.Config
	strategy transitionStrategy
	events   EventSink

	controlling *port.Port
	// members is always sorted by logical port ID, which by
	// construction equals ascending physical lane position.
	members  []*port.Port
	laneMode lanemode.Mode
}

type Option func(*Group)

// WithEventSink journals lane transitions to the given sink.
func WithEventSink(s EventSink) Option {
	return func(g *Group) { g.events = s }
}

// New builds the group for a lane resource and seeds the current lane
// mode from a live hardware read of the controlling port. This is the
// only time the lane register is read; afterwards the in-memory mode is
// authoritative and updated only by successful reconfigurations.
func New(sdk asic.SDK, table *port.Table, cfg *platform.Config, controlling *port.Port, members []*port.Port, opts ...Option) (*Group, error) {
	g := &Group{
		sdk:         sdk,
		table:       table,
		cfg:         cfg,
		controlling: controlling,
		members:     append([]*port.Port(nil), members...),
	}
	for _, opt := range opts {
		opt(g)
	}

	// The input list does not have to arrive in lane order: port IDs
	// are assigned in physical lane order, so sorting by ID restores it.
	sort.Slice(g.members, func(i, j int) bool {
		return g.members[i].ID() < g.members[j].ID()
	})

	strategy, err := newTransitionStrategy(cfg, sdk, table)
	if err != nil {
		return nil, err
	}
	g.strategy = strategy

	activeLanes, err := g.retrieveActiveLanes()
	if err != nil {
		return nil, err
	}
	mode, err := lanemode.FromLaneCount(activeLanes)
	if err != nil {
		return nil, fmt.Errorf("unexpected number of active lanes for port %d: %w", controlling.ID(), err)
	}
	g.laneMode = mode

	for _, m := range g.members {
		m.SetGroup(g)
	}

	log.Logger.Infow("created port group",
		"controllingPort", controlling.ID(),
		"groupSize", len(g.members),
		"laneMode", mode.String(),
		"strategy", strategy.Name())
	return g, nil
}

// retrieveActiveLanes reads the authoritative lane-count register of
// the controlling port. Construction time only.
func (g *Group) retrieveActiveLanes() (int, error) {
	lanes, rv := g.sdk.PortControlGet(g.controlling.Phys(), asic.PortControlLanes)
	if err := asic.CheckError(rv, "get the number of active lanes for port %d", g.controlling.ID()); err != nil {
		return 0, err
	}
	return lanes, nil
}

func (g *Group) ControllingPort() *port.Port {
	return g.controlling
}

// ControllingPortID implements port.Membership.
func (g *Group) ControllingPortID() state.PortID {
	return g.controlling.ID()
}

// Members returns the member ports in ascending lane position order.
func (g *Group) Members() []*port.Port {
	return append([]*port.Port(nil), g.members...)
}

// LaneMode returns the lane mode currently programmed in hardware.
func (g *Group) LaneMode() lanemode.Mode {
	return g.laneMode
}

// statePorts resolves the group's member ports against a snapshot, in
// lane position order. When platform metadata is present it is the
// source of truth for membership; a member absent from the snapshot is
// skipped. Without metadata the currently registered members are used
// and each is cross-checked against its speed capability.
func (g *Group) statePorts(snap *state.Snapshot) ([]*state.PortConfig, error) {
	var out []*state.PortConfig
	if mappings := g.cfg.PortsByControllingPort(g.controlling.ID()); len(mappings) > 0 {
		for _, m := range mappings {
			if cfg := snap.Port(m.ID); cfg != nil {
				out = append(out, cfg)
			}
		}
		return out, nil
	}

	for _, member := range g.members {
		cfg := snap.Port(member.ID())
		if cfg == nil {
			continue
		}
		// Check the speed capability even if the port is disabled.
		if !member.SupportsSpeed(cfg.Speed) {
			return nil, fmt.Errorf("port %d: %w: does not support speed %s",
				member.ID(), errdefs.ErrUnsupportedSpeed, cfg.Speed)
		}
		out = append(out, cfg)
	}
	return out, nil
}

// desiredLaneMode computes the lane mode the snapshot's member
// configuration requires.
func (g *Group) desiredLaneMode(ports []*state.PortConfig) (lanemode.Mode, error) {
	if g.cfg.HasProfiles() {
		return CalculateDesiredLaneModeFromProfiles(ports, g.cfg.SupportedProfiles)
	}
	laneSpeeds := g.controlling.Mapping().LaneSpeeds
	return CalculateDesiredLaneMode(ports, laneSpeeds)
}

// Validate reports whether the snapshot's configuration is realizable
// on this lane resource. It is a pure pre-flight check: every
// calculation failure is converted to false and nothing escapes.
func (g *Group) Validate(snap *state.Snapshot) bool {
	ports, err := g.statePorts(snap)
	if err == nil {
		_, err = g.desiredLaneMode(ports)
	}
	if err != nil {
		log.Logger.Debugw("invalid lane configuration for port group",
			"controllingPort", g.controlling.ID(), "error", err)
		return false
	}
	return true
}

// ReconfigureIfNeeded computes the lane mode required by newSnap and,
// when it differs from the programmed mode, drives the lane transition.
// Per-port speed change notifications are propagated either way.
//
// On failure the in-memory state is left however far the sequence
// progressed; the lane mode is only updated once the hardware commit
// has succeeded.
func (g *Group) ReconfigureIfNeeded(oldSnap, newSnap *state.Snapshot) error {
	oldPorts, err := g.statePorts(oldSnap)
	if err != nil {
		return err
	}
	newPorts, err := g.statePorts(newSnap)
	if err != nil {
		return err
	}

	desired, err := g.desiredLaneMode(newPorts)
	if err != nil {
		return err
	}

	if desired != g.laneMode {
		if err := g.reconfigureLaneMode(oldPorts, newPorts, desired); err != nil {
			return err
		}
	}

	for _, member := range g.members {
		oldCfg := findPortConfig(oldPorts, member.ID())
		newCfg := findPortConfig(newPorts, member.ID())
		if oldCfg != nil && newCfg != nil && oldCfg.Speed != newCfg.Speed {
			member.PlatformPort().LinkSpeedChanged(newCfg.Speed)
		}
	}
	return nil
}

// reconfigureLaneMode is the lane transition state machine. The order
// is mandatory: quiesce every current member before the lane width
// changes, then run the strategy, then re-arm monitoring only. Port
// enablement is deferred to a later phase because it
// depends on forwarding-domain membership being established first.
func (g *Group) reconfigureLaneMode(oldPorts, newPorts []*state.PortConfig, desired lanemode.Mode) error {
	attempt := uuid.NewString()
	from := g.laneMode
	membersBefore := len(g.members)

	log.Logger.Infow("reconfiguring port group",
		"attempt", attempt,
		"controllingPort", g.controlling.ID(),
		"from", from.String(),
		"to", desired.String(),
		"strategy", g.strategy.Name())

	fail := func(err error) error {
		metricTransitionFailuresTotal.WithLabelValues(g.strategy.Name()).Inc()
		g.recordTransition(TransitionEvent{
			Attempt:         attempt,
			ControllingPort: g.controlling.ID(),
			From:            from,
			To:              desired,
			Strategy:        g.strategy.Name(),
			MembersBefore:   membersBefore,
			MembersAfter:    len(g.members),
			Err:             err,
		})
		return err
	}

	// 1. For every current member, stop link monitoring first, then
	// disable the port against the old configuration. No lane width
	// change may happen while a member is still passing traffic.
	for _, member := range g.members {
		oldCfg := findPortConfig(oldPorts, member.ID())
		if oldCfg == nil {
			return fail(fmt.Errorf("port %d missing from old snapshot: %w", member.ID(), errdefs.ErrNotFound))
		}
		if err := member.DisableLinkscan(); err != nil {
			return fail(err)
		}
		if err := member.Disable(oldCfg); err != nil {
			return fail(err)
		}
	}

	if err := g.strategy.SetActiveLanes(g, newPorts, desired); err != nil {
		return fail(err)
	}

	// The hardware commit succeeded: the in-memory mode must track it
	// even if a later step fails.
	g.laneMode = desired
	metricLaneTransitionsTotal.WithLabelValues(g.strategy.Name()).Inc()

	// Re-enable linkscan only, and only for ports enabled in the new
	// snapshot. Handles are re-resolved through the table because the
	// strategy may have re-created them.
	for _, cfg := range newPorts {
		if !cfg.Enabled {
			continue
		}
		member, err := g.table.Get(cfg.ID)
		if err != nil {
			return fail(err)
		}
		if err := member.EnableLinkscan(); err != nil {
			return fail(err)
		}
	}

	log.Logger.Infow("finished reconfiguring port group",
		"attempt", attempt,
		"controllingPort", g.controlling.ID(),
		"from", from.String(),
		"to", desired.String(),
		"groupSizeBefore", membersBefore,
		"groupSizeAfter", len(g.members))

	g.recordTransition(TransitionEvent{
		Attempt:         attempt,
		ControllingPort: g.controlling.ID(),
		From:            from,
		To:              desired,
		Strategy:        g.strategy.Name(),
		MembersBefore:   membersBefore,
		MembersAfter:    len(g.members),
	})
	return nil
}

func (g *Group) recordTransition(ev TransitionEvent) {
	if g.events != nil {
		g.events.RecordTransition(ev)
	}
}

func findPortConfig(ports []*state.PortConfig, id state.PortID) *state.PortConfig {
	for _, p := range ports {
		if p.ID == id {
			return p
		}
	}
	return nil
}
