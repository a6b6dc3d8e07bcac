// Package hal assembles the ASIC abstraction into a single switch
// object: a port table plus one port group per controlling port. It is
// the entry point for applying declarative switch state to hardware.
package hal

import (
	"fmt"
	"sort"

	"github.com/packetplane/switchd/pkg/asic"
	"github.com/packetplane/switchd/pkg/log"
	"github.com/packetplane/switchd/pkg/platform"
	"github.com/packetplane/switchd/pkg/port"
	"github.com/packetplane/switchd/pkg/portgroup"
	"github.com/packetplane/switchd/pkg/state"
)

// Switch owns all hardware port objects for one ASIC unit.
type Switch struct {
	sdk    asic.SDK
	cfg    *platform.Config
	table  *port.Table
	groups map[state.PortID]*portgroup.Group
}

type Op struct {
	warmBoot           bool
	eventSink          portgroup.EventSink
	platformPortFactor port.PlatformPortFactory
}

type OpOption func(*Op)

// WithWarmBoot keeps the running hardware state during initialization
// instead of programming ports from scratch.
func WithWarmBoot(b bool) OpOption {
	return func(op *Op) {
		op.warmBoot = b
	}
}

// WithEventSink journals every lane transition to the given sink.
func WithEventSink(s portgroup.EventSink) OpOption {
	return func(op *Op) {
		op.eventSink = s
	}
}

// WithPlatformPortFactory overrides how platform port callbacks are
// created for each port.
func WithPlatformPortFactory(f port.PlatformPortFactory) OpOption {
	return func(op *Op) {
		op.platformPortFactor = f
	}
}

// New builds the port table from the platform mapping and folds the
// ports into their lane groups, reading the active lane mode of each
// group back from hardware.
func New(sdk asic.SDK, cfg *platform.Config, opts ...OpOption) (*Switch, error) {
	op := &Op{}
	for _, o := range opts {
		o(op)
	}

	var tableOpts []port.TableOption
	if op.platformPortFactor != nil {
		tableOpts = append(tableOpts, port.WithPlatformPortFactory(op.platformPortFactor))
	}
	table := port.NewTable(sdk, cfg, tableOpts...)
	for _, m := range cfg.Ports {
		if _, err := table.Add(m.ID, op.warmBoot); err != nil {
			return nil, fmt.Errorf("initializing port %d (%s): %w", m.ID, m.Name, err)
		}
	}

	var groupOpts []portgroup.Option
	if op.eventSink != nil {
		groupOpts = append(groupOpts, portgroup.WithEventSink(op.eventSink))
	}

	groups := make(map[state.PortID]*portgroup.Group)
	for _, ctl := range cfg.ControllingPorts() {
		controlling, err := table.Get(ctl)
		if err != nil {
			return nil, fmt.Errorf("resolving controlling port %d: %w", ctl, err)
		}
		var members []*port.Port
		for _, m := range cfg.PortsByControllingPort(ctl) {
			p, err := table.Get(m.ID)
			if err != nil {
				return nil, fmt.Errorf("resolving member port %d of group %d: %w", m.ID, ctl, err)
			}
			members = append(members, p)
		}
		g, err := portgroup.New(sdk, table, cfg, controlling, members, groupOpts...)
		if err != nil {
			return nil, fmt.Errorf("building port group %d: %w", ctl, err)
		}
		groups[ctl] = g
	}

	log.Logger.Infow("switch initialized",
		"platform", cfg.Name, "ports", table.Len(), "portGroups", len(groups), "warmBoot", op.warmBoot)
	return &Switch{sdk: sdk, cfg: cfg, table: table, groups: groups}, nil
}

// PortTable returns the live port table. Flexport transitions add and
// remove entries, so callers must not cache the result of table reads
// across ApplyState.
func (s *Switch) PortTable() *port.Table {
	return s.table
}

// Groups returns all port groups sorted by controlling port ID.
func (s *Switch) Groups() []*portgroup.Group {
	out := make([]*portgroup.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ControllingPortID() < out[j].ControllingPortID()
	})
	return out
}

// Group returns the port group owned by the given controlling port,
// or nil if the port does not control a group.
func (s *Switch) Group(ctl state.PortID) *portgroup.Group {
	return s.groups[ctl]
}

// Validate reports whether the desired state is programmable on this
// switch. It never touches hardware.
func (s *Switch) Validate(snap *state.Snapshot) bool {
	ok := true
	for _, g := range s.Groups() {
		if !g.Validate(snap) {
			ok = false
		}
	}
	return ok
}

// ApplyState transitions the switch from the old desired state to the
// new one. Lane regrouping happens first, group by group; admin state
// and speed are applied afterwards, once the port table is final.
func (s *Switch) ApplyState(oldSnap, newSnap *state.Snapshot) error {
	for _, g := range s.Groups() {
		if err := g.ReconfigureIfNeeded(oldSnap, newSnap); err != nil {
			return fmt.Errorf("reconfiguring port group %d: %w", g.ControllingPortID(), err)
		}
	}
	return s.EnablePorts(newSnap)
}

// EnablePorts applies the admin state of the snapshot to every port
// present in the table. Ports a lane transition left disabled come up
// here, after all groups have settled.
func (s *Switch) EnablePorts(snap *state.Snapshot) error {
	for _, p := range s.table.Ports() {
		cfg := snap.Port(p.ID())
		if cfg == nil {
			continue
		}
		if !cfg.Enabled {
			if err := p.Disable(cfg); err != nil {
				return fmt.Errorf("disabling port %d: %w", p.ID(), err)
			}
			continue
		}
		if err := p.Enable(cfg); err != nil {
			return fmt.Errorf("enabling port %d: %w", p.ID(), err)
		}
		if err := p.EnableLinkscan(); err != nil {
			return fmt.Errorf("enabling linkscan on port %d: %w", p.ID(), err)
		}
	}
	return nil
}
