// Package port wraps one live hardware port and maintains the table
// from logical port IDs to live port handles.
//
// Handles are re-seated across flexport reconfigurations: callers must
// never hold a *Port across a lane transition and always re-resolve
// through the Table.
package port

import (
	"github.com/packetplane/switchd/pkg/asic"
	"github.com/packetplane/switchd/pkg/log"
	"github.com/packetplane/switchd/pkg/platform"
	"github.com/packetplane/switchd/pkg/state"
)

// PlatformPort is the per-port platform binding notified of
// configuration changes that affect the physical layer.
type PlatformPort interface {
	LinkSpeedChanged(speed state.Speed)
}

// Membership is the port group a port belongs to. Declared here so the
// group package can register itself on its members without an import
// cycle.
type Membership interface {
	ControllingPortID() state.PortID
}

// Port is one live hardware port.
type Port struct {
	sdk     asic.SDK
	mapping platform.PortMapping
	pp      PlatformPort
	group   Membership
}

func New(sdk asic.SDK, mapping platform.PortMapping, pp PlatformPort) *Port {
	if pp == nil {
		pp = &loggingPlatformPort{mapping: mapping}
	}
	return &Port{sdk: sdk, mapping: mapping, pp: pp}
}

func (p *Port) ID() state.PortID {
	return p.mapping.ID
}

func (p *Port) Phys() asic.PhysID {
	return p.mapping.Phys
}

func (p *Port) Name() string {
	return p.mapping.Name
}

func (p *Port) Mapping() platform.PortMapping {
	return p.mapping
}

func (p *Port) PlatformPort() PlatformPort {
	return p.pp
}

// SetGroup registers the owning port group. Called once at group
// construction and again when the member list is rebuilt after a
// flexport transaction.
func (p *Port) SetGroup(g Membership) {
	p.group = g
}

func (p *Port) Group() Membership {
	return p.group
}

// SupportsSpeed reports whether the port's physical medium can realize
// the speed with at most four lanes. An unspecified speed is trivially
// supported.
func (p *Port) SupportsSpeed(s state.Speed) bool {
	if s == state.SpeedDefault {
		return true
	}
	for _, d := range p.mapping.LaneSpeeds {
		if d == 0 {
			continue
		}
		if s%d == 0 && s/d <= 4 {
			return true
		}
	}
	return false
}

// Enable programs the configured speed and administratively enables
// the port.
func (p *Port) Enable(cfg *state.PortConfig) error {
	if cfg != nil && cfg.Speed != state.SpeedDefault {
		rv := p.sdk.PortSpeedSet(p.Phys(), int(cfg.Speed))
		if err := asic.CheckError(rv, "set speed %s for port %d", cfg.Speed, p.ID()); err != nil {
			return err
		}
	}
	rv := p.sdk.PortEnableSet(p.Phys(), true)
	return asic.CheckError(rv, "enable port %d", p.ID())
}

// Disable administratively disables the port against its old
// configuration.
func (p *Port) Disable(cfg *state.PortConfig) error {
	rv := p.sdk.PortEnableSet(p.Phys(), false)
	if err := asic.CheckError(rv, "disable port %d", p.ID()); err != nil {
		return err
	}
	if cfg != nil && cfg.Enabled {
		log.Logger.Infow("disabled previously enabled port", "port", p.ID(), "name", p.Name())
	}
	return nil
}

func (p *Port) EnableLinkscan() error {
	rv := p.sdk.LinkscanModeSet(p.Phys(), true)
	return asic.CheckError(rv, "enable linkscan for port %d", p.ID())
}

func (p *Port) DisableLinkscan() error {
	rv := p.sdk.LinkscanModeSet(p.Phys(), false)
	return asic.CheckError(rv, "disable linkscan for port %d", p.ID())
}

type loggingPlatformPort struct {
	mapping platform.PortMapping
}

func (l *loggingPlatformPort) LinkSpeedChanged(speed state.Speed) {
	log.Logger.Infow("link speed changed", "port", l.mapping.ID, "name", l.mapping.Name, "speed", speed)
}
