// Package portresource builds the remove/add transaction that realizes
// a lane mode change on platforms with dynamic port add/remove support.
//
// A Builder is scoped to one reconfiguration: it accumulates the ports
// to destroy and the ports to create at the target lane mode, and is
// programmed exactly once. A failed program is unrecoverable by retry;
// the ASIC may be left with the old ports removed and no new ports
// added, which is surfaced, not masked.
package portresource

import (
	"errors"
	"fmt"
	"sort"

	"github.com/packetplane/switchd/pkg/asic"
	"github.com/packetplane/switchd/pkg/lanemode"
	"github.com/packetplane/switchd/pkg/log"
	"github.com/packetplane/switchd/pkg/platform"
	"github.com/packetplane/switchd/pkg/port"
	"github.com/packetplane/switchd/pkg/state"
)

type Builder struct {
	sdk         asic.SDK
	cfg         *platform.Config
	controlling *port.Port
	mode        lanemode.Mode

	removed    []*port.Port
	added      []*state.PortConfig
	programmed bool
}

func NewBuilder(sdk asic.SDK, cfg *platform.Config, controlling *port.Port, mode lanemode.Mode) *Builder {
	return &Builder{
		sdk:         sdk,
		cfg:         cfg,
		controlling: controlling,
		mode:        mode,
	}
}

// RemovePorts enqueues removal of the given ports. The whole current
// member set of the lane resource must be removed before any port can
// be re-created at a new lane mode.
func (b *Builder) RemovePorts(ports []*port.Port) {
	b.removed = append(b.removed, ports...)
}

// AddPorts enqueues creation of every port in cfgs and returns the
// accepted configurations in ascending logical ID order, which is the
// positional order the created handles will come back in.
func (b *Builder) AddPorts(cfgs []*state.PortConfig) ([]*state.PortConfig, error) {
	if b.programmed {
		return nil, errors.New("port resource builder already programmed")
	}
	for _, cfg := range cfgs {
		if _, err := b.cfg.Port(cfg.ID); err != nil {
			return nil, fmt.Errorf("cannot add port %d to lane resource of port %d: %w",
				cfg.ID, b.controlling.ID(), err)
		}
		b.added = append(b.added, cfg)
	}
	sort.Slice(b.added, func(i, j int) bool { return b.added[i].ID < b.added[j].ID })
	return b.added, nil
}

// Program commits the transaction in one driver call.
func (b *Builder) Program() error {
	if b.programmed {
		return errors.New("port resource builder already programmed")
	}
	if len(b.removed) == 0 && len(b.added) == 0 {
		return errors.New("nothing to program for port resource builder")
	}
	b.programmed = true

	removePhys := make([]asic.PhysID, 0, len(b.removed))
	for _, p := range b.removed {
		removePhys = append(removePhys, p.Phys())
	}
	addPhys := make([]asic.PhysID, 0, len(b.added))
	for _, cfg := range b.added {
		m, err := b.cfg.Port(cfg.ID)
		if err != nil {
			return err
		}
		addPhys = append(addPhys, m.Phys)
	}

	log.Logger.Infow("programming port resources",
		"controllingPort", b.controlling.ID(),
		"laneMode", b.mode.String(),
		"remove", len(removePhys),
		"add", len(addPhys))

	rv := b.sdk.FlexPortProgram(b.controlling.Phys(), b.mode.Lanes(), removePhys, addPhys)
	if err := asic.CheckError(rv, "flexport program for controlling port %d (remove %d ports, add %d ports at %s)",
		b.controlling.ID(), len(removePhys), len(addPhys), b.mode); err != nil {
		return err
	}
	metricProgramsTotal.Inc()
	return nil
}
