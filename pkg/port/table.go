package port

import (
	"fmt"
	"sort"

	"github.com/packetplane/switchd/pkg/asic"
	"github.com/packetplane/switchd/pkg/errdefs"
	"github.com/packetplane/switchd/pkg/log"
	"github.com/packetplane/switchd/pkg/platform"
	"github.com/packetplane/switchd/pkg/state"
)

// PlatformPortFactory builds the platform binding for a newly created
// port handle.
type PlatformPortFactory func(platform.PortMapping) PlatformPort

// Table is the index from logical port ID to live port handle. It must
// contain an entry for every member of every group and for no port
// outside any group.
type Table struct {
	sdk   asic.SDK
	cfg   *platform.Config
	newPP PlatformPortFactory
	ports map[state.PortID]*Port
}

type TableOption func(*Table)

// WithPlatformPortFactory overrides the default logging platform
// binding, mainly for tests.
func WithPlatformPortFactory(f PlatformPortFactory) TableOption {
	return func(t *Table) { t.newPP = f }
}

func NewTable(sdk asic.SDK, cfg *platform.Config, opts ...TableOption) *Table {
	t := &Table{
		sdk:   sdk,
		cfg:   cfg,
		newPP: func(m platform.PortMapping) PlatformPort { return &loggingPlatformPort{mapping: m} },
		ports: make(map[state.PortID]*Port),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add creates a handle for the port and inserts it into the table. The
// warmBoot flag records whether the hardware object already existed
// before this process started.
func (t *Table) Add(id state.PortID, warmBoot bool) (*Port, error) {
	if _, ok := t.ports[id]; ok {
		return nil, fmt.Errorf("port %d: %w", id, errdefs.ErrAlreadyExists)
	}
	mapping, err := t.cfg.Port(id)
	if err != nil {
		return nil, err
	}
	p := New(t.sdk, mapping, t.newPP(mapping))
	t.ports[id] = p
	log.Logger.Debugw("added port to table", "port", id, "phys", mapping.Phys, "warmBoot", warmBoot)
	return p, nil
}

// Remove drops the handle for the port.
func (t *Table) Remove(id state.PortID) error {
	if _, ok := t.ports[id]; !ok {
		return fmt.Errorf("port %d: %w", id, errdefs.ErrNotFound)
	}
	delete(t.ports, id)
	log.Logger.Debugw("removed port from table", "port", id)
	return nil
}

// Get returns the live handle for the port.
func (t *Table) Get(id state.PortID) (*Port, error) {
	p, ok := t.ports[id]
	if !ok {
		return nil, fmt.Errorf("port %d: %w", id, errdefs.ErrNotFound)
	}
	return p, nil
}

func (t *Table) Len() int {
	return len(t.ports)
}

// IDs returns the logical IDs of every port in the table, ascending.
func (t *Table) IDs() []state.PortID {
	out := make([]state.PortID, 0, len(t.ports))
	for id := range t.ports {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ports returns every port in the table in ascending logical ID order.
func (t *Table) Ports() []*Port {
	ids := t.IDs()
	out := make([]*Port, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.ports[id])
	}
	return out
}
