// Package state models the switch-state snapshot consumed by the lane
// reconfiguration engine. The engine borrows a snapshot for the duration
// of one evaluation and never mutates it.
package state

import (
	"fmt"
	"sort"
)

// PortID is the stable logical identifier of a port. Logical IDs are
// assigned in physical lane order, so sorting by PortID sorts by lane
// position.
type PortID int32

// Speed is a port speed in Mbps. SpeedDefault means the speed was left
// unspecified in the configuration.
type Speed uint32

const (
	SpeedDefault Speed = 0
	Speed10G     Speed = 10_000
	Speed20G     Speed = 20_000
	Speed25G     Speed = 25_000
	Speed40G     Speed = 40_000
	Speed50G     Speed = 50_000
	Speed100G    Speed = 100_000
)

func (s Speed) String() string {
	if s == SpeedDefault {
		return "DEFAULT"
	}
	if s%1000 == 0 {
		return fmt.Sprintf("%dG", s/1000)
	}
	return fmt.Sprintf("%dM", s)
}

// ProfileID names a platform-defined speed profile (lane count plus
// per-lane modulation). Empty means no profile was configured and the
// legacy speed-based calculation applies.
type ProfileID string

const ProfileNone ProfileID = ""

// PortConfig is the desired configuration of one port in a snapshot.
type PortConfig struct {
	ID      PortID    `json:"id"`
	Name    string    `json:"name,omitempty"`
	Enabled bool      `json:"enabled"`
	Speed   Speed     `json:"speed,omitempty"`
	Profile ProfileID `json:"profile,omitempty"`
}

// Snapshot is an immutable, ordered view of the desired per-port
// configuration. Iteration order is ascending PortID.
type Snapshot struct {
	order []PortID
	ports map[PortID]*PortConfig
}

func NewSnapshot(cfgs ...PortConfig) *Snapshot {
	s := &Snapshot{
		order: make([]PortID, 0, len(cfgs)),
		ports: make(map[PortID]*PortConfig, len(cfgs)),
	}
	for i := range cfgs {
		cfg := cfgs[i]
		if _, ok := s.ports[cfg.ID]; ok {
			continue
		}
		s.ports[cfg.ID] = &cfg
		s.order = append(s.order, cfg.ID)
	}
	sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	return s
}

// Port returns the configuration for id, or nil if the port is absent
// from this snapshot.
func (s *Snapshot) Port(id PortID) *PortConfig {
	if s == nil {
		return nil
	}
	return s.ports[id]
}

// Ports returns all port configurations in ascending PortID order.
func (s *Snapshot) Ports() []*PortConfig {
	if s == nil {
		return nil
	}
	out := make([]*PortConfig, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.ports[id])
	}
	return out
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}
