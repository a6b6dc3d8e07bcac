// Package platform carries the static, per-platform description of how
// logical ports map onto the ASIC's lane resources: physical port IDs,
// lane grouping, per-lane speed denominations, the supported-profile
// table, and the capability flags that select the lane transition
// strategy.
package platform

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"sigs.k8s.io/yaml"

	"github.com/packetplane/switchd/pkg/asic"
	"github.com/packetplane/switchd/pkg/errdefs"
	"github.com/packetplane/switchd/pkg/state"
)

// Profile describes the physical-layer requirements of one named speed
// profile: how many lanes the port needs and the resulting speed.
type Profile struct {
	Lanes int         `json:"lanes"`
	Speed state.Speed `json:"speed"`
}

// PortMapping ties one logical port to its hardware identity and its
// lane resource.
type PortMapping struct {
	ID   state.PortID `json:"id"`
	Name string       `json:"name,omitempty"`
	Phys asic.PhysID  `json:"physId"`

	// ControllingPort is the logical ID of the port whose lane-count
	// register governs this port's lane resource. A controlling port
	// references itself.
	ControllingPort state.PortID `json:"controllingPort"`

	// LaneSpeeds are the per-lane speed denominations the physical
	// medium of this port supports, used by the legacy lane mode
	// calculation.
	LaneSpeeds []state.Speed `json:"laneSpeeds,omitempty"`
}

// Config is the decoded platform description.
type Config struct {
	Name string `json:"name,omitempty"`

	// UsePortResourceAPIs selects the dynamic add/remove transaction
	// for lane transitions. Requires SupportsAddRemovePorts.
	UsePortResourceAPIs bool `json:"usePortResourceAPIs"`

	// SupportsAddRemovePorts reports whether the ASIC generation can
	// destroy and recreate port objects at runtime.
	SupportsAddRemovePorts bool `json:"supportsAddRemovePorts"`

	// SupportedProfiles maps a profile ID to its lane requirements.
	// When non-empty, the profile-based lane mode calculation is used.
	SupportedProfiles map[state.ProfileID]Profile `json:"supportedProfiles,omitempty"`

	Ports []PortMapping `json:"ports"`
}

// Load reads and validates a platform config from a YAML file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read platform config: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a platform config.
func Parse(b []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode platform config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Ports) == 0 {
		return errors.New("platform config has no ports")
	}

	byID := make(map[state.PortID]PortMapping, len(c.Ports))
	for _, m := range c.Ports {
		if _, ok := byID[m.ID]; ok {
			return fmt.Errorf("duplicate port id %d in platform config", m.ID)
		}
		byID[m.ID] = m
	}
	for _, m := range c.Ports {
		ctl, ok := byID[m.ControllingPort]
		if !ok {
			return fmt.Errorf("port %d references unknown controlling port %d", m.ID, m.ControllingPort)
		}
		if ctl.ControllingPort != ctl.ID {
			return fmt.Errorf("controlling port %d does not control itself", ctl.ID)
		}
	}
	for id, p := range c.SupportedProfiles {
		if p.Lanes != 1 && p.Lanes != 2 && p.Lanes != 4 {
			return fmt.Errorf("profile %q: %w: %d", id, errdefs.ErrInvalidLaneCount, p.Lanes)
		}
	}
	return nil
}

// HasProfiles reports whether the profile-based lane mode calculation
// applies on this platform.
func (c *Config) HasProfiles() bool {
	return len(c.SupportedProfiles) > 0
}

// Port returns the mapping for a logical port ID.
func (c *Config) Port(id state.PortID) (PortMapping, error) {
	for _, m := range c.Ports {
		if m.ID == id {
			return m, nil
		}
	}
	return PortMapping{}, fmt.Errorf("platform port %d: %w", id, errdefs.ErrNotFound)
}

// PortsByControllingPort returns the mappings of every port sharing the
// lane resource of the given controlling port, in ascending logical ID
// order. Ascending logical ID equals ascending physical lane position.
func (c *Config) PortsByControllingPort(ctl state.PortID) []PortMapping {
	var out []PortMapping
	for _, m := range c.Ports {
		if m.ControllingPort == ctl {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ControllingPorts returns the controlling port of every lane resource,
// ascending.
func (c *Config) ControllingPorts() []state.PortID {
	seen := make(map[state.PortID]bool)
	var out []state.PortID
	for _, m := range c.Ports {
		if !seen[m.ControllingPort] {
			seen[m.ControllingPort] = true
			out = append(out, m.ControllingPort)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
