package state

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// snapshotFile is the on-disk YAML form of a snapshot.
type snapshotFile struct {
	Ports []PortConfig `json:"ports"`
}

// Load reads a desired-state snapshot from a YAML file.
func Load(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return Parse(b)
}

// Parse decodes a desired-state snapshot from YAML.
func Parse(b []byte) (*Snapshot, error) {
	var f snapshotFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return NewSnapshot(f.Ports...), nil
}
