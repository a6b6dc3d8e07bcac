// Package eventstore persists the lane reconfiguration journal: every
// lane transition, successful or failed, is recorded with enough
// context to reconstruct what was done to the hardware and when.
package eventstore

import (
	"context"
	"time"

	"github.com/packetplane/switchd/pkg/state"
)

// DefaultRetention is how long journal entries are kept before the
// purge drops them.
const DefaultRetention = 30 * 24 * time.Hour

// Event names.
const (
	NameLaneTransition        = "lane_transition"
	NameLaneTransitionFailure = "lane_transition_failure"
)

// Event is one entry in the reconfiguration journal.
type Event struct {
	// Time is when the transition finished or failed.
	Time time.Time

	// ControllingPort identifies the lane resource.
	ControllingPort state.PortID

	// Attempt is the unique ID of the reconfiguration attempt.
	Attempt string

	// Name is one of the Name* constants.
	Name string

	// FromMode and ToMode are the lane modes of the transition.
	FromMode string
	ToMode   string

	// Message carries the failure description for failed transitions.
	Message string

	// ExtraInfo holds free-form context, e.g. the strategy and the
	// group sizes.
	ExtraInfo map[string]string
}

type Events []Event

// Store is the journal.
type Store interface {
	Insert(ctx context.Context, ev Event) error
	// Get returns events at or after since, latest first.
	Get(ctx context.Context, since time.Time) (Events, error)
	// Latest returns the newest event, nil if the journal is empty.
	Latest(ctx context.Context) (*Event, error)
	// Purge drops events older than beforeTimestamp (unix seconds) and
	// returns how many were removed.
	Purge(ctx context.Context, beforeTimestamp int64) (int, error)
	Close()
}
