package eventstore

import (
	"context"
	"strconv"
	"time"

	"github.com/packetplane/switchd/pkg/log"
	"github.com/packetplane/switchd/pkg/portgroup"
)

// sink adapts the journal to the port group engine. Journal failures
// are logged, never propagated: losing an event must not fail a lane
// transition that already happened in hardware.
type sink struct {
	store Store
}

// NewSink returns an event sink that journals lane transitions.
func NewSink(store Store) portgroup.EventSink {
	return &sink{store: store}
}

func (s *sink) RecordTransition(tr portgroup.TransitionEvent) {
	ev := Event{
		Time:            time.Now().UTC(),
		ControllingPort: tr.ControllingPort,
		Attempt:         tr.Attempt,
		Name:            NameLaneTransition,
		FromMode:        tr.From.String(),
		ToMode:          tr.To.String(),
		ExtraInfo: map[string]string{
			"strategy":       tr.Strategy,
			"members_before": strconv.Itoa(tr.MembersBefore),
			"members_after":  strconv.Itoa(tr.MembersAfter),
		},
	}
	if tr.Err != nil {
		ev.Name = NameLaneTransitionFailure
		ev.Message = tr.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.Insert(ctx, ev); err != nil {
		log.Logger.Errorw("failed to journal lane transition",
			"controllingPort", tr.ControllingPort, "attempt", tr.Attempt, "error", err)
	}
}
