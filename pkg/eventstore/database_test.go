package eventstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetplane/switchd/pkg/lanemode"
	"github.com/packetplane/switchd/pkg/portgroup"
	"github.com/packetplane/switchd/pkg/sqlite"
	"github.com/packetplane/switchd/pkg/state"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	dbFile := filepath.Join(t.TempDir(), "events.db")

	dbRW, err := sqlite.Open(dbFile)
	require.NoError(t, err)
	dbRO, err := sqlite.Open(dbFile, sqlite.WithReadOnly(true))
	require.NoError(t, err)
	t.Cleanup(func() {
		dbRW.Close()
		dbRO.Close()
	})

	store, err := New(dbRW, dbRO, 0)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestInsertAndGet(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	for i, name := range []string{NameLaneTransition, NameLaneTransitionFailure} {
		require.NoError(t, store.Insert(ctx, Event{
			Time:            now.Add(time.Duration(i) * time.Second),
			ControllingPort: 1,
			Attempt:         "attempt-1",
			Name:            name,
			FromMode:        "SINGLE",
			ToMode:          "QUAD",
			ExtraInfo:       map[string]string{"strategy": "flexport"},
		}))
	}

	events, err := store.Get(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 2)
	// latest first
	assert.Equal(t, NameLaneTransitionFailure, events[0].Name)
	assert.Equal(t, state.PortID(1), events[0].ControllingPort)
	assert.Equal(t, "flexport", events[0].ExtraInfo["strategy"])

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, NameLaneTransitionFailure, latest.Name)
	assert.Equal(t, "QUAD", latest.ToMode)
}

func TestLatestEmpty(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store := openTestStore(t)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestPurge(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store := openTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, store.Insert(ctx, Event{Time: now.Add(-time.Hour), ControllingPort: 1, Attempt: "a", Name: NameLaneTransition}))
	require.NoError(t, store.Insert(ctx, Event{Time: now, ControllingPort: 1, Attempt: "b", Name: NameLaneTransition}))

	purged, err := store.Purge(ctx, now.Add(-time.Minute).Unix())
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	events, err := store.Get(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b", events[0].Attempt)
}

func TestSink(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store := openTestStore(t)
	s := NewSink(store)

	s.RecordTransition(portgroup.TransitionEvent{
		Attempt:         "attempt-9",
		ControllingPort: 5,
		From:            lanemode.Single,
		To:              lanemode.Quad,
		Strategy:        "flexport",
		MembersBefore:   4,
		MembersAfter:    1,
	})
	s.RecordTransition(portgroup.TransitionEvent{
		Attempt:         "attempt-10",
		ControllingPort: 5,
		From:            lanemode.Single,
		To:              lanemode.Dual,
		Strategy:        "register",
		Err:             errors.New("flexport program for controlling port 5: operation failed"),
	})

	events, err := store.Get(ctx, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 2)

	byAttempt := map[string]Event{}
	for _, ev := range events {
		byAttempt[ev.Attempt] = ev
	}
	assert.Equal(t, NameLaneTransition, byAttempt["attempt-9"].Name)
	assert.Equal(t, "1", byAttempt["attempt-9"].ExtraInfo["members_after"])
	assert.Equal(t, NameLaneTransitionFailure, byAttempt["attempt-10"].Name)
	assert.Contains(t, byAttempt["attempt-10"].Message, "operation failed")
}
