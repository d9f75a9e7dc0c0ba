package system

import (
	"context"
	"testing"
	"time"

	"github.com/rmcgame/progression/internal/component"
	"github.com/rmcgame/progression/internal/core/ecs"
	"github.com/rmcgame/progression/internal/core/event"
	"github.com/rmcgame/progression/internal/data"
	"github.com/rmcgame/progression/internal/persist"
	"github.com/rmcgame/progression/internal/scripting"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	bus    *event.Bus
	store  *persist.MemoryStore
	roster *Roster
	events *recorder
}

// newHarness builds a roster over the default tables, an in-memory store and
// the given persister (immediate when nil), with capability formulas wired.
func newHarness(t *testing.T, saver Persister) *harness {
	t.Helper()
	bus := event.NewBus()
	store := persist.NewMemoryStore()
	if saver == nil {
		saver = NewImmediatePersister(store, time.Second)
	}
	roster := NewRoster(data.DefaultTables(), bus, store, saver, time.Second, zap.NewNop())

	engine, err := scripting.NewEngine("", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	caps := NewCapabilitySystem(roster, engine, bus)
	t.Cleanup(caps.Close)

	rec := &recorder{}
	bus.SubscribeAll(rec.record)
	return &harness{bus: bus, store: store, roster: roster, events: rec}
}

// spawn creates a character and clears the spawn-time events.
func (h *harness) spawn(t *testing.T, characterID string) *Tracker {
	t.Helper()
	id, err := h.roster.Spawn(context.Background(), characterID, "")
	require.NoError(t, err)
	tr, ok := h.roster.Tracker(id)
	require.True(t, ok)
	h.events.reset()
	return tr
}

type recorder struct {
	events []any
}

func (r *recorder) record(e any) { r.events = append(r.events, e) }
func (r *recorder) reset()       { r.events = nil }

func (r *recorder) kinds() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.(event.Kinded).Kind())
	}
	return out
}

// ofType returns the recorded events of type T in order.
func ofType[T any](r *recorder) []T {
	var out []T
	for _, e := range r.events {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func tablesWith(mut func(*data.Tables)) *data.Tables {
	tb := data.DefaultTables()
	mut(tb)
	return tb
}

// bareTracker builds a tracker outside any roster, without persistence.
func bareTracker(tables *data.Tables, bus *event.Bus) *Tracker {
	char := &component.Character{CharacterID: "solo"}
	return newTracker(ecs.EntityID(1), char, component.NewProgression(), tables, bus, nil, zap.NewNop())
}
