package system

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rmcgame/progression/internal/component"
	"github.com/rmcgame/progression/internal/core/ecs"
	"github.com/rmcgame/progression/internal/core/event"
	"github.com/rmcgame/progression/internal/data"
	"github.com/rmcgame/progression/internal/persist"
	"go.uber.org/zap"
)

var (
	ErrAlreadySpawned = errors.New("character already spawned")
	ErrNotSpawned     = errors.New("character not spawned")
)

// Roster owns the ECS world holding every live character. Each character is
// one entity carrying Character, Progression, the two capability components
// and its Tracker. Game loop goroutine only.
type Roster struct {
	world *ecs.World

	characters *ecs.PtrComponentStore[component.Character]
	progress   *ecs.PtrComponentStore[component.Progression]
	rift       *ecs.PtrComponentStore[component.RiftCapabilities]
	style      *ecs.PtrComponentStore[component.StyleCapabilities]
	sessions   *ecs.PtrComponentStore[component.SessionRef]
	trackers   *ecs.PtrComponentStore[Tracker]

	byCharacter map[string]ecs.EntityID
	// parked holds trackers whose final save failed at despawn, keyed by
	// character. PersistenceSystem retries them; Spawn adopts them.
	parked map[string]*Tracker

	tables      *data.Tables
	bus         *event.Bus
	store       persist.Store
	saver       Persister
	saveTimeout time.Duration
	log         *zap.Logger
}

func NewRoster(tables *data.Tables, bus *event.Bus, store persist.Store, saver Persister, saveTimeout time.Duration, log *zap.Logger) *Roster {
	r := &Roster{
		world:       ecs.NewWorld(),
		characters:  ecs.NewPtrComponentStore[component.Character](),
		progress:    ecs.NewPtrComponentStore[component.Progression](),
		rift:        ecs.NewPtrComponentStore[component.RiftCapabilities](),
		style:       ecs.NewPtrComponentStore[component.StyleCapabilities](),
		sessions:    ecs.NewPtrComponentStore[component.SessionRef](),
		trackers:    ecs.NewPtrComponentStore[Tracker](),
		byCharacter: make(map[string]ecs.EntityID),
		parked:      make(map[string]*Tracker),
		tables:      tables,
		bus:         bus,
		store:       store,
		saver:       saver,
		saveTimeout: saveTimeout,
		log:         log,
	}
	r.world.Register(r.characters)
	r.world.Register(r.progress)
	r.world.Register(r.rift)
	r.world.Register(r.style)
	r.world.Register(r.sessions)
	r.world.Register(r.trackers)
	return r
}

// World exposes the entity world for CleanupSystem.
func (r *Roster) World() *ecs.World { return r.world }

// Spawn creates the character entity, restores its saved progression (or
// starts from defaults), emits ProgressionLoaded and refreshes both
// capability sets. A load failure leaves nothing spawned.
func (r *Roster) Spawn(ctx context.Context, characterID, name string) (ecs.EntityID, error) {
	if characterID == "" {
		return 0, errors.New("character id is required")
	}
	if id, ok := r.byCharacter[characterID]; ok {
		return id, fmt.Errorf("%w: %s", ErrAlreadySpawned, characterID)
	}

	// Unsaved state from an earlier despawn is newer than the store.
	var row *persist.ProgressionRow
	prev, unsaved := r.parked[characterID]
	if unsaved {
		snap := prev.Snapshot()
		row = &snap
	} else {
		loadCtx := ctx
		if r.saveTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(ctx, r.saveTimeout)
			defer cancel()
		}
		var err error
		if row, err = r.store.Load(loadCtx, characterID); err != nil {
			return 0, fmt.Errorf("restore %s: %w", characterID, err)
		}
	}

	id := r.world.CreateEntity()
	char := &component.Character{CharacterID: characterID, Name: name}
	prog := component.NewProgression()
	t := newTracker(id, char, prog, r.tables, r.bus, r.saver, r.log)
	if row != nil {
		t.restore(row)
	}
	if unsaved {
		t.ledger = prev.pendingLedger()
		t.prog.Dirty = true
		delete(r.parked, characterID)
	}

	r.characters.Set(id, char)
	r.progress.Set(id, prog)
	r.rift.Set(id, &component.RiftCapabilities{})
	r.style.Set(id, &component.StyleCapabilities{})
	r.trackers.Set(id, t)
	r.byCharacter[characterID] = id

	r.log.Info("character spawned",
		zap.String("character", characterID),
		zap.Uint64("entity", uint64(id)),
		zap.Bool("restored", row != nil),
		zap.Bool("unsaved", unsaved),
	)

	event.Emit(r.bus, event.ProgressionLoaded{Entity: id})
	t.UpdateRiftCapabilities()
	t.UpdateStyleCapabilities()
	return id, nil
}

// Despawn saves pending changes and queues the entity for destruction at the
// end of the tick. It reports whether the final save succeeded; when it did
// not, the tracker is parked and PersistenceSystem keeps retrying it.
func (r *Roster) Despawn(ctx context.Context, id ecs.EntityID) (bool, error) {
	t, ok := r.trackers.Get(id)
	if !ok || !r.world.Alive(id) || r.byCharacter[t.CharacterID()] != id {
		return false, fmt.Errorf("%w: entity %d", ErrNotSpawned, id)
	}

	saved := true
	if t.Dirty() || len(t.ledger) > 0 {
		j := newSaveJob(t)
		j.run(ctx, r.store, r.saveTimeout)
		saved = j.apply()
	}

	delete(r.byCharacter, t.CharacterID())
	if !saved {
		r.parked[t.CharacterID()] = t
	}
	r.world.MarkForDestruction(id)
	r.log.Info("character despawned",
		zap.String("character", t.CharacterID()),
		zap.Bool("saved", saved),
	)
	return saved, nil
}

func (r *Roster) Tracker(id ecs.EntityID) (*Tracker, bool) {
	if !r.world.Alive(id) {
		return nil, false
	}
	return r.trackers.Get(id)
}

// Lookup finds the live entity of a character.
func (r *Roster) Lookup(characterID string) (ecs.EntityID, bool) {
	id, ok := r.byCharacter[characterID]
	return id, ok
}

// CharacterID returns the persistence key of an entity, "" when unknown.
func (r *Roster) CharacterID(id ecs.EntityID) string {
	if c, ok := r.characters.Get(id); ok {
		return c.CharacterID
	}
	return ""
}

func (r *Roster) RiftCapabilities(id ecs.EntityID) (component.RiftCapabilities, bool) {
	c, ok := r.rift.Get(id)
	if !ok {
		return component.RiftCapabilities{}, false
	}
	return *c, true
}

func (r *Roster) StyleCapabilities(id ecs.EntityID) (component.StyleCapabilities, bool) {
	c, ok := r.style.Get(id)
	if !ok {
		return component.StyleCapabilities{}, false
	}
	return *c, true
}

// BindSession records the feed session that owns an entity.
func (r *Roster) BindSession(id ecs.EntityID, sessionID uint64) {
	r.sessions.Set(id, &component.SessionRef{SessionID: sessionID})
}

// SessionOf returns the owning feed session, 0 when spawned by the host.
func (r *Roster) SessionOf(id ecs.EntityID) uint64 {
	if s, ok := r.sessions.Get(id); ok {
		return s.SessionID
	}
	return 0
}

// Each visits live trackers in ascending entity order. Entities queued for
// destruction are still visited until CleanupSystem runs.
func (r *Roster) Each(fn func(t *Tracker)) {
	ecs.Each2(r.characters, r.trackers, func(_ ecs.EntityID, _ *component.Character, t *Tracker) {
		fn(t)
	})
}

// Parked reports how many despawned characters still wait for a save.
func (r *Roster) Parked() int { return len(r.parked) }

// eachParked visits parked trackers in character order.
func (r *Roster) eachParked(fn func(t *Tracker)) {
	ids := make([]string, 0, len(r.parked))
	for id := range r.parked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fn(r.parked[id])
	}
}

// unpark drops t once its state reached the store. A tracker already adopted
// by a new spawn is no longer parked and is left alone.
func (r *Roster) unpark(t *Tracker) {
	if r.parked[t.CharacterID()] == t {
		delete(r.parked, t.CharacterID())
	}
}

// Len reports how many characters are spawned.
func (r *Roster) Len() int { return len(r.byCharacter) }
