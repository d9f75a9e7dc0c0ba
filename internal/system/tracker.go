package system

import (
	"sort"

	"github.com/rmcgame/progression/internal/component"
	"github.com/rmcgame/progression/internal/core/ecs"
	"github.com/rmcgame/progression/internal/core/event"
	"github.com/rmcgame/progression/internal/data"
	"github.com/rmcgame/progression/internal/persist"
	"go.uber.org/zap"
)

// skillPointsPerLevel is granted for every level gained.
const skillPointsPerLevel = 2

// Tracker is the sole authority over one character's progression. Every
// mutating call announces its changes on the bus, in order, and then hands
// the character to the persister. Game loop goroutine only.
type Tracker struct {
	entity ecs.EntityID
	char   *component.Character
	prog   *component.Progression
	tables *data.Tables
	bus    *event.Bus
	saver  Persister
	log    *zap.Logger

	rift  masteryTrack
	style masteryTrack

	// ledger holds currency journal entries not yet written to the store.
	ledger []persist.LedgerEntry
}

func newTracker(
	entity ecs.EntityID,
	char *component.Character,
	prog *component.Progression,
	tables *data.Tables,
	bus *event.Bus,
	saver Persister,
	log *zap.Logger,
) *Tracker {
	t := &Tracker{
		entity: entity,
		char:   char,
		prog:   prog,
		tables: tables,
		bus:    bus,
		saver:  saver,
		log:    log.With(zap.String("character", char.CharacterID)),
	}
	t.rift = masteryTrack{
		thresholds: tables.RiftEnergy,
		counter:    &prog.RiftEnergy,
		level:      &prog.RiftAttunementLevel,
		levelUp: func(lvl int) {
			event.Emit(bus, event.RiftAttunementLevelUp{Entity: entity, NewLevel: lvl})
		},
		capabilities: func(lvl int) {
			event.Emit(bus, event.RiftCapabilitiesUpdated{Entity: entity, Level: lvl})
		},
		gained: func(amount, total int64) {
			event.Emit(bus, event.RiftEnergyGained{Entity: entity, Amount: amount, Total: total})
		},
	}
	t.style = masteryTrack{
		thresholds: tables.StyleExperience,
		counter:    &prog.StyleExperience,
		level:      &prog.StyleMasteryLevel,
		levelUp: func(lvl int) {
			event.Emit(bus, event.StyleMasteryLevelUp{Entity: entity, NewLevel: lvl})
		},
		capabilities: func(lvl int) {
			event.Emit(bus, event.StyleCapabilitiesUpdated{Entity: entity, Level: lvl})
		},
		gained: func(amount, total int64) {
			event.Emit(bus, event.StyleExperienceGained{Entity: entity, Amount: amount, Total: total})
		},
	}
	return t
}

func (t *Tracker) Entity() ecs.EntityID     { return t.entity }
func (t *Tracker) CharacterID() string      { return t.char.CharacterID }
func (t *Tracker) Name() string             { return t.char.Name }
func (t *Tracker) XP() int64                { return t.prog.XP }
func (t *Tracker) Level() int               { return t.prog.Level }
func (t *Tracker) Rank() int                { return t.prog.Rank }
func (t *Tracker) SkillPoints() int64       { return t.prog.SkillPoints }
func (t *Tracker) RiftEnergy() int64        { return t.prog.RiftEnergy }
func (t *Tracker) RiftAttunementLevel() int { return t.prog.RiftAttunementLevel }
func (t *Tracker) StyleExperience() int64   { return t.prog.StyleExperience }
func (t *Tracker) StyleMasteryLevel() int   { return t.prog.StyleMasteryLevel }
func (t *Tracker) Dirty() bool              { return t.prog.Dirty }
func (t *Tracker) Tables() *data.Tables     { return t.tables }

// Progression returns the raw state by value. The skill set map is shared and
// must not be modified.
func (t *Tracker) Progression() component.Progression { return *t.prog }

// UnlockedSkills returns the unlocked skill IDs in ascending order.
func (t *Tracker) UnlockedSkills() []string {
	ids := make([]string, 0, len(t.prog.UnlockedSkills))
	for id := range t.prog.UnlockedSkills {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// persist marks the character changed and hands it to the persister.
func (t *Tracker) persist() {
	t.prog.Dirty = true
	if t.saver == nil {
		return
	}
	t.saver.Persist(t)
}

// markSaved is called once the store accepted a snapshot.
func (t *Tracker) markSaved() {
	t.prog.Dirty = false
	event.Emit(t.bus, event.ProgressionSaved{Entity: t.entity})
}

// Snapshot builds the persisted row for the current state.
func (t *Tracker) Snapshot() persist.ProgressionRow {
	p := t.prog
	return persist.ProgressionRow{
		CharacterID:         t.char.CharacterID,
		Name:                t.char.Name,
		XP:                  p.XP,
		Level:               p.Level,
		Rank:                p.Rank,
		SkillPoints:         p.SkillPoints,
		UnlockedSkills:      t.UnlockedSkills(),
		StyleOrbs:           p.StyleOrbs,
		RiftOrbs:            p.RiftOrbs,
		RaritaniumShards:    p.RaritaniumShards,
		RiftEnergy:          p.RiftEnergy,
		RiftAttunementLevel: p.RiftAttunementLevel,
		StyleExperience:     p.StyleExperience,
		StyleMasteryLevel:   p.StyleMasteryLevel,
	}
}

// restore overwrites the progression with a loaded row. Level fields below
// 1 are raised to 1.
func (t *Tracker) restore(row *persist.ProgressionRow) {
	p := t.prog
	p.XP = row.XP
	p.Level = max(row.Level, 1)
	p.Rank = max(row.Rank, 0)
	p.SkillPoints = row.SkillPoints
	p.UnlockedSkills = make(map[string]struct{}, len(row.UnlockedSkills))
	for _, id := range row.UnlockedSkills {
		p.UnlockedSkills[id] = struct{}{}
	}
	p.StyleOrbs = row.StyleOrbs
	p.RiftOrbs = row.RiftOrbs
	p.RaritaniumShards = row.RaritaniumShards
	p.RiftEnergy = row.RiftEnergy
	p.RiftAttunementLevel = max(row.RiftAttunementLevel, 1)
	p.StyleExperience = row.StyleExperience
	p.StyleMasteryLevel = max(row.StyleMasteryLevel, 1)
	p.Dirty = false
	if row.Name != "" && t.char.Name == "" {
		t.char.Name = row.Name
	}
}

// pendingLedger returns the pending journal without clearing it.
func (t *Tracker) pendingLedger() []persist.LedgerEntry {
	return append([]persist.LedgerEntry(nil), t.ledger...)
}

// dropLedger discards the first n journal entries once they are stored.
func (t *Tracker) dropLedger(n int) {
	if n >= len(t.ledger) {
		t.ledger = t.ledger[:0]
		return
	}
	t.ledger = append(t.ledger[:0], t.ledger[n:]...)
}
