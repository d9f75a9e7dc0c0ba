package system

import (
	"github.com/rmcgame/progression/internal/core/event"
	"go.uber.org/zap"
)

// CanUnlock reports whether id exists, is still locked, is affordable, meets
// the level requirement and has every prerequisite unlocked. It changes no
// state.
func (t *Tracker) CanUnlock(id string) bool {
	def := t.tables.Skills.Get(id)
	if def == nil {
		return false
	}
	p := t.prog
	if _, ok := p.UnlockedSkills[id]; ok {
		return false
	}
	if p.SkillPoints < def.Cost || p.Level < def.LevelRequirement {
		return false
	}
	for _, pre := range def.Prerequisites {
		if _, ok := p.UnlockedSkills[pre]; !ok {
			return false
		}
	}
	return true
}

// Unlock spends the skill's cost and adds it to the unlocked set. On success
// SkillUnlocked is emitted before SkillPointsChanged. A refused unlock changes
// nothing and emits nothing.
func (t *Tracker) Unlock(id string) bool {
	if !t.CanUnlock(id) {
		t.log.Debug("skill unlock refused", zap.String("skill", id))
		return false
	}
	def := t.tables.Skills.Get(id)
	p := t.prog
	p.SkillPoints -= def.Cost
	if p.UnlockedSkills == nil {
		p.UnlockedSkills = make(map[string]struct{})
	}
	p.UnlockedSkills[id] = struct{}{}

	event.Emit(t.bus, event.SkillUnlocked{Entity: t.entity, SkillID: id})
	event.Emit(t.bus, event.SkillPointsChanged{Entity: t.entity, NewTotal: p.SkillPoints})
	t.persist()
	return true
}

func (t *Tracker) HasSkill(id string) bool {
	_, ok := t.prog.UnlockedSkills[id]
	return ok
}

// AddSkillPoints adjusts the pool without clamping.
func (t *Tracker) AddSkillPoints(n int64) {
	t.prog.SkillPoints += n
	event.Emit(t.bus, event.SkillPointsChanged{Entity: t.entity, NewTotal: t.prog.SkillPoints})
	t.persist()
}

// UnlockableSkills lists the skills CanUnlock currently accepts, in
// prerequisite order.
func (t *Tracker) UnlockableSkills() []string {
	order, err := t.tables.Skills.TopoOrder()
	if err != nil {
		return nil
	}
	var out []string
	for _, id := range order {
		if t.CanUnlock(id) {
			out = append(out, id)
		}
	}
	return out
}
