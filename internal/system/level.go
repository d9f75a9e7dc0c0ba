package system

import "github.com/rmcgame/progression/internal/core/event"

// unknownRankName is reported when the rank index has no configured name.
const unknownRankName = "Unknown Rank"

// AddXP grants experience. Every crossed level threshold raises the level by
// one, grants skill points and emits LevelUp; the rank is then recomputed from
// the total and a single RankUp is emitted if it changed. XPGained is always
// emitted last. Non-positive grants are not rejected.
func (t *Tracker) AddXP(amount int64) {
	p := t.prog
	p.XP += amount

	ladderAdvance(t.tables.LevelXP, &p.Level, p.XP, func(lvl int) {
		p.SkillPoints += skillPointsPerLevel
		event.Emit(t.bus, event.LevelUp{Entity: t.entity, NewLevel: lvl})
	})

	if rank := rankFor(t.tables.RankXP, p.XP); rank != p.Rank {
		p.Rank = rank
		event.Emit(t.bus, event.RankUp{Entity: t.entity, NewRank: rank})
	}

	event.Emit(t.bus, event.XPGained{Entity: t.entity, Amount: amount, Total: p.XP})
	t.persist()
}

// XPToNextLevel is the experience still needed for the next level, 0 at the
// level cap.
func (t *Tracker) XPToNextLevel() int64 {
	return ladderToNext(t.tables.LevelXP, t.prog.Level, t.prog.XP)
}

// LevelProgress is the fraction of the current level band completed.
func (t *Tracker) LevelProgress() float64 {
	return ladderProgress(t.tables.LevelXP, t.prog.Level, t.prog.XP)
}

// XPToNextRank is the experience still needed for the next rank, 0 at the
// last rank.
func (t *Tracker) XPToNextRank() int64 {
	return rankToNext(t.tables.RankXP, t.prog.Rank, t.prog.XP)
}

// RankProgress is the fraction of the current rank band completed, 1 at the
// last rank.
func (t *Tracker) RankProgress() float64 {
	return rankProgress(t.tables.RankXP, t.prog.Rank, t.prog.XP)
}

func (t *Tracker) RankDisplayName() string {
	r := t.prog.Rank
	if r < 0 || r >= len(t.tables.RankNames) {
		return unknownRankName
	}
	return t.tables.RankNames[r]
}
