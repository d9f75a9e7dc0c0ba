package event

import "github.com/rmcgame/progression/internal/core/ecs"

// Kinded events report a stable name used by the websocket feed.
type Kinded interface {
	Kind() string
	Owner() ecs.EntityID
}

// Level / rank.

type LevelUp struct {
	Entity   ecs.EntityID `json:"entity"`
	NewLevel int          `json:"new_level"`
}

type RankUp struct {
	Entity  ecs.EntityID `json:"entity"`
	NewRank int          `json:"new_rank"`
}

type XPGained struct {
	Entity ecs.EntityID `json:"entity"`
	Amount int64        `json:"amount"`
	Total  int64        `json:"total"`
}

// Skills.

type SkillPointsChanged struct {
	Entity   ecs.EntityID `json:"entity"`
	NewTotal int64        `json:"new_total"`
}

type SkillUnlocked struct {
	Entity  ecs.EntityID `json:"entity"`
	SkillID string       `json:"skill_id"`
}

// CurrencyChanged carries no payload; listeners re-read all three balances.
type CurrencyChanged struct {
	Entity ecs.EntityID `json:"entity"`
}

// Rift attunement.

type RiftAttunementLevelUp struct {
	Entity   ecs.EntityID `json:"entity"`
	NewLevel int          `json:"new_level"`
}

type RiftEnergyGained struct {
	Entity ecs.EntityID `json:"entity"`
	Amount int64        `json:"amount"`
	Total  int64        `json:"total"`
}

type RiftCapabilitiesUpdated struct {
	Entity ecs.EntityID `json:"entity"`
	Level  int          `json:"level"`
}

// Style mastery.

type StyleMasteryLevelUp struct {
	Entity   ecs.EntityID `json:"entity"`
	NewLevel int          `json:"new_level"`
}

type StyleExperienceGained struct {
	Entity ecs.EntityID `json:"entity"`
	Amount int64        `json:"amount"`
	Total  int64        `json:"total"`
}

type StyleCapabilitiesUpdated struct {
	Entity ecs.EntityID `json:"entity"`
	Level  int          `json:"level"`
}

// Persistence.

type ProgressionSaved struct {
	Entity ecs.EntityID `json:"entity"`
}

type ProgressionLoaded struct {
	Entity ecs.EntityID `json:"entity"`
}

func (LevelUp) Kind() string                  { return "level_up" }
func (RankUp) Kind() string                   { return "rank_up" }
func (XPGained) Kind() string                 { return "xp_gained" }
func (SkillPointsChanged) Kind() string       { return "skill_points_changed" }
func (SkillUnlocked) Kind() string            { return "skill_unlocked" }
func (CurrencyChanged) Kind() string          { return "currency_changed" }
func (RiftAttunementLevelUp) Kind() string    { return "rift_attunement_level_up" }
func (RiftEnergyGained) Kind() string         { return "rift_energy_gained" }
func (RiftCapabilitiesUpdated) Kind() string  { return "rift_capabilities_updated" }
func (StyleMasteryLevelUp) Kind() string      { return "style_mastery_level_up" }
func (StyleExperienceGained) Kind() string    { return "style_experience_gained" }
func (StyleCapabilitiesUpdated) Kind() string { return "style_capabilities_updated" }
func (ProgressionSaved) Kind() string         { return "progression_saved" }
func (ProgressionLoaded) Kind() string        { return "progression_loaded" }

func (e LevelUp) Owner() ecs.EntityID                  { return e.Entity }
func (e RankUp) Owner() ecs.EntityID                   { return e.Entity }
func (e XPGained) Owner() ecs.EntityID                 { return e.Entity }
func (e SkillPointsChanged) Owner() ecs.EntityID       { return e.Entity }
func (e SkillUnlocked) Owner() ecs.EntityID            { return e.Entity }
func (e CurrencyChanged) Owner() ecs.EntityID          { return e.Entity }
func (e RiftAttunementLevelUp) Owner() ecs.EntityID    { return e.Entity }
func (e RiftEnergyGained) Owner() ecs.EntityID         { return e.Entity }
func (e RiftCapabilitiesUpdated) Owner() ecs.EntityID  { return e.Entity }
func (e StyleMasteryLevelUp) Owner() ecs.EntityID      { return e.Entity }
func (e StyleExperienceGained) Owner() ecs.EntityID    { return e.Entity }
func (e StyleCapabilitiesUpdated) Owner() ecs.EntityID { return e.Entity }
func (e ProgressionSaved) Owner() ecs.EntityID         { return e.Entity }
func (e ProgressionLoaded) Owner() ecs.EntityID        { return e.Entity }
