package system

import (
	"github.com/rmcgame/progression/internal/component"
	"github.com/rmcgame/progression/internal/core/ecs"
)

// View is a read-only summary of one character, shaped for the feed and
// progctl.
type View struct {
	CharacterID string `json:"character"`
	Name        string `json:"name"`

	XP             int64    `json:"xp"`
	Level          int      `json:"level"`
	XPToNextLevel  int64    `json:"xp_to_next_level"`
	Rank           int      `json:"rank"`
	RankName       string   `json:"rank_name"`
	RankProgress   float64  `json:"rank_progress"`
	XPToNextRank   int64    `json:"xp_to_next_rank"`
	SkillPoints    int64    `json:"skill_points"`
	UnlockedSkills []string `json:"unlocked_skills"`
	UnlockableNow  []string `json:"unlockable_skills"`

	StyleOrbs        int64 `json:"style_orbs"`
	RiftOrbs         int64 `json:"rift_orbs"`
	RaritaniumShards int64 `json:"raritanium_shards"`

	RiftEnergy             int64   `json:"rift_energy"`
	RiftAttunementLevel    int     `json:"rift_attunement_level"`
	RiftAttunementProgress float64 `json:"rift_attunement_progress"`
	RiftEnergyToNextLevel  int64   `json:"rift_energy_to_next_level"`

	StyleExperience            int64   `json:"style_experience"`
	StyleMasteryLevel          int     `json:"style_mastery_level"`
	StyleMasteryProgress       float64 `json:"style_mastery_progress"`
	StyleExperienceToNextLevel int64   `json:"style_experience_to_next_level"`

	Rift  component.RiftCapabilities  `json:"rift_capabilities"`
	Style component.StyleCapabilities `json:"style_capabilities"`
}

// View summarizes the character owning id.
func (r *Roster) View(id ecs.EntityID) (View, bool) {
	t, ok := r.Tracker(id)
	if !ok {
		return View{}, false
	}
	rift, _ := r.RiftCapabilities(id)
	style, _ := r.StyleCapabilities(id)
	return View{
		CharacterID:    t.CharacterID(),
		Name:           t.Name(),
		XP:             t.XP(),
		Level:          t.Level(),
		XPToNextLevel:  t.XPToNextLevel(),
		Rank:           t.Rank(),
		RankName:       t.RankDisplayName(),
		RankProgress:   t.RankProgress(),
		XPToNextRank:   t.XPToNextRank(),
		SkillPoints:    t.SkillPoints(),
		UnlockedSkills: t.UnlockedSkills(),
		UnlockableNow:  t.UnlockableSkills(),

		StyleOrbs:        t.StyleOrbs(),
		RiftOrbs:         t.RiftOrbs(),
		RaritaniumShards: t.RaritaniumShards(),

		RiftEnergy:             t.RiftEnergy(),
		RiftAttunementLevel:    t.RiftAttunementLevel(),
		RiftAttunementProgress: t.RiftAttunementProgress(),
		RiftEnergyToNextLevel:  t.RiftEnergyToNextLevel(),

		StyleExperience:            t.StyleExperience(),
		StyleMasteryLevel:          t.StyleMasteryLevel(),
		StyleMasteryProgress:       t.StyleMasteryProgress(),
		StyleExperienceToNextLevel: t.StyleExperienceToNextLevel(),

		Rift:  rift,
		Style: style,
	}, true
}
