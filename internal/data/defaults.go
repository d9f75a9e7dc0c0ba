package data

// DefaultTables returns the stock progression configuration: five-rung level,
// rift and style ladders, seven named ranks and the movement/rift/combat tree.
func DefaultTables() *Tables {
	return &Tables{
		LevelXP:         []int64{1000, 2500, 5000, 10000, 20000},
		RankXP:          []int64{0, 5000, 15000, 30000, 50000, 75000, 100000},
		RankNames:       []string{"Novice", "Adept", "Expert", "Master", "Grandmaster", "Legend", "Mythic"},
		RiftEnergy:      []int64{1000, 2500, 5000, 10000, 20000},
		StyleExperience: []int64{1000, 2500, 5000, 10000, 20000},
		Skills: NewSkillTable([]*SkillDef{
			// movement
			skill("DoubleJump", "Double Jump", "Allows a second jump while in the air", 1),
			skill("AirDash", "Air Dash", "Dash quickly through the air", 2, "DoubleJump"),
			skill("WallRun", "Wall Run", "Run along walls for a short time", 2, "DoubleJump"),
			// rift
			skill("RiftChain", "Rift Chain", "Chain multiple rifts together", 3, "AirDash"),
			skill("RiftSurge", "Rift Surge", "Gain a burst of speed after rifting", 2, "RiftChain"),
			skill("RiftCounter", "Rift Counter", "Counter enemy attacks with a rift", 4, "RiftSurge"),
			// combat
			skill("AerialRecovery", "Aerial Recovery", "Recover quickly when knocked into the air", 2, "DoubleJump"),
			skill("StyleBoost", "Style Boost", "Gain more style points from actions", 3, "AerialRecovery"),
			skill("MomentumMastery", "Momentum Mastery", "Momentum decays slower", 4, "StyleBoost"),
		}),
	}
}

func skill(id, name, desc string, cost int64, prereqs ...string) *SkillDef {
	return &SkillDef{
		ID:               id,
		DisplayName:      name,
		Description:      desc,
		Cost:             cost,
		LevelRequirement: 1,
		Prerequisites:    prereqs,
	}
}
