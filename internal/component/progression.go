package component

// Progression is the per-character progression state.
// Pure data: mutations go through system.Tracker so every change is
// announced on the bus and persisted.
type Progression struct {
	XP          int64
	Level       int
	Rank        int
	SkillPoints int64

	UnlockedSkills map[string]struct{}

	StyleOrbs        int64
	RiftOrbs         int64
	RaritaniumShards int64

	RiftEnergy          int64
	RiftAttunementLevel int

	StyleExperience   int64
	StyleMasteryLevel int

	// Dirty is set when the state changed since the last successful batched save.
	Dirty bool
}

// NewProgression returns the spawn defaults: level 1, rank 0, empty counters.
func NewProgression() *Progression {
	return &Progression{
		Level:               1,
		UnlockedSkills:      make(map[string]struct{}),
		RiftAttunementLevel: 1,
		StyleMasteryLevel:   1,
	}
}
