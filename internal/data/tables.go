package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrSkillCycle          = errors.New("skill prerequisite cycle")
	ErrUnknownPrerequisite = errors.New("unknown prerequisite")
	ErrLadderOrder         = errors.New("ladder thresholds decrease")
	ErrBadSkill            = errors.New("invalid skill definition")
)

// Tables is the immutable progression configuration shared by every tracker.
// Ladder semantics: LevelXP[i] is the XP needed to reach level i+2; the same
// holds for RiftEnergy and StyleExperience. RankXP[i] is the minimum XP for
// rank i and RankNames is parallel to it (it may be shorter).
type Tables struct {
	LevelXP         []int64
	RankXP          []int64
	RankNames       []string
	RiftEnergy      []int64
	StyleExperience []int64
	Skills          *SkillTable
}

// Validate reports every configuration problem at once.
// Rejected: prerequisite cycles, prerequisites naming unknown skills,
// negative costs, level requirements below 1 and decreasing ladders.
// Equal consecutive thresholds are allowed (zero-width band).
func (t *Tables) Validate() error {
	var errs []error
	for _, l := range []struct {
		name  string
		steps []int64
	}{
		{"levels", t.LevelXP},
		{"ranks.thresholds", t.RankXP},
		{"rift_energy", t.RiftEnergy},
		{"style_experience", t.StyleExperience},
	} {
		for i := 1; i < len(l.steps); i++ {
			if l.steps[i] < l.steps[i-1] {
				errs = append(errs, fmt.Errorf("%w: %s[%d]=%d < %s[%d]=%d",
					ErrLadderOrder, l.name, i, l.steps[i], l.name, i-1, l.steps[i-1]))
			}
		}
	}

	if t.Skills != nil {
		for _, s := range t.Skills.All() {
			if s.Cost < 0 {
				errs = append(errs, fmt.Errorf("%w: %s cost %d", ErrBadSkill, s.ID, s.Cost))
			}
			if s.LevelRequirement < 1 {
				errs = append(errs, fmt.Errorf("%w: %s level requirement %d", ErrBadSkill, s.ID, s.LevelRequirement))
			}
			for _, p := range s.Prerequisites {
				if t.Skills.Get(p) == nil {
					errs = append(errs, fmt.Errorf("%w: %s requires %s", ErrUnknownPrerequisite, s.ID, p))
				}
			}
		}
		if err := t.Skills.checkCycles(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// --- YAML loading ---

type skillEntry struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	Cost             *int64   `yaml:"cost"`
	LevelRequirement int      `yaml:"level_requirement"`
	Prerequisites    []string `yaml:"prerequisites"`
}

type rankSection struct {
	Thresholds []int64  `yaml:"thresholds"`
	Names      []string `yaml:"names"`
}

type tablesFile struct {
	Levels          []int64      `yaml:"levels"`
	Ranks           rankSection  `yaml:"ranks"`
	RiftEnergy      []int64      `yaml:"rift_energy"`
	StyleExperience []int64      `yaml:"style_experience"`
	Skills          []skillEntry `yaml:"skills"`
}

// LoadTables loads and validates progression tables from YAML.
func LoadTables(path string) (*Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return ParseTables(raw)
}

// ParseTables decodes and validates a YAML document.
func ParseTables(raw []byte) (*Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	defs := make([]*SkillDef, 0, len(f.Skills))
	for i := range f.Skills {
		e := &f.Skills[i]
		if e.ID == "" {
			return nil, fmt.Errorf("parse tables: skill #%d has no id", i)
		}
		cost := int64(1)
		if e.Cost != nil {
			cost = *e.Cost
		}
		lvl := e.LevelRequirement
		if lvl == 0 {
			lvl = 1
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		defs = append(defs, &SkillDef{
			ID:               e.ID,
			DisplayName:      name,
			Description:      e.Description,
			Cost:             cost,
			LevelRequirement: lvl,
			Prerequisites:    e.Prerequisites,
		})
	}
	t := &Tables{
		LevelXP:         f.Levels,
		RankXP:          f.Ranks.Thresholds,
		RankNames:       f.Ranks.Names,
		RiftEnergy:      f.RiftEnergy,
		StyleExperience: f.StyleExperience,
		Skills:          NewSkillTable(defs),
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("validate tables: %w", err)
	}
	return t, nil
}

// MarshalYAML renders the tables in the LoadTables format.
func (t *Tables) MarshalYAML() (any, error) {
	f := tablesFile{
		Levels:          t.LevelXP,
		Ranks:           rankSection{Thresholds: t.RankXP, Names: t.RankNames},
		RiftEnergy:      t.RiftEnergy,
		StyleExperience: t.StyleExperience,
	}
	if t.Skills != nil {
		for _, s := range t.Skills.All() {
			cost := s.Cost
			f.Skills = append(f.Skills, skillEntry{
				ID:               s.ID,
				Name:             s.DisplayName,
				Description:      s.Description,
				Cost:             &cost,
				LevelRequirement: s.LevelRequirement,
				Prerequisites:    s.Prerequisites,
			})
		}
	}
	return f, nil
}
