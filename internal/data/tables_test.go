package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleTables = `
levels: [100, 300]
ranks:
  thresholds: [0, 200]
  names: [Rookie]
rift_energy: [50]
style_experience: [10, 10, 40]
skills:
  - id: Dash
    name: Dash
    cost: 0
  - id: Blink
    description: Short teleport
    cost: 3
    level_requirement: 2
    prerequisites: [Dash]
`

func TestParseTables(t *testing.T) {
	tb, err := ParseTables([]byte(sampleTables))
	require.NoError(t, err)

	assert.Equal(t, []int64{100, 300}, tb.LevelXP)
	assert.Equal(t, []int64{0, 200}, tb.RankXP)
	assert.Equal(t, []string{"Rookie"}, tb.RankNames)
	assert.Equal(t, []int64{10, 10, 40}, tb.StyleExperience)
	require.Equal(t, 2, tb.Skills.Count())

	dash := tb.Skills.Get("Dash")
	require.NotNil(t, dash)
	assert.Equal(t, int64(0), dash.Cost, "explicit zero cost is kept")
	assert.Equal(t, 1, dash.LevelRequirement, "missing level requirement defaults to 1")

	blink := tb.Skills.Get("Blink")
	require.NotNil(t, blink)
	assert.Equal(t, "Blink", blink.DisplayName, "missing name falls back to id")
	assert.Equal(t, int64(3), blink.Cost)
	assert.Equal(t, 2, blink.LevelRequirement)
	assert.Equal(t, []string{"Dash"}, blink.Prerequisites)

	assert.Nil(t, tb.Skills.Get("Nope"))
}

func TestParseTables_DefaultCost(t *testing.T) {
	tb, err := ParseTables([]byte("skills:\n  - id: A\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), tb.Skills.Get("A").Cost)
}

func TestParseTables_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		wantMsg string
	}{
		{
			name:    "cycle",
			doc:     "skills:\n  - {id: A, prerequisites: [B]}\n  - {id: B, prerequisites: [A]}\n",
			wantErr: ErrSkillCycle,
			wantMsg: "A -> B -> A",
		},
		{
			name:    "self prerequisite",
			doc:     "skills:\n  - {id: A, prerequisites: [A]}\n",
			wantErr: ErrSkillCycle,
			wantMsg: "A -> A",
		},
		{
			name:    "unknown prerequisite",
			doc:     "skills:\n  - {id: A, prerequisites: [Ghost]}\n",
			wantErr: ErrUnknownPrerequisite,
			wantMsg: "A requires Ghost",
		},
		{
			name:    "decreasing ladder",
			doc:     "levels: [100, 50]\n",
			wantErr: ErrLadderOrder,
			wantMsg: "levels[1]=50",
		},
		{
			name:    "negative cost",
			doc:     "skills:\n  - {id: A, cost: -1}\n",
			wantErr: ErrBadSkill,
		},
		{
			name:    "negative level requirement",
			doc:     "skills:\n  - {id: A, level_requirement: -3}\n",
			wantErr: ErrBadSkill,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTables([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseTables_MissingID(t *testing.T) {
	_, err := ParseTables([]byte("skills:\n  - name: Anonymous\n"))
	require.Error(t, err)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	tb := &Tables{
		LevelXP:    []int64{10, 5},
		RiftEnergy: []int64{3, 2},
		Skills: NewSkillTable([]*SkillDef{
			{ID: "A", Cost: 1, LevelRequirement: 1, Prerequisites: []string{"Missing"}},
		}),
	}
	err := tb.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLadderOrder)
	assert.ErrorIs(t, err, ErrUnknownPrerequisite)
	assert.Contains(t, err.Error(), "rift_energy[1]=2")
}

func TestDefaultTables(t *testing.T) {
	tb := DefaultTables()
	require.NoError(t, tb.Validate())

	assert.Equal(t, []int64{1000, 2500, 5000, 10000, 20000}, tb.LevelXP)
	assert.Len(t, tb.RankNames, len(tb.RankXP))
	assert.Equal(t, "Adept", tb.RankNames[1])
	assert.Equal(t, 9, tb.Skills.Count())

	air := tb.Skills.Get("AirDash")
	require.NotNil(t, air)
	assert.Equal(t, int64(2), air.Cost)
	assert.Equal(t, []string{"DoubleJump"}, air.Prerequisites)
}

func TestTopoOrder(t *testing.T) {
	order, err := DefaultTables().Skills.TopoOrder()
	require.NoError(t, err)
	require.Len(t, order, 9)

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, s := range DefaultTables().Skills.All() {
		for _, p := range s.Prerequisites {
			assert.Less(t, pos[p], pos[s.ID], "%s must come before %s", p, s.ID)
		}
	}
	assert.Equal(t, "DoubleJump", order[0])
}

func TestTopoOrder_Cycle(t *testing.T) {
	st := NewSkillTable([]*SkillDef{
		{ID: "A", Prerequisites: []string{"C"}},
		{ID: "B", Prerequisites: []string{"A"}},
		{ID: "C", Prerequisites: []string{"B"}},
	})
	_, err := st.TopoOrder()
	assert.ErrorIs(t, err, ErrSkillCycle)
}

func TestSkillTable_NilIsEmpty(t *testing.T) {
	tb := &Tables{LevelXP: []int64{10}, RankXP: []int64{0}}
	require.NoError(t, tb.Validate())

	assert.Nil(t, tb.Skills.Get("x"))
	assert.Zero(t, tb.Skills.Count())
	assert.Empty(t, tb.Skills.All())
	order, err := tb.Skills.TopoOrder()
	assert.NoError(t, err)
	assert.Empty(t, order)
}

func TestTables_YAMLRoundTripThroughFile(t *testing.T) {
	out, err := yaml.Marshal(DefaultTables())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))

	loaded, err := LoadTables(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTables().LevelXP, loaded.LevelXP)
	assert.Equal(t, DefaultTables().RankNames, loaded.RankNames)
	assert.Equal(t, DefaultTables().Skills.Get("RiftCounter"), loaded.Skills.Get("RiftCounter"))
}

func TestLoadTables_MissingFile(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
