package data

import (
	"fmt"
	"sort"
	"strings"
)

// SkillDef holds a single skill-tree node.
type SkillDef struct {
	ID               string
	DisplayName      string
	Description      string
	Cost             int64 // skill points
	LevelRequirement int
	Prerequisites    []string
}

// SkillTable holds all skill definitions indexed by ID. A nil table is an
// empty tree.
type SkillTable struct {
	skills map[string]*SkillDef
	order  []string // IDs in ascending order
}

// NewSkillTable builds a table from definitions. A later duplicate ID replaces
// an earlier one.
func NewSkillTable(defs []*SkillDef) *SkillTable {
	t := &SkillTable{skills: make(map[string]*SkillDef, len(defs))}
	for _, d := range defs {
		t.skills[d.ID] = d
	}
	t.order = make([]string, 0, len(t.skills))
	for id := range t.skills {
		t.order = append(t.order, id)
	}
	sort.Strings(t.order)
	return t
}

// Get returns a skill by ID, or nil if not found.
func (t *SkillTable) Get(id string) *SkillDef {
	if t == nil {
		return nil
	}
	return t.skills[id]
}

// Count returns total loaded skills.
func (t *SkillTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.skills)
}

// All returns every skill in ID order.
func (t *SkillTable) All() []*SkillDef {
	if t == nil {
		return nil
	}
	result := make([]*SkillDef, 0, len(t.order))
	for _, id := range t.order {
		result = append(result, t.skills[id])
	}
	return result
}

// TopoOrder returns skill IDs so that every skill appears after its
// prerequisites; ties are broken by ID. It fails on a cycle.
func (t *SkillTable) TopoOrder() ([]string, error) {
	if t == nil {
		return nil, nil
	}
	if err := t.checkCycles(); err != nil {
		return nil, err
	}
	indegree := make(map[string]int, len(t.skills))
	dependents := make(map[string][]string, len(t.skills))
	for _, id := range t.order {
		for _, p := range t.skills[id].Prerequisites {
			if _, ok := t.skills[p]; !ok {
				continue
			}
			indegree[id]++
			dependents[p] = append(dependents[p], id)
		}
	}
	var ready []string
	for _, id := range t.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	out := make([]string, 0, len(t.order))
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		out = append(out, id)
		for _, d := range dependents[id] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	return out, nil
}

// checkCycles runs a three-colour DFS over prerequisite edges and reports
// the first cycle found as "A -> B -> A".
func (t *SkillTable) checkCycles() error {
	const (
		white = iota
		grey
		black
	)
	colour := make(map[string]int, len(t.skills))
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		colour[id] = grey
		stack = append(stack, id)
		for _, p := range t.skills[id].Prerequisites {
			if _, ok := t.skills[p]; !ok {
				continue
			}
			switch colour[p] {
			case grey:
				start := 0
				for i, s := range stack {
					if s == p {
						start = i
						break
					}
				}
				path := append(append([]string{}, stack[start:]...), p)
				return fmt.Errorf("%w: %s", ErrSkillCycle, strings.Join(path, " -> "))
			case white:
				if err := visit(p); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		colour[id] = black
		return nil
	}

	for _, id := range t.order {
		if colour[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
