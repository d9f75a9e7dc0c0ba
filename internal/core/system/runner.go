package system

import (
	"sort"
	"time"
)

// SlowFunc is told about a system whose Update overran the budget.
type SlowFunc func(s System, took time.Duration)

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order.
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64

	budget time.Duration
	onSlow SlowFunc
	now    func() time.Time
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 4),
		now:     time.Now,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// WatchSlow reports every Update that takes longer than budget. A zero
// budget disables the check.
func (r *Runner) WatchSlow(budget time.Duration, fn SlowFunc) {
	r.budget = budget
	r.onSlow = fn
}

// Ticks reports how many full ticks have run.
func (r *Runner) Ticks() uint64 { return r.ticks }

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		r.update(s, dt)
	}
	r.ticks++
}

// TickPhase runs only the systems registered for phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			r.update(s, dt)
		}
	}
}

func (r *Runner) update(s System, dt time.Duration) {
	if r.budget <= 0 || r.onSlow == nil {
		s.Update(dt)
		return
	}
	start := r.now()
	s.Update(dt)
	if took := r.now().Sub(start); took > r.budget {
		r.onSlow(s, took)
	}
}

func (r *Runner) ensureSorted() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.systems, func(i, j int) bool {
		return r.systems[i].Phase() < r.systems[j].Phase()
	})
	r.sorted = true
}
