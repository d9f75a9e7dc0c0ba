package system

// masteryTrack is one secondary ladder (rift attunement or style mastery)
// bound to its counter and level fields. The callbacks emit the track's
// typed events.
type masteryTrack struct {
	thresholds []int64
	counter    *int64
	level      *int

	levelUp      func(newLevel int)
	capabilities func(level int)
	gained       func(amount, total int64)
}

// add grows the counter; each crossed threshold emits a level-up followed by
// a capabilities refresh for that level, then the gain is announced.
func (m *masteryTrack) add(amount int64) {
	*m.counter += amount
	ladderAdvance(m.thresholds, m.level, *m.counter, func(lvl int) {
		m.levelUp(lvl)
		m.capabilities(lvl)
	})
	m.gained(amount, *m.counter)
}

func (m *masteryTrack) toNext() int64 {
	return ladderToNext(m.thresholds, *m.level, *m.counter)
}

func (m *masteryTrack) progress() float64 {
	return ladderProgress(m.thresholds, *m.level, *m.counter)
}

func (m *masteryTrack) refresh() {
	m.capabilities(*m.level)
}

// Rift attunement.

func (t *Tracker) AddRiftEnergy(amount int64) {
	t.rift.add(amount)
	t.persist()
}

func (t *Tracker) RiftEnergyToNextLevel() int64 { return t.rift.toNext() }

func (t *Tracker) RiftAttunementProgress() float64 { return t.rift.progress() }

// UpdateRiftCapabilities re-announces the capabilities for the current
// attunement level. It changes no state.
func (t *Tracker) UpdateRiftCapabilities() { t.rift.refresh() }

// Style mastery.

func (t *Tracker) AddStyleExperience(amount int64) {
	t.style.add(amount)
	t.persist()
}

func (t *Tracker) StyleExperienceToNextLevel() int64 { return t.style.toNext() }

func (t *Tracker) StyleMasteryProgress() float64 { return t.style.progress() }

// UpdateStyleCapabilities re-announces the capabilities for the current
// mastery level. It changes no state.
func (t *Tracker) UpdateStyleCapabilities() { t.style.refresh() }
