package system

import (
	"github.com/rmcgame/progression/internal/component"
	"github.com/rmcgame/progression/internal/core/event"
)

// CapabilityCalculator derives capability components from a track level.
// scripting.Engine implements it with Lua formulas.
type CapabilityCalculator interface {
	CalcRiftCapabilities(level int) component.RiftCapabilities
	CalcStyleCapabilities(level int) component.StyleCapabilities
}

// CapabilitySystem keeps the capability components in step with the
// capability notifications raised by trackers. It is event driven and has no
// tick work.
type CapabilitySystem struct {
	roster *Roster
	calc   CapabilityCalculator
	subs   []event.Subscription
}

// NewCapabilitySystem subscribes to the bus. Create it before spawning so the
// spawn-time refresh is observed.
func NewCapabilitySystem(roster *Roster, calc CapabilityCalculator, bus *event.Bus) *CapabilitySystem {
	s := &CapabilitySystem{roster: roster, calc: calc}
	s.subs = append(s.subs,
		event.Subscribe(bus, s.onRift),
		event.Subscribe(bus, s.onStyle),
	)
	return s
}

func (s *CapabilitySystem) onRift(e event.RiftCapabilitiesUpdated) {
	c, ok := s.roster.rift.Get(e.Entity)
	if !ok {
		return
	}
	*c = s.calc.CalcRiftCapabilities(e.Level)
}

func (s *CapabilitySystem) onStyle(e event.StyleCapabilitiesUpdated) {
	c, ok := s.roster.style.Get(e.Entity)
	if !ok {
		return
	}
	*c = s.calc.CalcStyleCapabilities(e.Level)
}

// Close detaches the system from the bus.
func (s *CapabilitySystem) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}
