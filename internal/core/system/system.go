package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain feed command queues
	PhaseUpdate               // 1: progression logic driven by the host
	PhasePersist              // 2: batched save flush
	PhaseCleanup              // 3: destroy despawned characters
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseUpdate:
		return "update"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick-driven system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
