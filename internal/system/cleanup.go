package system

import (
	"time"

	coresys "github.com/rmcgame/progression/internal/core/system"
	"go.uber.org/zap"
)

// CleanupSystem releases despawned characters at tick end, after the persist
// phase had its last chance to save them.
type CleanupSystem struct {
	roster *Roster
	log    *zap.Logger
}

func NewCleanupSystem(roster *Roster, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{roster: roster, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	w := s.roster.World()
	n := w.Pending()
	if n == 0 {
		return
	}
	w.FlushDestroyQueue()
	s.log.Debug("released despawned characters", zap.Int("count", n))
}
