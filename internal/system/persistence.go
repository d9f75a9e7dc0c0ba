package system

import (
	"context"
	"time"

	coresys "github.com/rmcgame/progression/internal/core/system"
	"github.com/rmcgame/progression/internal/persist"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Persister receives a tracker after every mutating call. Implementations
// decide when the snapshot reaches the store; a tracker stays dirty until it
// does.
type Persister interface {
	Persist(t *Tracker)
}

// saveJob carries one character's snapshot and journal out of the game loop.
// run may execute on any goroutine; apply must run on the game loop.
type saveJob struct {
	tracker *Tracker
	row     persist.ProgressionRow
	ledger  []persist.LedgerEntry

	parked bool // despawned; unparked once saved

	ledgerErr error
	saveErr   error
}

func newSaveJob(t *Tracker) *saveJob {
	return &saveJob{
		tracker: t,
		row:     t.Snapshot(),
		ledger:  t.pendingLedger(),
	}
}

// run writes the journal first so that the snapshot save can mark it processed.
func (j *saveJob) run(ctx context.Context, store persist.Store, timeout time.Duration) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if len(j.ledger) > 0 {
		if j.ledgerErr = store.AppendLedger(ctx, j.ledger); j.ledgerErr != nil {
			return
		}
	}
	j.saveErr = store.Save(ctx, &j.row)
}

// apply folds the outcome back into the tracker. Failures are logged and the
// character stays dirty for the next flush.
func (j *saveJob) apply() bool {
	t := j.tracker
	if j.ledgerErr != nil {
		t.log.Warn("ledger write failed", zap.Error(j.ledgerErr))
		return false
	}
	t.dropLedger(len(j.ledger))
	if j.saveErr != nil {
		t.log.Warn("progression save failed", zap.Error(j.saveErr))
		return false
	}
	t.markSaved()
	return true
}

// ImmediatePersister saves synchronously inside the mutating call.
type ImmediatePersister struct {
	store   persist.Store
	timeout time.Duration
}

func NewImmediatePersister(store persist.Store, timeout time.Duration) *ImmediatePersister {
	return &ImmediatePersister{store: store, timeout: timeout}
}

func (p *ImmediatePersister) Persist(t *Tracker) {
	j := newSaveJob(t)
	j.run(context.Background(), p.store, p.timeout)
	j.apply()
}

// BatchPersister only leaves the tracker dirty; PersistenceSystem flushes it.
type BatchPersister struct{}

func (BatchPersister) Persist(*Tracker) {}

// PersistenceSystem flushes dirty characters every interval ticks, saving up
// to workers characters concurrently. Phase 2 (Persist).
type PersistenceSystem struct {
	roster    *Roster
	store     persist.Store
	log       *zap.Logger
	timeout   time.Duration
	workers   int
	tickCount int
	interval  int // flush every N ticks
}

func NewPersistenceSystem(roster *Roster, store persist.Store, intervalTicks, workers int, timeout time.Duration, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		roster:   roster,
		store:    store,
		log:      log,
		timeout:  timeout,
		workers:  max(workers, 1),
		interval: max(intervalTicks, 1),
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.flush(context.Background(), true)
}

// SaveAll persists every character regardless of its dirty flag, plus any
// despawned character still waiting for a save. Used on shutdown. It returns
// how many characters failed to save.
func (s *PersistenceSystem) SaveAll(ctx context.Context) int {
	return s.flush(ctx, false)
}

func (s *PersistenceSystem) flush(ctx context.Context, dirtyOnly bool) int {
	var jobs []*saveJob
	s.roster.Each(func(t *Tracker) {
		if dirtyOnly && !t.Dirty() && len(t.ledger) == 0 {
			return // nothing changed since the last save
		}
		jobs = append(jobs, newSaveJob(t))
	})
	s.roster.eachParked(func(t *Tracker) {
		j := newSaveJob(t)
		j.parked = true
		jobs = append(jobs, j)
	})
	if len(jobs) == 0 {
		return 0
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, j := range jobs {
		g.Go(func() error {
			j.run(ctx, s.store, s.timeout)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, j := range jobs {
		if !j.apply() {
			failed++
			continue
		}
		if j.parked {
			s.roster.unpark(j.tracker)
		}
	}
	s.log.Debug("progression flush",
		zap.Int("characters", len(jobs)),
		zap.Int("failed", failed),
	)
	return failed
}
