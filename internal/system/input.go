package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rmcgame/progression/internal/core/event"
	coresys "github.com/rmcgame/progression/internal/core/system"
	"github.com/rmcgame/progression/internal/net"
	"go.uber.org/zap"
)

var errRefused = errors.New("refused")

// InputSystem accepts feed sessions, drains their command queues and fans
// every bus event out to them. Phase 0 (Input).
type InputSystem struct {
	server     *net.Server
	hub        *net.Hub
	roster     *Roster
	maxPerTick int
	sub        event.Subscription
	log        *zap.Logger
}

func NewInputSystem(server *net.Server, hub *net.Hub, roster *Roster, bus *event.Bus, maxPerTick int, log *zap.Logger) *InputSystem {
	s := &InputSystem{
		server:     server,
		hub:        hub,
		roster:     roster,
		maxPerTick: max(maxPerTick, 1),
		log:        log,
	}
	s.sub = bus.SubscribeAll(s.broadcast)
	return s
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	if s.server != nil {
	accept:
		for {
			select {
			case sess := <-s.server.NewSessions():
				s.hub.Add(sess)
			default:
				break accept
			}
		}
	}

	s.hub.ForEach(func(sess *net.Session) {
		// commands queued before a disconnect are still applied
	drain:
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case cmd := <-sess.InQueue:
				s.dispatch(sess, cmd)
			default:
				break drain
			}
		}
		if sess.IsClosed() {
			s.hub.Remove(sess.ID)
			s.log.Info("feed session closed", zap.Uint64("session", sess.ID))
		}
	})
}

// Close detaches the system from the bus and closes every session.
func (s *InputSystem) Close() {
	s.sub.Unsubscribe()
	s.hub.CloseAll()
}

func (s *InputSystem) broadcast(e any) {
	ev, ok := e.(event.Kinded)
	if !ok || s.hub.Len() == 0 {
		return
	}
	frame, err := net.EncodeEvent(ev, s.roster.CharacterID(ev.Owner()))
	if err != nil {
		s.log.Error("encode event", zap.String("kind", ev.Kind()), zap.Error(err))
		return
	}
	s.hub.Broadcast(frame)
}

func (s *InputSystem) dispatch(sess *net.Session, cmd net.Command) {
	res := net.Result{ID: cmd.ID, Op: cmd.Op}
	data, err := s.execute(cmd)
	if err != nil {
		res.Error = err.Error()
		s.log.Debug("feed command failed",
			zap.Uint64("session", sess.ID),
			zap.String("op", cmd.Op),
			zap.Error(err),
		)
	} else {
		res.OK = true
		res.Data = data
	}
	frame, err := net.EncodeResult(cmd.Character, res)
	if err != nil {
		s.log.Error("encode result", zap.Error(err))
		return
	}
	sess.Send(frame)
}

// execute applies one command to the roster. The returned value becomes the
// result payload.
func (s *InputSystem) execute(cmd net.Command) (any, error) {
	ctx := context.Background()

	if cmd.Op == net.OpSpawn {
		id, err := s.roster.Spawn(ctx, cmd.Character, cmd.Name)
		if err != nil {
			return nil, err
		}
		s.roster.BindSession(id, cmd.Session)
		return map[string]uint64{"entity": uint64(id)}, nil
	}

	id, ok := s.roster.Lookup(cmd.Character)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotSpawned, cmd.Character)
	}
	t, _ := s.roster.Tracker(id)

	switch cmd.Op {
	case net.OpDespawn:
		saved, err := s.roster.Despawn(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"saved": saved}, nil
	case net.OpAddXP:
		t.AddXP(cmd.Amount)
	case net.OpAddSkillPoints:
		t.AddSkillPoints(cmd.Amount)
	case net.OpUnlockSkill:
		if !t.Unlock(cmd.Skill) {
			return nil, fmt.Errorf("unlock %s: %w", cmd.Skill, errRefused)
		}
	case net.OpAddRiftEnergy:
		t.AddRiftEnergy(cmd.Amount)
	case net.OpAddStyleExperience:
		t.AddStyleExperience(cmd.Amount)
	case net.OpAddCurrency, net.OpSpendCurrency:
		c, ok := ParseCurrency(cmd.Currency)
		if !ok {
			return nil, fmt.Errorf("unknown currency %q", cmd.Currency)
		}
		if cmd.Op == net.OpAddCurrency {
			t.AddCurrency(c, cmd.Amount)
		} else if !t.SpendCurrency(c, cmd.Amount) {
			return nil, fmt.Errorf("spend %d %s: %w", cmd.Amount, c, errRefused)
		}
	case net.OpSnapshot:
	default:
		return nil, fmt.Errorf("unknown op %q", cmd.Op)
	}

	v, _ := s.roster.View(id)
	return v, nil
}
