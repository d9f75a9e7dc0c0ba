package system

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rmcgame/progression/internal/config"
	"github.com/rmcgame/progression/internal/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type feedFrame struct {
	Kind      string          `json:"kind"`
	Entity    uint64          `json:"entity"`
	Character string          `json:"character"`
	Payload   json.RawMessage `json:"payload"`
}

type feedClient struct {
	conn   *websocket.Conn
	frames chan feedFrame
	sys    *InputSystem
}

func newFeedClient(t *testing.T, h *harness) *feedClient {
	t.Helper()
	srv := net.NewServer(config.FeedConfig{InQueueSize: 16, OutQueueSize: 64, WriteTimeout: time.Second}, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+net.FeedPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := &feedClient{
		conn:   conn,
		frames: make(chan feedFrame, 64),
		sys:    NewInputSystem(srv, net.NewHub(), h.roster, h.bus, 8, zap.NewNop()),
	}
	t.Cleanup(c.sys.Close)
	go func() {
		defer close(c.frames)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f feedFrame
			if json.Unmarshal(data, &f) == nil {
				c.frames <- f
			}
		}
	}()

	// tick until the session is registered
	deadline := time.Now().Add(2 * time.Second)
	for c.sys.hub.Len() == 0 {
		require.True(t, time.Now().Before(deadline), "session never accepted")
		c.sys.Update(0)
		time.Sleep(5 * time.Millisecond)
	}
	return c
}

// do sends a command and ticks the input system until its result arrives.
// It returns the event frames seen before the result, and the result.
func (c *feedClient) do(t *testing.T, cmd net.Command) ([]feedFrame, net.Result) {
	t.Helper()
	require.NoError(t, c.conn.WriteJSON(cmd))

	var events []feedFrame
	deadline := time.After(2 * time.Second)
	for {
		c.sys.Update(0)
		select {
		case f, ok := <-c.frames:
			require.True(t, ok, "connection closed")
			if f.Kind != net.KindResult {
				events = append(events, f)
				continue
			}
			var r net.Result
			require.NoError(t, json.Unmarshal(f.Payload, &r))
			return events, r
		case <-deadline:
			t.Fatalf("no result for %s", cmd.Op)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func kindsOf(frames []feedFrame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Kind)
	}
	return out
}

func TestInputSystem_Feed(t *testing.T) {
	h := newHarness(t, nil)
	c := newFeedClient(t, h)

	events, res := c.do(t, net.Command{ID: 1, Op: net.OpSpawn, Character: "c1", Name: "Ratchet"})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, uint64(1), res.ID)
	assert.Equal(t, []string{"progression_loaded", "rift_capabilities_updated", "style_capabilities_updated"}, kindsOf(events))
	assert.Equal(t, "c1", events[0].Character)

	id, ok := h.roster.Lookup("c1")
	require.True(t, ok)
	assert.NotZero(t, h.roster.SessionOf(id), "spawning session is recorded")

	events, res = c.do(t, net.Command{ID: 2, Op: net.OpAddXP, Character: "c1", Amount: 1000})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, []string{"level_up", "xp_gained", "progression_saved"}, kindsOf(events))
	view, err := json.Marshal(res.Data)
	require.NoError(t, err)
	assert.Contains(t, string(view), `"level":2`)

	_, res = c.do(t, net.Command{ID: 3, Op: net.OpUnlockSkill, Character: "c1", Skill: "AirDash"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "refused")

	_, res = c.do(t, net.Command{ID: 4, Op: net.OpUnlockSkill, Character: "c1", Skill: "DoubleJump"})
	assert.True(t, res.OK, res.Error)

	_, res = c.do(t, net.Command{ID: 5, Op: net.OpSpendCurrency, Character: "c1", Currency: "gold", Amount: 1})
	assert.Contains(t, res.Error, "unknown currency")

	_, res = c.do(t, net.Command{ID: 6, Op: "teleport", Character: "c1"})
	assert.Contains(t, res.Error, "unknown op")

	_, res = c.do(t, net.Command{ID: 7, Op: net.OpSnapshot, Character: "nobody"})
	assert.Contains(t, res.Error, "not spawned")

	_, res = c.do(t, net.Command{ID: 8, Op: net.OpDespawn, Character: "c1"})
	assert.True(t, res.OK, res.Error)
	_, ok = h.roster.Lookup("c1")
	assert.False(t, ok)
}

func TestInputSystem_Execute(t *testing.T) {
	h := newHarness(t, nil)
	sys := NewInputSystem(nil, net.NewHub(), h.roster, h.bus, 4, zap.NewNop())
	t.Cleanup(sys.Close)

	_, err := sys.execute(net.Command{Op: net.OpSpawn, Character: "c1"})
	require.NoError(t, err)

	steps := []net.Command{
		{Op: net.OpAddSkillPoints, Character: "c1", Amount: 4},
		{Op: net.OpAddRiftEnergy, Character: "c1", Amount: 1000},
		{Op: net.OpAddStyleExperience, Character: "c1", Amount: 2500},
		{Op: net.OpAddCurrency, Character: "c1", Currency: "style_orbs", Amount: 9},
		{Op: net.OpSpendCurrency, Character: "c1", Currency: "style_orbs", Amount: 4},
	}
	for _, cmd := range steps {
		_, err := sys.execute(cmd)
		require.NoError(t, err, cmd.Op)
	}

	out, err := sys.execute(net.Command{Op: net.OpSnapshot, Character: "c1"})
	require.NoError(t, err)
	v := out.(View)
	assert.Equal(t, int64(4), v.SkillPoints)
	assert.Equal(t, 2, v.RiftAttunementLevel)
	assert.Equal(t, 3, v.StyleMasteryLevel)
	assert.Equal(t, int64(5), v.StyleOrbs)

	_, err = sys.execute(net.Command{Op: net.OpSpendCurrency, Character: "c1", Currency: "style_orbs", Amount: 6})
	assert.ErrorIs(t, err, errRefused)

	// Update without a server only drains the hub.
	assert.NotPanics(t, func() { sys.Update(0) })
}
