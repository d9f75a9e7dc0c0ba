package net

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rmcgame/progression/internal/config"
	"github.com/rmcgame/progression/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testFeedConfig() config.FeedConfig {
	return config.FeedConfig{
		Enabled:      true,
		InQueueSize:  8,
		OutQueueSize: 8,
		WriteTimeout: time.Second,
	}
}

// dialFeed starts the feed handler on an httptest server and connects a client.
func dialFeed(t *testing.T, srv *Server) (*websocket.Conn, *Session) {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + FeedPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case sess := <-srv.NewSessions():
		t.Cleanup(sess.Close)
		return conn, sess
	case <-time.After(2 * time.Second):
		t.Fatal("session was not handed to the game loop")
	}
	return nil, nil
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f map[string]any
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestFeed_CommandReachesInQueue(t *testing.T) {
	srv := NewServer(testFeedConfig(), zap.NewNop())
	conn, sess := dialFeed(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"id": 7, "op": OpAddXP, "character": "c1", "amount": 1000,
	}))

	select {
	case cmd := <-sess.InQueue:
		assert.Equal(t, Command{ID: 7, Op: OpAddXP, Character: "c1", Amount: 1000, Session: sess.ID}, cmd)
	case <-time.After(2 * time.Second):
		t.Fatal("command not queued")
	}
}

func TestFeed_MalformedCommandAnswered(t *testing.T) {
	srv := NewServer(testFeedConfig(), zap.NewNop())
	conn, sess := dialFeed(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	f := readFrame(t, conn)
	assert.Equal(t, KindResult, f["kind"])
	payload := f["payload"].(map[string]any)
	assert.Equal(t, false, payload["ok"])
	assert.NotEmpty(t, payload["error"])
	assert.Empty(t, sess.InQueue)
}

func TestFeed_SendDeliversFrames(t *testing.T) {
	srv := NewServer(testFeedConfig(), zap.NewNop())
	conn, sess := dialFeed(t, srv)

	frame, err := EncodeEvent(event.LevelUp{Entity: 5, NewLevel: 2}, "c1")
	require.NoError(t, err)
	sess.Send(frame)

	f := readFrame(t, conn)
	assert.Equal(t, "level_up", f["kind"])
	assert.Equal(t, float64(5), f["entity"])
	assert.Equal(t, "c1", f["character"])
	assert.Equal(t, map[string]any{"entity": float64(5), "new_level": float64(2)}, f["payload"])
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	srv := NewServer(testFeedConfig(), zap.NewNop())
	conn, sess := dialFeed(t, srv)

	sess.Close()
	sess.Close()
	assert.True(t, sess.IsClosed())
	sess.Send([]byte("dropped")) // no panic after close

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestHub(t *testing.T) {
	h := NewHub()
	srv := NewServer(testFeedConfig(), zap.NewNop())
	_, s1 := dialFeed(t, srv)
	_, s2 := dialFeed(t, srv)

	h.Add(s2)
	h.Add(s1)
	assert.Equal(t, 2, h.Len())
	assert.Same(t, s1, h.Get(s1.ID))

	var order []uint64
	h.ForEach(func(s *Session) { order = append(order, s.ID) })
	assert.Equal(t, []uint64{s1.ID, s2.ID}, order)

	h.Remove(s1.ID)
	assert.Nil(t, h.Get(s1.ID))

	h.CloseAll()
	assert.Zero(t, h.Len())
	assert.True(t, s2.IsClosed())
}

func TestDecodeCommand(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"op":"spend_currency","character":"c1","currency":"rift_orbs","amount":3,"Session":9}`))
	require.NoError(t, err)
	assert.Equal(t, OpSpendCurrency, cmd.Op)
	assert.Equal(t, "rift_orbs", cmd.Currency)
	assert.Zero(t, cmd.Session, "session id never comes from the wire")

	_, err = DecodeCommand([]byte(`[]`))
	assert.Error(t, err)
}
