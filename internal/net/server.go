package net

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rmcgame/progression/internal/config"
	"go.uber.org/zap"
)

// FeedPath is where the websocket feed is served.
const FeedPath = "/feed"

// Server upgrades feed connections and creates Sessions. New sessions are
// handed to the game loop through a channel.
type Server struct {
	cfg      config.FeedConfig
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	newConns chan *Session
	httpSrv  *http.Server
	listener net.Listener
	log      *zap.Logger
}

func NewServer(cfg config.FeedConfig, log *zap.Logger) *Server {
	s := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the feed is an internal host channel; any origin may connect
			CheckOrigin: func(*http.Request) bool { return true },
		},
		newConns: make(chan *Session, 64),
		log:      log,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(FeedPath, s.handleFeed)
	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the feed mux, for embedding or httptest.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Listen binds the configured address and serves in a background goroutine.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.BindAddress)
	if err != nil {
		return err
	}
	s.listener = ln
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("feed server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("feed upgrade failed", zap.Error(err))
		return
	}

	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.cfg.InQueueSize, s.cfg.OutQueueSize, s.cfg.WriteTimeout, s.log)
	sess.Start()
	s.log.Info("feed session connected", zap.Uint64("session", id), zap.String("ip", sess.IP))

	select {
	case s.newConns <- sess:
	default:
		s.log.Warn("session queue full, rejecting connection")
		sess.Close()
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// Shutdown stops accepting connections. Live sessions are closed by the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Addr returns the listener's address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
