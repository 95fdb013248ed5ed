// Package overlay is the WebSocket face of the timer daemon. Renderers
// subscribe to presentation events on /ws and collaborators push game
// inputs (position, map, combat, keys) over the same connection.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/raidtimers/internal/config"
	"github.com/udisondev/raidtimers/internal/game/encounter"
)

const shutdownTimeout = 5 * time.Second

// InputPoster accepts decoded inputs. Post never blocks and may drop;
// Submit waits for room until ctx is done.
type InputPoster interface {
	Post(in encounter.Input) bool
	Submit(ctx context.Context, in encounter.Input) error
}

// Server serves the overlay endpoints.
type Server struct {
	cfg      config.Overlay
	hub      *Hub
	inputs   InputPoster
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates an overlay server broadcasting through hub and
// forwarding inbound messages to inputs.
func NewServer(cfg config.Overlay, hub *Hub, inputs InputPoster) *Server {
	return &Server{
		cfg:    cfg,
		hub:    hub,
		inputs: inputs,
		upgrader: websocket.Upgrader{
			// Local overlays are served from file:// and arbitrary ports.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler with /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Addr returns the listen address, or nil before Run.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens on cfg.BindAddress:cfg.Port and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	slog.Info("overlay listening", "address", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Shutdown does not track hijacked websocket connections.
		s.hub.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down overlay: %w", err)
		}
		slog.Info("overlay stopped")
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving overlay: %w", err)
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("overlay upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		id:     s.nextID.Add(1),
		remote: r.RemoteAddr,
		conn:   conn,
		send:   make(chan []byte, s.hub.queueSize),
	}
	s.hub.register(c)
	go c.writeLoop(s.cfg.WriteTimeout)

	c.readLoop(s.inputs)
	s.hub.unregister(c)
}
