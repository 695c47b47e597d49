// Package feed bridges the chat engine's observable state over WebSocket so
// external presentation layers can render the transcript and drive sends.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ttdigital/ttchat/internal/chat"
	"github.com/ttdigital/ttchat/internal/config"
	"github.com/ttdigital/ttchat/internal/domain"
	"github.com/ttdigital/ttchat/internal/logging"
)

// Engine is the subset of the chat client the feed drives.
type Engine interface {
	Snapshot() chat.Snapshot
	OnChange(func(chat.Snapshot))
	SendMessage(ctx context.Context, text string, files []domain.Attachment, privacy *bool) error
	StartNewSession(ctx context.Context) string
	LoadPreviousSession(ctx context.Context) string
}

// Server exposes the engine state on a WebSocket endpoint. Every connected
// subscriber receives the current snapshot on connect and a state frame after
// each mutation.
type Server struct {
	cfg    config.FeedConfig
	engine Engine
	log    *logging.Logger

	mu   sync.RWMutex
	subs map[string]*subscriber

	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a feed server over the given engine.
func New(cfg config.FeedConfig, engine Engine, log *logging.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		engine: engine,
		log:    log.Sub("feed"),
		subs:   make(map[string]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The feed binds to loopback by default; embedding pages
			// connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	engine.OnChange(s.broadcast)
	return s
}

// Start listens for connections until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Bind, s.cfg.Port)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		BaseContext: func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.log.Info().Str("addr", ln.Addr().String()).Msg("feed server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down feed server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.closeAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
}

// SubscriberCount returns the number of connected sockets.
func (s *Server) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(4 * 1024 * 1024)

	sub := newSubscriber(conn)

	s.mu.Lock()
	s.subs[sub.id] = sub
	s.mu.Unlock()
	s.log.Info().Str("subId", sub.id).Str("remote", r.RemoteAddr).Msg("subscriber connected")

	defer func() {
		s.mu.Lock()
		delete(s.subs, sub.id)
		s.mu.Unlock()
		sub.close()
		s.log.Info().Str("subId", sub.id).Msg("subscriber disconnected")
	}()

	// Initial snapshot so the client can render immediately.
	if err := sub.send(newStateFrame(s.engine.Snapshot())); err != nil {
		s.log.Warn().Err(err).Str("subId", sub.id).Msg("initial state send failed")
		return
	}

	s.readLoop(r.Context(), sub)
}

func (s *Server) readLoop(ctx context.Context, sub *subscriber) {
	for {
		_, msg, err := sub.socket.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("subId", sub.id).Msg("subscriber closed connection")
			} else {
				s.log.Warn().Err(err).Str("subId", sub.id).Msg("read error")
			}
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			s.log.Debug().Err(err).Str("subId", sub.id).Msg("ignoring malformed frame")
			continue
		}

		s.dispatch(ctx, sub, frame)
	}
}

func (s *Server) dispatch(ctx context.Context, sub *subscriber, frame InboundFrame) {
	switch frame.Type {
	case FrameSendMessage:
		if err := s.engine.SendMessage(ctx, frame.Text, nil, nil); err != nil {
			sub.send(newErrorFrame(err))
		}
	case FrameNewSession:
		s.engine.StartNewSession(ctx)
	case FrameLoadSession:
		s.engine.LoadPreviousSession(ctx)
	default:
		s.log.Debug().Str("type", frame.Type).Msg("ignoring unknown frame type")
	}
}

// broadcast fans a snapshot out to every connected subscriber.
func (s *Server) broadcast(snap chat.Snapshot) {
	frame := newStateFrame(snap)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if err := sub.send(frame); err != nil {
			s.log.Warn().Err(err).Str("subId", sub.id).Msg("broadcast send failed")
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.subs {
		sub.close()
		delete(s.subs, id)
	}
}
