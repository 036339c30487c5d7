// Package remote serves a websocket endpoint that feeds input and field
// edits into a running engine and pushes telemetry back to every client.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/plus3/scriptbridge/engine"
)

// Engine is the part of *engine.Engine the server talks to. Both methods are
// safe for concurrent use.
type Engine interface {
	Post(ev engine.Event)
	Telemetry() engine.Telemetry
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const writeWait = 5 * time.Second

// Server accepts websocket clients on /ws and answers telemetry snapshots on
// /telemetry.
type Server struct {
	engine   Engine
	logger   *zap.Logger
	interval time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Envelope
}

// NewServer creates a server pushing telemetry every interval.
func NewServer(e Engine, interval time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Server{
		engine:   e,
		logger:   logger.Named("remote"),
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/telemetry", s.handleTelemetry)
	return mux
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	s.closeClients()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.engine.Telemetry()); err != nil {
		s.logger.Warn("encoding telemetry", zap.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan Envelope, 16)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

	done := make(chan struct{})
	go s.writeLoop(c, done)
	s.readLoop(c)
	close(done)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	s.logger.Debug("client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

func (s *Server) readLoop(c *client) {
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.reply(c, Envelope{Type: TypeError, Error: err.Error()})
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read failed", zap.Error(err))
			}
			return
		}
		ev, err := Decode(msg, s.logger)
		if err != nil {
			s.reply(c, Envelope{Type: TypeError, Error: err.Error()})
			continue
		}
		s.engine.Post(ev)
	}
}

// reply queues an envelope, dropping it when the client is not keeping up.
func (s *Server) reply(c *client, env Envelope) {
	select {
	case c.send <- env:
	default:
		s.logger.Debug("dropping message for slow client", zap.String("type", env.Type))
	}
}

func (s *Server) writeLoop(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		var env Envelope
		select {
		case <-done:
			return
		case env = <-c.send:
		case <-ticker.C:
			t := s.engine.Telemetry()
			env = Envelope{Type: TypeTelemetry, Telemetry: &t}
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(env); err != nil {
			s.logger.Debug("write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = c.conn.Close()
	}
}
