package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Server accepts WebSocket connections and routes their frames into the
// bridge. It also serves the small read-only HTTP surface: health and the
// table listing.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	logger   *log.Logger
	bridge   *Bridge
	sessions *SessionManager

	mu          sync.RWMutex
	connections map[*Connection]bool

	register   chan *Connection
	unregister chan *Connection
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewServer creates a server listening on addr once started.
func NewServer(addr string, bridge *Bridge, sessions *SessionManager, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		bridge:      bridge,
		sessions:    sessions,
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start serves until the context is cancelled, then drains: connections are
// closed, engines finish their in-flight events, the listener shuts down.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/tables", s.handleTables)

	httpServer := &http.Server{Addr: s.addr, Handler: mux}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.run()
		return nil
	})
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.addr)
		err := httpServer.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		s.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		s.bridge.Close()
		return nil
	})
	return g.Wait()
}

// Stop closes every connection and ends the register loop.
func (s *Server) Stop() {
	s.cancel()
	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()
}

// run owns the connection set.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()
			if ok {
				_ = conn.Close()
				s.bridge.HandleDisconnect(conn)
			}
			s.logger.Info("client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(ws, s.bridge, s.logger)
	sess := s.sessions.Create(conn)
	conn.SetSession(sess)

	select {
	case s.register <- conn:
	case <-s.ctx.Done():
		_ = conn.Close()
		return
	}
	conn.Start()

	// greet with the minted session so the client can REATTACH later
	_ = conn.Send(mustMessage(MessageTypeSession, SessionData{SessionID: sess.ID()}))

	go func() {
		<-conn.Done()
		select {
		case s.unregister <- conn:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	connections := len(s.connections)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"connections": connections,
		"tables":      s.bridge.TableCount(),
	})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(TableListData{Tables: s.bridge.lobbyTables()})
}
