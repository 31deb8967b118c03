// Package server hosts the relay: it owns the listeners, the connection
// registry and the coordinator, and drives them from a single tick.
package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/omochice/board-relay/internal/config"
	"github.com/omochice/board-relay/internal/session"
	"github.com/omochice/board-relay/internal/transport/tcp"
	"github.com/omochice/board-relay/internal/transport/ws"
)

// Server relays one game between every client connected over TCP or
// WebSocket.
type Server struct {
	cfg *config.Config
	log logrus.FieldLogger

	clients     *session.Registry
	queue       *session.Queue
	coordinator *session.Coordinator

	tcp *Acceptor
	ws  *Acceptor

	// ctx scopes every reader and writer goroutine.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	quit    chan struct{}
	wg      sync.WaitGroup
}

// New creates a Server playing on engine. Nothing listens until Listen or
// Start is called.
func New(cfg *config.Config, engine session.Engine, log logrus.FieldLogger) *Server {
	log = log.WithField("session", uuid.NewString())
	clients := session.NewRegistry()
	queue := session.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:         cfg,
		log:         log,
		clients:     clients,
		queue:       queue,
		coordinator: session.NewCoordinator(engine, clients, queue, log),
		ctx:         ctx,
		cancel:      cancel,
		quit:        make(chan struct{}),
	}
}

// Listen opens the TCP listener and, when configured, the WebSocket
// listener.
func (s *Server) Listen() error {
	tcpLn, err := tcp.Listen(s.cfg.Address)
	if err != nil {
		return err
	}
	s.tcp = NewAcceptor(tcpLn, s.log.WithField("transport", "tcp"))
	s.log.WithField("transport", "tcp").Infof("listening on %s", s.tcp.Addr())

	if s.cfg.WebSocketAddress == "" {
		return nil
	}

	wsLn, err := ws.Listen(s.cfg.WebSocketAddress, s.cfg.HandshakeTimeout, s.log)
	if err != nil {
		s.tcp.Close()
		return err
	}
	s.ws = NewAcceptor(wsLn, s.log.WithField("transport", "websocket"))
	s.log.WithField("transport", "websocket").Infof("listening on %s", s.ws.Addr())

	return nil
}

// Start listens and then serves until ctx is done or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the host loop on a fixed tick until ctx is done or Stop is
// called, then stops the server.
func (s *Server) Serve(ctx context.Context) error {
	if s.tcp == nil {
		return errors.New("server is not listening")
	}
	defer s.Stop()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.quit:
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick admits at most one pending connection per listener and then lets
// the coordinator process every queued command. It never blocks and may be
// called from a host loop instead of Serve.
func (s *Server) Tick() {
	for _, a := range []*Acceptor{s.tcp, s.ws} {
		if a == nil {
			continue
		}
		conn, err := a.Poll()
		if err != nil {
			continue
		}
		s.admit(conn)
	}

	s.coordinator.Tick()
}

// Stop closes the listeners and every connection, and waits for their
// goroutines to exit. It is safe to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.quit)
	s.mu.Unlock()

	for _, a := range []*Acceptor{s.tcp, s.ws} {
		if a != nil {
			a.Close()
		}
	}

	s.queue.Close()
	s.cancel()
	for _, client := range s.clients.Snapshot() {
		client.Conn.Close()
	}

	s.wg.Wait()
	s.log.Info("server stopped")
}

// Addr returns the TCP listening address.
func (s *Server) Addr() string {
	if s.tcp == nil {
		return ""
	}
	return s.tcp.Addr()
}

// WebSocketAddr returns the WebSocket listening address, or "" when
// WebSocket is disabled.
func (s *Server) WebSocketAddr() string {
	if s.ws == nil {
		return ""
	}
	return s.ws.Addr()
}

// ClientCount returns the number of registered clients.
func (s *Server) ClientCount() int {
	return s.clients.ClientCount()
}

// Position describes the game position after the last applied move. Safe
// to call while Serve is running.
func (s *Server) Position() string {
	return s.coordinator.Position()
}

func (s *Server) admit(conn session.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		conn.Close()
		return
	}

	client := session.NewClient(conn, s.cfg.WriteTimeout)
	s.clients.Register(client)

	log := s.log.WithField("remote", client.ID())
	log.Info("client connected")

	reader := session.NewReader(client, s.clients, s.queue, s.log)
	reader.RetryInterval = s.cfg.ReadRetryInterval

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		reader.Run(s.ctx)
	}()
	go func() {
		defer s.wg.Done()
		client.WriteLoop(s.ctx, log)
	}()
}
