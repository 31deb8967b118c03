// Package client implements relay clients. The tcp and ws subpackages dial
// the respective transport; everything after the dial is shared here.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/omochice/board-relay/internal/session"
	"github.com/omochice/board-relay/pkg/protocol"
)

// ErrNotConnected is returned when sending before Connect or after
// Disconnect.
var ErrNotConnected = errors.New("not connected to server")

// Client defines the interface for relay clients.
// Both TCP and WebSocket implementations satisfy this interface.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
	Send(text string) error
	Move(move string) error
	Turn() error
	Replies() <-chan string
}

// DialFunc opens a frame connection to the server.
type DialFunc func(ctx context.Context) (session.Conn, error)

// Session is a Client over any frame connection.
type Session struct {
	dial DialFunc
	log  logrus.FieldLogger

	conn    session.Conn
	started bool
	replies chan string
	mu      sync.RWMutex
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewSession creates a client that connects with dial.
func NewSession(dial DialFunc, log logrus.FieldLogger) *Session {
	return &Session{
		dial:    dial,
		log:     log,
		replies: make(chan string, 16),
		done:    make(chan struct{}),
	}
}

// Connect establishes a connection to the server and starts receiving
// replies. A Session connects at most once.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("session already used")
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	s.conn = conn
	s.started = true

	s.wg.Add(1)
	go s.receive(conn)

	return nil
}

// Disconnect closes the connection and waits for the receiver to exit.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()

	s.once.Do(func() { close(s.done) })
	s.wg.Wait()

	s.mu.Lock()
	if !s.started {
		s.started = true
		close(s.replies)
	}
	s.mu.Unlock()
}

// IsConnected returns whether the client is connected.
func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil
}

// Send sends text as one frame.
func (s *Session) Send(text string) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	frame, err := protocol.Encode(text)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if err := conn.Write(context.Background(), frame.Bytes()); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Move asks the server to play move.
func (s *Session) Move(move string) error {
	return s.Send(protocol.Move(move).String())
}

// Turn asks the server whose turn it is.
func (s *Session) Turn() error {
	return s.Send(protocol.Turn().String())
}

// Replies returns the channel of decoded replies. It is closed when the
// connection ends.
func (s *Session) Replies() <-chan string {
	return s.replies
}

func (s *Session) receive(conn session.Conn) {
	defer s.wg.Done()
	defer close(s.replies)

	for {
		data, err := conn.Read(context.Background())
		if errors.Is(err, protocol.ErrPayloadTooLong) {
			s.log.WithError(err).Warn("dropping oversized reply")
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				select {
				case <-s.done:
				default:
					s.log.WithError(err).Warn("error reading from server")
				}
			}
			return
		}

		text, err := protocol.Decode(data)
		if err != nil {
			s.log.WithError(err).Warn("failed to decode reply")
			continue
		}

		select {
		case s.replies <- text:
		case <-s.done:
			return
		}
	}
}
