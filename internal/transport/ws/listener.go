package ws

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/sirupsen/logrus"

	"github.com/omochice/board-relay/internal/session"
)

// Listener accepts TCP connections and completes the WebSocket handshake on
// each of them in its own goroutine, so a slow client never holds up the
// others. Only upgraded connections are handed out by Accept.
type Listener struct {
	ln               net.Listener
	upgrader         ws.Upgrader
	handshakeTimeout time.Duration
	log              logrus.FieldLogger

	conns chan *Conn
	quit  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// Listen opens a WebSocket listener on address. Handshakes that take
// longer than handshakeTimeout are abandoned.
func Listen(address string, handshakeTimeout time.Duration, log logrus.FieldLogger) (*Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to start WebSocket listener: %w", err)
	}

	l := &Listener{
		ln:               ln,
		handshakeTimeout: handshakeTimeout,
		log:              log.WithField("transport", "websocket"),
		conns:            make(chan *Conn),
		quit:             make(chan struct{}),
	}

	l.wg.Add(1)
	go l.acceptLoop()

	return l, nil
}

// Accept blocks until the next upgraded connection is ready.
func (l *Listener) Accept() (session.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.quit:
		return nil, net.ErrClosed
	}
}

// Close stops accepting and waits for in-flight handshakes to finish.
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.quit)
		err = l.ln.Close()
		l.wg.Wait()
	})
	return err
}

// Addr returns the listening address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.quit:
				return
			default:
				l.log.WithError(err).Warn("failed to accept connection")
				continue
			}
		}

		l.wg.Add(1)
		go l.handshake(conn)
	}
}

func (l *Listener) handshake(conn net.Conn) {
	defer l.wg.Done()

	log := l.log.WithField("remote", conn.RemoteAddr().String())

	_ = conn.SetDeadline(time.Now().Add(l.handshakeTimeout))
	if _, err := l.upgrader.Upgrade(conn); err != nil {
		log.WithError(err).Warn("websocket handshake failed")
		conn.Close()
		return
	}
	_ = conn.SetDeadline(time.Time{})

	upgraded := NewServerConn(conn)
	select {
	case l.conns <- upgraded:
	case <-l.quit:
		upgraded.Close()
	}
}
