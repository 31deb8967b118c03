package tcp

import (
	"fmt"
	"net"

	"github.com/omochice/board-relay/internal/session"
)

// Listener accepts TCP connections and wraps them as frame connections.
type Listener struct {
	ln net.Listener
}

// Listen opens a TCP listener on address.
func Listen(address string) (*Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to start TCP listener: %w", err)
	}
	return &Listener{ln: ln}, nil
}

// Accept blocks until the next connection arrives.
func (l *Listener) Accept() (session.Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// Close stops the listener. Blocked Accept calls return net.ErrClosed.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Addr returns the listening address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}
