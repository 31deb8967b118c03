package server

import (
	"errors"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/omochice/board-relay/internal/session"
)

// ErrNoPending is returned by Poll when no connection is waiting.
var ErrNoPending = errors.New("no pending connection")

// Listener is a blocking source of frame connections.
type Listener interface {
	Accept() (session.Conn, error)
	Close() error
	Addr() net.Addr
}

// Acceptor turns a blocking Listener into a pollable one. A background
// goroutine accepts and then waits until Poll takes the connection, so at
// most one accepted connection is held at a time and the rest stay in the
// kernel backlog.
type Acceptor struct {
	ln      Listener
	log     logrus.FieldLogger
	pending chan session.Conn
	quit    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewAcceptor starts accepting on ln.
func NewAcceptor(ln Listener, log logrus.FieldLogger) *Acceptor {
	a := &Acceptor{
		ln:      ln,
		log:     log,
		pending: make(chan session.Conn),
		quit:    make(chan struct{}),
	}

	a.wg.Add(1)
	go a.acceptLoop()

	return a
}

// Poll returns the next accepted connection, or ErrNoPending without
// waiting when there is none.
func (a *Acceptor) Poll() (session.Conn, error) {
	select {
	case conn := <-a.pending:
		return conn, nil
	default:
		return nil, ErrNoPending
	}
}

// Addr returns the listening address.
func (a *Acceptor) Addr() string {
	return a.ln.Addr().String()
}

// Close stops the listener. A connection accepted but never polled is
// closed.
func (a *Acceptor) Close() error {
	var err error
	a.once.Do(func() {
		close(a.quit)
		err = a.ln.Close()
		a.wg.Wait()
	})
	return err
}

func (a *Acceptor) acceptLoop() {
	defer a.wg.Done()

	for {
		conn, err := a.ln.Accept()
		if err != nil {
			select {
			case <-a.quit:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			a.log.WithError(err).Warn("failed to accept connection")
			continue
		}

		select {
		case a.pending <- conn:
		case <-a.quit:
			conn.Close()
			return
		}
	}
}
