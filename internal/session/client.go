package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/sirupsen/logrus"
)

// ErrStale is returned when delivering to a client whose reader has
// already terminated or whose writes stalled.
var ErrStale = errors.New("client is stale")

// Client is the write half of a registered connection. Replies are queued
// on an unbounded outbox and written by the client's own write loop, so
// the coordinator never waits on a slow socket.
type Client struct {
	Conn Conn

	writeTimeout time.Duration

	mu     sync.Mutex
	outbox deque.Deque[[]byte]
	notify chan struct{}

	stale     chan struct{}
	staleOnce sync.Once
}

// NewClient wraps conn. A single write that takes longer than
// writeTimeout marks the client stalled.
func NewClient(conn Conn, writeTimeout time.Duration) *Client {
	return &Client{
		Conn:         conn,
		writeTimeout: writeTimeout,
		notify:       make(chan struct{}, 1),
		stale:        make(chan struct{}),
	}
}

// ID returns the connection identity.
func (c *Client) ID() string {
	return c.Conn.RemoteAddr()
}

// Deliver queues data for writing without blocking.
func (c *Client) Deliver(data []byte) error {
	if c.Stale() {
		return ErrStale
	}

	c.mu.Lock()
	c.outbox.PushBack(data)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of replies not yet handed to the connection.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outbox.Len()
}

// MarkStale flags the client as gone. Later deliveries fail with ErrStale
// and the write loop exits.
func (c *Client) MarkStale() {
	c.staleOnce.Do(func() {
		close(c.stale)

		c.mu.Lock()
		c.outbox.Clear()
		c.mu.Unlock()
	})
}

// Stale reports whether MarkStale has been called.
func (c *Client) Stale() bool {
	select {
	case <-c.stale:
		return true
	default:
		return false
	}
}

// WriteLoop writes queued replies in order until the client goes stale or
// ctx is done. A failed or timed out write marks the client stale and
// closes the connection so that its reader shuts the client down.
func (c *Client) WriteLoop(ctx context.Context, log logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stale:
			return
		case <-c.notify:
		}

		for {
			data, ok := c.next()
			if !ok {
				break
			}
			if err := c.write(ctx, data); err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
					log.WithError(err).Warn("client stalled, dropping it")
				} else {
					log.WithError(err).Warn("failed to write to client")
				}
				c.MarkStale()
				_ = c.Conn.Close()
				return
			}
		}
	}
}

func (c *Client) next() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outbox.Len() == 0 || c.Stale() {
		return nil, false
	}
	return c.outbox.PopFront(), true
}

func (c *Client) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	return c.Conn.Write(ctx, data)
}
