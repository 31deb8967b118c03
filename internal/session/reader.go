package session

import (
	"context"
	"errors"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/omochice/board-relay/pkg/protocol"
)

// Reader pulls frames off one connection and feeds them to the relay queue.
type Reader struct {
	client  *Client
	clients *Registry
	queue   *Queue
	log     logrus.FieldLogger

	// RetryInterval is how long to back off after a read timeout.
	RetryInterval time.Duration
}

// NewReader creates a Reader for a client that is already registered in
// clients.
func NewReader(client *Client, clients *Registry, queue *Queue, log logrus.FieldLogger) *Reader {
	return &Reader{
		client:        client,
		clients:       clients,
		queue:         queue,
		log:           log.WithField("remote", client.ID()),
		RetryInterval: 100 * time.Millisecond,
	}
}

// Run reads until the connection fails or ctx is done, then unregisters
// the client and closes the connection.
func (r *Reader) Run(ctx context.Context) {
	defer r.closeAndRecover()

	for {
		data, err := r.client.Conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, protocol.ErrPayloadTooLong) {
				r.log.WithError(err).Warn("dropping oversized frame")
				continue
			}
			if isTimeout(err) {
				if !r.sleep(ctx) {
					return
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				r.log.Info("connection closed by peer")
			} else {
				r.log.WithError(err).Warn("read failed")
			}
			return
		}

		text, err := protocol.Decode(data)
		if err != nil {
			r.log.WithError(err).Warn("dropping undecodable frame")
			continue
		}

		r.log.Debugf("received %q", text)
		if err := r.queue.Send(Entry{Text: text, From: r.client.ID()}); err != nil {
			return
		}
	}
}

func (r *Reader) sleep(ctx context.Context) bool {
	t := time.NewTimer(r.RetryInterval)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Catch any panics, disconnect the client, and remove it from the registry
// regardless of the state of the connection.
func (r *Reader) closeAndRecover() {
	if err := recover(); err != nil {
		r.log.Errorf("error in client communication: %s\n%s", err, debug.Stack())
	}

	r.clients.Unregister(r.client)
	r.client.MarkStale()

	if err := r.client.Conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		r.log.WithError(err).Debug("failed to close client connection")
	}

	r.log.Info("client disconnected")
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
