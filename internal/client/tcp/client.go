// Package tcp provides a TCP client for the relay server.
package tcp

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/omochice/board-relay/internal/client"
	"github.com/omochice/board-relay/internal/session"
	"github.com/omochice/board-relay/internal/transport/tcp"
)

// New creates a client for the server at address, e.g. 127.0.0.1:6000.
func New(address string, log logrus.FieldLogger) *client.Session {
	return client.NewSession(func(ctx context.Context) (session.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, err
		}
		return tcp.NewConn(conn), nil
	}, log.WithField("transport", "tcp"))
}
