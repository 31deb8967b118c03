// Package ws provides a WebSocket client for the relay server.
package ws

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/omochice/board-relay/internal/client"
	"github.com/omochice/board-relay/internal/session"
	"github.com/omochice/board-relay/internal/transport/ws"
)

// New creates a client for the server at url, e.g. ws://127.0.0.1:6001/.
func New(url string, log logrus.FieldLogger) *client.Session {
	return client.NewSession(func(ctx context.Context) (session.Conn, error) {
		return ws.Dial(ctx, url)
	}, log.WithField("transport", "websocket"))
}
