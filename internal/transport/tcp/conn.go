// Package tcp provides the raw TCP transport: every message is exactly one
// fixed-size frame on the stream.
package tcp

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/omochice/board-relay/pkg/protocol"
)

// Conn adapts net.Conn to session.Conn.
type Conn struct {
	conn net.Conn
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Read implements session.Conn.
// Blocks until a whole frame has arrived. A peer that closes mid-frame
// yields io.ErrUnexpectedEOF.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	buf := make([]byte, protocol.FrameSize)
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Write implements session.Conn. A deadline on ctx bounds the write.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	_, err := c.conn.Write(data)
	return err
}

// Close implements session.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements session.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
