// Package ws provides the WebSocket transport: one binary message carries
// one frame.
package ws

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/omochice/board-relay/pkg/protocol"
)

const closeTimeout = time.Second

// Conn adapts a WebSocket stream to session.Conn. The same type serves the
// server and the dialing side; state decides masking.
type Conn struct {
	conn  net.Conn
	src   io.Reader
	state ws.State

	// mu serializes whole frames written by Write, Close and control
	// replies produced while reading.
	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewServerConn wraps a connection that has completed the server handshake.
func NewServerConn(conn net.Conn) *Conn {
	return &Conn{conn: conn, src: conn, state: ws.StateServerSide}
}

// NewClientConn wraps a dialed connection. br holds frames the server sent
// right after the handshake and may be nil.
func NewClientConn(conn net.Conn, br *bufio.Reader) *Conn {
	var src io.Reader = conn
	if br != nil {
		src = io.MultiReader(br, conn)
	}
	return &Conn{conn: conn, src: src, state: ws.StateClientSide}
}

// Dial connects to a WebSocket endpoint such as ws://127.0.0.1:6001/.
func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}
	return NewClientConn(conn, br), nil
}

// Read implements session.Conn.
// Returns the next data message as a zero-padded frame. Messages longer
// than a frame are consumed and reported as protocol.ErrPayloadTooLong so
// the caller may keep reading. A close handshake from the peer yields io.EOF.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	rd := &wsutil.Reader{
		Source:         c.src,
		State:          c.state,
		OnIntermediate: c.handleControl,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return nil, c.readError(err)
		}
		if hdr.OpCode.IsControl() {
			if err := c.handleControl(hdr, rd); err != nil {
				return nil, c.readError(err)
			}
			continue
		}

		payload, err := io.ReadAll(io.LimitReader(rd, protocol.FrameSize+1))
		if err != nil {
			return nil, c.readError(err)
		}
		if len(payload) > protocol.FrameSize {
			if err := rd.Discard(); err != nil {
				return nil, c.readError(err)
			}
			return nil, fmt.Errorf("websocket message exceeds %d bytes: %w", protocol.FrameSize, protocol.ErrPayloadTooLong)
		}

		var frame protocol.Frame
		copy(frame[:], payload)
		return frame.Bytes(), nil
	}
}

// Write implements session.Conn. A deadline on ctx bounds the write.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	return wsutil.WriteMessage(c.conn, c.state, ws.OpBinary, data)
}

// Close implements session.Conn.
// Sends a normal-closure frame on a best effort basis, then closes the
// underlying connection. Only the first call has any effect.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(closeTimeout))
		body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
		_ = wsutil.WriteMessage(c.conn, c.state, ws.OpClose, body)
		c.mu.Unlock()

		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr implements session.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// handleControl answers pings and close frames. The reply is assembled in
// memory first so it goes out as one write under mu.
func (c *Conn) handleControl(hdr ws.Header, r io.Reader) error {
	var reply bytes.Buffer
	err := wsutil.ControlHandler{
		Src:                 r,
		Dst:                 &reply,
		State:               c.state,
		DisableSrcCiphering: true,
	}.Handle(hdr)

	if reply.Len() > 0 {
		c.mu.Lock()
		_, werr := c.conn.Write(reply.Bytes())
		c.mu.Unlock()
		if err == nil {
			err = werr
		}
	}
	return err
}

func (c *Conn) readError(err error) error {
	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		return io.EOF
	}
	return err
}
