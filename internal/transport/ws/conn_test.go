package ws_test

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/board-relay/internal/session"
	wstransport "github.com/omochice/board-relay/internal/transport/ws"
	"github.com/omochice/board-relay/pkg/protocol"
)

func TestConn_ImplementsInterface(t *testing.T) {
	var _ session.Conn = (*wstransport.Conn)(nil)
}

// pair returns the server side of an upgraded connection and a raw dialed
// client connection.
func pair(t *testing.T) (session.Conn, net.Conn) {
	t.Helper()

	logger, _ := test.NewNullLogger()
	ln, err := wstransport.Listen("127.0.0.1:0", time.Second, logger)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	client, _, _, err := ws.Dial(context.Background(), "ws://"+ln.Addr().String()+"/")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server, err := ln.Accept()
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })

	return server, client
}

func TestConn_ReadPadsShortMessage(t *testing.T) {
	server, client := pair(t)

	require.NoError(t, wsutil.WriteClientBinary(client, []byte("move:e4")))

	data, err := server.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, data, protocol.FrameSize)

	text, err := protocol.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "move:e4", text)
}

func TestConn_ReadFullFrame(t *testing.T) {
	server, client := pair(t)

	frame := protocol.MustEncode("hello:world")
	require.NoError(t, wsutil.WriteClientBinary(client, frame.Bytes()))

	data, err := server.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, frame.Bytes(), data)
}

func TestConn_ReadOversizedMessageIsRecoverable(t *testing.T) {
	server, client := pair(t)

	require.NoError(t, wsutil.WriteClientBinary(client, []byte(strings.Repeat("x", protocol.FrameSize+10))))
	require.NoError(t, wsutil.WriteClientBinary(client, []byte("turn:")))

	_, err := server.Read(context.Background())
	assert.ErrorIs(t, err, protocol.ErrPayloadTooLong)

	data, err := server.Read(context.Background())
	require.NoError(t, err)
	text, _ := protocol.Decode(data)
	assert.Equal(t, "turn:", text)
}

func TestConn_ReadAnswersPing(t *testing.T) {
	server, client := pair(t)

	require.NoError(t, wsutil.WriteClientMessage(client, ws.OpPing, []byte("hi")))
	require.NoError(t, wsutil.WriteClientBinary(client, []byte("turn:")))

	_, err := server.Read(context.Background())
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	payload, op, err := wsutil.ReadServerData(client)
	// ReadServerData skips the pong, so only a later data message would
	// return; a timeout proves no data was sent, and the pong was consumed.
	if err == nil {
		t.Fatalf("unexpected data message %q (op %v)", payload, op)
	}
	var netErr net.Error
	assert.True(t, errors.As(err, &netErr) && netErr.Timeout(), "want timeout, got %v", err)
}

func TestConn_ReadPeerCloseIsEOF(t *testing.T) {
	server, client := pair(t)

	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	require.NoError(t, wsutil.WriteClientMessage(client, ws.OpClose, body))

	_, err := server.Read(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestConn_Write(t *testing.T) {
	server, client := pair(t)

	frame := protocol.MustEncode("moved")
	require.NoError(t, server.Write(context.Background(), frame.Bytes()))

	data, err := wsutil.ReadServerBinary(client)
	require.NoError(t, err)
	assert.Equal(t, frame.Bytes(), data)
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	server, client := pair(t)

	require.NoError(t, server.Close())
	assert.NoError(t, server.Close())

	_, err := wsutil.ReadServerBinary(client)
	var closed wsutil.ClosedError
	assert.True(t, errors.As(err, &closed), "want close frame, got %v", err)
}

func TestDial_RoundTrip(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ln, err := wstransport.Listen("127.0.0.1:0", time.Second, logger)
	require.NoError(t, err)
	defer ln.Close()

	client, err := wstransport.Dial(context.Background(), "ws://"+ln.Addr().String()+"/")
	require.NoError(t, err)
	defer client.Close()

	server, err := ln.Accept()
	require.NoError(t, err)
	defer server.Close()

	require.NoError(t, client.Write(context.Background(), protocol.MustEncode("turn:").Bytes()))
	data, err := server.Read(context.Background())
	require.NoError(t, err)
	text, _ := protocol.Decode(data)
	assert.Equal(t, "turn:", text)

	require.NoError(t, server.Write(context.Background(), protocol.MustEncode("white").Bytes()))
	data, err = client.Read(context.Background())
	require.NoError(t, err)
	text, _ = protocol.Decode(data)
	assert.Equal(t, "white", text)
}
