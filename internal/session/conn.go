// Package session coordinates one shared game between every connected
// client: readers feed decoded commands into a relay queue, and a single
// coordinator applies them to the game and fans replies back out.
package session

import "context"

// Conn abstracts a bidirectional frame connection for both TCP and WebSocket.
// This interface isolates transport details from session logic.
type Conn interface {
	// Read blocks until one whole frame has arrived and returns its bytes.
	// Returns io.EOF when the peer closed the connection.
	Read(ctx context.Context) ([]byte, error)

	// Write sends a single frame.
	Write(ctx context.Context, data []byte) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address, which doubles as the
	// connection identity.
	RemoteAddr() string
}
