// Package protocol implements the fixed-size frame codec and the command
// grammar spoken between board-relay clients and the server.
package protocol

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// FrameSize is the length in bytes of every message on the wire, in both
// directions.
const FrameSize = 32

// Delimiter terminates a payload before the end of the frame.
const Delimiter byte = ';'

var (
	// ErrPayloadTooLong is returned when a payload does not fit in one frame.
	ErrPayloadTooLong = errors.New("payload exceeds frame size")

	// ErrMalformedUTF8 is returned when a frame payload is not valid UTF-8.
	ErrMalformedUTF8 = errors.New("malformed utf-8 payload")
)

// Frame is one fixed-size wire message.
type Frame [FrameSize]byte

// Encode copies text into a zero-padded frame.
func Encode(text string) (Frame, error) {
	var f Frame
	if len(text) > FrameSize {
		return f, fmt.Errorf("encode %d bytes: %w", len(text), ErrPayloadTooLong)
	}
	copy(f[:], text)
	return f, nil
}

// MustEncode is like Encode but panics if text does not fit. It is meant for
// constant replies.
func MustEncode(text string) Frame {
	f, err := Encode(text)
	if err != nil {
		panic(err)
	}
	return f
}

// Bytes returns the frame as a slice ready to be written.
func (f Frame) Bytes() []byte {
	return f[:]
}

// Text decodes the frame payload.
func (f Frame) Text() (string, error) {
	return Decode(f[:])
}

// Decode returns the payload of data: every byte up to the first zero byte
// or Delimiter, whichever comes first. Anything after the terminator is
// ignored. Decode accepts arbitrary input and never panics.
func Decode(data []byte) (string, error) {
	payload := data[:payloadEnd(data)]
	if !utf8.Valid(payload) {
		return "", ErrMalformedUTF8
	}
	return string(payload), nil
}

// payloadEnd returns the index of the payload terminator, or len(data) when
// the payload fills the whole buffer.
func payloadEnd(data []byte) int {
	for i, b := range data {
		if b == 0 || b == Delimiter {
			return i
		}
	}
	return len(data)
}
