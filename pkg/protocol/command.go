package protocol

import (
	"errors"
	"strings"
)

// Separator splits a command into its action and argument.
const Separator = ":"

// Actions understood by the server.
const (
	ActionMove = "move"
	ActionTurn = "turn"
)

// ReplyMoved is sent to every client after any move command, whether or not
// the rules engine accepted the move.
const ReplyMoved = "moved"

// ErrMalformedCommand is returned for payloads without exactly one Separator.
var ErrMalformedCommand = errors.New("malformed command")

// Command is a parsed frame payload.
type Command struct {
	Action   string
	Argument string
}

// ParseCommand splits text into a Command.
func ParseCommand(text string) (Command, error) {
	parts := strings.Split(text, Separator)
	if len(parts) != 2 {
		return Command{}, ErrMalformedCommand
	}
	return Command{Action: parts[0], Argument: parts[1]}, nil
}

// String joins the command back into its wire form.
func (c Command) String() string {
	return c.Action + Separator + c.Argument
}

// Move builds a move command.
func Move(move string) Command {
	return Command{Action: ActionMove, Argument: move}
}

// Turn builds a turn query.
func Turn() Command {
	return Command{Action: ActionTurn}
}
