// Package engine adapts github.com/notnil/chess to the session.Engine
// interface.
package engine

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"github.com/omochice/board-relay/internal/session"
)

// ErrGameOver is returned for moves played after the game has ended.
var ErrGameOver = errors.New("game is over")

// Chess is a single chess game. It is not safe for concurrent use; the
// session coordinator is its only caller.
type Chess struct {
	game *chess.Game
}

var (
	_ session.Engine           = (*Chess)(nil)
	_ session.PositionReporter = (*Chess)(nil)
	_ session.OutcomeReporter  = (*Chess)(nil)
)

// NewChess starts a game from fen, or from the standard starting position
// when fen is empty.
func NewChess(fen string) (*Chess, error) {
	if fen == "" {
		return &Chess{game: chess.NewGame()}, nil
	}

	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parsing starting position: %w", err)
	}
	return &Chess{game: chess.NewGame(opt)}, nil
}

// ApplyMove plays a move in standard algebraic notation, e.g. "e4" or "Nf3".
func (c *Chess) ApplyMove(move string) error {
	if c.game.Outcome() != chess.NoOutcome {
		return ErrGameOver
	}
	if err := c.game.MoveStr(move); err != nil {
		return fmt.Errorf("move %q: %w", move, err)
	}
	return nil
}

// Turn returns the side to move.
func (c *Chess) Turn() session.Side {
	if c.game.Position().Turn() == chess.Black {
		return session.Black
	}
	return session.White
}

// Position returns the current position as FEN.
func (c *Chess) Position() string {
	return c.game.Position().String()
}

// Outcome describes how the game ended, or returns "" while it is ongoing.
func (c *Chess) Outcome() string {
	if c.game.Outcome() == chess.NoOutcome {
		return ""
	}
	return fmt.Sprintf("%s by %s", c.game.Outcome(), c.game.Method())
}
