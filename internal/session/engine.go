package session

// Side is the player whose turn it is.
type Side int

const (
	White Side = iota
	Black
)

// String returns the wire name of the side.
func (s Side) String() string {
	switch s {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "unknown"
	}
}

// Engine is the rules engine holding the authoritative game.
type Engine interface {
	// ApplyMove plays a move given in the engine's notation.
	ApplyMove(move string) error

	// Turn returns the side to move.
	Turn() Side
}

// PositionReporter is implemented by engines that can describe the current
// position, e.g. as FEN.
type PositionReporter interface {
	Position() string
}

// OutcomeReporter is implemented by engines that know when the game ended.
// Outcome returns an empty string while the game is in progress.
type OutcomeReporter interface {
	Outcome() string
}
