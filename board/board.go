// Package board defines the boundary between the search engine and a
// board implementation. The engine never looks at rules; everything it knows
// about a position comes through the Board interface.
package board

// Board is a mutable game position.
//
// TrustedPlay and UndoLastMove form a stack: the engine pairs every
// TrustedPlay with exactly one UndoLastMove along the same call path, and a
// board does not validate moves passed to TrustedPlay.
type Board interface {
	// ZobristKey is the incrementally maintained hash of the position,
	// including the side to move.
	ZobristKey() uint64
	CurrentColor() Color
	GameIsOver() bool
	State() State
	// ValidMoves returns every legal move. When the side to move has nothing
	// else to do it returns exactly one Pass, never an empty slice, unless
	// the game is over.
	ValidMoves() []Move
	// IsNoisyMove reports whether a move is tactically significant.
	IsNoisyMove(m Move) bool
	TrustedPlay(m Move)
	UndoLastMove()
	// Clone returns an independent deep copy.
	Clone() Board
	Metrics() BoardMetrics
}
