package board

// Move places or moves a piece to a destination. Moves are plain values
// and compare with ==.
type Move struct {
	Piece       PieceName
	Destination Position
}

// Pass is the move made when a player has no other legal move.
var Pass = Move{Piece: NoPiece}

// IsPass returns true for the pass move.
func (m Move) IsPass() bool {
	return m.Piece.Bug == NoBug
}

func (m Move) String() string {
	if m.IsPass() {
		return "pass"
	}
	return m.Piece.String() + "[" + m.Destination.String() + "]"
}
