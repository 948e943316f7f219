package board

// PieceMetrics are the per-piece features read by the evaluation function.
// Flags are stored as 0 or 1 so that every feature multiplies a weight.
type PieceMetrics struct {
	Piece                 PieceName
	InPlay                int
	IsPinned              int
	IsCovered             int
	NoisyMoveCount        int
	QuietMoveCount        int
	FriendlyNeighborCount int
	EnemyNeighborCount    int
}

// BoardMetrics is a snapshot of all piece features of a position.
// Pieces is a slice, not a map, so that consumers always visit pieces in the
// same order and floating point sums are reproducible.
type BoardMetrics struct {
	State        State
	PiecesInPlay int
	PiecesInHand int
	Pieces       []PieceMetrics
}

// Reset empties the metrics, keeping the allocated piece slice.
func (bm *BoardMetrics) Reset() {
	bm.State = NotStarted
	bm.PiecesInPlay = 0
	bm.PiecesInHand = 0
	bm.Pieces = bm.Pieces[:0]
}
