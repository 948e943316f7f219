package board

// Color is the color of a player or a piece.
type Color uint8

const (
	White Color = iota
	Black
)

// NumColors is the number of players.
const NumColors = 2

func (c Color) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// Opponent returns the other color.
func (c Color) Opponent() Color {
	return 1 - c
}

// Sign is +1 for White and -1 for Black. Scores are always kept from
// White's point of view; multiplying by Sign gives the side-to-move view.
func (c Color) Sign() float64 {
	if c == White {
		return 1
	}
	return -1
}

// State is the state of a game on a board.
type State uint8

const (
	NotStarted State = iota
	InProgress
	Draw
	WhiteWins
	BlackWins
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case InProgress:
		return "InProgress"
	case Draw:
		return "Draw"
	case WhiteWins:
		return "WhiteWins"
	case BlackWins:
		return "BlackWins"
	}
	return "Unknown"
}

// IsOver returns true for the three terminal states.
func (s State) IsOver() bool {
	return s == Draw || s == WhiteWins || s == BlackWins
}
