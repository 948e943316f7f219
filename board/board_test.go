package board

import (
	"testing"

	"github.com/matryer/is"
)

func TestColor(t *testing.T) {
	is := is.New(t)
	is.Equal(White.Opponent(), Black)
	is.Equal(Black.Opponent(), White)
	is.Equal(White.Sign(), 1.0)
	is.Equal(Black.Sign(), -1.0)
	is.Equal(Black.String(), "Black")
}

func TestState(t *testing.T) {
	is := is.New(t)
	for _, s := range []State{NotStarted, InProgress} {
		is.True(!s.IsOver())
	}
	for _, s := range []State{Draw, WhiteWins, BlackWins} {
		is.True(s.IsOver())
	}
	is.Equal(WhiteWins.String(), "WhiteWins")
}

func TestParseBugType(t *testing.T) {
	is := is.New(t)
	for b := BugType(0); int(b) < NumBugTypes; b++ {
		parsed, err := ParseBugType(b.String())
		is.NoErr(err)
		is.Equal(parsed, b)
	}
	_, err := ParseBugType("Dragonfly")
	is.True(err != nil)
	is.Equal(NoBug.String(), "NoBug")
}

func TestMoveString(t *testing.T) {
	is := is.New(t)
	m := Move{
		Piece:       PieceName{Color: Black, Bug: Spider, Number: 2},
		Destination: Position{Q: -1, R: 2},
	}
	is.Equal(m.String(), "bS2[-1,2,0]")
	is.Equal(Move{Piece: PieceName{Bug: QueenBee}}.String(), "wQ[0,0,0]")
	is.True(Pass.IsPass())
	is.True(!m.IsPass())
	is.Equal(Pass.String(), "pass")
}

func TestMetricsReset(t *testing.T) {
	is := is.New(t)
	bm := BoardMetrics{
		State:        InProgress,
		PiecesInPlay: 3,
		PiecesInHand: 4,
		Pieces:       make([]PieceMetrics, 3, 8),
	}
	bm.Reset()
	is.Equal(bm.State, NotStarted)
	is.Equal(bm.PiecesInPlay, 0)
	is.Equal(len(bm.Pieces), 0)
	is.Equal(cap(bm.Pieces), 8)
}
