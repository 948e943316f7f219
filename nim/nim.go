// Package nim implements multi-pile Nim behind the board.Board interface.
// Its rules are simple enough to solve exactly, which makes it a reference
// game for checking the search engine and for self-play training.
//
// The player who takes the last stone wins. White moves first.
package nim

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/zobrist"
)

var ErrInvalidPiles = errors.New("invalid piles")

// MaxPileSize bounds the stones in any one pile.
const MaxPileSize = 255

// Game is a Nim position with its move history.
type Game struct {
	table   *zobrist.Table
	initial []int
	piles   []int
	history []undo
	toMove  board.Color
	key     uint64
	state   board.State
}

type undo struct {
	pile, from int
	key        uint64
	state      board.State
}

// NewTable builds the Zobrist table for games with numPiles piles of at
// most maxPile stones. A table may be shared by any number of games.
func NewTable(numPiles, maxPile int) *zobrist.Table {
	return zobrist.New(numPiles, maxPile)
}

// New starts a game. table must be at least as large as the piles.
func New(table *zobrist.Table, piles []int) (*Game, error) {
	if len(piles) == 0 {
		return nil, fmt.Errorf("%w: no piles", ErrInvalidPiles)
	}
	if len(piles) > table.NumSlots() {
		return nil, fmt.Errorf("%w: %d piles, table holds %d", ErrInvalidPiles, len(piles), table.NumSlots())
	}
	total := 0
	for i, p := range piles {
		if p < 0 || p > min(table.MaxValue(), MaxPileSize) {
			return nil, fmt.Errorf("%w: pile %d has %d stones", ErrInvalidPiles, i, p)
		}
		total += p
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: every pile is empty", ErrInvalidPiles)
	}
	g := &Game{
		table:   table,
		initial: slices.Clone(piles),
		piles:   slices.Clone(piles),
		toMove:  board.White,
		state:   board.NotStarted,
	}
	g.key = table.Hash(g.piles, false)
	return g, nil
}

// ParsePiles reads a comma separated list of pile sizes, like "3,4,5".
func ParsePiles(s string) ([]int, error) {
	var piles []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPiles, err)
		}
		piles = append(piles, n)
	}
	return piles, nil
}

// Take is the move removing stones from pile down to leave stones left.
func Take(color board.Color, pile, left int) board.Move {
	return board.Move{
		Piece:       board.PieceName{Color: color, Bug: board.SoldierAnt, Number: uint8(pile)},
		Destination: board.Position{Q: left},
	}
}

func (g *Game) Piles() []int {
	return slices.Clone(g.piles)
}

// NimSum is the XOR of all pile sizes. The side to move is lost under
// perfect play exactly when it is zero.
func (g *Game) NimSum() int {
	return nimSum(g.piles)
}

func nimSum(piles []int) int {
	s := 0
	for _, p := range piles {
		s ^= p
	}
	return s
}

func (g *Game) stones() int {
	n := 0
	for _, p := range g.piles {
		n += p
	}
	return n
}

func (g *Game) ZobristKey() uint64 {
	return g.key
}

func (g *Game) CurrentColor() board.Color {
	return g.toMove
}

func (g *Game) GameIsOver() bool {
	return g.state.IsOver()
}

func (g *Game) State() board.State {
	return g.state
}

func (g *Game) ValidMoves() []board.Move {
	if g.GameIsOver() {
		return nil
	}
	moves := make([]board.Move, 0, g.stones())
	for i, p := range g.piles {
		for left := p - 1; left >= 0; left-- {
			moves = append(moves, Take(g.toMove, i, left))
		}
	}
	return moves
}

// IsNoisyMove is true for moves that leave a zero nim sum or empty a pile.
func (g *Game) IsNoisyMove(m board.Move) bool {
	pile, left := int(m.Piece.Number), m.Destination.Q
	if left == 0 {
		return true
	}
	return nimSum(g.piles)^g.piles[pile]^left == 0
}

func (g *Game) TrustedPlay(m board.Move) {
	pile, left := int(m.Piece.Number), m.Destination.Q
	g.history = append(g.history, undo{pile: pile, from: g.piles[pile], key: g.key, state: g.state})
	g.key = g.table.Change(g.key, pile, g.piles[pile], left)
	g.piles[pile] = left
	g.state = board.InProgress
	if g.stones() == 0 {
		if g.toMove == board.White {
			g.state = board.WhiteWins
		} else {
			g.state = board.BlackWins
		}
	}
	g.toMove = g.toMove.Opponent()
}

func (g *Game) UndoLastMove() {
	if len(g.history) == 0 {
		panic("nim: undo with no moves played")
	}
	u := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	g.piles[u.pile] = u.from
	g.key = u.key
	g.state = u.state
	g.toMove = g.toMove.Opponent()
}

// MovesPlayed is the number of moves since the start of the game.
func (g *Game) MovesPlayed() int {
	return len(g.history)
}

func (g *Game) Clone() board.Board {
	return &Game{
		table:   g.table,
		initial: g.initial,
		piles:   slices.Clone(g.piles),
		history: slices.Clone(g.history),
		toMove:  g.toMove,
		key:     g.key,
		state:   g.state,
	}
}

// Metrics describes a Nim position with a queen for each player. The side
// to move's queen counts as pinned when its position is lost, and its move
// counts split into winning (noisy) and other moves. Stones still on the
// piles count as pieces in hand.
func (g *Game) Metrics() board.BoardMetrics {
	total := 0
	for _, p := range g.initial {
		total += p
	}
	left := g.stones()
	bm := board.BoardMetrics{
		State:        g.state,
		PiecesInPlay: total - left,
		PiecesInHand: left,
		Pieces:       make([]board.PieceMetrics, 0, 2+len(g.piles)),
	}

	mover := board.PieceMetrics{
		Piece:  board.PieceName{Color: g.toMove, Bug: board.QueenBee, Number: 1},
		InPlay: 1,
	}
	if !g.GameIsOver() {
		if g.NimSum() == 0 {
			mover.IsPinned = 1
		}
		for _, m := range g.ValidMoves() {
			if g.IsNoisyMove(m) {
				mover.NoisyMoveCount++
			} else {
				mover.QuietMoveCount++
			}
		}
	}
	other := board.PieceMetrics{
		Piece:  board.PieceName{Color: g.toMove.Opponent(), Bug: board.QueenBee, Number: 1},
		InPlay: 1,
	}
	bm.Pieces = append(bm.Pieces, mover, other)

	for i, p := range g.piles {
		if p == 0 {
			continue
		}
		bm.Pieces = append(bm.Pieces, board.PieceMetrics{
			Piece:                 board.PieceName{Color: g.toMove, Bug: board.SoldierAnt, Number: uint8(i)},
			InPlay:                1,
			FriendlyNeighborCount: p,
		})
	}
	return bm
}

func (g *Game) String() string {
	var sb strings.Builder
	for i, p := range g.piles {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(p))
	}
	fmt.Fprintf(&sb, " %v to move (%v)", g.toMove, g.state)
	return sb.String()
}
