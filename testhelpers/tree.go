// Package testhelpers provides boards with fully scripted game trees, so
// search results can be checked against hand-computed or brute-force values.
package testhelpers

import (
	"fmt"
	"slices"
	"sync/atomic"

	"lukechampine.com/frand"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/evaluation"
)

var nextKey atomic.Uint64

// WhiteQueen is the piece whose InPlay count carries a node's static value.
var WhiteQueen = board.PieceName{Color: board.White, Bug: board.QueenBee}

// Node is one position of a scripted tree. Nodes are never modified once a
// board plays over them, so many boards may share a tree.
type Node struct {
	Key     uint64
	State   board.State
	Metrics board.BoardMetrics
	Edges   []Edge
}

// Edge leads from a node to a child position.
type Edge struct {
	Move  board.Move
	Noisy bool
	To    *Node
}

// Value is the static score of n under ValueWeights.
func (n *Node) Value() int {
	for _, pm := range n.Metrics.Pieces {
		if pm.Piece == WhiteQueen {
			return pm.InPlay
		}
	}
	return 0
}

// Leaf is an in-progress position without children that statically
// scores value for White.
func Leaf(value int) *Node {
	return &Node{
		Key:   nextKey.Add(1),
		State: board.InProgress,
		Metrics: board.BoardMetrics{
			State:        board.InProgress,
			PiecesInPlay: 1,
			Pieces:       []board.PieceMetrics{{Piece: WhiteQueen, InPlay: value}},
		},
	}
}

// Won is a finished position.
func Won(winner board.Color) *Node {
	st := board.WhiteWins
	if winner == board.Black {
		st = board.BlackWins
	}
	return &Node{Key: nextKey.Add(1), State: st, Metrics: board.BoardMetrics{State: st}}
}

// Drawn is a finished, drawn position.
func Drawn() *Node {
	return &Node{Key: nextKey.Add(1), State: board.Draw, Metrics: board.BoardMetrics{State: board.Draw}}
}

// Branch is an in-progress position with a static value and quiet children.
func Branch(value int, children ...*Node) *Node {
	n := Leaf(value)
	for _, c := range children {
		n.Add(c, false)
	}
	return n
}

// Add appends an edge to child and returns its move.
func (n *Node) Add(child *Node, noisy bool) board.Move {
	m := MoveTo(len(n.Edges))
	n.Edges = append(n.Edges, Edge{Move: m, Noisy: noisy, To: child})
	return m
}

// MoveTo is the move Add assigns to the i-th edge of a node.
func MoveTo(i int) board.Move {
	return board.Move{
		Piece:       board.PieceName{Color: board.White, Bug: board.SoldierAnt, Number: 1},
		Destination: board.Position{Q: i},
	}
}

// ValueWeights scores a tree node as exactly its Value.
func ValueWeights() evaluation.Weights {
	w := evaluation.ZeroWeights()
	w.Start.Set(board.QueenBee, evaluation.InPlayWeight, 1)
	w.End.Set(board.QueenBee, evaluation.InPlayWeight, 1)
	return w
}

// RandomTree builds a tree of the given depth. Every node gets a static
// value in [-50, 50]; about one edge in three is noisy and about one node in
// twenty is a finished game.
func RandomTree(depth, maxBranching int) *Node {
	n := Leaf(frand.Intn(101) - 50)
	if depth == 0 {
		return n
	}
	k := 1 + frand.Intn(maxBranching)
	for i := 0; i < k; i++ {
		var child *Node
		switch frand.Intn(20) {
		case 0:
			child = Won(board.Color(frand.Intn(2)))
		default:
			child = RandomTree(depth-1, maxBranching)
		}
		n.Add(child, frand.Intn(3) == 0)
	}
	return n
}

// TreeBoard plays over a scripted tree.
type TreeBoard struct {
	path  []*Node
	first board.Color
	plays atomic.Int64
}

func NewTreeBoard(root *Node, toMove board.Color) *TreeBoard {
	return &TreeBoard{path: []*Node{root}, first: toMove}
}

func (b *TreeBoard) node() *Node {
	return b.path[len(b.path)-1]
}

// Ply is the number of moves played from the root.
func (b *TreeBoard) Ply() int {
	return len(b.path) - 1
}

// Plays counts TrustedPlay calls over the board's lifetime.
func (b *TreeBoard) Plays() int64 {
	return b.plays.Load()
}

func (b *TreeBoard) ZobristKey() uint64 {
	return b.node().Key
}

func (b *TreeBoard) CurrentColor() board.Color {
	if b.Ply()%2 == 0 {
		return b.first
	}
	return b.first.Opponent()
}

func (b *TreeBoard) GameIsOver() bool {
	return b.node().State.IsOver()
}

func (b *TreeBoard) State() board.State {
	return b.node().State
}

func (b *TreeBoard) ValidMoves() []board.Move {
	n := b.node()
	ms := make([]board.Move, len(n.Edges))
	for i, e := range n.Edges {
		ms[i] = e.Move
	}
	return ms
}

func (b *TreeBoard) edge(m board.Move) (Edge, bool) {
	for _, e := range b.node().Edges {
		if e.Move == m {
			return e, true
		}
	}
	return Edge{}, false
}

func (b *TreeBoard) IsNoisyMove(m board.Move) bool {
	e, ok := b.edge(m)
	return ok && e.Noisy
}

func (b *TreeBoard) TrustedPlay(m board.Move) {
	e, ok := b.edge(m)
	if !ok {
		panic(fmt.Sprintf("move %v is not in the tree at ply %d", m, b.Ply()))
	}
	b.plays.Add(1)
	b.path = append(b.path, e.To)
}

func (b *TreeBoard) UndoLastMove() {
	if len(b.path) == 1 {
		panic("undo at the root")
	}
	b.path = b.path[:len(b.path)-1]
}

func (b *TreeBoard) Clone() board.Board {
	return &TreeBoard{path: slices.Clone(b.path), first: b.first}
}

func (b *TreeBoard) Metrics() board.BoardMetrics {
	bm := b.node().Metrics
	bm.Pieces = slices.Clone(bm.Pieces)
	return bm
}
