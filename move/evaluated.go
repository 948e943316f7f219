// Package move keeps the candidate moves of a position ordered best first.
package move

import (
	"fmt"
	"iter"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/hivelab/hiveai/board"
)

// Unevaluated is the score of a move that has not been searched yet. It sorts
// below every real score except a proven loss.
const Unevaluated = -math.MaxFloat64

// EvaluatedMove is a move with the score the side to move gets by playing it,
// and the depth that score was searched to.
type EvaluatedMove struct {
	Move  board.Move
	Score float64
	Depth int
}

// Unscored wraps m with the Unevaluated sentinel.
func Unscored(m board.Move) EvaluatedMove {
	return EvaluatedMove{Move: m, Score: Unevaluated}
}

func (e EvaluatedMove) IsEvaluated() bool {
	return e.Score != Unevaluated
}

func (e EvaluatedMove) String() string {
	if !e.IsEvaluated() {
		return fmt.Sprintf("%v (unevaluated)", e.Move)
	}
	return fmt.Sprintf("%v (%g @ %d)", e.Move, e.Score, e.Depth)
}

// EvaluatedMoves is a list of moves always sorted by descending score. Moves
// with equal scores keep their insertion order.
type EvaluatedMoves struct {
	moves []EvaluatedMove
}

func NewEvaluatedMoves(capacity int) *EvaluatedMoves {
	return &EvaluatedMoves{moves: make([]EvaluatedMove, 0, capacity)}
}

// FromMoves builds an unevaluated list that keeps the order of ms.
func FromMoves(ms []board.Move) *EvaluatedMoves {
	return &EvaluatedMoves{moves: lo.Map(ms, func(m board.Move, _ int) EvaluatedMove {
		return Unscored(m)
	})}
}

// Add inserts em after every move scoring at least as much.
func (c *EvaluatedMoves) Add(em EvaluatedMove) {
	idx := sort.Search(len(c.moves), func(i int) bool {
		return c.moves[i].Score < em.Score
	})
	c.moves = append(c.moves, EvaluatedMove{})
	copy(c.moves[idx+1:], c.moves[idx:])
	c.moves[idx] = em
}

func (c *EvaluatedMoves) Len() int {
	return len(c.moves)
}

func (c *EvaluatedMoves) At(i int) EvaluatedMove {
	return c.moves[i]
}

// Best returns the head of the list.
func (c *EvaluatedMoves) Best() (EvaluatedMove, bool) {
	if len(c.moves) == 0 {
		return EvaluatedMove{}, false
	}
	return c.moves[0], true
}

// All iterates best first.
func (c *EvaluatedMoves) All() iter.Seq2[int, EvaluatedMove] {
	return func(yield func(int, EvaluatedMove) bool) {
		for i, em := range c.moves {
			if !yield(i, em) {
				return
			}
		}
	}
}

// Moves returns the bare moves, best first.
func (c *EvaluatedMoves) Moves() []board.Move {
	return lo.Map(c.moves, func(em EvaluatedMove, _ int) board.Move {
		return em.Move
	})
}

func (c *EvaluatedMoves) Contains(m board.Move) bool {
	return lo.ContainsBy(c.moves, func(em EvaluatedMove) bool {
		return em.Move == m
	})
}

// PruneLosingTail drops every move proven to lose. Such moves score -Inf and
// therefore form a suffix of the list. It returns the number removed.
func (c *EvaluatedMoves) PruneLosingTail() int {
	idx := sort.Search(len(c.moves), func(i int) bool {
		return math.IsInf(c.moves[i].Score, -1)
	})
	removed := len(c.moves) - idx
	c.moves = c.moves[:idx]
	return removed
}
