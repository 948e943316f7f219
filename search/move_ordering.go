package search

import (
	"slices"
	"unsafe"

	"lukechampine.com/frand"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/cache"
)

// MoveOrder is the order in which a search thread enumerates the sorted
// moves of a node. The authoritative thread always uses BestToWorst; helper
// threads use the others so they explore different parts of the tree first.
type MoveOrder int

const (
	BestToWorst MoveOrder = iota
	WorstToBest
	SkipOffset
	Shuffled

	numMoveOrders
)

func (o MoveOrder) String() string {
	switch o {
	case BestToWorst:
		return "best-to-worst"
	case WorstToBest:
		return "worst-to-best"
	case SkipOffset:
		return "skip-offset"
	case Shuffled:
		return "shuffled"
	}
	return "invalid"
}

// helperOrder is the enumeration order of the i-th helper thread.
func helperOrder(i int) MoveOrder {
	return MoveOrder((i + 1) % int(numMoveOrders))
}

// sortedMoves is the valid moves of a position, noisy ones first. The slice
// is shared between threads and must not be modified.
type sortedMoves struct {
	moves []board.Move
	noisy int
}

// A guess at the average branching factor, only used for sizing.
const averageMoves = 32

type moveOrdering struct {
	sorted       *cache.Cache[uint64, sortedMoves]
	maxBranching int
}

func newMoveOrdering(sizeMB, maxBranching int) (*moveOrdering, error) {
	valueSize := unsafe.Sizeof(sortedMoves{}) + averageMoves*unsafe.Sizeof(board.Move{})
	c, err := cache.New[uint64, sortedMoves](cache.CapacityFor(sizeMB, unsafe.Sizeof(uint64(0)), valueSize), nil)
	if err != nil {
		return nil, err
	}
	return &moveOrdering{sorted: c, maxBranching: maxBranching}, nil
}

func (o *moveOrdering) lookupOrSort(b board.Board) sortedMoves {
	key := b.ZobristKey()
	if sm, ok := o.sorted.Lookup(key); ok {
		return sm
	}
	valid := b.ValidMoves()
	sm := sortedMoves{moves: make([]board.Move, 0, len(valid))}
	quiet := make([]board.Move, 0, len(valid))
	for _, m := range valid {
		if b.IsNoisyMove(m) {
			sm.moves = append(sm.moves, m)
		} else {
			quiet = append(quiet, m)
		}
	}
	sm.noisy = len(sm.moves)
	sm.moves = append(sm.moves, quiet...)
	o.sorted.Store(key, sm)
	return sm
}

// moves returns at most maxBranching moves of b in the given order. When
// hasBest is set and best is valid it is promoted to the front before the
// order is applied.
func (o *moveOrdering) moves(b board.Board, best board.Move, hasBest bool, order MoveOrder) []board.Move {
	sm := o.lookupOrSort(b)
	limit := min(len(sm.moves), o.maxBranching)
	out := make([]board.Move, 0, limit)
	if hasBest && slices.Contains(sm.moves, best) {
		out = append(out, best)
	} else {
		hasBest = false
	}
	for _, m := range sm.moves {
		if len(out) == limit {
			break
		}
		if hasBest && m == best {
			continue
		}
		out = append(out, m)
	}
	return reorder(out, order)
}

// noisyMoves returns the noisy moves of b, capped like moves.
func (o *moveOrdering) noisyMoves(b board.Board) []board.Move {
	sm := o.lookupOrSort(b)
	return sm.moves[:min(sm.noisy, o.maxBranching)]
}

func (o *moveOrdering) reset() {
	o.sorted.Clear()
}

func reorder(moves []board.Move, order MoveOrder) []board.Move {
	switch order {
	case WorstToBest:
		slices.Reverse(moves)
	case SkipOffset:
		out := make([]board.Move, 0, len(moves))
		for i := 1; i < len(moves); i += 2 {
			out = append(out, moves[i])
		}
		for i := 0; i < len(moves); i += 2 {
			out = append(out, moves[i])
		}
		return out
	case Shuffled:
		frand.Shuffle(len(moves), func(i, j int) {
			moves[i], moves[j] = moves[j], moves[i]
		})
	}
	return moves
}
