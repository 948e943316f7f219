package search

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/move"
)

// thanks Wikipedia:
/*
function pvs(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node
    for each child of node do
        if child is first child then
            score := −pvs(child, depth − 1, −β, −α, −color)
        else
            score := −pvs(child, depth − 1, −α − 1, −α, −color) (* search with a null window *)
            if α < score < β then
                score := −pvs(child, depth − 1, −β, −score, −color) (* if it failed high, do a full re-search *)
        α := max(α, score)
        if α ≥ β then
            break (* beta cut-off *)
    return α
**/

// searcher is one thread of a search. It owns its board; everything else is
// shared through the engine.
type searcher struct {
	e     *Engine
	b     board.Board
	order MoveOrder
	stop  *atomic.Bool
}

func (s *searcher) cancelled() bool {
	return s.stop.Load()
}

// nullWindowAlpha is the lower bound of the narrowest window above -alpha.
// Floats have no unit step, so the window is one ulp wide.
func nullWindowAlpha(alpha float64) float64 {
	return math.Nextafter(-alpha, math.Inf(-1))
}

// child scores m from the current side's point of view: a full window
// search for the first move, otherwise a null window probe that is repeated
// with the full window when it lands inside (alpha, beta).
func (s *searcher) child(m board.Move, first bool, depth int, alpha, beta float64) (float64, bool) {
	s.b.TrustedPlay(m)
	defer s.b.UndoLastMove()
	if first {
		v, ok := s.pvs(depth-1, -beta, -alpha)
		return -v, ok
	}
	v, ok := s.pvs(depth-1, nullWindowAlpha(alpha), -alpha)
	v = -v
	if ok && v > alpha && v < beta {
		v, ok = s.pvs(depth-1, -beta, -alpha)
		v = -v
	}
	return v, ok
}

// pvs returns the value of the position for the side to move. ok is false
// when the search was cancelled, in which case the value means nothing.
func (s *searcher) pvs(depth int, alpha, beta float64) (float64, bool) {
	if s.cancelled() {
		return 0, false
	}
	s.e.nodes.Add(1)

	alphaOrig := alpha
	key := s.b.ZobristKey()
	var ttMove board.Move
	var hasTTMove bool
	if entry, ok := s.e.tt.lookup(key); ok {
		ttMove, hasTTMove = entry.BestMove, entry.HasMove
		if entry.Depth >= depth {
			switch entry.Kind {
			case Exact:
				return entry.Value, true
			case LowerBound:
				alpha = max(alpha, entry.Value)
			case UpperBound:
				beta = min(beta, entry.Value)
			}
			if alpha >= beta {
				return entry.Value, true
			}
		}
	}

	if depth == 0 || s.b.GameIsOver() {
		return s.quiescence(s.e.cfg.QuiescenceMaxDepth, alpha, beta)
	}

	moves := s.e.ordering.moves(s.b, ttMove, hasTTMove, s.order)
	if len(moves) == 0 {
		return s.quiescence(s.e.cfg.QuiescenceMaxDepth, alpha, beta)
	}

	bestValue := math.Inf(-1)
	var bestMove board.Move
	for i, m := range moves {
		v, ok := s.child(m, i == 0, depth, alpha, beta)
		if !ok {
			return 0, false
		}
		if i == 0 || v > bestValue {
			bestValue = v
			bestMove = m
		}
		alpha = max(alpha, bestValue)
		if alpha >= beta {
			break
		}
	}

	entry := TTEntry{Value: bestValue, Depth: depth, BestMove: bestMove, HasMove: true}
	switch {
	case bestValue <= alphaOrig:
		entry.Kind = UpperBound
	case bestValue >= beta:
		entry.Kind = LowerBound
	default:
		entry.Kind = Exact
	}
	s.e.tt.store(key, entry)
	return bestValue, true
}

// quiescence extends a search along noisy moves only, so positions are not
// scored in the middle of an exchange.
func (s *searcher) quiescence(depth int, alpha, beta float64) (float64, bool) {
	if s.cancelled() {
		return 0, false
	}
	s.e.nodes.Add(1)

	bestValue := s.b.CurrentColor().Sign() * s.e.eval.Score(s.b)
	alpha = max(alpha, bestValue)
	if alpha >= beta || depth == 0 || s.b.GameIsOver() {
		return bestValue, true
	}

	for _, m := range s.e.ordering.noisyMoves(s.b) {
		s.b.TrustedPlay(m)
		v, ok := s.quiescence(depth-1, -beta, -alpha)
		s.b.UndoLastMove()
		if !ok {
			return 0, false
		}
		bestValue = max(bestValue, -v)
		alpha = max(alpha, bestValue)
		if alpha >= beta {
			break
		}
	}
	return bestValue, true
}

// searchRoot scores every root move at depth and returns them sorted. The
// exact value of the best move is stored for the root position.
func (s *searcher) searchRoot(depth int, candidates *move.EvaluatedMoves) (*move.EvaluatedMoves, bool) {
	alpha, beta := math.Inf(-1), math.Inf(1)
	scored := move.NewEvaluatedMoves(candidates.Len())
	for i, c := range candidates.All() {
		if s.cancelled() {
			return nil, false
		}
		v, ok := s.child(c.Move, i == 0, depth, alpha, beta)
		if !ok {
			return nil, false
		}
		scored.Add(move.EvaluatedMove{Move: c.Move, Score: v, Depth: depth})
		alpha = max(alpha, v)
		if math.IsInf(v, 1) {
			break
		}
	}

	best, ok := scored.Best()
	if !ok {
		panic(fmt.Sprintf("no root moves evaluated at depth %d", depth))
	}
	s.e.tt.store(s.b.ZobristKey(), TTEntry{
		Kind:     Exact,
		Value:    best.Score,
		Depth:    depth,
		BestMove: best.Move,
		HasMove:  true,
	})
	return scored, true
}
