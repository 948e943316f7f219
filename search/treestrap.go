package search

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/evaluation"
)

// TreeStrap searches b like BestMove and then trains the evaluation weights
// on the search results: every position of the searched tree that has a
// usable transposition table entry pulls the static evaluation toward its
// searched value. Caches are reset afterwards since they hold scores of the
// old weights.
func (e *Engine) TreeStrap(ctx context.Context, b board.Board, limits Limits, progress ProgressFunc) (board.Move, error) {
	if err := checkRequest(b, limits); err != nil {
		return board.Move{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	best := e.search(ctx, b, limits, progress)

	depth := best.Depth
	if entry, ok := e.tt.lookup(b.ZobristKey()); ok {
		depth = max(depth, entry.Depth)
	}
	gradient := evaluation.ZeroWeights()
	visited := make(map[uint64]struct{})
	updates := e.treeStrap(b, depth, gradient, visited)
	if updates > 0 {
		e.eval.ApplyGradient(gradient)
	}
	e.resetCaches()

	log.Info().
		Int("depth", depth).
		Int("positions-visited", len(visited)).
		Int("updates", updates).
		Uint64("start-fingerprint", e.eval.Weights().Start.Fingerprint()).
		Uint64("end-fingerprint", e.eval.Weights().End.Fingerprint()).
		Msg("treestrap-applied")
	return best.Move, nil
}

// treeStrap accumulates into g the weight change for b and everything
// below it down to depth, and returns the number of positions that
// contributed.
func (e *Engine) treeStrap(b board.Board, depth int, g evaluation.Weights, visited map[uint64]struct{}) int {
	if depth <= 0 || b.GameIsOver() {
		return 0
	}
	key := b.ZobristKey()
	if _, ok := visited[key]; ok {
		return 0
	}
	visited[key] = struct{}{}

	entry, ok := e.tt.lookup(key)
	if !ok || entry.Depth < 1 {
		return 0
	}

	updates := 0
	if !math.IsInf(entry.Value, 0) {
		color := b.CurrentColor().Sign()
		static := color * e.eval.Score(b)
		if entry.Kind == Exact ||
			(entry.Kind == LowerBound && static < entry.Value) ||
			(entry.Kind == UpperBound && static > entry.Value) {
			// Both values are the side to move's; the gradient is White's.
			delta := e.cfg.TreeStrapStepConstant * color * (entry.Value - static)
			bm := b.Metrics()
			evaluation.AccumulateGradient(&bm, delta, g)
			updates++
		}
	}

	for _, m := range e.ordering.moves(b, board.Move{}, false, BestToWorst) {
		b.TrustedPlay(m)
		updates += e.treeStrap(b, depth-1, g, visited)
		b.UndoLastMove()
	}
	return updates
}
