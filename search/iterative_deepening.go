package search

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/move"
)

// BestMove searches b within limits and returns the best move found. b is
// played on during the search and restored before returning. Cancelling ctx
// or running out of time is not an error: the best move of the last
// completed depth is returned. progress may be nil.
func (e *Engine) BestMove(ctx context.Context, b board.Board, limits Limits, progress ProgressFunc) (board.Move, error) {
	em, err := e.bestMove(ctx, b, limits, progress)
	return em.Move, err
}

func (e *Engine) bestMove(ctx context.Context, b board.Board, limits Limits, progress ProgressFunc) (move.EvaluatedMove, error) {
	if err := checkRequest(b, limits); err != nil {
		return move.EvaluatedMove{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.search(ctx, b, limits, progress), nil
}

func checkRequest(b board.Board, limits Limits) error {
	if b == nil {
		return fmt.Errorf("%w: nil board", ErrInvalidLimits)
	}
	if err := limits.validate(); err != nil {
		return err
	}
	if b.GameIsOver() {
		return fmt.Errorf("%w: %v", ErrGameOver, b.State())
	}
	return nil
}

// search runs a checked request. The caller holds e.mu.
func (e *Engine) search(ctx context.Context, b board.Board, limits Limits, progress ProgressFunc) move.EvaluatedMove {
	tstart := time.Now()
	e.nodes.Store(0)
	e.setState(Deepening)

	if limits.MaxTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.MaxTime)
		defer cancel()
	}
	stop := &atomic.Bool{}
	stop.Store(ctx.Err() != nil)
	defer context.AfterFunc(ctx, func() { stop.Store(true) })()

	var g errgroup.Group
	done := make(chan struct{})
	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := e.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	r := &reporter{e: e, b: b, progress: progress}
	evaluated := e.evaluateMoves(ctx, b, limits, stop, r)
	close(done)
	g.Wait()

	best, ok := evaluated.Best()
	if !ok {
		panic(fmt.Sprintf("no moves for position %x in state %v", b.ZobristKey(), b.State()))
	}
	r.report(best)

	if stop.Load() {
		e.setState(Cancelled)
	} else {
		e.setState(Done)
	}
	log.Info().
		Str("best-move", best.Move.String()).
		Float64("score", best.Score).
		Int("depth", best.Depth).
		Uint64("nodes", e.nodes.Load()).
		Uint64("ttable-lookups", e.tt.Stats().Lookups).
		Uint64("ttable-hits", e.tt.Stats().Hits).
		Int("ttable-entries", e.tt.Len()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("search-returning")
	return best
}

// evaluateMoves runs the iterative deepening loop and returns the root moves
// scored by the deepest completed pass.
func (e *Engine) evaluateMoves(ctx context.Context, b board.Board, limits Limits, stop *atomic.Bool, r *reporter) *move.EvaluatedMoves {
	var cached move.EvaluatedMove
	var hasCached bool
	if entry, ok := e.tt.lookup(b.ZobristKey()); ok && entry.HasMove && isValid(b, entry.BestMove) {
		cached = move.EvaluatedMove{Move: entry.BestMove, Score: entry.Value, Depth: entry.Depth}
		hasCached = true
		r.report(cached)
		if proven(entry) {
			log.Debug().Str("move", cached.Move.String()).Msg("cached-result-decided")
			evaluated := move.NewEvaluatedMoves(1)
			evaluated.Add(cached)
			return evaluated
		}
	}

	candidates := move.NewEvaluatedMoves(e.cfg.MaxBranchingFactor)
	for i, m := range e.ordering.moves(b, cached.Move, hasCached, BestToWorst) {
		if i == 0 && hasCached && m == cached.Move {
			candidates.Add(cached)
			continue
		}
		candidates.Add(move.Unscored(m))
	}
	if candidates.Len() <= 1 {
		if only, ok := candidates.Best(); ok && !only.IsEvaluated() {
			scored := move.NewEvaluatedMoves(1)
			scored.Add(e.staticScore(b, only.Move))
			return scored
		}
		return candidates
	}

	maxDepth := limits.MaxDepth
	if maxDepth == 0 {
		maxDepth = math.MaxInt
	}
	depth := 1
	if hasCached {
		depth = max(1, cached.Depth+1)
	}

	for depth <= maxDepth {
		log.Debug().Int("depth", depth).Int("candidates", candidates.Len()).Msg("deepening-iteratively")
		scored, ok := e.searchDepth(ctx, b, depth, candidates, limits.MaxHelperThreads, stop)
		if !ok {
			log.Debug().Int("depth", depth).Msg("depth-pass-aborted")
			break
		}
		candidates = scored
		best, _ := candidates.Best()
		r.report(best)
		if math.IsInf(best.Score, 0) {
			break
		}
		if pruned := candidates.PruneLosingTail(); pruned > 0 {
			log.Debug().Int("pruned", pruned).Msg("losing-moves-pruned")
		}
		if candidates.Len() <= 1 || stop.Load() {
			break
		}
		depth = 1 + max(depth, best.Depth)
	}
	return candidates
}

// staticScore evaluates the position after m for the side playing it,
// without searching.
func (e *Engine) staticScore(b board.Board, m board.Move) move.EvaluatedMove {
	color := b.CurrentColor().Sign()
	b.TrustedPlay(m)
	defer b.UndoLastMove()
	return move.EvaluatedMove{Move: m, Score: color * e.eval.Score(b)}
}

// searchDepth runs one depth pass: helper threads fill the shared tables
// while the calling goroutine scores the root moves.
func (e *Engine) searchDepth(ctx context.Context, b board.Board, depth int, candidates *move.EvaluatedMoves, helpers int, stop *atomic.Bool) (*move.EvaluatedMoves, bool) {
	helperCtx, cancelHelpers := context.WithCancel(ctx)
	defer cancelHelpers()
	helperStop := &atomic.Bool{}
	helperStop.Store(helperCtx.Err() != nil)
	defer context.AfterFunc(helperCtx, func() { helperStop.Store(true) })()

	var g errgroup.Group
	for i := 0; i < helpers; i++ {
		h := &searcher{e: e, b: b.Clone(), order: helperOrder(i), stop: helperStop}
		hd := depth + i%2
		g.Go(func() error {
			log.Debug().Int("thread", i+1).Int("depth", hd).Str("order", h.order.String()).Msg("helper-starting")
			// Only the tables filled along the way matter.
			h.pvs(hd, math.Inf(-1), math.Inf(1))
			return nil
		})
	}

	root := &searcher{e: e, b: b, order: BestToWorst, stop: stop}
	scored, ok := root.searchRoot(depth, candidates)

	// The context callback runs asynchronously, so stop the helpers directly.
	cancelHelpers()
	helperStop.Store(true)
	g.Wait()
	return scored, ok
}

// proven reports whether a stored result decides the game.
func proven(entry TTEntry) bool {
	switch entry.Kind {
	case Exact:
		return math.IsInf(entry.Value, 0)
	case LowerBound:
		return math.IsInf(entry.Value, 1)
	case UpperBound:
		return math.IsInf(entry.Value, -1)
	}
	return false
}

// reporter sends progress events for best moves that differ from the last
// one sent.
type reporter struct {
	e        *Engine
	b        board.Board
	progress ProgressFunc
	last     move.EvaluatedMove
	sent     bool
}

func (r *reporter) report(best move.EvaluatedMove) {
	if r.sent && best == r.last {
		return
	}
	r.sent = true
	r.last = best

	prev := r.e.State()
	r.e.setState(Reporting)
	defer r.e.setState(prev)

	pv := r.e.principalVariation(r.b, best.Move, best.Score, max(1, best.Depth))
	log.Info().
		Int("depth", best.Depth).
		Float64("score", best.Score).
		Str("pv", pv.NLBString()).
		Msg("best-move-found")
	if r.progress != nil {
		r.progress(BestMoveInfo{
			Move:               best.Move,
			Depth:              best.Depth,
			Score:              best.Score,
			PrincipalVariation: pv,
		})
	}
}
