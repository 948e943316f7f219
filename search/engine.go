// Package search finds the best move of a position with iteratively
// deepened principal variation search, a shared transposition table,
// quiescence search and Lazy SMP helper threads.
package search

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/config"
	"github.com/hivelab/hiveai/evaluation"
)

var (
	ErrGameOver      = errors.New("game is already over")
	ErrInvalidLimits = errors.New("invalid search limits")
)

// Limits bound a single best move request. A zero MaxDepth or MaxTime means
// no limit on that dimension; the search then runs until the result is
// decided, a single move remains, or the context is done.
type Limits struct {
	MaxDepth         int
	MaxTime          time.Duration
	MaxHelperThreads int
}

func (l Limits) validate() error {
	switch {
	case l.MaxDepth < 0:
		return fmt.Errorf("%w: max depth %d", ErrInvalidLimits, l.MaxDepth)
	case l.MaxTime < 0:
		return fmt.Errorf("%w: max time %v", ErrInvalidLimits, l.MaxTime)
	case l.MaxHelperThreads < 0:
		return fmt.Errorf("%w: max helper threads %d", ErrInvalidLimits, l.MaxHelperThreads)
	}
	return nil
}

// PVLine is the expected line of play starting with the best move.
type PVLine struct {
	Moves []board.Move
	Score float64
}

func (pv PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %g\n", pv.Score)
	for i, m := range pv.Moves {
		fmt.Fprintf(&sb, "%d: %v\n", i+1, m)
	}
	return sb.String()
}

// NLBString is String without line breaks, for logging.
func (pv PVLine) NLBString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %g; ", pv.Score)
	for i, m := range pv.Moves {
		fmt.Fprintf(&sb, "%d: %v; ", i+1, m)
	}
	return sb.String()
}

// BestMoveInfo is a progress event: the best move known so far.
type BestMoveInfo struct {
	Move               board.Move
	Depth              int
	Score              float64
	PrincipalVariation PVLine
}

// ProgressFunc receives progress events on the caller's goroutine. It must
// not call back into the engine.
type ProgressFunc func(BestMoveInfo)

// State is the phase of the engine's current request.
type State int32

const (
	Idle State = iota
	Deepening
	Reporting
	Done
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Deepening:
		return "deepening"
	case Reporting:
		return "reporting"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	}
	return "invalid"
}

// Engine owns the caches shared by every search it runs. Requests to one
// engine are serialized; run several engines to search in parallel.
type Engine struct {
	mu sync.Mutex

	cfg      config.Engine
	eval     *evaluation.Evaluator
	tt       *TranspositionTable
	ordering *moveOrdering

	state atomic.Int32
	nodes atomic.Uint64
}

func NewEngine(cfg config.Engine, weights evaluation.Weights) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	eval, err := evaluation.NewEvaluator(weights, cfg.BoardScoreCacheSizeMB)
	if err != nil {
		return nil, err
	}
	tt, err := NewTranspositionTable(cfg.TranspositionTableSizeMB)
	if err != nil {
		return nil, err
	}
	ordering, err := newMoveOrdering(cfg.MoveOrderCacheSizeMB, cfg.MaxBranchingFactor)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("max-branching-factor", cfg.MaxBranchingFactor).
		Int("quiescence-max-depth", cfg.QuiescenceMaxDepth).
		Msg("engine-created")
	return &Engine{cfg: cfg, eval: eval, tt: tt, ordering: ordering}, nil
}

// ResetCaches forgets everything learned by earlier searches. Call it on a
// new game.
func (e *Engine) ResetCaches() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetCaches()
}

func (e *Engine) resetCaches() {
	e.tt.Reset()
	e.ordering.reset()
	e.eval.ClearCache()
}

func (e *Engine) Weights() evaluation.Weights {
	return e.eval.Weights()
}

// SetWeights replaces the evaluation weights. Cached scores and search
// results computed with the old weights are dropped.
func (e *Engine) SetWeights(w evaluation.Weights) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.eval.SetWeights(w); err != nil {
		return err
	}
	e.resetCaches()
	return nil
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// Nodes is the number of positions visited by the last request.
func (e *Engine) Nodes() uint64 {
	return e.nodes.Load()
}

func (e *Engine) TranspositionTable() *TranspositionTable {
	return e.tt
}

// principalVariation follows stored best moves from the position after
// first. b is restored before returning.
func (e *Engine) principalVariation(b board.Board, first board.Move, score float64, maxLen int) PVLine {
	pv := PVLine{Moves: []board.Move{first}, Score: score}
	seen := map[uint64]bool{b.ZobristKey(): true}
	b.TrustedPlay(first)
	played := 1
	for len(pv.Moves) < maxLen && !b.GameIsOver() {
		key := b.ZobristKey()
		if seen[key] {
			break
		}
		seen[key] = true
		entry, ok := e.tt.lookup(key)
		if !ok || !entry.HasMove || !isValid(b, entry.BestMove) {
			break
		}
		b.TrustedPlay(entry.BestMove)
		played++
		pv.Moves = append(pv.Moves, entry.BestMove)
	}
	for ; played > 0; played-- {
		b.UndoLastMove()
	}
	return pv
}

func isValid(b board.Board, m board.Move) bool {
	return lo.Contains(b.ValidMoves(), m)
}
