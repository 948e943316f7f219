package evaluation

import (
	"math"
	"unsafe"

	"github.com/rs/zerolog/log"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/cache"
)

// Evaluator scores positions from White's point of view and memoizes the
// result by Zobrist key.
//
// The weights may only be changed (SetWeights, ApplyGradient) while no search
// is reading them; the search engine serializes this.
type Evaluator struct {
	weights Weights
	scores  *cache.Cache[uint64, float64]
}

// NewEvaluator copies w and allocates a score cache of cacheSizeMB megabytes.
func NewEvaluator(w Weights, cacheSizeMB int) (*Evaluator, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	capacity := cache.CapacityFor(cacheSizeMB, unsafe.Sizeof(uint64(0)), unsafe.Sizeof(float64(0)))
	scores, err := cache.New[uint64, float64](capacity, nil)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("capacity", capacity).Int("size-mb", cacheSizeMB).Msg("board-score-cache")
	return &Evaluator{weights: w.Clone(), scores: scores}, nil
}

// Weights returns a copy of the current weights.
func (e *Evaluator) Weights() Weights {
	return e.weights.Clone()
}

// SetWeights installs new weights and forgets every cached score.
func (e *Evaluator) SetWeights(w Weights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	e.weights = w.Clone()
	e.scores.Clear()
	log.Debug().
		Uint64("start-fp", e.weights.Start.Fingerprint()).
		Uint64("end-fp", e.weights.End.Fingerprint()).
		Msg("metric-weights-changed")
	return nil
}

// ApplyGradient adds the gradients to the live weights and forgets every
// cached score.
func (e *Evaluator) ApplyGradient(g Weights) {
	e.weights.Start.Add(g.Start)
	e.weights.End.Add(g.End)
	e.scores.Clear()
}

// ClearCache forgets every cached score.
func (e *Evaluator) ClearCache() {
	e.scores.Clear()
}

func (e *Evaluator) CacheStats() cache.Stats {
	return e.scores.Stats()
}

// Score returns +Inf when White has won, -Inf when Black has won and 0 for a
// draw or a game that has not started.
func (e *Evaluator) Score(b board.Board) float64 {
	switch b.State() {
	case board.WhiteWins:
		return math.Inf(1)
	case board.BlackWins:
		return math.Inf(-1)
	case board.Draw, board.NotStarted:
		return 0
	}
	key := b.ZobristKey()
	if s, ok := e.scores.Lookup(key); ok {
		return s
	}
	bm := b.Metrics()
	s := BlendedScore(&bm, e.weights.Start, e.weights.End)
	e.scores.Store(key, s)
	return s
}

// startRatio is how far the game still is from the end phase: 1 when every
// piece is in hand, 0 when none is.
func startRatio(bm *board.BoardMetrics) float64 {
	if bm.PiecesInHand == 0 {
		return 0
	}
	return float64(bm.PiecesInHand) / float64(bm.PiecesInHand+bm.PiecesInPlay)
}

// BlendedScore is the score of a non-terminal position.
func BlendedScore(bm *board.BoardMetrics, start, end *MetricWeights) float64 {
	endScore := RawScore(bm, end)
	ratio := startRatio(bm)
	if ratio == 0 {
		return endScore
	}
	startScore := RawScore(bm, start)
	return ratio*startScore + (1-ratio)*endScore
}

// RawScore applies a single weight vector.
func RawScore(bm *board.BoardMetrics, mw *MetricWeights) float64 {
	score := 0.0
	for i := range bm.Pieces {
		pm := &bm.Pieces[i]
		sign := pm.Piece.Color.Sign()
		f := features(pm)
		for w, v := range f {
			if v == 0 {
				continue
			}
			score += sign * mw.Get(pm.Piece.Bug, BugTypeWeight(w)) * v
		}
	}
	return score
}

// AccumulateGradient adds delta times the partial derivatives of
// BlendedScore with respect to every weight into g.
func AccumulateGradient(bm *board.BoardMetrics, delta float64, g Weights) {
	ratio := startRatio(bm)
	for i := range bm.Pieces {
		pm := &bm.Pieces[i]
		sign := pm.Piece.Color.Sign()
		f := features(pm)
		for w, v := range f {
			if v == 0 {
				continue
			}
			d := delta * sign * v
			idx := index(pm.Piece.Bug, BugTypeWeight(w))
			g.Start.weights[idx] += ratio * d
			g.End.weights[idx] += (1 - ratio) * d
		}
	}
}

// ZeroWeights returns a pair of zero vectors, suitable to accumulate a
// gradient into.
func ZeroWeights() Weights {
	return Weights{Start: NewMetricWeights(), End: NewMetricWeights()}
}
