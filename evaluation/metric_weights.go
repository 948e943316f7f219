// Package evaluation scores Hive positions with a linear model over per-piece
// features. The model has two weight vectors, one tuned for the opening and
// one for the end of the game, blended by how many pieces are still in hand.
package evaluation

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash"
	"gonum.org/v1/gonum/floats"

	"github.com/hivelab/hiveai/board"
)

// BugTypeWeight names one of the per-piece features.
type BugTypeWeight int

const (
	InPlayWeight BugTypeWeight = iota
	IsPinnedWeight
	IsCoveredWeight
	NoisyMoveWeight
	QuietMoveWeight
	FriendlyNeighborWeight
	EnemyNeighborWeight
)

const NumBugTypeWeights = 7

const numWeights = board.NumBugTypes * NumBugTypeWeights

var bugTypeWeightNames = [NumBugTypeWeights]string{
	"InPlayWeight", "IsPinnedWeight", "IsCoveredWeight", "NoisyMoveWeight",
	"QuietMoveWeight", "FriendlyNeighborWeight", "EnemyNeighborWeight",
}

func (w BugTypeWeight) String() string {
	if w < 0 || int(w) >= NumBugTypeWeights {
		return "UnknownWeight"
	}
	return bugTypeWeightNames[w]
}

func parseBugTypeWeight(s string) (BugTypeWeight, error) {
	for i, n := range bugTypeWeightNames {
		if n == s {
			return BugTypeWeight(i), nil
		}
	}
	return 0, fmt.Errorf("unknown bug type weight %q", s)
}

// Key is the name a weight is stored under, e.g. "QueenBee.InPlayWeight".
func Key(bug board.BugType, w BugTypeWeight) string {
	return bug.String() + "." + w.String()
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (board.BugType, BugTypeWeight, error) {
	bugName, weightName, ok := strings.Cut(key, ".")
	if !ok {
		return board.NoBug, 0, fmt.Errorf("malformed weight key %q", key)
	}
	bug, err := board.ParseBugType(bugName)
	if err != nil {
		return board.NoBug, 0, err
	}
	w, err := parseBugTypeWeight(weightName)
	if err != nil {
		return board.NoBug, 0, err
	}
	return bug, w, nil
}

// MetricWeights is a dense vector of feature weights indexed by
// (BugType, BugTypeWeight).
type MetricWeights struct {
	weights []float64
}

func NewMetricWeights() *MetricWeights {
	return &MetricWeights{weights: make([]float64, numWeights)}
}

func index(bug board.BugType, w BugTypeWeight) int {
	return int(bug)*NumBugTypeWeights + int(w)
}

func (mw *MetricWeights) Get(bug board.BugType, w BugTypeWeight) float64 {
	return mw.weights[index(bug, w)]
}

func (mw *MetricWeights) Set(bug board.BugType, w BugTypeWeight, v float64) {
	mw.weights[index(bug, w)] = v
}

func (mw *MetricWeights) Clone() *MetricWeights {
	c := NewMetricWeights()
	copy(c.weights, mw.weights)
	return c
}

func (mw *MetricWeights) CopyFrom(other *MetricWeights) {
	copy(mw.weights, other.weights)
}

// Add adds other to mw, element by element.
func (mw *MetricWeights) Add(other *MetricWeights) {
	floats.Add(mw.weights, other.weights)
}

// AddScaled adds factor*other to mw.
func (mw *MetricWeights) AddScaled(factor float64, other *MetricWeights) {
	floats.AddScaled(mw.weights, factor, other.weights)
}

func (mw *MetricWeights) Scale(factor float64) {
	floats.Scale(factor, mw.weights)
}

// Normalized returns a copy scaled so that the largest absolute weight equals
// targetMax, rounded to six decimals. An all-zero vector is returned as is.
func (mw *MetricWeights) Normalized(targetMax float64) *MetricWeights {
	c := mw.Clone()
	maxAbs := floats.Norm(c.weights, math.Inf(1))
	if maxAbs > 0 {
		c.Scale(targetMax / maxAbs)
	}
	for i, v := range c.weights {
		c.weights[i] = math.Round(v*1e6) / 1e6
	}
	return c
}

// IsZero is true when every weight is zero.
func (mw *MetricWeights) IsZero() bool {
	return floats.Norm(mw.weights, math.Inf(1)) == 0
}

// Equal compares weights exactly.
func (mw *MetricWeights) Equal(other *MetricWeights) bool {
	return floats.Equal(mw.weights, other.weights)
}

// Fingerprint hashes the exact bit pattern of the weights. Two vectors with
// the same fingerprint score every position identically.
func (mw *MetricWeights) Fingerprint() uint64 {
	buf := make([]byte, 8*len(mw.weights))
	for i, v := range mw.weights {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return xxhash.Sum64(buf)
}

// Each calls fn for every weight in index order.
func (mw *MetricWeights) Each(fn func(bug board.BugType, w BugTypeWeight, v float64)) {
	for bug := board.BugType(0); int(bug) < board.NumBugTypes; bug++ {
		for w := BugTypeWeight(0); int(w) < NumBugTypeWeights; w++ {
			fn(bug, w, mw.Get(bug, w))
		}
	}
}

func (mw *MetricWeights) String() string {
	var sb strings.Builder
	mw.Each(func(bug board.BugType, w BugTypeWeight, v float64) {
		if v == 0 {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s=%g", Key(bug, w), v)
	})
	return sb.String()
}

// features lays the metrics of one piece out in BugTypeWeight order.
func features(pm *board.PieceMetrics) [NumBugTypeWeights]float64 {
	return [NumBugTypeWeights]float64{
		float64(pm.InPlay),
		float64(pm.IsPinned),
		float64(pm.IsCovered),
		float64(pm.NoisyMoveCount),
		float64(pm.QuietMoveCount),
		float64(pm.FriendlyNeighborCount),
		float64(pm.EnemyNeighborCount),
	}
}
