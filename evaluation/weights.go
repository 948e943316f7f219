package evaluation

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/hivelab/hiveai/board"
)

// Weights is the pair of weight vectors used by an Evaluator.
type Weights struct {
	Start *MetricWeights `yaml:"start"`
	End   *MetricWeights `yaml:"end"`
}

func (w Weights) Clone() Weights {
	return Weights{Start: w.Start.Clone(), End: w.End.Clone()}
}

func (w Weights) Validate() error {
	if w.Start == nil || w.End == nil {
		return fmt.Errorf("both start and end metric weights are required")
	}
	return nil
}

// MarshalYAML writes the non-zero weights as a "Bug.Weight: value" mapping.
func (mw *MetricWeights) MarshalYAML() (interface{}, error) {
	m := make(map[string]float64)
	mw.Each(func(bug board.BugType, w BugTypeWeight, v float64) {
		if v != 0 {
			m[Key(bug, w)] = v
		}
	})
	return m, nil
}

func (mw *MetricWeights) UnmarshalYAML(node *yaml.Node) error {
	var m map[string]float64
	if err := node.Decode(&m); err != nil {
		return err
	}
	if mw.weights == nil {
		mw.weights = make([]float64, numWeights)
	}
	for k, v := range m {
		bug, w, err := ParseKey(k)
		if err != nil {
			return err
		}
		mw.Set(bug, w, v)
	}
	return nil
}

// LoadWeights reads a weights file written by SaveWeights.
func LoadWeights(path string) (Weights, error) {
	bts, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, err
	}
	var w Weights
	if err := yaml.Unmarshal(bts, &w); err != nil {
		return Weights{}, fmt.Errorf("parsing weights file %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, fmt.Errorf("weights file %s: %w", path, err)
	}
	log.Debug().Str("path", path).
		Uint64("start-fp", w.Start.Fingerprint()).
		Uint64("end-fp", w.End.Fingerprint()).
		Msg("loaded-metric-weights")
	return w, nil
}

func SaveWeights(path string, w Weights) error {
	bts, err := yaml.Marshal(w)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bts, 0o644)
}

// DefaultWeights is a hand-set starting point for tuning: keep your queen
// free, keep your pieces mobile and avoid getting pinned or covered.
func DefaultWeights() Weights {
	start := NewMetricWeights()
	end := NewMetricWeights()
	for bug := board.BugType(0); int(bug) < board.NumBugTypes; bug++ {
		start.Set(bug, InPlayWeight, 1)
		start.Set(bug, IsPinnedWeight, -2)
		start.Set(bug, IsCoveredWeight, -2)
		start.Set(bug, NoisyMoveWeight, 0.5)
		start.Set(bug, QuietMoveWeight, 0.2)

		end.Set(bug, InPlayWeight, 0.5)
		end.Set(bug, IsPinnedWeight, -3)
		end.Set(bug, IsCoveredWeight, -3)
		end.Set(bug, NoisyMoveWeight, 1)
		end.Set(bug, QuietMoveWeight, 0.25)
	}
	for _, mw := range []*MetricWeights{start, end} {
		mw.Set(board.QueenBee, FriendlyNeighborWeight, -4)
		mw.Set(board.QueenBee, EnemyNeighborWeight, -6)
	}
	return Weights{Start: start, End: end}
}
