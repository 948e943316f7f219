package search

import (
	"fmt"
	"unsafe"

	"github.com/rs/zerolog/log"

	"github.com/hivelab/hiveai/board"
	"github.com/hivelab/hiveai/cache"
)

// TTKind says how a stored value relates to the true value of a position.
type TTKind uint8

const (
	Exact TTKind = iota + 1
	LowerBound
	UpperBound
)

func (k TTKind) String() string {
	switch k {
	case Exact:
		return "exact"
	case LowerBound:
		return "lower"
	case UpperBound:
		return "upper"
	}
	return "invalid"
}

// TTEntry is a search result for one position, from the point of view of
// the side to move there.
type TTEntry struct {
	Kind     TTKind
	Value    float64
	Depth    int
	BestMove board.Move
	HasMove  bool
}

func (t TTEntry) String() string {
	if !t.HasMove {
		return fmt.Sprintf("<%v %g d%d>", t.Kind, t.Value, t.Depth)
	}
	return fmt.Sprintf("<%v %g d%d %v>", t.Kind, t.Value, t.Depth, t.BestMove)
}

const entrySize = unsafe.Sizeof(TTEntry{})

// TranspositionTable maps Zobrist keys to search results. An entry is only
// replaced by a strictly deeper one, which is what keeps concurrent writers
// from degrading each other's results.
type TranspositionTable struct {
	entries *cache.Cache[uint64, TTEntry]
	sizeMB  int
}

func deeper(existing, candidate TTEntry) bool {
	return candidate.Depth > existing.Depth
}

func NewTranspositionTable(sizeMB int) (*TranspositionTable, error) {
	capacity := cache.CapacityFor(sizeMB, unsafe.Sizeof(uint64(0)), entrySize)
	entries, err := cache.New[uint64, TTEntry](capacity, deeper)
	if err != nil {
		return nil, err
	}
	log.Info().Int("num-elems", capacity).
		Int("size-mb", sizeMB).
		Int("entry-size", int(entrySize)).
		Msg("transposition-table-size")
	return &TranspositionTable{entries: entries, sizeMB: sizeMB}, nil
}

func (t *TranspositionTable) lookup(key uint64) (TTEntry, bool) {
	return t.entries.Lookup(key)
}

func (t *TranspositionTable) store(key uint64, e TTEntry) {
	t.entries.Store(key, e)
}

// Lookup is exported for callers that want to inspect search results.
func (t *TranspositionTable) Lookup(key uint64) (TTEntry, bool) {
	return t.lookup(key)
}

func (t *TranspositionTable) Reset() {
	t.entries.Clear()
}

func (t *TranspositionTable) Len() int {
	return t.entries.Len()
}

func (t *TranspositionTable) Capacity() int {
	return t.entries.Capacity()
}

func (t *TranspositionTable) SizeMB() int {
	return t.sizeMB
}

func (t *TranspositionTable) Stats() cache.Stats {
	return t.entries.Stats()
}
