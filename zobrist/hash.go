// Package zobrist builds Zobrist key tables for board implementations.
//
// A Table is built once and never written again, so one instance can be shared
// by reference between any number of boards and goroutines.
package zobrist

import (
	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// https://en.wikipedia.org/wiki/Zobrist_hashing
type Table struct {
	sideToMove uint64
	// slots[i][v] is the key of slot i holding value v.
	slots    [][]uint64
	maxValue int
}

// New builds a table with random keys for numSlots slots, each of which can
// hold a value in [0, maxValue].
func New(numSlots, maxValue int) *Table {
	return build(numSlots, maxValue, func() uint64 {
		return frand.Uint64n(bignum) + 1
	})
}

// NewSeeded builds a reproducible table. Two tables built from the same seed
// and dimensions are identical.
func NewSeeded(seed [32]byte, numSlots, maxValue int) *Table {
	rng := frand.NewCustom(seed[:], 1024, 12)
	return build(numSlots, maxValue, func() uint64 {
		return rng.Uint64n(bignum) + 1
	})
}

func build(numSlots, maxValue int, next func() uint64) *Table {
	t := &Table{
		maxValue: maxValue,
		slots:    make([][]uint64, numSlots),
	}
	for i := 0; i < numSlots; i++ {
		t.slots[i] = make([]uint64, maxValue+1)
		for j := 0; j <= maxValue; j++ {
			t.slots[i][j] = next()
		}
	}
	t.sideToMove = next()
	return t
}

// NumSlots is the number of slots the table was built for.
func (t *Table) NumSlots() int {
	return len(t.slots)
}

// MaxValue is the largest value a slot can hold.
func (t *Table) MaxValue() int {
	return t.maxValue
}

// Slot returns the key for slot i holding value v.
func (t *Table) Slot(i, v int) uint64 {
	return t.slots[i][v]
}

// SideToMove is XORed in whenever the second player is on turn.
func (t *Table) SideToMove() uint64 {
	return t.sideToMove
}

// Hash computes a key from scratch.
func (t *Table) Hash(values []int, secondToMove bool) uint64 {
	key := uint64(0)
	for i, v := range values {
		key ^= t.slots[i][v]
	}
	if secondToMove {
		key ^= t.sideToMove
	}
	return key
}

// Change updates key for slot i going from value `from` to value `to`, and
// flips the side to move. Applying the same change with from and to swapped
// restores the original key.
func (t *Table) Change(key uint64, i, from, to int) uint64 {
	key ^= t.slots[i][from]
	key ^= t.slots[i][to]
	key ^= t.sideToMove
	return key
}
