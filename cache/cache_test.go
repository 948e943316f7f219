package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"
)

func TestEvictsOldest(t *testing.T) {
	is := is.New(t)
	c, err := New[int, string](2, nil)
	is.NoErr(err)

	c.Store(1, "a")
	c.Store(2, "b")
	c.Store(3, "c")

	_, ok := c.Lookup(1)
	is.True(!ok)
	v, ok := c.Lookup(2)
	is.True(ok)
	is.Equal(v, "b")
	v, ok = c.Lookup(3)
	is.True(ok)
	is.Equal(v, "c")
	is.Equal(c.Len(), 2)
	is.Equal(c.Stats().Evictions, uint64(1))
}

func TestLookupDoesNotPromote(t *testing.T) {
	is := is.New(t)
	c, err := New[int, string](2, nil)
	is.NoErr(err)

	c.Store(1, "a")
	c.Store(2, "b")
	// reading 1 must not save it from eviction
	_, ok := c.Lookup(1)
	is.True(ok)
	c.Store(3, "c")
	_, ok = c.Lookup(1)
	is.True(!ok)
	_, ok = c.Lookup(2)
	is.True(ok)
}

func TestOverwriteMovesToNewest(t *testing.T) {
	is := is.New(t)
	c, err := New[int, string](2, nil)
	is.NoErr(err)

	c.Store(1, "a")
	c.Store(2, "b")
	c.Store(1, "a2")
	c.Store(3, "c")

	v, ok := c.Lookup(1)
	is.True(ok)
	is.Equal(v, "a2")
	_, ok = c.Lookup(2)
	is.True(!ok)
}

func TestRefusedReplaceKeepsOrder(t *testing.T) {
	is := is.New(t)
	bigger := func(existing, candidate int) bool { return candidate > existing }
	c, err := New[string, int](2, bigger)
	is.NoErr(err)

	c.Store("x", 5)
	c.Store("y", 1)
	c.Store("x", 3) // refused: x stays oldest
	v, _ := c.Lookup("x")
	is.Equal(v, 5)
	is.Equal(c.Stats().Refused, uint64(1))

	c.Store("z", 9)
	_, ok := c.Lookup("x")
	is.True(!ok) // x was still the oldest entry
	_, ok = c.Lookup("y")
	is.True(ok)

	c.Store("y", 4) // accepted
	v, _ = c.Lookup("y")
	is.Equal(v, 4)
}

func TestInvalidCapacity(t *testing.T) {
	is := is.New(t)
	_, err := New[int, int](0, nil)
	is.True(errors.Is(err, ErrInvalidCapacity))
	_, err = New[int, int](-3, nil)
	is.True(errors.Is(err, ErrInvalidCapacity))
}

func TestClear(t *testing.T) {
	is := is.New(t)
	c, err := New[int, int](4, nil)
	is.NoErr(err)
	for i := 0; i < 10; i++ {
		c.Store(i, i)
	}
	c.Clear()
	is.Equal(c.Len(), 0)
	is.Equal(c.Stats(), Stats{})
	c.Store(1, 1)
	v, ok := c.Lookup(1)
	is.True(ok)
	is.Equal(v, 1)
}

func TestRangeOldestFirst(t *testing.T) {
	is := is.New(t)
	c, err := New[int, int](3, nil)
	is.NoErr(err)
	for i := 0; i < 5; i++ {
		c.Store(i, i*10)
	}
	var keys []int
	c.Range(func(k, v int) bool {
		is.Equal(v, k*10)
		keys = append(keys, k)
		return true
	})
	is.Equal(keys, []int{2, 3, 4})
}

func TestCapacityNeverExceeded(t *testing.T) {
	is := is.New(t)
	for _, capacity := range []int{1, 2, 7, 64} {
		c, err := New[uint64, int](capacity, func(e, n int) bool { return n > e })
		is.NoErr(err)
		for i := 0; i < 2000; i++ {
			c.Store(frand.Uint64n(100), frand.Intn(10))
			is.True(c.Len() <= capacity)
		}
	}
}

func TestConcurrentStoreAndLookup(t *testing.T) {
	is := is.New(t)
	c, err := New[uint64, uint64](128, func(e, n uint64) bool { return n > e })
	is.NoErr(err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := uint64(0); i < 5000; i++ {
				k := (i * 7) % 300
				c.Store(k, i)
				c.Lookup(k)
			}
		}()
	}
	wg.Wait()
	is.True(c.Len() <= 128)
}

func TestCapacityFor(t *testing.T) {
	is := is.New(t)
	is.Equal(CapacityFor(0, 8, 8), 1)
	is.Equal(CapacityFor(-4, 8, 8), 1)
	// 1 MiB of 8-byte keys and values
	n := CapacityFor(1, 8, 8)
	perEntry := float64(8 + 8 + EntryOverhead)
	is.Equal(n, int(FillFactor*float64(1)*MiB/perEntry))
	is.True(n > 9000 && n < 9500)
	is.True(CapacityFor(32, 8, 40) > CapacityFor(16, 8, 40))
}
