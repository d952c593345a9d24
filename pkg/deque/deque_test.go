package deque

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequentialLIFO(t *testing.T) {
	d := New[int]()
	require.True(t, d.Push(1))
	require.True(t, d.Push(2))
	require.True(t, d.Push(3))

	v, ok := d.PopLocal()
	require.True(t, ok)
	require.Equal(t, 3, v)

	v, ok = d.PopLocal()
	require.True(t, ok)
	require.Equal(t, 2, v)

	v, ok = d.PopLocal()
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = d.PopLocal()
	require.False(t, ok)
}

func TestSequentialStealFIFO(t *testing.T) {
	d := New[int]()
	require.True(t, d.Push(10))
	require.True(t, d.Push(20))
	require.True(t, d.Push(30))

	for _, want := range []int{10, 20, 30} {
		v, ok := d.PopGlobal()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
	_, ok := d.PopGlobal()
	require.False(t, ok)
}

func TestPushPopRoundTrip(t *testing.T) {
	d := New[string]()
	require.True(t, d.Push("x"))
	v, ok := d.PopLocal()
	require.True(t, ok)
	require.Equal(t, "x", v)
}

func TestEmptyQueueReturnsFalse(t *testing.T) {
	d := New[int]()
	_, ok := d.PopLocal()
	require.False(t, ok)
	_, ok = d.PopGlobal()
	require.False(t, ok)
	require.Equal(t, uint32(0), d.Size())
}

func TestSizeBoundIsRespected(t *testing.T) {
	d := New[int]()
	pushed := 0
	for i := 0; i < MaxElems; i++ {
		require.True(t, d.Push(i))
		pushed++
	}
	require.False(t, d.Push(99999), "push beyond max_elems must fail")
	require.Equal(t, uint32(MaxElems), d.Size())

	_, ok := d.PopLocal()
	require.True(t, ok)
	require.True(t, d.Push(99999), "one free slot after a pop")
	_ = pushed
}

func TestRaceOnLastElement(t *testing.T) {
	const rounds = 2000
	for round := 0; round < rounds; round++ {
		d := New[int]()
		require.True(t, d.Push(round))

		var localOK, globalOK bool
		var localVal, globalVal int

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			localVal, localOK = d.PopLocal()
		}()
		go func() {
			defer wg.Done()
			globalVal, globalOK = d.PopGlobal()
		}()
		wg.Wait()

		// Exactly one side wins, and it must see the pushed value.
		require.NotEqual(t, localOK, globalOK, "round %d: exactly one of pop_local/pop_global must succeed", round)
		if localOK {
			require.Equal(t, round, localVal)
		} else {
			require.Equal(t, round, globalVal)
		}

		require.Equal(t, uint32(0), d.Size())
		require.True(t, d.Push(round), "deque must accept a push after the race resolves")
		v, ok := d.PopLocal()
		require.True(t, ok)
		require.Equal(t, round, v)
	}
}

func TestCanonicalisationAfterSlowPath(t *testing.T) {
	d := New[int]()
	require.True(t, d.Push(7))
	v, ok := d.PopLocal()
	require.True(t, ok)
	require.Equal(t, 7, v)
	require.Equal(t, uint32(0), d.Size())

	for i := 0; i < MaxElems; i++ {
		require.True(t, d.Push(i))
	}
	require.Equal(t, uint32(MaxElems), d.Size())
}

func TestConcurrentOwnerAndManyThieves(t *testing.T) {
	d := New[int]()
	const n = MaxElems
	for i := 0; i < n; i++ {
		require.True(t, d.Push(i))
	}

	seen := make([]bool, n)
	var mu sync.Mutex
	var wg sync.WaitGroup
	const thieves = 8
	wg.Add(thieves)
	for i := 0; i < thieves; i++ {
		go func() {
			defer wg.Done()
			for {
				v, ok := d.PopGlobal()
				if !ok {
					if d.Size() == 0 {
						return
					}
					continue
				}
				mu.Lock()
				require.False(t, seen[v], "at-most-once delivery violated for %d", v)
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for i, s := range seen {
		require.True(t, s, "task %d was never delivered", i)
	}
}

func TestAtMostOnceUnderMixedOwnerAndThieves(t *testing.T) {
	d := New[int]()
	const n = 5000
	delivered := make([]atomic.Int32, n)

	var ownerDone atomic.Bool
	go func() {
		for i := 0; i < n; i++ {
			for !d.Push(i) {
				if v, ok := d.PopLocal(); ok {
					delivered[v].Add(1)
				}
			}
		}
		for {
			v, ok := d.PopLocal()
			if !ok {
				break
			}
			delivered[v].Add(1)
		}
		ownerDone.Store(true)
	}()

	var wg sync.WaitGroup
	const thieves = 4
	wg.Add(thieves)
	for i := 0; i < thieves; i++ {
		go func() {
			defer wg.Done()
			for {
				if v, ok := d.PopGlobal(); ok {
					delivered[v].Add(1)
					continue
				}
				if ownerDone.Load() && d.Size() == 0 {
					return
				}
			}
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.Equal(t, int32(1), delivered[i].Load(), "task %d delivered %d times, want exactly 1", i, delivered[i].Load())
	}
}
