package main

import (
	"context"
	"testing"
	"time"

	"github.com/i5heu/workqueue/internal/workbench"
	"github.com/i5heu/workqueue/pkg/deque"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Local FIFO / ordering integrity of a single owner's deque
// =============================================================================
//
// The pool-level harness can't observe per-item ordering once several
// workers are stealing concurrently (the substrate explicitly does not
// promise global order — only LIFO-from-the-owner's-end, FIFO-from-a-
// thief's-end). These tests instead exercise deque.Deque[T] directly to
// pin down those two ordering guarantees precisely.

func TestOwnerLIFOOrderingUnderWrapAround(t *testing.T) {
	q := deque.New[int]()
	wd := newWatchdog(t, "OwnerLIFOOrderingUnderWrapAround")
	wd.Start()
	defer wd.Stop()

	const n = 5000
	// Advance top and bottom to Size-n/2 so the pushes below wrap past
	// the last ring index.
	for i := 0; i < deque.Size-n/2; i++ {
		require.True(t, q.Push(-1))
		_, ok := q.PopGlobal()
		require.True(t, ok)
	}
	for i := 0; i < n; i++ {
		require.True(t, q.Push(i))
		if i%500 == 0 {
			wd.Progress()
		}
	}

	for i := n - 1; i >= 0; i-- {
		v, ok := q.PopLocal()
		require.True(t, ok)
		require.Equal(t, i, v, "owner PopLocal must be strict LIFO")
		if i%500 == 0 {
			wd.Progress()
		}
	}

	_, ok := q.PopLocal()
	require.False(t, ok)
}

func TestThiefFIFOOrderingFromOppositeEnd(t *testing.T) {
	q := deque.New[int]()
	wd := newWatchdog(t, "ThiefFIFOOrderingFromOppositeEnd")
	wd.Start()
	defer wd.Stop()

	const n = 2000
	for i := 0; i < n; i++ {
		require.True(t, q.Push(i))
	}
	wd.Progress()

	for i := 0; i < n; i++ {
		v, ok := q.PopGlobal()
		require.True(t, ok)
		require.Equal(t, i, v, "thief PopGlobal must drain oldest-pushed-first")
		if i%500 == 0 {
			wd.Progress()
		}
	}
}

func TestNoItemDuplicationOrLossAcrossPoolRun(t *testing.T) {
	withAllWorkerCounts(t, []int{2, 4, 8, 16}, func(t *testing.T, workers int) {
		wd := newWatchdog(t, "NoItemDuplicationOrLossAcrossPoolRun")
		wd.Start()
		defer wd.Stop()

		cfg := workbench.Config{NumWorkers: workers, InitialPerHead: 20000, Policy: workbench.StealPolicyBestOf2}
		res := workbench.RunTimedPool(context.Background(), cfg, 250*time.Millisecond, func(i int) int { return i })
		wd.Progress()

		require.Equal(t, res.Produced, res.Consumed, "a lost or duplicated task would show up as Produced != Consumed")
	})
}

func TestHighWrapAroundSingleOwner(t *testing.T) {
	q := deque.New[int]()
	wd := newWatchdog(t, "HighWrapAroundSingleOwner")
	wd.Start()
	defer wd.Stop()

	const iterations = 200_000
	for i := 0; i < iterations; i++ {
		require.True(t, q.Push(i))
		v, ok := q.PopLocal()
		require.True(t, ok)
		require.Equal(t, i, v)
		if i%10000 == 0 {
			wd.Progress()
		}
	}
	require.Equal(t, uint32(0), q.Size())
}
