package terminator

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeQueueSet lets tests flip Peek's answer without a real QueueSet.
type fakeQueueSet struct {
	hasWork atomic.Bool
}

func (f *fakeQueueSet) Peek() bool { return f.hasWork.Load() }

func TestAllWorkersTerminateWhenAllQuiescent(t *testing.T) {
	const n = 4
	qs := &fakeQueueSet{}
	term := New(n, qs)

	var wg sync.WaitGroup
	results := make([]bool, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			results[i] = term.OfferTermination()
		}()
	}
	wg.Wait()

	for i, r := range results {
		require.True(t, r, "worker %d should have observed termination", i)
	}
}

func TestOfferTerminationResumesWhenWorkAppears(t *testing.T) {
	const n = 3
	qs := &fakeQueueSet{}
	term := New(n, qs)

	var resumed atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if !term.OfferTermination() {
			resumed.Store(true)
		}
	}()

	// Let the offering worker start polling, then inject work so it must
	// observe peek()==true and bail out rather than hang forever.
	time.Sleep(5 * time.Millisecond)
	qs.hasWork.Store(true)
	wg.Wait()

	require.True(t, resumed.Load(), "worker must resume once peek reports work")
}

func TestResetForReuseAllowsAnotherRound(t *testing.T) {
	const n = 2
	qs := &fakeQueueSet{}
	term := New(n, qs)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			require.True(t, term.OfferTermination())
		}()
	}
	wg.Wait()

	term.ResetForReuse()

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			require.True(t, term.OfferTermination())
		}()
	}
	wg.Wait()
}

func TestSingleWorkerTerminatesAlone(t *testing.T) {
	qs := &fakeQueueSet{}
	term := New(1, qs)
	require.True(t, term.OfferTermination())
}
