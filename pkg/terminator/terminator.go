// Package terminator implements the parallel termination protocol
// layered atop a QueueSet: workers that find no local or stealable
// work offer to terminate, and the pool terminates once every worker
// has offered simultaneously.
package terminator

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Peeker is the QueueSet capability the Terminator polls while idle.
type Peeker interface {
	Peek() bool
}

// Terminator coordinates quiescence detection across nThreads workers
// sharing one QueueSet.
type Terminator struct {
	nThreads int32
	offered  atomic.Int32
	queues   Peeker
}

// New returns a Terminator for nThreads workers polling queues for
// signs of remaining work.
func New(nThreads int, queues Peeker) *Terminator {
	return &Terminator{nThreads: int32(nThreads), queues: queues}
}

// OfferTermination is called by a worker that has just observed its
// own deque empty and a steal attempt fail: "I have no work; if
// everyone else agrees, we terminate." Returns true once every worker
// has offered simultaneously; returns false as soon as peek reports
// work, so the caller resumes stealing.
func (pt *Terminator) OfferTermination() bool {
	pt.offered.Add(1)

	var missCount int
	for {
		if pt.offered.Load() == pt.nThreads {
			return true
		}
		if pt.queues.Peek() {
			pt.offered.Add(-1)
			return false
		}
		missCount++
		backoff(missCount)
	}
}

// ResetForReuse resets the offered count to 0 so the protocol can run
// another round. The caller must ensure no worker is inside
// OfferTermination when this is invoked — the protocol is single-use
// per round.
func (pt *Terminator) ResetForReuse() {
	pt.offered.Store(0)
}

// backoff staircases from pure spins to yields to progressively longer
// sleeps, bounded at 10ms, so idle workers relinquish the CPU while
// staying responsive to peek flipping non-empty.
func backoff(missCount int) {
	switch {
	case missCount <= 10:
		return
	case missCount <= 20:
		runtime.Gosched()
	default:
		sleep := 100 * time.Microsecond
		for i := 20; i < missCount && sleep < 10*time.Millisecond; i++ {
			sleep *= 2
		}
		if sleep > 10*time.Millisecond {
			sleep = 10 * time.Millisecond
		}
		time.Sleep(sleep)
	}
}
