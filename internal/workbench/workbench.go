// Package workbench drives a pool of owner/thief goroutines against a
// QueueSet and Terminator for a fixed duration, measuring how much
// work is pushed, drained locally, and stolen in that window. It
// plays the role of the "higher-level parallel phase" the core spec
// treats as an external collaborator — used here only by tests and
// the cmd/bench driver, never imported by the library packages.
package workbench

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/i5heu/workqueue/pkg/deque"
	"github.com/i5heu/workqueue/pkg/queueset"
	"github.com/i5heu/workqueue/pkg/terminator"
)

// StealPolicy names which QueueSet victim-selection strategy a run
// exercises.
type StealPolicy int

const (
	// StealPolicyBestOf2 is the production default: sample two
	// distinct victims, steal from the larger.
	StealPolicyBestOf2 StealPolicy = iota
	// StealPolicyOneRandom tries a single uniformly random victim.
	StealPolicyOneRandom
	// StealPolicyBestOfAll scans every victim and steals from the
	// largest.
	StealPolicyBestOfAll
)

// String renders the policy name used in report labels.
func (p StealPolicy) String() string {
	switch p {
	case StealPolicyOneRandom:
		return "steal_1_random"
	case StealPolicyBestOfAll:
		return "steal_best_of_all"
	default:
		return "steal_best_of_2"
	}
}

// Config describes pool shape: how many workers, how much initial
// work each one is seeded with before the run starts, and which
// victim-selection policy thieves use.
type Config struct {
	NumWorkers     int
	InitialPerHead int
	Policy         StealPolicy
}

// Result reports what happened during one timed run.
type Result struct {
	Produced int64
	Consumed int64
	Steals   int64
	Elapsed  time.Duration
}

// RunTimedPool spawns NumWorkers owner goroutines, each owning one
// Deque registered in a shared QueueSet. Every worker is seeded with
// InitialPerHead tasks (so the run has real steal pressure once
// workers finish their own share); when its ring is full, a worker runs
// one of its own tasks to make room, and it stops seeding early if the
// run's context ends. Each worker then drains local work first,
// steals from peers when local work runs out, and offers termination
// through a shared Terminator once both are exhausted. valueGenerator
// produces a task value from a monotonically increasing index.
func RunTimedPool[T any](
	ctx context.Context,
	cfg Config,
	testDuration time.Duration,
	valueGenerator func(int) T,
) Result {
	runCtx, cancel := context.WithTimeout(ctx, testDuration)
	defer cancel()

	deques := make([]*deque.Deque[T], cfg.NumWorkers)
	qs := queueset.New[T](cfg.NumWorkers)
	for i := range deques {
		deques[i] = deque.New[T]()
		qs.Register(i, deques[i])
	}
	term := terminator.New(cfg.NumWorkers, qs)

	var produced, consumed, steals int64
	var idx int64
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(cfg.NumWorkers)
	for w := 0; w < cfg.NumWorkers; w++ {
		w := w
		go func() {
			defer wg.Done()
			seed := int32(w*7919 + 1)
			own := deques[w]

			for i := 0; i < cfg.InitialPerHead; i++ {
				if i%1024 == 0 && runCtx.Err() != nil {
					break
				}
				n := atomic.AddInt64(&idx, 1) - 1
				v := valueGenerator(int(n))
				for !own.Push(v) {
					// Ring full: run one task locally to make room.
					if _, ok := own.PopLocal(); ok {
						atomic.AddInt64(&consumed, 1)
					}
				}
				atomic.AddInt64(&produced, 1)
			}

			for {
				select {
				case <-runCtx.Done():
					drainOwn(own, &consumed)
					return
				default:
				}

				if _, ok := own.PopLocal(); ok {
					atomic.AddInt64(&consumed, 1)
					continue
				}
				if _, ok := steal(qs, cfg.Policy, w, &seed); ok {
					atomic.AddInt64(&consumed, 1)
					atomic.AddInt64(&steals, 1)
					continue
				}
				if term.OfferTermination() {
					return
				}
			}
		}()
	}

	<-runCtx.Done()
	wg.Wait()

	return Result{
		Produced: atomic.LoadInt64(&produced),
		Consumed: atomic.LoadInt64(&consumed),
		Steals:   atomic.LoadInt64(&steals),
		Elapsed:  time.Since(start),
	}
}

func steal[T any](qs *queueset.QueueSet[T], policy StealPolicy, me int, seed *int32) (t T, ok bool) {
	switch policy {
	case StealPolicyOneRandom:
		m := qs.Len()
		for i := 0; i < 2*m; i++ {
			if t, ok = qs.StealOneRandom(me, seed); ok {
				return t, true
			}
		}
		return t, false
	case StealPolicyBestOfAll:
		return qs.StealBestOfAll(me)
	default:
		return qs.Steal(me, seed)
	}
}

func drainOwn[T any](own *deque.Deque[T], consumed *int64) {
	for {
		if _, ok := own.PopLocal(); ok {
			atomic.AddInt64(consumed, 1)
			continue
		}
		return
	}
}
