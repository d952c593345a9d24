// Package overflow implements the overflow-augmented deque: a bounded
// stealable ring paired with an unbounded, owner-only LIFO spill
// stack, used when the ring fills.
package overflow

import "github.com/i5heu/workqueue/pkg/deque"

// OverflowDeque wraps a ring deque with a spill stack owned by the
// same worker. Only the owner pushes/pops the spill; thieves see only
// the ring.
type OverflowDeque[T any] struct {
	ring  *deque.Deque[T]
	spill []T
}

// New returns an OverflowDeque backed by a fresh ring deque.
func New[T any]() *OverflowDeque[T] {
	return &OverflowDeque[T]{ring: deque.New[T]()}
}

// Ring exposes the stealable ring, e.g. for QueueSet registration.
func (o *OverflowDeque[T]) Ring() *deque.Deque[T] {
	return o.ring
}

// Save attempts ring.Push first, since spilled tasks are invisible to
// thieves and the stealable ring should be populated preferentially;
// on failure it falls back to the spill stack.
func (o *OverflowDeque[T]) Save(t T) {
	if o.ring.Push(t) {
		return
	}
	o.spill = append(o.spill, t)
}

// Retrieve pops from spill first — LIFO and cheap, keeping the working
// set hot — falling back to the ring's local end if spill is empty.
func (o *OverflowDeque[T]) Retrieve() (t T, ok bool) {
	if n := len(o.spill); n > 0 {
		t = o.spill[n-1]
		o.spill = o.spill[:n-1]
		return t, true
	}
	return o.ring.PopLocal()
}

// IsEmpty reports whether both the ring and the spill are empty.
func (o *OverflowDeque[T]) IsEmpty() bool {
	return o.RingEmpty() && o.SpillEmpty()
}

// RingSize reports the stealable element count in the ring.
func (o *OverflowDeque[T]) RingSize() uint32 {
	return o.ring.Size()
}

// RingEmpty reports whether the stealable ring is empty.
func (o *OverflowDeque[T]) RingEmpty() bool {
	return o.ring.Size() == 0
}

// SpillEmpty reports whether the owner-only spill stack is empty.
func (o *OverflowDeque[T]) SpillEmpty() bool {
	return len(o.spill) == 0
}
