// Package deque implements the bounded, single-owner/multiple-thief
// ring-buffer deque at the heart of the work-stealing substrate: the
// owner thread pushes and pops from the "local" end (bottom), while any
// number of thief threads may steal from the "global" end (top) via a
// CAS on a packed (top, tag) word.
//
// The algorithm mirrors HotSpot's GenericTaskQueue: only the owner ever
// writes bottom, and the packed age word defeats ABA on top across
// concurrent steals.
package deque

import (
	"sync/atomic"

	"github.com/i5heu/workqueue/internal/queue"
)

const (
	// logSize is log2 of the ring capacity.
	logSize = 14
	// Size is the ring capacity, a power of two.
	Size = 1 << logSize
	// mask turns modulo-Size arithmetic into a bitwise AND.
	mask = Size - 1
	// MaxElems is the largest number of elements the deque can hold at
	// once: two slots are reserved, one to distinguish full from empty,
	// one for the pop_local/pop_global race window.
	MaxElems = Size - 2
)

// age packs (top, tag) into one 32-bit word so both fields can be
// read, written, and CAS'd atomically. top occupies the low 16 bits,
// tag the high 16 bits.
type age uint32

func packAge(top, tag uint16) age {
	return age(top) | age(tag)<<16
}

func (a age) top() uint16 { return uint16(a) }
func (a age) tag() uint16 { return uint16(a >> 16) }

// Deque is a bounded ring buffer of capacity Size holding values of
// type T. T should be a word-sized, trivially copyable payload — a
// pointer or small integer handle (see tasktypes.go for example
// instantiations). The zero value is not usable; construct with New.
type Deque[T any] struct {
	// bottom is the first free slot. Mutated only by the owner; read by
	// anyone.
	bottom atomic.Uint32
	// ageWord packs (top, tag); mutated via CAS by thieves, and by the
	// owner's pop_local slow path (race-free, see PopLocal).
	ageWord atomic.Uint32
	elems   [Size]T
}

// New returns an empty Deque ready for use by one owner thread and any
// number of thief threads.
func New[T any]() *Deque[T] {
	return &Deque[T]{}
}

// Compile-time checks that Deque[T] satisfies the owner/thief
// constraints QueueSet and the terminator protocol depend on.
var (
	_ queue.OwnerSide[int] = (*Deque[int])(nil)
	_ queue.ThiefSide[int] = (*Deque[int])(nil)
)

func next(i uint32) uint32 { return (i + 1) & mask }
func prev(i uint32) uint32 { return (i - 1) & mask }

// dirtySize is (bottom - top) mod Size; it may transiently read
// Size-1, the "pseudo-empty" state produced by a pop_local/pop_global
// race on the last element.
func dirtySize(bottom, top uint32) uint32 {
	return (bottom - top) & mask
}

// size is the logical element count: dirtySize, except the pseudo-empty
// value Size-1 is interpreted as zero.
func size(bottom, top uint32) uint32 {
	d := dirtySize(bottom, top)
	if d == Size-1 {
		return 0
	}
	return d
}

// Size returns an estimate of the number of elements in the deque. The
// value may be stale the instant it's read if a concurrent steal or
// pop_local is in flight.
func (d *Deque[T]) Size() uint32 {
	a := age(d.ageWord.Load())
	return size(d.bottom.Load(), uint32(a.top()))
}

// DirtySize returns the raw (bottom-top) mod Size value without
// collapsing the pseudo-empty state to zero. Diagnostic accessor.
func (d *Deque[T]) DirtySize() uint32 {
	a := age(d.ageWord.Load())
	return dirtySize(d.bottom.Load(), uint32(a.top()))
}

// Peek reports whether the deque currently appears non-empty. Used by
// QueueSet and Terminator; best-effort, not linearisable.
func (d *Deque[T]) Peek() bool {
	return d.Size() > 0
}

// Push appends t at bottom. Returns false iff the deque is full
// (dirty size already at MaxElems and not in the pseudo-empty state).
// Owner-only; never called concurrently with PopLocal.
func (d *Deque[T]) Push(t T) bool {
	b := d.bottom.Load()
	top := age(d.ageWord.Load()).top()
	dirty := dirtySize(b, uint32(top))

	if dirty < MaxElems {
		d.elems[b] = t
		// Store to elems must precede the publish of bottom (release
		// publication); atomic.Uint32.Store on amd64/arm64 is already a
		// store-release, which together with the plain program-order
		// write above is sufficient here.
		d.bottom.Store(next(b))
		return true
	}
	if dirty == Size-1 {
		// Pseudo-empty: reread bottom, then push normally.
		b = d.bottom.Load()
		d.elems[b] = t
		d.bottom.Store(next(b))
		return true
	}
	return false
}

// PopLocal removes and returns the most-recently-pushed task, if any.
// Owner-only; never called concurrently with another PopLocal.
func (d *Deque[T]) PopLocal() (t T, ok bool) {
	b := d.bottom.Load()
	top := age(d.ageWord.Load()).top()
	if dirtySize(b, uint32(top)) == 0 {
		return t, false
	}

	bNext := prev(b)
	d.bottom.Store(bNext)

	// The reload of ageWord below must not reorder before the store to
	// bottom above, or a concurrent PopGlobal could observe the old
	// bottom and race a thief against us on the same slot.
	top2 := age(d.ageWord.Load()).top()
	if size(bNext, uint32(top2)) > 0 {
		t = d.elems[bNext]
		return t, true
	}

	// Slow path: the deque held exactly one element.
	return d.popLocalSlow(bNext)
}

// popLocalSlow resolves the race for the last element against any
// thief that may be concurrently mid-PopGlobal. b is the owner's
// already-decremented bottom; the decision below compares it with the
// top field of a fresh age snapshot.
func (d *Deque[T]) popLocalSlow(b uint32) (t T, ok bool) {
	oldAge := age(d.ageWord.Load())
	t = d.elems[b]
	newAge := packAge(uint16(b), oldAge.tag()+1)

	if oldAge.top() == uint16(b) {
		// No thief has advanced top yet; try to claim the element.
		if d.ageWord.CompareAndSwap(uint32(oldAge), uint32(newAge)) {
			return t, true
		}
		// A thief won the CAS race; canonicalise below and report
		// failure.
		d.ageWord.Store(uint32(newAge))
		return t, false
	}

	// A thief already advanced top past b; the element is theirs.
	// Canonicalise the empty state unconditionally so the next Push can
	// use the fast path.
	d.ageWord.Store(uint32(newAge))
	var zero T
	return zero, false
}

// PopGlobal removes and returns the oldest task, if any, with
// at-most-once delivery despite concurrent thieves and an owner
// PopLocal. Safe to call from any thread, including the owner's own
// steal attempts on other deques (never on its own).
func (d *Deque[T]) PopGlobal() (t T, ok bool) {
	oldAge := age(d.ageWord.Load())
	b := d.bottom.Load()

	if size(b, uint32(oldAge.top())) == 0 {
		return t, false
	}

	// Safe to read before the CAS: the owner never overwrites a slot in
	// [top, bottom), and if the CAS below fails this read is simply
	// discarded.
	t = d.elems[oldAge.top()]

	newTop := next(uint32(oldAge.top()))
	newTag := oldAge.tag()
	if newTop == 0 {
		newTag++
	}
	newAge := packAge(uint16(newTop), newTag)

	if d.ageWord.CompareAndSwap(uint32(oldAge), uint32(newAge)) {
		return t, true
	}
	var zero T
	return zero, false
}
