// Package queue holds compile-time-only interface constraints used to
// validate that the owner and thief sides of a Deque-shaped type match
// the expected method set. We never store Q behind a runtime
// interface — these constraints exist purely so the compiler checks
// matching signatures; the deque fast paths stay monomorphic.
package queue

// OwnerSide is the type constraint for the operations only the owning
// worker may call: Push and PopLocal.
type OwnerSide[T any] interface {
	Push(T) bool
	PopLocal() (T, bool)
}

// ThiefSide is the type constraint for the operation any worker may
// call on a deque it does not own: PopGlobal, plus the best-effort
// Size used by steal-victim selection.
type ThiefSide[T any] interface {
	PopGlobal() (T, bool)
	Size() uint32
}

// Pointer is a constraint that ensures T is always a pointer type, for
// callers that want the compiler to enforce word-sized task payloads.
type Pointer[T any] interface {
	*T
}

// enforceOwnerSide, enforceThiefSide, and enforcePointer are never
// called or instantiated, so the compiler checks only that the
// constraints above are well-formed; the check that the concrete deque
// type satisfies them is the interface assignment block in pkg/deque.
func enforceOwnerSide[T any, Q OwnerSide[T]]()               {}
func enforceThiefSide[T any, Q ThiefSide[T]]()               {}
func enforcePointer[T any, PT interface{ ~*T }](q OwnerSide[PT]) {}
