package deque

// These aliases show how callers parameterise Deque[T] for different
// opaque payload kinds without any runtime polymorphism — T never
// needs dynamic dispatch, only a word-sized, comparable representation.

// ObjectTask is a handle to a managed object.
type ObjectTask = uintptr

// ObjectPtrTask is a handle to a slot holding an ObjectTask.
type ObjectPtrTask = uintptr

// ChunkTask indexes a unit of work, such as a heap region or array
// slice.
type ChunkTask = uint64
