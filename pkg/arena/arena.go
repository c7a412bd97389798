// Package arena provides the allocation strategies backing scope-owned state.
//
// A scope bump-allocates the values behind its state handles. Two strategies
// implement the [Allocator] contract: [Bump] carves values out of reusable
// byte slabs and releases them as one block, while [Heap] hands out
// individually owned cells. The strategy is chosen per runtime at
// construction time, not by build tags.
package arena

import "unsafe"

// Strategy selects an allocation strategy for scope state.
type Strategy int

const (
	// StrategyBump allocates state values from per-scope bump slabs.
	StrategyBump Strategy = iota
	// StrategyHeap allocates each state value as its own heap cell.
	StrategyHeap
)

func (s Strategy) String() string {
	switch s {
	case StrategyBump:
		return "bump"
	case StrategyHeap:
		return "heap"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name as it appears in configuration.
func ParseStrategy(name string) (Strategy, bool) {
	switch name {
	case "bump":
		return StrategyBump, true
	case "heap":
		return StrategyHeap, true
	default:
		return StrategyBump, false
	}
}

// Allocator is the contract between a scope and its allocation strategy.
// Implementations are not thread-safe; an allocator belongs to exactly one
// scope, which is confined to one logical execution context.
type Allocator interface {
	// RawAlloc returns a pointer to a zeroed region of at least size bytes,
	// aligned to align.
	RawAlloc(size, align uintptr) unsafe.Pointer

	// Reset releases everything allocated since the last Reset as one block.
	// Previously returned pointers become invalid.
	Reset()

	// Used returns the bytes allocated since the last Reset, including
	// cells routed outside the slab.
	Used() uintptr

	// Peak returns the high-water mark of Used across resets.
	Peak() uintptr

	// addExternal records bytes for a value that was routed to its own heap
	// cell (pointer-bearing types, heap strategy) so heuristics still see it.
	addExternal(size uintptr)
}

// New returns an allocator for the given strategy, pre-sized to hold about
// capacity bytes before growing. A zero capacity uses defaults.
func New(strategy Strategy, capacity int) Allocator {
	if strategy == StrategyHeap {
		return &Heap{}
	}
	return NewBump(capacity)
}

// Alloc returns a zeroed *T from the allocator. Pointer-bearing types are
// routed to their own heap cells even under the bump strategy: the garbage
// collector does not scan byte slabs, so a pointer stored in one would not
// keep its referent alive. A nil allocator degrades to new(T).
func Alloc[T any](a Allocator) *T {
	if a == nil {
		return new(T)
	}
	var zero T
	size := unsafe.Sizeof(zero)
	if _, ok := a.(*Heap); ok || size == 0 || typeHasPointers[T]() {
		a.addExternal(size)
		return new(T)
	}
	return (*T)(a.RawAlloc(size, unsafe.Alignof(zero)))
}

// AllocValue stores value in a cell from the allocator and returns its pointer.
func AllocValue[T any](a Allocator, value T) *T {
	p := Alloc[T](a)
	*p = value
	return p
}
