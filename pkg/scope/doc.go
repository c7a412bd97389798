// Package scope provides the allocation scopes and state handles at the
// heart of the Quill runtime.
//
// A Scope is a node in a tree of allocation contexts. Building a component
// creates a child scope; inside it, [UseState] and [UseStateWith] allocate a
// value, register it in the runtime's slot table, and return a copyable
// [State] handle. Handles can be stored anywhere without ownership friction
// because correctness is enforced at runtime: accessing a handle after its
// owning scope dropped is a fatal stale-handle error.
//
// # Ownership
//
// Every handle belongs to exactly one scope. Dropping a scope removes each
// owned handle from the slot table (running its destructor exactly once),
// drops all child scopes, and releases the scope's bump memory as a single
// block. Values implementing [Disposable] get Dispose called when their
// cell is removed.
//
// # Capacity heuristics
//
// A [Heuristics] pair remembers, across the previous scope's lifetime, how
// many bytes were allocated and how many handles were registered at that
// tree position, so the next scope created there is pre-sized and avoids
// reallocation churn. Callers typically keep one Heuristics per component
// struct and pass it to [Child]. A nil Heuristics disables guessing.
//
// # Confinement
//
// Scopes and state handles are NOT thread-safe. They are confined to the
// execution context owning their runtime. All operations are synchronous;
// child scopes are fully built before the call creating them returns.
package scope
