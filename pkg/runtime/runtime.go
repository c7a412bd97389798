// Package runtime manages the lifecycle and identity of Quill runtime
// instances.
//
// A Runtime owns exactly one slot table; every state handle created against
// it lives there until the registering scope removes it, or until the
// runtime itself is dropped. Runtimes live in a [Registry], a generational
// keyed table: dropped ids are recycled with a bumped generation, so a
// stale id can never address a successor runtime.
//
// Runtime ids are passed explicitly through the call chain; there is no
// ambient thread-local runtime. A process hosting one UI tree uses the
// package-level default registry with a single runtime; a process hosting
// several independent trees creates and drops them in the same registry.
//
// Registries and runtimes are NOT thread-safe. A runtime and everything it
// owns must be confined to one logical execution context (typically the UI
// thread). To touch state from a background goroutine, marshal the work
// onto the owning context first.
package runtime

import (
	"fmt"

	"github.com/go-quill/quill/pkg/arena"
	"github.com/go-quill/quill/pkg/errors"
	"github.com/go-quill/quill/pkg/slot"
)

// ID identifies one runtime instance for its whole lifetime. The zero ID is
// invalid. Ids are recycled only after an explicit DropRuntime, with a new
// generation.
type ID struct {
	index uint32
	gen   uint32
}

// IsValid reports whether id was issued by a registry.
func (id ID) IsValid() bool {
	return id.gen != 0
}

func (id ID) String() string {
	return fmt.Sprintf("runtime.ID(%d@%d)", id.index, id.gen)
}

// Options configures a runtime at creation.
type Options struct {
	// Name labels the instance in diagnostics. Empty means "quill".
	Name string
	// Strategy selects the allocation strategy for this runtime's scopes.
	Strategy arena.Strategy
	// SlabSize is the initial bump-slab size hint in bytes for scopes
	// without a capacity guess. Zero uses the arena default.
	SlabSize int
	// Heuristics enables capacity guessing for scope creation.
	Heuristics bool
	// TableCapacity pre-sizes the slot table in cells.
	TableCapacity int
}

// Runtime owns one slot table and the options its scopes allocate under.
type Runtime struct {
	id     ID
	name   string
	opts   Options
	states *slot.Table
}

// ID returns the runtime's identity.
func (r *Runtime) ID() ID { return r.id }

// Name returns the instance label.
func (r *Runtime) Name() string { return r.name }

// Options returns the creation options.
func (r *Runtime) Options() Options { return r.opts }

// States returns the runtime's slot table.
func (r *Runtime) States() *slot.Table { return r.states }

type entry struct {
	gen uint32
	rt  *Runtime
}

// Registry is a generational keyed table of runtimes. The zero Registry is
// ready to use.
type Registry struct {
	entries []entry
	free    []uint32
	live    int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create builds a runtime and returns its id, reusing a freed table entry
// when one is available.
func (g *Registry) Create(opts Options) ID {
	name := opts.Name
	if name == "" {
		name = "quill"
	}

	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		idx = uint32(len(g.entries))
		g.entries = append(g.entries, entry{})
	}
	e := &g.entries[idx]
	e.gen++
	id := ID{index: idx, gen: e.gen}
	e.rt = &Runtime{
		id:     id,
		name:   name,
		opts:   opts,
		states: slot.NewTable(opts.TableCapacity),
	}
	g.live++
	return id
}

// With runs f with exclusive access to the runtime's state. Access is
// sequential within the owning execution context; there is no locking.
// Fatal if the runtime was already dropped.
func (g *Registry) With(id ID, f func(*Runtime)) {
	f(g.resolve("runtime.Registry.With", id))
}

// DropRuntime removes the runtime and drops its slot table, running the
// destructor of every still-live cell. The id becomes permanently stale.
func (g *Registry) DropRuntime(id ID) {
	rt := g.resolve("runtime.Registry.DropRuntime", id)
	e := &g.entries[id.index]
	e.rt = nil
	e.gen++
	g.free = append(g.free, id.index)
	g.live--
	rt.states.Drop()
}

// Len returns the number of live runtimes.
func (g *Registry) Len() int {
	return g.live
}

func (g *Registry) resolve(op string, id ID) *Runtime {
	if !id.IsValid() || int(id.index) >= len(g.entries) {
		errors.Fatalf(op, errors.KindRuntimeGone, id.String(), "id was not issued by this registry")
	}
	e := &g.entries[id.index]
	if e.gen != id.gen || e.rt == nil {
		errors.Fatalf(op, errors.KindRuntimeGone, id.String(), "runtime was dropped")
	}
	return e.rt
}

// Default is the registry used by the package-level helpers. Single-instance
// programs never need another one.
var Default = NewRegistry()

// Create builds a runtime in the default registry.
func Create(opts Options) ID {
	return Default.Create(opts)
}

// With runs f against a runtime in the default registry.
func With(id ID, f func(*Runtime)) {
	Default.With(id, f)
}

// DropRuntime drops a runtime from the default registry.
func DropRuntime(id ID) {
	Default.DropRuntime(id)
}
