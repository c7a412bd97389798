package scope

import (
	"github.com/go-quill/quill/pkg/arena"
	"github.com/go-quill/quill/pkg/errors"
	"github.com/go-quill/quill/pkg/runtime"
	"github.com/go-quill/quill/pkg/slot"
)

// Disposable is implemented by state values that hold resources needing
// explicit cleanup. Dispose is called exactly once, when the cell behind
// the value's handle is removed.
type Disposable interface {
	Dispose()
}

// Scope is an allocation and ownership context: it owns a bump region, the
// handles registered through it, and its child scopes. A scope does not own
// its parent; the parent keeps the child alive for exactly its own lifetime.
type Scope struct {
	reg      *runtime.Registry
	rt       runtime.ID
	parent   *Scope // nil for root scopes; identity only, never ownership
	alloc    arena.Allocator
	owns     []slot.Ref
	children []*Scope
	h        *Heuristics
	dropped  bool
}

// New creates a root scope against the given runtime. When h is non-nil and
// the runtime enables heuristics, the scope's allocator and owned-handle
// list are pre-sized from the previous cycle's usage.
func New(reg *runtime.Registry, id runtime.ID, h *Heuristics) *Scope {
	return build(reg, id, nil, h)
}

// Child creates a child scope pre-sized by h, invokes f with it, records the
// child's actual usage back into h, appends the child to s's child list, and
// returns f's result. The call is synchronous: the child is fully built
// before Child returns.
func Child[O any](s *Scope, h *Heuristics, f func(*Scope) O) O {
	child := build(s.reg, s.rt, s, h)
	r := f(child)
	child.recordUsage()
	s.children = append(s.children, child)
	return r
}

func build(reg *runtime.Registry, id runtime.ID, parent *Scope, h *Heuristics) *Scope {
	var opts runtime.Options
	reg.With(id, func(rt *runtime.Runtime) {
		opts = rt.Options()
	})
	if !opts.Heuristics {
		h = nil
	}

	capacity := opts.SlabSize
	ownedCap := 0
	if h != nil {
		if guess := h.Bytes.Read(); guess > 0 {
			capacity = guess
		}
		ownedCap = h.Owned.Read()
	}

	return &Scope{
		reg:    reg,
		rt:     id,
		parent: parent,
		alloc:  arena.New(opts.Strategy, capacity),
		owns:   make([]slot.Ref, 0, ownedCap),
		h:      h,
	}
}

// Runtime returns the id of the runtime this scope registers state against.
func (s *Scope) Runtime() runtime.ID {
	return s.rt
}

// Owned returns the number of handles this scope has registered.
func (s *Scope) Owned() int {
	return len(s.owns)
}

// AllocatedBytes returns the bytes allocated in this scope's region so far.
func (s *Scope) AllocatedBytes() int {
	return int(s.alloc.Used())
}

// UseState allocates value in the scope's region, registers a
// destructor-bearing cell for it in the runtime's slot table, and returns a
// copyable handle. The cell lives exactly as long as the scope.
func UseState[T any](s *Scope, value T) State[T] {
	s.checkLive("scope.UseState")
	p := arena.AllocValue(s.alloc, value)
	var ref slot.Ref
	s.reg.With(s.rt, func(rt *runtime.Runtime) {
		ref = rt.States().Insert(p, destroyCell(p))
	})
	s.owns = append(s.owns, ref)
	return State[T]{reg: s.reg, rt: s.rt, ref: ref}
}

// UseStateWith is UseState for self-referential values: ctor receives the
// not-yet-populated handle first, so the constructed value can capture a
// handle to itself (for example, inside a stored callback) before it exists
// in the table. Borrowing the handle before ctor returns is fatal.
func UseStateWith[T any](s *Scope, ctor func(State[T]) T) State[T] {
	s.checkLive("scope.UseStateWith")
	var ref slot.Ref
	s.reg.With(s.rt, func(rt *runtime.Runtime) {
		ref = rt.States().InsertWith(func(future slot.Ref) (any, func()) {
			value := ctor(State[T]{reg: s.reg, rt: s.rt, ref: future})
			p := arena.AllocValue(s.alloc, value)
			return p, destroyCell(p)
		})
	})
	s.owns = append(s.owns, ref)
	return State[T]{reg: s.reg, rt: s.rt, ref: ref}
}

// destroyCell builds the destructor for a cell at p: dispose the value if it
// asks for it, then zero the cell so heap-owned referents are released.
func destroyCell[T any](p *T) func() {
	return func() {
		if d, ok := any(p).(Disposable); ok {
			d.Dispose()
		} else if d, ok := any(*p).(Disposable); ok {
			d.Dispose()
		}
		var zero T
		*p = zero
	}
}

// Drop releases the scope. In order: child scopes are dropped (list order),
// every owned handle is removed from the slot table (destructors run), the
// actual usage is reported to the capacity heuristics, and the bump region
// is released as one block. Any handle into this scope or its descendants
// is stale afterwards.
//
// A scope is dropped exactly once: either directly, when the renderer
// discards a subtree, or through its parent's cascade. A direct Drop
// detaches the scope from its parent so the later cascade skips it.
// Dropping the same scope twice is fatal.
func (s *Scope) Drop() {
	if s.dropped {
		errors.Fatalf("scope.Scope.Drop", errors.KindDoubleRemove, "", "scope was already dropped")
	}
	s.dropped = true

	if s.parent != nil {
		s.parent.detach(s)
		s.parent = nil
	}

	for _, child := range s.children {
		child.parent = nil // skip detach inside the cascade
		child.Drop()
	}
	s.children = nil

	s.reg.With(s.rt, func(rt *runtime.Runtime) {
		for _, ref := range s.owns {
			rt.States().Remove(ref)
		}
	})

	s.recordUsage()
	s.owns = nil
	s.alloc.Reset()
}

// recordUsage writes the scope's actual usage into the heuristics that will
// size the next scope at the same tree position.
func (s *Scope) recordUsage() {
	if s.h == nil {
		return
	}
	s.h.Bytes.Write(int(s.alloc.Used()))
	s.h.Owned.Write(len(s.owns))
}

// detach removes child from the child list without dropping it.
func (s *Scope) detach(child *Scope) {
	for i, c := range s.children {
		if c == child {
			last := len(s.children) - 1
			s.children[i] = s.children[last]
			s.children[last] = nil
			s.children = s.children[:last]
			return
		}
	}
}

func (s *Scope) checkLive(op string) {
	if s.dropped {
		errors.Fatalf(op, errors.KindStaleHandle, "", "scope was already dropped")
	}
}
