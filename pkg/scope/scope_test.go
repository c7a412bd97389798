package scope

import (
	"io"
	"testing"

	"github.com/go-quill/quill/pkg/arena"
	"github.com/go-quill/quill/pkg/errors"
	"github.com/go-quill/quill/pkg/runtime"
)

func expectFatal(t *testing.T, kind errors.ErrorKind, fn func()) {
	t.Helper()
	errors.SetLogOutput(io.Discard)
	defer errors.SetLogOutput(nil)
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected a fatal panic")
		}
		qe, ok := r.(*errors.QuillError)
		if !ok {
			t.Fatalf("expected *errors.QuillError, got %T: %v", r, r)
		}
		if qe.Kind != kind {
			t.Errorf("expected kind %s, got %s", kind, qe.Kind)
		}
	}()
	fn()
}

func newTestRuntime(t *testing.T, opts runtime.Options) (*runtime.Registry, runtime.ID) {
	t.Helper()
	reg := runtime.NewRegistry()
	return reg, reg.Create(opts)
}

type disposeCounter struct {
	n *int
}

func (d disposeCounter) Dispose() { *d.n++ }

func TestStateLifecycle(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})

	root := New(reg, id, nil)
	h := UseState(root, 42)

	got := With(h, func(v *int) int { return *v })
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	h.Set(43)
	if h.Get() != 43 {
		t.Errorf("expected 43, got %d", h.Get())
	}

	root.Drop()

	expectFatal(t, errors.KindStaleHandle, func() {
		h.Get()
	})
	reg.DropRuntime(id)
}

func TestDisposeRunsExactlyOnceOnScopeDrop(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})

	disposed := 0
	root := New(reg, id, nil)
	UseState(root, disposeCounter{n: &disposed})

	if disposed != 0 {
		t.Fatalf("value disposed before scope drop: %d", disposed)
	}
	root.Drop()
	if disposed != 1 {
		t.Errorf("expected exactly one dispose at scope drop, got %d", disposed)
	}

	reg.DropRuntime(id)
	if disposed != 1 {
		t.Errorf("runtime drop must not dispose again, got %d", disposed)
	}
}

func TestRuntimeDropDisposesUnremovedCells(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})

	disposed := 0
	root := New(reg, id, nil)
	UseState(root, disposeCounter{n: &disposed})

	// The renderer omitted root.Drop(); runtime teardown is the backstop.
	reg.DropRuntime(id)
	if disposed != 1 {
		t.Errorf("expected dispose at runtime drop, got %d", disposed)
	}
}

func TestChildReturnsBuildResult(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	got := Child(root, nil, func(s *Scope) string {
		UseState(s, 1)
		return "built"
	})
	if got != "built" {
		t.Errorf("expected 'built', got %q", got)
	}
	root.Drop()
	reg.DropRuntime(id)
}

func TestDropCascadesThroughDescendants(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	disposed := 0
	var leaf State[disposeCounter]
	Child(root, nil, func(mid *Scope) int {
		return Child(mid, nil, func(inner *Scope) int {
			leaf = UseState(inner, disposeCounter{n: &disposed})
			return 0
		})
	})

	// Child scopes outlive their build call; the handle is still live.
	leaf.Get()

	root.Drop()
	if disposed != 1 {
		t.Errorf("expected the leaf cell disposed once, got %d", disposed)
	}
	expectFatal(t, errors.KindStaleHandle, func() {
		leaf.Get()
	})
	reg.DropRuntime(id)
}

func TestDiscardedChildIsNotDroppedTwice(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	// A renderer discarding a subtree drops the child directly; the later
	// parent cascade must skip it.
	disposed := 0
	for i := 0; i < 3; i++ {
		child := Child(root, nil, func(s *Scope) *Scope {
			UseState(s, disposeCounter{n: &disposed})
			return s
		})
		child.Drop()
	}
	if disposed != 3 {
		t.Errorf("expected 3 disposals from discards, got %d", disposed)
	}

	root.Drop()
	if disposed != 3 {
		t.Errorf("parent cascade must not re-drop discarded children, got %d", disposed)
	}
	reg.DropRuntime(id)
}

func TestDoubleScopeDropIsFatal(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)
	root.Drop()

	expectFatal(t, errors.KindDoubleRemove, func() {
		root.Drop()
	})
	reg.DropRuntime(id)
}

func TestUseStateOnDroppedScopeIsFatal(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)
	root.Drop()

	expectFatal(t, errors.KindStaleHandle, func() {
		UseState(root, 1)
	})
	reg.DropRuntime(id)
}

type selfUpdating struct {
	self  State[selfUpdating]
	value int
	read  func() int
}

func TestUseStateWithSelfReference(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	h := UseStateWith(root, func(self State[selfUpdating]) selfUpdating {
		return selfUpdating{
			self:  self,
			value: 99,
			// The closure captures the handle before the value exists.
			read: func() int {
				return With(self, func(s *selfUpdating) int { return s.value })
			},
		}
	})

	stored := With(h, func(s *selfUpdating) State[selfUpdating] { return s.self })
	if stored.Ref() != h.Ref() {
		t.Errorf("stored handle %v does not round-trip to %v", stored.Ref(), h.Ref())
	}

	// Invoking the captured closure later reads back the constructed value.
	readBack := With(h, func(s *selfUpdating) func() int { return s.read })
	if got := readBack(); got != 99 {
		t.Errorf("expected 99 through the self handle, got %d", got)
	}

	root.Drop()
	reg.DropRuntime(id)
}

func TestScopeUsageAccounting(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{Strategy: arena.StrategyBump})
	root := New(reg, id, nil)

	UseState(root, int64(1))
	UseState(root, int64(2))

	if root.Owned() != 2 {
		t.Errorf("expected 2 owned handles, got %d", root.Owned())
	}
	if root.AllocatedBytes() != 16 {
		t.Errorf("expected 16 allocated bytes, got %d", root.AllocatedBytes())
	}

	root.Drop()
	reg.DropRuntime(id)
}

func TestHeapStrategyScope(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{Strategy: arena.StrategyHeap})
	root := New(reg, id, nil)

	disposed := 0
	h := UseState(root, 5)
	UseState(root, disposeCounter{n: &disposed})

	if h.Get() != 5 {
		t.Errorf("expected 5, got %d", h.Get())
	}
	if root.AllocatedBytes() == 0 {
		t.Error("heap strategy should still account bytes")
	}

	root.Drop()
	if disposed != 1 {
		t.Errorf("expected one dispose under heap strategy, got %d", disposed)
	}
	reg.DropRuntime(id)
}

func TestStateAcrossRuntimes(t *testing.T) {
	reg := runtime.NewRegistry()
	a := reg.Create(runtime.Options{Name: "a"})
	b := reg.Create(runtime.Options{Name: "b"})

	rootA := New(reg, a, nil)
	rootB := New(reg, b, nil)
	ha := UseState(rootA, "a-value")
	hb := UseState(rootB, "b-value")

	rootA.Drop()
	reg.DropRuntime(a)

	// b's state is untouched by a's teardown.
	if hb.Get() != "b-value" {
		t.Errorf("expected 'b-value', got %q", hb.Get())
	}
	expectFatal(t, errors.KindRuntimeGone, func() {
		ha.Get()
	})

	rootB.Drop()
	reg.DropRuntime(b)
}
