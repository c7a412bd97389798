package scope

import (
	"fmt"
	"testing"

	"github.com/go-quill/quill/pkg/errors"
	"github.com/go-quill/quill/pkg/runtime"
)

func TestStateCopiesAlias(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	h := UseState(root, 1)
	copied := h

	copied.Set(2)
	if h.Get() != 2 {
		t.Errorf("copies must alias the same cell, got %d", h.Get())
	}

	root.Drop()
	reg.DropRuntime(id)
}

func TestStateUpdate(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	h := UseState(root, 10)
	h.Update(func(v int) int { return v * 2 })
	if h.Get() != 20 {
		t.Errorf("expected 20, got %d", h.Get())
	}

	root.Drop()
	reg.DropRuntime(id)
}

func TestStateStringFormatsValue(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	h := UseState(root, 42)
	if got := fmt.Sprintf("%v", h); got != "42" {
		t.Errorf("expected the handle to print its value, got %q", got)
	}

	s := UseState(root, point{X: 1, Y: 2})
	if got := s.String(); got != "{1 2}" {
		t.Errorf("expected '{1 2}', got %q", got)
	}

	root.Drop()
	reg.DropRuntime(id)
}

func TestTypeMismatchIsFatal(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	h := UseState(root, 1)
	wrong := State[string]{reg: reg, rt: id, ref: h.Ref()}

	expectFatal(t, errors.KindTypeMismatch, func() {
		wrong.Get()
	})

	root.Drop()
	reg.DropRuntime(id)
}

type point struct {
	X, Y int
}

func TestMappedLens(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	h := UseState(root, point{X: 1, Y: 2})

	updates := 0
	x := Map(h,
		func(p *point) *int { return &p.X },
		func(p *point) *int { return &p.X },
		func() { updates++ },
	)

	if x.Get() != 1 {
		t.Errorf("expected projected 1, got %d", x.Get())
	}
	if updates != 0 {
		t.Errorf("reads must not fire the update hook, got %d", updates)
	}

	x.Set(5)
	if updates != 1 {
		t.Errorf("expected one update after Set, got %d", updates)
	}
	if h.Get().X != 5 {
		t.Errorf("expected base X=5, got %d", h.Get().X)
	}
	if h.Get().Y != 2 {
		t.Errorf("lens must not touch other fields, got Y=%d", h.Get().Y)
	}

	doubled := WithMappedMut(x, func(v *int) int {
		*v *= 2
		return *v
	})
	if doubled != 10 {
		t.Errorf("expected 10, got %d", doubled)
	}
	if updates != 2 {
		t.Errorf("expected two updates, got %d", updates)
	}

	root.Drop()
	reg.DropRuntime(id)
}

func TestMappedNilUpdateHook(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	h := UseState(root, point{X: 3})
	x := Map(h,
		func(p *point) *int { return &p.X },
		func(p *point) *int { return &p.X },
		nil,
	)

	x.Set(4)
	if x.Get() != 4 {
		t.Errorf("expected 4, got %d", x.Get())
	}

	root.Drop()
	reg.DropRuntime(id)
}

func TestMappedBase(t *testing.T) {
	reg, id := newTestRuntime(t, runtime.Options{})
	root := New(reg, id, nil)

	h := UseState(root, point{})
	x := Map(h,
		func(p *point) *int { return &p.X },
		func(p *point) *int { return &p.X },
		nil,
	)
	if x.Base().Ref() != h.Ref() {
		t.Error("lens must project from its base handle")
	}

	root.Drop()
	reg.DropRuntime(id)
}
