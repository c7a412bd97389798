package scope

import (
	"fmt"

	"github.com/go-quill/quill/pkg/errors"
	"github.com/go-quill/quill/pkg/runtime"
	"github.com/go-quill/quill/pkg/slot"
)

// DebugMode enables the type verification on every borrow. When false, a
// mistyped handle still fails, but with a plain interface-conversion panic
// instead of a structured type-mismatch error.
var DebugMode = true

// SetDebugMode enables or disables borrow-time type checking.
func SetDebugMode(debug bool) {
	DebugMode = debug
}

// State is a copyable, non-owning handle to a value in the slot table. It
// stays valid exactly as long as the scope that registered it; borrowing
// after that scope dropped is a fatal stale-handle error. Copies alias the
// same cell.
type State[T any] struct {
	reg *runtime.Registry
	rt  runtime.ID
	ref slot.Ref
}

// Ref returns the underlying slot handle.
func (s State[T]) Ref() slot.Ref {
	return s.ref
}

// IsValid reports whether the handle was ever issued. It does not check
// liveness.
func (s State[T]) IsValid() bool {
	return s.ref.IsValid()
}

// String formats the borrowed value, so a handle prints as transparently as
// the value it aliases. Fatal on a stale handle, like any other access.
func (s State[T]) String() string {
	return fmt.Sprintf("%v", *s.borrow("scope.State.String"))
}

// borrow resolves the handle to its typed cell or fails fatally.
func (s State[T]) borrow(op string) *T {
	var p *T
	s.reg.With(s.rt, func(rt *runtime.Runtime) {
		v := rt.States().Borrow(s.ref)
		if DebugMode {
			tp, ok := v.(*T)
			if !ok {
				errors.Fatalf(op, errors.KindTypeMismatch, s.ref.String(),
					"cell holds %T, handle expects %T", v, p)
			}
			p = tp
		} else {
			p = v.(*T)
		}
	})
	return p
}

// With borrows the value immutably, applies f, and returns its result.
func With[T, U any](s State[T], f func(*T) U) U {
	return f(s.borrow("scope.With"))
}

// WithMut borrows the value mutably, applies f, and returns its result.
func WithMut[T, O any](s State[T], f func(*T) O) O {
	return f(s.borrow("scope.WithMut"))
}

// Get returns a copy of the value.
func (s State[T]) Get() T {
	return *s.borrow("scope.State.Get")
}

// Set replaces the value.
func (s State[T]) Set(value T) {
	*s.borrow("scope.State.Set") = value
}

// Update applies a transformation to the value in place.
func (s State[T]) Update(transform func(T) T) {
	p := s.borrow("scope.State.Update")
	*p = transform(*p)
}
