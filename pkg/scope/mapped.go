package scope

// Mapped is a lens over a State: a read projection and a write projection
// into a sub-field of T, plus an update hook invoked after every mutation
// through the lens. A renderer typically passes a hook that schedules a
// re-render. The lens owns no storage; it is a pure indirection over the
// base handle.
type Mapped[T, U any] struct {
	base     State[T]
	read     func(*T) *U
	write    func(*T) *U
	onUpdate func()
}

// Map builds a lens over s. read projects for immutable access, write for
// mutable access, and onUpdate (may be nil) runs after each mutation.
func Map[T, U any](s State[T], read func(*T) *U, write func(*T) *U, onUpdate func()) Mapped[T, U] {
	return Mapped[T, U]{base: s, read: read, write: write, onUpdate: onUpdate}
}

// Base returns the handle the lens projects from.
func (m Mapped[T, U]) Base() State[T] {
	return m.base
}

// WithMapped borrows through the lens immutably, applies f, and returns its
// result.
func WithMapped[T, U, R any](m Mapped[T, U], f func(*U) R) R {
	return With(m.base, func(t *T) R {
		return f(m.read(t))
	})
}

// WithMappedMut borrows through the lens mutably, applies f, invokes the
// update hook, and returns f's result.
func WithMappedMut[T, U, R any](m Mapped[T, U], f func(*U) R) R {
	r := WithMut(m.base, func(t *T) R {
		return f(m.write(t))
	})
	if m.onUpdate != nil {
		m.onUpdate()
	}
	return r
}

// Get returns a copy of the projected value.
func (m Mapped[T, U]) Get() U {
	return WithMapped(m, func(u *U) U { return *u })
}

// Set replaces the projected value and fires the update hook.
func (m Mapped[T, U]) Set(value U) {
	WithMappedMut(m, func(u *U) struct{} {
		*u = value
		return struct{}{}
	})
}
