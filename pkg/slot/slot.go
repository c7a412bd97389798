// Package slot implements the generational slot table behind state handles.
//
// A Table maps stable [Ref] handles to type-erased value cells, each carrying
// a destructor that runs exactly once when the cell is removed. Freed indices
// are recycled with a bumped generation, so a handle retained past removal
// can never address a successor cell: it is detected as stale instead.
//
// The table performs no reference counting and no implicit cleanup. Every
// inserted cell must be removed exactly once by its owner (a scope), or
// destroyed wholesale by Drop when the owning runtime is torn down. Misuse
// is fatal by design; see the package errors taxonomy.
//
// A Table is not thread-safe. It belongs to one runtime, which is confined
// to one logical execution context.
package slot

import (
	"fmt"

	"github.com/go-quill/quill/pkg/errors"
)

// Ref is a stable, generational reference to one table cell. The zero Ref
// is invalid. A Ref must not be used after its cell is removed.
type Ref struct {
	index uint32
	gen   uint32
}

// IsValid reports whether r was ever issued by a table. It does not check
// liveness; a removed handle is "valid" but stale.
func (r Ref) IsValid() bool {
	return r.gen != 0
}

func (r Ref) String() string {
	return fmt.Sprintf("slot.Ref(%d@%d)", r.index, r.gen)
}

type cellState uint8

const (
	cellEmpty cellState = iota
	cellReserved
	cellLive
)

type cell struct {
	state   cellState
	gen     uint32
	value   any
	destroy func()
}

// Table is a generational slab of type-erased value cells.
type Table struct {
	cells []cell
	free  []uint32 // free-list (stack)
	live  int
}

// NewTable creates a Table pre-sized for about capacity cells.
func NewTable(capacity int) *Table {
	return &Table{
		cells: make([]cell, 0, capacity),
	}
}

// Insert stores value with its destructor and returns a fresh handle.
// The destructor may be nil. O(1); freed indices are reused.
func (t *Table) Insert(value any, destroy func()) Ref {
	ref := t.reserve()
	t.fill(ref, value, destroy)
	return ref
}

// InsertWith reserves a cell first, hands its future handle to fill, then
// stores whatever fill returns. This is the primitive behind
// self-referential state: the constructed value may capture its own handle
// before it exists in the table. Accessing the handle before fill returns
// is fatal.
func (t *Table) InsertWith(fill func(Ref) (value any, destroy func())) Ref {
	ref := t.reserve()
	value, destroy := fill(ref)
	t.fill(ref, value, destroy)
	return ref
}

func (t *Table) reserve() Ref {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.cells))
		t.cells = append(t.cells, cell{})
	}
	c := &t.cells[idx]
	c.gen++
	c.state = cellReserved
	return Ref{index: idx, gen: c.gen}
}

func (t *Table) fill(ref Ref, value any, destroy func()) {
	c := &t.cells[ref.index]
	c.value = value
	c.destroy = destroy
	c.state = cellLive
	t.live++
}

// Remove invalidates the handle and runs the cell's destructor exactly once.
// Removing the same handle twice is fatal.
func (t *Table) Remove(ref Ref) {
	c := t.lookup("slot.Table.Remove", ref, true)
	switch c.state {
	case cellEmpty:
		errors.Fatalf("slot.Table.Remove", errors.KindDoubleRemove, ref.String(),
			"cell was already removed")
	case cellReserved:
		errors.Fatalf("slot.Table.Remove", errors.KindStaleHandle, ref.String(),
			"cell is reserved but not yet constructed")
	}
	destroy := c.destroy
	c.state = cellEmpty
	c.value = nil
	c.destroy = nil
	t.live--
	t.free = append(t.free, ref.index)
	if destroy != nil {
		destroy()
	}
}

// Borrow returns the live value behind ref. Fatal if the handle is stale.
func (t *Table) Borrow(ref Ref) any {
	c := t.lookup("slot.Table.Borrow", ref, false)
	switch c.state {
	case cellEmpty:
		errors.Fatalf("slot.Table.Borrow", errors.KindStaleHandle, ref.String(),
			"cell was already removed")
	case cellReserved:
		errors.Fatalf("slot.Table.Borrow", errors.KindStaleHandle, ref.String(),
			"cell is reserved but not yet constructed")
	}
	return c.value
}

// lookup resolves ref to its cell or fails fatally. A handle generation
// behind the cell's means the handle was removed earlier: a double remove
// when removing, a stale access when borrowing. Anything else never came
// from this table.
func (t *Table) lookup(op string, ref Ref, removing bool) *cell {
	if !ref.IsValid() || int(ref.index) >= len(t.cells) {
		errors.Fatalf(op, errors.KindStaleHandle, ref.String(), "handle was not issued by this table")
	}
	c := &t.cells[ref.index]
	if ref.gen != c.gen {
		kind := errors.KindStaleHandle
		if removing && ref.gen < c.gen {
			kind = errors.KindDoubleRemove
		}
		errors.Fatalf(op, kind, ref.String(), "cell was removed (generation %d, handle %d)", c.gen, ref.gen)
	}
	return c
}

// Len returns the number of live cells.
func (t *Table) Len() int {
	return t.live
}

// Drop destroys every live cell. Used at runtime teardown, where cells not
// yet removed by their scopes still get their destructor run exactly once.
// The table must not be used afterwards.
func (t *Table) Drop() {
	for i := range t.cells {
		c := &t.cells[i]
		if c.state != cellLive {
			continue
		}
		destroy := c.destroy
		c.state = cellEmpty
		c.value = nil
		c.destroy = nil
		c.gen++
		if destroy != nil {
			destroy()
		}
	}
	t.cells = nil
	t.free = nil
	t.live = 0
}
