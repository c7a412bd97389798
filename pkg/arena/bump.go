package arena

import (
	"fmt"
	"unsafe"
)

const (
	// minSlabSize is the smallest slab a Bump will allocate. Scope usage is
	// typically a few hundred bytes, so slabs stay small until the capacity
	// heuristic asks for more.
	minSlabSize = 1 << 10 // 1 KiB

	// maxTotalSize caps the total bytes across all slabs of one Bump.
	maxTotalSize = 256 << 20 // 256 MiB
)

// Bump is a multi-slab bump allocator. It carves allocations forward out of
// pre-allocated byte slabs, adding a new slab when the current one is
// exhausted, and releases everything at once via Reset. It is not
// thread-safe.
//
// Slabs are plain byte slices: the garbage collector does not scan them, so
// values containing Go pointers must not live here. [Alloc] enforces this by
// routing pointer-bearing types to individual heap cells.
//
// Zeroing is performed lazily at allocation time using clear(), which
// compiles to an optimized memclr.
type Bump struct {
	slabs    [][]byte // all slabs (index 0 = first allocated)
	current  int      // index of the active slab
	offset   uintptr  // offset within the current slab
	consumed uintptr  // bytes carved from slabs left behind since the last Reset
	slabSize int      // size of each new slab
	total    uintptr  // total slab bytes allocated
	external uintptr  // bytes routed to heap cells since the last Reset
	peak     uintptr  // high-water mark of Used across resets
}

// NewBump creates a Bump whose first slab holds about capacity bytes.
// Capacity below the minimum slab size is rounded up.
func NewBump(capacity int) *Bump {
	size := capacity
	if size < minSlabSize {
		size = minSlabSize
	}
	return &Bump{
		slabs:    [][]byte{make([]byte, size)},
		slabSize: size,
		total:    uintptr(size),
	}
}

// RawAlloc returns a pointer to a zeroed region of at least size bytes,
// aligned to align, from the current slab. If the current slab is exhausted,
// the next retained slab is reused or a new one is allocated. Panics if the
// total cap is exceeded.
func (b *Bump) RawAlloc(size, align uintptr) unsafe.Pointer {
	slab := b.slabs[b.current]

	aligned := (b.offset + align - 1) &^ (align - 1)
	end := aligned + size

	if end > uintptr(len(slab)) {
		b.consumed += b.offset
		b.current++
		for b.current < len(b.slabs) && uintptr(len(b.slabs[b.current])) < size {
			b.current++ // retained slab too small for this request
		}
		if b.current < len(b.slabs) {
			slab = b.slabs[b.current]
		} else {
			newSize := b.slabSize
			if int(size) > newSize {
				newSize = int(size + align) // oversized allocation
			}
			if b.total+uintptr(newSize) > maxTotalSize {
				panic(fmt.Sprintf("arena: total allocation exceeds %d byte cap", uintptr(maxTotalSize)))
			}
			slab = make([]byte, newSize)
			b.slabs = append(b.slabs, slab)
			b.total += uintptr(newSize)
		}
		b.offset = 0
		aligned = 0 // offset 0 is always aligned
		end = size
	}

	clear(slab[aligned:end])

	b.offset = end
	return unsafe.Pointer(&slab[aligned])
}

// Reset rewinds the allocator to the first slab. Retained slabs are kept for
// reuse; zeroing is deferred to the next RawAlloc, so Reset is O(1).
func (b *Bump) Reset() {
	if used := b.Used(); used > b.peak {
		b.peak = used
	}
	b.current = 0
	b.offset = 0
	b.consumed = 0
	b.external = 0
}

// Used returns the bytes allocated since the last Reset, including cells
// routed outside the slabs. Slabs skipped because they were too small for
// a request do not count.
func (b *Bump) Used() uintptr {
	return b.consumed + b.offset + b.external
}

// Peak returns the high-water mark of Used across all resets.
func (b *Bump) Peak() uintptr {
	if used := b.Used(); used > b.peak {
		return used
	}
	return b.peak
}

// SlabCount returns the number of slabs allocated. A scope pre-sized by an
// accurate capacity guess finishes its lifetime with a single slab.
func (b *Bump) SlabCount() int {
	return len(b.slabs)
}

// TotalCapacity returns the total bytes across all slabs.
func (b *Bump) TotalCapacity() uintptr {
	return b.total
}

func (b *Bump) addExternal(size uintptr) {
	b.external += size
}
