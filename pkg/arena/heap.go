package arena

import "unsafe"

// Heap allocates every state value as its own heap cell via new(T). It keeps
// the byte accounting of the bump strategy so capacity heuristics behave the
// same way, but owns no storage: cell lifetime is managed by the slot table's
// destructors, and Reset releases nothing.
type Heap struct {
	used uintptr
	peak uintptr
}

// RawAlloc satisfies [Allocator]. [Alloc] never routes through it for a
// *Heap; direct callers get a zeroed standalone cell.
func (h *Heap) RawAlloc(size, align uintptr) unsafe.Pointer {
	h.used += size
	if size == 0 {
		return unsafe.Pointer(new(byte))
	}
	buf := make([]byte, size)
	return unsafe.Pointer(&buf[0])
}

// Reset ends the accounting cycle. Cells handed out earlier remain valid;
// they are individually owned.
func (h *Heap) Reset() {
	if h.used > h.peak {
		h.peak = h.used
	}
	h.used = 0
}

// Used returns the bytes handed out since the last Reset.
func (h *Heap) Used() uintptr {
	return h.used
}

// Peak returns the high-water mark of Used across resets.
func (h *Heap) Peak() uintptr {
	if h.used > h.peak {
		return h.used
	}
	return h.peak
}

func (h *Heap) addExternal(size uintptr) {
	h.used += size
}
