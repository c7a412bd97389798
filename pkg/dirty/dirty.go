// Package dirty provides the read/write tracking bitset a renderer uses to
// detect which state cells were touched during a render pass.
//
// A [TrackSet] keeps two fixed-width bit registers, one for reads and one
// for writes. Guard access through [RW] sets the read bit on Get and the
// write bit on Set or Ptr. Bits are purely additive within a pass: once set
// they stay set until the renderer calls ResetRead or ResetWrite, typically
// once per frame.
//
// This sits on a hot per-frame path; Track performs no bounds checking. The
// caller guarantees the index fits the register width.
package dirty

// Bits is the set of unsigned integer types usable as a bit register. The
// register width bounds how many items can be tracked.
type Bits interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// TrackSet holds the read and write registers for up to bit-width items.
// The zero value is ready to use. Not thread-safe; it belongs to the render
// pass of one runtime.
type TrackSet[R, W Bits] struct {
	read  R
	write W
}

// Track returns a cursor for bit index. The caller guarantees index is
// below the register width; larger indices silently shift out.
func (t *TrackSet[R, W]) Track(index uint8) Track[R, W] {
	return Track[R, W]{set: t, index: index}
}

// IsRead reports whether bit index of the read register is set.
func (t *TrackSet[R, W]) IsRead(index uint8) bool {
	return t.read&(1<<index) != 0
}

// IsWrite reports whether bit index of the write register is set.
func (t *TrackSet[R, W]) IsWrite(index uint8) bool {
	return t.write&(1<<index) != 0
}

// ReadBits returns the whole read register.
func (t *TrackSet[R, W]) ReadBits() R {
	return t.read
}

// WriteBits returns the whole write register.
func (t *TrackSet[R, W]) WriteBits() W {
	return t.write
}

// ResetRead clears the read register.
func (t *TrackSet[R, W]) ResetRead() {
	t.read = 0
}

// ResetWrite clears the write register.
func (t *TrackSet[R, W]) ResetWrite() {
	t.write = 0
}

// Track is a lightweight cursor referencing one bit index of a TrackSet.
type Track[R, W Bits] struct {
	set   *TrackSet[R, W]
	index uint8
}

// MarkRead sets the cursor's read bit.
func (c Track[R, W]) MarkRead() {
	c.set.read |= 1 << c.index
}

// MarkWrite sets the cursor's write bit.
func (c Track[R, W]) MarkWrite() {
	c.set.write |= 1 << c.index
}

// RW wraps a value pointer with a tracking cursor: reading through the
// guard marks the read bit, mutating marks the write bit.
type RW[T any, R, W Bits] struct {
	data  *T
	track Track[R, W]
}

// Wrap guards data with the cursor for bit index of set.
func Wrap[T any, R, W Bits](set *TrackSet[R, W], index uint8, data *T) RW[T, R, W] {
	return RW[T, R, W]{data: data, track: set.Track(index)}
}

// Get returns the value and marks the read bit.
func (g RW[T, R, W]) Get() T {
	g.track.MarkRead()
	return *g.data
}

// Set stores the value and marks the write bit.
func (g RW[T, R, W]) Set(value T) {
	g.track.MarkWrite()
	*g.data = value
}

// Ptr returns the underlying pointer for in-place mutation and marks the
// write bit.
func (g RW[T, R, W]) Ptr() *T {
	g.track.MarkWrite()
	return g.data
}
