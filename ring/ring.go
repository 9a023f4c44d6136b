// Package ring implements the single-producer, single-consumer byte ring
// the session engine stages outbound packets into (spec.md §4.1, C1).
//
// No ring-buffer library appears anywhere in the retrieval pack the rest
// of this module was grounded on (the repo's only "ring" hits are Linux
// io_uring bindings, an unrelated kernel interface) — see DESIGN.md for
// why this component is hand-rolled on a plain []byte rather than
// imported.
package ring

// Buffer is a bounded FIFO for outgoing bytes with a linear-contiguous
// read window sized for a transport that accepts one contiguous buffer
// per send.
type Buffer struct {
	buf      []byte
	readPos  int
	writePos int
	occupied int
}

// New allocates a Buffer with the given byte capacity.
func New(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, capacity)}
}

// Cap returns the buffer's total byte capacity.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// FreeSpace returns the number of bytes that can currently be written.
func (b *Buffer) FreeSpace() int {
	return len(b.buf) - b.occupied
}

// Write appends p to the ring. Per spec.md §4.1, writes never
// partial-write: callers are expected to check FreeSpace first, and
// Write rejects the whole call (returning 0, false) rather than writing
// a prefix if p doesn't fit.
func (b *Buffer) Write(p []byte) (int, bool) {
	if len(p) > b.FreeSpace() {
		return 0, false
	}
	if len(p) == 0 {
		return 0, true
	}

	n := copy(b.buf[b.writePos:], p)
	if n < len(p) {
		copy(b.buf, p[n:])
	}
	b.writePos = (b.writePos + len(p)) % len(b.buf)
	b.occupied += len(p)
	return len(p), true
}

// LinearRead returns the largest contiguous, currently-readable slice.
// When the occupied region wraps around the end of the backing array,
// this may be shorter than the total occupancy — the caller (flush)
// is expected to call LinearRead again after Skip to drain the rest.
func (b *Buffer) LinearRead() []byte {
	if b.occupied == 0 {
		return nil
	}
	n := b.occupied
	if b.readPos+n > len(b.buf) {
		n = len(b.buf) - b.readPos
	}
	return b.buf[b.readPos : b.readPos+n]
}

// Skip advances the read pointer by n bytes after a successful transport
// send, reclaiming that space for future writes.
func (b *Buffer) Skip(n int) {
	if n <= 0 {
		return
	}
	if n > b.occupied {
		n = b.occupied
	}
	b.readPos = (b.readPos + n) % len(b.buf)
	b.occupied -= n
}

// Reset repositions both pointers to the start of the backing array.
// Only valid when the buffer is empty; resetting when empty maximises
// the chance that the next staged packet gets a single-shot contiguous
// send instead of wrapping.
func (b *Buffer) Reset() {
	if b.occupied != 0 {
		return
	}
	b.readPos = 0
	b.writePos = 0
}

// Occupied returns the number of bytes currently staged.
func (b *Buffer) Occupied() int {
	return b.occupied
}
