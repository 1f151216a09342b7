// Package alloc implements the buffer & allocator abstraction of
// spec.md §4.1 (component C1): contiguous byte regions, heap or
// direct, with expand/release/transfer/zero operations. It is the
// lowest layer of the core — every encoder (package column) and every
// column-batch value (package batchvalue) allocates through an
// Allocator rather than calling make([]byte, ...) directly, so that a
// caller can swap in an off-heap-backed implementation without
// touching the encoding logic above it.
package alloc

import (
	"fmt"
)

// MaxBufferSize is the hard cap on any single buffer's size, matching
// spec.md §4.1's "hard cap at 2,147,483,646 bytes".
const MaxBufferSize = 2147483646

// Buffer is a contiguous byte region owned by exactly one Allocator.
// It carries enough metadata (direct vs. heap, storage-tagged or not)
// for the owning Allocator to release or expand it correctly, but the
// metadata is opaque to callers — they only ever see Bytes().
type Buffer struct {
	b          []byte
	direct     bool
	forStorage bool
	owner      string
	released   bool
}

// Bytes returns the buffer's current contents. The returned slice
// aliases the buffer's backing array; callers must not retain it past
// the buffer's release.
func (buf *Buffer) Bytes() []byte {
	if buf == nil {
		return nil
	}

	return buf.b
}

// Len returns the number of bytes currently in use.
func (buf *Buffer) Len() int {
	if buf == nil {
		return 0
	}

	return len(buf.b)
}

// Cap returns the buffer's allocated capacity.
func (buf *Buffer) Cap() int {
	if buf == nil {
		return 0
	}

	return cap(buf.b)
}

// IsDirect reports whether the buffer was allocated off-heap.
func (buf *Buffer) IsDirect() bool {
	return buf != nil && buf.direct
}

// IsForStorage reports whether the buffer was tagged for long-lived
// storage accounting via AllocateForStorage.
func (buf *Buffer) IsForStorage() bool {
	return buf != nil && buf.forStorage
}

// SetLen resizes the buffer's in-use length without reallocating.
// Panics if n exceeds the buffer's capacity, matching the teacher's
// pool.ByteBuffer.SetLength convention of panicking on programmer
// error rather than silently truncating.
func (buf *Buffer) SetLen(n int) {
	if n < 0 || n > cap(buf.b) {
		panic(fmt.Sprintf("alloc: SetLen(%d) out of range [0, %d]", n, cap(buf.b)))
	}
	buf.b = buf.b[:n]
}

// Slice returns buf.b[start:end], validating bounds against capacity.
func (buf *Buffer) Slice(start, end int) []byte {
	if start < 0 || end < start || end > cap(buf.b) {
		panic("alloc: Slice indices out of range")
	}

	return buf.b[start:end]
}
