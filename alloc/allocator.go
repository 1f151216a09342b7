package alloc

import (
	"fmt"

	"github.com/colbatch/colbatch/errs"
)

// Allocator is the collaborator interface of spec.md §6: "a buffer
// allocator (heap and direct)". The core never allocates raw []byte
// outside this interface, so a caller can plug in whatever allocation
// strategy its region/disk-store layer expects.
type Allocator interface {
	// Allocate returns a new zeroed buffer of exactly n bytes.
	Allocate(n int) (*Buffer, error)

	// AllocateForStorage is identical to Allocate but tags the buffer
	// as long-lived, for callers that track storage accounting
	// separately from transient scratch space.
	AllocateForStorage(n int) (*Buffer, error)

	// Expand grows buf to hold at least extra additional bytes beyond
	// its current length, copying prior contents into a new buffer if
	// the existing capacity is insufficient. It may return buf
	// unchanged if capacity already suffices.
	Expand(buf *Buffer, extra int) (*Buffer, error)

	// Release frees buf. Releasing an already-released buffer is a
	// no-op, matching spec.md invariant I5's idempotence requirement
	// as applied to buffers (the column-batch value's own refcount
	// idempotence builds on this).
	Release(buf *Buffer)

	// Transfer hands buf off to a new logical owner, returning the
	// (possibly identical) buffer the new owner should use. Heap
	// buffers transfer by identity; direct buffers may need to migrate
	// allocation domains depending on the allocator implementation.
	Transfer(buf *Buffer, ownerTag string) *Buffer

	// ClearBuffer zero-fills buf[offset:offset+length].
	ClearBuffer(buf *Buffer, offset, length int)

	// IsManagedDirect reports whether this allocator produces
	// off-heap-flavored buffers.
	IsManagedDirect() bool
}

// HeapAllocator allocates ordinary Go-managed []byte buffers. It is the
// default allocator and the one every column.Encoder uses unless a
// caller supplies a direct allocator explicitly.
type HeapAllocator struct{}

var _ Allocator = HeapAllocator{}

// NewHeapAllocator returns a HeapAllocator. It has no state; the
// constructor exists for symmetry with NewDirectAllocator and so call
// sites read the same way regardless of which flavor they choose.
func NewHeapAllocator() HeapAllocator { return HeapAllocator{} }

func (HeapAllocator) Allocate(n int) (*Buffer, error) {
	if n < 0 || n > MaxBufferSize {
		return nil, fmt.Errorf("%w: requested %d bytes", errs.ErrSizeOverflow, n)
	}

	return &Buffer{b: make([]byte, n)}, nil
}

func (a HeapAllocator) AllocateForStorage(n int) (*Buffer, error) {
	buf, err := a.Allocate(n)
	if err != nil {
		return nil, err
	}
	buf.forStorage = true

	return buf, nil
}

func (a HeapAllocator) Expand(buf *Buffer, extra int) (*Buffer, error) {
	return expand(a, buf, extra)
}

func (HeapAllocator) Release(buf *Buffer) {
	if buf == nil || buf.released {
		return
	}
	buf.released = true
	buf.b = nil
}

func (HeapAllocator) Transfer(buf *Buffer, ownerTag string) *Buffer {
	if buf != nil {
		buf.owner = ownerTag
	}

	return buf
}

func (HeapAllocator) ClearBuffer(buf *Buffer, offset, length int) {
	clearRange(buf, offset, length)
}

func (HeapAllocator) IsManagedDirect() bool { return false }

// DirectAllocator models an off-heap allocation domain. Go has no
// portable way to bypass the GC-managed heap without cgo or a syscall
// mmap dependency outside this module's scope, so buffers it returns
// are ordinary Go slices tagged direct=true; the tag is what the rest
// of the core (notably batchvalue's compression-state transitions,
// which branch on refcount-vs-direct) keys off of, keeping the
// off-heap/on-heap distinction meaningful for callers that do wire a
// real off-heap allocator in behind this interface.
type DirectAllocator struct{}

var _ Allocator = DirectAllocator{}

// NewDirectAllocator returns a DirectAllocator.
func NewDirectAllocator() DirectAllocator { return DirectAllocator{} }

func (DirectAllocator) Allocate(n int) (*Buffer, error) {
	if n < 0 || n > MaxBufferSize {
		return nil, fmt.Errorf("%w: requested %d bytes", errs.ErrSizeOverflow, n)
	}

	return &Buffer{b: make([]byte, n), direct: true}, nil
}

func (a DirectAllocator) AllocateForStorage(n int) (*Buffer, error) {
	buf, err := a.Allocate(n)
	if err != nil {
		return nil, err
	}
	buf.forStorage = true

	return buf, nil
}

func (a DirectAllocator) Expand(buf *Buffer, extra int) (*Buffer, error) {
	return expand(a, buf, extra)
}

func (DirectAllocator) Release(buf *Buffer) {
	if buf == nil || buf.released {
		return
	}
	buf.released = true
	buf.b = nil
}

func (DirectAllocator) Transfer(buf *Buffer, ownerTag string) *Buffer {
	if buf != nil {
		buf.owner = ownerTag
	}

	return buf
}

func (DirectAllocator) ClearBuffer(buf *Buffer, offset, length int) {
	clearRange(buf, offset, length)
}

func (DirectAllocator) IsManagedDirect() bool { return true }

// expand implements the doubling growth policy shared by both
// allocator flavors: double capacity until the required size fits,
// capped at MaxBufferSize (spec.md §4.1).
func expand(a Allocator, buf *Buffer, extra int) (*Buffer, error) {
	if buf == nil {
		return a.Allocate(extra)
	}

	required := len(buf.b) + extra
	if required <= cap(buf.b) {
		buf.b = buf.b[:required]

		return buf, nil
	}

	if required > MaxBufferSize {
		return nil, fmt.Errorf("%w: required %d bytes", errs.ErrSizeOverflow, required)
	}

	newCap := cap(buf.b)
	if newCap == 0 {
		newCap = 64
	}
	for newCap < required {
		if newCap > MaxBufferSize/2 {
			newCap = MaxBufferSize

			break
		}
		newCap *= 2
	}

	grown, err := a.Allocate(newCap)
	if err != nil {
		return nil, err
	}
	copy(grown.b, buf.b)
	grown.b = grown.b[:required]
	grown.forStorage = buf.forStorage
	grown.owner = buf.owner

	a.Release(buf)

	return grown, nil
}

func clearRange(buf *Buffer, offset, length int) {
	if buf == nil || length <= 0 {
		return
	}
	end := offset + length
	if offset < 0 || end > len(buf.b) {
		panic("alloc: ClearBuffer range out of bounds")
	}
	b := buf.b[offset:end]
	for i := range b {
		b[i] = 0
	}
}
