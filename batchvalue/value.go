// Package batchvalue implements the column-batch value object
// (component C6): an allocator-owned buffer, a compression state
// machine that avoids needlessly recompressing a value under
// sustained read pressure, disk fault-in for evicted buffers, and
// reference counting so a value's buffer is released back to its
// allocator exactly once no matter how many collaborators hold it.
package batchvalue

import (
	"fmt"
	"sync"

	"github.com/colbatch/colbatch/alloc"
	"github.com/colbatch/colbatch/endian"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/format"
	"github.com/colbatch/colbatch/store"
)

// CompressionState tracks whether a Value's current in-memory buffer
// holds the compressed or decompressed representation, and how many
// consecutive decompressed reads it has served.
type CompressionState int32

const (
	// StateUnknown is both the zero-value sentinel for a Value that has
	// never had a buffer set, and the terminal state of a buffer whose
	// bytes are known not to shrink under the codec: buf holds the
	// decompressed bytes permanently, and Recompress stops attempting
	// to compress it.
	StateUnknown CompressionState = -1
	// StateCompressed means buf holds the codec-compressed bytes.
	StateCompressed CompressionState = 0
	// A CompressionState >= 1 means buf holds the decompressed bytes:
	// GetBuffer sets it to 1 when it decompresses in place, and each
	// Recompress call the value survives without being recompressed
	// adds one.
)

// maxConsecutiveDecompressions is the state a decompressed Value must
// reach before Recompress actually recompresses it: below it,
// Recompress only counts the call and keeps the decompressed buffer
// resident, so a value read again soon after is not compressed and
// immediately decompressed again. A freshly decompressed value
// (state 1) survives one Recompress call and is recompressed by the
// next. This is the MAX_CONSECUTIVE_COMPRESSIONS behavior spec.md
// §4.6 calls for.
const maxConsecutiveDecompressions = 2

// Value is a single column's stored buffer plus everything needed to
// manage its lifecycle: the allocator it was built with, the codec
// compressing it, its compression state, its disk fault-in location if
// its in-memory buffer has been evicted, and a reference count. Value
// is safe for concurrent use; every exported method that touches
// mutable state takes mu.
type Value struct {
	mu sync.Mutex

	allocator alloc.Allocator
	codec     store.Codec

	buf   *alloc.Buffer
	state CompressionState

	refCount int32
	released bool

	diskView  store.DiskRegionView
	diskID    store.DiskID
	hasDiskID bool
}

// New returns an empty Value bound to allocator and codec, with a
// reference count of 1.
func New(allocator alloc.Allocator, codec store.Codec) *Value {
	return &Value{
		allocator: allocator,
		codec:     codec,
		state:     StateUnknown,
		refCount:  1,
	}
}

// SetBuffer installs buf as the Value's compressed representation,
// taking ownership of it (the Value, not the caller, releases it back
// to the allocator).
func (v *Value) SetBuffer(buf *alloc.Buffer) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.buf = buf
	v.state = StateCompressed
	v.hasDiskID = false
}

// SetDiskLocation marks the Value as evicted from memory: its bytes
// now live only at id within view. The next GetBuffer call faults the
// buffer back in. This is how a Region signals that it compacted the
// Value's in-memory buffer away without losing the data.
func (v *Value) SetDiskLocation(view store.DiskRegionView, id store.DiskID) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.buf != nil {
		v.allocator.Release(v.buf)
		v.buf = nil
	}

	v.diskView = view
	v.diskID = id
	v.hasDiskID = true
	v.state = StateUnknown
}

// DiskID reports the Value's disk fault-in location, if any.
func (v *Value) DiskID() (store.DiskID, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.diskID, v.hasDiskID
}

// faultIn loads the Value's bytes from disk when its in-memory buffer
// has been evicted. Callers must hold v.mu.
func (v *Value) faultIn() error {
	if v.buf != nil || !v.hasDiskID {
		return nil
	}
	if v.diskView == nil {
		return fmt.Errorf("%w: value has a disk location but no DiskRegionView", errs.ErrNotInitialized)
	}

	if err := v.diskView.AcquireReadLock(); err != nil {
		return err
	}
	defer v.diskView.ReleaseReadLock()

	data, err := v.diskView.GetValueOnDiskNoLock(v.diskID)
	if err != nil {
		return err
	}

	buf, err := v.allocator.Allocate(len(data))
	if err != nil {
		return err
	}
	copy(buf.Bytes(), data)

	v.buf = buf
	v.state = StateCompressed

	return nil
}

// GetBuffer returns the Value's decompressed bytes, faulting the
// buffer in from disk first if it has been evicted, and decompressing
// it if the current buffer holds the compressed representation. The
// in-place replacement of the compressed buffer with the decompressed
// one happens when refCount == 1 or the buffer is heap-allocated: a
// shared Value (refCount > 1) holding a direct buffer must keep
// serving the compressed bytes to its other holders, so GetBuffer
// instead returns a throwaway decompressed copy and leaves v itself
// untouched.
func (v *Value) GetBuffer() (*alloc.Buffer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.released {
		return nil, errs.ErrReleased
	}

	if err := v.faultIn(); err != nil {
		return nil, err
	}

	if v.buf == nil {
		return nil, errs.ErrNotInitialized
	}

	if v.state != StateCompressed {
		return v.buf, nil
	}

	decompressed, err := v.codec.Decompress(v.buf.Bytes(), v.allocator)
	if err != nil {
		return nil, err
	}

	if v.refCount != 1 && v.buf.IsDirect() {
		return decompressed, nil
	}

	v.allocator.Release(v.buf)
	v.buf = decompressed
	v.state = 1

	return v.buf, nil
}

// Recompress converts the Value's buffer back to its compressed
// representation if it is currently decompressed and its state has
// reached maxConsecutiveDecompressions.
// Below that threshold it just counts one more survived call and
// leaves the buffer decompressed, so a value under sustained read
// pressure isn't compressed and immediately decompressed again on the
// next read. A Region calls this between reads to keep cold values'
// memory footprint small; it is a no-op for a value already
// compressed or one that has earned permanent decompressed residency
// because compressing it does not shrink it (StateUnknown).
func (v *Value) Recompress() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.released || v.buf == nil {
		return nil
	}

	if v.state == StateCompressed || v.state == StateUnknown {
		return nil
	}

	if v.state < maxConsecutiveDecompressions {
		v.state++
		return nil
	}

	compressed, err := v.codec.Compress(v.buf.Bytes(), v.buf.Len(), v.allocator)
	if err != nil {
		return err
	}

	if compressed.Len() >= v.buf.Len() {
		v.allocator.Release(compressed)
		v.state = StateUnknown
		return nil
	}

	v.allocator.Release(v.buf)
	v.buf = compressed
	v.state = StateCompressed

	return nil
}

// Retain increments the Value's reference count and returns it, for
// a second collaborator that needs to hold a reference beyond the
// caller that constructed or fetched it.
func (v *Value) Retain() *Value {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.refCount++

	return v
}

// Release decrements the Value's reference count, returning the
// underlying buffer to the allocator once it reaches zero. Calling
// Release more times than the Value has been retained returns
// errs.ErrRefCountUnderflow and leaves the Value's state unchanged.
func (v *Value) Release() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.refCount <= 0 {
		return errs.ErrRefCountUnderflow
	}

	v.refCount--
	if v.refCount > 0 {
		return nil
	}

	if v.buf != nil {
		v.allocator.Release(v.buf)
		v.buf = nil
	}
	v.released = true

	return nil
}

// RefCount returns the Value's current reference count.
func (v *Value) RefCount() int32 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.refCount
}

// serializationHeaderSize is the size in bytes of the framing Bytes
// prepends: [1-byte CodecID][4-byte compressed length].
const serializationHeaderSize = 1 + 4

// Bytes returns the Value's wire serialization: a 5-byte header
// naming the codec and compressed length, followed by the compressed
// bytes. It satisfies store.ValueRef.
func (v *Value) Bytes() ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.faultIn(); err != nil {
		return nil, err
	}
	if v.buf == nil {
		return nil, errs.ErrNotInitialized
	}

	body := v.buf.Bytes()
	if v.state != StateCompressed {
		compressed, err := v.codec.Compress(body, v.buf.Len(), v.allocator)
		if err != nil {
			return nil, err
		}
		body = compressed.Bytes()
	}

	out := make([]byte, serializationHeaderSize+len(body))
	out[0] = byte(v.codec.ID())
	endian.Wire.PutUint32(out[1:5], uint32(len(body)))
	copy(out[5:], body)

	return out, nil
}

// FromData parses a Value previously produced by Bytes, installing its
// compressed buffer under allocator/codec. The codec named in the
// serialized header must match codec.ID(); this is intentional, since
// a Region always knows its own codec and a mismatch means the data
// came from elsewhere or is corrupt.
func FromData(data []byte, allocator alloc.Allocator, codec store.Codec) (*Value, error) {
	if len(data) < serializationHeaderSize {
		return nil, errs.ErrInvalidHeaderSize
	}

	codecID := format.CodecID(data[0])
	if codecID != codec.ID() {
		return nil, fmt.Errorf("%w: value encoded with codec %s, decoder configured for %s",
			errs.ErrUnsupportedCodec, codecID, codec.ID())
	}

	length := int(endian.Wire.Uint32(data[1:5]))
	if serializationHeaderSize+length > len(data) {
		return nil, errs.ErrInvalidHeaderSize
	}

	buf, err := allocator.Allocate(length)
	if err != nil {
		return nil, err
	}
	copy(buf.Bytes(), data[serializationHeaderSize:serializationHeaderSize+length])

	v := New(allocator, codec)
	v.buf = buf
	v.state = StateCompressed

	return v, nil
}

// CopyToHeap ensures the Value's buffer is a heap-managed (not
// direct-tagged) buffer: a direct buffer is copied into a new heap
// buffer and released back to the Value's allocator.
// A Region calls this before handing a Value to a caller that may
// retain it past the Region's own buffer lifecycle.
func (v *Value) CopyToHeap() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.buf == nil || !v.buf.IsDirect() {
		return nil
	}

	heapBuf, err := alloc.NewHeapAllocator().Allocate(v.buf.Len())
	if err != nil {
		return err
	}
	copy(heapBuf.Bytes(), v.buf.Bytes())

	v.allocator.Release(v.buf)
	v.buf = heapBuf

	return nil
}

// SizeInBytes returns the Value's current in-memory buffer size, or 0
// if it has been evicted to disk.
func (v *Value) SizeInBytes() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.buf == nil {
		return 0
	}

	return v.buf.Len()
}

// OffHeapSizeInBytes returns the portion of SizeInBytes backed by a
// direct (off-heap-tagged) allocation.
func (v *Value) OffHeapSizeInBytes() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.buf == nil || !v.buf.IsDirect() {
		return 0
	}

	return v.buf.Len()
}
