package column

import (
	"iter"

	"github.com/colbatch/colbatch/endian"
)

// runCountWidth is the fixed width in bytes of a run-length run's count
// field, per spec.md §4.4 scheme 1 ("value, 4-byte run length, repeat").
const runCountWidth = 4

// RLEWriter implements Writer[T] for the RunLength scheme: consecutive
// equal values are coalesced into (value, count) runs. It is only a
// net win when a column's encoder chooses it for a column with long
// runs of repeats; the registry's default scheme-selection policy
// never picks it automatically, matching spec.md's "schemes are
// selected by the caller, not inferred from the data" design note.
type RLEWriter[T comparable] struct {
	codec       FixedWidthCodec[T]
	buf         []byte
	n           int
	hasPending  bool
	pendingVal  T
	pendingRun  uint32
}

var _ Writer[int32] = (*RLEWriter[int32])(nil)

// NewRLEWriter returns a run-length writer using the given codec.
func NewRLEWriter[T comparable](codec FixedWidthCodec[T]) *RLEWriter[T] {
	return &RLEWriter[T]{codec: codec}
}

func (w *RLEWriter[T]) Write(v T) {
	w.n++

	if w.hasPending && v == w.pendingVal {
		w.pendingRun++
		return
	}

	w.flushPending()
	w.hasPending = true
	w.pendingVal = v
	w.pendingRun = 1
}

func (w *RLEWriter[T]) WriteSlice(vs []T) {
	for _, v := range vs {
		w.Write(v)
	}
}

func (w *RLEWriter[T]) flushPending() {
	if !w.hasPending {
		return
	}

	off := len(w.buf)
	w.buf = append(w.buf, make([]byte, w.codec.Width+runCountWidth)...)
	w.codec.Encode(w.buf[off:off+w.codec.Width], w.pendingVal)
	endian.Wire.PutUint32(w.buf[off+w.codec.Width:off+w.codec.Width+runCountWidth], w.pendingRun)
	w.hasPending = false
}

func (w *RLEWriter[T]) Len() int      { return w.n }
func (w *RLEWriter[T]) Size() int     { w.flushPending(); return len(w.buf) }
func (w *RLEWriter[T]) Bytes() []byte { w.flushPending(); return w.buf }

func (w *RLEWriter[T]) Reset() {
	w.buf = w.buf[:0]
	w.n = 0
	w.hasPending = false
	var zero T
	w.pendingVal = zero
	w.pendingRun = 0
}

func (w *RLEWriter[T]) Finish() { w.flushPending() }

// RLEReader implements Reader[T] for the RunLength scheme. At performs
// a linear scan through runs to locate a logical row ordinal: RLE
// carries no promise of O(1) random access, unlike the fixed-width
// Uncompressed scheme (spec.md §4.3's absoluteX contract is scoped to
// schemes that support it).
type RLEReader[T comparable] struct {
	codec FixedWidthCodec[T]
}

var _ Reader[int32] = RLEReader[int32]{}

// NewRLEReader returns a run-length reader using the given codec.
func NewRLEReader[T comparable](codec FixedWidthCodec[T]) RLEReader[T] {
	return RLEReader[T]{codec: codec}
}

func (r RLEReader[T]) runStride() int { return r.codec.Width + runCountWidth }

func (r RLEReader[T]) All(data []byte, count int) iter.Seq[T] {
	return func(yield func(T) bool) {
		stride := r.runStride()
		emitted := 0

		for off := 0; off+stride <= len(data) && emitted < count; off += stride {
			v := r.codec.Decode(data[off : off+r.codec.Width])
			run := endian.Wire.Uint32(data[off+r.codec.Width : off+stride])

			for i := uint32(0); i < run && emitted < count; i++ {
				if !yield(v) {
					return
				}
				emitted++
			}
		}
	}
}

func (r RLEReader[T]) At(data []byte, index, count int) (T, bool) {
	var zero T
	if index < 0 || index >= count {
		return zero, false
	}

	stride := r.runStride()
	seen := 0

	for off := 0; off+stride <= len(data); off += stride {
		v := r.codec.Decode(data[off : off+r.codec.Width])
		run := int(endian.Wire.Uint32(data[off+r.codec.Width : off+stride]))

		if index < seen+run {
			return v, true
		}
		seen += run
	}

	return zero, false
}
