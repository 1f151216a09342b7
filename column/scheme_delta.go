package column

import (
	"iter"
	"math"

	"github.com/colbatch/colbatch/endian"
)

// deltaBaseWidth is the width in bytes of the base value stored at the
// head of a delta-encoded body, and also the width of each per-row
// delta slot: both int32 and int64 deltas are stored as int32, since a
// delta that doesn't fit in 32 bits is exactly the overflow condition
// that triggers the uncompressed fallback (spec.md §4.4 scheme 5/6,
// resolved Open Question (a): see DESIGN.md).
const deltaBaseWidth = 4

// IntDeltaWriter implements Writer[int32] for the IntDelta scheme
// (spec.md §4.4 scheme 5): the body is a base int32 value followed by
// one int32 delta per row. Values are buffered raw until Finish, since
// whether the column overflows the delta scheme can only be known once
// every value has been seen.
type IntDeltaWriter struct {
	values     []int32
	body       []byte
	overflowed bool
	finished   bool
}

var _ Writer[int32] = (*IntDeltaWriter)(nil)

func NewIntDeltaWriter() *IntDeltaWriter { return &IntDeltaWriter{} }

func (w *IntDeltaWriter) Write(v int32)        { w.values = append(w.values, v); w.finished = false }
func (w *IntDeltaWriter) WriteSlice(vs []int32) {
	w.values = append(w.values, vs...)
	w.finished = false
}
func (w *IntDeltaWriter) Len() int { return len(w.values) }

func (w *IntDeltaWriter) Finish() {
	if w.finished {
		return
	}

	var base int32
	if len(w.values) > 0 {
		base = w.values[0]
	}

	body := make([]byte, deltaBaseWidth+len(w.values)*deltaBaseWidth)
	endian.Wire.PutUint32(body[0:4], uint32(base))

	overflowed := false
	for i, v := range w.values {
		delta := int64(v) - int64(base)
		if delta < math.MinInt32 || delta > math.MaxInt32 {
			overflowed = true
		}

		off := deltaBaseWidth + i*deltaBaseWidth
		endian.Wire.PutUint32(body[off:off+4], uint32(int32(delta)))
	}

	w.body = body
	w.overflowed = overflowed
	w.finished = true
}

func (w *IntDeltaWriter) Bytes() []byte { w.Finish(); return w.body }
func (w *IntDeltaWriter) Size() int     { w.Finish(); return len(w.body) }

// Overflowed reports whether any row's delta from the base value did
// not fit in an int32. The encoder framework checks this after Finish
// and, if true, re-encodes the column's buffered Values using the
// Uncompressed scheme instead, rewriting the on-wire scheme-id.
func (w *IntDeltaWriter) Overflowed() bool { w.Finish(); return w.overflowed }

// Values returns the raw buffered values, for the encoder's fallback
// path to re-encode uncompressed without asking the caller to replay
// the column.
func (w *IntDeltaWriter) Values() []int32 { return w.values }

func (w *IntDeltaWriter) Reset() {
	w.values = w.values[:0]
	w.body = nil
	w.overflowed = false
	w.finished = false
}

// IntDeltaReader implements Reader[int32] for the IntDelta scheme.
type IntDeltaReader struct{}

var _ Reader[int32] = IntDeltaReader{}

func (IntDeltaReader) All(data []byte, count int) iter.Seq[int32] {
	return func(yield func(int32) bool) {
		if len(data) < deltaBaseWidth {
			return
		}

		base := int32(endian.Wire.Uint32(data[0:4]))
		for i := 0; i < count; i++ {
			off := deltaBaseWidth + i*deltaBaseWidth
			if off+4 > len(data) {
				return
			}
			delta := int32(endian.Wire.Uint32(data[off : off+4]))
			if !yield(base + delta) {
				return
			}
		}
	}
}

func (IntDeltaReader) At(data []byte, index, count int) (int32, bool) {
	if index < 0 || index >= count || len(data) < deltaBaseWidth {
		return 0, false
	}

	base := int32(endian.Wire.Uint32(data[0:4]))
	off := deltaBaseWidth + index*deltaBaseWidth
	if off+4 > len(data) {
		return 0, false
	}

	delta := int32(endian.Wire.Uint32(data[off : off+4]))

	return base + delta, true
}

// LongDeltaWriter implements Writer[int64] for the LongDelta scheme
// (spec.md §4.4 scheme 6): identical layout to IntDelta, but over
// int64 values with the same per-row int32-delta overflow check.
type LongDeltaWriter struct {
	values     []int64
	body       []byte
	overflowed bool
	finished   bool
}

var _ Writer[int64] = (*LongDeltaWriter)(nil)

func NewLongDeltaWriter() *LongDeltaWriter { return &LongDeltaWriter{} }

func (w *LongDeltaWriter) Write(v int64)        { w.values = append(w.values, v); w.finished = false }
func (w *LongDeltaWriter) WriteSlice(vs []int64) {
	w.values = append(w.values, vs...)
	w.finished = false
}
func (w *LongDeltaWriter) Len() int { return len(w.values) }

func (w *LongDeltaWriter) Finish() {
	if w.finished {
		return
	}

	var base int64
	if len(w.values) > 0 {
		base = w.values[0]
	}

	body := make([]byte, deltaBaseWidth+len(w.values)*deltaBaseWidth)
	endian.Wire.PutUint32(body[0:4], uint32(int32(base)))

	overflowed := base < math.MinInt32 || base > math.MaxInt32
	for i, v := range w.values {
		delta := v - base
		if delta < math.MinInt32 || delta > math.MaxInt32 {
			overflowed = true
		}

		off := deltaBaseWidth + i*deltaBaseWidth
		endian.Wire.PutUint32(body[off:off+4], uint32(int32(delta)))
	}

	w.body = body
	w.overflowed = overflowed
	w.finished = true
}

func (w *LongDeltaWriter) Bytes() []byte { w.Finish(); return w.body }
func (w *LongDeltaWriter) Size() int     { w.Finish(); return len(w.body) }

// Overflowed reports whether the base or any row's delta escaped the
// int32 range, just like IntDeltaWriter.Overflowed.
func (w *LongDeltaWriter) Overflowed() bool { w.Finish(); return w.overflowed }

// Values returns the raw buffered values for the uncompressed fallback.
func (w *LongDeltaWriter) Values() []int64 { return w.values }

func (w *LongDeltaWriter) Reset() {
	w.values = w.values[:0]
	w.body = nil
	w.overflowed = false
	w.finished = false
}

// LongDeltaReader implements Reader[int64] for the LongDelta scheme.
type LongDeltaReader struct{}

var _ Reader[int64] = LongDeltaReader{}

func (LongDeltaReader) All(data []byte, count int) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		if len(data) < deltaBaseWidth {
			return
		}

		base := int64(int32(endian.Wire.Uint32(data[0:4])))
		for i := 0; i < count; i++ {
			off := deltaBaseWidth + i*deltaBaseWidth
			if off+4 > len(data) {
				return
			}
			delta := int64(int32(endian.Wire.Uint32(data[off : off+4])))
			if !yield(base + delta) {
				return
			}
		}
	}
}

func (LongDeltaReader) At(data []byte, index, count int) (int64, bool) {
	if index < 0 || index >= count || len(data) < deltaBaseWidth {
		return 0, false
	}

	base := int64(int32(endian.Wire.Uint32(data[0:4])))
	off := deltaBaseWidth + index*deltaBaseWidth
	if off+4 > len(data) {
		return 0, false
	}

	delta := int64(int32(endian.Wire.Uint32(data[off : off+4])))

	return base + delta, true
}
