package column

import (
	"iter"

	"github.com/colbatch/colbatch/endian"
)

// lengthPrefixWidth is the width in bytes of each value's length
// prefix in the variable-width Bytes body layout.
const lengthPrefixWidth = 4

// BytesWriter implements a variable-width, length-prefixed body used
// by the Uncompressed scheme for String/Binary columns and by the
// Decimal slow path (precision > 18) for arbitrary-precision values:
// [4-byte length][payload], repeated once per row in order. It does
// not implement the generic Writer[T] interface because []byte is not
// a comparable type and therefore can't satisfy Writer[T comparable];
// the dictionary scheme (scheme_dict.go) is what actually de-dupes
// string/binary columns for space, and is the scheme the registry's
// default policy selects for TypeString (scheme_rle.go's comment on
// RLE applies equally here: nothing is auto-inferred from the data).
type BytesWriter struct {
	buf []byte
	n   int
}

func NewBytesWriter() *BytesWriter { return &BytesWriter{} }

func (w *BytesWriter) Write(v []byte) {
	off := len(w.buf)
	w.buf = append(w.buf, make([]byte, lengthPrefixWidth)...)
	endian.Wire.PutUint32(w.buf[off:off+lengthPrefixWidth], uint32(len(v)))
	w.buf = append(w.buf, v...)
	w.n++
}

func (w *BytesWriter) WriteSlice(vs [][]byte) {
	for _, v := range vs {
		w.Write(v)
	}
}

func (w *BytesWriter) Len() int      { return w.n }
func (w *BytesWriter) Size() int     { return len(w.buf) }
func (w *BytesWriter) Bytes() []byte { return w.buf }

func (w *BytesWriter) Reset() {
	w.buf = w.buf[:0]
	w.n = 0
}

func (w *BytesWriter) Finish() {}

// BytesReader reads the BytesWriter body layout. Unlike the
// fixed-width schemes, At must linearly scan from the start of the
// body since value boundaries aren't evenly spaced; callers that need
// repeated random access into a large variable-width column should
// prefer the dictionary scheme instead.
type BytesReader struct{}

func (BytesReader) All(data []byte, count int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		off := 0
		for i := 0; i < count; i++ {
			if off+lengthPrefixWidth > len(data) {
				return
			}
			n := int(endian.Wire.Uint32(data[off : off+lengthPrefixWidth]))
			off += lengthPrefixWidth
			if off+n > len(data) {
				return
			}
			if !yield(data[off : off+n]) {
				return
			}
			off += n
		}
	}
}

func (r BytesReader) At(data []byte, index, count int) ([]byte, bool) {
	if index < 0 || index >= count {
		return nil, false
	}

	i := 0
	for v := range r.All(data, count) {
		if i == index {
			return v, true
		}
		i++
	}

	return nil, false
}
