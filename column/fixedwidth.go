package column

import (
	"iter"
	"math"

	"github.com/colbatch/colbatch/endian"
)

// FixedWidthCodec describes how to marshal a single comparable Go value
// T to and from its fixed-width wire representation. Sharing one codec
// struct (rather than hand-writing a writer/reader pair per primitive
// type) is what lets UncompressedWriter/Reader and RLEWriter/Reader
// stay generic across all nine fixed-width primitive types spec.md §3
// lists, instead of seven schemes times nine types of
// duplicated code.
type FixedWidthCodec[T comparable] struct {
	// Width is the encoded size in bytes of one value.
	Width int
	// Encode writes v into dst[:Width].
	Encode func(dst []byte, v T)
	// Decode reads one value from src[:Width].
	Decode func(src []byte) T
}

// BoolCodec, ByteCodec, ShortCodec, IntCodec, LongCodec, FloatCodec and
// DoubleCodec are the package-level FixedWidthCodec instances for each
// fixed-width primitive type named in spec.md §3. Booleans are stored
// one byte wide here; the dedicated BooleanBitSet scheme
// (scheme_bool.go) packs them eight to a byte instead.
var (
	BoolCodec = FixedWidthCodec[bool]{
		Width: 1,
		Encode: func(dst []byte, v bool) {
			if v {
				dst[0] = 1
			} else {
				dst[0] = 0
			}
		},
		Decode: func(src []byte) bool { return src[0] != 0 },
	}

	ByteCodec = FixedWidthCodec[int8]{
		Width:  1,
		Encode: func(dst []byte, v int8) { dst[0] = byte(v) },
		Decode: func(src []byte) int8 { return int8(src[0]) },
	}

	ShortCodec = FixedWidthCodec[int16]{
		Width:  2,
		Encode: func(dst []byte, v int16) { endian.Wire.PutUint16(dst, uint16(v)) },
		Decode: func(src []byte) int16 { return int16(endian.Wire.Uint16(src)) },
	}

	IntCodec = FixedWidthCodec[int32]{
		Width:  4,
		Encode: func(dst []byte, v int32) { endian.Wire.PutUint32(dst, uint32(v)) },
		Decode: func(src []byte) int32 { return int32(endian.Wire.Uint32(src)) },
	}

	LongCodec = FixedWidthCodec[int64]{
		Width:  8,
		Encode: func(dst []byte, v int64) { endian.Wire.PutUint64(dst, uint64(v)) },
		Decode: func(src []byte) int64 { return int64(endian.Wire.Uint64(src)) },
	}

	FloatCodec = FixedWidthCodec[float32]{
		Width:  4,
		Encode: func(dst []byte, v float32) { endian.Wire.PutUint32(dst, math.Float32bits(v)) },
		Decode: func(src []byte) float32 { return math.Float32frombits(endian.Wire.Uint32(src)) },
	}

	DoubleCodec = FixedWidthCodec[float64]{
		Width:  8,
		Encode: func(dst []byte, v float64) { endian.Wire.PutUint64(dst, math.Float64bits(v)) },
		Decode: func(src []byte) float64 { return math.Float64frombits(endian.Wire.Uint64(src)) },
	}
)

// UncompressedWriter implements Writer[T] for the Uncompressed scheme
// (spec.md §4.4's scheme 0): each value occupies a fixed Width-byte
// slot in row order with no transformation, giving O(1) absolute
// access by construction.
type UncompressedWriter[T comparable] struct {
	codec FixedWidthCodec[T]
	buf   []byte
	n     int
}

var _ Writer[int32] = (*UncompressedWriter[int32])(nil)

// NewUncompressedWriter returns a writer using the given codec.
func NewUncompressedWriter[T comparable](codec FixedWidthCodec[T]) *UncompressedWriter[T] {
	return &UncompressedWriter[T]{codec: codec}
}

func (w *UncompressedWriter[T]) Write(v T) {
	off := len(w.buf)
	w.buf = append(w.buf, make([]byte, w.codec.Width)...)
	w.codec.Encode(w.buf[off:off+w.codec.Width], v)
	w.n++
}

func (w *UncompressedWriter[T]) WriteSlice(vs []T) {
	for _, v := range vs {
		w.Write(v)
	}
}

func (w *UncompressedWriter[T]) Len() int    { return w.n }
func (w *UncompressedWriter[T]) Size() int   { return len(w.buf) }
func (w *UncompressedWriter[T]) Bytes() []byte { return w.buf }
func (w *UncompressedWriter[T]) Reset() {
	w.buf = w.buf[:0]
	w.n = 0
}
func (w *UncompressedWriter[T]) Finish() {}

// UncompressedReader implements Reader[T] for the Uncompressed scheme.
type UncompressedReader[T comparable] struct {
	codec FixedWidthCodec[T]
}

var _ Reader[int32] = UncompressedReader[int32]{}

// NewUncompressedReader returns a reader using the given codec.
func NewUncompressedReader[T comparable](codec FixedWidthCodec[T]) UncompressedReader[T] {
	return UncompressedReader[T]{codec: codec}
}

func (r UncompressedReader[T]) All(data []byte, count int) iter.Seq[T] {
	return func(yield func(T) bool) {
		w := r.codec.Width
		for i := 0; i < count; i++ {
			off := i * w
			if off+w > len(data) {
				return
			}
			if !yield(r.codec.Decode(data[off : off+w])) {
				return
			}
		}
	}
}

func (r UncompressedReader[T]) At(data []byte, index, count int) (T, bool) {
	var zero T
	if index < 0 || index >= count {
		return zero, false
	}

	off := index * r.codec.Width
	if off+r.codec.Width > len(data) {
		return zero, false
	}

	return r.codec.Decode(data[off : off+r.codec.Width]), true
}
