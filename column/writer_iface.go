package column

import "iter"

// Writer is implemented by every fixed-width encoding scheme plugin
// (uncompressed, run-length, delta) for a single comparable Go type T.
// It mirrors the teacher's encoding.ColumnarEncoder[T] contract: values
// are appended strictly in row order, nulls are never passed through
// Write (the framework layer in encoder.go owns the null bitmap and
// calls Write with a placeholder zero value for null rows instead), and
// Finish freezes the body so Bytes/Len become stable.
type Writer[T comparable] interface {
	// Write appends a single value.
	Write(v T)
	// WriteSlice appends a batch of values in one call.
	WriteSlice(vs []T)
	// Len returns the number of values written so far.
	Len() int
	// Size returns the current encoded body size in bytes.
	Size() int
	// Bytes returns the encoded body. The returned slice is only
	// valid for the writer's current state; callers that need to
	// retain it across further Write calls must copy it.
	Bytes() []byte
	// Reset clears the writer so it can be reused for a new column.
	Reset()
	// Finish freezes the body, performing any scheme-specific
	// finalization (e.g. flushing a pending run-length run).
	Finish()
}

// Reader is implemented by every fixed-width decoding scheme plugin. It
// mirrors the teacher's encoding.ColumnarDecoder[T] contract: All walks
// the body in row order, At performs scheme-specific random access for
// a given logical row ordinal (not physical byte offset).
type Reader[T comparable] interface {
	// All returns an iterator over every value in the body, in row
	// order. count is the declared row count (needed by schemes, like
	// RLE, whose body doesn't self-delimit its value count).
	All(data []byte, count int) iter.Seq[T]
	// At returns the value at logical row ordinal index, where count
	// is the column's declared row count. The second return value is
	// false if index is out of range.
	At(data []byte, index, count int) (T, bool)
}
