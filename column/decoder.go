package column

import (
	"iter"

	"github.com/colbatch/colbatch/bitmap"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/format"
)

// Decoder is the single public decoding entry point for one column
// buffer previously produced by an Encoder (possibly in another
// process or on a host of different byte order). A fresh Decoder is
// created per scan pass, matching the teacher's own "decoders are
// cheap, create one per read" convention.
//
// Decoder is not safe for concurrent use.
type Decoder struct {
	field     Field
	header    Header
	nullWords []uint64
	body      []byte
	rowCount  int
}

// NewDecoder returns an uninitialized Decoder; call Initialize before
// reading any row.
func NewDecoder() *Decoder { return &Decoder{} }

// Initialize parses data (as produced by Encoder.Finish for the same
// field and rowCount) and prepares the decoder for reads.
func (d *Decoder) Initialize(data []byte, field Field, rowCount int) error {
	hdr, err := ParseHeader(data)
	if err != nil {
		return err
	}

	if !field.Nullable && hdr.NullBitmapSize > 0 {
		return errs.ErrNullsInNotNullColumn
	}

	bitmapEnd := HeaderSize + int(hdr.NullBitmapSize)
	if bitmapEnd > len(data) {
		return errs.ErrInvalidHeaderSize
	}

	*d = Decoder{
		field:    field,
		header:   hdr,
		rowCount: rowCount,
		body:     data[bitmapEnd:],
	}

	if hdr.NullBitmapSize > 0 {
		d.nullWords = wordsFromBytes(data[HeaderSize:bitmapEnd])
	}

	return nil
}

// IsNull reports whether the row at ordinal is null. It always returns
// false for a non-nullable column.
func (d *Decoder) IsNull(ordinal int) bool {
	if !d.field.Nullable {
		return false
	}

	return bitmap.IsSet(d.nullWords, ordinal)
}

// NumNullsUntilPosition returns the count of null rows strictly before
// position. Every scheme in this package writes a placeholder value
// for null rows rather than omitting them, so a row's ordinal already
// addresses its slot directly in every …At reader above; this method
// exists for callers outside the scheme body itself — e.g. a stats
// row or an external index — that need the null population count up
// to a given row without re-scanning the whole bitmap themselves.
func (d *Decoder) NumNullsUntilPosition(position int) int {
	if !d.field.Nullable {
		return 0
	}

	return bitmap.CountUntil(d.nullWords, position)
}

// RowCount returns the column's declared row count.
func (d *Decoder) RowCount() int { return d.rowCount }

func pickFixedReader[T comparable](scheme format.SchemeID, codec FixedWidthCodec[T]) Reader[T] {
	if scheme == format.SchemeRunLength {
		return NewRLEReader(codec)
	}

	return NewUncompressedReader(codec)
}

// Bools returns an iterator over every row's boolean value, including
// placeholder values for null rows (check IsNull separately).
func (d *Decoder) Bools() iter.Seq[bool] {
	if d.header.SchemeID == format.SchemeBooleanBitSet {
		return BooleanBitSetReader{}.All(d.body, d.rowCount)
	}

	return pickFixedReader(d.header.SchemeID, BoolCodec).All(d.body, d.rowCount)
}

// BoolAt returns the boolean value at logical row ordinal index.
func (d *Decoder) BoolAt(index int) (bool, bool) {
	if d.header.SchemeID == format.SchemeBooleanBitSet {
		return BooleanBitSetReader{}.At(d.body, index, d.rowCount)
	}

	return pickFixedReader(d.header.SchemeID, BoolCodec).At(d.body, index, d.rowCount)
}

func (d *Decoder) Bytes() iter.Seq[int8]    { return pickFixedReader(d.header.SchemeID, ByteCodec).All(d.body, d.rowCount) }
func (d *Decoder) ByteAt(i int) (int8, bool) { return pickFixedReader(d.header.SchemeID, ByteCodec).At(d.body, i, d.rowCount) }

func (d *Decoder) Shorts() iter.Seq[int16]     { return pickFixedReader(d.header.SchemeID, ShortCodec).All(d.body, d.rowCount) }
func (d *Decoder) ShortAt(i int) (int16, bool) { return pickFixedReader(d.header.SchemeID, ShortCodec).At(d.body, i, d.rowCount) }

func (d *Decoder) Ints() iter.Seq[int32] {
	if d.header.SchemeID == format.SchemeIntDelta {
		return IntDeltaReader{}.All(d.body, d.rowCount)
	}

	return pickFixedReader(d.header.SchemeID, IntCodec).All(d.body, d.rowCount)
}

func (d *Decoder) IntAt(i int) (int32, bool) {
	if d.header.SchemeID == format.SchemeIntDelta {
		return IntDeltaReader{}.At(d.body, i, d.rowCount)
	}

	return pickFixedReader(d.header.SchemeID, IntCodec).At(d.body, i, d.rowCount)
}

func (d *Decoder) Longs() iter.Seq[int64] {
	if d.header.SchemeID == format.SchemeLongDelta {
		return LongDeltaReader{}.All(d.body, d.rowCount)
	}

	return pickFixedReader(d.header.SchemeID, LongCodec).All(d.body, d.rowCount)
}

func (d *Decoder) LongAt(i int) (int64, bool) {
	if d.header.SchemeID == format.SchemeLongDelta {
		return LongDeltaReader{}.At(d.body, i, d.rowCount)
	}

	return pickFixedReader(d.header.SchemeID, LongCodec).At(d.body, i, d.rowCount)
}

func (d *Decoder) Floats() iter.Seq[float32]    { return pickFixedReader(d.header.SchemeID, FloatCodec).All(d.body, d.rowCount) }
func (d *Decoder) FloatAt(i int) (float32, bool) { return pickFixedReader(d.header.SchemeID, FloatCodec).At(d.body, i, d.rowCount) }

func (d *Decoder) Doubles() iter.Seq[float64]     { return pickFixedReader(d.header.SchemeID, DoubleCodec).All(d.body, d.rowCount) }
func (d *Decoder) DoubleAt(i int) (float64, bool) { return pickFixedReader(d.header.SchemeID, DoubleCodec).At(d.body, i, d.rowCount) }

func (d *Decoder) isDict() bool {
	return d.header.SchemeID == format.SchemeDictionary || d.header.SchemeID == format.SchemeBigDictionary
}

func (d *Decoder) dictIndexWidth() int {
	if d.header.SchemeID == format.SchemeBigDictionary {
		return 4
	}

	return 2
}

// Strings returns an iterator over every row's string value.
func (d *Decoder) Strings() iter.Seq[string] {
	return func(yield func(string) bool) {
		for v := range d.bytesLike() {
			if !yield(string(v)) {
				return
			}
		}
	}
}

// StringAt returns the string value at logical row ordinal index.
func (d *Decoder) StringAt(index int) (string, bool) {
	v, ok := d.bytesLikeAt(index)
	if !ok {
		return "", false
	}

	return string(v), true
}

// Binaries returns an iterator over every row's binary value.
func (d *Decoder) Binaries() iter.Seq[[]byte] { return d.bytesLike() }

// BinaryAt returns the binary value at logical row ordinal index.
func (d *Decoder) BinaryAt(index int) ([]byte, bool) { return d.bytesLikeAt(index) }

func (d *Decoder) bytesLike() iter.Seq[[]byte] {
	if d.isDict() {
		return DictReader{IndexWidth: d.dictIndexWidth()}.All(d.body, d.rowCount)
	}

	return BytesReader{}.All(d.body, d.rowCount)
}

func (d *Decoder) bytesLikeAt(index int) ([]byte, bool) {
	if d.isDict() {
		return DictReader{IndexWidth: d.dictIndexWidth()}.At(d.body, index, d.rowCount)
	}

	return BytesReader{}.At(d.body, index, d.rowCount)
}

// DecimalLongs returns an iterator over a Decimal column's int64
// fast-path unscaled values. Callers must check the field's declared
// precision before calling this (it is not re-validated per row).
func (d *Decoder) DecimalLongs() iter.Seq[int64] { return d.Longs() }

// DecimalLongAt returns a single int64 fast-path unscaled value.
func (d *Decoder) DecimalLongAt(index int) (int64, bool) { return d.LongAt(index) }

// DecimalBytes returns an iterator over a Decimal column's byte-array
// slow-path unscaled values.
func (d *Decoder) DecimalBytes() iter.Seq[[]byte] { return BytesReader{}.All(d.body, d.rowCount) }

// DecimalBytesAt returns a single byte-array slow-path unscaled value.
func (d *Decoder) DecimalBytesAt(index int) ([]byte, bool) {
	return BytesReader{}.At(d.body, index, d.rowCount)
}
