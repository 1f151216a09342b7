package column

import (
	"fmt"

	"github.com/colbatch/colbatch/bitmap"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/format"
	"github.com/colbatch/colbatch/stats"
)

// Encoder is the single public encoding entry point for one column
// (components C3/C4). Exactly one of its typed writer fields is
// populated after Initialize, chosen from the declared Field's type
// and scheme; every WriteX method returns errs.ErrUnsupportedType if
// called against a Field of a different type, so a caller driving the
// wrong method for a column's declared type fails loudly instead of
// silently corrupting the body.
//
// Null handling lives entirely in this framework layer, not in the
// scheme plugins: WriteIsNull(true) sets the row's null bit and still
// pushes a zero value into the active writer, so fixed-width schemes
// keep a one-to-one row-to-slot correspondence and their At/absolute
// access stays O(1) regardless of how many nulls a column carries.
// Scheme bodies never special-case nulls; the shared bitmap is the
// only thing that does.
//
// Encoder is not safe for concurrent use.
type Encoder struct {
	field    Field
	nullBits []uint64
	rowCount int
	finished bool

	// tracker maintains the column's lower/upper bound and null count
	// for spec.md §4.5's statistics row, fed from the same WriteX calls
	// that drive the scheme body.
	tracker *stats.Tracker

	boolEnc   Writer[bool]
	byteEnc   Writer[int8]
	shortEnc  Writer[int16]
	int32Enc  Writer[int32]
	int64Enc  Writer[int64]
	float32Enc Writer[float32]
	float64Enc Writer[float64]
	bytesEnc  *BytesWriter
	dictEnc   *DictWriter

	// intDelta and longDelta track which typed field, if any, is an
	// IntDeltaWriter/LongDeltaWriter that may need to be swapped for
	// an uncompressed fallback at Finish time.
	intDelta  *IntDeltaWriter
	longDelta *LongDeltaWriter
}

// NewEncoder returns an uninitialized Encoder; call Initialize before
// writing any row.
func NewEncoder() *Encoder { return &Encoder{} }

// Initialize configures the encoder for field and resets any prior
// state, so the same Encoder value can be reused across columns.
func (e *Encoder) Initialize(field Field) error {
	*e = Encoder{field: field}

	switch field.Type {
	case format.TypeBoolean:
		e.initBool()
	case format.TypeByte:
		e.byteEnc = newFixedWidthFor(field.Scheme, ByteCodec)
	case format.TypeShort:
		e.shortEnc = newFixedWidthFor(field.Scheme, ShortCodec)
	case format.TypeInt, format.TypeDate:
		e.initInt32(field.Scheme)
	case format.TypeLong, format.TypeTimestamp:
		e.initInt64(field.Scheme)
	case format.TypeFloat:
		e.float32Enc = newFixedWidthFor(field.Scheme, FloatCodec)
	case format.TypeDouble:
		e.float64Enc = newFixedWidthFor(field.Scheme, DoubleCodec)
	case format.TypeString, format.TypeBinary:
		e.initBytesLike(field.Scheme)
	case format.TypeDecimal:
		if field.usesInt64FastPath() {
			e.initInt64(field.Scheme)
		} else {
			e.bytesEnc = NewBytesWriter()
		}
	default:
		return fmt.Errorf("%w: field %q has type %s", errs.ErrUnsupportedType, field.Name, field.Type)
	}

	e.tracker = stats.NewTracker(field.Type)

	return nil
}

func newFixedWidthFor[T comparable](scheme format.SchemeID, codec FixedWidthCodec[T]) Writer[T] {
	if scheme == format.SchemeRunLength {
		return NewRLEWriter(codec)
	}

	return NewUncompressedWriter(codec)
}

func (e *Encoder) initBool() {
	if e.field.Scheme == format.SchemeBooleanBitSet {
		e.boolEnc = NewBooleanBitSetWriter()
		return
	}

	e.boolEnc = newFixedWidthFor(e.field.Scheme, BoolCodec)
}

func (e *Encoder) initInt32(scheme format.SchemeID) {
	if scheme == format.SchemeIntDelta {
		e.intDelta = NewIntDeltaWriter()
		e.int32Enc = e.intDelta

		return
	}

	e.int32Enc = newFixedWidthFor(scheme, IntCodec)
}

func (e *Encoder) initInt64(scheme format.SchemeID) {
	if scheme == format.SchemeLongDelta {
		e.longDelta = NewLongDeltaWriter()
		e.int64Enc = e.longDelta

		return
	}

	e.int64Enc = newFixedWidthFor(scheme, LongCodec)
}

func (e *Encoder) initBytesLike(scheme format.SchemeID) {
	if scheme == format.SchemeDictionary || scheme == format.SchemeBigDictionary {
		e.dictEnc = NewDictWriter()
		return
	}

	e.bytesEnc = NewBytesWriter()
}

func (e *Encoder) ensureNullCapacity() {
	if !e.field.Nullable {
		return
	}

	need := bitmap.WordsForBits(e.rowCount + 1)
	if len(e.nullBits) < need {
		e.nullBits = append(e.nullBits, make([]uint64, need-len(e.nullBits))...)
	}
}

func (e *Encoder) typeErr(method string) error {
	return fmt.Errorf("%w: %s called on field %q of type %s", errs.ErrUnsupportedType, method, e.field.Name, e.field.Type)
}

// WriteIsNull records whether the current row is null. When null is
// true it sets the row's null bit, pushes a placeholder zero value into
// the active scheme so fixed-width absolute addressing stays intact, and
// advances the row cursor; when null is false it only prepares the
// bitmap, and the WriteX call that follows writes the row and advances
// the cursor. When the column is declared non-nullable, passing true
// returns errs.ErrNullsInNotNullColumn.
func (e *Encoder) WriteIsNull(null bool) error {
	if null && !e.field.Nullable {
		return fmt.Errorf("%w: field %q", errs.ErrNullsInNotNullColumn, e.field.Name)
	}

	e.ensureNullCapacity()
	if null {
		bitmap.Set(e.nullBits, e.rowCount)
		e.writeZero()
		if e.tracker != nil {
			e.tracker.ObserveNull()
		}
		e.rowCount++
	}

	return nil
}

func (e *Encoder) writeZero() {
	switch {
	case e.boolEnc != nil:
		e.boolEnc.Write(false)
	case e.byteEnc != nil:
		e.byteEnc.Write(0)
	case e.shortEnc != nil:
		e.shortEnc.Write(0)
	case e.int32Enc != nil:
		e.int32Enc.Write(0)
	case e.int64Enc != nil:
		e.int64Enc.Write(0)
	case e.float32Enc != nil:
		e.float32Enc.Write(0)
	case e.float64Enc != nil:
		e.float64Enc.Write(0)
	case e.dictEnc != nil:
		e.dictEnc.Write(nil)
	case e.bytesEnc != nil:
		e.bytesEnc.Write(nil)
	}
}

func (e *Encoder) WriteBool(v bool) error {
	if e.boolEnc == nil {
		return e.typeErr("WriteBool")
	}
	e.boolEnc.Write(v)
	e.rowCount++
	if e.tracker != nil {
		e.tracker.ObserveNumeric(boolToFloat(v))
	}

	return nil
}

func (e *Encoder) WriteByte(v int8) error {
	if e.byteEnc == nil {
		return e.typeErr("WriteByte")
	}
	e.byteEnc.Write(v)
	e.rowCount++
	if e.tracker != nil {
		e.tracker.ObserveNumeric(float64(v))
	}

	return nil
}

func (e *Encoder) WriteShort(v int16) error {
	if e.shortEnc == nil {
		return e.typeErr("WriteShort")
	}
	e.shortEnc.Write(v)
	e.rowCount++
	if e.tracker != nil {
		e.tracker.ObserveNumeric(float64(v))
	}

	return nil
}

func (e *Encoder) WriteInt(v int32) error {
	if e.int32Enc == nil || (e.field.Type != format.TypeInt && e.field.Type != format.TypeDate) {
		return e.typeErr("WriteInt")
	}
	e.int32Enc.Write(v)
	e.rowCount++
	if e.tracker != nil {
		e.tracker.ObserveNumeric(float64(v))
	}

	return nil
}

func (e *Encoder) WriteDate(days int32) error { return e.WriteInt(days) }

func (e *Encoder) WriteLong(v int64) error {
	if e.int64Enc == nil || e.field.Type != format.TypeLong {
		return e.typeErr("WriteLong")
	}
	e.int64Enc.Write(v)
	e.rowCount++
	if e.tracker != nil {
		e.tracker.ObserveNumeric(float64(v))
	}

	return nil
}

func (e *Encoder) WriteTimestamp(micros int64) error {
	if e.int64Enc == nil || e.field.Type != format.TypeTimestamp {
		return e.typeErr("WriteTimestamp")
	}
	e.int64Enc.Write(micros)
	e.rowCount++
	if e.tracker != nil {
		e.tracker.ObserveNumeric(float64(micros))
	}

	return nil
}

func (e *Encoder) WriteFloat(v float32) error {
	if e.float32Enc == nil {
		return e.typeErr("WriteFloat")
	}
	e.float32Enc.Write(v)
	e.rowCount++
	if e.tracker != nil {
		e.tracker.ObserveNumeric(float64(v))
	}

	return nil
}

func (e *Encoder) WriteDouble(v float64) error {
	if e.float64Enc == nil {
		return e.typeErr("WriteDouble")
	}
	e.float64Enc.Write(v)
	e.rowCount++
	if e.tracker != nil {
		e.tracker.ObserveNumeric(v)
	}

	return nil
}

func (e *Encoder) WriteString(v string) error {
	if e.field.Type != format.TypeString {
		return e.typeErr("WriteString")
	}
	if err := e.writeBytesLike([]byte(v)); err != nil {
		return err
	}
	if e.tracker != nil {
		e.tracker.ObserveString(v)
	}

	return nil
}

func (e *Encoder) WriteBinary(v []byte) error {
	if e.field.Type != format.TypeBinary {
		return e.typeErr("WriteBinary")
	}
	if err := e.writeBytesLike(v); err != nil {
		return err
	}
	if e.tracker != nil {
		e.tracker.ObserveString(string(v))
	}

	return nil
}

func (e *Encoder) writeBytesLike(v []byte) error {
	switch {
	case e.dictEnc != nil:
		e.dictEnc.Write(v)
	case e.bytesEnc != nil:
		e.bytesEnc.Write(v)
	default:
		return e.typeErr("writeBytesLike")
	}
	e.rowCount++

	return nil
}

// boolToFloat maps a boolean onto the numeric bounds tracked for it,
// so a Boolean column's statistics row reports [0, 1] once both
// values have been seen.
func boolToFloat(v bool) float64 {
	if v {
		return 1
	}

	return 0
}

// WriteDecimalLong writes a scaled int64 value for a Decimal column
// whose declared precision fits the int64 fast path.
func (e *Encoder) WriteDecimalLong(unscaled int64) error {
	if e.field.Type != format.TypeDecimal || !e.field.usesInt64FastPath() {
		return e.typeErr("WriteDecimalLong")
	}
	e.int64Enc.Write(unscaled)
	e.rowCount++
	if e.tracker != nil {
		e.tracker.ObserveNumeric(float64(unscaled))
	}

	return nil
}

// WriteDecimalBytes writes a big-endian two's-complement unscaled
// value for a Decimal column whose declared precision exceeds the
// int64 fast path threshold.
func (e *Encoder) WriteDecimalBytes(unscaled []byte) error {
	if e.field.Type != format.TypeDecimal || e.field.usesInt64FastPath() {
		return e.typeErr("WriteDecimalBytes")
	}
	e.bytesEnc.Write(unscaled)
	e.rowCount++
	if e.tracker != nil {
		e.tracker.ObserveString(string(unscaled))
	}

	return nil
}

// Finish freezes the column and returns its complete wire buffer:
// header, null bitmap (if nullable), and scheme body. If the active
// scheme is IntDelta/LongDelta and overflowed during encoding, Finish
// transparently re-encodes the buffered values as Uncompressed and
// rewrites the on-wire scheme-id accordingly, rather than keeping the
// delta id over a body that no longer fits the delta layout.
func (e *Encoder) Finish() ([]byte, error) {
	if e.finished {
		return nil, errs.ErrEncoderFinished
	}
	e.finished = true

	schemeID := e.field.Scheme
	var body []byte

	switch {
	case e.intDelta != nil && e.intDelta.Overflowed():
		schemeID = format.SchemeUncompressed
		fallback := NewUncompressedWriter(IntCodec)
		fallback.WriteSlice(e.intDelta.Values())
		fallback.Finish()
		body = fallback.Bytes()
	case e.longDelta != nil && e.longDelta.Overflowed():
		schemeID = format.SchemeUncompressed
		fallback := NewUncompressedWriter(LongCodec)
		fallback.WriteSlice(e.longDelta.Values())
		fallback.Finish()
		body = fallback.Bytes()
	case e.dictEnc != nil:
		if e.dictEnc.Promoted() {
			schemeID = format.SchemeBigDictionary
		} else {
			schemeID = format.SchemeDictionary
		}
		body = e.dictEnc.Bytes()
	default:
		body = e.activeBody()
	}

	nullBitmapSize := 0
	if e.field.Nullable {
		nullBitmapSize = bitmap.BytesForBits(e.rowCount)
	}

	if HeaderSize+nullBitmapSize+len(body) > 1<<31-1 {
		return nil, fmt.Errorf("%w: field %q", errs.ErrBufferOverflow, e.field.Name)
	}

	hdr := Header{SchemeID: schemeID, NullBitmapSize: uint32(nullBitmapSize)}

	out := make([]byte, 0, HeaderSize+nullBitmapSize+len(body))
	out = append(out, hdr.Bytes()...)
	out = append(out, bitmapBytes(e.nullBits, e.rowCount, nullBitmapSize)...)
	out = append(out, body...)

	return out, nil
}

func bitmapBytes(words []uint64, rowCount, size int) []byte {
	buf := make([]byte, size)
	for i := 0; i < rowCount && i/8 < size; i++ {
		if bitmap.IsSet(words, i) {
			buf[i/8] |= 1 << uint(i%8)
		}
	}

	return buf
}

func (e *Encoder) activeBody() []byte {
	switch {
	case e.boolEnc != nil:
		e.boolEnc.Finish()
		return e.boolEnc.Bytes()
	case e.byteEnc != nil:
		e.byteEnc.Finish()
		return e.byteEnc.Bytes()
	case e.shortEnc != nil:
		e.shortEnc.Finish()
		return e.shortEnc.Bytes()
	case e.int32Enc != nil:
		e.int32Enc.Finish()
		return e.int32Enc.Bytes()
	case e.int64Enc != nil:
		e.int64Enc.Finish()
		return e.int64Enc.Bytes()
	case e.float32Enc != nil:
		e.float32Enc.Finish()
		return e.float32Enc.Bytes()
	case e.float64Enc != nil:
		e.float64Enc.Finish()
		return e.float64Enc.Bytes()
	case e.bytesEnc != nil:
		e.bytesEnc.Finish()
		return e.bytesEnc.Bytes()
	default:
		return nil
	}
}

// RowCount returns the number of rows written so far.
func (e *Encoder) RowCount() int { return e.rowCount }

// Stats freezes the column's accumulated lower/upper bounds and null
// count into a stats.Row, for a caller assembling the batch's combined
// statistics row (spec.md §4.5). It may be called before or after
// Finish; the tracker's state does not depend on scheme finalization.
func (e *Encoder) Stats() stats.Row {
	if e.tracker == nil {
		return stats.Row{DataType: e.field.Type}
	}

	return e.tracker.Finish()
}
