// Package stats implements per-column statistics tracking and the
// serialized statistics row emitted alongside a batch's column bodies
// (component C5): lower/upper bounds and a null count, one triple per
// column, gathered incrementally while an Encoder writes rows and
// frozen into a wire row at batch-finalization time. Per spec.md §3/
// §4.5, a batch's statistics row holds exactly three slots per column
// (lower, upper, null count) plus one row count slot shared by the
// whole batch, so BatchRow — not Row — is what actually gets stored
// under a batch's STATS key; Row only models one column's contribution
// to that combined buffer.
package stats

import (
	"math"

	"github.com/colbatch/colbatch/endian"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/format"
)

// Tracker accumulates statistics for a single column across the rows
// written to it. It is not safe for concurrent use, matching every
// other per-column collaborator in this module.
type Tracker struct {
	dataType format.DataType
	hasValue bool
	min      float64
	max      float64
	minStr   string
	maxStr   string
	nullCount int64
}

// NewTracker returns a Tracker for a column of the given type.
func NewTracker(dt format.DataType) *Tracker {
	return &Tracker{dataType: dt}
}

// ObserveNull records a null row.
func (t *Tracker) ObserveNull() {
	t.nullCount++
}

// ObserveNumeric records a numeric row's value for bounds tracking. It
// applies to every fixed-width numeric type (Boolean, Byte, Short, Int,
// Long, Float, Double, Date, Timestamp, and the Decimal int64 fast
// path).
func (t *Tracker) ObserveNumeric(v float64) {
	if !t.hasValue || v < t.min {
		t.min = v
	}
	if !t.hasValue || v > t.max {
		t.max = v
	}
	t.hasValue = true
}

// ObserveString records a string/binary row's value for lexicographic
// bounds tracking.
func (t *Tracker) ObserveString(v string) {
	if !t.hasValue || v < t.minStr {
		t.minStr = v
	}
	if !t.hasValue || v > t.maxStr {
		t.maxStr = v
	}
	t.hasValue = true
}

// Row is the frozen, serializable statistics snapshot for one column:
// its lower bound, upper bound, and null count, spec.md §4.5's "3
// slots per column".
type Row struct {
	DataType  format.DataType
	NullCount int64
	HasBounds bool
	MinNum    float64
	MaxNum    float64
	MinStr    string
	MaxStr    string
}

// Finish freezes the tracker into a Row.
func (t *Tracker) Finish() Row {
	return Row{
		DataType:  t.dataType,
		NullCount: t.nullCount,
		HasBounds: t.hasValue,
		MinNum:    t.min,
		MaxNum:    t.max,
		MinStr:    t.minStr,
		MaxStr:    t.maxStr,
	}
}

// PinnedRow returns the Row for a column whose limits can't usefully
// bound its values — spec.md §4.5's complex-type case: "limits are
// pinned at MIN/MAX so they cannot prune downstream." A downstream
// reader comparing a predicate against [-Inf, +Inf] can never decide
// to skip the column on bounds alone.
func PinnedRow(dt format.DataType, nullCount int64) Row {
	return Row{
		DataType:  dt,
		NullCount: nullCount,
		HasBounds: true,
		MinNum:    math.Inf(-1),
		MaxNum:    math.Inf(1),
	}
}

// rowFlagHasBounds and rowFlagIsStringBounds are bit flags in a
// serialized Row's 1-byte flag field.
const (
	rowFlagHasBounds      = 1 << 0
	rowFlagIsStringBounds = 1 << 1
)

// Bytes serializes a Row into its wire form:
// [1-byte DataType][8-byte NullCount][1-byte flags] followed by either
// two 8-byte float64 bounds, or two length-prefixed string bounds,
// depending on the flags.
func (r Row) Bytes() []byte {
	flags := byte(0)
	if r.HasBounds {
		flags |= rowFlagHasBounds
	}
	isString := r.DataType == format.TypeString || r.DataType == format.TypeBinary
	if isString {
		flags |= rowFlagIsStringBounds
	}

	buf := make([]byte, 0, 10+len(r.MinStr)+len(r.MaxStr)+8)
	buf = append(buf, byte(r.DataType))
	buf = appendUint64(buf, uint64(r.NullCount))
	buf = append(buf, flags)

	if !r.HasBounds {
		return buf
	}

	if isString {
		buf = appendString(buf, r.MinStr)
		buf = appendString(buf, r.MaxStr)
	} else {
		buf = appendUint64(buf, math.Float64bits(r.MinNum))
		buf = appendUint64(buf, math.Float64bits(r.MaxNum))
	}

	return buf
}

// ParseRow parses a Row previously produced by Row.Bytes and reports
// how many bytes of data it consumed, so a caller walking several
// back-to-back Rows (as BatchRow does) can advance past each one.
func ParseRow(data []byte) (Row, int, error) {
	const fixedHeaderSize = 1 + 8 + 1
	if len(data) < fixedHeaderSize {
		return Row{}, 0, errs.ErrInvalidHeaderSize
	}

	r := Row{DataType: format.DataType(data[0])}
	off := 1
	r.NullCount = int64(endian.Wire.Uint64(data[off : off+8]))
	off += 8
	flags := data[off]
	off++

	r.HasBounds = flags&rowFlagHasBounds != 0
	if !r.HasBounds {
		return r, off, nil
	}

	isString := flags&rowFlagIsStringBounds != 0
	if isString {
		minStr, n, err := readString(data[off:])
		if err != nil {
			return Row{}, 0, err
		}
		off += n

		maxStr, n, err := readString(data[off:])
		if err != nil {
			return Row{}, 0, err
		}
		off += n

		r.MinStr = minStr
		r.MaxStr = maxStr

		return r, off, nil
	}

	if off+16 > len(data) {
		return Row{}, 0, errs.ErrInvalidHeaderSize
	}

	r.MinNum = math.Float64frombits(endian.Wire.Uint64(data[off : off+8]))
	r.MaxNum = math.Float64frombits(endian.Wire.Uint64(data[off+8 : off+16]))
	off += 16

	return r, off, nil
}

// BatchRow is the combined statistics row for an entire column batch:
// one Row per column plus the single row count slot they all share,
// matching spec.md §3's "Statistics row ... 3 slots per column; one
// global row count slot" and §4.5's batch-finalization description.
// It is what actually gets stored under a batch's STATS key.
type BatchRow struct {
	Columns  []Row
	RowCount int64
}

// Bytes serializes a BatchRow into its wire form:
// [4-byte column count][8-byte RowCount] followed by each column's
// [4-byte length][Row.Bytes()] entry in order.
func (b BatchRow) Bytes() []byte {
	buf := make([]byte, 0, 12)
	buf = appendUint32(buf, uint32(len(b.Columns)))
	buf = appendUint64(buf, uint64(b.RowCount))

	for _, col := range b.Columns {
		rowBytes := col.Bytes()
		buf = appendUint32(buf, uint32(len(rowBytes)))
		buf = append(buf, rowBytes...)
	}

	return buf
}

// ParseBatchRow parses a BatchRow previously produced by
// BatchRow.Bytes.
func ParseBatchRow(data []byte) (BatchRow, error) {
	const fixedHeaderSize = 4 + 8
	if len(data) < fixedHeaderSize {
		return BatchRow{}, errs.ErrInvalidHeaderSize
	}

	count := int(endian.Wire.Uint32(data[0:4]))
	rowCount := int64(endian.Wire.Uint64(data[4:12]))

	b := BatchRow{RowCount: rowCount, Columns: make([]Row, 0, count)}
	off := fixedHeaderSize
	for i := 0; i < count; i++ {
		if off+4 > len(data) {
			return BatchRow{}, errs.ErrInvalidHeaderSize
		}
		length := int(endian.Wire.Uint32(data[off : off+4]))
		off += 4
		if off+length > len(data) {
			return BatchRow{}, errs.ErrInvalidHeaderSize
		}

		row, _, err := ParseRow(data[off : off+length])
		if err != nil {
			return BatchRow{}, err
		}
		off += length

		b.Columns = append(b.Columns, row)
	}

	return b, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	endian.Wire.PutUint32(tmp[:], v)

	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	endian.Wire.PutUint64(tmp[:], v)

	return append(buf, tmp[:]...)
}

func appendString(buf []byte, s string) []byte {
	var lenBuf [4]byte
	endian.Wire.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)

	return append(buf, s...)
}

func readString(data []byte) (string, int, error) {
	if len(data) < 4 {
		return "", 0, errs.ErrInvalidHeaderSize
	}

	n := int(endian.Wire.Uint32(data[0:4]))
	if 4+n > len(data) {
		return "", 0, errs.ErrInvalidHeaderSize
	}

	return string(data[4 : 4+n]), 4 + n, nil
}
