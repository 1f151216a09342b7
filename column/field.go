package column

import "github.com/colbatch/colbatch/format"

// Field describes a single column's declared shape: its SQL data
// type, nullability, chosen encoding scheme, and (for Decimal) its
// precision/scale. Initialize is called once per Encoder/Decoder with
// a Field before any row is written or read, matching spec.md §4.3's
// "a column's type and scheme are fixed for the lifetime of the
// buffer" invariant.
type Field struct {
	Name     string
	Type     format.DataType
	Nullable bool
	Scheme   format.SchemeID

	// DecimalPrecision and DecimalScale are only meaningful when
	// Type == TypeDecimal. Precision <= 18 selects the int64 fast
	// path; precision > 18 selects the byte-array slow path, per
	// spec.md §3/§4.3.
	DecimalPrecision int
	DecimalScale     int
}

// decimalFastPathMaxPrecision is the largest decimal precision that
// fits losslessly in an int64 (scaled fixed-point) representation.
const decimalFastPathMaxPrecision = 18

// usesInt64FastPath reports whether a Decimal field is encoded via the
// int64 fast path rather than the byte-array slow path.
func (f Field) usesInt64FastPath() bool {
	return f.DecimalPrecision <= decimalFastPathMaxPrecision
}
