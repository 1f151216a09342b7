package column

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/format"
)

func TestIntUncompressedRoundTrip(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	values := []int32{1, -2, 3, 0, 42}
	for _, v := range values {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteInt(v))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, len(values)))

	var got []int32
	for v := range dec.Ints() {
		got = append(got, v)
	}
	require.Equal(t, values, got)
}

func TestIntRunLengthRoundTrip(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Scheme: format.SchemeRunLength}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	values := []int32{5, 5, 5, 7, 7, 1}
	for _, v := range values {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteInt(v))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, len(values)))

	for i, want := range values {
		got, ok := dec.IntAt(i)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestBooleanBitSetRoundTrip(t *testing.T) {
	field := Field{Name: "b", Type: format.TypeBoolean, Scheme: format.SchemeBooleanBitSet}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	values := []bool{true, false, false, true, true, true, false, true, false}
	for _, v := range values {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteBool(v))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, len(values)))

	var got []bool
	for v := range dec.Bools() {
		got = append(got, v)
	}
	require.Equal(t, values, got)
}

func TestDictionaryRoundTrip(t *testing.T) {
	field := Field{Name: "s", Type: format.TypeString, Scheme: format.SchemeDictionary}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	values := []string{"alpha", "beta", "alpha", "gamma", "beta"}
	for _, v := range values {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteString(v))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	hdr, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, format.SchemeDictionary, hdr.SchemeID)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, len(values)))

	var got []string
	for v := range dec.Strings() {
		got = append(got, v)
	}
	require.Equal(t, values, got)
}

func TestDictionaryPromotesToBigDictionary(t *testing.T) {
	field := Field{Name: "s", Type: format.TypeString, Scheme: format.SchemeDictionary}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	const distinct = dictPromoteThreshold
	label := func(i int) string { return fmt.Sprintf("v%d", i) }
	for i := 0; i < distinct; i++ {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteString(label(i)))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	hdr, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, format.SchemeBigDictionary, hdr.SchemeID)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, distinct))

	got, ok := dec.StringAt(0)
	require.True(t, ok)
	require.Equal(t, label(0), got)

	got, ok = dec.StringAt(distinct - 1)
	require.True(t, ok)
	require.Equal(t, label(distinct-1), got)
}

func TestDictionaryStaysSmallOneEntryBelowThreshold(t *testing.T) {
	field := Field{Name: "s", Type: format.TypeString, Scheme: format.SchemeDictionary}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	const distinct = dictPromoteThreshold - 1
	for i := 0; i < distinct; i++ {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteString(fmt.Sprintf("v%d", i)))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	hdr, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, format.SchemeDictionary, hdr.SchemeID)
}

func TestIntDeltaRoundTripNoOverflow(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Scheme: format.SchemeIntDelta}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	values := []int32{1000, 1001, 999, 1050, 1000}
	for _, v := range values {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteInt(v))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	hdr, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, format.SchemeIntDelta, hdr.SchemeID)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, len(values)))

	var got []int32
	for v := range dec.Ints() {
		got = append(got, v)
	}
	require.Equal(t, values, got)
}

func TestIntDeltaOverflowFallsBackToUncompressed(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Scheme: format.SchemeIntDelta}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	values := []int32{math.MinInt32, math.MaxInt32}
	for _, v := range values {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteInt(v))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	hdr, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, format.SchemeUncompressed, hdr.SchemeID)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, len(values)))

	var got []int32
	for v := range dec.Ints() {
		got = append(got, v)
	}
	require.Equal(t, values, got)
}

func TestLongDeltaOverflowFallsBackToUncompressed(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeLong, Scheme: format.SchemeLongDelta}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	values := []int64{0, 1 << 40}
	for _, v := range values {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteLong(v))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	hdr, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, format.SchemeUncompressed, hdr.SchemeID)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, len(values)))

	var got []int64
	for v := range dec.Longs() {
		got = append(got, v)
	}
	require.Equal(t, values, got)
}

func TestNullableColumnRoundTrip(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Nullable: true, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	require.NoError(t, enc.WriteIsNull(false))
	require.NoError(t, enc.WriteInt(10))
	require.NoError(t, enc.WriteIsNull(true))
	require.NoError(t, enc.WriteIsNull(false))
	require.NoError(t, enc.WriteInt(20))

	data, err := enc.Finish()
	require.NoError(t, err)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, 3))

	require.False(t, dec.IsNull(0))
	require.True(t, dec.IsNull(1))
	require.False(t, dec.IsNull(2))

	v0, ok := dec.IntAt(0)
	require.True(t, ok)
	require.Equal(t, int32(10), v0)

	v2, ok := dec.IntAt(2)
	require.True(t, ok)
	require.Equal(t, int32(20), v2)

	require.Equal(t, 0, dec.NumNullsUntilPosition(0))
	require.Equal(t, 0, dec.NumNullsUntilPosition(1))
	require.Equal(t, 1, dec.NumNullsUntilPosition(2))
	require.Equal(t, 1, dec.NumNullsUntilPosition(3))
}

func TestAllNullsColumn(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Nullable: true, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	for i := 0; i < 3; i++ {
		require.NoError(t, enc.WriteIsNull(true))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, 3))

	for i := 0; i < 3; i++ {
		require.True(t, dec.IsNull(i))
	}
}

func TestZeroRowsColumn(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	data, err := enc.Finish()
	require.NoError(t, err)
	require.Equal(t, 0, enc.RowCount())

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, 0))

	count := 0
	for range dec.Ints() {
		count++
	}
	require.Equal(t, 0, count)
}

func TestWriteNullOnNotNullColumnFails(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Nullable: false, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	err := enc.WriteIsNull(true)
	require.ErrorIs(t, err, errs.ErrNullsInNotNullColumn)
}

func TestWrongTypeWriteFails(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	err := enc.WriteString("nope")
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
}

func TestFinishTwiceFails(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))
	require.NoError(t, enc.WriteIsNull(false))
	require.NoError(t, enc.WriteInt(1))

	_, err := enc.Finish()
	require.NoError(t, err)

	_, err = enc.Finish()
	require.ErrorIs(t, err, errs.ErrEncoderFinished)
}

func TestParseHeaderUnknownScheme(t *testing.T) {
	data := make([]byte, HeaderSize)
	_, err := ParseHeader(data[:3])
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)

	bad := Header{SchemeID: format.SchemeID(250)}.Bytes()
	_, err = ParseHeader(bad)
	require.ErrorIs(t, err, errs.ErrUnknownEncoding)
}

func TestDoubleRoundTrip(t *testing.T) {
	field := Field{Name: "d", Type: format.TypeDouble, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	values := []float64{1.5, -2.25, 0, 3.14159}
	for _, v := range values {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteDouble(v))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, len(values)))

	var got []float64
	for v := range dec.Doubles() {
		got = append(got, v)
	}
	require.Equal(t, values, got)
}

func TestBinaryRoundTrip(t *testing.T) {
	field := Field{Name: "b", Type: format.TypeBinary, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	values := [][]byte{{1, 2, 3}, {}, {0xFF}}
	for _, v := range values {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteBinary(v))
	}

	data, err := enc.Finish()
	require.NoError(t, err)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, len(values)))

	i := 0
	for v := range dec.Binaries() {
		require.Equal(t, values[i], v)
		i++
	}
}

func TestDecimalLongFastPathRoundTrip(t *testing.T) {
	field := Field{Name: "dec", Type: format.TypeDecimal, Scheme: format.SchemeUncompressed, DecimalPrecision: 10, DecimalScale: 2}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	require.NoError(t, enc.WriteIsNull(false))
	require.NoError(t, enc.WriteDecimalLong(12345))

	data, err := enc.Finish()
	require.NoError(t, err)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, 1))

	v, ok := dec.DecimalLongAt(0)
	require.True(t, ok)
	require.Equal(t, int64(12345), v)
}

func TestDecimalBytesSlowPathRoundTrip(t *testing.T) {
	field := Field{Name: "dec", Type: format.TypeDecimal, Scheme: format.SchemeUncompressed, DecimalPrecision: 30, DecimalScale: 4}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	unscaled := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	require.NoError(t, enc.WriteIsNull(false))
	require.NoError(t, enc.WriteDecimalBytes(unscaled))

	data, err := enc.Finish()
	require.NoError(t, err)

	dec := NewDecoder()
	require.NoError(t, dec.Initialize(data, field, 1))

	v, ok := dec.DecimalBytesAt(0)
	require.True(t, ok)
	require.Equal(t, unscaled, v)
}
