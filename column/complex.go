package column

import (
	"fmt"
	"math"

	"github.com/colbatch/colbatch/bitmap"
	"github.com/colbatch/colbatch/endian"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/format"
)

// nullTag marks a null nested value in the complex-type wire layout.
// It is chosen outside the range of format.DataType's valid values so
// it can never collide with a real leaf tag.
const nullTag = 0xFF

// ComplexValue is a recursively self-describing value for the Array,
// Struct, Map and CalendarInterval types (spec.md §3/§4.3). A column
// of arrays-of-structs has no single fixed stride for the seven scheme
// plugins to exploit, so nested values carry their own shape inline,
// following spec.md §3's slot/offset layout: a null bitmap, one
// 8-byte slot per element that either inlines a ≤8-byte fixed value
// directly or packs `(relativeOffset<<32)|size` pointing into a
// trailing variable-length region. A Map is two such blocks back to
// back, keys then values.
type ComplexValue struct {
	Type   format.DataType
	IsNull bool

	// Scalar holds the already-encoded payload for a leaf (non-complex)
	// value: the fixed-width encoding for fixed-width types (including
	// CalendarInterval, 4-byte months followed by a 4-byte microseconds
	// component packed into the same 8 bytes the slot layout below
	// inlines), or a 4-byte-length-prefixed blob for
	// String/Binary/Decimal-bytes.
	Scalar []byte

	// Elements holds the Array's elements in order.
	Elements []ComplexValue
	// Fields holds the Struct's field values in declared field order.
	Fields []ComplexValue
	// MapKeys/MapVals hold the Map's entries in insertion order
	// (parallel slices, same length).
	MapKeys []ComplexValue
	MapVals []ComplexValue
}

// EncodeComplex serializes v into its self-delimiting wire form: a
// 1-byte type tag (or nullTag) followed by the type's body. For
// Array/Struct/Map the body is the slot/offset layout encodeSlotBlock
// produces (one or two such blocks, for Map).
func EncodeComplex(v ComplexValue) []byte {
	if v.IsNull {
		return []byte{nullTag}
	}

	switch v.Type {
	case format.TypeArray:
		return append([]byte{byte(format.TypeArray)}, encodeSlotBlock(v.Elements)...)
	case format.TypeStruct:
		return append([]byte{byte(format.TypeStruct)}, encodeSlotBlock(v.Fields)...)
	case format.TypeMap:
		buf := []byte{byte(format.TypeMap)}
		buf = append(buf, encodeSlotBlock(v.MapKeys)...)
		buf = append(buf, encodeSlotBlock(v.MapVals)...)

		return buf
	default:
		buf := []byte{byte(v.Type)}

		return append(buf, v.Scalar...)
	}
}

// DecodeComplex parses one ComplexValue from the start of data and
// returns it along with the number of bytes consumed.
func DecodeComplex(data []byte) (ComplexValue, int, error) {
	if len(data) == 0 {
		return ComplexValue{}, 0, errs.ErrCorruptComplexValue
	}

	tag := data[0]
	if tag == nullTag {
		return ComplexValue{IsNull: true}, 1, nil
	}

	dt := format.DataType(tag)

	switch dt {
	case format.TypeArray:
		elems, n, err := decodeSlotBlock(data[1:])
		if err != nil {
			return ComplexValue{}, 0, err
		}

		return ComplexValue{Type: format.TypeArray, Elements: elems}, 1 + n, nil

	case format.TypeStruct:
		fields, n, err := decodeSlotBlock(data[1:])
		if err != nil {
			return ComplexValue{}, 0, err
		}

		return ComplexValue{Type: format.TypeStruct, Fields: fields}, 1 + n, nil

	case format.TypeMap:
		keys, n1, err := decodeSlotBlock(data[1:])
		if err != nil {
			return ComplexValue{}, 0, err
		}

		vals, n2, err := decodeSlotBlock(data[1+n1:])
		if err != nil {
			return ComplexValue{}, 0, err
		}

		return ComplexValue{Type: format.TypeMap, MapKeys: keys, MapVals: vals}, 1 + n1 + n2, nil

	default:
		width, variable := leafWidth(dt)
		off := 1

		if variable {
			if off+4 > len(data) {
				return ComplexValue{}, 0, fmt.Errorf("%w: truncated complex leaf", errs.ErrCorruptComplexValue)
			}
			n := int(endian.Wire.Uint32(data[off : off+4]))
			end := off + 4 + n
			if end > len(data) {
				return ComplexValue{}, 0, fmt.Errorf("%w: truncated complex leaf", errs.ErrCorruptComplexValue)
			}

			return ComplexValue{Type: dt, Scalar: append([]byte{}, data[off:end]...)}, end, nil
		}

		end := off + width
		if end > len(data) {
			return ComplexValue{}, 0, fmt.Errorf("%w: truncated complex leaf", errs.ErrCorruptComplexValue)
		}

		return ComplexValue{Type: dt, Scalar: append([]byte{}, data[off:end]...)}, end, nil
	}
}

// encodeSlotBlock serializes values into spec.md §3's nested-type
// layout: [4-byte total size][4-byte element count][null bitmap
// padded to a multiple of 8][count bytes of per-element type tags][N
// × 8-byte slots][variable-length tail]. The slots/tail split matches
// the spec precisely; the per-element type-tag array is this package's
// addition on top of it (see DESIGN.md) — ComplexValue decodes without
// an externally supplied schema, unlike the row formats (e.g. Spark's
// UnsafeRow) this layout is modeled on, so each element's
// format.DataType has to travel on the wire somewhere.
func encodeSlotBlock(values []ComplexValue) []byte {
	count := len(values)
	bitmapBytes := paddedBitmapBytes(count)

	nullBitmap := make([]byte, bitmapBytes)
	types := make([]byte, count)
	slots := make([]byte, count*8)
	var tail []byte

	for i, v := range values {
		types[i] = byte(v.Type)
		if v.IsNull {
			nullBitmap[i/8] |= 1 << uint(i%8)
			continue
		}

		slot, tailBytes := encodeSlotValue(v, len(tail))
		endian.Wire.PutUint64(slots[i*8:i*8+8], slot)
		tail = append(tail, tailBytes...)
	}

	headerSize := 8 + bitmapBytes + count
	totalSize := headerSize + len(slots) + len(tail)

	buf := make([]byte, 0, totalSize)
	buf = appendUint32(buf, uint32(totalSize))
	buf = appendUint32(buf, uint32(count))
	buf = append(buf, nullBitmap...)
	buf = append(buf, types...)
	buf = append(buf, slots...)
	buf = append(buf, tail...)

	return buf
}

// decodeSlotBlock parses a block previously produced by
// encodeSlotBlock and reports the number of bytes consumed (its
// totalSize field).
func decodeSlotBlock(data []byte) ([]ComplexValue, int, error) {
	const headerSize = 8
	if len(data) < headerSize {
		return nil, 0, fmt.Errorf("%w: truncated complex block header", errs.ErrCorruptComplexValue)
	}

	totalSize := int(endian.Wire.Uint32(data[0:4]))
	count := int(endian.Wire.Uint32(data[4:8]))
	if totalSize > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated complex block", errs.ErrCorruptComplexValue)
	}

	bitmapBytes := paddedBitmapBytes(count)
	off := headerSize
	if off+bitmapBytes > totalSize {
		return nil, 0, fmt.Errorf("%w: truncated complex block null bitmap", errs.ErrCorruptComplexValue)
	}
	nullBitmap := data[off : off+bitmapBytes]
	off += bitmapBytes

	if off+count > totalSize {
		return nil, 0, fmt.Errorf("%w: truncated complex block type tags", errs.ErrCorruptComplexValue)
	}
	types := data[off : off+count]
	off += count

	slotsBytes := count * 8
	if off+slotsBytes > totalSize {
		return nil, 0, fmt.Errorf("%w: truncated complex block slots", errs.ErrCorruptComplexValue)
	}
	slots := data[off : off+slotsBytes]
	off += slotsBytes

	tail := data[off:totalSize]
	nullWords := wordsFromBytes(nullBitmap)

	values := make([]ComplexValue, count)
	for i := 0; i < count; i++ {
		dt := format.DataType(types[i])
		if bitmap.IsSet(nullWords, i) {
			values[i] = ComplexValue{Type: dt, IsNull: true}
			continue
		}

		slot := endian.Wire.Uint64(slots[i*8 : i*8+8])
		v, err := decodeSlotValue(dt, slot, tail)
		if err != nil {
			return nil, 0, err
		}
		values[i] = v
	}

	return values, totalSize, nil
}

// encodeSlotValue returns the 8-byte slot word for v and, for a value
// that doesn't fit inline, the bytes to append to the block's tail
// region. tailOffset is the tail's current length, i.e. where this
// value's tail bytes (if any) will land once appended.
func encodeSlotValue(v ComplexValue, tailOffset int) (uint64, []byte) {
	width, variable := leafWidth(v.Type)
	if !variable {
		var padded [8]byte
		copy(padded[:], v.Scalar[:width])

		return endian.Wire.Uint64(padded[:]), nil
	}

	var payload []byte
	switch v.Type {
	case format.TypeArray:
		payload = encodeSlotBlock(v.Elements)
	case format.TypeStruct:
		payload = encodeSlotBlock(v.Fields)
	case format.TypeMap:
		payload = append(encodeSlotBlock(v.MapKeys), encodeSlotBlock(v.MapVals)...)
	default:
		// Variable-width leaf (String/Binary/Decimal-bytes): Scalar is
		// already its own [4-byte length][bytes] form.
		payload = v.Scalar
	}

	return (uint64(tailOffset) << 32) | uint64(len(payload)), payload
}

// decodeSlotValue reverses encodeSlotValue given the element's type
// tag, its slot word, and the block's tail region.
func decodeSlotValue(dt format.DataType, slot uint64, tail []byte) (ComplexValue, error) {
	width, variable := leafWidth(dt)
	if !variable {
		var b [8]byte
		endian.Wire.PutUint64(b[:], slot)

		return ComplexValue{Type: dt, Scalar: append([]byte{}, b[:width]...)}, nil
	}

	offset := int(slot >> 32)
	size := int(uint32(slot))
	if offset < 0 || size < 0 || offset+size > len(tail) {
		return ComplexValue{}, fmt.Errorf("%w: complex slot points outside tail", errs.ErrCorruptComplexValue)
	}
	payload := tail[offset : offset+size]

	switch dt {
	case format.TypeArray:
		elems, _, err := decodeSlotBlock(payload)
		if err != nil {
			return ComplexValue{}, err
		}

		return ComplexValue{Type: format.TypeArray, Elements: elems}, nil

	case format.TypeStruct:
		fields, _, err := decodeSlotBlock(payload)
		if err != nil {
			return ComplexValue{}, err
		}

		return ComplexValue{Type: format.TypeStruct, Fields: fields}, nil

	case format.TypeMap:
		if len(payload) < 4 {
			return ComplexValue{}, fmt.Errorf("%w: truncated complex map", errs.ErrCorruptComplexValue)
		}
		keysSize := int(endian.Wire.Uint32(payload[0:4]))
		if keysSize > len(payload) {
			return ComplexValue{}, fmt.Errorf("%w: truncated complex map", errs.ErrCorruptComplexValue)
		}

		keys, _, err := decodeSlotBlock(payload[:keysSize])
		if err != nil {
			return ComplexValue{}, err
		}
		vals, _, err := decodeSlotBlock(payload[keysSize:])
		if err != nil {
			return ComplexValue{}, err
		}

		return ComplexValue{Type: format.TypeMap, MapKeys: keys, MapVals: vals}, nil

	default:
		return ComplexValue{Type: dt, Scalar: append([]byte{}, payload...)}, nil
	}
}

// paddedBitmapBytes returns the byte size of a null bitmap for count
// elements, rounded up to a multiple of 8 bytes per spec.md §3's
// "null bitmap padded ... to a multiple of 8".
func paddedBitmapBytes(count int) int {
	raw := (count + 7) / 8

	return ((raw + 7) / 8) * 8
}

// leafWidth returns the fixed encoded width for dt, or (0, true) if dt
// is variable-width/length-prefixed, or a complex container type,
// instead.
func leafWidth(dt format.DataType) (int, bool) {
	switch dt {
	case format.TypeBoolean, format.TypeByte:
		return 1, false
	case format.TypeShort:
		return 2, false
	case format.TypeInt, format.TypeFloat, format.TypeDate:
		return 4, false
	case format.TypeLong, format.TypeDouble, format.TypeTimestamp, format.TypeCalendarInterval:
		return 8, false
	default:
		return 0, true
	}
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	endian.Wire.PutUint32(tmp[:], v)

	return append(buf, tmp[:]...)
}

// NewInt32Leaf builds a non-null int32 leaf ComplexValue.
func NewInt32Leaf(v int32) ComplexValue {
	b := make([]byte, 4)
	endian.Wire.PutUint32(b, uint32(v))

	return ComplexValue{Type: format.TypeInt, Scalar: b}
}

// NewInt64Leaf builds a non-null int64 leaf ComplexValue.
func NewInt64Leaf(v int64) ComplexValue {
	b := make([]byte, 8)
	endian.Wire.PutUint64(b, uint64(v))

	return ComplexValue{Type: format.TypeLong, Scalar: b}
}

// NewDoubleLeaf builds a non-null float64 leaf ComplexValue.
func NewDoubleLeaf(v float64) ComplexValue {
	b := make([]byte, 8)
	endian.Wire.PutUint64(b, math.Float64bits(v))

	return ComplexValue{Type: format.TypeDouble, Scalar: b}
}

// NewStringLeaf builds a non-null string leaf ComplexValue.
func NewStringLeaf(v string) ComplexValue {
	b := make([]byte, 4+len(v))
	endian.Wire.PutUint32(b[0:4], uint32(len(v)))
	copy(b[4:], v)

	return ComplexValue{Type: format.TypeString, Scalar: b}
}

// NewCalendarIntervalLeaf builds a non-null CalendarInterval leaf:
// months packed into the low 4 bytes (the slot/offset layout's "size
// field" position) and a microseconds component into the high 4 bytes
// (its "offset"/slot position), per spec.md §3. Packing the full
// interval into one 8-byte inline slot bounds the microseconds
// component to an int32 range rather than the int64 a standalone
// timestamp gets; see DESIGN.md.
func NewCalendarIntervalLeaf(months int32, micros int32) ComplexValue {
	b := make([]byte, 8)
	endian.Wire.PutUint32(b[0:4], uint32(months))
	endian.Wire.PutUint32(b[4:8], uint32(micros))

	return ComplexValue{Type: format.TypeCalendarInterval, Scalar: b}
}

// NullLeaf builds a null value of the given leaf type.
func NullLeaf(dt format.DataType) ComplexValue {
	return ComplexValue{Type: dt, IsNull: true}
}
