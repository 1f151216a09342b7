// Package format defines the small closed vocabularies shared by every
// layer of the column-batch wire format: data types, encoding scheme
// ids, and compression codec ids. These are process-wide constants,
// never extended at runtime.
package format

// DataType identifies the logical SQL type a column buffer carries.
// It drives scheme selection (format.SchemeID) and statistics bound
// tracking (package stats).
type DataType uint8

const (
	TypeBoolean DataType = iota + 1
	TypeByte
	TypeShort
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeString
	TypeBinary
	TypeDecimal
	TypeDate
	TypeTimestamp
	TypeCalendarInterval
	TypeArray
	TypeStruct
	TypeMap
)

func (t DataType) String() string {
	switch t {
	case TypeBoolean:
		return "Boolean"
	case TypeByte:
		return "Byte"
	case TypeShort:
		return "Short"
	case TypeInt:
		return "Int"
	case TypeLong:
		return "Long"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	case TypeString:
		return "String"
	case TypeBinary:
		return "Binary"
	case TypeDecimal:
		return "Decimal"
	case TypeDate:
		return "Date"
	case TypeTimestamp:
		return "Timestamp"
	case TypeCalendarInterval:
		return "CalendarInterval"
	case TypeArray:
		return "Array"
	case TypeStruct:
		return "Struct"
	case TypeMap:
		return "Map"
	default:
		return "Unknown"
	}
}

// IsComplex reports whether the type is array/struct/map, which embed
// the nested-type layout described in spec.md §3 rather than a flat
// primitive body.
func (t DataType) IsComplex() bool {
	return t == TypeArray || t == TypeStruct || t == TypeMap
}

// IsFixedWidth reports whether values of this type are always encoded
// in a fixed number of bytes.
func (t DataType) IsFixedWidth() bool {
	switch t {
	case TypeBoolean, TypeByte, TypeShort, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeDate, TypeTimestamp:
		return true
	default:
		return false
	}
}

// SchemeID identifies one of the seven column encoding schemes of
// spec.md §3/§4.4. The zero value is SchemeUncompressed.
type SchemeID uint32

const (
	SchemeUncompressed SchemeID = iota
	SchemeRunLength
	SchemeDictionary
	SchemeBigDictionary
	SchemeBooleanBitSet
	SchemeIntDelta
	SchemeLongDelta
)

func (s SchemeID) String() string {
	switch s {
	case SchemeUncompressed:
		return "Uncompressed"
	case SchemeRunLength:
		return "RunLength"
	case SchemeDictionary:
		return "Dictionary"
	case SchemeBigDictionary:
		return "BigDictionary"
	case SchemeBooleanBitSet:
		return "BooleanBitSet"
	case SchemeIntDelta:
		return "IntDelta"
	case SchemeLongDelta:
		return "LongDelta"
	default:
		return "Unknown"
	}
}

// CodecID identifies a registered compression codec (spec.md §6's
// "Codec" collaborator). Id 0 is always the identity codec.
type CodecID uint8

const (
	CodecNone CodecID = iota
	CodecZstd
	CodecLZ4
)

func (c CodecID) String() string {
	switch c {
	case CodecNone:
		return "None"
	case CodecZstd:
		return "Zstd"
	case CodecLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
