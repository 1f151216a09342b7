package column

import "github.com/colbatch/colbatch/format"

// registry lists every encoding scheme-id this package knows how to
// decode. It is populated once at package init and never mutated
// afterward, matching the process-wide immutable-registry convention
// used by compress.registry. ParseHeader consults it to reject an
// unknown on-wire scheme-id before the decoder framework ever touches
// the body.
var registry = map[format.SchemeID]string{
	format.SchemeUncompressed:  "uncompressed",
	format.SchemeRunLength:     "run-length",
	format.SchemeDictionary:    "dictionary",
	format.SchemeBigDictionary: "big-dictionary",
	format.SchemeBooleanBitSet: "boolean-bitset",
	format.SchemeIntDelta:      "int-delta",
	format.SchemeLongDelta:     "long-delta",
}

// DefaultScheme returns the scheme a column encoder selects for dt when
// the caller does not explicitly override it: strings and binary
// values default to the Dictionary scheme (most SQL table batches have
// low-to-moderate cardinality text columns where de-duplication wins),
// booleans default to BooleanBitSet, and every other fixed-width type
// defaults to Uncompressed. This mirrors spec.md's design note that
// scheme selection is a policy decision, not something inferred from
// a data sample at encode time.
func DefaultScheme(dt format.DataType) format.SchemeID {
	switch dt {
	case format.TypeString, format.TypeBinary:
		return format.SchemeDictionary
	case format.TypeBoolean:
		return format.SchemeBooleanBitSet
	default:
		return format.SchemeUncompressed
	}
}
