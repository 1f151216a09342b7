package column

import (
	"fmt"

	"github.com/colbatch/colbatch/endian"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/format"
)

// HeaderSize is the fixed size in bytes of the top-level column header:
// [4-byte encoding type-id][4-byte null-bitmap size], matching spec.md
// §3's "Column buffer layout (top level)".
const HeaderSize = 8

// Header is the fixed 8-byte prefix of every column buffer.
type Header struct {
	// SchemeID names the encoding scheme the body is encoded with.
	SchemeID format.SchemeID
	// NullBitmapSize is the size in bytes of the null bitmap that
	// immediately follows the header. A declared non-nullable encoder
	// always writes NullBitmapSize = 0; a nullable encoder reserves its
	// bitmap even when no row is null (invariant I2 ties the declared
	// size to the physical size, not to whether any bit is set).
	NullBitmapSize uint32
}

// Bytes serializes the header into its 8-byte wire form, little-endian
// per spec.md invariant I3.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	endian.Wire.PutUint32(b[0:4], uint32(h.SchemeID))
	endian.Wire.PutUint32(b[4:8], h.NullBitmapSize)

	return b
}

// ParseHeader reads a Header from the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errs.ErrInvalidHeaderSize
	}

	schemeID := format.SchemeID(endian.Wire.Uint32(data[0:4]))
	bitmapSize := endian.Wire.Uint32(data[4:8])

	if _, ok := registry[schemeID]; !ok {
		return Header{}, fmt.Errorf("%w: type-id %d", errs.ErrUnknownEncoding, schemeID)
	}

	return Header{SchemeID: schemeID, NullBitmapSize: bitmapSize}, nil
}
