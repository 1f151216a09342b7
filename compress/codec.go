// Package compress implements the "compress(buf, allocator) /
// decompress(buf, allocator)" collaborator of spec.md §6: a small
// registry of Codec implementations keyed by format.CodecID, used by
// batchvalue.Value's compression state machine (spec.md §4.6).
package compress

import (
	"fmt"

	"github.com/colbatch/colbatch/alloc"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/format"
)

// Codec compresses and decompresses a column buffer's byte payload.
// Implementations must be safe for concurrent use: a single Codec
// instance is shared process-wide through the registry (GetCodec).
type Codec interface {
	// Compress returns a newly allocated, possibly-smaller encoding of
	// data[:length]. Implementations that cannot beat the input size
	// may still return a larger result; batchvalue's state machine is
	// responsible for detecting that and falling back to Unknown(-1).
	Compress(data []byte, length int, a alloc.Allocator) (*alloc.Buffer, error)

	// Decompress returns the original bytes a matching Compress call
	// produced.
	Decompress(data []byte, a alloc.Allocator) (*alloc.Buffer, error)

	// ID returns the codec's registry id, embedded in column-batch
	// value framing so a decoder can look the codec back up.
	ID() format.CodecID
}

var registry = map[format.CodecID]Codec{
	format.CodecNone: noopCodec{},
	format.CodecZstd: zstdCodec{},
	format.CodecLZ4:  lz4Codec{},
}

// GetCodec looks up a built-in Codec by id. The registry is populated
// once at package init and is never mutated afterward (spec.md Design
// Notes: "the codec registry... is process-wide, initialized once").
func GetCodec(id format.CodecID) (Codec, error) {
	c, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d (%s)", errs.ErrUnsupportedCodec, id, id)
	}

	return c, nil
}

// bufferFrom wraps a plain []byte as an *alloc.Buffer allocated through
// a, copying the bytes into allocator-owned storage so that downstream
// Release calls remain meaningful regardless of which codec produced
// the data.
func bufferFrom(a alloc.Allocator, data []byte) (*alloc.Buffer, error) {
	buf, err := a.Allocate(len(data))
	if err != nil {
		return nil, err
	}
	copy(buf.Bytes(), data)

	return buf, nil
}
