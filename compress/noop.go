package compress

import (
	"github.com/colbatch/colbatch/alloc"
	"github.com/colbatch/colbatch/format"
)

// noopCodec is the identity codec (format.CodecNone), for a caller
// that explicitly opts out of compression.
type noopCodec struct{}

var _ Codec = noopCodec{}

func (noopCodec) Compress(data []byte, length int, a alloc.Allocator) (*alloc.Buffer, error) {
	return bufferFrom(a, data[:length])
}

func (noopCodec) Decompress(data []byte, a alloc.Allocator) (*alloc.Buffer, error) {
	return bufferFrom(a, data)
}

func (noopCodec) ID() format.CodecID { return format.CodecNone }
