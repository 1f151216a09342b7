package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/colbatch/colbatch/alloc"
	"github.com/colbatch/colbatch/format"
)

// lz4Codec trades compression ratio for speed relative to zstd; it is
// the codec a caller selects for hot, frequently-recompressed column
// buffers (spec.md §4.6's MAX_CONSECUTIVE_COMPRESSIONS path).
type lz4Codec struct{}

var _ Codec = lz4Codec{}

var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

func (lz4Codec) Compress(data []byte, length int, a alloc.Allocator) (*alloc.Buffer, error) {
	data = data[:length]
	if len(data) == 0 {
		return a.Allocate(0)
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("compress: lz4 compress failed: %w", err)
	}

	return bufferFrom(a, dst[:n])
}

func (lz4Codec) Decompress(data []byte, a alloc.Allocator) (*alloc.Buffer, error) {
	if len(data) == 0 {
		return a.Allocate(0)
	}

	const maxSize = 128 * 1024 * 1024
	bufSize := len(data) * 4

	for bufSize <= maxSize {
		dst := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2

				continue
			}

			return nil, fmt.Errorf("compress: lz4 decompress failed: %w", err)
		}

		return bufferFrom(a, dst[:n])
	}

	return nil, fmt.Errorf("compress: lz4 decompress failed: %w", lz4.ErrInvalidSourceShortBuffer)
}

func (lz4Codec) ID() format.CodecID { return format.CodecLZ4 }
