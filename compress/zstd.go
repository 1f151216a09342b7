//go:build !colbatch_zstd_cgo

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/colbatch/colbatch/alloc"
	"github.com/colbatch/colbatch/format"
)

// zstdCodec compresses with the pure-Go klauspost/compress/zstd
// implementation. It is the default zstd backend; build with
// -tags colbatch_zstd_cgo to swap in the cgo-backed gozstd codec
// (zstd_cgo.go) instead, matching the teacher's own
// compress/zstd_pure.go / compress/zstd_cgo.go split.
type zstdCodec struct{}

var _ Codec = zstdCodec{}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("compress: failed to create zstd decoder: %v", err))
		}

		return dec
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("compress: failed to create zstd encoder: %v", err))
		}

		return enc
	},
}

func (zstdCodec) Compress(data []byte, length int, a alloc.Allocator) (*alloc.Buffer, error) {
	enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)

	out := enc.EncodeAll(data[:length], nil)

	return bufferFrom(a, out)
}

func (zstdCodec) Decompress(data []byte, a alloc.Allocator) (*alloc.Buffer, error) {
	if len(data) == 0 {
		return a.Allocate(0)
	}

	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("compress: zstd decode failed: %w", err)
	}

	return bufferFrom(a, out)
}

func (zstdCodec) ID() format.CodecID { return format.CodecZstd }
