package compress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colbatch/colbatch/alloc"
	"github.com/colbatch/colbatch/format"
)

func roundTrip(t *testing.T, c Codec, data []byte) {
	t.Helper()
	a := alloc.NewHeapAllocator()

	compressed, err := c.Compress(data, len(data), a)
	require.NoError(t, err)

	decompressed, err := c.Decompress(compressed.Bytes(), a)
	require.NoError(t, err)

	require.Equal(t, data, decompressed.Bytes())
}

func TestNoopCodecRoundTrip(t *testing.T) {
	c, err := GetCodec(format.CodecNone)
	require.NoError(t, err)
	require.Equal(t, format.CodecNone, c.ID())

	roundTrip(t, c, []byte("hello world"))
	roundTrip(t, c, []byte{})
}

func TestZstdCodecRoundTrip(t *testing.T) {
	c, err := GetCodec(format.CodecZstd)
	require.NoError(t, err)
	require.Equal(t, format.CodecZstd, c.ID())

	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 7)
	}

	roundTrip(t, c, data)
}

func TestLZ4CodecRoundTrip(t *testing.T) {
	c, err := GetCodec(format.CodecLZ4)
	require.NoError(t, err)
	require.Equal(t, format.CodecLZ4, c.ID())

	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 5)
	}

	roundTrip(t, c, data)
}

func TestGetCodecUnknownFails(t *testing.T) {
	_, err := GetCodec(format.CodecID(250))
	require.Error(t, err)
}
