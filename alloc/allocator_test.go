package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapAllocatorAllocate(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.Allocate(16)
	require.NoError(t, err)
	require.Equal(t, 16, buf.Len())
	require.False(t, buf.IsDirect())
}

func TestDirectAllocatorAllocate(t *testing.T) {
	a := NewDirectAllocator()

	buf, err := a.Allocate(16)
	require.NoError(t, err)
	require.True(t, buf.IsDirect())
	require.True(t, a.IsManagedDirect())
}

func TestAllocateForStorageTagsBuffer(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.AllocateForStorage(8)
	require.NoError(t, err)
	require.True(t, buf.IsForStorage())
}

func TestAllocateOversizeFails(t *testing.T) {
	a := NewHeapAllocator()

	_, err := a.Allocate(MaxBufferSize + 1)
	require.Error(t, err)
}

func TestExpandGrowsAndCopies(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.Allocate(4)
	require.NoError(t, err)
	copy(buf.Bytes(), []byte{1, 2, 3, 4})

	grown, err := a.Expand(buf, 10)
	require.NoError(t, err)
	require.Equal(t, 14, grown.Len())
	require.Equal(t, []byte{1, 2, 3, 4}, grown.Bytes()[:4])
}

func TestExpandWithinCapacityReusesBuffer(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.Allocate(0)
	require.NoError(t, err)

	buf.b = buf.b[:0:64] // simulate spare capacity without changing length
	grown, err := a.Expand(buf, 10)
	require.NoError(t, err)
	require.Equal(t, 10, grown.Len())
}

func TestExpandNilBufferAllocates(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.Expand(nil, 8)
	require.NoError(t, err)
	require.Equal(t, 8, buf.Len())
}

func TestExpandOverflowFails(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.Allocate(MaxBufferSize - 1)
	require.NoError(t, err)

	_, err = a.Expand(buf, 10)
	require.Error(t, err)
}

func TestReleaseIsIdempotent(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.Allocate(8)
	require.NoError(t, err)

	a.Release(buf)
	require.Equal(t, 0, buf.Len())

	require.NotPanics(t, func() { a.Release(buf) })
	require.NotPanics(t, func() { a.Release(nil) })
}

func TestClearBufferZeroesRange(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.Allocate(8)
	require.NoError(t, err)
	for i := range buf.Bytes() {
		buf.Bytes()[i] = 0xFF
	}

	a.ClearBuffer(buf, 2, 4)
	require.Equal(t, []byte{0xFF, 0xFF, 0, 0, 0, 0, 0xFF, 0xFF}, buf.Bytes())
}

func TestTransferSetsOwnerTag(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.Allocate(4)
	require.NoError(t, err)

	out := a.Transfer(buf, "new-owner")
	require.Equal(t, "new-owner", out.owner)
}

func TestBufferSliceAndSetLen(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.Allocate(8)
	require.NoError(t, err)

	s := buf.Slice(0, 4)
	require.Len(t, s, 4)

	buf.SetLen(2)
	require.Equal(t, 2, buf.Len())
}

func TestBufferSetLenPanicsOutOfRange(t *testing.T) {
	a := NewHeapAllocator()

	buf, err := a.Allocate(4)
	require.NoError(t, err)

	require.Panics(t, func() { buf.SetLen(100) })
}

func TestNilBufferMethodsAreSafe(t *testing.T) {
	var buf *Buffer

	require.Nil(t, buf.Bytes())
	require.Equal(t, 0, buf.Len())
	require.Equal(t, 0, buf.Cap())
	require.False(t, buf.IsDirect())
	require.False(t, buf.IsForStorage())
}
