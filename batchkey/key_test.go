package batchkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func uuidFor(b byte) UUID {
	var u UUID
	u[0] = b

	return u
}

func TestNewAndAccessors(t *testing.T) {
	k := New(uuidFor(1), 7, 3)

	require.Equal(t, int32(7), k.RoutingObject())
	require.Equal(t, int32(3), k.ColumnIndex)
}

func TestWithColumnIndexPreservesRest(t *testing.T) {
	k := New(uuidFor(1), 7, 3)
	sibling := k.WithColumnIndex(StatsIndex)

	require.Equal(t, k.UUID, sibling.UUID)
	require.Equal(t, k.PartitionID, sibling.PartitionID)
	require.Equal(t, StatsIndex, sibling.ColumnIndex)
	require.Equal(t, int32(3), k.ColumnIndex) // original unchanged
}

func TestEqual(t *testing.T) {
	a := New(uuidFor(1), 7, 3)
	b := New(uuidFor(1), 7, 3)
	c := New(uuidFor(2), 7, 3)

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestHashStableAndPartitionSensitive(t *testing.T) {
	a := New(uuidFor(1), 7, 3)
	b := New(uuidFor(1), 7, 3)
	c := New(uuidFor(1), 8, 3)

	require.Equal(t, a.Hash(), b.Hash())
	require.NotEqual(t, a.Hash(), c.Hash())
}

func TestBytesAndParseRoundTrip(t *testing.T) {
	k := New(uuidFor(0xAB), -7, StatsIndex)

	data := k.Bytes()
	require.Len(t, data, KeySize)

	parsed, err := Parse(data)
	require.NoError(t, err)
	require.True(t, k.Equal(parsed))
}

func TestParseInvalidLength(t *testing.T) {
	_, err := Parse([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestReservedIndicesAreDistinct(t *testing.T) {
	require.NotEqual(t, StatsIndex, DeltaStatsIndex)
	require.NotEqual(t, DeltaStatsIndex, DeleteMaskIndex)
	require.NotEqual(t, StatsIndex, DeleteMaskIndex)
}

func TestUUIDString(t *testing.T) {
	u := uuidFor(0xAB)
	require.Equal(t, "ab000000000000000000000000000000", u.String())
	require.Len(t, u.String(), UUIDSize*2)
}
