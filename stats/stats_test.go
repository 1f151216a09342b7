package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colbatch/colbatch/format"
)

func TestTrackerNumericBounds(t *testing.T) {
	tr := NewTracker(format.TypeInt)
	tr.ObserveNumeric(5)
	tr.ObserveNull()
	tr.ObserveNumeric(1)
	tr.ObserveNumeric(9)

	row := tr.Finish()
	require.True(t, row.HasBounds)
	require.Equal(t, float64(1), row.MinNum)
	require.Equal(t, float64(9), row.MaxNum)
	require.Equal(t, int64(1), row.NullCount)
}

func TestTrackerStringBounds(t *testing.T) {
	tr := NewTracker(format.TypeString)
	tr.ObserveString("b")
	tr.ObserveString("a")
	tr.ObserveString("z")

	row := tr.Finish()
	require.Equal(t, "a", row.MinStr)
	require.Equal(t, "z", row.MaxStr)
	require.Equal(t, int64(0), row.NullCount)
}

func TestTrackerAllNullsHasNoBounds(t *testing.T) {
	tr := NewTracker(format.TypeLong)
	tr.ObserveNull()
	tr.ObserveNull()

	row := tr.Finish()
	require.False(t, row.HasBounds)
	require.Equal(t, int64(2), row.NullCount)
}

func TestPinnedRowHasInfiniteBounds(t *testing.T) {
	row := PinnedRow(format.TypeArray, 3)
	require.True(t, row.HasBounds)
	require.Equal(t, int64(3), row.NullCount)
	require.True(t, math.IsInf(row.MinNum, -1))
	require.True(t, math.IsInf(row.MaxNum, 1))
}

func TestRowBytesRoundTripNumeric(t *testing.T) {
	row := Row{
		DataType:  format.TypeInt,
		NullCount: 2,
		HasBounds: true,
		MinNum:    -5,
		MaxNum:    42,
	}

	parsed, n, err := ParseRow(row.Bytes())
	require.NoError(t, err)
	require.Equal(t, len(row.Bytes()), n)
	require.Equal(t, row, parsed)
}

func TestRowBytesRoundTripString(t *testing.T) {
	row := Row{
		DataType:  format.TypeString,
		NullCount: 1,
		HasBounds: true,
		MinStr:    "a",
		MaxStr:    "z",
	}

	parsed, n, err := ParseRow(row.Bytes())
	require.NoError(t, err)
	require.Equal(t, len(row.Bytes()), n)
	require.Equal(t, row, parsed)
}

func TestRowBytesRoundTripNoBounds(t *testing.T) {
	row := Row{DataType: format.TypeLong, NullCount: 5}

	parsed, n, err := ParseRow(row.Bytes())
	require.NoError(t, err)
	require.Equal(t, len(row.Bytes()), n)
	require.Equal(t, row, parsed)
}

func TestParseRowTruncatedFails(t *testing.T) {
	_, _, err := ParseRow([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestBatchRowBytesRoundTrip(t *testing.T) {
	batch := BatchRow{
		RowCount: 3,
		Columns: []Row{
			{DataType: format.TypeInt, NullCount: 1, HasBounds: true, MinNum: 1, MaxNum: 2},
			{DataType: format.TypeString, NullCount: 0, HasBounds: true, MinStr: "a", MaxStr: "b"},
			{DataType: format.TypeBoolean, NullCount: 0},
		},
	}

	parsed, err := ParseBatchRow(batch.Bytes())
	require.NoError(t, err)
	require.Equal(t, batch, parsed)
}

func TestBatchRowTruncatedFails(t *testing.T) {
	_, err := ParseBatchRow([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestBatchRowEmpty(t *testing.T) {
	batch := BatchRow{RowCount: 0}

	parsed, err := ParseBatchRow(batch.Bytes())
	require.NoError(t, err)
	require.Equal(t, 0, len(parsed.Columns))
	require.Equal(t, int64(0), parsed.RowCount)
}
