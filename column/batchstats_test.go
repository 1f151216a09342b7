package column

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colbatch/colbatch/format"
	"github.com/colbatch/colbatch/stats"
)

func TestEncoderTracksNumericStats(t *testing.T) {
	field := Field{Name: "n", Type: format.TypeInt, Nullable: true, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	require.NoError(t, enc.WriteIsNull(false))
	require.NoError(t, enc.WriteInt(1))
	require.NoError(t, enc.WriteIsNull(false))
	require.NoError(t, enc.WriteInt(2))
	require.NoError(t, enc.WriteIsNull(true))

	_, err := enc.Finish()
	require.NoError(t, err)

	row := enc.Stats()
	require.True(t, row.HasBounds)
	require.Equal(t, float64(1), row.MinNum)
	require.Equal(t, float64(2), row.MaxNum)
	require.Equal(t, int64(1), row.NullCount)
}

func TestEncoderTracksStringStats(t *testing.T) {
	field := Field{Name: "s", Type: format.TypeString, Scheme: format.SchemeUncompressed}

	enc := NewEncoder()
	require.NoError(t, enc.Initialize(field))

	for _, v := range []string{"b", "a"} {
		require.NoError(t, enc.WriteIsNull(false))
		require.NoError(t, enc.WriteString(v))
	}

	_, err := enc.Finish()
	require.NoError(t, err)

	row := enc.Stats()
	require.Equal(t, "a", row.MinStr)
	require.Equal(t, "b", row.MaxStr)
	require.Equal(t, int64(0), row.NullCount)
}

func TestEncodeDecodeStatsRoundTrip(t *testing.T) {
	intField := Field{Name: "n", Type: format.TypeInt, Nullable: true, Scheme: format.SchemeUncompressed}
	strField := Field{Name: "s", Type: format.TypeString, Scheme: format.SchemeUncompressed}
	boolField := Field{Name: "b", Type: format.TypeBoolean, Nullable: true, Scheme: format.SchemeBooleanBitSet}

	intEnc, strEnc, boolEnc := NewEncoder(), NewEncoder(), NewEncoder()
	require.NoError(t, intEnc.Initialize(intField))
	require.NoError(t, strEnc.Initialize(strField))
	require.NoError(t, boolEnc.Initialize(boolField))

	rows := [][3]any{
		{int32(1), "a", true},
		{int32(2), "b", false},
	}
	for _, r := range rows {
		require.NoError(t, intEnc.WriteIsNull(false))
		require.NoError(t, intEnc.WriteInt(r[0].(int32)))
		require.NoError(t, strEnc.WriteIsNull(false))
		require.NoError(t, strEnc.WriteString(r[1].(string)))
		require.NoError(t, boolEnc.WriteIsNull(false))
		require.NoError(t, boolEnc.WriteBool(r[2].(bool)))
	}
	require.NoError(t, intEnc.WriteIsNull(true))
	require.NoError(t, strEnc.WriteIsNull(false))
	require.NoError(t, strEnc.WriteString("a"))
	require.NoError(t, boolEnc.WriteIsNull(false))
	require.NoError(t, boolEnc.WriteBool(true))

	for _, enc := range []*Encoder{intEnc, strEnc, boolEnc} {
		_, err := enc.Finish()
		require.NoError(t, err)
	}

	buf := EncodeStats([]stats.Row{intEnc.Stats(), strEnc.Stats(), boolEnc.Stats()}, 3)

	decoded, err := DecodeStats(buf)
	require.NoError(t, err)
	require.Equal(t, int64(3), decoded.RowCount)
	require.Len(t, decoded.Columns, 3)

	require.Equal(t, float64(1), decoded.Columns[0].MinNum)
	require.Equal(t, float64(2), decoded.Columns[0].MaxNum)
	require.Equal(t, int64(1), decoded.Columns[0].NullCount)

	require.Equal(t, "a", decoded.Columns[1].MinStr)
	require.Equal(t, "b", decoded.Columns[1].MaxStr)
	require.Equal(t, int64(0), decoded.Columns[1].NullCount)

	require.Equal(t, float64(0), decoded.Columns[2].MinNum)
	require.Equal(t, float64(1), decoded.Columns[2].MaxNum)
}
