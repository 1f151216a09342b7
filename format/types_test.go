package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDataTypeString(t *testing.T) {
	require.Equal(t, "Boolean", TypeBoolean.String())
	require.Equal(t, "Map", TypeMap.String())
	require.Equal(t, "Unknown", DataType(250).String())
}

func TestDataTypeIsComplex(t *testing.T) {
	require.True(t, TypeArray.IsComplex())
	require.True(t, TypeStruct.IsComplex())
	require.True(t, TypeMap.IsComplex())
	require.False(t, TypeInt.IsComplex())
}

func TestDataTypeIsFixedWidth(t *testing.T) {
	require.True(t, TypeInt.IsFixedWidth())
	require.True(t, TypeDouble.IsFixedWidth())
	require.False(t, TypeString.IsFixedWidth())
	require.False(t, TypeArray.IsFixedWidth())
}

func TestSchemeIDString(t *testing.T) {
	require.Equal(t, "Uncompressed", SchemeUncompressed.String())
	require.Equal(t, "BigDictionary", SchemeBigDictionary.String())
	require.Equal(t, "Unknown", SchemeID(999).String())
}

func TestCodecIDString(t *testing.T) {
	require.Equal(t, "None", CodecNone.String())
	require.Equal(t, "Zstd", CodecZstd.String())
	require.Equal(t, "LZ4", CodecLZ4.String())
	require.Equal(t, "Unknown", CodecID(250).String())
}
