package bitmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWordsAndBytesForBits(t *testing.T) {
	require.Equal(t, 0, WordsForBits(0))
	require.Equal(t, 1, WordsForBits(1))
	require.Equal(t, 1, WordsForBits(64))
	require.Equal(t, 2, WordsForBits(65))
	require.Equal(t, 8, BytesForBits(1))
	require.Equal(t, 16, BytesForBits(65))
}

func TestSetIsSetClear(t *testing.T) {
	words := make([]uint64, WordsForBits(130))

	Set(words, 0)
	Set(words, 65)
	Set(words, 129)

	require.True(t, IsSet(words, 0))
	require.True(t, IsSet(words, 65))
	require.True(t, IsSet(words, 129))
	require.False(t, IsSet(words, 1))
	require.False(t, IsSet(words, 128))

	Clear(words, 65)
	require.False(t, IsSet(words, 65))
}

func TestIsSetOutOfRangeIsFalse(t *testing.T) {
	words := make([]uint64, 1)
	require.False(t, IsSet(words, 1000))
}

func TestNextSetBit(t *testing.T) {
	words := make([]uint64, WordsForBits(200))
	Set(words, 5)
	Set(words, 70)
	Set(words, 190)

	require.Equal(t, 5, NextSetBit(words, 0, 200))
	require.Equal(t, 70, NextSetBit(words, 6, 200))
	require.Equal(t, 190, NextSetBit(words, 71, 200))
	require.Equal(t, 200, NextSetBit(words, 191, 200))
	require.Equal(t, 200, NextSetBit(words, 200, 200))
}

func TestNextSetBitNoneSet(t *testing.T) {
	words := make([]uint64, WordsForBits(128))
	require.Equal(t, 128, NextSetBit(words, 0, 128))
}

func TestCountUntil(t *testing.T) {
	words := make([]uint64, WordsForBits(130))
	for _, b := range []int{0, 3, 64, 65, 129} {
		Set(words, b)
	}

	require.Equal(t, 0, CountUntil(words, 0))
	require.Equal(t, 1, CountUntil(words, 1))
	require.Equal(t, 2, CountUntil(words, 4))
	require.Equal(t, 3, CountUntil(words, 65))
	require.Equal(t, 4, CountUntil(words, 66))
	require.Equal(t, 5, CountUntil(words, 130))
}

func TestCountUntilZeroOrNegative(t *testing.T) {
	words := make([]uint64, 1)
	Set(words, 3)
	require.Equal(t, 0, CountUntil(words, 0))
	require.Equal(t, 0, CountUntil(words, -5))
}
