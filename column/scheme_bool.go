package column

import (
	"iter"

	"github.com/colbatch/colbatch/bitmap"
)

// BooleanBitSetWriter implements Writer[bool] for the BooleanBitSet
// scheme (spec.md §4.4 scheme 4): one bit per row, packed 64 to a
// uint64 word via the shared bitmap package rather than a byte per
// value like the Uncompressed scheme would use.
type BooleanBitSetWriter struct {
	words []uint64
	n     int
}

var _ Writer[bool] = (*BooleanBitSetWriter)(nil)

func NewBooleanBitSetWriter() *BooleanBitSetWriter { return &BooleanBitSetWriter{} }

func (w *BooleanBitSetWriter) Write(v bool) {
	if len(w.words) < bitmap.WordsForBits(w.n+1) {
		w.words = append(w.words, make([]uint64, bitmap.WordsForBits(w.n+1)-len(w.words))...)
	}
	if v {
		bitmap.Set(w.words, w.n)
	}
	w.n++
}

func (w *BooleanBitSetWriter) WriteSlice(vs []bool) {
	for _, v := range vs {
		w.Write(v)
	}
}

func (w *BooleanBitSetWriter) Len() int { return w.n }
func (w *BooleanBitSetWriter) Size() int {
	return bitmap.BytesForBits(w.n)
}

func (w *BooleanBitSetWriter) Bytes() []byte {
	buf := make([]byte, bitmap.BytesForBits(w.n))
	for i, word := range w.words {
		off := i * bitmap.WordBytes
		if off >= len(buf) {
			break
		}
		for b := 0; b < bitmap.WordBytes && off+b < len(buf); b++ {
			buf[off+b] = byte(word >> (8 * uint(b)))
		}
	}

	return buf
}

func (w *BooleanBitSetWriter) Reset() {
	w.words = w.words[:0]
	w.n = 0
}

func (w *BooleanBitSetWriter) Finish() {}

// BooleanBitSetReader implements Reader[bool] for the BooleanBitSet
// scheme.
type BooleanBitSetReader struct{}

var _ Reader[bool] = BooleanBitSetReader{}

func wordsFromBytes(data []byte) []uint64 {
	words := make([]uint64, bitmap.WordsForBits(len(data)*8))
	for i, b := range data {
		words[i/bitmap.WordBytes] |= uint64(b) << (8 * uint(i%bitmap.WordBytes))
	}

	return words
}

func (BooleanBitSetReader) All(data []byte, count int) iter.Seq[bool] {
	return func(yield func(bool) bool) {
		words := wordsFromBytes(data)
		for i := 0; i < count; i++ {
			if !yield(bitmap.IsSet(words, i)) {
				return
			}
		}
	}
}

func (BooleanBitSetReader) At(data []byte, index, count int) (bool, bool) {
	if index < 0 || index >= count {
		return false, false
	}

	words := wordsFromBytes(data)

	return bitmap.IsSet(words, index), true
}
