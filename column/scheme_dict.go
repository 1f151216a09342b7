package column

import (
	"bytes"
	"iter"

	"github.com/cespare/xxhash/v2"

	"github.com/colbatch/colbatch/endian"
)

// dictPromoteThreshold is the number of distinct dictionary entries at
// which the index stream widens from 2 bytes to 4 bytes per row and
// the on-wire scheme-id flips from Dictionary to BigDictionary (spec.md
// §4.4 schemes 2/3).
const dictPromoteThreshold = 32768

// dictSlotEmpty marks an open slot in dictTable.
const dictSlotEmpty = -1

// dictTable is a packed open-addressed hash map from a byte-string key
// to its dictionary entry index, keyed by an xxhash.Sum64 digest with
// linear probing on collision. spec.md §6 describes the dictionary
// scheme's lookup structure as "a packed open-addressed map whose keys
// are (hash, length, bytesRef)"; a bare Go map[string]int would satisfy
// the same contract but allocates a header and a hash per lookup using
// Go's generic string hashing, so this mirrors the spec's own
// structure instead and gives the xxhash dependency a real home.
type dictTable struct {
	slots []int32 // entry index, or dictSlotEmpty
	count int
}

func newDictTable(capacityHint int) *dictTable {
	size := 16
	for size < capacityHint*2 {
		size *= 2
	}

	t := &dictTable{slots: make([]int32, size)}
	for i := range t.slots {
		t.slots[i] = dictSlotEmpty
	}

	return t
}

func (t *dictTable) mask() uint64 { return uint64(len(t.slots) - 1) }

// find returns the entry index for key given the entries slice to
// resolve collisions against, and whether it was found.
func (t *dictTable) find(key []byte, entries [][]byte) (int, bool) {
	h := xxhash.Sum64(key)
	m := t.mask()

	for probe := h & m; ; probe = (probe + 1) & m {
		slot := t.slots[probe]
		if slot == dictSlotEmpty {
			return 0, false
		}
		if bytes.Equal(entries[slot], key) {
			return int(slot), true
		}
	}
}

func (t *dictTable) insert(key []byte, idx int) {
	h := xxhash.Sum64(key)
	m := t.mask()

	for probe := h & m; ; probe = (probe + 1) & m {
		if t.slots[probe] == dictSlotEmpty {
			t.slots[probe] = int32(idx)
			t.count++

			return
		}
	}
}

func (t *dictTable) loadFactorExceeded() bool {
	return t.count*4 >= len(t.slots)*3
}

// DictWriter implements the Dictionary/BigDictionary schemes over
// []byte keys. Encoder uses it for string and binary columns only; no
// numeric column type is routed to it.
type DictWriter struct {
	entries  [][]byte
	table    *dictTable
	rowIdx   []uint32
	n        int
}

func NewDictWriter() *DictWriter {
	return &DictWriter{table: newDictTable(64)}
}

func (w *DictWriter) Write(v []byte) {
	w.n++

	if idx, ok := w.table.find(v, w.entries); ok {
		w.rowIdx = append(w.rowIdx, uint32(idx))
		return
	}

	owned := append([]byte(nil), v...)
	idx := len(w.entries)
	w.entries = append(w.entries, owned)

	if w.table.loadFactorExceeded() {
		w.rehash()
	}
	w.table.insert(owned, idx)
	w.rowIdx = append(w.rowIdx, uint32(idx))
}

func (w *DictWriter) rehash() {
	w.table = newDictTable(len(w.entries) * 2)
	for i, e := range w.entries {
		w.table.insert(e, i)
	}
}

func (w *DictWriter) WriteSlice(vs [][]byte) {
	for _, v := range vs {
		w.Write(v)
	}
}

func (w *DictWriter) Len() int { return w.n }

// Promoted reports whether the dictionary has reached or grown past
// dictPromoteThreshold distinct entries and must therefore be written
// with 4-byte row indices under the BigDictionary scheme-id rather
// than Dictionary's 2-byte indices. Promotion happens at the
// threshold itself, not one past it.
func (w *DictWriter) Promoted() bool { return len(w.entries) >= dictPromoteThreshold }

func (w *DictWriter) indexWidth() int {
	if w.Promoted() {
		return 4
	}

	return 2
}

func (w *DictWriter) Bytes() []byte {
	iw := w.indexWidth()

	size := 4
	for _, e := range w.entries {
		size += 4 + len(e)
	}
	size += len(w.rowIdx) * iw

	buf := make([]byte, size)
	off := 0
	endian.Wire.PutUint32(buf[off:off+4], uint32(len(w.entries)))
	off += 4

	for _, e := range w.entries {
		endian.Wire.PutUint32(buf[off:off+4], uint32(len(e)))
		off += 4
		copy(buf[off:off+len(e)], e)
		off += len(e)
	}

	for _, idx := range w.rowIdx {
		if iw == 2 {
			endian.Wire.PutUint16(buf[off:off+2], uint16(idx))
			off += 2
		} else {
			endian.Wire.PutUint32(buf[off:off+4], idx)
			off += 4
		}
	}

	return buf
}

func (w *DictWriter) Size() int { return len(w.Bytes()) }

func (w *DictWriter) Reset() {
	w.entries = nil
	w.table = newDictTable(64)
	w.rowIdx = w.rowIdx[:0]
	w.n = 0
}

func (w *DictWriter) Finish() {}

// DictReader reads the Dictionary/BigDictionary body layout. indexWidth
// must match the scheme-id the header declared (2 for Dictionary, 4
// for BigDictionary); Decoder resolves this before constructing the
// reader (see decoder.go).
type DictReader struct {
	IndexWidth int
}

func (r DictReader) readDict(data []byte) (entries [][]byte, indexOff int) {
	if len(data) < 4 {
		return nil, len(data)
	}

	count := int(endian.Wire.Uint32(data[0:4]))
	off := 4
	entries = make([][]byte, 0, count)

	for i := 0; i < count; i++ {
		if off+4 > len(data) {
			return entries, off
		}
		n := int(endian.Wire.Uint32(data[off : off+4]))
		off += 4
		if off+n > len(data) {
			return entries, off
		}
		entries = append(entries, data[off:off+n])
		off += n
	}

	return entries, off
}

func (r DictReader) readIndex(data []byte, off, row int) (int, bool) {
	pos := off + row*r.IndexWidth
	if pos+r.IndexWidth > len(data) {
		return 0, false
	}

	if r.IndexWidth == 2 {
		return int(endian.Wire.Uint16(data[pos : pos+2])), true
	}

	return int(endian.Wire.Uint32(data[pos : pos+4])), true
}

func (r DictReader) All(data []byte, count int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		entries, off := r.readDict(data)
		for i := 0; i < count; i++ {
			idx, ok := r.readIndex(data, off, i)
			if !ok || idx >= len(entries) {
				return
			}
			if !yield(entries[idx]) {
				return
			}
		}
	}
}

func (r DictReader) At(data []byte, index, count int) ([]byte, bool) {
	if index < 0 || index >= count {
		return nil, false
	}

	entries, off := r.readDict(data)

	idx, ok := r.readIndex(data, off, index)
	if !ok || idx >= len(entries) {
		return nil, false
	}

	return entries[idx], true
}
