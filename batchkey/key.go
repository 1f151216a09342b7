// Package batchkey implements the composite key scheme (component C7)
// addressing a single column's buffer within a distributed key-value
// store: a batch's UUID, the partition it routes to, and a column
// index distinguishing a data column from the batch's statistics,
// delta-statistics, and delete-mask side channels.
package batchkey

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/colbatch/colbatch/endian"
	"github.com/colbatch/colbatch/errs"
)

// UUIDSize is the fixed byte width of a batch UUID.
const UUIDSize = 16

// UUID identifies one column-batch. It is a plain 16-byte value rather
// than a parsed/formatted RFC 4122 UUID type, since nothing in this
// module ever needs to print or validate UUID structure — only
// generate, compare and hash it.
type UUID [UUIDSize]byte

// KeySize is the fixed serialized size of a Key:
// 16-byte UUID + 4-byte PartitionID + 4-byte ColumnIndex.
const KeySize = UUIDSize + 4 + 4

// Reserved ColumnIndex values addressing a batch's side channels
// instead of an ordinary data column, per spec.md §5's composite key
// layout.
const (
	// StatsIndex addresses the batch's per-column statistics row.
	StatsIndex int32 = -1
	// DeltaStatsIndex addresses the incremental delta-statistics row
	// accumulated since the last full statistics row was written.
	DeltaStatsIndex int32 = -2
	// DeleteMaskIndex addresses the batch's row-level delete bitmap.
	DeleteMaskIndex int32 = -3
)

// Key is the composite address of one column's buffer: which batch it
// belongs to (UUID), which partition holds it (PartitionID), and which
// column within the batch (ColumnIndex, or one of the reserved side-
// channel indices above).
type Key struct {
	UUID        UUID
	PartitionID int32
	ColumnIndex int32
}

// New returns a Key for the given batch, partition and column.
func New(uuid UUID, partitionID, columnIndex int32) Key {
	return Key{UUID: uuid, PartitionID: partitionID, ColumnIndex: columnIndex}
}

// WithColumnIndex returns a copy of k addressing a different column of
// the same batch/partition, without requiring the caller to re-derive
// the UUID and PartitionID.
func (k Key) WithColumnIndex(columnIndex int32) Key {
	k.ColumnIndex = columnIndex

	return k
}

// RoutingObject returns the value this key routes on in the underlying
// key-value store's partitioning scheme: the partition id itself, so
// every column (and every side channel) of one batch in one partition
// lands on the same store partition.
func (k Key) RoutingObject() int32 { return k.PartitionID }

// Equal reports whether k and other address the same column.
func (k Key) Equal(other Key) bool {
	return k.UUID == other.UUID && k.PartitionID == other.PartitionID && k.ColumnIndex == other.ColumnIndex
}

// Hash returns a stable 64-bit digest of k, mixing the UUID and column
// index through xxhash and folding the partition id in afterward so
// two keys differing only by partition never collide trivially.
func (k Key) Hash() uint64 {
	var buf [UUIDSize + 4]byte
	copy(buf[:UUIDSize], k.UUID[:])
	endian.Wire.PutUint32(buf[UUIDSize:], uint32(k.ColumnIndex))

	h := xxhash.Sum64(buf[:])

	return h*31 + uint64(uint32(k.PartitionID))
}

// Bytes serializes k into its fixed KeySize wire form.
func (k Key) Bytes() []byte {
	buf := make([]byte, KeySize)
	copy(buf[:UUIDSize], k.UUID[:])
	endian.Wire.PutUint32(buf[UUIDSize:UUIDSize+4], uint32(k.PartitionID))
	endian.Wire.PutUint32(buf[UUIDSize+4:UUIDSize+8], uint32(k.ColumnIndex))

	return buf
}

// Parse reconstructs a Key from data previously produced by Bytes.
func Parse(data []byte) (Key, error) {
	if len(data) != KeySize {
		return Key{}, fmt.Errorf("%w: expected %d bytes, got %d", errs.ErrInvalidKey, KeySize, len(data))
	}

	var k Key
	copy(k.UUID[:], data[:UUIDSize])
	k.PartitionID = int32(endian.Wire.Uint32(data[UUIDSize : UUIDSize+4]))
	k.ColumnIndex = int32(endian.Wire.Uint32(data[UUIDSize+4 : UUIDSize+8]))

	return k, nil
}

// String renders the UUID as a lowercase hex string, for logging.
func (u UUID) String() string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, UUIDSize*2)
	for i, b := range u {
		buf[i*2] = hexDigits[b>>4]
		buf[i*2+1] = hexDigits[b&0xf]
	}

	return string(buf)
}
