// Package store defines the collaborator interfaces a batchvalue.Value
// and a batchscan iterator depend on, without depending on any
// concrete distributed key-value store implementation (spec.md §7's
// external interfaces): Region for the logical read/write path,
// DiskRegionView for the disk fault-in path a Value follows when its
// buffer has been evicted from memory, and type aliases over
// alloc.Allocator and compress.Codec so callers of this package never
// need to import those packages directly just to hold a reference.
package store

import (
	"context"
	"iter"

	"github.com/colbatch/colbatch/alloc"
	"github.com/colbatch/colbatch/batchkey"
	"github.com/colbatch/colbatch/compress"
)

// BufferAllocator is the allocator collaborator a Region's values are
// built with.
type BufferAllocator = alloc.Allocator

// Codec is the compression collaborator a Region's values are built
// with.
type Codec = compress.Codec

// DiskID locates a value that has been spilled to a disk-resident
// store (an oplog id plus a byte offset within it, per spec.md §4.6/§8's
// disk fault-in design), opaque to everything except the
// DiskRegionView that issued it.
type DiskID struct {
	OplogID int64
	Offset  int64
}

// Region is the logical read/write surface for one partition's worth
// of column-batch data: batchkey.Key addressed, values opaque to the
// store beyond their byte representation.
type Region interface {
	Put(ctx context.Context, key batchkey.Key, val ValueRef) error
	PutAll(ctx context.Context, entries map[batchkey.Key]ValueRef) error
	Get(ctx context.Context, key batchkey.Key) (ValueRef, bool, error)
	GetAll(ctx context.Context, keys []batchkey.Key) (map[batchkey.Key]ValueRef, error)
	Destroy(ctx context.Context, key batchkey.Key) error
	// Entries iterates every key in the given partition, yielding
	// metadata about each entry without necessarily paging its value
	// into memory (see RegionEntry.Value).
	Entries(partitionID int32) iter.Seq2[batchkey.Key, RegionEntry]
}

// ValueRef is the minimal value-shaped surface Region needs: a byte
// representation plus a disk locator, if any. batchvalue.Value
// implements this so Region never has to import the batchvalue
// package, avoiding an import cycle (batchvalue imports store for
// DiskRegionView/DiskID, not the reverse).
type ValueRef interface {
	Bytes() ([]byte, error)
	DiskID() (DiskID, bool)
}

// RegionEntry describes one key's entry in a Region without
// necessarily having paged its value into memory.
type RegionEntry interface {
	Key() batchkey.Key
	IsValueNull() bool
	Value() (ValueRef, error)
	DiskID() (DiskID, bool)
}

// DiskRegionView is the disk-resident fault-in path a Value follows
// when GetBuffer finds its in-memory buffer has been evicted: acquire
// a read lock (excluding concurrent compaction), fetch the bytes at a
// DiskID, and release. Matches spec.md §6/§8's disk fault-in
// concurrency contract: the lock is a single region-wide RWMutex-style
// lock, not a per-value lock.
type DiskRegionView interface {
	AcquireReadLock() error
	ReleaseReadLock()
	GetValueOnDiskNoLock(id DiskID) ([]byte, error)
}
