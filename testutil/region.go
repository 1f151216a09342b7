// Package testutil implements the in-memory Region/DiskRegionView pair
// the spec treats as an external collaborator (spec.md §1/§6): a
// distributed key-value region with put/get/destroy/putAll/getAll and
// a disk-id/region-view pair for spilled entries. The core never ships
// a real region implementation (SQL planning, cluster membership and
// the partitioned disk store are explicitly out of scope, spec.md §1),
// but batchscan's iterator and batchvalue's disk fault-in path need a
// concrete Region/DiskRegionView to exercise against in tests, the
// same way the teacher's own blob package is tested against in-memory
// byte slices rather than a real storage backend.
package testutil

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/colbatch/colbatch/batchkey"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/store"
)

// bytesRef is the minimal store.ValueRef over a plain byte slice, used
// for entries this Region holds fully in memory.
type bytesRef struct {
	data []byte
}

func (r bytesRef) Bytes() ([]byte, error)         { return r.data, nil }
func (r bytesRef) DiskID() (store.DiskID, bool)   { return store.DiskID{}, false }

// entry is one stored key's state: either an in-memory ValueRef, or a
// DiskID locating it in the companion DiskView, never both.
type entry struct {
	key      batchkey.Key
	inMemory store.ValueRef
	diskID   store.DiskID
	onDisk   bool
}

func (e *entry) Key() batchkey.Key { return e.key }

func (e *entry) IsValueNull() bool { return e.onDisk }

func (e *entry) Value() (store.ValueRef, error) {
	if e.onDisk {
		return nil, fmt.Errorf("%w: key %s is disk-resident, fetch its DiskID instead", errs.ErrEntryDisappeared, e.key.UUID)
	}

	return e.inMemory, nil
}

func (e *entry) DiskID() (store.DiskID, bool) {
	if !e.onDisk {
		return store.DiskID{}, false
	}

	return e.diskID, true
}

// Region is an in-memory store.Region implementation keyed by
// partition, for exercising batchscan.Iterator and batchvalue.Value's
// disk fault-in path without a real distributed key-value store.
type Region struct {
	mu         sync.Mutex
	partitions map[int32]map[batchkey.Key]*entry
	movedParts map[int32]bool
	localParts map[int32]bool
}

var _ store.Region = (*Region)(nil)

// NewRegion returns an empty Region. Every partition is local
// (hosted) until MarkNotLocal is called for it.
func NewRegion() *Region {
	return &Region{
		partitions: make(map[int32]map[batchkey.Key]*entry),
		movedParts: make(map[int32]bool),
		localParts: make(map[int32]bool),
	}
}

func (r *Region) partitionLocked(id int32) map[batchkey.Key]*entry {
	p, ok := r.partitions[id]
	if !ok {
		p = make(map[batchkey.Key]*entry)
		r.partitions[id] = p
	}

	return p
}

// Put stores val in memory under key, per store.Region.
func (r *Region) Put(_ context.Context, key batchkey.Key, val store.ValueRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.partitionLocked(key.PartitionID)[key] = &entry{key: key, inMemory: val}

	return nil
}

// PutAll stores every entry in the map in one call.
func (r *Region) PutAll(ctx context.Context, entries map[batchkey.Key]store.ValueRef) error {
	for k, v := range entries {
		if err := r.Put(ctx, k, v); err != nil {
			return err
		}
	}

	return nil
}

// Get returns the stored ValueRef for key, if present.
func (r *Region) Get(_ context.Context, key batchkey.Key) (store.ValueRef, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.partitionLocked(key.PartitionID)[key]
	if !ok {
		return nil, false, nil
	}
	if e.onDisk {
		return nil, false, fmt.Errorf("%w: key is disk-resident", errs.ErrEntryDisappeared)
	}

	return e.inMemory, true, nil
}

// GetAll fetches every requested key held in memory by the region in a
// single pass; missing and disk-resident keys are left out of the
// result. It does no chunking of its own: batchscan's remote variant
// pages its keys into separate GetAll calls itself.
func (r *Region) GetAll(ctx context.Context, keys []batchkey.Key) (map[batchkey.Key]store.ValueRef, error) {
	out := make(map[batchkey.Key]store.ValueRef, len(keys))
	for _, k := range keys {
		v, ok, err := r.Get(ctx, k)
		if err != nil {
			continue
		}
		if ok {
			out[k] = v
		}
	}

	return out, nil
}

// Destroy removes key's entry.
func (r *Region) Destroy(_ context.Context, key batchkey.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.partitionLocked(key.PartitionID), key)

	return nil
}

// Entries iterates every key in partitionID. If the partition has been
// marked moved (MarkMoved) or non-local (MarkNotLocal), Entries yields
// nothing and a caller must check IsMoved/IsLocal itself, mirroring
// how a real region surfaces bucket-move/non-locality out of band
// from the normal iteration path (spec.md §4.8's failure semantics).
func (r *Region) Entries(partitionID int32) iter.Seq2[batchkey.Key, store.RegionEntry] {
	return func(yield func(batchkey.Key, store.RegionEntry) bool) {
		r.mu.Lock()
		if local, explicit := r.localParts[partitionID]; r.movedParts[partitionID] || (explicit && !local) {
			r.mu.Unlock()
			return
		}
		entries := make([]*entry, 0, len(r.partitions[partitionID]))
		for _, e := range r.partitions[partitionID] {
			entries = append(entries, e)
		}
		r.mu.Unlock()

		for _, e := range entries {
			if !yield(e.key, e) {
				return
			}
		}
	}
}

// PutOnDisk marks key as evicted to disk at id, rather than storing it
// in memory: the companion DiskView is where its bytes actually live.
func (r *Region) PutOnDisk(key batchkey.Key, id store.DiskID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.partitionLocked(key.PartitionID)[key] = &entry{key: key, diskID: id, onDisk: true}
}

// NewBytesRef wraps raw bytes as a store.ValueRef for Put/PutAll
// calls that don't need a full batchvalue.Value.
func NewBytesRef(data []byte) store.ValueRef { return bytesRef{data: data} }

// MarkMoved flags partitionID as having moved mid-scan, for tests of
// batchscan's BucketMoved failure path.
func (r *Region) MarkMoved(partitionID int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movedParts[partitionID] = true
}

// IsMoved reports whether partitionID was flagged via MarkMoved.
func (r *Region) IsMoved(partitionID int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.movedParts[partitionID]
}

// MarkNotLocal flags partitionID as not hosted on this node, for tests
// of batchscan's BucketNotFound / remote-variant selection.
func (r *Region) MarkNotLocal(partitionID int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.localParts[partitionID] = false
}

// IsLocal reports whether partitionID is hosted locally. Partitions
// default to local until MarkNotLocal is called.
func (r *Region) IsLocal(partitionID int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, explicit := r.localParts[partitionID]
	if !explicit {
		return true
	}

	return v
}
