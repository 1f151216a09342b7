package testutil

import (
	"fmt"
	"sort"
	"sync"

	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/store"
)

// DiskView is an in-memory store.DiskRegionView: a fixed set of
// (oplogID, offset)-addressed byte payloads, guarded by a single
// region-wide RWMutex-shaped lock matching spec.md §5's "the lock is a
// single region-wide RWMutex-style lock, not a per-value lock"
// concurrency note.
type DiskView struct {
	mu   sync.RWMutex
	data map[store.DiskID][]byte
	gone map[store.DiskID]bool
}

var _ store.DiskRegionView = (*DiskView)(nil)

// NewDiskView returns an empty DiskView.
func NewDiskView() *DiskView {
	return &DiskView{data: make(map[store.DiskID][]byte), gone: make(map[store.DiskID]bool)}
}

// AcquireReadLock takes the view's shared read lock.
func (v *DiskView) AcquireReadLock() error {
	v.mu.RLock()

	return nil
}

// ReleaseReadLock releases the view's shared read lock.
func (v *DiskView) ReleaseReadLock() { v.mu.RUnlock() }

// GetValueOnDiskNoLock returns the bytes stored at id. Callers must
// already hold the view's read lock (AcquireReadLock), matching
// spec.md §6's DiskRegionView.getValueOnDiskNoLock contract.
func (v *DiskView) GetValueOnDiskNoLock(id store.DiskID) ([]byte, error) {
	if v.gone[id] {
		return nil, fmt.Errorf("%w: oplog %d offset %d", errs.ErrEntryDisappeared, id.OplogID, id.Offset)
	}

	b, ok := v.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: oplog %d offset %d", errs.ErrEntryDisappeared, id.OplogID, id.Offset)
	}

	return b, nil
}

// Put stores data at id for later fault-in.
func (v *DiskView) Put(id store.DiskID, data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[id] = data
}

// MarkGone flags id as no longer readable (entry destroyed, disk
// access failure, or region destroyed — spec.md §7's EntryDisappeared
// kind), so the next fault-in attempt fails instead of succeeding.
func (v *DiskView) MarkGone(id store.DiskID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gone[id] = true
}

// SortDiskIDs orders ids by ascending (OplogID, Offset), matching
// spec.md §4.8's disk sorter: "orders entries by physical (oplogId,
// offset) and... loads them in ascending physical order to maximize
// sequential throughput."
func SortDiskIDs(ids []store.DiskID) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].OplogID != ids[j].OplogID {
			return ids[i].OplogID < ids[j].OplogID
		}

		return ids[i].Offset < ids[j].Offset
	})
}
