// Package batchscan implements the batch iterator (component C8): a
// scan over one partition's stored column entries that clusters them
// back into logical row-batches by UUID, separating each batch's
// statistics and delete-mask side channels from its projected data
// columns, ordering disk-resident batches by physical position via a
// disk sorter, and exposing a remote (chunked, deadline-bounded) fetch
// variant for a non-local Region. The iterator itself is synchronous
// (spec.md §5: "No cooperative suspension primitives are required; the
// iterator is synchronous") and is driven by a single worker goroutine
// per partition, never shared.
package batchscan

import (
	"context"
	"errors"
	"fmt"

	"github.com/colbatch/colbatch/batchkey"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/store"
)

// Batch is one logical row-batch's entries, reassembled from the
// individual column/side-channel keys a Region stores it under.
type Batch struct {
	UUID        batchkey.UUID
	PartitionID int32

	// Columns maps a data column's index to its raw stored bytes.
	Columns map[int32][]byte

	// Stats, DeltaStats and DeleteMask hold the batch's side-channel
	// payloads, or nil if that entry wasn't present (or wasn't
	// requested via projection).
	Stats      []byte
	DeltaStats []byte
	DeleteMask []byte

	// FromDisk reports whether any of this batch's projected entries
	// were fault-in'd from disk rather than served from memory
	// (spec.md §4.8: "If any projected entry is overflowed to disk, the
	// whole batch is reclassified as disk-resident").
	FromDisk bool

	// diskOrder is the minimum physical (oplogId, offset) among this
	// batch's disk-resident entries, used to order disk-resident
	// batches relative to one another (spec.md §4.8/§5). Zero for a
	// fully in-memory batch, which is ordered by arrival instead.
	diskOrder store.DiskID
}

func newBatch(uuid batchkey.UUID, partitionID int32) *Batch {
	return &Batch{UUID: uuid, PartitionID: partitionID, Columns: make(map[int32][]byte)}
}

// group is the iterator's working accumulator for one UUID while a
// partition scan is in progress: a mix of already-read in-memory bytes
// and, for any entry found overflowed to disk, a pending DiskID to
// fault in once the whole partition has been clustered. This mirrors
// spec.md §4.8's "per-group map layout uses two key namespaces" note:
// in-memory values and disk-pending handles are tracked separately
// until the group is committed.
type group struct {
	batch       *Batch
	pendingDisk map[int32]store.DiskID
	sawOverflow bool
}

// Iterator scans a single partition of a Region and yields one Batch
// per distinct UUID found there. It is not safe for concurrent use and
// is intended to be driven to completion by a single worker.
type Iterator struct {
	region      store.Region
	diskView    store.DiskRegionView
	partitionID int32
	// projected, if non-nil, restricts which data column indices are
	// retained in each yielded Batch. Side-channel entries (stats,
	// delta-stats, delete-mask) are always retained regardless of
	// projection, since callers need them to interpret the projected
	// columns correctly (e.g. to skip deleted rows).
	projected map[int32]bool
}

// New returns an Iterator over partitionID. diskView may be nil if the
// caller knows the partition never overflows to disk (a fault-in
// attempt without one fails with errs.ErrEntryDisappeared). If
// projectedColumns is non-nil, only those column indices are included
// in each Batch's Columns map; pass nil to include every column.
func New(region store.Region, diskView store.DiskRegionView, partitionID int32, projectedColumns []int32) *Iterator {
	it := &Iterator{region: region, diskView: diskView, partitionID: partitionID}
	if projectedColumns != nil {
		it.projected = make(map[int32]bool, len(projectedColumns))
		for _, c := range projectedColumns {
			it.projected[c] = true
		}
	}

	return it
}

func (it *Iterator) wants(columnIndex int32) bool {
	if it.projected == nil {
		return true
	}

	return it.projected[columnIndex]
}

// movedChecker and localChecker let tests (via testutil.Region) signal
// the failure conditions spec.md §4.8/§5 describe without widening the
// store.Region interface every real collaborator must implement.
type movedChecker interface{ IsMoved(partitionID int32) bool }
type localChecker interface{ IsLocal(partitionID int32) bool }

// Scan performs one synchronous pass over the partition, returning every
// complete logical batch found: fully in-memory batches first in
// arrival order, followed by disk-resident batches ordered by ascending
// physical (oplogId, offset) (spec.md §4.8/§5). A batch missing its
// stats entry is treated as partial (invariant I1) and silently
// skipped, matching spec.md §7's "Non-fatal to the iterator" note for
// EntryDisappeared and partial batches alike.
func (it *Iterator) Scan(ctx context.Context) ([]*Batch, error) {
	if mc, ok := it.region.(movedChecker); ok && mc.IsMoved(it.partitionID) {
		return nil, fmt.Errorf("%w: partition %d", errs.ErrBucketMoved, it.partitionID)
	}
	if lc, ok := it.region.(localChecker); ok && !lc.IsLocal(it.partitionID) {
		return nil, fmt.Errorf("%w: partition %d", errs.ErrBucketNotFound, it.partitionID)
	}

	groups := make(map[batchkey.UUID]*group)
	order := make([]batchkey.UUID, 0)

	for key, regionEntry := range it.region.Entries(it.partitionID) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g, ok := groups[key.UUID]
		if !ok {
			g = &group{batch: newBatch(key.UUID, key.PartitionID), pendingDisk: make(map[int32]store.DiskID)}
			groups[key.UUID] = g
			order = append(order, key.UUID)
		}

		it.assignEntry(g, key.ColumnIndex, regionEntry)
	}

	inMemory := make([]*Batch, 0, len(order))
	diskResident := make([]*Batch, 0)

	for _, uuid := range order {
		g := groups[uuid]

		_, statsPending := g.pendingDisk[batchkey.StatsIndex]
		if g.batch.Stats == nil && !statsPending {
			continue // invariant I1: no stats entry, batch is partial, skip
		}

		if !g.sawOverflow {
			inMemory = append(inMemory, g.batch)
			continue
		}

		b, err := it.faultInGroup(g)
		if err != nil {
			if isDisappeared(err) {
				continue // non-fatal: treat the batch as absent, per spec.md §7
			}

			return nil, err
		}

		diskResident = append(diskResident, b)
	}

	sortDiskResident(diskResident)

	return append(inMemory, diskResident...), nil
}

func isDisappeared(err error) bool {
	return err != nil && errors.Is(err, errs.ErrEntryDisappeared)
}

func (it *Iterator) assignEntry(g *group, columnIndex int32, regionEntry store.RegionEntry) {
	if columnIndex != batchkey.StatsIndex && columnIndex != batchkey.DeltaStatsIndex &&
		columnIndex != batchkey.DeleteMaskIndex && !it.wants(columnIndex) {
		return
	}

	if regionEntry.IsValueNull() {
		if diskID, ok := regionEntry.DiskID(); ok {
			g.sawOverflow = true
			g.pendingDisk[columnIndex] = diskID
		}

		return
	}

	ref, err := regionEntry.Value()
	if err != nil {
		return
	}
	data, err := ref.Bytes()
	if err != nil {
		return
	}

	assignBytes(g.batch, columnIndex, data)
}

func assignBytes(b *Batch, columnIndex int32, data []byte) {
	switch columnIndex {
	case batchkey.StatsIndex:
		b.Stats = data
	case batchkey.DeltaStatsIndex:
		b.DeltaStats = data
	case batchkey.DeleteMaskIndex:
		b.DeleteMask = data
	default:
		b.Columns[columnIndex] = data
	}
}

// faultInGroup reads every pending disk-resident entry of g, in
// ascending physical order, and merges the result into g.batch.
func (it *Iterator) faultInGroup(g *group) (*Batch, error) {
	if it.diskView == nil {
		return nil, fmt.Errorf("%w: partition %d has disk-resident entries but no DiskRegionView was configured",
			errs.ErrEntryDisappeared, g.batch.PartitionID)
	}

	ids := make([]store.DiskID, 0, len(g.pendingDisk))
	byID := make(map[store.DiskID][]int32)
	for col, id := range g.pendingDisk {
		ids = append(ids, id)
		byID[id] = append(byID[id], col)
	}
	sortDiskIDs(ids)

	if err := it.diskView.AcquireReadLock(); err != nil {
		return nil, err
	}
	defer it.diskView.ReleaseReadLock()

	var minID store.DiskID
	first := true

	for _, id := range ids {
		data, err := it.diskView.GetValueOnDiskNoLock(id)
		if err != nil {
			return nil, err
		}

		for _, col := range byID[id] {
			assignBytes(g.batch, col, data)
		}

		if first || diskIDLess(id, minID) {
			minID = id
			first = false
		}
	}

	g.batch.FromDisk = true
	g.batch.diskOrder = minID

	return g.batch, nil
}

func sortDiskResident(batches []*Batch) {
	for i := 1; i < len(batches); i++ {
		for j := i; j > 0 && diskIDLess(batches[j].diskOrder, batches[j-1].diskOrder); j-- {
			batches[j], batches[j-1] = batches[j-1], batches[j]
		}
	}
}

func sortDiskIDs(ids []store.DiskID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && diskIDLess(ids[j], ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

func diskIDLess(a, b store.DiskID) bool {
	if a.OplogID != b.OplogID {
		return a.OplogID < b.OplogID
	}

	return a.Offset < b.Offset
}
