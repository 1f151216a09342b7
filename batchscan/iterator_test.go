package batchscan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colbatch/colbatch/batchkey"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/store"
	"github.com/colbatch/colbatch/testutil"
)

func uuidFor(b byte) batchkey.UUID {
	var u batchkey.UUID
	u[0] = b

	return u
}

func TestScanAssemblesInMemoryBatch(t *testing.T) {
	region := testutil.NewRegion()
	ctx := context.Background()

	u := uuidFor(1)
	const partition = 7

	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, batchkey.StatsIndex), testutil.NewBytesRef([]byte("stats"))))
	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, 0), testutil.NewBytesRef([]byte("col0"))))
	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, 1), testutil.NewBytesRef([]byte("col1"))))

	it := New(region, nil, partition, nil)
	batches, err := it.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	b := batches[0]
	require.Equal(t, u, b.UUID)
	require.Equal(t, []byte("stats"), b.Stats)
	require.Equal(t, []byte("col0"), b.Columns[0])
	require.Equal(t, []byte("col1"), b.Columns[1])
	require.False(t, b.FromDisk)
}

func TestScanSkipsPartialBatch(t *testing.T) {
	region := testutil.NewRegion()
	ctx := context.Background()

	u := uuidFor(2)
	const partition = 1

	// No stats entry written: the batch is partial and must be skipped.
	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, 0), testutil.NewBytesRef([]byte("col0"))))

	it := New(region, nil, partition, nil)
	batches, err := it.Scan(ctx)
	require.NoError(t, err)
	require.Empty(t, batches)
}

func TestScanProjectsColumns(t *testing.T) {
	region := testutil.NewRegion()
	ctx := context.Background()

	u := uuidFor(3)
	const partition = 1

	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, batchkey.StatsIndex), testutil.NewBytesRef([]byte("stats"))))
	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, 0), testutil.NewBytesRef([]byte("col0"))))
	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, 1), testutil.NewBytesRef([]byte("col1"))))

	it := New(region, nil, partition, []int32{0})
	batches, err := it.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)

	b := batches[0]
	require.Equal(t, []byte("col0"), b.Columns[0])
	_, has1 := b.Columns[1]
	require.False(t, has1)
	require.Equal(t, []byte("stats"), b.Stats) // side channels always retained
}

func TestScanBucketMoved(t *testing.T) {
	region := testutil.NewRegion()
	region.MarkMoved(5)

	it := New(region, nil, 5, nil)
	_, err := it.Scan(context.Background())
	require.ErrorIs(t, err, errs.ErrBucketMoved)
}

func TestScanBucketNotFound(t *testing.T) {
	region := testutil.NewRegion()
	region.MarkNotLocal(9)

	it := New(region, nil, 9, nil)
	_, err := it.Scan(context.Background())
	require.ErrorIs(t, err, errs.ErrBucketNotFound)
}

func TestScanDiskResidentOrdering(t *testing.T) {
	region := testutil.NewRegion()
	disk := testutil.NewDiskView()
	ctx := context.Background()
	const partition = 2

	u1 := uuidFor(10)
	u2 := uuidFor(11)

	id1 := store.DiskID{OplogID: 5, Offset: 100}
	id2 := store.DiskID{OplogID: 3, Offset: 50}

	disk.Put(id1, []byte("batch1-col0"))
	disk.Put(id2, []byte("batch2-col0"))

	require.NoError(t, region.Put(ctx, batchkey.New(u1, partition, batchkey.StatsIndex), testutil.NewBytesRef([]byte("stats1"))))
	region.PutOnDisk(batchkey.New(u1, partition, 0), id1)

	require.NoError(t, region.Put(ctx, batchkey.New(u2, partition, batchkey.StatsIndex), testutil.NewBytesRef([]byte("stats2"))))
	region.PutOnDisk(batchkey.New(u2, partition, 0), id2)

	it := New(region, disk, partition, nil)
	batches, err := it.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	// id2 (oplog 3) sorts before id1 (oplog 5), regardless of insertion order.
	require.Equal(t, u2, batches[0].UUID)
	require.True(t, batches[0].FromDisk)
	require.Equal(t, []byte("batch2-col0"), batches[0].Columns[0])

	require.Equal(t, u1, batches[1].UUID)
	require.True(t, batches[1].FromDisk)
	require.Equal(t, []byte("batch1-col0"), batches[1].Columns[0])
}

func TestScanSkipsDisappearedDiskEntryNonFatally(t *testing.T) {
	region := testutil.NewRegion()
	disk := testutil.NewDiskView()
	ctx := context.Background()
	const partition = 4

	u := uuidFor(20)
	id := store.DiskID{OplogID: 1, Offset: 1}
	disk.Put(id, []byte("data"))
	disk.MarkGone(id)

	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, batchkey.StatsIndex), testutil.NewBytesRef([]byte("stats"))))
	region.PutOnDisk(batchkey.New(u, partition, 0), id)

	it := New(region, disk, partition, nil)
	batches, err := it.Scan(ctx)
	require.NoError(t, err)
	require.Empty(t, batches)
}

func TestScanMixesInMemoryAndDiskResidentBatches(t *testing.T) {
	region := testutil.NewRegion()
	disk := testutil.NewDiskView()
	ctx := context.Background()
	const partition = 6

	uMem := uuidFor(30)
	uDisk := uuidFor(31)
	id := store.DiskID{OplogID: 1, Offset: 1}
	disk.Put(id, []byte("disk-col0"))

	require.NoError(t, region.Put(ctx, batchkey.New(uMem, partition, batchkey.StatsIndex), testutil.NewBytesRef([]byte("stats"))))
	require.NoError(t, region.Put(ctx, batchkey.New(uMem, partition, 0), testutil.NewBytesRef([]byte("mem-col0"))))

	require.NoError(t, region.Put(ctx, batchkey.New(uDisk, partition, batchkey.StatsIndex), testutil.NewBytesRef([]byte("stats"))))
	region.PutOnDisk(batchkey.New(uDisk, partition, 0), id)

	it := New(region, disk, partition, nil)
	batches, err := it.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	// In-memory batches are yielded first, disk-resident ones after.
	require.Equal(t, uMem, batches[0].UUID)
	require.False(t, batches[0].FromDisk)

	require.Equal(t, uDisk, batches[1].UUID)
	require.True(t, batches[1].FromDisk)
}
