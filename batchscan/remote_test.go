package batchscan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/colbatch/colbatch/batchkey"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/store"
	"github.com/colbatch/colbatch/testutil"
)

func TestRemoteScanFetchesProjectedColumns(t *testing.T) {
	region := testutil.NewRegion()
	ctx := context.Background()
	const partition = 3

	u := uuidFor(40)
	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, batchkey.StatsIndex), testutil.NewBytesRef([]byte("stats"))))
	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, 0), testutil.NewBytesRef([]byte("col0"))))
	require.NoError(t, region.Put(ctx, batchkey.New(u, partition, 1), testutil.NewBytesRef([]byte("col1"))))

	it := NewRemote(region, partition, []int32{0})
	batches, err := it.Scan(ctx, []batchkey.UUID{u})
	require.NoError(t, err)
	require.Len(t, batches, 1)

	b := batches[0]
	require.Equal(t, []byte("stats"), b.Stats)
	require.Equal(t, []byte("col0"), b.Columns[0])
	_, has1 := b.Columns[1]
	require.False(t, has1)
}

func TestRemoteScanSkipsPartialBatch(t *testing.T) {
	region := testutil.NewRegion()
	const partition = 3

	u := uuidFor(41) // no stats entry ever written

	it := NewRemote(region, partition, []int32{0})
	batches, err := it.Scan(context.Background(), []batchkey.UUID{u})
	require.NoError(t, err)
	require.Empty(t, batches)
}

func TestRemoteScanChunksLargeKeySets(t *testing.T) {
	region := testutil.NewRegion()
	ctx := context.Background()
	const partition = 3

	var uuids []batchkey.UUID
	for i := 0; i < remoteGetAllChunkSize+5; i++ {
		u := uuidFor(byte(i % 256))
		u[1] = byte(i / 256)
		uuids = append(uuids, u)
		require.NoError(t, region.Put(ctx, batchkey.New(u, partition, batchkey.StatsIndex), testutil.NewBytesRef([]byte("stats"))))
	}

	it := NewRemote(region, partition, nil)
	batches, err := it.Scan(ctx, uuids)
	require.NoError(t, err)
	require.Len(t, batches, len(uuids))
}

// timeoutRegion always reports a deadline-exceeded GetAll, for exercising
// the path where the initial stats getAll times out and the whole scan
// fails with errs.ErrRemoteTimeout.
type timeoutRegion struct{ store.Region }

func (timeoutRegion) GetAll(ctx context.Context, keys []batchkey.Key) (map[batchkey.Key]store.ValueRef, error) {
	<-ctx.Done()

	return nil, ctx.Err()
}

func TestRemoteScanStatsTimeoutFails(t *testing.T) {
	it := NewRemote(timeoutRegion{}, 1, nil)

	start := time.Now()
	_, err := it.Scan(context.Background(), []batchkey.UUID{uuidFor(1)})
	require.ErrorIs(t, err, errs.ErrRemoteTimeout)
	require.Less(t, time.Since(start), remoteGetAllTimeout+time.Second)
}

func TestIsDisappearedHelper(t *testing.T) {
	require.False(t, isDisappeared(nil))
	require.True(t, isDisappeared(errs.ErrEntryDisappeared))
	require.False(t, isDisappeared(errors.New("other")))
}
