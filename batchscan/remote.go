package batchscan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colbatch/colbatch/batchkey"
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/store"
)

// remoteGetAllChunkSize is the batch size at which the remote variant
// pages getAll calls, matching spec.md §4.8: "chunked at 1,000 keys".
const remoteGetAllChunkSize = 1000

// remoteGetAllTimeout is the bounded wait a remote getAll round trip is
// given before failing with errs.ErrRemoteTimeout, matching spec.md
// §5's "bounded wait (5 seconds recommended)".
const remoteGetAllTimeout = 5 * time.Second

// RemoteIterator is the non-local variant of Iterator used when a
// partition's bucket is not hosted on the scanning node (spec.md
// §4.8's "Remote variant"): it gathers the stats rows of a known set
// of batch UUIDs via one chunked getAll, then, for each batch whose
// stats row was found, issues a second chunked getAll for that batch's
// projected columns plus its delta-stats and delete-mask entries.
//
// Unlike the local Iterator, RemoteIterator cannot discover a
// partition's batch UUIDs by walking Region.Entries (a non-local
// bucket offers no such walk); the caller supplies the UUID set,
// typically obtained from a catalog or coordinator that tracks which
// batches exist per partition. This is a deliberate simplification of
// spec.md §4.8, recorded in DESIGN.md.
type RemoteIterator struct {
	region      store.Region
	partitionID int32
	projected   map[int32]bool
}

// NewRemote returns a RemoteIterator over partitionID. If
// projectedColumns is non-nil, only those column indices are fetched;
// with nil no data column is fetched, only the stats, delta-stats and
// delete-mask entries.
func NewRemote(region store.Region, partitionID int32, projectedColumns []int32) *RemoteIterator {
	it := &RemoteIterator{region: region, partitionID: partitionID}
	if projectedColumns != nil {
		it.projected = make(map[int32]bool, len(projectedColumns))
		for _, c := range projectedColumns {
			it.projected[c] = true
		}
	}

	return it
}

// Scan fetches every batch named in uuids from the remote partition,
// skipping any whose stats entry is missing (partial batch, invariant
// I1) or whose deeper getAll times out for that single UUID only --
// spec.md §7 treats RemoteTimeout as recoverable by reattempt at a
// higher level, not a whole-scan failure, so one UUID's timeout does
// not abort the others already fetched.
func (it *RemoteIterator) Scan(ctx context.Context, uuids []batchkey.UUID) ([]*Batch, error) {
	statsKeys := make([]batchkey.Key, len(uuids))
	for i, u := range uuids {
		statsKeys[i] = batchkey.New(u, it.partitionID, batchkey.StatsIndex)
	}

	statsResults, err := it.chunkedGetAll(ctx, statsKeys)
	if err != nil {
		return nil, err
	}

	batches := make([]*Batch, 0, len(uuids))

	for _, u := range uuids {
		statsKey := batchkey.New(u, it.partitionID, batchkey.StatsIndex)
		statsRef, ok := statsResults[statsKey]
		if !ok {
			continue // invariant I1: no stats entry, batch is partial, skip
		}

		statsBytes, err := statsRef.Bytes()
		if err != nil {
			continue
		}

		b, err := it.fetchColumns(ctx, u, statsBytes)
		if err != nil {
			if errors.Is(err, errs.ErrRemoteTimeout) {
				continue
			}

			return nil, err
		}

		batches = append(batches, b)
	}

	return batches, nil
}

func (it *RemoteIterator) fetchColumns(ctx context.Context, uuid batchkey.UUID, statsBytes []byte) (*Batch, error) {
	keys := []batchkey.Key{
		batchkey.New(uuid, it.partitionID, batchkey.DeltaStatsIndex),
		batchkey.New(uuid, it.partitionID, batchkey.DeleteMaskIndex),
	}
	for col := range it.projected {
		keys = append(keys, batchkey.New(uuid, it.partitionID, col))
	}

	results, err := it.chunkedGetAll(ctx, keys)
	if err != nil {
		return nil, err
	}

	b := newBatch(uuid, it.partitionID)
	b.Stats = statsBytes

	for key, ref := range results {
		data, err := ref.Bytes()
		if err != nil {
			continue
		}

		assignBytes(b, key.ColumnIndex, data)
	}

	return b, nil
}

// chunkedGetAll pages keys through Region.GetAll in groups of
// remoteGetAllChunkSize, each bounded by remoteGetAllTimeout.
func (it *RemoteIterator) chunkedGetAll(ctx context.Context, keys []batchkey.Key) (map[batchkey.Key]store.ValueRef, error) {
	out := make(map[batchkey.Key]store.ValueRef, len(keys))

	for start := 0; start < len(keys); start += remoteGetAllChunkSize {
		end := start + remoteGetAllChunkSize
		if end > len(keys) {
			end = len(keys)
		}

		chunkCtx, cancel := context.WithTimeout(ctx, remoteGetAllTimeout)
		chunk, err := it.region.GetAll(chunkCtx, keys[start:end])
		cancel()

		if err != nil {
			if errors.Is(chunkCtx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: fetching %d keys", errs.ErrRemoteTimeout, len(keys[start:end]))
			}

			return nil, err
		}

		for k, v := range chunk {
			out[k] = v
		}
	}

	return out, nil
}
