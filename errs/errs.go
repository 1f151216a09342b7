// Package errs collects the sentinel errors surfaced by the column-batch
// storage core.
//
// Call sites wrap these with additional detail using fmt.Errorf("%w: ...",
// errs.ErrX, ...) rather than defining per-kind error structs, so callers
// can keep testing for a specific failure with errors.Is while still
// getting a descriptive message.
package errs

import "errors"

var (
	// ErrBufferOverflow is returned when an encoded column would exceed
	// the maximum representable size (2^31 - 1 bytes). Fatal for the
	// current batch; the caller must split it.
	ErrBufferOverflow = errors.New("colbatch: encoded size would overflow int32 bounds")

	// ErrSizeOverflow is returned by the buffer allocator when a
	// requested allocation exceeds the hard cap of 2,147,483,646 bytes.
	ErrSizeOverflow = errors.New("colbatch: requested buffer size exceeds allocator limit")

	// ErrUnknownEncoding is returned when a column header names a
	// type-id not present in the scheme registry.
	ErrUnknownEncoding = errors.New("colbatch: unknown column encoding type-id")

	// ErrUnsupportedType is returned when a scheme is asked to encode or
	// decode a data type it does not implement.
	ErrUnsupportedType = errors.New("colbatch: scheme does not support this data type")

	// ErrNullsInNotNullColumn is returned when a decoder declared
	// non-nullable encounters a non-zero null-bitmap size in the header,
	// and when WriteIsNull(true) is called on an encoder for a
	// non-nullable column.
	ErrNullsInNotNullColumn = errors.New("colbatch: non-null column header carries a null bitmap")

	// ErrCorruptDictionary names a dictionary index that resolves
	// outside the dictionary's entry count. The column package's
	// DictReader does not return it: its At reports such an index with a
	// false ok result, and its All stops iterating at it.
	ErrCorruptDictionary = errors.New("colbatch: dictionary index out of range")

	// ErrBucketMoved is returned when a partition being scanned is
	// observed to have moved mid-iteration. Recoverable by reattempt at
	// a higher level.
	ErrBucketMoved = errors.New("colbatch: bucket moved during iteration")

	// ErrBucketNotFound is returned when a bucket region is no longer
	// local to the node driving the scan.
	ErrBucketNotFound = errors.New("colbatch: bucket region not found locally")

	// ErrEntryDisappeared is returned when an expected disk-resident
	// entry can no longer be read back (entry destroyed, disk access
	// failure, or region destroyed). Non-fatal: the caller should treat
	// the value as absent.
	ErrEntryDisappeared = errors.New("colbatch: expected entry is no longer present")

	// ErrRemoteTimeout is returned when a remote getAll round trip
	// exceeds its deadline. Recoverable by reattempt.
	ErrRemoteTimeout = errors.New("colbatch: remote getAll exceeded its deadline")

	// ErrInvalidHeaderSize is returned when a column header, null
	// bitmap, statistics row or value framing is shorter than its fixed
	// or declared byte length.
	ErrInvalidHeaderSize = errors.New("colbatch: invalid header size")

	// ErrInvalidKey is returned when a composite key fails to parse.
	ErrInvalidKey = errors.New("colbatch: invalid composite key bytes")

	// ErrEncoderFinished is returned by a second Finish call on an
	// encoder that has already been finished. The WriteX methods do not
	// check it.
	ErrEncoderFinished = errors.New("colbatch: encoder already finished")

	// ErrNotInitialized is returned when a column-batch value has no
	// buffer to serve: none was ever set, or it has a disk location but
	// no DiskRegionView to fault it in from.
	ErrNotInitialized = errors.New("colbatch: decoder not initialized")

	// ErrIndexOutOfRange names a random-access read whose position
	// falls outside [0, rowCount). The column package's ...At readers do
	// not return it; they report such a position through their boolean
	// result.
	ErrIndexOutOfRange = errors.New("colbatch: row index out of range")

	// ErrReleased is returned when an operation is attempted on a
	// column-batch value whose buffer has already been released.
	ErrReleased = errors.New("colbatch: value buffer already released")

	// ErrRefCountUnderflow is returned by a Release call on a value
	// whose reference count is already zero, i.e. a value released more
	// times than it was retained; such a call changes nothing else.
	ErrRefCountUnderflow = errors.New("colbatch: reference count underflow")

	// ErrUnsupportedCodec is returned when a codec id is not present in
	// the compression registry.
	ErrUnsupportedCodec = errors.New("colbatch: unsupported codec id")

	// ErrPartialBatch names a logical batch that is missing its stats
	// entry (invariant I1). The batchscan iterators do not return it;
	// they skip such a batch without an error.
	ErrPartialBatch = errors.New("colbatch: batch has no stats entry, treated as partial")

	// ErrCorruptComplexValue is returned when a nested Array/Struct/Map
	// buffer is truncated or a slot's offset/size points outside its
	// tail region.
	ErrCorruptComplexValue = errors.New("colbatch: corrupt nested complex-type buffer")
)
