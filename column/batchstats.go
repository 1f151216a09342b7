package column

import (
	"github.com/colbatch/colbatch/errs"
	"github.com/colbatch/colbatch/format"
	"github.com/colbatch/colbatch/stats"
)

// EncodeStats assembles the per-column stats.Row values gathered by a
// batch's Encoders (Encoder.Stats, called once per column after all
// rows are written) plus the batch's shared row count into the single
// buffer spec.md §3/§4.5 describes: "the statistics encoder
// serializes [lower, upper, nullCount] for every column, plus one row
// count slot, into a statistics row ... Emitted as an uncompressed
// tuple with its own column buffer." The result is stored under the
// batch's STATS key exactly like any other column buffer, wrapped in
// the same 8-byte Header every column body carries — there is no null
// bitmap, since the statistics row is never itself nullable.
func EncodeStats(columns []stats.Row, rowCount int64) []byte {
	body := stats.BatchRow{Columns: columns, RowCount: rowCount}.Bytes()

	hdr := Header{SchemeID: format.SchemeUncompressed, NullBitmapSize: 0}

	out := make([]byte, 0, HeaderSize+len(body))
	out = append(out, hdr.Bytes()...)
	out = append(out, body...)

	return out
}

// DecodeStats parses a buffer previously produced by EncodeStats.
func DecodeStats(data []byte) (stats.BatchRow, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return stats.BatchRow{}, err
	}

	bitmapEnd := HeaderSize + int(hdr.NullBitmapSize)
	if bitmapEnd > len(data) {
		return stats.BatchRow{}, errs.ErrInvalidHeaderSize
	}

	return stats.ParseBatchRow(data[bitmapEnd:])
}
