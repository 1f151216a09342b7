// Package column implements the column encoder/decoder framework and
// the seven encoding-scheme plugins of spec.md §4.3/§4.4 (components C3
// and C4): the shared 8-byte header, the null bitmap, per-primitive
// write/read cursors, and the nested array/struct/map layout any
// column body may embed.
//
// An Encoder is created once per column and reused across batches,
// exactly like the teacher's NumericEncoder/NumericRawEncoder: callers
// call Initialize, then a sequence of WriteX/WriteIsNull calls matching
// the column's declared row count, then Finish to obtain the
// completed buffer. A Decoder is created fresh per scan pass from a
// buffer produced by some Encoder (not necessarily in the same
// process or host byte order).
//
// Package column is not safe for concurrent use: a single Encoder or
// Decoder instance must be driven by one goroutine at a time, matching
// every mebo encoder/decoder's documented threading contract.
package column
