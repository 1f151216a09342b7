// Package endian provides byte order utilities for the column-batch wire
// format.
//
// Every column buffer is little-endian on the wire regardless of host
// byte order (spec.md invariant I3). This package extends Go's standard
// encoding/binary with a single EndianEngine interface combining
// ByteOrder and AppendByteOrder, plus host-endianness detection
// (HostIsLittleEndian). The decoders in this module always read
// through Wire and do not branch on the host order.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface, satisfied by binary.LittleEndian and
// binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Wire is the byte order used on the wire for every column buffer,
// key, and statistics row. It is always little-endian; callers must
// never substitute another engine when producing bytes that leave the
// process (spec.md invariant I3).
var Wire EndianEngine = binary.LittleEndian

// hostOrder reports the byte order of the running process, determined
// on each call by inspecting the in-memory layout of a known constant.
func hostOrder() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// HostIsLittleEndian reports whether the running process is natively
// little-endian.
func HostIsLittleEndian() bool {
	return hostOrder() == binary.LittleEndian
}

// ReverseUint16 reverses the byte order of a 16-bit word.
func ReverseUint16(v uint16) uint16 { return (v << 8) | (v >> 8) }

// ReverseUint32 reverses the byte order of a 32-bit word.
func ReverseUint32(v uint32) uint32 {
	v = (v<<8)&0xFF00FF00 | (v>>8)&0x00FF00FF
	return (v << 16) | (v >> 16)
}

// ReverseUint64 reverses the byte order of a 64-bit word.
func ReverseUint64(v uint64) uint64 {
	const m1 = 0x00FF00FF00FF00FF
	const m2 = 0x0000FFFF0000FFFF
	v = (v>>8)&m1 | (v&m1)<<8
	v = (v>>16)&m2 | (v&m2)<<16
	return (v << 32) | (v >> 32)
}
