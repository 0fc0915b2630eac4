// Package endian provides byte order utilities for binary encoding and
// decoding. It combines the standard library's ByteOrder and
// AppendByteOrder interfaces into one engine interface, so envelope
// writers can both read fixed headers and append length fields without
// scratch buffers.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from
// encoding/binary. It is satisfied by binary.LittleEndian and
// binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine, the byte order
// of the persistence envelope.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine, for interoperability
// with big-endian formats.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
