// Package pool provides reusable buffers for the allocation-heavy paths:
// envelope assembly during record persistence and per-tree scratch
// vectors during ensemble prediction.
package pool

import (
	"io"
	"sync"
)

const (
	// RecordBufferDefaultSize sizes fresh record buffers; serialized
	// records are typically a few KB.
	RecordBufferDefaultSize = 4 * 1024
	// RecordBufferMaxThreshold is the largest buffer returned to the
	// pool; oversized buffers are dropped so one huge record does not
	// pin memory.
	RecordBufferMaxThreshold = 1024 * 1024
)

// ByteBuffer is a growable byte buffer that can be pooled.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a buffer with the given initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Len returns the buffer length.
func (bb *ByteBuffer) Len() int { return len(bb.B) }

// Reset empties the buffer but keeps its memory for reuse.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// Write appends data, growing as needed. It never fails; the error is
// for io.Writer compatibility.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)

	return len(data), nil
}

// WriteByte appends a single byte.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)

	return nil
}

// WriteTo writes the buffer contents to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)

	return int64(n), err
}

var recordBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(RecordBufferDefaultSize)
	},
}

// GetRecordBuffer returns a reset buffer for envelope assembly.
func GetRecordBuffer() *ByteBuffer {
	bb, _ := recordBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutRecordBuffer returns a buffer to the pool, dropping oversized ones.
func PutRecordBuffer(bb *ByteBuffer) {
	if bb == nil || cap(bb.B) > RecordBufferMaxThreshold {
		return
	}
	recordBufferPool.Put(bb)
}

var float64SlicePool = sync.Pool{
	New: func() any {
		s := make([]float64, 0, 1024)
		return &s
	},
}

// GetFloat64Slice returns a zeroed float64 slice of the given size and a
// release function returning it to the pool.
func GetFloat64Slice(size int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	if cap(*ptr) < size {
		*ptr = make([]float64, size)
	}
	s := (*ptr)[:size]
	for i := range s {
		s[i] = 0
	}

	return s, func() {
		float64SlicePool.Put(ptr)
	}
}
