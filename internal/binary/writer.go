package binary

import (
	"encoding/binary"
	"math"
)

// Writer encodes fixed-width values into a growing byte slice.
type Writer struct {
	buf   []byte
	order binary.ByteOrder
}

// NewWriter creates a writer with the given configuration. size is a
// capacity hint; pass the exact encoded size when it is known.
func NewWriter(size int, cfg Config) *Writer {
	return &Writer{
		buf:   make([]byte, 0, size),
		order: cfg.ByteOrder,
	}
}

// Bytes returns the encoded bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(data []byte) {
	w.buf = append(w.buf, data...)
}

// WriteUint8 writes an unsigned 8-bit integer.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	w.order.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	w.order.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteInt32 writes a signed 32-bit integer.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteFloat32 writes an IEEE-754 single precision value.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteUint16s writes each element of vs in order.
func (w *Writer) WriteUint16s(vs []uint16) {
	for _, v := range vs {
		w.WriteUint16(v)
	}
}

// WriteUint32s writes each element of vs in order.
func (w *Writer) WriteUint32s(vs []uint32) {
	for _, v := range vs {
		w.WriteUint32(v)
	}
}

// WriteUint64s writes each element of vs in order.
func (w *Writer) WriteUint64s(vs []uint64) {
	for _, v := range vs {
		w.WriteUint64(v)
	}
}

// WriteInt32s writes each element of vs in order.
func (w *Writer) WriteInt32s(vs []int32) {
	for _, v := range vs {
		w.WriteInt32(v)
	}
}

// WriteFloat32s writes each element of vs in order.
func (w *Writer) WriteFloat32s(vs []float32) {
	for _, v := range vs {
		w.WriteFloat32(v)
	}
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) {
	if n <= 0 {
		return
	}
	w.buf = append(w.buf, make([]byte, n)...)
}

// ByteOrder returns the configured byte order.
func (w *Writer) ByteOrder() binary.ByteOrder {
	return w.order
}
