// Package binary provides the fixed-width little-endian primitives used by
// the record header codec and the container entry framing.
package binary

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortBuffer is returned when a read runs past the end of the input.
var ErrShortBuffer = errors.New("short buffer")

// Reader decodes fixed-width values from a byte slice.
//
// The first failed read is remembered and every later read returns a zero
// value, so a decoder can read a whole structure and check Err once.
type Reader struct {
	buf   []byte
	order binary.ByteOrder
	pos   int
	err   error
}

// Config holds reader and writer configuration.
type Config struct {
	ByteOrder binary.ByteOrder
}

// DefaultConfig returns the configuration of the record format: little-endian.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian}
}

// NewReader creates a reader over buf with the given configuration.
func NewReader(buf []byte, cfg Config) *Reader {
	return &Reader{
		buf:   buf,
		order: cfg.ByteOrder,
	}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying slice but has independent position.
func (r *Reader) At(offset int) *Reader {
	return &Reader{
		buf:   r.buf,
		order: r.order,
		pos:   offset,
	}
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.buf) {
		return 0
	}
	return len(r.buf) - r.pos
}

// Err returns the first error encountered by the reader.
func (r *Reader) Err() error {
	return r.err
}

// ReadBytes returns the next n bytes. The returned slice aliases the input.
func (r *Reader) ReadBytes(n int) []byte {
	if r.err != nil || n <= 0 {
		return nil
	}
	if r.pos+n > len(r.buf) {
		r.err = ErrShortBuffer
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() uint8 {
	buf := r.ReadBytes(1)
	if buf == nil {
		return 0
	}
	return buf[0]
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() uint16 {
	buf := r.ReadBytes(2)
	if buf == nil {
		return 0
	}
	return r.order.Uint16(buf)
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() uint32 {
	buf := r.ReadBytes(4)
	if buf == nil {
		return 0
	}
	return r.order.Uint32(buf)
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() uint64 {
	buf := r.ReadBytes(8)
	if buf == nil {
		return 0
	}
	return r.order.Uint64(buf)
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

// ReadFloat32 reads an IEEE-754 single precision value.
func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUint32())
}

// ReadUint16s fills dst with consecutive unsigned 16-bit integers.
func (r *Reader) ReadUint16s(dst []uint16) {
	for i := range dst {
		dst[i] = r.ReadUint16()
	}
}

// ReadUint32s fills dst with consecutive unsigned 32-bit integers.
func (r *Reader) ReadUint32s(dst []uint32) {
	for i := range dst {
		dst[i] = r.ReadUint32()
	}
}

// ReadUint64s fills dst with consecutive unsigned 64-bit integers.
func (r *Reader) ReadUint64s(dst []uint64) {
	for i := range dst {
		dst[i] = r.ReadUint64()
	}
}

// ReadInt32s fills dst with consecutive signed 32-bit integers.
func (r *Reader) ReadInt32s(dst []int32) {
	for i := range dst {
		dst[i] = r.ReadInt32()
	}
}

// ReadFloat32s fills dst with consecutive single precision values.
func (r *Reader) ReadFloat32s(dst []float32) {
	for i := range dst {
		dst[i] = r.ReadFloat32()
	}
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) {
	r.ReadBytes(n)
}

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}
