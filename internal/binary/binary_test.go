package binary

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterLittleEndian(t *testing.T) {
	w := NewWriter(0, DefaultConfig())
	w.WriteUint8(0xAB)
	w.WriteUint16(0x0102)
	w.WriteUint32(0x03040506)
	w.WriteUint64(0x0708090A0B0C0D0E)

	require.Equal(t, []byte{
		0xAB,
		0x02, 0x01,
		0x06, 0x05, 0x04, 0x03,
		0x0E, 0x0D, 0x0C, 0x0B, 0x0A, 0x09, 0x08, 0x07,
	}, w.Bytes())
	require.Equal(t, 15, w.Len())
}

func TestWriterFloatAndSigned(t *testing.T) {
	w := NewWriter(8, DefaultConfig())
	w.WriteFloat32(1.5)
	w.WriteInt32(-2)

	r := NewReader(w.Bytes(), DefaultConfig())
	require.Equal(t, float32(1.5), r.ReadFloat32())
	require.Equal(t, int32(-2), r.ReadInt32())
	require.NoError(t, r.Err())
	require.Zero(t, r.Len())
}

func TestReaderRoundTripSlices(t *testing.T) {
	w := NewWriter(0, DefaultConfig())
	w.WriteUint16s([]uint16{1, 2, 3})
	w.WriteUint32s([]uint32{4, 5})
	w.WriteUint64s([]uint64{math.MaxUint64})
	w.WriteInt32s([]int32{-7, 8})
	w.WriteFloat32s([]float32{float32(math.Inf(-1)), 0.25})
	w.WriteZeros(3)

	r := NewReader(w.Bytes(), DefaultConfig())
	u16 := make([]uint16, 3)
	u32 := make([]uint32, 2)
	u64 := make([]uint64, 1)
	i32 := make([]int32, 2)
	f32 := make([]float32, 2)
	r.ReadUint16s(u16)
	r.ReadUint32s(u32)
	r.ReadUint64s(u64)
	r.ReadInt32s(i32)
	r.ReadFloat32s(f32)
	r.Skip(3)

	require.NoError(t, r.Err())
	require.Equal(t, []uint16{1, 2, 3}, u16)
	require.Equal(t, []uint32{4, 5}, u32)
	require.Equal(t, []uint64{math.MaxUint64}, u64)
	require.Equal(t, []int32{-7, 8}, i32)
	require.True(t, math.IsInf(float64(f32[0]), -1))
	require.Equal(t, float32(0.25), f32[1])
	require.Zero(t, r.Len())
}

func TestReaderShortBufferIsSticky(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03}, DefaultConfig())

	require.Equal(t, uint16(0x0201), r.ReadUint16())
	require.Zero(t, r.ReadUint32())
	require.ErrorIs(t, r.Err(), ErrShortBuffer)

	// Later reads keep failing even if they would fit.
	require.Zero(t, r.ReadUint8())
	require.ErrorIs(t, r.Err(), ErrShortBuffer)
}

func TestReaderAt(t *testing.T) {
	r := NewReader([]byte{0, 0, 0x34, 0x12}, DefaultConfig())
	r2 := r.At(2)

	require.Equal(t, 2, r2.Pos())
	require.Equal(t, uint16(0x1234), r2.ReadUint16())
	require.Zero(t, r.Pos())
}
