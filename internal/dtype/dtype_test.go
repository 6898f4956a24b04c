package dtype

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGoType(t *testing.T) {
	tests := []struct {
		code     Code
		expected reflect.Type
		size     int
	}{
		{UShort, reflect.TypeOf(uint16(0)), 2},
		{Short, reflect.TypeOf(int16(0)), 2},
		{UInt, reflect.TypeOf(uint32(0)), 4},
		{Int, reflect.TypeOf(int32(0)), 4},
		{Float, reflect.TypeOf(float32(0)), 4},
		{Double, reflect.TypeOf(float64(0)), 8},
		{CxFloat, reflect.TypeOf(complex64(0)), 8},
		{CxDouble, reflect.TypeOf(complex128(0)), 16},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			got, err := GoType(tt.code)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
			require.Equal(t, tt.size, tt.code.Size())
			require.True(t, tt.code.Valid())
		})
	}
}

func TestUnknownCode(t *testing.T) {
	c := Code(42)
	require.False(t, c.Valid())
	require.Zero(t, c.Size())
	require.Equal(t, "dtype(42)", c.String())

	_, err := GoType(c)
	require.Error(t, err)
	_, err = Decode(c, []byte{1, 2})
	require.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		code Code
		data any
	}{
		{UShort, []uint16{0, 1, math.MaxUint16}},
		{Short, []int16{math.MinInt16, -1, 0, math.MaxInt16}},
		{UInt, []uint32{7, math.MaxUint32}},
		{Int, []int32{math.MinInt32, 3}},
		{Float, []float32{-1.5, 0, 3.25}},
		{Double, []float64{math.Pi, -math.E}},
		{CxFloat, []complex64{complex(1, -2), complex(0.5, 0.25)}},
		{CxDouble, []complex128{complex(-3, 4)}},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			raw, err := Encode(tt.code, tt.data)
			require.NoError(t, err)

			n, err := Len(tt.data)
			require.NoError(t, err)
			require.Equal(t, int(DataSize(tt.code, uint64(n))), len(raw))

			got, err := Decode(tt.code, raw)
			require.NoError(t, err)
			require.Equal(t, tt.data, got)
		})
	}
}

func TestEncodeRejectsMismatchedType(t *testing.T) {
	_, err := Encode(Float, []float64{1})
	require.Error(t, err)

	_, err = Encode(Float, []int{1})
	require.Error(t, err)
}

func TestDecodePartialElement(t *testing.T) {
	_, err := Decode(Double, make([]byte, 12))
	require.Error(t, err)
}

func TestComplexLayoutIsInterleaved(t *testing.T) {
	raw := EncodeComplex64([]complex64{complex(1, 2)})
	require.Equal(t, []float32{1, 2}, DecodeFloat32(raw))
}

func TestCodeOf(t *testing.T) {
	c, err := CodeOf([]complex128{})
	require.NoError(t, err)
	require.Equal(t, CxDouble, c)

	_, err = CodeOf([]byte{})
	require.Error(t, err)
}
