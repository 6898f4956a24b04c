package ismrmrd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNDArrayRoundtrip(t *testing.T) {
	arr, err := NewNDArray(TypeCxFloat, 2, 3, 4, 5)
	require.NoError(t, err)
	data := arr.Data.([]complex64)
	require.Len(t, data, 120)
	for i := range data {
		data[i] = complex(float32(i), 1)
	}

	b, err := arr.MarshalBinary()
	require.NoError(t, err)

	var got NDArray
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, *arr, got)
}

func TestNDArrayValidate(t *testing.T) {
	arr := &NDArray{Version: Version, DataType: TypeDouble, Dims: []uint64{2, 2}, Data: []float64{1, 2, 3}}
	require.ErrorIs(t, arr.Validate(), ErrSizeMismatch)

	arr.Data = []float32{1, 2, 3, 4}
	require.ErrorIs(t, arr.Validate(), ErrFormat)

	arr.Data = []float64{1, 2, 3, 4}
	require.NoError(t, arr.Validate())

	arr.DataType = 0
	require.ErrorIs(t, arr.Validate(), ErrFormat)

	_, err := NewNDArray(42, 1)
	require.ErrorIs(t, err, ErrFormat)
}

func TestNDArrayUnmarshalTruncated(t *testing.T) {
	arr := &NDArray{Version: Version, DataType: TypeInt, Dims: []uint64{3}, Data: []int32{1, -2, 3}}
	b, err := arr.MarshalBinary()
	require.NoError(t, err)

	var got NDArray
	require.ErrorIs(t, got.UnmarshalBinary(b[:len(b)-1]), ErrFormat)
	require.ErrorIs(t, got.UnmarshalBinary(b[:3]), ErrFormat)
	require.ErrorIs(t, got.UnmarshalBinary(b[:12]), ErrFormat)
}
