package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
)

var order = binary.LittleEndian

// Encode converts a typed slice to little-endian bytes. The slice type must
// match c exactly.
func Encode(c Code, src any) ([]byte, error) {
	got, err := CodeOf(src)
	if err != nil {
		return nil, err
	}
	if got != c {
		return nil, fmt.Errorf("cannot encode %s data as %s", got, c)
	}

	switch v := src.(type) {
	case []uint16:
		out := make([]byte, 2*len(v))
		for i, x := range v {
			order.PutUint16(out[2*i:], x)
		}
		return out, nil
	case []int16:
		out := make([]byte, 2*len(v))
		for i, x := range v {
			order.PutUint16(out[2*i:], uint16(x))
		}
		return out, nil
	case []uint32:
		out := make([]byte, 4*len(v))
		for i, x := range v {
			order.PutUint32(out[4*i:], x)
		}
		return out, nil
	case []int32:
		out := make([]byte, 4*len(v))
		for i, x := range v {
			order.PutUint32(out[4*i:], uint32(x))
		}
		return out, nil
	case []float32:
		return EncodeFloat32(v), nil
	case []float64:
		out := make([]byte, 8*len(v))
		for i, x := range v {
			order.PutUint64(out[8*i:], math.Float64bits(x))
		}
		return out, nil
	case []complex64:
		return EncodeComplex64(v), nil
	case []complex128:
		out := make([]byte, 16*len(v))
		for i, x := range v {
			order.PutUint64(out[16*i:], math.Float64bits(real(x)))
			order.PutUint64(out[16*i+8:], math.Float64bits(imag(x)))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported element slice %T", src)
}

// EncodeFloat32 encodes single precision values.
func EncodeFloat32(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, x := range v {
		order.PutUint32(out[4*i:], math.Float32bits(x))
	}
	return out
}

// EncodeComplex64 encodes complex values as interleaved float32 pairs.
func EncodeComplex64(v []complex64) []byte {
	out := make([]byte, 8*len(v))
	for i, x := range v {
		order.PutUint32(out[8*i:], math.Float32bits(real(x)))
		order.PutUint32(out[8*i+4:], math.Float32bits(imag(x)))
	}
	return out
}

// EncodeUint32 encodes unsigned 32-bit values.
func EncodeUint32(v []uint32) []byte {
	out := make([]byte, 4*len(v))
	for i, x := range v {
		order.PutUint32(out[4*i:], x)
	}
	return out
}
