package dtype

import (
	"fmt"
	"math"
)

// Decode converts little-endian bytes to a new typed slice for code c.
// len(data) must be a whole number of elements.
func Decode(c Code, data []byte) (any, error) {
	size := c.Size()
	if size == 0 {
		return nil, fmt.Errorf("unknown storage type %d", uint16(c))
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %s elements", len(data), c)
	}
	n := len(data) / size

	switch c {
	case UShort:
		out := make([]uint16, n)
		for i := range out {
			out[i] = order.Uint16(data[2*i:])
		}
		return out, nil
	case Short:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(order.Uint16(data[2*i:]))
		}
		return out, nil
	case UInt:
		return DecodeUint32(data), nil
	case Int:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(order.Uint32(data[4*i:]))
		}
		return out, nil
	case Float:
		return DecodeFloat32(data), nil
	case Double:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(data[8*i:]))
		}
		return out, nil
	case CxFloat:
		return DecodeComplex64(data), nil
	case CxDouble:
		out := make([]complex128, n)
		for i := range out {
			re := math.Float64frombits(order.Uint64(data[16*i:]))
			im := math.Float64frombits(order.Uint64(data[16*i+8:]))
			out[i] = complex(re, im)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown storage type %d", uint16(c))
}

// DecodeFloat32 decodes single precision values. Trailing bytes that do not
// form a whole element are ignored.
func DecodeFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(order.Uint32(data[4*i:]))
	}
	return out
}

// DecodeComplex64 decodes interleaved float32 pairs.
func DecodeComplex64(data []byte) []complex64 {
	out := make([]complex64, len(data)/8)
	for i := range out {
		re := math.Float32frombits(order.Uint32(data[8*i:]))
		im := math.Float32frombits(order.Uint32(data[8*i+4:]))
		out[i] = complex(re, im)
	}
	return out
}

// DecodeUint32 decodes unsigned 32-bit values.
func DecodeUint32(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = order.Uint32(data[4*i:])
	}
	return out
}
