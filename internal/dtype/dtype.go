package dtype

import (
	"fmt"
	"reflect"
)

// Code identifies the element type of a typed payload.
type Code uint16

// Storage type codes.
const (
	UShort   Code = 1
	Short    Code = 2
	UInt     Code = 3
	Int      Code = 4
	Float    Code = 5
	Double   Code = 6
	CxFloat  Code = 7
	CxDouble Code = 8
)

var codeNames = map[Code]string{
	UShort:   "ushort",
	Short:    "short",
	UInt:     "uint",
	Int:      "int",
	Float:    "float",
	Double:   "double",
	CxFloat:  "cxfloat",
	CxDouble: "cxdouble",
}

var goTypes = map[Code]reflect.Type{
	UShort:   reflect.TypeOf(uint16(0)),
	Short:    reflect.TypeOf(int16(0)),
	UInt:     reflect.TypeOf(uint32(0)),
	Int:      reflect.TypeOf(int32(0)),
	Float:    reflect.TypeOf(float32(0)),
	Double:   reflect.TypeOf(float64(0)),
	CxFloat:  reflect.TypeOf(complex64(0)),
	CxDouble: reflect.TypeOf(complex128(0)),
}

// Valid reports whether c is one of the known codes.
func (c Code) Valid() bool {
	_, ok := goTypes[c]
	return ok
}

// Size returns the element size in bytes, or 0 for an unknown code.
func (c Code) Size() int {
	switch c {
	case UShort, Short:
		return 2
	case UInt, Int, Float:
		return 4
	case Double, CxFloat:
		return 8
	case CxDouble:
		return 16
	default:
		return 0
	}
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("dtype(%d)", uint16(c))
}

// GoType returns the element type for c.
func GoType(c Code) (reflect.Type, error) {
	t, ok := goTypes[c]
	if !ok {
		return nil, fmt.Errorf("unknown storage type %d", uint16(c))
	}
	return t, nil
}

// CodeOf returns the code whose Go slice type is exactly the type of data.
func CodeOf(data any) (Code, error) {
	switch data.(type) {
	case []uint16:
		return UShort, nil
	case []int16:
		return Short, nil
	case []uint32:
		return UInt, nil
	case []int32:
		return Int, nil
	case []float32:
		return Float, nil
	case []float64:
		return Double, nil
	case []complex64:
		return CxFloat, nil
	case []complex128:
		return CxDouble, nil
	default:
		return 0, fmt.Errorf("unsupported element slice %T", data)
	}
}

// Len returns the number of elements in a typed slice.
func Len(data any) (int, error) {
	if _, err := CodeOf(data); err != nil {
		return 0, err
	}
	return reflect.ValueOf(data).Len(), nil
}

// DataSize returns the byte size of n elements of type c.
func DataSize(c Code, n uint64) uint64 {
	return uint64(c.Size()) * n
}
