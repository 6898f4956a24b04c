package ismrmrd

import (
	"fmt"
	"reflect"

	binpkg "github.com/robert-malhotra/go-ismrmrd/internal/binary"
	"github.com/robert-malhotra/go-ismrmrd/internal/dtype"
)

// NDArray is a named auxiliary array stored next to a record stream, such
// as a coil sensitivity map or a noise covariance matrix. Data holds the
// elements in the slice type of DataType, first dimension fastest.
type NDArray struct {
	Version  uint16
	DataType DataType
	Dims     []uint64
	Data     any
}

// NewNDArray allocates a zero-filled array.
func NewNDArray(dt DataType, dims ...uint64) (*NDArray, error) {
	t, err := dtype.GoType(dt)
	if err != nil {
		return nil, &FormatError{Field: "data_type", Msg: err.Error()}
	}
	n := product(dims)
	data := reflect.MakeSlice(reflect.SliceOf(t), int(n), int(n)).Interface()
	return &NDArray{Version: Version, DataType: dt, Dims: append([]uint64(nil), dims...), Data: data}, nil
}

// NumberOfElements returns the product of the dimensions.
func (a *NDArray) NumberOfElements() uint64 {
	return product(a.Dims)
}

// Validate checks that Data has the element type and length the header
// fields declare.
func (a *NDArray) Validate() error {
	if !a.DataType.Valid() {
		return &FormatError{Field: "data_type", Msg: fmt.Sprintf("unknown data type %d", uint16(a.DataType))}
	}
	code, err := dtype.CodeOf(a.Data)
	if err != nil {
		return &FormatError{Field: "data", Msg: err.Error()}
	}
	if code != a.DataType {
		return &FormatError{Field: "data", Msg: fmt.Sprintf("%T does not hold %s elements", a.Data, a.DataType)}
	}
	n, _ := dtype.Len(a.Data)
	if want := a.NumberOfElements(); uint64(n) != want {
		return &SizeMismatchError{Field: "data", Expected: want, Actual: uint64(n)}
	}
	return nil
}

// MarshalBinary encodes the array as version, data type, dimension count,
// dimensions and elements.
func (a *NDArray) MarshalBinary() ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	body, err := dtype.Encode(a.DataType, a.Data)
	if err != nil {
		return nil, err
	}
	w := binpkg.NewWriter(8+8*len(a.Dims)+len(body), binpkg.DefaultConfig())
	w.WriteUint16(a.Version)
	w.WriteUint16(uint16(a.DataType))
	w.WriteUint32(uint32(len(a.Dims)))
	w.WriteUint64s(a.Dims)
	w.WriteBytes(body)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes an array written by MarshalBinary.
func (a *NDArray) UnmarshalBinary(data []byte) error {
	r := binpkg.NewReader(data, binpkg.DefaultConfig())
	version := r.ReadUint16()
	dt := DataType(r.ReadUint16())
	ndim := r.ReadUint32()
	if r.Err() != nil {
		return &FormatError{Field: "ndarray", Msg: "truncated header"}
	}
	if uint64(ndim)*8 > uint64(r.Len()) {
		return &FormatError{Field: "ndarray.dims", Expected: int(ndim) * 8, Actual: r.Len()}
	}
	dims := make([]uint64, ndim)
	r.ReadUint64s(dims)
	if !dt.Valid() {
		return &FormatError{Field: "data_type", Msg: fmt.Sprintf("unknown data type %d", uint16(dt))}
	}
	want := dtype.DataSize(dt, product(dims))
	if uint64(r.Len()) != want {
		return &FormatError{Field: "ndarray.data", Expected: int(want), Actual: r.Len()}
	}
	values, err := dtype.Decode(dt, r.ReadBytes(r.Len()))
	if err != nil {
		return &FormatError{Field: "ndarray.data", Msg: err.Error()}
	}
	*a = NDArray{Version: version, DataType: dt, Dims: dims, Data: values}
	return nil
}

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}
