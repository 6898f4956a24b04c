// Package dtype maps the record format's storage-type codes to Go types.
//
// Image pixels and auxiliary arrays are typed by a small closed set of
// codes. Each code names exactly one Go slice type; no implicit conversion
// is ever performed, so a []float64 cannot be stored under Float.
//
//	Code     | Go slice     | Element size
//	---------|--------------|-------------
//	UShort   | []uint16     | 2
//	Short    | []int16      | 2
//	UInt     | []uint32     | 4
//	Int      | []int32      | 4
//	Float    | []float32    | 4
//	Double   | []float64    | 8
//	CxFloat  | []complex64  | 8
//	CxDouble | []complex128 | 16
//
// # Encoding
//
// Use [Encode] to turn a typed slice into little-endian bytes and [Decode]
// to turn bytes back into a freshly allocated slice:
//
//	raw, err := dtype.Encode(dtype.Float, []float32{1, 2, 3})
//	v, err := dtype.Decode(dtype.Float, raw)
//
// Complex values are stored as interleaved real/imaginary pairs.
package dtype
