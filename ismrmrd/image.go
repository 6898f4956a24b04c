package ismrmrd

import (
	"fmt"

	"github.com/robert-malhotra/go-ismrmrd/internal/dtype"
)

// ImageHeaderSize is the encoded size of an ImageHeader.
const ImageHeaderSize = 198

// DataType is the element type tag of image and array payloads.
type DataType = dtype.Code

// Element types.
const (
	TypeUShort   DataType = dtype.UShort
	TypeShort    DataType = dtype.Short
	TypeUInt     DataType = dtype.UInt
	TypeInt      DataType = dtype.Int
	TypeFloat    DataType = dtype.Float
	TypeDouble   DataType = dtype.Double
	TypeCxFloat  DataType = dtype.CxFloat
	TypeCxDouble DataType = dtype.CxDouble
)

// ImageType tells how the pixel values of an image are to be read.
type ImageType uint16

// Image types.
const (
	ImageMagnitude ImageType = 1
	ImagePhase     ImageType = 2
	ImageReal      ImageType = 3
	ImageImag      ImageType = 4
	ImageComplex   ImageType = 5
)

func (t ImageType) String() string {
	switch t {
	case ImageMagnitude:
		return "magnitude"
	case ImagePhase:
		return "phase"
	case ImageReal:
		return "real"
	case ImageImag:
		return "imag"
	case ImageComplex:
		return "complex"
	}
	return fmt.Sprintf("image_type(%d)", uint16(t))
}

// ImageHeader describes one reconstructed image.
type ImageHeader struct {
	Version              uint16
	DataType             DataType
	Flags                FlagSet[ImageFlag]
	MeasurementUID       uint32
	MatrixSize           [3]uint16
	FieldOfView          [3]float32
	Channels             uint16
	Position             [PositionLength]float32
	ReadDir              [DirectionLength]float32
	PhaseDir             [DirectionLength]float32
	SliceDir             [DirectionLength]float32
	PatientTablePosition [PositionLength]float32
	Average              uint16
	Slice                uint16
	Contrast             uint16
	Phase                uint16
	Repetition           uint16
	Set                  uint16
	AcquisitionTimeStamp uint32
	PhysiologyTimeStamp  [PhysiologyStamps]uint32
	ImageType            ImageType
	ImageIndex           uint16
	ImageSeriesIndex     uint16
	UserInt              [UserIntegers]int32
	UserFloat            [UserFloats]float32
	AttributeStringLen   uint32
}

// NewImageHeader returns a header with only the version and data type set.
func NewImageHeader(dt DataType) ImageHeader {
	return ImageHeader{Version: Version, DataType: dt}
}

// NumberOfElements returns the pixel count implied by the matrix size and
// channel count.
func (h *ImageHeader) NumberOfElements() uint64 {
	return uint64(h.MatrixSize[0]) * uint64(h.MatrixSize[1]) *
		uint64(h.MatrixSize[2]) * uint64(h.Channels)
}

// DataSize returns the pixel payload size in bytes.
func (h *ImageHeader) DataSize() uint64 {
	return dtype.DataSize(h.DataType, h.NumberOfElements())
}

// Validate checks that the data type tag is known.
func (h *ImageHeader) Validate() error {
	if !h.DataType.Valid() {
		return &FormatError{
			Field: "data_type",
			Msg:   fmt.Sprintf("unknown data type %d", uint16(h.DataType)),
		}
	}
	return nil
}

// CheckVersion reports a header written by a different format version.
func (h *ImageHeader) CheckVersion() error {
	return checkVersion("image", h.Version)
}
