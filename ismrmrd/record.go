package ismrmrd

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-ismrmrd/internal/dtype"
)

// Kind identifies the record type of a stream entry.
type Kind uint8

// Record kinds. The values match the entity type codes of the stream
// protocol.
const (
	KindAcquisition Kind = 3
	KindWaveform    Kind = 4
	KindImage       Kind = 5
)

func (k Kind) String() string {
	switch k {
	case KindAcquisition:
		return "acquisition"
	case KindWaveform:
		return "waveform"
	case KindImage:
		return "image"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Record is a header with its payloads. It is implemented by *Acquisition,
// *Image and *Waveform.
type Record interface {
	Kind() Kind
	headerVersion() uint16
	encodeHeader() []byte
	// encodePayload returns the payload bytes and the element size used
	// by the shuffle filter.
	encodePayload() ([]byte, int)
}

// Acquisition is one readout: header, optional trajectory and complex
// samples. Sample s of channel c is stored at data[c*number_of_samples+s].
type Acquisition struct {
	head AcquisitionHeader
	traj []float32
	data []complex64
}

// NewAcquisition attaches traj and data to head. The slices are owned by
// the returned record and must not be modified by the caller.
func NewAcquisition(head AcquisitionHeader, traj []float32, data []complex64) (*Acquisition, error) {
	if err := checkAcquisition(&head, traj, data); err != nil {
		return nil, err
	}
	return &Acquisition{head: head, traj: nilIfEmpty(traj), data: nilIfEmpty(data)}, nil
}

func checkAcquisition(head *AcquisitionHeader, traj []float32, data []complex64) error {
	if err := head.Validate(); err != nil {
		return err
	}
	if want := head.TrajectoryElements(); uint64(len(traj)) != want {
		return &SizeMismatchError{Field: "traj", Expected: want, Actual: uint64(len(traj))}
	}
	if want := head.DataElements(); uint64(len(data)) != want {
		return &SizeMismatchError{Field: "data", Expected: want, Actual: uint64(len(data))}
	}
	return nil
}

// Kind returns KindAcquisition.
func (a *Acquisition) Kind() Kind { return KindAcquisition }

// Head returns a copy of the header.
func (a *Acquisition) Head() AcquisitionHeader { return a.head }

// Traj returns a copy of the trajectory.
func (a *Acquisition) Traj() []float32 { return cloneSlice(a.traj) }

// Data returns a copy of the samples.
func (a *Acquisition) Data() []complex64 { return cloneSlice(a.data) }

// At returns sample s of channel c.
func (a *Acquisition) At(s, c int) complex64 {
	return a.data[c*int(a.head.NumberOfSamples)+s]
}

// TrajAt returns trajectory dimension d of sample s.
func (a *Acquisition) TrajAt(d, s int) float32 {
	return a.traj[s*int(a.head.TrajectoryDimensions)+d]
}

// Replace swaps header and payloads after validating them. On error the
// record is unchanged.
func (a *Acquisition) Replace(head AcquisitionHeader, traj []float32, data []complex64) error {
	if err := checkAcquisition(&head, traj, data); err != nil {
		return err
	}
	a.head, a.traj, a.data = head, nilIfEmpty(traj), nilIfEmpty(data)
	return nil
}

// Detach returns the header and payloads and leaves the record empty.
func (a *Acquisition) Detach() (AcquisitionHeader, []float32, []complex64) {
	head, traj, data := a.head, a.traj, a.data
	*a = Acquisition{}
	return head, traj, data
}

func (a *Acquisition) headerVersion() uint16 { return a.head.Version }

func (a *Acquisition) encodeHeader() []byte {
	return EncodeAcquisitionHeader(&a.head)
}

func (a *Acquisition) encodePayload() ([]byte, int) {
	out := dtype.EncodeFloat32(a.traj)
	out = append(out, dtype.EncodeComplex64(a.data)...)
	return out, 4
}

// Image is a reconstructed image: header, attribute string and pixels. The
// pixel slice type is fixed by the header data type.
type Image struct {
	head       ImageHeader
	attributes string
	data       any
}

// NewImage attaches attributes and data to head. data must be the slice
// type of head.DataType ([]uint16 for TypeUShort, []complex64 for
// TypeCxFloat and so on) with one element per pixel and channel. The
// header's attribute string length is set from attributes.
func NewImage(head ImageHeader, attributes string, data any) (*Image, error) {
	if err := checkImage(&head, data); err != nil {
		return nil, err
	}
	head.AttributeStringLen = uint32(len(attributes))
	img := &Image{head: head, attributes: attributes}
	if head.NumberOfElements() > 0 {
		img.data = data
	}
	return img, nil
}

func checkImage(head *ImageHeader, data any) error {
	if err := head.Validate(); err != nil {
		return err
	}
	want := head.NumberOfElements()
	if data == nil {
		if want == 0 {
			return nil
		}
		return &SizeMismatchError{Field: "data", Expected: want, Actual: 0}
	}
	code, err := dtype.CodeOf(data)
	if err != nil {
		return &FormatError{Field: "data", Msg: err.Error()}
	}
	if code != head.DataType {
		return &FormatError{
			Field: "data",
			Msg:   fmt.Sprintf("%T does not hold %s elements", data, head.DataType),
		}
	}
	n := uint64(reflect.ValueOf(data).Len())
	if n != want {
		return &SizeMismatchError{Field: "data", Expected: want, Actual: n}
	}
	return nil
}

// Kind returns KindImage.
func (img *Image) Kind() Kind { return KindImage }

// Head returns a copy of the header.
func (img *Image) Head() ImageHeader { return img.head }

// Attributes returns the attribute string.
func (img *Image) Attributes() string { return img.attributes }

// Data returns a copy of the pixels, or nil for an empty image.
func (img *Image) Data() any {
	if img.data == nil {
		return nil
	}
	v := reflect.ValueOf(img.data)
	out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(out, v)
	return out.Interface()
}

// NumberOfElements returns the pixel count.
func (img *Image) NumberOfElements() uint64 {
	return img.head.NumberOfElements()
}

// Replace swaps header, attributes and pixels after validating them. On
// error the record is unchanged.
func (img *Image) Replace(head ImageHeader, attributes string, data any) error {
	next, err := NewImage(head, attributes, data)
	if err != nil {
		return err
	}
	*img = *next
	return nil
}

// Detach returns the header, attributes and pixels and leaves the record
// empty.
func (img *Image) Detach() (ImageHeader, string, any) {
	head, attrs, data := img.head, img.attributes, img.data
	*img = Image{}
	return head, attrs, data
}

func (img *Image) headerVersion() uint16 { return img.head.Version }

func (img *Image) encodeHeader() []byte {
	return EncodeImageHeader(&img.head)
}

func (img *Image) encodePayload() ([]byte, int) {
	out := []byte(img.attributes)
	if img.data != nil {
		// The type was checked when the data was attached.
		pix, _ := dtype.Encode(img.head.DataType, img.data)
		out = append(out, pix...)
	}
	return out, img.head.DataType.Size()
}

// Waveform is a block of unsigned samples. Sample s of channel c is stored
// at data[c*number_of_samples+s].
type Waveform struct {
	head WaveformHeader
	data []uint32
}

// NewWaveform attaches data to head.
func NewWaveform(head WaveformHeader, data []uint32) (*Waveform, error) {
	if err := checkWaveform(&head, data); err != nil {
		return nil, err
	}
	return &Waveform{head: head, data: nilIfEmpty(data)}, nil
}

func checkWaveform(head *WaveformHeader, data []uint32) error {
	if want := head.DataElements(); uint64(len(data)) != want {
		return &SizeMismatchError{Field: "data", Expected: want, Actual: uint64(len(data))}
	}
	return nil
}

// Kind returns KindWaveform.
func (w *Waveform) Kind() Kind { return KindWaveform }

// Head returns a copy of the header.
func (w *Waveform) Head() WaveformHeader { return w.head }

// Data returns a copy of the samples.
func (w *Waveform) Data() []uint32 { return cloneSlice(w.data) }

// At returns sample s of channel c.
func (w *Waveform) At(s, c int) uint32 {
	return w.data[c*int(w.head.NumberOfSamples)+s]
}

// Replace swaps header and samples after validating them.
func (w *Waveform) Replace(head WaveformHeader, data []uint32) error {
	if err := checkWaveform(&head, data); err != nil {
		return err
	}
	w.head, w.data = head, nilIfEmpty(data)
	return nil
}

// Detach returns the header and samples and leaves the record empty.
func (w *Waveform) Detach() (WaveformHeader, []uint32) {
	head, data := w.head, w.data
	*w = Waveform{}
	return head, data
}

func (w *Waveform) headerVersion() uint16 { return w.head.Version }

func (w *Waveform) encodeHeader() []byte {
	return EncodeWaveformHeader(&w.head)
}

func (w *Waveform) encodePayload() ([]byte, int) {
	return dtype.EncodeUint32(w.data), 4
}

// decodeRecord rebuilds a record from its stored header and payload bytes.
func decodeRecord(kind Kind, header, payload []byte) (Record, error) {
	switch kind {
	case KindAcquisition:
		head, err := DecodeAcquisitionHeader(header)
		if err != nil {
			return nil, err
		}
		trajBytes := 4 * head.TrajectoryElements()
		want := trajBytes + 8*head.DataElements()
		if uint64(len(payload)) != want {
			return nil, &FormatError{Field: "acquisition_payload", Expected: int(want), Actual: len(payload)}
		}
		return &Acquisition{
			head: head,
			traj: nilIfEmpty(dtype.DecodeFloat32(payload[:trajBytes])),
			data: nilIfEmpty(dtype.DecodeComplex64(payload[trajBytes:])),
		}, nil

	case KindImage:
		head, err := DecodeImageHeader(header)
		if err != nil {
			return nil, err
		}
		if err := head.Validate(); err != nil {
			return nil, err
		}
		attrLen := uint64(head.AttributeStringLen)
		want := attrLen + head.DataSize()
		if uint64(len(payload)) != want {
			return nil, &FormatError{Field: "image_payload", Expected: int(want), Actual: len(payload)}
		}
		img := &Image{head: head, attributes: string(payload[:attrLen])}
		if head.NumberOfElements() > 0 {
			data, err := dtype.Decode(head.DataType, payload[attrLen:])
			if err != nil {
				return nil, &FormatError{Field: "image_payload", Msg: err.Error()}
			}
			img.data = data
		}
		return img, nil

	case KindWaveform:
		head, err := DecodeWaveformHeader(header)
		if err != nil {
			return nil, err
		}
		want := 4 * head.DataElements()
		if uint64(len(payload)) != want {
			return nil, &FormatError{Field: "waveform_payload", Expected: int(want), Actual: len(payload)}
		}
		return &Waveform{head: head, data: nilIfEmpty(dtype.DecodeUint32(payload))}, nil
	}
	return nil, &FormatError{Field: "kind", Msg: fmt.Sprintf("unknown record kind %d", uint8(kind))}
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
