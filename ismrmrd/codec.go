package ismrmrd

import (
	binpkg "github.com/robert-malhotra/go-ismrmrd/internal/binary"
)

// EncodeAcquisitionHeader returns the 340-byte little-endian encoding of h.
func EncodeAcquisitionHeader(h *AcquisitionHeader) []byte {
	w := binpkg.NewWriter(AcquisitionHeaderSize, binpkg.DefaultConfig())
	w.WriteUint16(h.Version)
	w.WriteUint64(h.Flags.Raw())
	w.WriteUint32(h.MeasurementUID)
	w.WriteUint32(h.ScanCounter)
	w.WriteUint32(h.AcquisitionTimeStamp)
	w.WriteUint32s(h.PhysiologyTimeStamp[:])
	w.WriteUint16(h.NumberOfSamples)
	w.WriteUint16(h.AvailableChannels)
	w.WriteUint16(h.ActiveChannels)
	w.WriteUint64s(h.ChannelMask[:])
	w.WriteUint16(h.DiscardPre)
	w.WriteUint16(h.DiscardPost)
	w.WriteUint16(h.CenterSample)
	w.WriteUint16(h.EncodingSpaceRef)
	w.WriteUint16(h.TrajectoryDimensions)
	w.WriteFloat32(h.SampleTimeUs)
	w.WriteFloat32s(h.Position[:])
	w.WriteFloat32s(h.ReadDir[:])
	w.WriteFloat32s(h.PhaseDir[:])
	w.WriteFloat32s(h.SliceDir[:])
	w.WriteFloat32s(h.PatientTablePosition[:])
	writeCounters(w, &h.Idx)
	w.WriteInt32s(h.UserInt[:])
	w.WriteFloat32s(h.UserFloat[:])
	return w.Bytes()
}

// DecodeAcquisitionHeader decodes an AcquisitionHeader. data must be exactly
// AcquisitionHeaderSize bytes.
func DecodeAcquisitionHeader(data []byte) (AcquisitionHeader, error) {
	var h AcquisitionHeader
	if len(data) != AcquisitionHeaderSize {
		return h, &FormatError{Field: "acquisition_header", Expected: AcquisitionHeaderSize, Actual: len(data)}
	}
	r := binpkg.NewReader(data, binpkg.DefaultConfig())
	h.Version = r.ReadUint16()
	h.Flags = FlagSetFromRaw[AcquisitionFlag](r.ReadUint64())
	h.MeasurementUID = r.ReadUint32()
	h.ScanCounter = r.ReadUint32()
	h.AcquisitionTimeStamp = r.ReadUint32()
	r.ReadUint32s(h.PhysiologyTimeStamp[:])
	h.NumberOfSamples = r.ReadUint16()
	h.AvailableChannels = r.ReadUint16()
	h.ActiveChannels = r.ReadUint16()
	r.ReadUint64s(h.ChannelMask[:])
	h.DiscardPre = r.ReadUint16()
	h.DiscardPost = r.ReadUint16()
	h.CenterSample = r.ReadUint16()
	h.EncodingSpaceRef = r.ReadUint16()
	h.TrajectoryDimensions = r.ReadUint16()
	h.SampleTimeUs = r.ReadFloat32()
	r.ReadFloat32s(h.Position[:])
	r.ReadFloat32s(h.ReadDir[:])
	r.ReadFloat32s(h.PhaseDir[:])
	r.ReadFloat32s(h.SliceDir[:])
	r.ReadFloat32s(h.PatientTablePosition[:])
	readCounters(r, &h.Idx)
	r.ReadInt32s(h.UserInt[:])
	r.ReadFloat32s(h.UserFloat[:])
	return h, r.Err()
}

func writeCounters(w *binpkg.Writer, c *EncodingCounters) {
	w.WriteUint16(c.KspaceEncodeStep1)
	w.WriteUint16(c.KspaceEncodeStep2)
	w.WriteUint16(c.Average)
	w.WriteUint16(c.Slice)
	w.WriteUint16(c.Contrast)
	w.WriteUint16(c.Phase)
	w.WriteUint16(c.Repetition)
	w.WriteUint16(c.Set)
	w.WriteUint16(c.Segment)
	w.WriteUint16s(c.User[:])
}

func readCounters(r *binpkg.Reader, c *EncodingCounters) {
	c.KspaceEncodeStep1 = r.ReadUint16()
	c.KspaceEncodeStep2 = r.ReadUint16()
	c.Average = r.ReadUint16()
	c.Slice = r.ReadUint16()
	c.Contrast = r.ReadUint16()
	c.Phase = r.ReadUint16()
	c.Repetition = r.ReadUint16()
	c.Set = r.ReadUint16()
	c.Segment = r.ReadUint16()
	r.ReadUint16s(c.User[:])
}

// EncodeImageHeader returns the 198-byte little-endian encoding of h.
func EncodeImageHeader(h *ImageHeader) []byte {
	w := binpkg.NewWriter(ImageHeaderSize, binpkg.DefaultConfig())
	w.WriteUint16(h.Version)
	w.WriteUint16(uint16(h.DataType))
	w.WriteUint64(h.Flags.Raw())
	w.WriteUint32(h.MeasurementUID)
	w.WriteUint16s(h.MatrixSize[:])
	w.WriteFloat32s(h.FieldOfView[:])
	w.WriteUint16(h.Channels)
	w.WriteFloat32s(h.Position[:])
	w.WriteFloat32s(h.ReadDir[:])
	w.WriteFloat32s(h.PhaseDir[:])
	w.WriteFloat32s(h.SliceDir[:])
	w.WriteFloat32s(h.PatientTablePosition[:])
	w.WriteUint16(h.Average)
	w.WriteUint16(h.Slice)
	w.WriteUint16(h.Contrast)
	w.WriteUint16(h.Phase)
	w.WriteUint16(h.Repetition)
	w.WriteUint16(h.Set)
	w.WriteUint32(h.AcquisitionTimeStamp)
	w.WriteUint32s(h.PhysiologyTimeStamp[:])
	w.WriteUint16(uint16(h.ImageType))
	w.WriteUint16(h.ImageIndex)
	w.WriteUint16(h.ImageSeriesIndex)
	w.WriteInt32s(h.UserInt[:])
	w.WriteFloat32s(h.UserFloat[:])
	w.WriteUint32(h.AttributeStringLen)
	return w.Bytes()
}

// DecodeImageHeader decodes an ImageHeader. data must be exactly
// ImageHeaderSize bytes.
func DecodeImageHeader(data []byte) (ImageHeader, error) {
	var h ImageHeader
	if len(data) != ImageHeaderSize {
		return h, &FormatError{Field: "image_header", Expected: ImageHeaderSize, Actual: len(data)}
	}
	r := binpkg.NewReader(data, binpkg.DefaultConfig())
	h.Version = r.ReadUint16()
	h.DataType = DataType(r.ReadUint16())
	h.Flags = FlagSetFromRaw[ImageFlag](r.ReadUint64())
	h.MeasurementUID = r.ReadUint32()
	r.ReadUint16s(h.MatrixSize[:])
	r.ReadFloat32s(h.FieldOfView[:])
	h.Channels = r.ReadUint16()
	r.ReadFloat32s(h.Position[:])
	r.ReadFloat32s(h.ReadDir[:])
	r.ReadFloat32s(h.PhaseDir[:])
	r.ReadFloat32s(h.SliceDir[:])
	r.ReadFloat32s(h.PatientTablePosition[:])
	h.Average = r.ReadUint16()
	h.Slice = r.ReadUint16()
	h.Contrast = r.ReadUint16()
	h.Phase = r.ReadUint16()
	h.Repetition = r.ReadUint16()
	h.Set = r.ReadUint16()
	h.AcquisitionTimeStamp = r.ReadUint32()
	r.ReadUint32s(h.PhysiologyTimeStamp[:])
	h.ImageType = ImageType(r.ReadUint16())
	h.ImageIndex = r.ReadUint16()
	h.ImageSeriesIndex = r.ReadUint16()
	r.ReadInt32s(h.UserInt[:])
	r.ReadFloat32s(h.UserFloat[:])
	h.AttributeStringLen = r.ReadUint32()
	return h, r.Err()
}

// EncodeWaveformHeader returns the 32-byte little-endian encoding of h.
func EncodeWaveformHeader(h *WaveformHeader) []byte {
	w := binpkg.NewWriter(WaveformHeaderSize, binpkg.DefaultConfig())
	w.WriteUint16(h.Version)
	w.WriteUint64(h.Flags)
	w.WriteUint32(h.MeasurementUID)
	w.WriteUint32(h.ScanCounter)
	w.WriteUint32(h.TimeStamp)
	w.WriteUint16(h.NumberOfSamples)
	w.WriteUint16(h.Channels)
	w.WriteFloat32(h.SampleTimeUs)
	w.WriteUint16(h.WaveformID)
	return w.Bytes()
}

// DecodeWaveformHeader decodes a WaveformHeader. data must be exactly
// WaveformHeaderSize bytes.
func DecodeWaveformHeader(data []byte) (WaveformHeader, error) {
	var h WaveformHeader
	if len(data) != WaveformHeaderSize {
		return h, &FormatError{Field: "waveform_header", Expected: WaveformHeaderSize, Actual: len(data)}
	}
	r := binpkg.NewReader(data, binpkg.DefaultConfig())
	h.Version = r.ReadUint16()
	h.Flags = r.ReadUint64()
	h.MeasurementUID = r.ReadUint32()
	h.ScanCounter = r.ReadUint32()
	h.TimeStamp = r.ReadUint32()
	h.NumberOfSamples = r.ReadUint16()
	h.Channels = r.ReadUint16()
	h.SampleTimeUs = r.ReadFloat32()
	h.WaveformID = r.ReadUint16()
	return h, r.Err()
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h AcquisitionHeader) MarshalBinary() ([]byte, error) {
	return EncodeAcquisitionHeader(&h), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *AcquisitionHeader) UnmarshalBinary(data []byte) error {
	v, err := DecodeAcquisitionHeader(data)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h ImageHeader) MarshalBinary() ([]byte, error) {
	return EncodeImageHeader(&h), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *ImageHeader) UnmarshalBinary(data []byte) error {
	v, err := DecodeImageHeader(data)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h WaveformHeader) MarshalBinary() ([]byte, error) {
	return EncodeWaveformHeader(&h), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *WaveformHeader) UnmarshalBinary(data []byte) error {
	v, err := DecodeWaveformHeader(data)
	if err != nil {
		return err
	}
	*h = v
	return nil
}
