package ismrmrd

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var le = binary.LittleEndian

func sampleAcquisitionHeader() AcquisitionHeader {
	h := NewAcquisitionHeader()
	h.Flags.Set(AcqFirstInSlice)
	h.MeasurementUID = 0xdeadbeef
	h.ScanCounter = 7
	h.AcquisitionTimeStamp = 123456
	h.PhysiologyTimeStamp = [3]uint32{1, 2, 3}
	h.NumberOfSamples = 256
	h.AvailableChannels = 8
	h.ActiveChannels = 4
	h.ChannelMask.SetOn(0)
	h.ChannelMask.SetOn(900)
	h.DiscardPre = 3
	h.DiscardPost = 5
	h.CenterSample = 128
	h.EncodingSpaceRef = 1
	h.TrajectoryDimensions = 2
	h.SampleTimeUs = 2.5
	h.Position = [3]float32{1, 2, 3}
	h.ReadDir = [3]float32{1, 0, 0}
	h.PhaseDir = [3]float32{0, 1, 0}
	h.SliceDir = [3]float32{0, 0, 1}
	h.PatientTablePosition = [3]float32{0, 0, -100}
	h.Idx = EncodingCounters{
		KspaceEncodeStep1: 17,
		KspaceEncodeStep2: 2,
		Average:           1,
		Slice:             4,
		Contrast:          2,
		Phase:             6,
		Repetition:        9,
		Set:               1,
		Segment:           3,
		User:              [8]uint16{1, 2, 3, 4, 5, 6, 7, 8},
	}
	h.UserInt = [8]int32{-1, 2, -3, 4, -5, 6, -7, 8}
	h.UserFloat = [8]float32{0.5, 1.5, 2.5, 3.5, 4.5, 5.5, 6.5, 7.5}
	return h
}

func sampleImageHeader() ImageHeader {
	h := NewImageHeader(TypeFloat)
	h.Flags.Set(ImgUser1)
	h.MeasurementUID = 42
	h.MatrixSize = [3]uint16{4, 3, 2}
	h.FieldOfView = [3]float32{300, 300, 10}
	h.Channels = 1
	h.Position = [3]float32{1, 1, 1}
	h.ReadDir = [3]float32{1, 0, 0}
	h.PhaseDir = [3]float32{0, 1, 0}
	h.SliceDir = [3]float32{0, 0, 1}
	h.Average = 1
	h.Slice = 2
	h.Contrast = 3
	h.Phase = 4
	h.Repetition = 5
	h.Set = 6
	h.AcquisitionTimeStamp = 777
	h.PhysiologyTimeStamp = [3]uint32{9, 8, 7}
	h.ImageType = ImageMagnitude
	h.ImageIndex = 11
	h.ImageSeriesIndex = 12
	h.UserInt[7] = -9
	h.UserFloat[0] = 0.25
	h.AttributeStringLen = 5
	return h
}

func TestAcquisitionHeaderLayout(t *testing.T) {
	h := sampleAcquisitionHeader()
	b := EncodeAcquisitionHeader(&h)
	require.Len(t, b, AcquisitionHeaderSize)

	require.Equal(t, uint16(1), le.Uint16(b[0:]))
	require.Equal(t, uint64(1)<<6, le.Uint64(b[2:]))
	require.Equal(t, uint32(0xdeadbeef), le.Uint32(b[10:]))
	require.Equal(t, uint32(7), le.Uint32(b[14:]))
	require.Equal(t, uint32(3), le.Uint32(b[30:]))
	require.Equal(t, uint16(256), le.Uint16(b[34:]))
	require.Equal(t, uint16(8), le.Uint16(b[36:]))
	require.Equal(t, uint16(4), le.Uint16(b[38:]))
	require.Equal(t, uint64(1), le.Uint64(b[40:]))
	require.Equal(t, uint64(1)<<(900%64), le.Uint64(b[40+8*(900/64):]))
	require.Equal(t, uint16(3), le.Uint16(b[168:]))
	require.Equal(t, uint16(5), le.Uint16(b[170:]))
	require.Equal(t, uint16(128), le.Uint16(b[172:]))
	require.Equal(t, uint16(2), le.Uint16(b[176:]))
	require.Equal(t, float32(2.5), math.Float32frombits(le.Uint32(b[178:])))
	require.Equal(t, float32(1), math.Float32frombits(le.Uint32(b[182:])))
	require.Equal(t, float32(-100), math.Float32frombits(le.Uint32(b[238:])))
	require.Equal(t, uint16(17), le.Uint16(b[242:]))
	require.Equal(t, uint16(3), le.Uint16(b[258:]))
	require.Equal(t, uint16(8), le.Uint16(b[274:]))
	require.Equal(t, int32(-1), int32(le.Uint32(b[276:])))
	require.Equal(t, float32(7.5), math.Float32frombits(le.Uint32(b[336:])))

	got, err := DecodeAcquisitionHeader(b)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestImageHeaderLayout(t *testing.T) {
	h := sampleImageHeader()
	b := EncodeImageHeader(&h)
	require.Len(t, b, ImageHeaderSize)

	require.Equal(t, uint16(TypeFloat), le.Uint16(b[2:]))
	require.Equal(t, uint64(1)<<56, le.Uint64(b[4:]))
	require.Equal(t, uint32(42), le.Uint32(b[12:]))
	require.Equal(t, uint16(4), le.Uint16(b[16:]))
	require.Equal(t, uint16(2), le.Uint16(b[20:]))
	require.Equal(t, float32(300), math.Float32frombits(le.Uint32(b[22:])))
	require.Equal(t, uint16(1), le.Uint16(b[34:]))
	require.Equal(t, uint16(1), le.Uint16(b[96:]))
	require.Equal(t, uint16(6), le.Uint16(b[106:]))
	require.Equal(t, uint32(777), le.Uint32(b[108:]))
	require.Equal(t, uint16(ImageMagnitude), le.Uint16(b[124:]))
	require.Equal(t, uint16(12), le.Uint16(b[128:]))
	require.Equal(t, int32(-9), int32(le.Uint32(b[158:])))
	require.Equal(t, float32(0.25), math.Float32frombits(le.Uint32(b[162:])))
	require.Equal(t, uint32(5), le.Uint32(b[194:]))

	got, err := DecodeImageHeader(b)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestWaveformHeaderLayout(t *testing.T) {
	h := NewWaveformHeader()
	h.Flags = 0x8000000000000001
	h.MeasurementUID = 5
	h.ScanCounter = 6
	h.TimeStamp = 7
	h.NumberOfSamples = 100
	h.Channels = 3
	h.SampleTimeUs = 1.25
	h.WaveformID = 9

	b := EncodeWaveformHeader(&h)
	require.Len(t, b, WaveformHeaderSize)
	require.Equal(t, uint64(0x8000000000000001), le.Uint64(b[2:]))
	require.Equal(t, uint16(100), le.Uint16(b[22:]))
	require.Equal(t, uint16(3), le.Uint16(b[24:]))
	require.Equal(t, uint16(9), le.Uint16(b[30:]))

	got, err := DecodeWaveformHeader(b)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestDecodeWrongLength(t *testing.T) {
	_, err := DecodeAcquisitionHeader(make([]byte, AcquisitionHeaderSize-1))
	require.ErrorIs(t, err, ErrFormat)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, AcquisitionHeaderSize, fe.Expected)
	require.Equal(t, AcquisitionHeaderSize-1, fe.Actual)

	_, err = DecodeImageHeader(make([]byte, ImageHeaderSize+1))
	require.ErrorIs(t, err, ErrFormat)

	_, err = DecodeWaveformHeader(nil)
	require.ErrorIs(t, err, ErrFormat)
}

func TestMarshalBinary(t *testing.T) {
	h := sampleAcquisitionHeader()
	b, err := h.MarshalBinary()
	require.NoError(t, err)

	var got AcquisitionHeader
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, h, got)
	require.Error(t, got.UnmarshalBinary(b[:10]))

	ih := sampleImageHeader()
	b, err = ih.MarshalBinary()
	require.NoError(t, err)
	var gotImg ImageHeader
	require.NoError(t, gotImg.UnmarshalBinary(b))
	require.Equal(t, ih, gotImg)
}

func TestVersionIsStoredVerbatim(t *testing.T) {
	h := NewAcquisitionHeader()
	h.Version = 2
	got, err := DecodeAcquisitionHeader(EncodeAcquisitionHeader(&h))
	require.NoError(t, err)
	require.Equal(t, uint16(2), got.Version)
	require.ErrorIs(t, got.CheckVersion(), ErrFormat)

	h.Version = Version
	require.NoError(t, h.CheckVersion())
}

func TestAcquisitionHeaderValidate(t *testing.T) {
	h := NewAcquisitionHeader()
	h.NumberOfSamples = 10
	h.AvailableChannels = 2
	h.ActiveChannels = 2
	h.DiscardPre = 4
	h.DiscardPost = 6
	require.NoError(t, h.Validate())

	h.ActiveChannels = 3
	var sm *SizeMismatchError
	require.ErrorAs(t, h.Validate(), &sm)
	require.Equal(t, "active_channels", sm.Field)

	h.ActiveChannels = 1
	h.DiscardPost = 7
	require.ErrorIs(t, h.Validate(), ErrSizeMismatch)
}
