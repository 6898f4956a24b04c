package ismrmrd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAcquisition(t *testing.T, samples, channels, trajDims uint16) *Acquisition {
	t.Helper()
	h := NewAcquisitionHeader()
	h.NumberOfSamples = samples
	h.AvailableChannels = channels
	h.ActiveChannels = channels
	h.TrajectoryDimensions = trajDims

	traj := make([]float32, int(samples)*int(trajDims))
	for i := range traj {
		traj[i] = float32(i) / 2
	}
	data := make([]complex64, int(samples)*int(channels))
	for i := range data {
		data[i] = complex(float32(i), -float32(i))
	}
	acq, err := NewAcquisition(h, traj, data)
	require.NoError(t, err)
	return acq
}

func TestNewAcquisitionSizes(t *testing.T) {
	h := NewAcquisitionHeader()
	h.NumberOfSamples = 4
	h.AvailableChannels = 2
	h.ActiveChannels = 2
	h.TrajectoryDimensions = 5

	_, err := NewAcquisition(h, make([]float32, 20), make([]complex64, 8))
	require.NoError(t, err)

	_, err = NewAcquisition(h, make([]float32, 19), make([]complex64, 8))
	var sm *SizeMismatchError
	require.ErrorAs(t, err, &sm)
	require.Equal(t, "traj", sm.Field)
	require.Equal(t, uint64(20), sm.Expected)
	require.Equal(t, uint64(19), sm.Actual)

	_, err = NewAcquisition(h, make([]float32, 21), make([]complex64, 8))
	require.ErrorAs(t, err, &sm)
	require.Equal(t, "traj", sm.Field)
	require.Equal(t, uint64(21), sm.Actual)

	_, err = NewAcquisition(h, make([]float32, 20), make([]complex64, 7))
	require.ErrorAs(t, err, &sm)
	require.Equal(t, "data", sm.Field)

	_, err = NewAcquisition(h, make([]float32, 20), make([]complex64, 9))
	require.ErrorAs(t, err, &sm)
	require.Equal(t, "data", sm.Field)
	require.Equal(t, uint64(8), sm.Expected)
	require.Equal(t, uint64(9), sm.Actual)

	h.ActiveChannels = 3
	_, err = NewAcquisition(h, make([]float32, 20), make([]complex64, 12))
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestAcquisitionAccessors(t *testing.T) {
	acq := newTestAcquisition(t, 8, 3, 2)
	require.Equal(t, KindAcquisition, acq.Kind())

	// data[c*samples+s]
	require.Equal(t, complex64(complex(float32(2*8+5), -float32(2*8+5))), acq.At(5, 2))
	// traj[s*dims+d]
	require.Equal(t, float32(3*2+1)/2, acq.TrajAt(1, 3))

	data := acq.Data()
	data[0] = 99
	require.Equal(t, complex64(0), acq.At(0, 0))
}

func TestAcquisitionDetachAndReplace(t *testing.T) {
	acq := newTestAcquisition(t, 4, 2, 0)

	bad := acq.Head()
	bad.NumberOfSamples = 5
	err := acq.Replace(bad, nil, make([]complex64, 8))
	require.ErrorIs(t, err, ErrSizeMismatch)
	require.Equal(t, uint16(4), acq.Head().NumberOfSamples)

	head := acq.Head()
	head.Flags.Set(AcqLastInSlice)
	require.NoError(t, acq.Replace(head, nil, make([]complex64, 8)))
	require.True(t, acq.Head().Flags.IsSet(AcqLastInSlice))

	h, traj, data := acq.Detach()
	require.Equal(t, head, h)
	require.Nil(t, traj)
	require.Len(t, data, 8)
	require.Equal(t, AcquisitionHeader{}, acq.Head())
	require.Nil(t, acq.Data())
}

func TestNewImage(t *testing.T) {
	h := NewImageHeader(TypeUShort)
	h.MatrixSize = [3]uint16{2, 2, 1}
	h.Channels = 2

	img, err := NewImage(h, "<meta/>", make([]uint16, 8))
	require.NoError(t, err)
	require.Equal(t, uint32(7), img.Head().AttributeStringLen)
	require.Equal(t, uint64(8), img.NumberOfElements())
	require.Equal(t, "<meta/>", img.Attributes())

	_, err = NewImage(h, "", make([]uint16, 7))
	require.ErrorIs(t, err, ErrSizeMismatch)

	_, err = NewImage(h, "", make([]float32, 8))
	require.ErrorIs(t, err, ErrFormat)

	_, err = NewImage(h, "", nil)
	require.ErrorIs(t, err, ErrSizeMismatch)

	h.DataType = 99
	_, err = NewImage(h, "", make([]uint16, 8))
	require.ErrorIs(t, err, ErrFormat)
}

func TestImageReplaceKeepsStateOnError(t *testing.T) {
	h := NewImageHeader(TypeCxFloat)
	h.MatrixSize = [3]uint16{2, 1, 1}
	h.Channels = 1
	img, err := NewImage(h, "a", []complex64{1, 2i})
	require.NoError(t, err)

	require.Error(t, img.Replace(h, "b", []complex64{1}))
	require.Equal(t, "a", img.Attributes())
	require.Equal(t, []complex64{1, 2i}, img.Data())

	require.NoError(t, img.Replace(h, "bc", []complex64{3, 4}))
	require.Equal(t, uint32(2), img.Head().AttributeStringLen)

	_, attrs, data := img.Detach()
	require.Equal(t, "bc", attrs)
	require.Equal(t, []complex64{3, 4}, data)
	require.Nil(t, img.Data())
}

func TestNewWaveform(t *testing.T) {
	h := NewWaveformHeader()
	h.NumberOfSamples = 3
	h.Channels = 2
	w, err := NewWaveform(h, []uint32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	require.Equal(t, uint32(5), w.At(1, 1))

	_, err = NewWaveform(h, []uint32{1})
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecodeRecordPayloadLength(t *testing.T) {
	acq := newTestAcquisition(t, 4, 1, 1)
	payload, _ := acq.encodePayload()
	_, err := decodeRecord(KindAcquisition, acq.encodeHeader(), payload[:len(payload)-1])
	require.ErrorIs(t, err, ErrFormat)

	_, err = decodeRecord(Kind(9), acq.encodeHeader(), payload)
	require.ErrorIs(t, err, ErrFormat)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "acquisition", KindAcquisition.String())
	require.Equal(t, "image", KindImage.String())
	require.Equal(t, "waveform", KindWaveform.String())
	require.Equal(t, "kind(1)", Kind(1).String())
}
