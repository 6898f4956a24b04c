package inspect

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ismrmrd/internal/phantom"
	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

func newDataset(t *testing.T) *ismrmrd.Dataset {
	t.Helper()
	f, err := ismrmrd.Create(filepath.Join(t.TempDir(), "inspect.mrd"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	d, err := f.CreateDataset(ismrmrd.DefaultPath, false)
	require.NoError(t, err)
	return d
}

func acquisition(t *testing.T, step uint16, noise bool, data []complex64) *ismrmrd.Acquisition {
	t.Helper()
	h := ismrmrd.NewAcquisitionHeader()
	h.NumberOfSamples = 2
	h.AvailableChannels = 2
	h.ActiveChannels = 2
	h.Idx.KspaceEncodeStep1 = step
	if noise {
		h.Flags.Set(ismrmrd.AcqIsNoiseMeasurement)
	}
	acq, err := ismrmrd.NewAcquisition(h, nil, data)
	require.NoError(t, err)
	return acq
}

func TestSummarize(t *testing.T) {
	d := newDataset(t)

	// Channel 0 magnitudes are 3, 5, 5, 3 and channel 1 is all ones.
	_, err := d.AppendAcquisition(acquisition(t, 4, false, []complex64{3, 5i, 1, -1}))
	require.NoError(t, err)
	_, err = d.AppendAcquisition(acquisition(t, 2, false, []complex64{complex(3, 4), 3, 1i, 1}))
	require.NoError(t, err)
	_, err = d.AppendAcquisition(acquisition(t, 0, true, []complex64{100, 100, 100, 100}))
	require.NoError(t, err)

	w, err := ismrmrd.NewWaveform(ismrmrd.WaveformHeader{Version: ismrmrd.Version, NumberOfSamples: 1, Channels: 1}, []uint32{7})
	require.NoError(t, err)
	_, err = d.AppendWaveform(w)
	require.NoError(t, err)

	s, err := Summarize(d)
	require.NoError(t, err)
	require.Equal(t, uint64(4), s.Records)
	require.Equal(t, 3, s.Kinds[ismrmrd.KindAcquisition])
	require.Equal(t, 1, s.Kinds[ismrmrd.KindWaveform])
	require.Equal(t, 1, s.NoiseScans)
	require.Equal(t, uint16(2), s.MinStep1)
	require.Equal(t, uint16(4), s.MaxStep1)

	require.Len(t, s.Channels, 2)
	c0 := s.Channels[0]
	require.Equal(t, 4, c0.Samples)
	require.InDelta(t, 4.0, c0.Mean, 1e-6)
	require.InDelta(t, 5.0, c0.Max, 1e-6)
	require.Greater(t, c0.StdDev, 0.0)

	c1 := s.Channels[1]
	require.InDelta(t, 1.0, c1.Mean, 1e-6)
	require.InDelta(t, 0.0, c1.StdDev, 1e-6)

	require.Len(t, s.Noise, 2)
	require.InDelta(t, 100.0, s.Noise[0].Mean, 1e-6)
}

func TestSummarizeSingleSample(t *testing.T) {
	d := newDataset(t)
	h := ismrmrd.NewAcquisitionHeader()
	h.NumberOfSamples = 1
	h.AvailableChannels = 1
	h.ActiveChannels = 1
	acq, err := ismrmrd.NewAcquisition(h, nil, []complex64{complex(3, 4)})
	require.NoError(t, err)
	_, err = d.AppendAcquisition(acq)
	require.NoError(t, err)

	s, err := Summarize(d)
	require.NoError(t, err)
	require.Len(t, s.Channels, 1)
	c := s.Channels[0]
	require.Equal(t, 1, c.Samples)
	require.InDelta(t, 5.0, c.Mean, 1e-6)
	require.InDelta(t, 5.0, c.Max, 1e-6)
	require.Zero(t, c.StdDev)
	require.False(t, math.IsNaN(c.StdDev))
}

func TestSummarizeEmpty(t *testing.T) {
	s, err := Summarize(newDataset(t))
	require.NoError(t, err)
	require.Zero(t, s.Records)
	require.Empty(t, s.Channels)
	require.Empty(t, s.Noise)
}

func TestNoiseLevel(t *testing.T) {
	d := newDataset(t)
	_, err := NoiseLevel(d)
	require.ErrorIs(t, err, ErrNoNoise)

	o := phantom.DefaultOptions()
	o.Matrix = 32
	o.Coils = 4
	o.NoiseLevel = 0.5
	o.NoiseCalibration = true
	_, err = phantom.Generate(d, o)
	require.NoError(t, err)

	sd, err := NoiseLevel(d)
	require.NoError(t, err)
	require.InDelta(t, 0.5, sd, 0.05)

	s, err := Summarize(d)
	require.NoError(t, err)
	require.Equal(t, 1, s.NoiseScans)
	require.Len(t, s.Channels, 4)
	require.Equal(t, uint16(31), s.MaxStep1)
}
