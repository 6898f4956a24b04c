package phantom

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ismrmrd/internal/xmlview"
	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

func TestEllipseInside(t *testing.T) {
	e := Ellipse{Amplitude: 1, A: 0.5, B: 0.25}
	require.True(t, e.Inside(0, 0))
	require.True(t, e.Inside(0.49, 0))
	require.False(t, e.Inside(0, 0.3))

	rotated := Ellipse{Amplitude: 1, A: 0.5, B: 0.25, PhiDeg: 90}
	require.True(t, rotated.Inside(0, 0.45))
	require.False(t, rotated.Inside(0.45, 0))
}

func TestImage(t *testing.T) {
	img := Image(SheppLogan(), 64)
	require.Len(t, img, 64*64)
	// Outside the skull.
	require.Equal(t, complex128(0), img[0])
	// Center: outer ellipse plus brain.
	require.InDelta(t, 0.2, real(img[32*64+32]), 1e-9)
}

func TestFFT2cRoundtrip(t *testing.T) {
	const nx, ny = 8, 6
	rng := rand.New(rand.NewPCG(3, 4))
	data := make([]complex128, 2*nx*ny)
	for i := range data {
		data[i] = complex(rng.Float64(), rng.Float64())
	}
	orig := append([]complex128(nil), data...)

	FFT2c(data, nx, ny)
	IFFT2c(data, nx, ny)
	for i := range data {
		require.InDelta(t, 0, cmplx.Abs(data[i]-orig[i]), 1e-12)
	}
}

func TestFFT2cConstantIsCentered(t *testing.T) {
	const n = 8
	data := make([]complex128, n*n)
	for i := range data {
		data[i] = 1
	}
	FFT2c(data, n, n)
	center := (n/2)*n + n/2
	require.InDelta(t, n, real(data[center]), 1e-12)
	for i, v := range data {
		if i != center {
			require.InDelta(t, 0, cmplx.Abs(v), 1e-12)
		}
	}
}

func TestBirdcage(t *testing.T) {
	csm := Birdcage(16, 4, 1.5)
	require.Len(t, csm, 4*16*16)
	for _, v := range csm {
		require.False(t, cmplx.IsInf(v) || cmplx.IsNaN(v))
	}
	// Coil 0 sits at +x, so its right edge is brighter than its left.
	require.Greater(t, cmplx.Abs(csm[8*16+15]), cmplx.Abs(csm[8*16]))
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	o := DefaultOptions()
	o.Matrix = 7
	require.Error(t, o.Validate())

	o = DefaultOptions()
	o.Acceleration = 0
	require.Error(t, o.Validate())

	o = DefaultOptions()
	o.Matrix = 1 << 14
	o.Oversampling = 8
	require.Error(t, o.Validate())
}

func TestGenerate(t *testing.T) {
	f, err := ismrmrd.Create(filepath.Join(t.TempDir(), "phantom.mrd"))
	require.NoError(t, err)
	defer f.Close()
	d, err := f.CreateDataset(ismrmrd.DefaultPath, false)
	require.NoError(t, err)

	o := DefaultOptions()
	o.Matrix = 16
	o.Coils = 4
	o.Acceleration = 2
	o.NoiseCalibration = true
	o.Trajectory = true

	n, err := Generate(d, o)
	require.NoError(t, err)
	require.Equal(t, 1+16, n)

	count, err := d.RecordCount()
	require.NoError(t, err)
	require.Equal(t, uint64(n), count)

	noise, err := d.ReadAcquisition(0)
	require.NoError(t, err)
	require.True(t, noise.Head().Flags.IsSet(ismrmrd.AcqIsNoiseMeasurement))
	require.Zero(t, noise.Head().TrajectoryDimensions)

	first, err := d.ReadAcquisition(1)
	require.NoError(t, err)
	h := first.Head()
	require.True(t, h.Flags.IsSet(ismrmrd.AcqFirstInSlice))
	require.Equal(t, uint16(32), h.NumberOfSamples)
	require.Equal(t, uint16(4), h.ActiveChannels)
	require.Equal(t, uint16(16), h.CenterSample)
	require.Equal(t, uint16(2), h.TrajectoryDimensions)
	require.Equal(t, 4, h.ChannelMask.Count())
	require.InDelta(t, -0.5, first.TrajAt(0, 0), 1e-6)
	require.InDelta(t, -0.5, first.TrajAt(1, 0), 1e-6)

	last, err := d.ReadAcquisition(8)
	require.NoError(t, err)
	require.True(t, last.Head().Flags.IsSet(ismrmrd.AcqLastInSlice))
	require.Equal(t, uint16(14), last.Head().Idx.KspaceEncodeStep1)

	second, err := d.ReadAcquisition(9)
	require.NoError(t, err)
	require.True(t, second.Head().Flags.IsSet(ismrmrd.AcqFirstInSlice))
	require.Equal(t, uint16(1), second.Head().Idx.KspaceEncodeStep1)
	require.Equal(t, uint16(1), second.Head().Idx.Repetition)

	blob, err := d.HeaderBlob()
	require.NoError(t, err)
	v := xmlview.Parse(blob)
	ch, ok := v.ChannelCount()
	require.True(t, ok)
	require.Equal(t, 4, ch)
	budget, ok := v.SampleBudget()
	require.True(t, ok)
	require.Equal(t, 32, budget)
	require.Contains(t, blob, "<calibrationMode>interleaved</calibrationMode>")

	names, err := d.ArrayNames()
	require.NoError(t, err)
	require.Equal(t, []string{"coil_images", "csm", "phantom"}, names)

	csm, err := d.ReadArray("csm")
	require.NoError(t, err)
	require.Equal(t, []uint64{16, 16, 4}, csm.Dims)
	require.Equal(t, ismrmrd.TypeCxFloat, csm.DataType)
}

func TestGenerateIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	o := DefaultOptions()
	o.Matrix = 8
	o.Coils = 2

	read := func(name string) []complex64 {
		f, err := ismrmrd.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		defer f.Close()
		d, err := f.CreateDataset(ismrmrd.DefaultPath, false)
		require.NoError(t, err)
		_, err = Generate(d, o)
		require.NoError(t, err)
		acq, err := d.ReadAcquisition(3)
		require.NoError(t, err)
		return acq.Data()
	}
	a, b := read("a.mrd"), read("b.mrd")
	require.Equal(t, a, b)
	require.False(t, math.IsNaN(float64(real(a[0]))))
}

func TestGenerateWithEncodingCheck(t *testing.T) {
	f, err := ismrmrd.Create(filepath.Join(t.TempDir(), "checked.mrd"))
	require.NoError(t, err)
	defer f.Close()
	d, err := f.CreateDataset(ismrmrd.DefaultPath, false, ismrmrd.WithEncodingCheck())
	require.NoError(t, err)

	o := DefaultOptions()
	o.Matrix = 8
	o.Coils = 2
	o.NoiseCalibration = true
	n, err := Generate(d, o)
	require.NoError(t, err)

	count, err := d.RecordCount()
	require.NoError(t, err)
	require.Equal(t, uint64(n), count)

	// The header written by Generate is in force for later appends.
	h := ismrmrd.NewAcquisitionHeader()
	h.NumberOfSamples = uint16(o.Readout())
	h.AvailableChannels = 3
	h.ActiveChannels = 3
	acq, err := ismrmrd.NewAcquisition(h, nil, make([]complex64, 3*o.Readout()))
	require.NoError(t, err)
	_, err = d.AppendAcquisition(acq)
	require.ErrorIs(t, err, ismrmrd.ErrSizeMismatch)
}

func TestGenerateStopsWhenHeaderFails(t *testing.T) {
	name := filepath.Join(t.TempDir(), "ro.mrd")
	f, err := ismrmrd.Create(name)
	require.NoError(t, err)
	_, err = f.CreateDataset(ismrmrd.DefaultPath, false)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	d, err := ismrmrd.OpenDataset(name, ismrmrd.DefaultPath, ismrmrd.ReadOnly)
	require.NoError(t, err)
	defer d.Close()

	n, err := Generate(d, DefaultOptions())
	require.ErrorIs(t, err, ismrmrd.ErrReadOnly)
	require.Zero(t, n)

	_, err = d.HeaderBlob()
	require.ErrorIs(t, err, ismrmrd.ErrNotFound)
}
