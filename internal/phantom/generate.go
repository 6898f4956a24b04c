package phantom

import (
	"encoding/xml"
	"fmt"
	"math/rand/v2"

	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

// Options controls the synthetic acquisition.
type Options struct {
	Matrix           int     `yaml:"matrix"`
	Coils            int     `yaml:"coils"`
	Oversampling     int     `yaml:"oversampling"`
	Repetitions      int     `yaml:"repetitions"`
	Acceleration     int     `yaml:"acceleration"`
	NoiseLevel       float64 `yaml:"noiseLevel"`
	NoiseCalibration bool    `yaml:"noiseCalibration"`
	Trajectory       bool    `yaml:"trajectory"`
	Seed             uint64  `yaml:"seed"`
}

// DefaultOptions returns a 256 matrix, 8 coil, 2x oversampled acquisition.
func DefaultOptions() Options {
	return Options{
		Matrix:       256,
		Coils:        8,
		Oversampling: 2,
		Repetitions:  1,
		Acceleration: 1,
		NoiseLevel:   0.05,
		Seed:         1,
	}
}

// Validate checks that every size is positive and the matrix is even.
func (o Options) Validate() error {
	switch {
	case o.Matrix < 2 || o.Matrix%2 != 0:
		return fmt.Errorf("matrix size %d must be even and at least 2", o.Matrix)
	case o.Coils < 1 || o.Coils > ismrmrd.MaxChannels:
		return fmt.Errorf("coil count %d out of range", o.Coils)
	case o.Oversampling < 1:
		return fmt.Errorf("oversampling %d must be positive", o.Oversampling)
	case o.Repetitions < 1:
		return fmt.Errorf("repetitions %d must be positive", o.Repetitions)
	case o.Acceleration < 1 || o.Acceleration > o.Matrix:
		return fmt.Errorf("acceleration %d out of range", o.Acceleration)
	case o.NoiseLevel < 0:
		return fmt.Errorf("noise level %g must not be negative", o.NoiseLevel)
	case o.Matrix*o.Oversampling > 0xffff:
		return fmt.Errorf("readout length %d does not fit a header", o.Matrix*o.Oversampling)
	}
	return nil
}

// Readout returns the number of samples per acquisition.
func (o Options) Readout() int {
	return o.Matrix * o.Oversampling
}

// Generate stores the XML header in d, appends the phantom acquisitions,
// then stores the arrays "phantom", "csm" and "coil_images". It returns the
// number of acquisitions written. Datasets opened with an encoding check
// validate each acquisition against the header written first.
func Generate(d *ismrmrd.Dataset, o Options) (int, error) {
	if err := o.Validate(); err != nil {
		return 0, err
	}
	n, ncoils, readout := o.Matrix, o.Coils, o.Readout()
	rng := rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))

	blob, err := HeaderXML(o)
	if err != nil {
		return 0, err
	}
	if err := d.SetHeaderBlob(blob); err != nil {
		return 0, err
	}

	img := Image(SheppLogan(), n)
	csm := Birdcage(n, ncoils, 1.5)

	// Coil images padded to the oversampled readout.
	coilImages := make([]complex128, readout*n*ncoils)
	pad := (readout - n) / 2
	for c := 0; c < ncoils; c++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				coilImages[c*readout*n+y*readout+x+pad] = img[y*n+x] * csm[c*n*n+y*n+x]
			}
		}
	}

	head := ismrmrd.NewAcquisitionHeader()
	head.NumberOfSamples = uint16(readout)
	head.AvailableChannels = uint16(ncoils)
	head.ActiveChannels = uint16(ncoils)
	head.CenterSample = uint16(readout / 2)
	head.SampleTimeUs = 5
	for c := 0; c < ncoils; c++ {
		head.ChannelMask.SetOn(c)
	}
	head.ReadDir = [3]float32{1, 0, 0}
	head.PhaseDir = [3]float32{0, 1, 0}
	head.SliceDir = [3]float32{0, 0, 1}

	written := 0
	if o.NoiseCalibration {
		noise := make([]complex128, readout*ncoils)
		AddNoise(noise, o.NoiseLevel, rng)
		nh := head
		nh.Flags.Set(ismrmrd.AcqIsNoiseMeasurement)
		acq, err := ismrmrd.NewAcquisition(nh, nil, toComplex64(noise))
		if err != nil {
			return written, err
		}
		if _, err := d.AppendAcquisition(acq); err != nil {
			return written, err
		}
		written++
	}

	if o.Trajectory {
		head.TrajectoryDimensions = 2
	}

	kspace := make([]complex128, len(coilImages))
	for r := 0; r < o.Repetitions; r++ {
		for a := 0; a < o.Acceleration; a++ {
			copy(kspace, coilImages)
			FFT2c(kspace, readout, n)
			AddNoise(kspace, o.NoiseLevel, rng)

			for line := a; line < n; line += o.Acceleration {
				h := head
				if line == a {
					h.Flags.Set(ismrmrd.AcqFirstInSlice)
				}
				if line >= n-o.Acceleration {
					h.Flags.Set(ismrmrd.AcqLastInSlice)
				}
				h.ScanCounter = uint32(written)
				h.Idx.KspaceEncodeStep1 = uint16(line)
				h.Idx.Repetition = uint16(r*o.Acceleration + a)

				data := make([]complex64, readout*ncoils)
				for c := 0; c < ncoils; c++ {
					for s := 0; s < readout; s++ {
						data[c*readout+s] = complex64(kspace[c*readout*n+line*readout+s])
					}
				}

				var traj []float32
				if o.Trajectory {
					traj = make([]float32, 2*readout)
					ky := float32(line-n/2) / float32(n)
					for s := 0; s < readout; s++ {
						traj[2*s] = float32(s-readout/2) / float32(readout)
						traj[2*s+1] = ky
					}
				}

				acq, err := ismrmrd.NewAcquisition(h, traj, data)
				if err != nil {
					return written, err
				}
				if _, err := d.AppendAcquisition(acq); err != nil {
					return written, err
				}
				written++
			}
		}
	}

	arrays := []struct {
		name string
		data []complex128
		dims []uint64
	}{
		{"phantom", img, []uint64{uint64(n), uint64(n)}},
		{"csm", csm, []uint64{uint64(n), uint64(n), uint64(ncoils)}},
		{"coil_images", coilImages, []uint64{uint64(readout), uint64(n), uint64(ncoils)}},
	}
	for _, a := range arrays {
		arr := &ismrmrd.NDArray{
			Version:  ismrmrd.Version,
			DataType: ismrmrd.TypeCxFloat,
			Dims:     a.dims,
			Data:     toComplex64(a.data),
		}
		if err := d.AppendArray(a.name, arr); err != nil {
			return written, err
		}
	}
	return written, nil
}

func toComplex64(v []complex128) []complex64 {
	out := make([]complex64, len(v))
	for i, x := range v {
		out[i] = complex64(x)
	}
	return out
}

type xmlHeader struct {
	XMLName    xml.Name  `xml:"ismrmrdHeader"`
	Xmlns      string    `xml:"xmlns,attr"`
	Version    int       `xml:"version"`
	Conditions struct {
		Frequency int64 `xml:"H1resonanceFrequency_Hz"`
	} `xml:"experimentalConditions"`
	System struct {
		Institution      string `xml:"institutionName"`
		ReceiverChannels int    `xml:"receiverChannels"`
	} `xml:"acquisitionSystemInformation"`
	Encoding xmlEncoding `xml:"encoding"`
}

type xmlSpace struct {
	Matrix struct {
		X int `xml:"x"`
		Y int `xml:"y"`
		Z int `xml:"z"`
	} `xml:"matrixSize"`
	FOV struct {
		X float64 `xml:"x"`
		Y float64 `xml:"y"`
		Z float64 `xml:"z"`
	} `xml:"fieldOfView_mm"`
}

type xmlLimit struct {
	Minimum int `xml:"minimum"`
	Maximum int `xml:"maximum"`
	Center  int `xml:"center"`
}

type xmlEncoding struct {
	EncodedSpace xmlSpace `xml:"encodedSpace"`
	ReconSpace   xmlSpace `xml:"reconSpace"`
	Limits       struct {
		Step1      xmlLimit `xml:"kspace_encoding_step_1"`
		Repetition xmlLimit `xml:"repetition"`
	} `xml:"encodingLimits"`
	Trajectory string       `xml:"trajectory"`
	Parallel   *xmlParallel `xml:"parallelImaging,omitempty"`
}

type xmlParallel struct {
	Step1       int    `xml:"accelerationFactor>kspace_encoding_step_1"`
	Step2       int    `xml:"accelerationFactor>kspace_encoding_step_2"`
	Calibration string `xml:"calibrationMode"`
}

// HeaderXML describes the acquisition written by Generate.
func HeaderXML(o Options) (string, error) {
	var h xmlHeader
	h.Xmlns = "http://www.ismrm.org/ISMRMRD"
	h.Version = 1
	h.Conditions.Frequency = 63500000
	h.System.Institution = "ISMRM Synthetic Imaging Lab"
	h.System.ReceiverChannels = o.Coils

	e := &h.Encoding
	e.EncodedSpace.Matrix.X = o.Readout()
	e.EncodedSpace.Matrix.Y = o.Matrix
	e.EncodedSpace.Matrix.Z = 1
	e.EncodedSpace.FOV.X, e.EncodedSpace.FOV.Y, e.EncodedSpace.FOV.Z = 600, 300, 6
	e.ReconSpace.Matrix.X = o.Matrix
	e.ReconSpace.Matrix.Y = o.Matrix
	e.ReconSpace.Matrix.Z = 1
	e.ReconSpace.FOV.X, e.ReconSpace.FOV.Y, e.ReconSpace.FOV.Z = 300, 300, 6
	e.Limits.Step1 = xmlLimit{Minimum: 0, Maximum: o.Matrix - 1, Center: o.Matrix / 2}
	e.Limits.Repetition = xmlLimit{Minimum: 0, Maximum: o.Repetitions*o.Acceleration - 1}
	e.Trajectory = "cartesian"
	if o.Acceleration > 1 {
		e.Parallel = &xmlParallel{Step1: o.Acceleration, Step2: 1, Calibration: "interleaved"}
	}

	out, err := xml.MarshalIndent(h, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding header: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}
