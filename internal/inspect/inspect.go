// Package inspect summarizes the contents of a dataset for the command
// line tool.
package inspect

import (
	"errors"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

// ChannelStat holds magnitude statistics of one receiver channel.
type ChannelStat struct {
	Channel int
	Samples int
	Mean    float64
	StdDev  float64
	Max     float64
}

// Summary describes the records of one dataset.
type Summary struct {
	Records uint64
	Kinds   map[ismrmrd.Kind]int

	// Acquisitions flagged as noise measurements are kept apart from the
	// imaging data.
	NoiseScans int
	Channels   []ChannelStat
	Noise      []ChannelStat

	// MinStep1 and MaxStep1 bound kspace_encode_step_1 over imaging
	// acquisitions. Both are zero when there are none.
	MinStep1, MaxStep1 uint16
}

// Summarize reads every record of d once.
func Summarize(d *ismrmrd.Dataset) (*Summary, error) {
	s := &Summary{Kinds: make(map[ismrmrd.Kind]int)}
	var signal, noise [][]float64
	first := true

	err := d.Records(func(i uint64, rec ismrmrd.Record) error {
		s.Records++
		s.Kinds[rec.Kind()]++
		acq, ok := rec.(*ismrmrd.Acquisition)
		if !ok {
			return nil
		}
		h := acq.Head()
		if h.Flags.IsSet(ismrmrd.AcqIsNoiseMeasurement) {
			s.NoiseScans++
			noise = collect(noise, acq)
			return nil
		}
		step := h.Idx.KspaceEncodeStep1
		if first || step < s.MinStep1 {
			s.MinStep1 = step
		}
		if first || step > s.MaxStep1 {
			s.MaxStep1 = step
		}
		first = false
		signal = collect(signal, acq)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("summarizing %s: %w", d.Path(), err)
	}

	s.Channels = channelStats(signal)
	s.Noise = channelStats(noise)
	return s, nil
}

// collect appends the sample magnitudes of acq to per channel buckets.
func collect(dst [][]float64, acq *ismrmrd.Acquisition) [][]float64 {
	h := acq.Head()
	nc, ns := int(h.ActiveChannels), int(h.NumberOfSamples)
	for len(dst) < nc {
		dst = append(dst, nil)
	}
	for c := 0; c < nc; c++ {
		for n := 0; n < ns; n++ {
			dst[c] = append(dst[c], cmplx.Abs(complex128(acq.At(n, c))))
		}
	}
	return dst
}

func channelStats(mags [][]float64) []ChannelStat {
	out := make([]ChannelStat, 0, len(mags))
	for c, x := range mags {
		cs := ChannelStat{Channel: c, Samples: len(x)}
		switch len(x) {
		case 0:
		case 1:
			// MeanStdDev divides by n-1.
			cs.Mean, cs.Max = x[0], x[0]
		default:
			cs.Mean, cs.StdDev = stat.MeanStdDev(x, nil)
			cs.Max = floats.Max(x)
		}
		out = append(out, cs)
	}
	return out
}

// ErrNoNoise is returned by NoiseLevel when a dataset holds no
// noise measurement.
var ErrNoNoise = errors.New("no noise acquisitions")

// NoiseLevel returns the standard deviation of the real and imaginary parts
// of all noise measurement samples pooled across channels.
func NoiseLevel(d *ismrmrd.Dataset) (float64, error) {
	var parts []float64
	err := d.Records(func(i uint64, rec ismrmrd.Record) error {
		acq, ok := rec.(*ismrmrd.Acquisition)
		if !ok || !acq.Head().Flags.IsSet(ismrmrd.AcqIsNoiseMeasurement) {
			return nil
		}
		for _, v := range acq.Data() {
			parts = append(parts, float64(real(v)), float64(imag(v)))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(parts) < 2 {
		return 0, ErrNoNoise
	}
	return stat.StdDev(parts, nil), nil
}
