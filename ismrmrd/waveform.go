package ismrmrd

// WaveformHeaderSize is the encoded size of a WaveformHeader.
const WaveformHeaderSize = 32

// WaveformHeader describes a block of physiological or gradient samples.
type WaveformHeader struct {
	Version         uint16
	Flags           uint64
	MeasurementUID  uint32
	ScanCounter     uint32
	TimeStamp       uint32
	NumberOfSamples uint16
	Channels        uint16
	SampleTimeUs    float32
	WaveformID      uint16
}

// NewWaveformHeader returns a header with only the version set.
func NewWaveformHeader() WaveformHeader {
	return WaveformHeader{Version: Version}
}

// DataElements returns the number of samples the header implies.
func (h *WaveformHeader) DataElements() uint64 {
	return uint64(h.NumberOfSamples) * uint64(h.Channels)
}

// CheckVersion reports a header written by a different format version.
func (h *WaveformHeader) CheckVersion() error {
	return checkVersion("waveform", h.Version)
}
