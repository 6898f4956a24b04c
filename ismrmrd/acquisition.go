package ismrmrd

import "fmt"

// Version is the record format version written by this package.
const Version uint16 = 1

// Fixed-size array lengths of the header layouts.
const (
	PositionLength      = 3
	DirectionLength     = 3
	PhysiologyStamps    = 3
	UserIntegers        = 8
	UserFloats          = 8
	UserEncodingIndices = 8
	ChannelMaskWords    = 16
)

// AcquisitionHeaderSize is the encoded size of an AcquisitionHeader.
const AcquisitionHeaderSize = 340

// EncodingCounters locates an acquisition in the encoding space.
type EncodingCounters struct {
	KspaceEncodeStep1 uint16
	KspaceEncodeStep2 uint16
	Average           uint16
	Slice             uint16
	Contrast          uint16
	Phase             uint16
	Repetition        uint16
	Set               uint16
	Segment           uint16
	User              [UserEncodingIndices]uint16
}

// AcquisitionHeader describes one readout.
type AcquisitionHeader struct {
	Version              uint16
	Flags                FlagSet[AcquisitionFlag]
	MeasurementUID       uint32
	ScanCounter          uint32
	AcquisitionTimeStamp uint32
	PhysiologyTimeStamp  [PhysiologyStamps]uint32
	NumberOfSamples      uint16
	AvailableChannels    uint16
	ActiveChannels       uint16
	ChannelMask          ChannelMask
	DiscardPre           uint16
	DiscardPost          uint16
	CenterSample         uint16
	EncodingSpaceRef     uint16
	TrajectoryDimensions uint16
	SampleTimeUs         float32
	Position             [PositionLength]float32
	ReadDir              [DirectionLength]float32
	PhaseDir             [DirectionLength]float32
	SliceDir             [DirectionLength]float32
	PatientTablePosition [PositionLength]float32
	Idx                  EncodingCounters
	UserInt              [UserIntegers]int32
	UserFloat            [UserFloats]float32
}

// NewAcquisitionHeader returns a header with only the version set.
func NewAcquisitionHeader() AcquisitionHeader {
	return AcquisitionHeader{Version: Version}
}

// Validate checks the channel and discard invariants.
func (h *AcquisitionHeader) Validate() error {
	if h.ActiveChannels > h.AvailableChannels {
		return &SizeMismatchError{
			Field:    "active_channels",
			Expected: uint64(h.AvailableChannels),
			Actual:   uint64(h.ActiveChannels),
		}
	}
	if uint32(h.DiscardPre)+uint32(h.DiscardPost) > uint32(h.NumberOfSamples) {
		return &SizeMismatchError{
			Field:    "discard_pre+discard_post",
			Expected: uint64(h.NumberOfSamples),
			Actual:   uint64(h.DiscardPre) + uint64(h.DiscardPost),
		}
	}
	return nil
}

// CheckVersion reports a header written by a different format version.
func (h *AcquisitionHeader) CheckVersion() error {
	return checkVersion("acquisition", h.Version)
}

// DataElements returns the number of complex samples the header implies.
func (h *AcquisitionHeader) DataElements() uint64 {
	return uint64(h.NumberOfSamples) * uint64(h.ActiveChannels)
}

// TrajectoryElements returns the number of trajectory values the header
// implies.
func (h *AcquisitionHeader) TrajectoryElements() uint64 {
	return uint64(h.NumberOfSamples) * uint64(h.TrajectoryDimensions)
}

func checkVersion(what string, v uint16) error {
	if v != Version {
		return &FormatError{
			Field: what + ".version",
			Msg:   fmt.Sprintf("version %d, library writes %d", v, Version),
		}
	}
	return nil
}
