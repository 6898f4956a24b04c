package ismrmrd

import (
	"fmt"
	"strings"
)

// AcquisitionFlag identifies one bit of an acquisition header flag word.
// Flag N occupies mask bit 1<<(N-1).
type AcquisitionFlag uint8

// Acquisition flags.
const (
	AcqFirstInEncodeStep1 AcquisitionFlag = iota + 1
	AcqLastInEncodeStep1
	AcqFirstInEncodeStep2
	AcqLastInEncodeStep2
	AcqFirstInAverage
	AcqLastInAverage
	AcqFirstInSlice
	AcqLastInSlice
	AcqFirstInContrast
	AcqLastInContrast
	AcqFirstInPhase
	AcqLastInPhase
	AcqFirstInRepetition
	AcqLastInRepetition
	AcqFirstInSet
	AcqLastInSet
	AcqFirstInSegment
	AcqLastInSegment
	AcqIsNoiseMeasurement
	AcqIsParallelCalibration
	AcqIsParallelCalibrationAndImaging
	AcqIsReverse
	AcqIsNavigationData
	AcqIsPhasecorrData
	AcqLastInMeasurement
	AcqIsHPFeedbackData
	AcqIsDummyscanData
	AcqIsRTFeedbackData
	AcqIsSurfaceCoilCorrectionScanData
	AcqIsPhaseStabilizationReference
	AcqIsPhaseStabilization
)

const (
	AcqCompression1 AcquisitionFlag = iota + 53
	AcqCompression2
	AcqCompression3
	AcqCompression4
	AcqUser1
	AcqUser2
	AcqUser3
	AcqUser4
	AcqUser5
	AcqUser6
	AcqUser7
	AcqUser8
)

var acqFlagNames = map[AcquisitionFlag]string{
	AcqFirstInEncodeStep1:              "FIRST_IN_ENCODE_STEP1",
	AcqLastInEncodeStep1:               "LAST_IN_ENCODE_STEP1",
	AcqFirstInEncodeStep2:              "FIRST_IN_ENCODE_STEP2",
	AcqLastInEncodeStep2:               "LAST_IN_ENCODE_STEP2",
	AcqFirstInAverage:                  "FIRST_IN_AVERAGE",
	AcqLastInAverage:                   "LAST_IN_AVERAGE",
	AcqFirstInSlice:                    "FIRST_IN_SLICE",
	AcqLastInSlice:                     "LAST_IN_SLICE",
	AcqFirstInContrast:                 "FIRST_IN_CONTRAST",
	AcqLastInContrast:                  "LAST_IN_CONTRAST",
	AcqFirstInPhase:                    "FIRST_IN_PHASE",
	AcqLastInPhase:                     "LAST_IN_PHASE",
	AcqFirstInRepetition:               "FIRST_IN_REPETITION",
	AcqLastInRepetition:                "LAST_IN_REPETITION",
	AcqFirstInSet:                      "FIRST_IN_SET",
	AcqLastInSet:                       "LAST_IN_SET",
	AcqFirstInSegment:                  "FIRST_IN_SEGMENT",
	AcqLastInSegment:                   "LAST_IN_SEGMENT",
	AcqIsNoiseMeasurement:              "IS_NOISE_MEASUREMENT",
	AcqIsParallelCalibration:           "IS_PARALLEL_CALIBRATION",
	AcqIsParallelCalibrationAndImaging: "IS_PARALLEL_CALIBRATION_AND_IMAGING",
	AcqIsReverse:                       "IS_REVERSE",
	AcqIsNavigationData:                "IS_NAVIGATION_DATA",
	AcqIsPhasecorrData:                 "IS_PHASECORR_DATA",
	AcqLastInMeasurement:               "LAST_IN_MEASUREMENT",
	AcqIsHPFeedbackData:                "IS_HPFEEDBACK_DATA",
	AcqIsDummyscanData:                 "IS_DUMMYSCAN_DATA",
	AcqIsRTFeedbackData:                "IS_RTFEEDBACK_DATA",
	AcqIsSurfaceCoilCorrectionScanData: "IS_SURFACECOILCORRECTIONSCAN_DATA",
	AcqIsPhaseStabilizationReference:   "IS_PHASE_STABILIZATION_REFERENCE",
	AcqIsPhaseStabilization:            "IS_PHASE_STABILIZATION",
	AcqCompression1:                    "COMPRESSION1",
	AcqCompression2:                    "COMPRESSION2",
	AcqCompression3:                    "COMPRESSION3",
	AcqCompression4:                    "COMPRESSION4",
	AcqUser1:                           "USER1",
	AcqUser2:                           "USER2",
	AcqUser3:                           "USER3",
	AcqUser4:                           "USER4",
	AcqUser5:                           "USER5",
	AcqUser6:                           "USER6",
	AcqUser7:                           "USER7",
	AcqUser8:                           "USER8",
}

func (f AcquisitionFlag) String() string {
	if name, ok := acqFlagNames[f]; ok {
		return name
	}
	return fmt.Sprintf("BIT%d", uint8(f))
}

// ImageFlag identifies one bit of an image header flag word.
type ImageFlag uint8

// Image flags.
const (
	ImgIsNavigationData ImageFlag = 1
)

const (
	ImgUser1 ImageFlag = iota + 57
	ImgUser2
	ImgUser3
	ImgUser4
	ImgUser5
	ImgUser6
	ImgUser7
	ImgUser8
)

func (f ImageFlag) String() string {
	switch {
	case f == ImgIsNavigationData:
		return "IS_NAVIGATION_DATA"
	case f >= ImgUser1 && f <= ImgUser8:
		return fmt.Sprintf("USER%d", uint8(f-ImgUser1+1))
	}
	return fmt.Sprintf("BIT%d", uint8(f))
}

// FlagSet is a 64-bit flag word over one flag vocabulary. The zero value
// has no flags set.
type FlagSet[B AcquisitionFlag | ImageFlag] struct {
	mask uint64
}

// FlagSetFromRaw wraps a raw flag word.
func FlagSetFromRaw[B AcquisitionFlag | ImageFlag](raw uint64) FlagSet[B] {
	return FlagSet[B]{mask: raw}
}

func flagBit[B AcquisitionFlag | ImageFlag](b B) uint64 {
	if b < 1 || b > 64 {
		panic(fmt.Sprintf("ismrmrd: flag bit %d out of range 1..64", uint8(b)))
	}
	return uint64(1) << (uint64(b) - 1)
}

// Set sets bit b.
func (f *FlagSet[B]) Set(b B) {
	f.mask |= flagBit(b)
}

// Clear clears bit b.
func (f *FlagSet[B]) Clear(b B) {
	f.mask &^= flagBit(b)
}

// ClearAll clears every bit.
func (f *FlagSet[B]) ClearAll() {
	f.mask = 0
}

// IsSet reports whether bit b is set.
func (f FlagSet[B]) IsSet(b B) bool {
	return f.mask&flagBit(b) != 0
}

// Raw returns the flag word.
func (f FlagSet[B]) Raw() uint64 {
	return f.mask
}

// String lists the names of the set flags joined by "|".
func (f FlagSet[B]) String() string {
	if f.mask == 0 {
		return "none"
	}
	var names []string
	for n := 1; n <= 64; n++ {
		if f.mask&(uint64(1)<<(n-1)) == 0 {
			continue
		}
		names = append(names, any(B(n)).(fmt.Stringer).String())
	}
	return strings.Join(names, "|")
}

// MaxChannels is the number of channels addressable by a ChannelMask.
const MaxChannels = 1024

// ChannelMask records which receiver channels are active, one bit per
// channel.
type ChannelMask [16]uint64

func channelBit(ch int) (int, uint64) {
	if ch < 0 || ch >= MaxChannels {
		panic(fmt.Sprintf("ismrmrd: channel %d out of range 0..%d", ch, MaxChannels-1))
	}
	return ch / 64, uint64(1) << (ch % 64)
}

// IsOn reports whether channel ch is active.
func (m *ChannelMask) IsOn(ch int) bool {
	w, bit := channelBit(ch)
	return m[w]&bit != 0
}

// SetOn marks channel ch active.
func (m *ChannelMask) SetOn(ch int) {
	w, bit := channelBit(ch)
	m[w] |= bit
}

// SetOff marks channel ch inactive.
func (m *ChannelMask) SetOff(ch int) {
	w, bit := channelBit(ch)
	m[w] &^= bit
}

// AllOff marks every channel inactive.
func (m *ChannelMask) AllOff() {
	*m = ChannelMask{}
}

// Count returns the number of active channels.
func (m *ChannelMask) Count() int {
	n := 0
	for _, w := range m {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}
