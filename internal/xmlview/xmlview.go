// Package xmlview reads the few encoding parameters of an ISMRMRD XML
// header that the dataset uses to cross-check acquisition sizes.
//
// The header is otherwise opaque. Nothing here validates it, and a blob
// that cannot be read simply yields no values.
package xmlview

import (
	"encoding/xml"
	"strings"
)

type header struct {
	XMLName          xml.Name   `xml:"ismrmrdHeader"`
	ReceiverChannels *int       `xml:"acquisitionSystemInformation>receiverChannels"`
	Encodings        []encoding `xml:"encoding"`
}

type encoding struct {
	MatrixX *int `xml:"encodedSpace>matrixSize>x"`
}

// View holds the values extracted from one header blob.
type View struct {
	channels int
	samples  int
}

// Parse extracts what it can from blob. It never fails.
func Parse(blob string) View {
	var h header
	if err := xml.NewDecoder(strings.NewReader(blob)).Decode(&h); err != nil {
		return View{}
	}
	var v View
	if h.ReceiverChannels != nil && *h.ReceiverChannels > 0 {
		v.channels = *h.ReceiverChannels
	}
	if len(h.Encodings) > 0 && h.Encodings[0].MatrixX != nil && *h.Encodings[0].MatrixX > 0 {
		v.samples = *h.Encodings[0].MatrixX
	}
	return v
}

// ChannelCount returns the receiver channel count, if present.
func (v View) ChannelCount() (int, bool) {
	return v.channels, v.channels > 0
}

// SampleBudget returns the encoded matrix size along the readout of the
// first encoding, if present.
func (v View) SampleBudget() (int, bool) {
	return v.samples, v.samples > 0
}

// ChannelCount reads acquisitionSystemInformation/receiverChannels.
func ChannelCount(blob string) (int, bool) {
	return Parse(blob).ChannelCount()
}

// SampleBudget reads encoding/encodedSpace/matrixSize/x of the first
// encoding.
func SampleBudget(blob string) (int, bool) {
	return Parse(blob).SampleBudget()
}
