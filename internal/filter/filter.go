package filter

// Mask records which filters were applied to a payload.
type Mask uint8

// Filter bits. The order of the constants is the encoding order.
const (
	MaskShuffle Mask = 1 << iota
	MaskDeflate
	MaskFletcher32

	maskAll = MaskShuffle | MaskDeflate | MaskFletcher32
)

// Valid reports whether m only names known filters.
func (m Mask) Valid() bool {
	return m&^maskAll == 0
}

// Has reports whether f is part of the mask.
func (m Mask) Has(f Mask) bool {
	return m&f != 0
}

func (m Mask) String() string {
	if m == 0 {
		return "none"
	}
	s := ""
	for _, f := range []struct {
		bit  Mask
		name string
	}{{MaskShuffle, "shuffle"}, {MaskDeflate, "deflate"}, {MaskFletcher32, "fletcher32"}} {
		if m.Has(f.bit) {
			if s != "" {
				s += "+"
			}
			s += f.name
		}
	}
	if !m.Valid() {
		if s != "" {
			s += "+"
		}
		s += "unknown"
	}
	return s
}

// Filter is the interface implemented by every payload filter.
type Filter interface {
	// ID returns the mask bit of the filter.
	ID() Mask

	// Encode transforms raw data to its stored form.
	Encode(input []byte) ([]byte, error)

	// Decode transforms stored data back to raw form.
	Decode(input []byte) ([]byte, error)
}
