package filter

import (
	"encoding/binary"
	"fmt"

	h5binary "github.com/robert-malhotra/go-ismrmrd/internal/hdf5/binary"
)

// Fletcher32Filter appends a Fletcher-32 checksum to the data and verifies
// it on decode.
type Fletcher32Filter struct{}

// NewFletcher32 creates a new Fletcher-32 filter.
func NewFletcher32() *Fletcher32Filter {
	return &Fletcher32Filter{}
}

func (f *Fletcher32Filter) ID() Mask {
	return MaskFletcher32
}

func (f *Fletcher32Filter) Encode(input []byte) ([]byte, error) {
	out := make([]byte, len(input)+4)
	copy(out, input)
	binary.LittleEndian.PutUint32(out[len(input):], h5binary.Fletcher32(input))
	return out, nil
}

// Decode verifies the checksum stored in the last 4 bytes and returns the
// data without it.
func (f *Fletcher32Filter) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("fletcher32: input too short for checksum")
	}

	data := input[:len(input)-4]
	stored := binary.LittleEndian.Uint32(input[len(input)-4:])
	computed := h5binary.Fletcher32(data)

	if stored != computed {
		return nil, fmt.Errorf("fletcher32: checksum mismatch (stored=0x%08x, computed=0x%08x)",
			stored, computed)
	}

	return data, nil
}
