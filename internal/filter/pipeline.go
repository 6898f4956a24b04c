package filter

import (
	"fmt"
)

// Pipeline is an ordered set of filters.
type Pipeline struct {
	mask    Mask
	filters []Filter
}

// NewPipeline builds the pipeline described by mask. elemSize is the
// shuffle element size and level the DEFLATE level; both are ignored when
// the corresponding filter is not in the mask. Unknown mask bits are kept
// so that Decode can report them.
func NewPipeline(mask Mask, elemSize, level int) *Pipeline {
	p := &Pipeline{mask: mask}
	if mask.Has(MaskShuffle) {
		p.filters = append(p.filters, NewShuffle(elemSize))
	}
	if mask.Has(MaskDeflate) {
		p.filters = append(p.filters, NewDeflate(level))
	}
	if mask.Has(MaskFletcher32) {
		p.filters = append(p.filters, NewFletcher32())
	}
	return p
}

// Mask returns the filters of the pipeline.
func (p *Pipeline) Mask() Mask {
	return p.mask
}

// Encode applies the filters in order.
func (p *Pipeline) Encode(input []byte) ([]byte, error) {
	if !p.mask.Valid() {
		return nil, fmt.Errorf("unsupported filter mask 0x%02x", uint8(p.mask))
	}
	data := input
	for _, f := range p.filters {
		var err error
		data, err = f.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %s encode: %w", f.ID(), err)
		}
	}
	return data, nil
}

// Decode applies the filters in reverse order.
func (p *Pipeline) Decode(input []byte) ([]byte, error) {
	if !p.mask.Valid() {
		return nil, fmt.Errorf("unsupported filter mask 0x%02x", uint8(p.mask))
	}
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		var err error
		data, err = p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %s decode: %w", p.filters[i].ID(), err)
		}
	}
	return data, nil
}

// Empty returns true if the pipeline has no filters.
func (p *Pipeline) Empty() bool {
	return len(p.filters) == 0
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.filters)
}
