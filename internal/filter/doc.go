// Package filter implements the payload filter pipeline applied to stored
// record and array bytes.
//
// # Supported Filters
//
//   - Shuffle: groups byte i of every element together so that similar
//     bytes sit next to each other, which helps DEFLATE on sample data.
//   - Deflate: zlib compression using compress/zlib.
//   - Fletcher32: appends a 32-bit Fletcher checksum and verifies it on
//     decode.
//
// # Mask
//
// The set of filters applied to a payload is recorded as a [Mask] next to
// the stored bytes, so a reader never needs the writer's options:
//
//	p := filter.NewPipeline(filter.MaskShuffle|filter.MaskDeflate, 4, 6)
//	stored, err := p.Encode(raw)
//	...
//	raw, err = filter.NewPipeline(mask, elemSize, 0).Decode(stored)
//
// Encoding applies filters in the fixed order Shuffle, Deflate,
// Fletcher32; decoding applies them in reverse.
package filter
