package ismrmrd

import (
	"fmt"

	binpkg "github.com/robert-malhotra/go-ismrmrd/internal/binary"
	"github.com/robert-malhotra/go-ismrmrd/internal/filter"
	h5binary "github.com/robert-malhotra/go-ismrmrd/internal/hdf5/binary"
)

// Stream entry layout:
//
//	offset size
//	0      1    record kind
//	1      1    filter mask
//	2      1    shuffle element size
//	3      1    reserved, zero
//	4      4    lookup3 checksum of the header bytes
//	8      n    encoded header, n fixed by the kind
//	8+n    ...  payload after the filter pipeline
const entryPrefixSize = 8

func headerSize(k Kind) (int, bool) {
	switch k {
	case KindAcquisition:
		return AcquisitionHeaderSize, true
	case KindImage:
		return ImageHeaderSize, true
	case KindWaveform:
		return WaveformHeaderSize, true
	}
	return 0, false
}

// encodeEntry frames rec for storage, running its payload through the
// filters in mask.
func encodeEntry(rec Record, mask filter.Mask, level int) ([]byte, error) {
	header := rec.encodeHeader()
	payload, elemSize := rec.encodePayload()
	if elemSize > 255 {
		elemSize = 1
	}

	stored, err := filter.NewPipeline(mask, elemSize, level).Encode(payload)
	if err != nil {
		return nil, err
	}

	w := binpkg.NewWriter(entryPrefixSize+len(header)+len(stored), binpkg.DefaultConfig())
	w.WriteUint8(uint8(rec.Kind()))
	w.WriteUint8(uint8(mask))
	w.WriteUint8(uint8(elemSize))
	w.WriteUint8(0)
	w.WriteUint32(h5binary.Lookup3Checksum(header))
	w.WriteBytes(header)
	w.WriteBytes(stored)
	return w.Bytes(), nil
}

// decodeEntry reverses encodeEntry.
func decodeEntry(raw []byte) (Record, error) {
	if len(raw) < entryPrefixSize {
		return nil, &FormatError{Field: "entry", Expected: entryPrefixSize, Actual: len(raw)}
	}
	r := binpkg.NewReader(raw, binpkg.DefaultConfig())
	kind := Kind(r.ReadUint8())
	mask := filter.Mask(r.ReadUint8())
	elemSize := int(r.ReadUint8())
	r.Skip(1)
	sum := r.ReadUint32()

	n, ok := headerSize(kind)
	if !ok {
		return nil, &FormatError{Field: "entry.kind", Msg: fmt.Sprintf("unknown record kind %d", uint8(kind))}
	}
	if r.Len() < n {
		return nil, &FormatError{Field: kind.String() + "_header", Expected: n, Actual: r.Len()}
	}
	header := r.ReadBytes(n)
	if !h5binary.VerifyLookup3(header, sum) {
		return nil, &FormatError{Field: "entry.checksum", Msg: "header checksum mismatch"}
	}
	if !mask.Valid() {
		return nil, &FormatError{Field: "entry.filters", Msg: fmt.Sprintf("unknown filter mask 0x%02x", uint8(mask))}
	}

	payload, err := filter.NewPipeline(mask, elemSize, 0).Decode(raw[entryPrefixSize+n:])
	if err != nil {
		return nil, &FormatError{Field: "entry.payload", Msg: err.Error()}
	}
	return decodeRecord(kind, header, payload)
}
