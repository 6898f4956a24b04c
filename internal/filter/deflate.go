package filter

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// DefaultLevel is the zlib level used when none is configured.
const DefaultLevel = 6

// Deflate implements zlib compression.
type Deflate struct {
	level int
}

// NewDeflate creates a DEFLATE filter. Levels outside 1-9 use DefaultLevel.
func NewDeflate(level int) *Deflate {
	if level < 1 || level > 9 {
		level = DefaultLevel
	}
	return &Deflate{level: level}
}

func (f *Deflate) ID() Mask {
	return MaskDeflate
}

func (f *Deflate) Encode(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, f.level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := w.Write(input); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (f *Deflate) Decode(input []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer r.Close()

	output, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}

	return output, nil
}
