package filter

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeflateDecodesZlib(t *testing.T) {
	original := []byte("Hello, World! This is test data for compression testing.")

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(original)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	decompressed, err := NewDeflate(0).Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, original, decompressed)
}

func TestDeflateRoundtrip(t *testing.T) {
	original := bytes.Repeat([]byte{0, 0, 128, 63}, 256)

	f := NewDeflate(9)
	require.Equal(t, MaskDeflate, f.ID())

	compressed, err := f.Encode(original)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(original))

	decompressed, err := f.Decode(compressed)
	require.NoError(t, err)
	require.Equal(t, original, decompressed)
}

func TestShuffleLayout(t *testing.T) {
	original := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x11, 0x12, 0x13, 0x14,
		0x21, 0x22, 0x23, 0x24,
	}
	shuffled := []byte{
		0x01, 0x11, 0x21,
		0x02, 0x12, 0x22,
		0x03, 0x13, 0x23,
		0x04, 0x14, 0x24,
	}

	f := NewShuffle(4)
	got, err := f.Encode(original)
	require.NoError(t, err)
	require.Equal(t, shuffled, got)

	back, err := f.Decode(shuffled)
	require.NoError(t, err)
	require.Equal(t, original, back)
}

func TestShuffleKeepsTail(t *testing.T) {
	original := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	f := NewShuffle(4)
	enc, err := f.Encode(original)
	require.NoError(t, err)
	require.Equal(t, []byte{9, 10}, enc[8:])

	dec, err := f.Decode(enc)
	require.NoError(t, err)
	require.Equal(t, original, dec)
}

func TestFletcher32DetectsCorruption(t *testing.T) {
	f := NewFletcher32()
	enc, err := f.Encode([]byte("payload"))
	require.NoError(t, err)
	require.Len(t, enc, len("payload")+4)

	dec, err := f.Decode(enc)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), dec)

	enc[0] ^= 0xFF
	_, err = f.Decode(enc)
	require.ErrorContains(t, err, "checksum mismatch")

	_, err = f.Decode([]byte{1, 2})
	require.Error(t, err)
}

func TestPipelineRoundtrip(t *testing.T) {
	raw := make([]byte, 4096)
	for i := range raw {
		raw[i] = byte(i % 7)
	}

	tests := []Mask{
		0,
		MaskShuffle,
		MaskDeflate,
		MaskFletcher32,
		MaskShuffle | MaskDeflate,
		MaskShuffle | MaskDeflate | MaskFletcher32,
	}

	for _, m := range tests {
		t.Run(m.String(), func(t *testing.T) {
			p := NewPipeline(m, 8, 4)
			require.Equal(t, m, p.Mask())

			enc, err := p.Encode(raw)
			require.NoError(t, err)

			// A reader only knows the mask and element size.
			dec, err := NewPipeline(m, 8, 0).Decode(enc)
			require.NoError(t, err)
			require.Equal(t, raw, dec)
		})
	}
}

func TestPipelineEmpty(t *testing.T) {
	p := NewPipeline(0, 4, 0)
	require.True(t, p.Empty())
	require.Zero(t, p.Len())
}

func TestPipelineRejectsUnknownMask(t *testing.T) {
	p := NewPipeline(Mask(0x80), 4, 0)
	_, err := p.Decode([]byte{1})
	require.Error(t, err)
	require.Equal(t, "unknown", Mask(0x80).String())
}

func TestMaskString(t *testing.T) {
	require.Equal(t, "none", Mask(0).String())
	require.Equal(t, "shuffle+deflate", (MaskShuffle | MaskDeflate).String())
}
