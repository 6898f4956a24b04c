package ismrmrd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ismrmrd/internal/filter"
)

func TestEntryRoundtripFilters(t *testing.T) {
	acq := newTestAcquisition(t, 64, 4, 3)
	masks := []filter.Mask{
		0,
		filter.MaskShuffle,
		filter.MaskDeflate,
		filter.MaskFletcher32,
		filter.MaskShuffle | filter.MaskDeflate | filter.MaskFletcher32,
	}
	for _, mask := range masks {
		t.Run(mask.String(), func(t *testing.T) {
			raw, err := encodeEntry(acq, mask, 6)
			require.NoError(t, err)
			require.Equal(t, byte(KindAcquisition), raw[0])
			require.Equal(t, byte(mask), raw[1])

			rec, err := decodeEntry(raw)
			require.NoError(t, err)
			require.Equal(t, acq, rec)
		})
	}
}

func TestEntryDetectsCorruption(t *testing.T) {
	acq := newTestAcquisition(t, 16, 2, 0)

	raw, err := encodeEntry(acq, 0, 0)
	require.NoError(t, err)
	raw[entryPrefixSize+40] ^= 0xff
	_, err = decodeEntry(raw)
	require.ErrorIs(t, err, ErrFormat)

	raw, err = encodeEntry(acq, filter.MaskFletcher32, 0)
	require.NoError(t, err)
	raw[len(raw)-10] ^= 0xff
	_, err = decodeEntry(raw)
	require.ErrorIs(t, err, ErrFormat)

	raw, err = encodeEntry(acq, 0, 0)
	require.NoError(t, err)
	_, err = decodeEntry(raw[:len(raw)-1])
	require.ErrorIs(t, err, ErrFormat)

	_, err = decodeEntry(raw[:5])
	require.ErrorIs(t, err, ErrFormat)

	raw[0] = 1
	_, err = decodeEntry(raw)
	require.ErrorIs(t, err, ErrFormat)
}

func TestEntryImageAndWaveform(t *testing.T) {
	h := NewImageHeader(TypeShort)
	h.MatrixSize = [3]uint16{3, 2, 1}
	h.Channels = 1
	img, err := NewImage(h, "k=v", []int16{-1, 2, -3, 4, -5, 6})
	require.NoError(t, err)

	raw, err := encodeEntry(img, filter.MaskShuffle|filter.MaskDeflate, 9)
	require.NoError(t, err)
	rec, err := decodeEntry(raw)
	require.NoError(t, err)
	require.Equal(t, img, rec)

	wh := NewWaveformHeader()
	wh.NumberOfSamples = 2
	wh.Channels = 2
	w, err := NewWaveform(wh, []uint32{1, 2, 3, 4})
	require.NoError(t, err)
	raw, err = encodeEntry(w, 0, 0)
	require.NoError(t, err)
	rec, err = decodeEntry(raw)
	require.NoError(t, err)
	require.Equal(t, w, rec)
}
