package ismrmrd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlagBits(t *testing.T) {
	tests := []struct {
		flag AcquisitionFlag
		raw  uint64
	}{
		{AcqFirstInEncodeStep1, 1},
		{AcqFirstInSlice, 1 << 6},
		{AcqLastInSlice, 1 << 7},
		{AcqIsPhaseStabilization, 1 << 30},
		{AcqCompression1, 1 << 52},
		{AcqUser8, 1 << 63},
	}
	for _, tt := range tests {
		t.Run(tt.flag.String(), func(t *testing.T) {
			var f FlagSet[AcquisitionFlag]
			f.Set(tt.flag)
			require.Equal(t, tt.raw, f.Raw())
			require.True(t, f.IsSet(tt.flag))
			f.Clear(tt.flag)
			require.Zero(t, f.Raw())
		})
	}
}

func TestFlagSetOperations(t *testing.T) {
	var f FlagSet[AcquisitionFlag]
	require.False(t, f.IsSet(AcqIsNoiseMeasurement))
	require.Equal(t, "none", f.String())

	f.Set(AcqFirstInSlice)
	f.Set(AcqIsReverse)
	f.Set(AcqFirstInSlice)
	require.True(t, f.IsSet(AcqFirstInSlice))
	require.True(t, f.IsSet(AcqIsReverse))
	require.False(t, f.IsSet(AcqLastInSlice))
	require.Equal(t, "FIRST_IN_SLICE|IS_REVERSE", f.String())

	g := FlagSetFromRaw[AcquisitionFlag](f.Raw())
	require.Equal(t, f, g)

	f.ClearAll()
	require.Zero(t, f.Raw())
}

func TestImageFlags(t *testing.T) {
	var f FlagSet[ImageFlag]
	f.Set(ImgIsNavigationData)
	f.Set(ImgUser3)
	require.Equal(t, uint64(1)|uint64(1)<<58, f.Raw())
	require.Equal(t, "IS_NAVIGATION_DATA|USER3", f.String())
}

func TestFlagOutOfRangePanics(t *testing.T) {
	var f FlagSet[AcquisitionFlag]
	require.Panics(t, func() { f.Set(0) })
	require.Panics(t, func() { f.IsSet(65) })
	var g FlagSet[ImageFlag]
	require.Panics(t, func() { g.Clear(200) })
}

func TestUnnamedFlagString(t *testing.T) {
	f := FlagSetFromRaw[AcquisitionFlag](1 << 39)
	require.Equal(t, "BIT40", f.String())
}

func TestChannelMask(t *testing.T) {
	var m ChannelMask
	m.SetOn(0)
	m.SetOn(63)
	m.SetOn(64)
	m.SetOn(1023)
	require.True(t, m.IsOn(0))
	require.True(t, m.IsOn(64))
	require.False(t, m.IsOn(1))
	require.Equal(t, uint64(1)|uint64(1)<<63, m[0])
	require.Equal(t, uint64(1), m[1])
	require.Equal(t, uint64(1)<<63, m[15])
	require.Equal(t, 4, m.Count())

	m.SetOff(63)
	require.False(t, m.IsOn(63))
	require.Equal(t, 3, m.Count())

	m.AllOff()
	require.Equal(t, ChannelMask{}, m)
	require.Panics(t, func() { m.SetOn(1024) })
	require.Panics(t, func() { m.IsOn(-1) })
}
