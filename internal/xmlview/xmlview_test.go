package xmlview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleHeader = `<?xml version="1.0"?>
<ismrmrdHeader xmlns="http://www.ismrm.org/ISMRMRD">
  <acquisitionSystemInformation>
    <receiverChannels>8</receiverChannels>
  </acquisitionSystemInformation>
  <encoding>
    <encodedSpace>
      <matrixSize><x>512</x><y>256</y><z>1</z></matrixSize>
    </encodedSpace>
    <trajectory>cartesian</trajectory>
  </encoding>
  <encoding>
    <encodedSpace>
      <matrixSize><x>64</x><y>64</y><z>1</z></matrixSize>
    </encodedSpace>
  </encoding>
</ismrmrdHeader>`

func TestExtract(t *testing.T) {
	n, ok := ChannelCount(sampleHeader)
	require.True(t, ok)
	require.Equal(t, 8, n)

	n, ok = SampleBudget(sampleHeader)
	require.True(t, ok)
	require.Equal(t, 512, n)
}

func TestMissingValues(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"empty", ""},
		{"not xml", "{\"json\": true}"},
		{"truncated", "<ismrmrdHeader><encoding>"},
		{"other root", "<foo><acquisitionSystemInformation><receiverChannels>4</receiverChannels></acquisitionSystemInformation></foo>"},
		{"no fields", "<ismrmrdHeader></ismrmrdHeader>"},
		{"not a number", "<ismrmrdHeader><acquisitionSystemInformation><receiverChannels>many</receiverChannels></acquisitionSystemInformation></ismrmrdHeader>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ChannelCount(tt.blob)
			require.False(t, ok)
			_, ok = SampleBudget(tt.blob)
			require.False(t, ok)
		})
	}
}

func TestPartialValues(t *testing.T) {
	blob := `<ismrmrdHeader><acquisitionSystemInformation><receiverChannels>0</receiverChannels></acquisitionSystemInformation>
<encoding><encodedSpace><matrixSize><x>128</x></matrixSize></encodedSpace></encoding></ismrmrdHeader>`
	v := Parse(blob)
	_, ok := v.ChannelCount()
	require.False(t, ok)
	n, ok := v.SampleBudget()
	require.True(t, ok)
	require.Equal(t, 128, n)
}
