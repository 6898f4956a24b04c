package ismrmrd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalk(t *testing.T) {
	f, err := Create(tempFile(t))
	require.NoError(t, err)
	defer f.Close()

	a, err := f.CreateDataset("/b/run", false)
	require.NoError(t, err)
	_, err = a.AppendAcquisition(newTestAcquisition(t, 4, 1, 0))
	require.NoError(t, err)
	require.NoError(t, a.SetHeaderBlob("<ismrmrdHeader/>"))

	b, err := f.CreateDataset("/a", false)
	require.NoError(t, err)
	arr, err := NewNDArray(TypeUInt, 2)
	require.NoError(t, err)
	require.NoError(t, b.AppendArray("mask", arr))

	var infos []DatasetInfo
	require.NoError(t, Walk(f, func(info DatasetInfo) error {
		infos = append(infos, info)
		return nil
	}))
	require.Equal(t, []DatasetInfo{
		{Path: "/a", Arrays: []string{"mask"}},
		{Path: "/b/run", RecordCount: 1, HasHeader: true, HeaderBytes: 16},
	}, infos)

	paths, err := f.Datasets()
	require.NoError(t, err)
	require.Equal(t, []string{"/a", "/b/run"}, paths)

	calls := 0
	require.NoError(t, Walk(f, func(DatasetInfo) error {
		calls++
		return ErrStopWalk
	}))
	require.Equal(t, 1, calls)
}
