package ismrmrd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ismrmrd/hdf5"
)

func TestHDF5ExportImport(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(filepath.Join(dir, "src.mrd"))
	require.NoError(t, err)
	defer f.Close()

	d, err := f.CreateDataset(DefaultPath, false, WithCompression(4))
	require.NoError(t, err)
	require.NoError(t, d.SetHeaderBlob("<ismrmrdHeader><version>1</version></ismrmrdHeader>"))

	var want []Record
	for i := 0; i < 12; i++ {
		acq := newTestAcquisition(t, 8, 2, 1)
		head := acq.Head()
		head.ScanCounter = uint32(i)
		_, traj, data := acq.Detach()
		require.NoError(t, acq.Replace(head, traj, data))
		want = append(want, acq)
	}
	want = append(want, testWaveform(t), testImage(t, "series=2"))
	for _, rec := range want {
		_, err := d.AppendRecord(rec)
		require.NoError(t, err)
	}

	mag := testImage(t, "mag")
	_, err = d.AppendImageTo("magnitude", mag)
	require.NoError(t, err)

	csm, err := NewNDArray(TypeCxFloat, 3, 2)
	require.NoError(t, err)
	for i := range csm.Data.([]complex64) {
		csm.Data.([]complex64)[i] = complex(float32(i), -float32(i))
	}
	require.NoError(t, d.AppendArray("csm", csm))
	counts, err := NewNDArray(TypeUShort, 4)
	require.NoError(t, err)
	copy(counts.Data.([]uint16), []uint16{1, 2, 3, 4})
	require.NoError(t, d.AppendArray("counts", counts))

	// A second dataset nested under the first and one without a header.
	nested, err := f.CreateDataset("/dataset/scout", false)
	require.NoError(t, err)
	_, err = nested.AppendRecord(newTestAcquisition(t, 4, 1, 0))
	require.NoError(t, err)

	h5 := filepath.Join(dir, "out.h5")
	require.NoError(t, f.ExportHDF5(h5))

	// The file reads back as plain HDF5 in the documented layout.
	hf, err := hdf5.Open(h5)
	require.NoError(t, err)
	g, err := hf.OpenGroup("/dataset/data")
	require.NoError(t, err)
	members, err := g.Members()
	require.NoError(t, err)
	require.Len(t, members, len(want))
	arr, err := hf.OpenDataset("/dataset/arrays/csm")
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 3, 2}, arr.Shape())
	require.NoError(t, hf.Close())

	dst, err := Create(filepath.Join(dir, "dst.mrd"))
	require.NoError(t, err)
	defer dst.Close()
	paths, err := dst.ImportHDF5(h5, false)
	require.NoError(t, err)
	require.Equal(t, []string{"/dataset", "/dataset/scout"}, paths)

	got, err := dst.OpenDataset(DefaultPath, ReadOnly)
	require.NoError(t, err)
	blob, err := got.HeaderBlob()
	require.NoError(t, err)
	require.Equal(t, "<ismrmrdHeader><version>1</version></ismrmrdHeader>", blob)

	n, err := got.RecordCount()
	require.NoError(t, err)
	require.Equal(t, uint64(len(want)), n)
	for i, rec := range want {
		r, err := got.ReadRecord(uint64(i))
		require.NoError(t, err)
		require.Equal(t, rec, r, "record %d", i)
	}

	img, err := got.ReadImageFrom("magnitude", 0)
	require.NoError(t, err)
	require.Equal(t, mag, img)

	gotCsm, err := got.ReadArray("csm")
	require.NoError(t, err)
	require.Equal(t, csm, gotCsm)
	gotCounts, err := got.ReadArray("counts")
	require.NoError(t, err)
	require.Equal(t, counts, gotCounts)

	scout, err := dst.OpenDataset("/dataset/scout", ReadOnly)
	require.NoError(t, err)
	_, err = scout.HeaderBlob()
	require.ErrorIs(t, err, ErrNotFound)
	n, err = scout.RecordCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)

	// Importing again without overwrite refuses to replace the datasets.
	_, err = dst.ImportHDF5(h5, false)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestHDF5ExportRejectsReservedNesting(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(filepath.Join(dir, "src.mrd"))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.CreateDataset("/a", false)
	require.NoError(t, err)
	_, err = f.CreateDataset("/a/data/x", false)
	require.NoError(t, err)

	err = f.ExportHDF5(filepath.Join(dir, "out.h5"))
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestHDF5ImportIntoReadOnlyFile(t *testing.T) {
	name := tempFile(t)
	f, err := Create(name)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ro, err := Open(name)
	require.NoError(t, err)
	defer ro.Close()
	_, err = ro.ImportHDF5(filepath.Join(t.TempDir(), "missing.h5"), false)
	require.ErrorIs(t, err, ErrReadOnly)
}
