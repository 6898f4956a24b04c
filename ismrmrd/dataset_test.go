package ismrmrd

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.mrd")
}

func TestDatasetWriteReopenRead(t *testing.T) {
	name := tempFile(t)

	f, err := Create(name)
	require.NoError(t, err)
	d, err := f.CreateDataset("/dataset", false)
	require.NoError(t, err)

	var appended []*Acquisition
	for i := 0; i < 5; i++ {
		acq := newTestAcquisition(t, 256, 4, 0)
		head := acq.Head()
		head.ScanCounter = uint32(i)
		head.Idx.KspaceEncodeStep1 = uint16(i)
		if i == 0 {
			head.Flags.Set(AcqFirstInSlice)
		}
		if i == 4 {
			head.Flags.Set(AcqLastInSlice)
		}
		_, traj, data := acq.Detach()
		require.NoError(t, acq.Replace(head, traj, data))

		idx, err := d.AppendAcquisition(acq)
		require.NoError(t, err)
		require.Equal(t, uint64(i), idx)
		appended = append(appended, acq)
	}
	require.NoError(t, d.Close())
	require.NoError(t, f.Close())

	ro, err := OpenDataset(name, "/dataset", ReadOnly)
	require.NoError(t, err)
	defer ro.Close()

	n, err := ro.RecordCount()
	require.NoError(t, err)
	require.Equal(t, uint64(5), n)

	first, err := ro.ReadAcquisition(0)
	require.NoError(t, err)
	require.True(t, first.Head().Flags.IsSet(AcqFirstInSlice))
	require.False(t, first.Head().Flags.IsSet(AcqLastInSlice))
	require.Len(t, first.Data(), 256*4)
	require.Equal(t, complex64(complex(float32(300), -300)), first.At(300-256, 1))

	middle, err := ro.ReadAcquisition(2)
	require.NoError(t, err)
	require.False(t, middle.Head().Flags.IsSet(AcqFirstInSlice))
	require.False(t, middle.Head().Flags.IsSet(AcqLastInSlice))

	last, err := ro.ReadAcquisition(4)
	require.NoError(t, err)
	require.True(t, last.Head().Flags.IsSet(AcqLastInSlice))
	require.Equal(t, uint32(4), last.Head().ScanCounter)

	for i, want := range appended {
		got, err := ro.ReadAcquisition(uint64(i))
		require.NoError(t, err)
		require.Equal(t, want, got, "record %d", i)
	}

	_, err = ro.ReadRecord(5)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = ro.AppendAcquisition(first)
	require.ErrorIs(t, err, ErrReadOnly)
	require.ErrorIs(t, ro.SetHeaderBlob("<x/>"), ErrReadOnly)
}

func TestMixedRecordKinds(t *testing.T) {
	f, err := Create(tempFile(t))
	require.NoError(t, err)
	defer f.Close()
	d, err := f.CreateDataset("run", false, WithShuffle(), WithCompression(4), WithFletcher32())
	require.NoError(t, err)
	require.Equal(t, "/run", d.Path())

	acq := newTestAcquisition(t, 32, 2, 2)
	_, err = d.AppendRecord(acq)
	require.NoError(t, err)

	ih := NewImageHeader(TypeFloat)
	ih.MatrixSize = [3]uint16{4, 4, 1}
	ih.Channels = 1
	ih.ImageType = ImageMagnitude
	img, err := NewImage(ih, "series=1", make([]float32, 16))
	require.NoError(t, err)
	_, err = d.AppendImage(img)
	require.NoError(t, err)

	wh := NewWaveformHeader()
	wh.NumberOfSamples = 10
	wh.Channels = 1
	w, err := NewWaveform(wh, make([]uint32, 10))
	require.NoError(t, err)
	_, err = d.AppendWaveform(w)
	require.NoError(t, err)

	rec, err := d.ReadRecord(0)
	require.NoError(t, err)
	require.Equal(t, acq, rec)

	gotImg, err := d.ReadImage(1)
	require.NoError(t, err)
	require.Equal(t, img, gotImg)

	gotW, err := d.ReadWaveform(2)
	require.NoError(t, err)
	require.Equal(t, w, gotW)

	_, err = d.ReadImage(0)
	require.ErrorIs(t, err, ErrFormat)
	_, err = d.ReadAcquisition(2)
	require.ErrorIs(t, err, ErrFormat)

	var kinds []Kind
	require.NoError(t, d.Records(func(i uint64, rec Record) error {
		kinds = append(kinds, rec.Kind())
		return nil
	}))
	require.Equal(t, []Kind{KindAcquisition, KindImage, KindWaveform}, kinds)
}

func TestHeaderBlob(t *testing.T) {
	f, err := Create(tempFile(t))
	require.NoError(t, err)
	defer f.Close()
	d, err := f.CreateDataset(DefaultPath, false)
	require.NoError(t, err)

	_, err = d.HeaderBlob()
	require.ErrorIs(t, err, ErrNotFound)

	blob := "<?xml version=\"1.0\"?>\n<ismrmrdHeader>é</ismrmrdHeader>\n"
	require.NoError(t, d.SetHeaderBlob(blob))
	got, err := d.HeaderBlob()
	require.NoError(t, err)
	require.Equal(t, blob, got)

	require.NoError(t, d.SetHeaderBlob(""))
	got, err = d.HeaderBlob()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestArrays(t *testing.T) {
	f, err := Create(tempFile(t))
	require.NoError(t, err)
	defer f.Close()
	d, err := f.CreateDataset(DefaultPath, false)
	require.NoError(t, err)

	arr, err := NewNDArray(TypeFloat, 3, 2)
	require.NoError(t, err)
	copy(arr.Data.([]float32), []float32{1, 2, 3, 4, 5, 6})

	require.NoError(t, d.AppendArray("noise", arr))
	require.ErrorIs(t, d.AppendArray("noise", arr), ErrAlreadyExists)
	require.ErrorIs(t, d.AppendArray("", arr), ErrInvalidPath)

	bad := &NDArray{Version: Version, DataType: TypeFloat, Dims: []uint64{4}, Data: []float32{1}}
	require.ErrorIs(t, d.AppendArray("bad", bad), ErrSizeMismatch)

	got, err := d.ReadArray("noise")
	require.NoError(t, err)
	require.Equal(t, arr, got)

	_, err = d.ReadArray("missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, d.AppendArray("coils", arr))
	names, err := d.ArrayNames()
	require.NoError(t, err)
	require.Equal(t, []string{"coils", "noise"}, names)
}

func TestCreateAndOpenDataset(t *testing.T) {
	f, err := Create(tempFile(t))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.OpenDataset("/missing", ReadOnly)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.OpenDataset("/missing", ReadWrite)
	require.ErrorIs(t, err, ErrNotFound)

	d, err := f.OpenDataset("/missing", ReadWrite, WithCreate())
	require.NoError(t, err)
	_, err = d.AppendAcquisition(newTestAcquisition(t, 4, 1, 0))
	require.NoError(t, err)

	_, err = f.CreateDataset("/missing", false)
	require.ErrorIs(t, err, ErrAlreadyExists)

	d2, err := f.CreateDataset("/missing", true)
	require.NoError(t, err)
	n, err := d2.RecordCount()
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = f.CreateDataset("/a/../b", false)
	require.ErrorIs(t, err, ErrInvalidPath)

	ok, err := f.HasDataset("missing")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReadOnlyFile(t *testing.T) {
	name := tempFile(t)
	_, err := Open(name)
	require.ErrorIs(t, err, ErrNotFound)

	f, err := Create(name)
	require.NoError(t, err)
	_, err = f.CreateDataset("/d", false)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ro, err := Open(name)
	require.NoError(t, err)
	defer ro.Close()
	require.True(t, ro.ReadOnly())

	_, err = ro.CreateDataset("/e", false)
	require.ErrorIs(t, err, ErrReadOnly)
	_, err = ro.OpenDataset("/d", ReadWrite)
	require.ErrorIs(t, err, ErrReadOnly)
	d, err := ro.OpenDataset("/d", ReadOnly)
	require.NoError(t, err)
	require.True(t, d.ReadOnly())
}

func TestClosedHandles(t *testing.T) {
	f, err := Create(tempFile(t))
	require.NoError(t, err)
	d, err := f.CreateDataset("/d", false)
	require.NoError(t, err)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	_, err = d.RecordCount()
	require.ErrorIs(t, err, ErrClosed)
	_, err = d.AppendAcquisition(newTestAcquisition(t, 1, 1, 0))
	require.ErrorIs(t, err, ErrClosed)

	d2, err := f.OpenDataset("/d", ReadOnly)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	_, err = d2.ReadRecord(0)
	require.ErrorIs(t, err, ErrClosed)
}

func TestHandlesShareCommittedAppends(t *testing.T) {
	f, err := Create(tempFile(t))
	require.NoError(t, err)
	defer f.Close()

	w, err := f.CreateDataset("/d", false)
	require.NoError(t, err)
	r, err := f.OpenDataset("/d", ReadOnly)
	require.NoError(t, err)

	acq := newTestAcquisition(t, 8, 1, 0)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := w.AppendAcquisition(acq)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	n, err := r.RecordCount()
	require.NoError(t, err)
	require.Equal(t, uint64(20), n)
	for i := uint64(0); i < n; i++ {
		_, err := r.ReadAcquisition(i)
		require.NoError(t, err)
	}
}

func TestEncodingCheck(t *testing.T) {
	f, err := Create(tempFile(t))
	require.NoError(t, err)
	defer f.Close()
	d, err := f.CreateDataset("/d", false, WithEncodingCheck())
	require.NoError(t, err)

	// No header yet: nothing to check against.
	_, err = d.AppendAcquisition(newTestAcquisition(t, 512, 8, 0))
	require.NoError(t, err)

	require.NoError(t, d.SetHeaderBlob(`<ismrmrdHeader>
<acquisitionSystemInformation><receiverChannels>4</receiverChannels></acquisitionSystemInformation>
<encoding><encodedSpace><matrixSize><x>256</x><y>256</y><z>1</z></matrixSize></encodedSpace></encoding>
</ismrmrdHeader>`))

	_, err = d.AppendAcquisition(newTestAcquisition(t, 256, 4, 0))
	require.NoError(t, err)

	_, err = d.AppendAcquisition(newTestAcquisition(t, 256, 8, 0))
	var sm *SizeMismatchError
	require.ErrorAs(t, err, &sm)
	require.Equal(t, "active_channels", sm.Field)

	_, err = d.AppendAcquisition(newTestAcquisition(t, 300, 2, 0))
	require.ErrorAs(t, err, &sm)
	require.Equal(t, "number_of_samples", sm.Field)

	n, err := d.RecordCount()
	require.NoError(t, err)
	require.Equal(t, uint64(2), n)

	// Without the option the header is not consulted.
	plain, err := f.OpenDataset("/d", ReadWrite)
	require.NoError(t, err)
	_, err = plain.AppendAcquisition(newTestAcquisition(t, 300, 8, 0))
	require.NoError(t, err)
}

func TestVersionMismatchIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogger(&buf, log.LevelOption(zerolog.WarnLevel), log.ColorOption(false))

	f, err := Create(tempFile(t), WithLogger(logger))
	require.NoError(t, err)
	defer f.Close()
	d, err := f.CreateDataset("/d", false)
	require.NoError(t, err)

	h := NewWaveformHeader()
	h.Version = 7
	w, err := NewWaveform(h, nil)
	require.NoError(t, err)
	_, err = d.AppendWaveform(w)
	require.NoError(t, err)

	got, err := d.ReadWaveform(0)
	require.NoError(t, err)
	require.Equal(t, uint16(7), got.Head().Version)
	require.Contains(t, buf.String(), "record version mismatch")
}

func TestConvenienceOpenDatasetOwnsFile(t *testing.T) {
	name := tempFile(t)
	d, err := OpenDataset(name, DefaultPath, ReadWrite, WithCreate(), WithFileOptions(WithLockTimeout(time.Second)))
	require.NoError(t, err)
	_, err = d.AppendAcquisition(newTestAcquisition(t, 2, 1, 0))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	// The file lock is released with the dataset.
	ro, err := OpenDataset(name, DefaultPath, ReadOnly, WithFileOptions(WithLockTimeout(time.Second)))
	require.NoError(t, err)
	defer ro.Close()
	n, err := ro.RecordCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)

	_, err = OpenDataset(name, "/other", ReadOnly)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenDatasetMissingFileWithoutCreate(t *testing.T) {
	name := tempFile(t)

	_, err := OpenDataset(name, DefaultPath, ReadWrite)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoFileExists(t, name)

	_, err = OpenDataset(name, DefaultPath, ReadOnly)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoFileExists(t, name)
}

func TestSecondOpenIsLocked(t *testing.T) {
	name := tempFile(t)
	f, err := Create(name)
	require.NoError(t, err)
	defer f.Close()

	_, err = OpenReadWrite(name, WithLockTimeout(50*time.Millisecond))
	require.ErrorIs(t, err, ErrLocked)

	_, err = OpenDataset(name, DefaultPath, ReadOnly, WithFileOptions(WithLockTimeout(50*time.Millisecond)))
	require.ErrorIs(t, err, ErrLocked)
}
