package ismrmrd

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func testImage(t *testing.T, attrs string) *Image {
	t.Helper()
	ih := NewImageHeader(TypeCxFloat)
	ih.MatrixSize = [3]uint16{2, 3, 1}
	ih.Channels = 2
	ih.ImageIndex = 9
	pix := make([]complex64, 12)
	for i := range pix {
		pix[i] = complex(float32(i), 1)
	}
	img, err := NewImage(ih, attrs, pix)
	require.NoError(t, err)
	return img
}

func testWaveform(t *testing.T) *Waveform {
	t.Helper()
	wh := NewWaveformHeader()
	wh.NumberOfSamples = 3
	wh.Channels = 2
	wh.WaveformID = 1
	w, err := NewWaveform(wh, []uint32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	return w
}

func TestProtocolRoundTrip(t *testing.T) {
	acq := newTestAcquisition(t, 16, 2, 2)
	img := testImage(t, "<meta/>")
	wav := testWaveform(t)

	var buf bytes.Buffer
	s := NewProtocolSerializer(&buf)
	require.NoError(t, s.WriteHeader("<ismrmrdHeader/>"))
	require.NoError(t, s.WriteText("hello"))
	require.NoError(t, s.WriteRecord(acq))
	require.NoError(t, s.WriteRecord(img))
	require.NoError(t, s.WriteRecord(wav))
	require.NoError(t, s.Close())

	raw := buf.Bytes()
	require.Equal(t, uint16(MessageHeader), binary.LittleEndian.Uint16(raw))
	require.Equal(t, uint16(MessageClose), binary.LittleEndian.Uint16(raw[len(raw)-2:]))

	d := NewProtocolDeserializer(bytes.NewReader(raw))
	id, err := d.Peek()
	require.NoError(t, err)
	require.Equal(t, MessageHeader, id)

	// A record read at a header message fails and leaves it in place.
	_, err = d.ReadRecord()
	require.ErrorIs(t, err, ErrFormat)

	xml, err := d.ReadHeader()
	require.NoError(t, err)
	require.Equal(t, "<ismrmrdHeader/>", xml)

	text, err := d.ReadText()
	require.NoError(t, err)
	require.Equal(t, "hello", text)

	rec, err := d.ReadRecord()
	require.NoError(t, err)
	require.Equal(t, acq, rec)

	id, err = d.Peek()
	require.NoError(t, err)
	require.Equal(t, MessageImage, id)
	rec, err = d.ReadRecord()
	require.NoError(t, err)
	require.Equal(t, img, rec)

	rec, err = d.ReadRecord()
	require.NoError(t, err)
	require.Equal(t, wav, rec)

	_, err = d.ReadRecord()
	require.ErrorIs(t, err, io.EOF)
	_, err = d.Peek()
	require.ErrorIs(t, err, io.EOF)
}

func TestProtocolImageWireLayout(t *testing.T) {
	img := testImage(t, "ab")

	var buf bytes.Buffer
	s := NewProtocolSerializer(&buf)
	require.NoError(t, s.WriteRecord(img))
	require.NoError(t, s.Flush())

	raw := buf.Bytes()
	require.Len(t, raw, 2+ImageHeaderSize+8+2+12*8)
	require.Equal(t, uint16(1022), binary.LittleEndian.Uint16(raw))
	require.Equal(t, uint64(2), binary.LittleEndian.Uint64(raw[2+ImageHeaderSize:]))
	require.Equal(t, "ab", string(raw[2+ImageHeaderSize+8:2+ImageHeaderSize+10]))
}

func TestProtocolTruncated(t *testing.T) {
	var buf bytes.Buffer
	s := NewProtocolSerializer(&buf)
	require.NoError(t, s.WriteRecord(newTestAcquisition(t, 8, 1, 0)))
	require.NoError(t, s.Flush())

	raw := buf.Bytes()
	_, err := NewProtocolDeserializer(bytes.NewReader(raw[:len(raw)-3])).ReadRecord()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	bad := binary.LittleEndian.AppendUint16(nil, 77)
	_, err = NewProtocolDeserializer(bytes.NewReader(bad)).ReadRecord()
	require.ErrorIs(t, err, ErrFormat)
}

func TestSerializeDataset(t *testing.T) {
	f, err := Create(tempFile(t))
	require.NoError(t, err)
	defer f.Close()

	src, err := f.CreateDataset("/src", false)
	require.NoError(t, err)
	require.NoError(t, src.SetHeaderBlob("<ismrmrdHeader><x/></ismrmrdHeader>"))
	want := []Record{newTestAcquisition(t, 4, 2, 0), testImage(t, ""), testWaveform(t)}
	for _, rec := range want {
		_, err := src.AppendRecord(rec)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, SerializeDataset(src, &buf))

	dst, err := f.CreateDataset("/dst", false)
	require.NoError(t, err)
	n, err := DeserializeDataset(&buf, dst)
	require.NoError(t, err)
	require.Equal(t, len(want), n)

	blob, err := dst.HeaderBlob()
	require.NoError(t, err)
	require.Equal(t, "<ismrmrdHeader><x/></ismrmrdHeader>", blob)
	for i, rec := range want {
		got, err := dst.ReadRecord(uint64(i))
		require.NoError(t, err)
		require.Equal(t, rec, got)
	}
}

func TestNamedImageVariables(t *testing.T) {
	f, err := Create(tempFile(t))
	require.NoError(t, err)
	defer f.Close()
	d, err := f.CreateDataset("/d", false, WithCompression(6))
	require.NoError(t, err)

	mag := testImage(t, "m")
	phase := testImage(t, "p")
	i, err := d.AppendImageTo("magnitude", mag)
	require.NoError(t, err)
	require.Equal(t, uint64(0), i)
	i, err = d.AppendImageTo("magnitude", phase)
	require.NoError(t, err)
	require.Equal(t, uint64(1), i)
	_, err = d.AppendImageTo("phase", phase)
	require.NoError(t, err)

	// Image variables do not touch the record stream.
	n, err := d.RecordCount()
	require.NoError(t, err)
	require.Zero(t, n)

	count, err := d.ImageCount("magnitude")
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
	count, err = d.ImageCount("missing")
	require.NoError(t, err)
	require.Zero(t, count)

	got, err := d.ReadImageFrom("magnitude", 1)
	require.NoError(t, err)
	require.Equal(t, phase, got)

	_, err = d.ReadImageFrom("magnitude", 2)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = d.ReadImageFrom("missing", 0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = d.AppendImageTo("a/b", mag)
	require.ErrorIs(t, err, ErrInvalidPath)

	vars, err := d.ImageVariables()
	require.NoError(t, err)
	require.Equal(t, []string{"magnitude", "phase"}, vars)

	var info DatasetInfo
	require.NoError(t, Walk(f, func(i DatasetInfo) error {
		info = i
		return nil
	}))
	require.Equal(t, map[string]uint64{"magnitude": 2, "phase": 1}, info.Images)
}
