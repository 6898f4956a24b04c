package ismrmrd

import (
	"errors"
	"fmt"
	"sync/atomic"

	"cosmossdk.io/log"

	"github.com/robert-malhotra/go-ismrmrd/internal/store"
	"github.com/robert-malhotra/go-ismrmrd/internal/xmlview"
)

// Keys inside a dataset node.
const (
	recordsStream = "records"
	headerKey     = "xml"
	arraysBucket  = "arrays"
	imagesBucket  = "images"
)

// Dataset is a handle on one dataset path: an append-only record stream,
// an XML header blob and named arrays. Every append is committed to disk
// before it returns. Handles are safe for concurrent use, and a handle sees
// records appended through other handles on the same file.
type Dataset struct {
	file     *File
	path     string
	readOnly bool
	opts     *datasetOptions
	logger   log.Logger
	ownsFile bool
	closed   atomic.Bool
}

// Path returns the cleaned dataset path.
func (d *Dataset) Path() string {
	return d.path
}

// ReadOnly reports whether appends are refused.
func (d *Dataset) ReadOnly() bool {
	return d.readOnly
}

// File returns the file the dataset belongs to.
func (d *Dataset) File() *File {
	return d.file
}

// Close releases the handle, and the file too when it was opened by the
// package level OpenDataset. Close is idempotent.
func (d *Dataset) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	if d.ownsFile {
		return d.file.Close()
	}
	return nil
}

func (d *Dataset) checkWritable() error {
	if d.closed.Load() {
		return ErrClosed
	}
	if d.readOnly {
		return fmt.Errorf("dataset %s: %w", d.path, ErrReadOnly)
	}
	return nil
}

// AppendRecord stores rec as the next record of the stream and returns its
// index.
func (d *Dataset) AppendRecord(rec Record) (uint64, error) {
	if err := d.checkWritable(); err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, fmt.Errorf("append: nil record")
	}

	raw, err := encodeEntry(rec, d.opts.filterMask(), d.opts.compressionLvl)
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", rec.Kind(), err)
	}

	var index uint64
	err = d.file.store.Update(d.path, func(n *store.Node) error {
		if d.opts.encodingCheck {
			if acq, ok := rec.(*Acquisition); ok {
				blob, _ := n.Get(headerKey)
				if err := checkEncoding(xmlview.Parse(string(blob)), &acq.head); err != nil {
					return err
				}
			}
		}
		var err error
		index, err = n.Append(recordsStream, raw)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("append %s to %s: %w", rec.Kind(), d.path, err)
	}

	d.logger.Debug("appended record", "index", index, "kind", rec.Kind().String(), "bytes", len(raw))
	return index, nil
}

// AppendAcquisition appends an acquisition record.
func (d *Dataset) AppendAcquisition(acq *Acquisition) (uint64, error) {
	return d.AppendRecord(acq)
}

// AppendImage appends an image record.
func (d *Dataset) AppendImage(img *Image) (uint64, error) {
	return d.AppendRecord(img)
}

// AppendWaveform appends a waveform record.
func (d *Dataset) AppendWaveform(w *Waveform) (uint64, error) {
	return d.AppendRecord(w)
}

// AppendImageTo appends img to the image variable varname and returns its
// index within that variable. Image variables are streams of their own,
// separate from the record stream.
func (d *Dataset) AppendImageTo(varname string, img *Image) (uint64, error) {
	if err := d.checkWritable(); err != nil {
		return 0, err
	}
	if err := checkName("image variable", varname); err != nil {
		return 0, err
	}
	if img == nil {
		return 0, fmt.Errorf("append image %s: nil image", varname)
	}
	raw, err := encodeEntry(img, d.opts.filterMask(), d.opts.compressionLvl)
	if err != nil {
		return 0, fmt.Errorf("append image %s: %w", varname, err)
	}

	var index uint64
	err = d.file.store.Update(d.path, func(n *store.Node) error {
		var err error
		index, err = n.AppendIn(imagesBucket, varname, raw)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("append image %s to %s: %w", varname, d.path, err)
	}
	d.logger.Debug("appended image", "var", varname, "index", index, "bytes", len(raw))
	return index, nil
}

// ImageCount returns the number of images in variable varname. A variable
// that was never written has none.
func (d *Dataset) ImageCount(varname string) (uint64, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}
	if err := checkName("image variable", varname); err != nil {
		return 0, err
	}
	var count uint64
	err := d.file.store.View(d.path, func(n *store.Node) error {
		count = n.CountIn(imagesBucket, varname)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return count, nil
}

// ReadImageFrom reads image i of variable varname.
func (d *Dataset) ReadImageFrom(varname string, i uint64) (*Image, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if err := checkName("image variable", varname); err != nil {
		return nil, err
	}
	var raw []byte
	err := d.file.store.View(d.path, func(n *store.Node) error {
		count := n.CountIn(imagesBucket, varname)
		if i >= count {
			return fmt.Errorf("%w: image %s[%d] of %d", ErrOutOfRange, varname, i, count)
		}
		var err error
		raw, err = n.EntryIn(imagesBucket, varname, i)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}

	rec, err := decodeEntry(raw)
	if err != nil {
		return nil, fmt.Errorf("dataset %s image %s[%d]: %w", d.path, varname, i, err)
	}
	img, ok := rec.(*Image)
	if !ok {
		return nil, &FormatError{Field: "kind", Msg: fmt.Sprintf("image %s[%d] is %s", varname, i, rec.Kind())}
	}
	return img, nil
}

// ImageVariables returns the names of the image variables in sorted order.
func (d *Dataset) ImageVariables() ([]string, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	var names []string
	err := d.file.store.View(d.path, func(n *store.Node) error {
		names = n.Names(imagesBucket)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return names, nil
}

func checkEncoding(v xmlview.View, h *AcquisitionHeader) error {
	if n, ok := v.ChannelCount(); ok && int(h.ActiveChannels) > n {
		return &SizeMismatchError{Field: "active_channels", Expected: uint64(n), Actual: uint64(h.ActiveChannels)}
	}
	if n, ok := v.SampleBudget(); ok && int(h.NumberOfSamples) > n {
		return &SizeMismatchError{Field: "number_of_samples", Expected: uint64(n), Actual: uint64(h.NumberOfSamples)}
	}
	return nil
}

// RecordCount returns the number of records committed to the stream.
func (d *Dataset) RecordCount() (uint64, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}
	var count uint64
	err := d.file.store.View(d.path, func(n *store.Node) error {
		count = n.Count(recordsStream)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return count, nil
}

// ReadRecord reads record i. It fails with ErrOutOfRange when i is not
// below RecordCount.
func (d *Dataset) ReadRecord(i uint64) (Record, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	var raw []byte
	err := d.file.store.View(d.path, func(n *store.Node) error {
		count := n.Count(recordsStream)
		if i >= count {
			return fmt.Errorf("%w: record %d of %d", ErrOutOfRange, i, count)
		}
		var err error
		raw, err = n.Entry(recordsStream, i)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}

	rec, err := decodeEntry(raw)
	if err != nil {
		return nil, fmt.Errorf("dataset %s record %d: %w", d.path, i, err)
	}
	if v := rec.headerVersion(); v != Version {
		d.logger.Warn("record version mismatch", "index", i, "version", v, "expected", Version)
	}
	d.logger.Debug("read record", "index", i, "kind", rec.Kind().String())
	return rec, nil
}

func kindMismatch(i uint64, got Record, want Kind) error {
	return &FormatError{
		Field: "kind",
		Msg:   fmt.Sprintf("record %d is %s, not %s", i, got.Kind(), want),
	}
}

// ReadAcquisition reads record i, which must be an acquisition.
func (d *Dataset) ReadAcquisition(i uint64) (*Acquisition, error) {
	rec, err := d.ReadRecord(i)
	if err != nil {
		return nil, err
	}
	acq, ok := rec.(*Acquisition)
	if !ok {
		return nil, kindMismatch(i, rec, KindAcquisition)
	}
	return acq, nil
}

// ReadImage reads record i, which must be an image.
func (d *Dataset) ReadImage(i uint64) (*Image, error) {
	rec, err := d.ReadRecord(i)
	if err != nil {
		return nil, err
	}
	img, ok := rec.(*Image)
	if !ok {
		return nil, kindMismatch(i, rec, KindImage)
	}
	return img, nil
}

// ReadWaveform reads record i, which must be a waveform.
func (d *Dataset) ReadWaveform(i uint64) (*Waveform, error) {
	rec, err := d.ReadRecord(i)
	if err != nil {
		return nil, err
	}
	w, ok := rec.(*Waveform)
	if !ok {
		return nil, kindMismatch(i, rec, KindWaveform)
	}
	return w, nil
}

// SetHeaderBlob stores the XML header, replacing any previous one. The
// text is stored byte for byte and not validated.
func (d *Dataset) SetHeaderBlob(blob string) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	err := d.file.store.Update(d.path, func(n *store.Node) error {
		return n.Put(headerKey, []byte(blob))
	})
	if err != nil {
		return fmt.Errorf("dataset %s header: %w", d.path, err)
	}
	d.logger.Debug("stored header", "bytes", len(blob))
	return nil
}

// HeaderBlob returns the XML header. It fails with ErrNotFound when none
// was stored.
func (d *Dataset) HeaderBlob() (string, error) {
	if d.closed.Load() {
		return "", ErrClosed
	}
	var blob string
	err := d.file.store.View(d.path, func(n *store.Node) error {
		v, ok := n.Get(headerKey)
		if !ok {
			return fmt.Errorf("%w: header", ErrNotFound)
		}
		blob = string(v)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return blob, nil
}

// AppendArray stores arr under name. Names are write-once.
func (d *Dataset) AppendArray(name string, arr *NDArray) error {
	if err := d.checkWritable(); err != nil {
		return err
	}
	if err := checkArrayName(name); err != nil {
		return err
	}
	if arr == nil {
		return fmt.Errorf("array %s: nil array", name)
	}
	raw, err := arr.MarshalBinary()
	if err != nil {
		return fmt.Errorf("array %s: %w", name, err)
	}
	err = d.file.store.Update(d.path, func(n *store.Node) error {
		return n.PutNamed(arraysBucket, name, raw)
	})
	if err != nil {
		return fmt.Errorf("dataset %s array %s: %w", d.path, name, err)
	}
	d.logger.Debug("stored array", "name", name, "dims", arr.Dims, "type", arr.DataType.String())
	return nil
}

// ReadArray reads the array stored under name.
func (d *Dataset) ReadArray(name string) (*NDArray, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if err := checkArrayName(name); err != nil {
		return nil, err
	}
	var raw []byte
	err := d.file.store.View(d.path, func(n *store.Node) error {
		var err error
		raw, err = n.GetNamed(arraysBucket, name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	arr := new(NDArray)
	if err := arr.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("dataset %s array %s: %w", d.path, name, err)
	}
	return arr, nil
}

// ArrayNames returns the stored array names in sorted order.
func (d *Dataset) ArrayNames() ([]string, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	var names []string
	err := d.file.store.View(d.path, func(n *store.Node) error {
		names = n.Names(arraysBucket)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.path, err)
	}
	return names, nil
}

// Records calls fn for every record in order until fn returns an error.
// Returning ErrStopWalk stops without error.
func (d *Dataset) Records(fn func(i uint64, rec Record) error) error {
	count, err := d.RecordCount()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		rec, err := d.ReadRecord(i)
		if err != nil {
			return err
		}
		if err := fn(i, rec); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
	}
	return nil
}
