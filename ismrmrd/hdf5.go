package ismrmrd

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-ismrmrd/hdf5"
)

// HDF5 interchange layout. Each dataset path becomes a group holding:
//
//	xml                 uint8, header bytes plus a NUL terminator
//	data/<i>            uint8, encoded record header then payload
//	images/<var>/<i>    uint8, as data/<i>, one group per image variable
//	arrays/<name>       numeric array, dimensions slowest first
//
// Record datasets carry a "kind" attribute. Arrays carry "data_type" and
// "version"; complex arrays are stored as their real type with a trailing
// dimension of 2.
const (
	h5Records = "data"
	h5Header  = "xml"
	h5Images  = "images"
	h5Arrays  = "arrays"
)

var h5Reserved = []string{h5Records, h5Header, h5Images, h5Arrays}

// ExportHDF5 writes every dataset of f to a new HDF5 file at filename,
// replacing any existing file. Records are written unfiltered.
func (f *File) ExportHDF5(filename string) error {
	paths, err := f.Datasets()
	if err != nil {
		return err
	}
	if err := checkExportPaths(paths); err != nil {
		return err
	}

	out, err := hdf5.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	ex := &h5Exporter{groups: map[string]*hdf5.Group{"/": out.Root()}}
	for _, p := range paths {
		if err := ex.dataset(f, p); err != nil {
			out.Close()
			return fmt.Errorf("exporting %s: %w", p, err)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filename, err)
	}
	f.logger.Info("exported hdf5", "target", filename, "datasets", len(paths))
	return nil
}

// checkExportPaths rejects a dataset nested under another dataset through
// one of the reserved group names.
func checkExportPaths(paths []string) error {
	for _, p := range paths {
		for _, q := range paths {
			if q == p || !strings.HasPrefix(p, q+"/") {
				continue
			}
			first, _, _ := strings.Cut(strings.TrimPrefix(p, q+"/"), "/")
			if slices.Contains(h5Reserved, first) {
				return fmt.Errorf("%w: %s clashes with the %s group of %s", ErrInvalidPath, p, first, q)
			}
		}
	}
	return nil
}

type h5Exporter struct {
	groups map[string]*hdf5.Group
}

// group returns the group at p, creating it and its parents as needed.
func (ex *h5Exporter) group(p string) (*hdf5.Group, error) {
	if g, ok := ex.groups[p]; ok {
		return g, nil
	}
	parent, err := ex.group(path.Dir(p))
	if err != nil {
		return nil, err
	}
	g, err := parent.CreateGroup(path.Base(p))
	if err != nil {
		return nil, err
	}
	ex.groups[p] = g
	return g, nil
}

func (ex *h5Exporter) dataset(f *File, p string) error {
	d, err := f.OpenDataset(p, ReadOnly)
	if err != nil {
		return err
	}
	defer d.Close()

	g, err := ex.group(p)
	if err != nil {
		return err
	}

	blob, err := d.HeaderBlob()
	switch {
	case err == nil:
		if _, err := g.CreateDataset(h5Header, append([]byte(blob), 0)); err != nil {
			return fmt.Errorf("header: %w", err)
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	// Always present, so that import can tell dataset groups apart.
	records, err := ex.group(path.Join(p, h5Records))
	if err != nil {
		return err
	}
	err = d.Records(func(i uint64, rec Record) error {
		return writeH5Record(records, strconv.FormatUint(i, 10), rec)
	})
	if err != nil {
		return err
	}

	vars, err := d.ImageVariables()
	if err != nil {
		return err
	}
	for _, v := range vars {
		vg, err := ex.group(path.Join(p, h5Images, v))
		if err != nil {
			return err
		}
		n, err := d.ImageCount(v)
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			img, err := d.ReadImageFrom(v, i)
			if err != nil {
				return err
			}
			if err := writeH5Record(vg, strconv.FormatUint(i, 10), img); err != nil {
				return err
			}
		}
	}

	names, err := d.ArrayNames()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	ag, err := ex.group(path.Join(p, h5Arrays))
	if err != nil {
		return err
	}
	for _, name := range names {
		arr, err := d.ReadArray(name)
		if err != nil {
			return err
		}
		if err := writeH5Array(ag, name, arr); err != nil {
			return fmt.Errorf("array %s: %w", name, err)
		}
	}
	return nil
}

func writeH5Record(g *hdf5.Group, name string, rec Record) error {
	raw := rec.encodeHeader()
	payload, _ := rec.encodePayload()
	raw = append(raw, payload...)
	_, err := g.CreateDataset(name, raw, hdf5.WithAttribute("kind", int32(rec.Kind())))
	if err != nil {
		return fmt.Errorf("%s %s: %w", rec.Kind(), name, err)
	}
	return nil
}

func writeH5Array(g *hdf5.Group, name string, arr *NDArray) error {
	shape := make([]uint64, 0, len(arr.Dims)+1)
	for i := len(arr.Dims) - 1; i >= 0; i-- {
		shape = append(shape, arr.Dims[i])
	}

	var data any
	switch v := arr.Data.(type) {
	case []complex64:
		parts := make([]float32, 0, 2*len(v))
		for _, c := range v {
			parts = append(parts, real(c), imag(c))
		}
		data = parts
		shape = append(shape, 2)
	case []complex128:
		parts := make([]float64, 0, 2*len(v))
		for _, c := range v {
			parts = append(parts, real(c), imag(c))
		}
		data = parts
		shape = append(shape, 2)
	default:
		data = arr.Data
	}

	_, err := g.CreateDataset(name, data,
		hdf5.WithShape(shape...),
		hdf5.WithAttribute("data_type", int32(arr.DataType)),
		hdf5.WithAttribute("version", int32(arr.Version)),
	)
	return err
}

// ImportHDF5 copies every dataset group found in the HDF5 file at filename
// into f and returns their paths. Existing datasets are replaced only when
// overwrite is set.
func (f *File) ImportHDF5(filename string, overwrite bool) ([]string, error) {
	if f.readOnly {
		return nil, fmt.Errorf("importing %s: %w", filename, ErrReadOnly)
	}
	in, err := hdf5.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}
	defer in.Close()

	var found []string
	var skip []string
	err = hdf5.Walk(in.Root(), func(p string, obj interface{}, err error) error {
		if err != nil {
			return err
		}
		g, ok := obj.(*hdf5.Group)
		if !ok || p == "/" {
			return nil
		}
		for _, s := range skip {
			if p == s || strings.HasPrefix(p, s+"/") {
				return nil
			}
		}
		members, err := g.Members()
		if err != nil {
			return err
		}
		if !slices.Contains(members, h5Records) {
			return nil
		}
		if _, err := g.OpenGroup(h5Records); err != nil {
			return nil
		}
		for _, r := range []string{h5Records, h5Images, h5Arrays} {
			skip = append(skip, path.Join(p, r))
		}
		if err := f.importH5Dataset(g, p, overwrite); err != nil {
			return fmt.Errorf("importing %s: %w", p, err)
		}
		found = append(found, p)
		return nil
	})
	if err != nil {
		return found, err
	}
	f.logger.Info("imported hdf5", "source", filename, "datasets", len(found))
	return found, nil
}

func (f *File) importH5Dataset(g *hdf5.Group, p string, overwrite bool) error {
	d, err := f.CreateDataset(p, overwrite)
	if err != nil {
		return err
	}
	defer d.Close()

	members, err := g.Members()
	if err != nil {
		return err
	}

	if slices.Contains(members, h5Header) {
		ds, err := g.OpenDataset(h5Header)
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		raw, err := ds.ReadUint8()
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		if n := len(raw); n > 0 && raw[n-1] == 0 {
			raw = raw[:n-1]
		}
		if err := d.SetHeaderBlob(string(raw)); err != nil {
			return err
		}
	}

	records, err := g.OpenGroup(h5Records)
	if err != nil {
		return err
	}
	err = readH5Records(records, func(rec Record) error {
		_, err := d.AppendRecord(rec)
		return err
	})
	if err != nil {
		return err
	}

	if slices.Contains(members, h5Images) {
		ig, err := g.OpenGroup(h5Images)
		if err != nil {
			return err
		}
		vars, err := ig.Members()
		if err != nil {
			return err
		}
		for _, v := range vars {
			vg, err := ig.OpenGroup(v)
			if err != nil {
				return fmt.Errorf("image variable %s: %w", v, err)
			}
			err = readH5Records(vg, func(rec Record) error {
				img, ok := rec.(*Image)
				if !ok {
					return &FormatError{Field: "kind", Msg: fmt.Sprintf("image variable %s holds a %s", v, rec.Kind())}
				}
				_, err := d.AppendImageTo(v, img)
				return err
			})
			if err != nil {
				return err
			}
		}
	}

	if slices.Contains(members, h5Arrays) {
		ag, err := g.OpenGroup(h5Arrays)
		if err != nil {
			return err
		}
		names, err := ag.Members()
		if err != nil {
			return err
		}
		for _, name := range names {
			ds, err := ag.OpenDataset(name)
			if err != nil {
				return fmt.Errorf("array %s: %w", name, err)
			}
			arr, err := readH5Array(ds)
			if err != nil {
				return fmt.Errorf("array %s: %w", name, err)
			}
			if err := d.AppendArray(name, arr); err != nil {
				return err
			}
		}
	}
	return nil
}

// readH5Records calls fn for the datasets 0, 1, ... of g in index order.
func readH5Records(g *hdf5.Group, fn func(rec Record) error) error {
	members, err := g.Members()
	if err != nil {
		return err
	}
	for i := range members {
		name := strconv.Itoa(i)
		ds, err := g.OpenDataset(name)
		if err != nil {
			return fmt.Errorf("record %s: %w", name, err)
		}
		rec, err := readH5Record(ds)
		if err != nil {
			return fmt.Errorf("record %s: %w", name, err)
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("record %s: %w", name, err)
		}
	}
	return nil
}

func readH5Record(ds *hdf5.Dataset) (Record, error) {
	attr := ds.Attr("kind")
	if attr == nil {
		return nil, &FormatError{Field: "kind", Msg: "missing kind attribute"}
	}
	k, err := attr.ReadScalarInt64()
	if err != nil {
		return nil, err
	}
	kind := Kind(k)
	n, ok := headerSize(kind)
	if !ok {
		return nil, &FormatError{Field: "kind", Msg: fmt.Sprintf("unknown record kind %d", k)}
	}
	raw, err := ds.ReadUint8()
	if err != nil {
		return nil, err
	}
	if len(raw) < n {
		return nil, &FormatError{Field: kind.String() + "_header", Expected: n, Actual: len(raw)}
	}
	return decodeRecord(kind, raw[:n], raw[n:])
}

func readH5Array(ds *hdf5.Dataset) (*NDArray, error) {
	code, err := h5IntAttr(ds, "data_type")
	if err != nil {
		return nil, err
	}
	version, err := h5IntAttr(ds, "version")
	if err != nil {
		return nil, err
	}
	dt := DataType(code)
	if !dt.Valid() {
		return nil, &FormatError{Field: "data_type", Msg: fmt.Sprintf("unknown data type %d", code)}
	}

	shape := ds.Shape()
	complexType := dt == TypeCxFloat || dt == TypeCxDouble
	if complexType {
		if len(shape) == 0 || shape[len(shape)-1] != 2 {
			return nil, &FormatError{Field: "shape", Msg: fmt.Sprintf("complex array shape %v lacks a trailing 2", shape)}
		}
		shape = shape[:len(shape)-1]
	}
	dims := make([]uint64, 0, len(shape))
	for i := len(shape) - 1; i >= 0; i-- {
		dims = append(dims, shape[i])
	}

	arr, err := NewNDArray(dt, dims...)
	if err != nil {
		return nil, err
	}
	arr.Version = uint16(version)
	if arr.NumberOfElements() == 0 {
		return arr, nil
	}
	if arr.Data, err = readH5Data(ds, dt); err != nil {
		return nil, err
	}
	return arr, arr.Validate()
}

func h5IntAttr(ds *hdf5.Dataset, name string) (int64, error) {
	attr := ds.Attr(name)
	if attr == nil {
		return 0, &FormatError{Field: name, Msg: "missing attribute"}
	}
	return attr.ReadScalarInt64()
}

func readH5Data(ds *hdf5.Dataset, dt DataType) (any, error) {
	switch dt {
	case TypeUShort:
		v, err := ds.ReadUint16()
		return v, err
	case TypeShort:
		v, err := ds.ReadInt16()
		return v, err
	case TypeUInt:
		v, err := ds.ReadUint32()
		return v, err
	case TypeInt:
		v, err := ds.ReadInt32()
		return v, err
	case TypeFloat:
		v, err := ds.ReadFloat32()
		return v, err
	case TypeDouble:
		v, err := ds.ReadFloat64()
		return v, err
	case TypeCxFloat:
		parts, err := ds.ReadFloat32()
		if err != nil {
			return nil, err
		}
		v := make([]complex64, len(parts)/2)
		for i := range v {
			v[i] = complex(parts[2*i], parts[2*i+1])
		}
		return v, nil
	case TypeCxDouble:
		parts, err := ds.ReadFloat64()
		if err != nil {
			return nil, err
		}
		v := make([]complex128, len(parts)/2)
		for i := range v {
			v[i] = complex(parts[2*i], parts[2*i+1])
		}
		return v, nil
	}
	return nil, &FormatError{Field: "data_type", Msg: fmt.Sprintf("unknown data type %d", uint16(dt))}
}
