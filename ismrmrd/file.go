package ismrmrd

import (
	"errors"
	"fmt"
	"os"

	"cosmossdk.io/log"

	"github.com/robert-malhotra/go-ismrmrd/internal/store"
)

// File is an open container file. Any number of Dataset handles may be
// opened from one File and used concurrently.
type File struct {
	path     string
	store    *store.Store
	readOnly bool
	logger   log.Logger
}

// Create creates a new container file, truncating any existing file.
func Create(filename string, opts ...FileOption) (*File, error) {
	o := applyFileOptions(opts)
	s, err := store.Create(filename, store.Options{Timeout: o.lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	o.logger.Info("created container", "file", filename)
	return newFile(filename, s, o), nil
}

// Open opens an existing container file for reading. Readers share a lock
// on the file, so Open waits while a read-write File is open elsewhere and
// fails with ErrLocked once the lock timeout passes.
func Open(filename string, opts ...FileOption) (*File, error) {
	o := applyFileOptions(opts)
	s, err := store.Open(filename, store.Options{ReadOnly: true, Timeout: o.lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	o.logger.Info("opened container", "file", filename, "mode", ReadOnly.String())
	return newFile(filename, s, o), nil
}

// OpenReadWrite opens a container file for reading and appending, creating
// it if it does not exist. The File holds an exclusive lock until Close:
// any other Open or OpenReadWrite of the same file, in this process or
// another, waits for it and fails with ErrLocked after the lock timeout.
func OpenReadWrite(filename string, opts ...FileOption) (*File, error) {
	o := applyFileOptions(opts)
	s, err := store.Open(filename, store.Options{Timeout: o.lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	o.logger.Info("opened container", "file", filename, "mode", ReadWrite.String())
	return newFile(filename, s, o), nil
}

func applyFileOptions(opts []FileOption) *fileOptions {
	o := defaultFileOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func newFile(filename string, s *store.Store, o *fileOptions) *File {
	return &File{
		path:     filename,
		store:    s,
		readOnly: s.ReadOnly(),
		logger:   o.logger.With("file", filename),
	}
}

// Close closes the file. Datasets opened from it fail with ErrClosed
// afterwards. Close is idempotent.
func (f *File) Close() error {
	return f.store.Close()
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// ReadOnly reports whether the file was opened with Open.
func (f *File) ReadOnly() bool {
	return f.readOnly
}

// Datasets returns the paths of all datasets in the file, sorted.
func (f *File) Datasets() ([]string, error) {
	return f.store.Nodes()
}

// HasDataset reports whether a dataset exists at path.
func (f *File) HasDataset(path string) (bool, error) {
	key, err := CleanPath(path)
	if err != nil {
		return false, err
	}
	return f.store.HasNode(key)
}

// CreateDataset creates an empty dataset at path and opens it for
// appending. An existing dataset is an error unless allowOverwrite is set,
// in which case its records, header and arrays are discarded.
func (f *File) CreateDataset(path string, allowOverwrite bool, opts ...DatasetOption) (*Dataset, error) {
	key, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	if f.readOnly {
		return nil, fmt.Errorf("creating dataset %s: %w", key, ErrReadOnly)
	}
	if err := f.store.CreateNode(key, allowOverwrite); err != nil {
		return nil, fmt.Errorf("creating dataset %s: %w", key, err)
	}
	f.logger.Info("created dataset", "path", key, "overwrite", allowOverwrite)
	return f.newDataset(key, ReadWrite, applyDatasetOptions(opts)), nil
}

// OpenDataset opens the dataset at path. A missing dataset is ErrNotFound
// unless mode is ReadWrite and WithCreate is given. A read-only File only
// opens ReadOnly datasets.
func (f *File) OpenDataset(path string, mode Mode, opts ...DatasetOption) (*Dataset, error) {
	key, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	if mode == ReadWrite && f.readOnly {
		return nil, fmt.Errorf("opening dataset %s: %w", key, ErrReadOnly)
	}
	o := applyDatasetOptions(opts)

	ok, err := f.store.HasNode(key)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", key, err)
	}
	if !ok {
		if mode != ReadWrite || !o.create {
			return nil, fmt.Errorf("opening dataset %s: %w", key, ErrNotFound)
		}
		// Another handle may have created it in the meantime.
		if err := f.store.CreateNode(key, false); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return nil, fmt.Errorf("creating dataset %s: %w", key, err)
		}
		f.logger.Info("created dataset", "path", key)
	}
	f.logger.Debug("opened dataset", "path", key, "mode", mode.String())
	return f.newDataset(key, mode, o), nil
}

func applyDatasetOptions(opts []DatasetOption) *datasetOptions {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (f *File) newDataset(key string, mode Mode, o *datasetOptions) *Dataset {
	return &Dataset{
		file:     f,
		path:     key,
		readOnly: mode != ReadWrite,
		opts:     o,
		logger:   f.logger.With("path", key),
	}
}

// OpenDataset opens filename and the dataset at path in one step. The file
// is opened read-only for ReadOnly and read-write otherwise, and is closed
// with the dataset. A missing file is only created for ReadWrite with
// WithCreate. The locking rules of Open and OpenReadWrite apply for the
// lifetime of the dataset handle.
func OpenDataset(filename, path string, mode Mode, opts ...DatasetOption) (*Dataset, error) {
	o := applyDatasetOptions(opts)
	open := Open
	if mode == ReadWrite {
		open = OpenReadWrite
		if !o.create {
			if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("opening file: %w: %s", ErrNotFound, filename)
			}
		}
	}
	f, err := open(filename, o.fileOpts...)
	if err != nil {
		return nil, err
	}
	d, err := f.OpenDataset(path, mode, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.ownsFile = true
	return d, nil
}
