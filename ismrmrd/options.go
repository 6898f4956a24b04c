package ismrmrd

import (
	"time"

	"cosmossdk.io/log"

	"github.com/robert-malhotra/go-ismrmrd/internal/filter"
)

// DefaultLockTimeout bounds the wait for the container file lock.
const DefaultLockTimeout = 5 * time.Second

// FileOption configures how a container file is opened.
type FileOption func(*fileOptions)

type fileOptions struct {
	logger      log.Logger
	lockTimeout time.Duration
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		logger:      log.NewNopLogger(),
		lockTimeout: DefaultLockTimeout,
	}
}

// WithLogger sets the logger of the file and the datasets opened from it.
func WithLogger(l log.Logger) FileOption {
	return func(o *fileOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLockTimeout sets how long opening waits for another handle to release
// the file lock. Zero waits forever.
func WithLockTimeout(d time.Duration) FileOption {
	return func(o *fileOptions) {
		if d >= 0 {
			o.lockTimeout = d
		}
	}
}

// Mode selects read-only or read-write access to a dataset.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func (m Mode) String() string {
	if m == ReadWrite {
		return "read-write"
	}
	return "read-only"
}

// DatasetOption configures a dataset handle.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	create         bool
	compressionLvl int
	shuffle        bool
	fletcher32     bool
	encodingCheck  bool
	fileOpts       []FileOption
}

func defaultDatasetOptions() *datasetOptions {
	return &datasetOptions{}
}

// filterMask returns the filters applied to appended payloads.
func (o *datasetOptions) filterMask() filter.Mask {
	var m filter.Mask
	if o.shuffle {
		m |= filter.MaskShuffle
	}
	if o.compressionLvl > 0 {
		m |= filter.MaskDeflate
	}
	if o.fletcher32 {
		m |= filter.MaskFletcher32
	}
	return m
}

// WithCreate creates the dataset when it does not exist. It only applies
// to ReadWrite opens.
func WithCreate() DatasetOption {
	return func(o *datasetOptions) {
		o.create = true
	}
}

// WithCompression sets the DEFLATE level for appended payloads (1-9,
// 0 = none).
func WithCompression(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level >= 0 && level <= 9 {
			o.compressionLvl = level
		}
	}
}

// WithShuffle enables the byte shuffle filter (improves compression).
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.shuffle = true
	}
}

// WithFletcher32 appends a Fletcher-32 checksum to every stored payload.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) {
		o.fletcher32 = true
	}
}

// WithEncodingCheck checks appended acquisitions against the channel count
// and readout length found in the dataset's XML header.
func WithEncodingCheck() DatasetOption {
	return func(o *datasetOptions) {
		o.encodingCheck = true
	}
}

// WithFileOptions passes options to the file opened by the package level
// OpenDataset. Datasets opened from an existing File ignore it.
func WithFileOptions(opts ...FileOption) DatasetOption {
	return func(o *datasetOptions) {
		o.fileOpts = append(o.fileOpts, opts...)
	}
}
