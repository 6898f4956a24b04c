// Package ismrmrd implements the ISMRMRD raw-data record format and an
// append-only dataset container for it.
//
// A container file holds any number of datasets addressed by slash
// separated paths. Each dataset has an ordered stream of acquisition, image
// and waveform records, one opaque XML header blob, and named auxiliary
// arrays.
package ismrmrd

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-ismrmrd/internal/store"
)

// Common errors. The storage errors are shared with the store so that they
// pass through wrapping unchanged.
var (
	ErrNotFound      = store.ErrNotFound
	ErrAlreadyExists = store.ErrExists
	ErrReadOnly      = store.ErrReadOnly
	ErrClosed        = store.ErrClosed
	ErrLocked        = store.ErrLocked
	ErrOutOfRange    = errors.New("index out of range")
	ErrInvalidPath   = errors.New("invalid path")
	ErrFormat        = errors.New("format error")
	ErrSizeMismatch  = errors.New("size mismatch")
)

// FormatError reports stored or encoded bytes that do not have the expected
// shape.
type FormatError struct {
	Field    string
	Expected int
	Actual   int
	Msg      string
}

func (e *FormatError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("format error: %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("format error: %s: expected %d, got %d", e.Field, e.Expected, e.Actual)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// SizeMismatchError reports a payload or header field that violates a size
// invariant.
type SizeMismatchError struct {
	Field    string
	Expected uint64
	Actual   uint64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch: %s: expected %d, got %d", e.Field, e.Expected, e.Actual)
}

// Is reports whether target is ErrSizeMismatch.
func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}
