package ismrmrd

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-ismrmrd/internal/store"
)

// ErrStopWalk can be returned from a walk callback to stop walking without
// an error.
var ErrStopWalk = errors.New("walk stopped")

// DatasetInfo summarizes one dataset during a walk.
type DatasetInfo struct {
	Path        string
	RecordCount uint64
	HasHeader   bool
	HeaderBytes int
	Arrays      []string
	// Images maps image variable names to their image counts.
	Images map[string]uint64
}

// WalkFunc is called for each dataset in path order.
type WalkFunc func(info DatasetInfo) error

// Walk calls fn for every dataset in the file.
//
// Example:
//
//	ismrmrd.Walk(f, func(info ismrmrd.DatasetInfo) error {
//	    fmt.Println(info.Path, info.RecordCount)
//	    return nil
//	})
func Walk(f *File, fn WalkFunc) error {
	paths, err := f.store.Nodes()
	if err != nil {
		return err
	}
	for _, p := range paths {
		info := DatasetInfo{Path: p}
		err := f.store.View(p, func(n *store.Node) error {
			info.RecordCount = n.Count(recordsStream)
			blob, ok := n.Get(headerKey)
			info.HasHeader = ok
			info.HeaderBytes = len(blob)
			info.Arrays = n.Names(arraysBucket)
			for _, v := range n.Names(imagesBucket) {
				if info.Images == nil {
					info.Images = make(map[string]uint64)
				}
				info.Images[v] = n.CountIn(imagesBucket, v)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("walking %s: %w", p, err)
		}
		if err := fn(info); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
	}
	return nil
}
