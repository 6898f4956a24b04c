// Package store persists dataset nodes in a bbolt database.
//
// The database holds one top-level bucket, "datasets". Every logical
// dataset path owns a bucket below it, keyed by the cleaned path string:
//
//	datasets/
//	  /dataset/
//	    xml            opaque metadata blob
//	    records/       append-only stream, 8-byte big-endian index -> entry
//	    arrays/        name -> encoded array
//
// Streams use the bucket sequence as their length, so the next index and
// the stored entry are committed in the same transaction and a failed
// append leaves both untouched. Every Update commits with fsync.
package store
