package store

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Node is a dataset bucket inside a transaction. It must not be used after
// the View or Update callback returns.
type Node struct {
	b        *bolt.Bucket
	writable bool
}

// Get returns a copy of the value stored under key and whether the key
// exists. An empty stored value is returned as a non-nil empty slice.
func (n *Node) Get(key string) ([]byte, bool) {
	k, v := n.b.Cursor().Seek([]byte(key))
	if k == nil || string(k) != key || n.b.Bucket(k) != nil {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// Put stores value under key, replacing any previous value.
func (n *Node) Put(key string, value []byte) error {
	if !n.writable {
		return ErrReadOnly
	}
	return n.b.Put([]byte(key), value)
}

// Append stores value as the next entry of stream and returns its
// zero-based index.
func (n *Node) Append(stream string, value []byte) (uint64, error) {
	if !n.writable {
		return 0, ErrReadOnly
	}
	b, err := n.b.CreateBucketIfNotExists([]byte(stream))
	if err != nil {
		return 0, fmt.Errorf("stream %s: %w", stream, err)
	}
	seq, err := b.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("stream %s: %w", stream, err)
	}
	index := seq - 1
	if err := b.Put(itob(index), value); err != nil {
		return 0, fmt.Errorf("stream %s entry %d: %w", stream, index, err)
	}
	return index, nil
}

// Count returns the number of entries appended to stream.
func (n *Node) Count(stream string) uint64 {
	b := n.b.Bucket([]byte(stream))
	if b == nil {
		return 0
	}
	return b.Sequence()
}

// Entry returns a copy of entry index of stream.
func (n *Node) Entry(stream string, index uint64) ([]byte, error) {
	b := n.b.Bucket([]byte(stream))
	if b == nil {
		return nil, fmt.Errorf("%w: %s[%d]", ErrNotFound, stream, index)
	}
	v := b.Get(itob(index))
	if v == nil {
		return nil, fmt.Errorf("%w: %s[%d]", ErrNotFound, stream, index)
	}
	return clone(v), nil
}

// AppendIn appends value to stream inside the group bucket, creating both
// as needed.
func (n *Node) AppendIn(group, stream string, value []byte) (uint64, error) {
	if !n.writable {
		return 0, ErrReadOnly
	}
	g, err := n.b.CreateBucketIfNotExists([]byte(group))
	if err != nil {
		return 0, fmt.Errorf("group %s: %w", group, err)
	}
	sub := &Node{b: g, writable: true}
	return sub.Append(stream, value)
}

// CountIn returns the number of entries in stream inside group.
func (n *Node) CountIn(group, stream string) uint64 {
	g := n.b.Bucket([]byte(group))
	if g == nil {
		return 0
	}
	return (&Node{b: g}).Count(stream)
}

// EntryIn returns a copy of entry index of stream inside group.
func (n *Node) EntryIn(group, stream string, index uint64) ([]byte, error) {
	g := n.b.Bucket([]byte(group))
	if g == nil {
		return nil, fmt.Errorf("%w: %s/%s[%d]", ErrNotFound, group, stream, index)
	}
	return (&Node{b: g}).Entry(stream, index)
}

// PutNamed stores value under name in the named-value bucket. Names are
// write-once.
func (n *Node) PutNamed(bucket, name string, value []byte) error {
	if !n.writable {
		return ErrReadOnly
	}
	b, err := n.b.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return fmt.Errorf("bucket %s: %w", bucket, err)
	}
	if b.Get([]byte(name)) != nil {
		return fmt.Errorf("%w: %s/%s", ErrExists, bucket, name)
	}
	return b.Put([]byte(name), value)
}

// GetNamed returns a copy of the value stored under name.
func (n *Node) GetNamed(bucket, name string) ([]byte, error) {
	b := n.b.Bucket([]byte(bucket))
	if b == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, name)
	}
	v := b.Get([]byte(name))
	if v == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, name)
	}
	return clone(v), nil
}

// Names returns the names stored in bucket in key order.
func (n *Node) Names(bucket string) []string {
	b := n.b.Bucket([]byte(bucket))
	if b == nil {
		return nil
	}
	var names []string
	_ = b.ForEach(func(k, _ []byte) error {
		names = append(names, string(k))
		return nil
	})
	return names
}

func clone(v []byte) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
