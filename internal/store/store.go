package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	ErrReadOnly = errors.New("read-only")
	ErrClosed   = errors.New("closed")
	ErrLocked   = errors.New("locked by another process")
)

var datasetsBucket = []byte("datasets")

// Options configures how the database file is opened.
type Options struct {
	ReadOnly bool
	// Timeout bounds the wait for the file lock. Zero waits forever.
	Timeout time.Duration
}

// Store is an open database file. It is safe for concurrent use; Close
// waits for running transactions.
type Store struct {
	mu       sync.RWMutex
	db       *bolt.DB
	path     string
	readOnly bool
}

// Create creates a new database file at path, replacing any existing file.
func Create(path string, opts Options) (*Store, error) {
	if opts.ReadOnly {
		return nil, ErrReadOnly
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing existing file: %w", err)
	}
	return Open(path, opts)
}

// Open opens the database file at path. A missing file is created unless
// opts.ReadOnly is set, in which case ErrNotFound is returned.
//
// A read-write open holds an exclusive lock on the file until Close, and a
// read-only open holds a shared one. Opens that cannot take the lock within
// opts.Timeout fail with ErrLocked.
func Open(path string, opts Options) (*Store, error) {
	if opts.ReadOnly {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return nil, err
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{
		ReadOnly: opts.ReadOnly,
		Timeout:  opts.Timeout,
	})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if !opts.ReadOnly {
		if err := db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(datasetsBucket)
			return err
		}); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing %s: %w", path, err)
		}
	}

	return &Store{db: db, path: path, readOnly: opts.ReadOnly}, nil
}

// Close releases the database file. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store was opened read-only.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// CreateNode creates the node for key. An existing node is an error unless
// overwrite is set, in which case its contents are discarded.
func (s *Store) CreateNode(key string, overwrite bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(datasetsBucket)
		if root == nil {
			return fmt.Errorf("datasets bucket missing")
		}
		if root.Bucket([]byte(key)) != nil {
			if !overwrite {
				return fmt.Errorf("%w: %s", ErrExists, key)
			}
			if err := root.DeleteBucket([]byte(key)); err != nil {
				return err
			}
		}
		_, err := root.CreateBucket([]byte(key))
		return err
	})
}

// HasNode reports whether a node exists for key.
func (s *Store) HasNode(key string) (bool, error) {
	found := false
	err := s.view(func(root *bolt.Bucket) error {
		found = root.Bucket([]byte(key)) != nil
		return nil
	})
	return found, err
}

// Nodes returns all node keys in sorted order.
func (s *Store) Nodes() ([]string, error) {
	var keys []string
	err := s.view(func(root *bolt.Bucket) error {
		return root.ForEachBucket(func(k []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	sort.Strings(keys)
	return keys, err
}

// View runs fn in a read transaction on the node for key.
func (s *Store) View(key string, fn func(n *Node) error) error {
	return s.view(func(root *bolt.Bucket) error {
		b := root.Bucket([]byte(key))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fn(&Node{b: b})
	})
}

// Update runs fn in a write transaction on the node for key. The
// transaction is committed and synced before Update returns; if fn fails
// nothing is written.
func (s *Store) Update(key string, fn func(n *Node) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(datasetsBucket)
		if root == nil {
			return fmt.Errorf("datasets bucket missing")
		}
		b := root.Bucket([]byte(key))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fn(&Node{b: b, writable: true})
	})
}

func (s *Store) view(fn func(root *bolt.Bucket) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	return s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(datasetsBucket)
		if root == nil {
			// A read-only open of a file never written by this package.
			return fmt.Errorf("%w: datasets bucket", ErrNotFound)
		}
		return fn(root)
	})
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
