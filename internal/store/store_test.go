package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Create(path, Options{Timeout: time.Second})
	require.NoError(t, err)
	return s, path
}

func TestOpenMissingReadOnly(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db"), Options{ReadOnly: true})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsReadOnly(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "x.db"), Options{ReadOnly: true})
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestCreateNode(t *testing.T) {
	s, _ := newStore(t)
	defer s.Close()

	require.NoError(t, s.CreateNode("/a", false))
	require.ErrorIs(t, s.CreateNode("/a", false), ErrExists)

	ok, err := s.HasNode("/a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.HasNode("/b")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.CreateNode("/b", false))
	nodes, err := s.Nodes()
	require.NoError(t, err)
	require.Equal(t, []string{"/a", "/b"}, nodes)
}

func TestOverwriteDropsContents(t *testing.T) {
	s, _ := newStore(t)
	defer s.Close()

	require.NoError(t, s.CreateNode("/a", false))
	require.NoError(t, s.Update("/a", func(n *Node) error {
		_, err := n.Append("records", []byte("one"))
		return err
	}))
	require.NoError(t, s.CreateNode("/a", true))
	require.NoError(t, s.View("/a", func(n *Node) error {
		require.Zero(t, n.Count("records"))
		return nil
	}))
}

func TestStreamAppend(t *testing.T) {
	s, path := newStore(t)
	require.NoError(t, s.CreateNode("/d", false))

	for i, v := range []string{"a", "bb", "ccc"} {
		require.NoError(t, s.Update("/d", func(n *Node) error {
			idx, err := n.Append("records", []byte(v))
			require.Equal(t, uint64(i), idx)
			return err
		}))
	}
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	ro, err := Open(path, Options{ReadOnly: true, Timeout: time.Second})
	require.NoError(t, err)
	defer ro.Close()
	require.True(t, ro.ReadOnly())

	require.NoError(t, ro.View("/d", func(n *Node) error {
		require.Equal(t, uint64(3), n.Count("records"))
		v, err := n.Entry("records", 1)
		require.NoError(t, err)
		require.Equal(t, []byte("bb"), v)
		_, err = n.Entry("records", 3)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = n.Append("records", nil)
		require.ErrorIs(t, err, ErrReadOnly)
		return nil
	}))

	require.ErrorIs(t, ro.Update("/d", func(*Node) error { return nil }), ErrReadOnly)
	require.ErrorIs(t, ro.CreateNode("/e", false), ErrReadOnly)
}

func TestFailedUpdateRollsBack(t *testing.T) {
	s, _ := newStore(t)
	defer s.Close()
	require.NoError(t, s.CreateNode("/d", false))

	err := s.Update("/d", func(n *Node) error {
		if _, err := n.Append("records", []byte("x")); err != nil {
			return err
		}
		return ErrExists
	})
	require.ErrorIs(t, err, ErrExists)

	require.NoError(t, s.View("/d", func(n *Node) error {
		require.Zero(t, n.Count("records"))
		return nil
	}))
}

func TestNamedValues(t *testing.T) {
	s, _ := newStore(t)
	defer s.Close()
	require.NoError(t, s.CreateNode("/d", false))

	require.NoError(t, s.Update("/d", func(n *Node) error {
		require.NoError(t, n.Put("xml", []byte("<x/>")))
		require.NoError(t, n.Put("empty", []byte{}))
		require.NoError(t, n.PutNamed("arrays", "b", []byte{2}))
		require.NoError(t, n.PutNamed("arrays", "a", []byte{1}))
		require.ErrorIs(t, n.PutNamed("arrays", "a", []byte{3}), ErrExists)
		return nil
	}))

	require.NoError(t, s.View("/d", func(n *Node) error {
		v, ok := n.Get("xml")
		require.True(t, ok)
		require.Equal(t, []byte("<x/>"), v)
		_, ok = n.Get("missing")
		require.False(t, ok)
		_, ok = n.Get("arrays")
		require.False(t, ok)
		require.Equal(t, []string{"a", "b"}, n.Names("arrays"))
		require.Nil(t, n.Names("nothing"))
		v, ok = n.Get("empty")
		require.True(t, ok)
		require.Empty(t, v)
		v, err := n.GetNamed("arrays", "a")
		require.NoError(t, err)
		require.Equal(t, []byte{1}, v)
		_, err = n.GetNamed("arrays", "z")
		require.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}

func TestGroupedStreams(t *testing.T) {
	s, _ := newStore(t)
	defer s.Close()

	require.NoError(t, s.CreateNode("/a", false))
	require.NoError(t, s.Update("/a", func(n *Node) error {
		for _, v := range []string{"x0", "x1"} {
			if _, err := n.AppendIn("images", "mag", []byte(v)); err != nil {
				return err
			}
		}
		i, err := n.AppendIn("images", "phase", []byte("p0"))
		require.Equal(t, uint64(0), i)
		return err
	}))

	require.NoError(t, s.View("/a", func(n *Node) error {
		require.Equal(t, uint64(2), n.CountIn("images", "mag"))
		require.Equal(t, uint64(1), n.CountIn("images", "phase"))
		require.Zero(t, n.CountIn("images", "other"))
		require.Zero(t, n.CountIn("nothing", "mag"))
		require.Equal(t, []string{"mag", "phase"}, n.Names("images"))

		v, err := n.EntryIn("images", "mag", 1)
		require.NoError(t, err)
		require.Equal(t, []byte("x1"), v)

		_, err = n.EntryIn("images", "mag", 2)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = n.EntryIn("nothing", "mag", 0)
		require.ErrorIs(t, err, ErrNotFound)
		return nil
	}))

	require.NoError(t, s.View("/a", func(n *Node) error {
		_, err := n.AppendIn("images", "mag", []byte("x"))
		require.ErrorIs(t, err, ErrReadOnly)
		return nil
	}))
}

func TestSecondWriterIsLocked(t *testing.T) {
	s, path := newStore(t)
	defer s.Close()

	_, err := Open(path, Options{Timeout: 50 * time.Millisecond})
	require.ErrorIs(t, err, ErrLocked)
}

func TestMissingNode(t *testing.T) {
	s, _ := newStore(t)
	defer s.Close()
	require.ErrorIs(t, s.View("/nope", func(*Node) error { return nil }), ErrNotFound)
	require.ErrorIs(t, s.Update("/nope", func(*Node) error { return nil }), ErrNotFound)
}

func TestClosedStore(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Close())
	_, err := s.Nodes()
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.CreateNode("/a", false), ErrClosed)
}
