package hdf5

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeepGroupsKeepLinksAfterRewrite(t *testing.T) {
	name := filepath.Join(t.TempDir(), "deep.h5")
	f, err := Create(name)
	require.NoError(t, err)

	a, err := f.Root().CreateGroup("a")
	require.NoError(t, err)
	b, err := a.CreateGroup("b")
	require.NoError(t, err)
	c, err := b.CreateGroup("c")
	require.NoError(t, err)

	// Every dataset moves c's header, which has to be relinked from b.
	for _, n := range []string{"x", "y", "z"} {
		_, err := c.CreateDataset(n, []int32{1, 2, 3})
		require.NoError(t, err)
	}
	_, err = a.CreateDataset("w", []uint8{9})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(name)
	require.NoError(t, err)
	defer r.Close()

	g, err := r.OpenGroup("/a/b/c")
	require.NoError(t, err)
	members, err := g.Members()
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y", "z"}, members)

	ds, err := r.OpenDataset("/a/b/c/z")
	require.NoError(t, err)
	v, err := ds.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3}, v)

	top, err := r.OpenGroup("/a")
	require.NoError(t, err)
	members, err = top.Members()
	require.NoError(t, err)
	require.Equal(t, []string{"b", "w"}, members)
}

func TestCreateDatasetWithShape(t *testing.T) {
	name := filepath.Join(t.TempDir(), "shape.h5")
	f, err := Create(name)
	require.NoError(t, err)

	data := []float32{0, 1, 2, 3, 4, 5}
	_, err = f.Root().CreateDataset("m", data,
		WithShape(2, 3),
		WithAttribute("data_type", int32(5)),
	)
	require.NoError(t, err)

	_, err = f.Root().CreateDataset("bad", data, WithShape(4, 2))
	require.Error(t, err)
	require.NoError(t, f.Close())

	r, err := Open(name)
	require.NoError(t, err)
	defer r.Close()
	ds, err := r.OpenDataset("m")
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 3}, ds.Shape())
	got, err := ds.ReadFloat32()
	require.NoError(t, err)
	require.Equal(t, data, got)

	code, err := ds.Attr("data_type").ReadScalarInt64()
	require.NoError(t, err)
	require.Equal(t, int64(5), code)
}
