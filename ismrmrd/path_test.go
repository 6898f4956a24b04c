package ismrmrd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"/dataset", "/dataset", false},
		{"dataset", "/dataset", false},
		{"/study/run1/", "/study/run1", false},
		{"", "", true},
		{"/", "", true},
		{"/a//b", "", true},
		{"/a/../b", "", true},
		{"/a/./b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := CleanPath(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSplitJoinPath(t *testing.T) {
	parts, err := SplitPath("/a/b/c")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, parts)
	require.Equal(t, "/a/b/c", JoinPath(parts...))
	require.Equal(t, "/x", JoinPath("x"))
}

func TestCheckArrayName(t *testing.T) {
	require.NoError(t, checkArrayName("noise_covariance"))
	require.ErrorIs(t, checkArrayName(""), ErrInvalidPath)
	require.ErrorIs(t, checkArrayName("a/b"), ErrInvalidPath)
}
