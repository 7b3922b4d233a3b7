package relocate

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/projnorm/internal/project"
	"github.com/leapstack-labs/projnorm/internal/testutil"
)

func TestRelocate_AssignsRootSlashID(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := filepath.FromSlash("/work/build")
	r := New(fs, root, testutil.NewTestLogger(t))

	subs := []*project.Subproject{
		{ID: "app"},
		{ID: "image-picker"},
		{ID: "feature:login"},
	}
	require.NoError(t, r.Relocate(subs))

	for _, s := range subs {
		assert.Equal(t, filepath.Join(root, s.ID), s.OutputDir)
		assert.True(t, strings.HasPrefix(s.OutputDir, root+string(filepath.Separator)),
			"%s should live under %s", s.OutputDir, root)
		assert.True(t, Within(root, s.OutputDir))
	}
}

func TestRelocate_CreatesMissingRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := filepath.FromSlash("/work/nested/build")

	exists, err := afero.DirExists(fs, root)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, New(fs, root, nil).Relocate(nil))

	exists, err = afero.DirExists(fs, root)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRelocate_OverwritesPreviousOutputDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := filepath.FromSlash("/work/build")
	s := &project.Subproject{ID: "camera", OutputDir: filepath.FromSlash("/work/camera/build")}

	require.NoError(t, New(fs, root, nil).Relocate([]*project.Subproject{s}))
	assert.Equal(t, filepath.Join(root, "camera"), s.OutputDir)
}

func TestRelocate_CleansRoot(t *testing.T) {
	r := New(afero.NewMemMapFs(), filepath.FromSlash("/work/../work/build/"), nil)
	assert.Equal(t, filepath.FromSlash("/work/build"), r.Root())
}

func TestRelocate_MkdirFailure(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := New(fs, filepath.FromSlash("/work/build"), nil).Relocate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating root build directory")
}

func TestWithin(t *testing.T) {
	root := filepath.FromSlash("/work/build")
	tests := []struct {
		path string
		want bool
	}{
		{filepath.FromSlash("/work/build/app"), true},
		{filepath.FromSlash("/work/build/a/b"), true},
		{filepath.FromSlash("/work/build"), false},
		{filepath.FromSlash("/work/build/.."), false},
		{filepath.FromSlash("/work/buildx"), false},
		{filepath.FromSlash("/work/other"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Within(root, tt.path), tt.path)
	}
}

func TestClean(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := filepath.FromSlash("/work/build")
	r := New(fs, root, nil)

	require.NoError(t, afero.WriteFile(fs, filepath.Join(root, "app", "out.apk"), []byte("x"), 0o644))
	require.NoError(t, r.Clean())

	exists, err := afero.Exists(fs, root)
	require.NoError(t, err)
	assert.False(t, exists)

	// Cleaning twice is fine.
	assert.NoError(t, r.Clean())
}
