package manifest

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	assert.True(t, Matches(DefaultGlobs, "AndroidManifest.xml"))
	assert.True(t, Matches(DefaultGlobs, "src/main/AndroidManifest.xml"))
	assert.True(t, Matches(DefaultGlobs, filepath.Join("a", "b", "AndroidManifest.xml")))
	assert.False(t, Matches(DefaultGlobs, "src/main/Other.xml"))
	assert.True(t, Matches([]string{"intermediates/**/*.xml"}, "intermediates/merged/debug/x.xml"))
	assert.False(t, Matches(nil, "AndroidManifest.xml"))
}

func TestValidateGlobs(t *testing.T) {
	assert.NoError(t, ValidateGlobs(DefaultGlobs))
	assert.Error(t, ValidateGlobs([]string{"[unclosed"}))
}

func TestFind(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := filepath.FromSlash("/proj")
	files := []string{
		"app/src/main/AndroidManifest.xml",
		"packages/camera/android/src/main/AndroidManifest.xml",
		"packages/camera/android/src/main/res/values.xml",
		".gradle/cache/AndroidManifest.xml",
	}
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(root, filepath.FromSlash(f)), []byte("<manifest/>"), 0o644))
	}

	found, err := Find(fs, root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "app", "src", "main", "AndroidManifest.xml"),
		filepath.Join(root, "packages", "camera", "android", "src", "main", "AndroidManifest.xml"),
	}, found)
}

func TestFind_MissingDir(t *testing.T) {
	found, err := Find(afero.NewMemMapFs(), "/nowhere", nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}
