package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/projnorm/internal/manifest"
	"github.com/leapstack-labs/projnorm/internal/project"
	"github.com/leapstack-labs/projnorm/internal/testutil"
)

func TestWatcher_RunOnce(t *testing.T) {
	var got *Report
	var gotErr error
	w := NewWatcher(Config{ProjectDir: projectDir, Anchor: DefaultAnchor, Fs: setupFs(t)}, func(r *Report, err error) {
		got, gotErr = r, err
	}, nil)

	w.RunOnce(context.Background())
	require.NoError(t, gotErr)
	require.NotNil(t, got)
	assert.Equal(t, StatusSuccess, got.Status)
}

func TestWatcher_RunOnce_LoadError(t *testing.T) {
	var gotErr error
	w := NewWatcher(Config{ProjectDir: projectDir, Anchor: "runner", Fs: setupFs(t)}, func(_ *Report, err error) {
		gotErr = err
	}, nil)

	w.RunOnce(context.Background())
	assert.ErrorIs(t, gotErr, project.ErrUnknownAnchor)
}

func TestWatcher_Relevant(t *testing.T) {
	w := NewWatcher(Config{ManifestGlobs: []string{"**/src/main/AndroidManifest.xml"}}, nil, nil)
	w.projectDir = "/work/android"

	tests := []struct {
		path string
		want bool
	}{
		{"/work/android/projnorm.yaml", true},
		{"/work/android/app/src/main/AndroidManifest.xml", true},
		{"/work/android/app/src/debug/AndroidManifest.xml", false},
		{"/work/android/app/build.gradle", false},
		{"/elsewhere/plugin/src/main/AndroidManifest.xml", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.path))
		})
	}
}

func TestWatcher_RunOnce_Cancelled(t *testing.T) {
	fs := setupFs(t)
	called := false
	w := NewWatcher(Config{ProjectDir: projectDir, Fs: fs}, func(*Report, error) {
		called = true
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.RunOnce(ctx)
	w.SanitizeOnce(ctx, []string{filepath.Join(projectDir, "app", project.DefaultManifest)})

	assert.False(t, called)
	exists, err := afero.DirExists(fs, "/work/build")
	require.NoError(t, err)
	assert.False(t, exists)
	got, err := afero.ReadFile(fs, filepath.Join(projectDir, "app", project.DefaultManifest))
	require.NoError(t, err)
	assert.Equal(t, `<manifest package="com.example.app"/>`, string(got))
}

func TestWatcher_Flush(t *testing.T) {
	debugManifest := filepath.Join(projectDir, "app/src/debug/AndroidManifest.xml")

	tests := []struct {
		name          string
		changed       []string
		wantRuns      int
		wantSanitized []string
	}{
		{
			name:          "manifest outside the main source set",
			changed:       []string{debugManifest},
			wantSanitized: []string{debugManifest},
		},
		{
			name:     "project file",
			changed:  []string{filepath.Join(projectDir, project.FileName)},
			wantRuns: 1,
		},
		{
			name:          "project file and manifest",
			changed:       []string{debugManifest, filepath.Join(projectDir, project.FileName), debugManifest},
			wantRuns:      1,
			wantSanitized: []string{debugManifest},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := setupFs(t)
			require.NoError(t, afero.WriteFile(fs, debugManifest, []byte(`<manifest package="com.example.debug"/>`), 0o644))

			runs := 0
			var sanitized []string
			w := NewWatcher(Config{ProjectDir: projectDir, Fs: fs, Logger: testutil.NewTestLogger(t)},
				func(r *Report, err error) {
					require.NoError(t, err)
					runs++
				},
				func(results []manifest.Result, err error) {
					require.NoError(t, err)
					for _, res := range results {
						sanitized = append(sanitized, res.Path)
					}
				})

			for _, path := range tt.changed {
				w.queue(path)
			}
			w.flush(context.Background())

			assert.Equal(t, tt.wantRuns, runs)
			assert.Equal(t, tt.wantSanitized, sanitized)
			assert.Empty(t, w.drain())

			got, err := afero.ReadFile(fs, debugManifest)
			require.NoError(t, err)
			if len(tt.wantSanitized) > 0 {
				assert.Equal(t, `<manifest />`, string(got))
			} else {
				assert.Equal(t, `<manifest package="com.example.debug"/>`, string(got))
			}
		})
	}
}

func TestWatcher_Watch(t *testing.T) {
	if testing.Short() {
		t.Skip("filesystem watch test")
	}
	dir := writeOSProject(t)
	debugManifest := filepath.Join(dir, "app/src/debug/AndroidManifest.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(debugManifest), 0o755))

	runs := make(chan *Report, 8)
	sanitized := make(chan []manifest.Result, 8)
	w := NewWatcher(Config{ProjectDir: dir, Logger: testutil.NewTestLogger(t)},
		func(r *Report, err error) {
			assert.NoError(t, err)
			runs <- r
		},
		func(results []manifest.Result, err error) {
			assert.NoError(t, err)
			sanitized <- results
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	select {
	case r := <-runs:
		assert.Len(t, r.Modified(), 1)
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	require.NoError(t, os.WriteFile(debugManifest, []byte(`<manifest package="com.example.debug"/>`), 0o644))
	waitFor(t, sanitized, func() bool {
		got, err := os.ReadFile(debugManifest)
		require.NoError(t, err)
		return string(got) == `<manifest />`
	}, "changed manifest was not sanitized")

	projectFile := filepath.Join(dir, project.FileName)
	data, err := os.ReadFile(projectFile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(projectFile, data, 0o644))
	waitFor(t, runs, func() bool { return true }, "project file change did not trigger a run")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

// waitFor receives from ch until check passes or five seconds elapse.
func waitFor[T any](t *testing.T, ch <-chan T, check func() bool, msg string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-ch:
			if check() {
				return
			}
		case <-deadline:
			t.Fatal(msg)
		}
	}
}
