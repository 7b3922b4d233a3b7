package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/projnorm/internal/manifest"
	"github.com/leapstack-labs/projnorm/internal/project"
)

// DefaultDebounce is how long Watch waits for changes to settle.
const DefaultDebounce = 100 * time.Millisecond

// RunFunc receives the outcome of every run triggered by Watch.
type RunFunc func(r *Report, err error)

// SanitizeFunc receives the outcome of every batch of manifest changes
// sanitized by Watch.
type SanitizeFunc func(results []manifest.Result, err error)

// Watcher keeps a project normalized while it is edited. A change to the
// project file reruns normalization; a created or written file matching the
// manifest globs is sanitized in place. Every batch uses a fresh Engine.
type Watcher struct {
	cfg        Config
	debounce   time.Duration
	onRun      RunFunc
	onSanitize SanitizeFunc
	logger     *slog.Logger

	projectDir string
	buildDir   string

	mu sync.Mutex // serializes runs and sanitizing

	pendingMu sync.Mutex
	pending   map[string]bool
}

// NewWatcher returns a Watcher for cfg. Nil callbacks discard results.
func NewWatcher(cfg Config, onRun RunFunc, onSanitize SanitizeFunc) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if onRun == nil {
		onRun = func(*Report, error) {}
	}
	if onSanitize == nil {
		onSanitize = func([]manifest.Result, error) {}
	}
	return &Watcher{
		cfg:        cfg,
		debounce:   DefaultDebounce,
		onRun:      onRun,
		onSanitize: onSanitize,
		logger:     logger,
		pending:    make(map[string]bool),
	}
}

// RunOnce performs a single normalization with a fresh engine.
func (w *Watcher) RunOnce(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	e, err := New(w.cfg)
	if err != nil {
		w.onRun(nil, err)
		return
	}
	w.onRun(e.Run(ctx))
}

// SanitizeOnce strips the legacy package attribute from the given manifests
// with a fresh engine.
func (w *Watcher) SanitizeOnce(ctx context.Context, paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	e, err := New(w.cfg)
	if err != nil {
		w.onSanitize(nil, err)
		return
	}
	w.onSanitize(e.Sanitize(paths))
}

// Watch runs once, then handles every relevant change, until ctx is done.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dirs, err := w.watchDirs()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.addTree(watcher, dir); err != nil {
			return err
		}
	}
	w.logger.Info("watching for changes", "dirs", len(dirs))

	w.RunOnce(ctx)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addTree(watcher, event.Name)
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.queue(event.Name)

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				w.flush(ctx)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) queue(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.pending[path] = true
}

func (w *Watcher) drain() []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	paths := slices.Sorted(maps.Keys(w.pending))
	clear(w.pending)
	return paths
}

// flush handles the changes queued since the last flush. A changed project
// file reruns normalization; changed manifests are sanitized after that.
func (w *Watcher) flush(ctx context.Context) {
	var manifests []string
	projectChanged := false
	for _, path := range w.drain() {
		if filepath.Base(path) == project.FileName {
			projectChanged = true
			continue
		}
		manifests = append(manifests, path)
	}

	if projectChanged {
		w.logger.Info("project file changed")
		w.RunOnce(ctx)
	}
	if len(manifests) > 0 {
		w.logger.Info("manifests changed", "count", len(manifests))
		w.SanitizeOnce(ctx, manifests)
	}
}

func (w *Watcher) watchDirs() ([]string, error) {
	e, err := New(w.cfg)
	if err != nil {
		return nil, err
	}
	w.projectDir = e.ProjectDir()
	w.buildDir = e.BuildDir()
	dirs := []string{e.ProjectDir()}
	for _, s := range e.Graph().Subprojects() {
		if s.IsAndroid() && !strings.HasPrefix(s.SourceDir(), e.ProjectDir()+string(filepath.Separator)) {
			dirs = append(dirs, s.SourceDir())
		}
	}
	return dirs, nil
}

// relevant reports whether a change to path needs handling: the project file
// or anything matching the manifest globs.
func (w *Watcher) relevant(path string) bool {
	if filepath.Base(path) == project.FileName {
		return true
	}
	globs := w.cfg.ManifestGlobs
	if len(globs) == 0 {
		globs = manifest.DefaultGlobs
	}
	if rel, err := filepath.Rel(w.projectDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return manifest.Matches(globs, rel)
	}
	return manifest.Matches(globs, filepath.Base(path))
}

// addTree adds dir and every directory below it, skipping hidden
// directories and the root build directory.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if path == w.buildDir {
			return filepath.SkipDir
		}
		if name := info.Name(); name == "build" || name == "node_modules" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
