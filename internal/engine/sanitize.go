package engine

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/leapstack-labs/projnorm/internal/manifest"
)

// DiscoverManifests returns the manifests matching the configured globs below
// every library or application subproject's source directory.
func (e *Engine) DiscoverManifests() ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, s := range e.graph.Subprojects() {
		if !s.IsAndroid() {
			continue
		}
		found, err := manifest.Find(e.fs, s.SourceDir(), e.cfg.ManifestGlobs)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// Sanitize strips the legacy package attribute from the given manifests,
// outside of any task. Relative paths resolve against the project directory.
// With no paths, discovered manifests are used. It stops at the first write
// failure and returns the results gathered so far.
func (e *Engine) Sanitize(paths []string) ([]manifest.Result, error) {
	if len(paths) == 0 {
		found, err := e.DiscoverManifests()
		if err != nil {
			return nil, err
		}
		paths = found
	}

	results := make([]manifest.Result, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(e.cfg.ProjectDir, p)
		}
		res, err := e.sanitizer.Sanitize(p)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// ReadManifest loads a manifest without changing it.
func (e *Engine) ReadManifest(path string) (*manifest.File, error) {
	return e.sanitizer.Read(path)
}

// Exists reports whether path exists on the engine filesystem.
func (e *Engine) Exists(path string) bool {
	ok, err := afero.Exists(e.fs, path)
	return ok && err == nil
}

// Merger returns the manifest task action.
func (e *Engine) Merger() *MergeRunner {
	return e.merger
}
