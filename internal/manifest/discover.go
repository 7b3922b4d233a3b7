package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DefaultGlobs match manifests anywhere below a directory.
var DefaultGlobs = []string{"**/AndroidManifest.xml"}

// ValidateGlobs checks that every pattern is well formed.
func ValidateGlobs(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid manifest glob %q", p)
		}
	}
	return nil
}

// Matches reports whether rel, a slash- or OS-separated path relative to the
// search directory, matches any pattern.
func Matches(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Find walks dir and returns files matching any pattern, in lexical order.
// Hidden directories are skipped. A missing dir yields no results.
func Find(fsys afero.Fs, dir string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultGlobs
	}

	if _, err := fsys.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var found []string
	err := afero.Walk(fsys, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if Matches(patterns, rel) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching manifests in %s: %w", dir, err)
	}
	return found, nil
}
