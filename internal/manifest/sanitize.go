// Package manifest strips the legacy package attribute from generated
// manifests before the manifest merge step reads them.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"

	"github.com/spf13/afero"
)

// legacyPackage matches a package attribute with a double-quoted value.
var legacyPackage = regexp.MustCompile(`package="[^"]*"`)

// File is a manifest read from disk.
type File struct {
	Path    string
	Content []byte
	Mode    fs.FileMode
}

// HasLegacyPackage reports whether the content declares a package attribute.
func (f *File) HasLegacyPackage() bool {
	return legacyPackage.Match(f.Content)
}

// Strip removes the first package attribute from content. Every other byte
// is left untouched. The second result reports whether anything was removed.
func Strip(content []byte) ([]byte, bool) {
	loc := legacyPackage.FindIndex(content)
	if loc == nil {
		return content, false
	}
	out := make([]byte, 0, len(content)-(loc[1]-loc[0]))
	out = append(out, content[:loc[0]]...)
	out = append(out, content[loc[1]:]...)
	return out, true
}

// Result describes one sanitizer invocation.
type Result struct {
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Modified bool   `json:"modified"`
}

// Sanitizer rewrites manifests in place.
type Sanitizer struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewSanitizer returns a Sanitizer over fs. A nil logger discards output.
func NewSanitizer(fsys afero.Fs, logger *slog.Logger) *Sanitizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sanitizer{fs: fsys, logger: logger}
}

// Read loads a manifest. It returns an error wrapping fs.ErrNotExist when the
// file is absent.
func (s *Sanitizer) Read(path string) (*File, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("manifest %s is a directory", path)
	}
	content, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return &File{Path: path, Content: content, Mode: info.Mode().Perm()}, nil
}

// Sanitize strips the legacy package attribute from the manifest at path.
// A missing file is a no-op. A failed write is returned as an error.
func (s *Sanitizer) Sanitize(path string) (Result, error) {
	res := Result{Path: path}

	f, err := s.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("manifest not found, skipping", "path", path)
		return res, nil
	}
	if err != nil {
		return res, err
	}
	res.Exists = true

	updated, changed := Strip(f.Content)
	if !changed {
		return res, nil
	}

	if err := afero.WriteFile(s.fs, path, updated, f.Mode); err != nil {
		return res, fmt.Errorf("writing manifest %s: %w", path, err)
	}
	res.Modified = true
	s.logger.Info("removed legacy package attribute", "path", path)
	return res, nil
}
