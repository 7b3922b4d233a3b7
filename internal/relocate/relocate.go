// Package relocate moves every subproject's output directory below a shared
// root build directory, namespaced by subproject id.
package relocate

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/leapstack-labs/projnorm/internal/project"
)

// Relocator assigns output directories.
type Relocator struct {
	fs     afero.Fs
	root   string
	logger *slog.Logger
}

// New returns a Relocator rooted at root. A nil logger discards output.
func New(fs afero.Fs, root string, logger *slog.Logger) *Relocator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Relocator{
		fs:     fs,
		root:   filepath.Clean(root),
		logger: logger,
	}
}

// Root returns the root build directory.
func (r *Relocator) Root() string {
	return r.root
}

// OutputDir returns the output directory for a subproject id.
func (r *Relocator) OutputDir(id string) string {
	return filepath.Join(r.root, id)
}

// Relocate creates the root build directory if needed and sets each
// subproject's OutputDir to root/<id>.
func (r *Relocator) Relocate(subprojects []*project.Subproject) error {
	if err := r.fs.MkdirAll(r.root, 0o755); err != nil {
		return fmt.Errorf("creating root build directory %s: %w", r.root, err)
	}

	for _, s := range subprojects {
		dir := r.OutputDir(s.ID)
		if !Within(r.root, dir) {
			// Graph loading rejects such ids; reaching this is a bug.
			return fmt.Errorf("subproject %q: output directory %s escapes %s", s.ID, dir, r.root)
		}
		if s.OutputDir != dir {
			r.logger.Debug("relocated output directory", "subproject", s.ID, "from", s.OutputDir, "to", dir)
		}
		s.OutputDir = dir
	}
	return nil
}

// Within reports whether path is a strict descendant of root.
func Within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// Clean removes the root build directory. A missing directory is not an error.
func (r *Relocator) Clean() error {
	if err := r.fs.RemoveAll(r.root); err != nil {
		return fmt.Errorf("removing %s: %w", r.root, err)
	}
	r.logger.Debug("removed root build directory", "path", r.root)
	return nil
}
