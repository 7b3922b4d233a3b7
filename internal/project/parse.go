package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the project file.
const FileName = "projnorm.yaml"

// Validation errors.
var (
	ErrInvalidID         = errors.New("invalid subproject id")
	ErrDuplicateID       = errors.New("duplicate subproject id")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrUnknownAnchor     = errors.New("anchor subproject not found")
	ErrNoSubprojects     = errors.New("no subprojects declared")
)

// File is the decoded project file. Configuration keys living next to
// subprojects in the same file are ignored here.
type File struct {
	Name        string        `yaml:"name"`
	Subprojects []*Subproject `yaml:"subprojects"`
}

// Load reads and validates a project file from fs.
func Load(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses and validates project file content.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing project YAML: %w", err)
	}
	if err := validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

func validate(f *File) error {
	if len(f.Subprojects) == 0 {
		return ErrNoSubprojects
	}

	var errs []error
	seen := make(map[string]bool, len(f.Subprojects))
	for i, s := range f.Subprojects {
		if s == nil {
			errs = append(errs, fmt.Errorf("subprojects[%d]: empty entry", i))
			continue
		}
		if err := ValidateID(s.ID); err != nil {
			errs = append(errs, fmt.Errorf("subprojects[%d]: %w", i, err))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("subprojects[%d]: %w: %q", i, ErrDuplicateID, s.ID))
		}
		seen[s.ID] = true
	}

	for _, s := range f.Subprojects {
		if s == nil {
			continue
		}
		for _, dep := range s.DependsOn {
			if !seen[dep] {
				errs = append(errs, fmt.Errorf("subproject %q: %w %q", s.ID, ErrUnknownDependency, dep))
			}
		}
	}
	return errors.Join(errs...)
}

// ValidateID checks that id can name a directory directly below the root
// build directory.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidID)
	case id == "." || id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	case strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, filepath.Separator):
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidID, id)
	case strings.ContainsRune(id, 0):
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidID, id)
	}
	return nil
}
