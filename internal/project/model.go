// Package project describes the subprojects of a multi-module build and the
// order in which they are evaluated.
package project

import (
	"path/filepath"
	"slices"

	"github.com/leapstack-labs/projnorm/internal/lifecycle"
	"github.com/leapstack-labs/projnorm/internal/toolchain"
)

// Plugin ids that make a subproject eligible for namespace inference.
const (
	PluginApplication = "com.android.application"
	PluginLibrary     = "com.android.library"
)

// DefaultManifest is the main manifest location relative to a subproject directory.
const DefaultManifest = "src/main/AndroidManifest.xml"

// Kind classifies a subproject by the plugins applied to it.
type Kind string

const (
	KindApplication Kind = "application"
	KindLibrary     Kind = "library"
	KindOther       Kind = "other"
)

// Subproject is one buildable module of the project graph.
type Subproject struct {
	// ID is unique within the graph and names the output directory.
	ID string `yaml:"id"`
	// Dir is the source directory, relative to the project root unless absolute.
	Dir string `yaml:"dir"`
	// Plugins lists the plugin ids applied to the subproject.
	Plugins []string `yaml:"plugins"`
	// Namespace is the explicit namespace, if any.
	Namespace string `yaml:"namespace"`
	// Manifest is the main manifest path relative to Dir.
	Manifest string `yaml:"manifest"`
	// DependsOn lists subprojects whose evaluation must complete first.
	DependsOn []string `yaml:"depends_on"`

	// OutputDir is assigned by the relocator.
	OutputDir string `yaml:"-"`
	// NamespaceInferred is true when Namespace was derived rather than declared.
	NamespaceInferred bool `yaml:"-"`
	// Toolchain holds the compiler targets pinned after graph evaluation.
	Toolchain *toolchain.Targets `yaml:"-"`

	root       string
	evaluation *lifecycle.State
}

// HasPlugin reports whether the plugin id is applied.
func (s *Subproject) HasPlugin(id string) bool {
	return slices.Contains(s.Plugins, id)
}

// Kind derives the subproject kind from its plugins.
// An application plugin wins over a library plugin.
func (s *Subproject) Kind() Kind {
	switch {
	case s.HasPlugin(PluginApplication):
		return KindApplication
	case s.HasPlugin(PluginLibrary):
		return KindLibrary
	default:
		return KindOther
	}
}

// IsAndroid reports whether the subproject is library-like or application-like.
func (s *Subproject) IsAndroid() bool {
	return s.Kind() != KindOther
}

// SourceDir returns the absolute source directory of the subproject.
func (s *Subproject) SourceDir() string {
	dir := s.Dir
	if dir == "" {
		dir = s.ID
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(s.root, dir)
}

// ManifestPath returns the absolute path of the main manifest.
func (s *Subproject) ManifestPath() string {
	m := s.Manifest
	if m == "" {
		m = DefaultManifest
	}
	if filepath.IsAbs(m) {
		return filepath.Clean(m)
	}
	return filepath.Join(s.SourceDir(), m)
}

// Evaluation returns the lifecycle state of the subproject.
func (s *Subproject) Evaluation() *lifecycle.State {
	if s.evaluation == nil {
		s.evaluation = lifecycle.NewState(s.ID)
	}
	return s.evaluation
}
