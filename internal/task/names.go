package task

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Manifest processing tasks for the default build variants.
const (
	ProcessDebugManifest   = "processDebugManifest"
	ProcessReleaseManifest = "processReleaseManifest"
)

// DefaultVariants are the build variants projnorm hooks by default.
var DefaultVariants = []string{"debug", "release"}

// ManifestTaskName returns the manifest processing task for a variant,
// e.g. "debug" -> "processDebugManifest", "freeRelease" -> "processFreeReleaseManifest".
func ManifestTaskName(variant string) string {
	title := cases.Title(language.Und, cases.NoLower)
	return "process" + title.String(strings.TrimSpace(variant)) + "Manifest"
}

// NameSet is a set of recognized task names.
type NameSet struct {
	names map[string]string // task name -> variant
}

// ManifestTasks returns the recognized manifest task names for variants.
// Empty variants fall back to DefaultVariants.
func ManifestTasks(variants []string) NameSet {
	if len(variants) == 0 {
		variants = DefaultVariants
	}
	s := NameSet{names: make(map[string]string, len(variants))}
	for _, v := range variants {
		if strings.TrimSpace(v) == "" {
			continue
		}
		s.names[ManifestTaskName(v)] = v
	}
	return s
}

// Contains reports whether name is recognized.
func (s NameSet) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Variant returns the variant a recognized task name belongs to.
func (s NameSet) Variant(name string) (string, bool) {
	v, ok := s.names[name]
	return v, ok
}

// Names returns the recognized names in lexical order.
func (s NameSet) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
