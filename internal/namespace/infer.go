// Package namespace derives namespaces for library and application
// subprojects that do not declare one.
package namespace

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/projnorm/internal/project"
)

// DefaultPrefix is prepended to every inferred namespace.
const DefaultPrefix = "com.sparkle."

var separators = strings.NewReplacer("-", ".", ":", ".")

// Sanitize replaces hierarchy separators ('-' and ':') with '.'.
func Sanitize(id string) string {
	return separators.Replace(id)
}

// Inferrer sets namespaces on eligible subprojects.
type Inferrer struct {
	prefix string
	logger *slog.Logger
}

// New returns an Inferrer using prefix, or DefaultPrefix when empty.
func New(prefix string, logger *slog.Logger) *Inferrer {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Inferrer{prefix: prefix, logger: logger}
}

// Namespace returns the namespace inferred for a subproject id.
func (i *Inferrer) Namespace(id string) string {
	return i.prefix + Sanitize(id)
}

// Infer sets the namespace of s when it is library-like or application-like
// and has none. It reports whether the namespace was changed. Explicit
// namespaces are never touched, so repeated calls are no-ops.
func (i *Inferrer) Infer(s *project.Subproject) bool {
	if !s.IsAndroid() || s.Namespace != "" {
		return false
	}
	s.Namespace = i.Namespace(s.ID)
	s.NamespaceInferred = true
	i.logger.Debug("inferred namespace", "subproject", s.ID, "namespace", s.Namespace)
	return true
}

// Register defers inference until s has been evaluated. If it already has
// been, inference runs immediately.
func (i *Inferrer) Register(s *project.Subproject) error {
	return s.Evaluation().AfterEvaluate(func() error {
		i.Infer(s)
		return nil
	})
}
