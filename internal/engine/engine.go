// Package engine drives a normalization run: it loads the project graph,
// relocates output directories, evaluates subprojects, and executes the
// hooked manifest tasks in order.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/leapstack-labs/projnorm/internal/lifecycle"
	"github.com/leapstack-labs/projnorm/internal/manifest"
	"github.com/leapstack-labs/projnorm/internal/namespace"
	"github.com/leapstack-labs/projnorm/internal/project"
	"github.com/leapstack-labs/projnorm/internal/relocate"
	"github.com/leapstack-labs/projnorm/internal/task"
	"github.com/leapstack-labs/projnorm/internal/toolchain"
)

// DefaultBuildDir is the root build directory relative to the project directory.
const DefaultBuildDir = "../build"

// DefaultAnchor is the subproject every other subproject's evaluation depends on.
const DefaultAnchor = "app"

// LockFileName is created in the project directory for the duration of a run.
const LockFileName = ".projnorm.lock"

// Config holds engine configuration.
type Config struct {
	// ProjectDir contains the project file.
	ProjectDir string
	// ProjectFile overrides <ProjectDir>/projnorm.yaml.
	ProjectFile string
	// BuildDir is the root build directory; relative paths resolve against ProjectDir.
	BuildDir string
	// NamespacePrefix is prepended to inferred namespaces.
	NamespacePrefix string
	// Anchor is evaluated before every other subproject. Empty disables it.
	Anchor string
	// Variants select the hooked manifest tasks (default debug and release).
	Variants []string
	// ManifestGlobs are used by SanitizeAll to discover manifests.
	ManifestGlobs []string
	// MergeCommand runs as the manifest task action. Empty only records the handoff.
	MergeCommand string
	// Toolchain targets applied once every subproject is evaluated.
	Toolchain toolchain.Targets
	// LockFile guards against concurrent runs. Empty disables locking.
	LockFile string
	// Fs is the filesystem (defaults to the OS filesystem).
	Fs afero.Fs
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine orchestrates one normalization run.
type Engine struct {
	cfg    Config
	fs     afero.Fs
	logger *slog.Logger

	graph     *project.Graph
	buildDir  string
	relocator *relocate.Relocator
	inferrer  *namespace.Inferrer
	sanitizer *manifest.Sanitizer
	names     task.NameSet
	merger    *MergeRunner

	build      *lifecycle.Build
	containers map[string]*task.Container
	manifests  map[string]manifest.Result // keyed by task path
	handoffs   map[string]string          // task path -> handoff description
	evaluated  bool
	scheduled  bool
}

// New loads the project file and links the project graph. Nothing on disk is
// changed until Run or one of its steps is called.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}
	projectDir, err := filepath.Abs(cfg.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project directory: %w", err)
	}
	cfg.ProjectDir = projectDir
	if cfg.ProjectFile == "" {
		cfg.ProjectFile = filepath.Join(projectDir, project.FileName)
	}
	if cfg.BuildDir == "" {
		cfg.BuildDir = DefaultBuildDir
	}
	buildDir := cfg.BuildDir
	if !filepath.IsAbs(buildDir) {
		buildDir = filepath.Join(projectDir, buildDir)
	}
	cfg.Toolchain = cfg.Toolchain.WithDefaults()
	if err := cfg.Toolchain.Validate(); err != nil {
		return nil, err
	}
	if err := manifest.ValidateGlobs(cfg.ManifestGlobs); err != nil {
		return nil, err
	}

	logger.Debug("initializing engine", "project_dir", projectDir, "build_dir", buildDir)

	file, err := project.Load(fs, cfg.ProjectFile)
	if err != nil {
		return nil, err
	}
	graph, err := project.NewGraph(file, projectDir, cfg.Anchor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ProjectFile, err)
	}

	merger, err := NewMergeRunner(cfg.MergeCommand, projectDir, logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		fs:         fs,
		logger:     logger,
		graph:      graph,
		buildDir:   filepath.Clean(buildDir),
		relocator:  relocate.New(fs, buildDir, logger),
		inferrer:   namespace.New(cfg.NamespacePrefix, logger),
		sanitizer:  manifest.NewSanitizer(fs, logger),
		names:      task.ManifestTasks(cfg.Variants),
		merger:     merger,
		containers: make(map[string]*task.Container),
		manifests:  make(map[string]manifest.Result),
		handoffs:   make(map[string]string),
	}

	states := make([]*lifecycle.State, 0, len(graph.Subprojects()))
	for _, s := range graph.Subprojects() {
		states = append(states, s.Evaluation())
	}
	e.build = lifecycle.NewBuild(states...)
	if err := e.build.ProjectsEvaluated(e.applyToolchain); err != nil {
		return nil, err
	}

	logger.Debug("project graph loaded",
		"name", graph.Name,
		"subprojects", len(graph.Subprojects()),
		"edges", graph.EdgeCount())
	return e, nil
}

// Graph returns the project graph.
func (e *Engine) Graph() *project.Graph {
	return e.graph
}

// BuildDir returns the absolute root build directory.
func (e *Engine) BuildDir() string {
	return e.buildDir
}

// ProjectDir returns the absolute project directory.
func (e *Engine) ProjectDir() string {
	return e.cfg.ProjectDir
}

// ManifestTasks returns the recognized manifest task names.
func (e *Engine) ManifestTasks() task.NameSet {
	return e.names
}

// Inferrer returns the namespace inferrer used by the run.
func (e *Engine) Inferrer() *namespace.Inferrer {
	return e.inferrer
}

// Container returns the task container of a subproject once tasks are scheduled.
func (e *Engine) Container(id string) (*task.Container, bool) {
	c, ok := e.containers[id]
	return c, ok
}

// ErrNotScheduled is returned when tasks are executed before being scheduled.
var ErrNotScheduled = errors.New("tasks have not been scheduled")
