// Package config loads projnorm CLI configuration.
//
// Values are layered with koanf, lowest to highest precedence: built-in
// defaults, the top-level keys of projnorm.yaml, PROJNORM_* environment
// variables and explicitly set command-line flags.
package config

import (
	"github.com/leapstack-labs/projnorm/internal/engine"
	"github.com/leapstack-labs/projnorm/internal/namespace"
	"github.com/leapstack-labs/projnorm/internal/toolchain"
)

// Config holds all CLI configuration options.
type Config struct {
	ProjectDir      string            `koanf:"project_dir"`
	BuildDir        string            `koanf:"build_dir" validate:"required"`
	NamespacePrefix string            `koanf:"namespace_prefix" validate:"required,namespace_prefix"`
	Anchor          string            `koanf:"anchor" validate:"omitempty,subproject_id"`
	Variants        []string          `koanf:"variants" validate:"dive,required,variant"`
	ManifestGlobs   []string          `koanf:"manifest_globs" validate:"dive,required"`
	MergeCommand    string            `koanf:"merge_command"`
	Verbose         bool              `koanf:"verbose"`
	LogFormat       string            `koanf:"log_format" validate:"omitempty,oneof=text json"`
	OutputFormat    string            `koanf:"output" validate:"omitempty,oneof=auto text markdown md json"`
	Toolchain       toolchain.Targets `koanf:"toolchain"`

	// ProjectFile is the project file in use, if one was found.
	ProjectFile string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultBuildDir  = engine.DefaultBuildDir
	DefaultPrefix    = namespace.DefaultPrefix
	DefaultAnchor    = engine.DefaultAnchor
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogFormat = "text"
	EnvPrefix        = "PROJNORM_"
)

// EngineConfig maps the CLI configuration onto engine configuration.
func (c *Config) EngineConfig() engine.Config {
	cfg := engine.Config{
		ProjectDir:      c.ProjectDir,
		ProjectFile:     c.ProjectFile,
		BuildDir:        c.BuildDir,
		NamespacePrefix: c.NamespacePrefix,
		Anchor:          c.Anchor,
		Variants:        c.Variants,
		ManifestGlobs:   c.ManifestGlobs,
		MergeCommand:    c.MergeCommand,
		Toolchain:       c.Toolchain,
	}
	if c.ProjectDir != "" {
		cfg.LockFile = lockPath(c.ProjectDir)
	}
	return cfg
}
