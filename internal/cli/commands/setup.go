package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/projnorm/internal/cli/config"
	"github.com/leapstack-labs/projnorm/internal/cli/output"
	"github.com/leapstack-labs/projnorm/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	eng, err := engine.New(cmdCtx.EngineConfig())
	if err != nil {
		return nil, err
	}
	cmdCtx.Engine = eng
	return cmdCtx, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that build their own, such as watch.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		mode = output.ModeAuto
	}
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// EngineConfig returns the engine configuration with the command logger attached.
func (c *CommandContext) EngineConfig() engine.Config {
	ec := c.Cfg.EngineConfig()
	ec.Logger = c.Logger
	return ec
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	cfg := &config.Config{
		ProjectDir:      getEnvOrDefault("PROJNORM_PROJECT_DIR", "."),
		BuildDir:        getEnvOrDefault("PROJNORM_BUILD_DIR", config.DefaultBuildDir),
		NamespacePrefix: getEnvOrDefault("PROJNORM_NAMESPACE_PREFIX", config.DefaultPrefix),
		Anchor:          getEnvOrDefault("PROJNORM_ANCHOR", config.DefaultAnchor),
		MergeCommand:    os.Getenv("PROJNORM_MERGE_COMMAND"),
		Verbose:         os.Getenv("PROJNORM_VERBOSE") == "true",
		OutputFormat:    os.Getenv("PROJNORM_OUTPUT"),
	}
	if v := os.Getenv("PROJNORM_VARIANTS"); v != "" {
		cfg.Variants = strings.Split(v, ",")
	}
	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
