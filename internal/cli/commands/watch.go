package commands

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/projnorm/internal/cli/output"
	"github.com/leapstack-labs/projnorm/internal/engine"
	"github.com/leapstack-labs/projnorm/internal/manifest"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the project normalized while it is edited",
		Long: `Run once, then watch the project directory and the subproject
directories. Once changes settle:
  - a changed project file runs the full normalization again
  - a created or written file matching the manifest globs has its legacy
    package attribute stripped in place

Each batch loads the project file afresh. Press Ctrl+C to stop.`,
		Example: `  projnorm watch
  projnorm watch --variant debug -v`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutEngine(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := engine.NewWatcher(cmdCtx.EngineConfig(),
				watchReporter(cmdCtx.Renderer), sanitizeReporter(cmdCtx.Renderer, cmdCtx.Cfg.ProjectDir))
			cmdCtx.Renderer.Muted("watching " + cmdCtx.Cfg.ProjectDir + " (Ctrl+C to stop)")
			return w.Watch(ctx)
		},
	}
}

func watchReporter(r *output.Renderer) engine.RunFunc {
	return func(report *engine.Report, err error) {
		if report == nil {
			r.Error(err.Error())
			return
		}
		if r.EffectiveMode() == output.ModeJSON {
			_ = r.JSON(report)
			return
		}
		if err != nil {
			r.Error(err.Error())
			return
		}
		r.Success(plural(len(report.Modified()), "manifest") + " rewritten, " +
			plural(len(report.Tasks), "task") + " executed (run " + report.RunID + ")")
	}
}

func sanitizeReporter(r *output.Renderer, projectDir string) engine.SanitizeFunc {
	if abs, err := filepath.Abs(projectDir); err == nil {
		projectDir = abs
	}
	return func(results []manifest.Result, err error) {
		if r.EffectiveMode() == output.ModeJSON {
			out := SanitizeOutput{Results: results}
			for _, res := range results {
				if res.Modified {
					out.Modified++
				}
			}
			if err != nil {
				out.Error = err.Error()
			}
			_ = r.JSON(out)
			return
		}
		if err != nil {
			r.Error(err.Error())
			return
		}
		for _, res := range results {
			if res.Modified {
				r.Success("stripped package attribute from " + relTo(projectDir, res.Path))
			}
		}
	}
}
