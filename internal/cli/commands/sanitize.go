package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/projnorm/internal/cli/output"
	"github.com/leapstack-labs/projnorm/internal/manifest"
)

// SanitizeOutput is the JSON output of the sanitize command.
type SanitizeOutput struct {
	Results  []manifest.Result `json:"results"`
	Modified int               `json:"modified"`
	Error    string            `json:"error,omitempty"`
}

// NewSanitizeCommand creates the sanitize command.
func NewSanitizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize [manifest...]",
		Short: "Strip the legacy package attribute from manifests",
		Long: `Remove the first package="..." attribute from each manifest, outside of
any manifest task.

With no arguments, manifests matching the configured globs below every
library or application subproject are sanitized. Relative paths resolve
against the project directory. Missing files are skipped; a failed write
stops the command.`,
		Example: `  # Sanitize every discovered manifest
  projnorm sanitize

  # Sanitize specific manifests
  projnorm sanitize app/src/main/AndroidManifest.xml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			r := cmdCtx.Renderer

			results, sanitizeErr := cmdCtx.Engine.Sanitize(args)
			out := SanitizeOutput{Results: results}
			rows := make([][]string, 0, len(results))
			for _, res := range results {
				if res.Modified {
					out.Modified++
				}
				rows = append(rows, []string{relTo(cmdCtx.Engine.ProjectDir(), res.Path), resultStatus(res)})
			}
			if sanitizeErr != nil {
				out.Error = sanitizeErr.Error()
			}

			switch r.EffectiveMode() {
			case output.ModeJSON:
				if err := r.JSON(out); err != nil {
					return err
				}
				return sanitizeErr
			case output.ModeMarkdown:
				r.Println(output.FormatHeader(1, "Sanitized Manifests"))
				r.Println("")
			default:
				r.Header(1, "Sanitized Manifests")
			}

			if len(rows) == 0 {
				r.Muted("no manifests found")
				return sanitizeErr
			}
			r.Table([]string{"Manifest", "Result"}, rows)
			if sanitizeErr == nil {
				r.Success(plural(out.Modified, "manifest") + " rewritten")
			}
			return sanitizeErr
		},
	}
}

func resultStatus(res manifest.Result) string {
	switch {
	case !res.Exists:
		return "missing"
	case res.Modified:
		return "stripped"
	default:
		return "clean"
	}
}
