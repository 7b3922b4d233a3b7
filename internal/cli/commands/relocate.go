package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/projnorm/internal/cli/output"
)

// NewRelocateCommand creates the relocate command.
func NewRelocateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "relocate",
		Short: "Assign every subproject its output directory",
		Long: `Create the root build directory and show where each subproject's
output is redirected: <build>/<subproject id>.

Namespaces and manifests are left untouched.`,
		Example: `  # Show output directories
  projnorm relocate

  # Relocate below a different root
  projnorm relocate --build-dir /tmp/out`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			eng := cmdCtx.Engine
			r := cmdCtx.Renderer

			if err := eng.Relocate(); err != nil {
				return err
			}

			out := output.RelocateOutput{BuildDir: eng.BuildDir()}
			rows := make([][]string, 0, len(eng.Graph().Subprojects()))
			for _, s := range eng.Graph().Subprojects() {
				out.Subprojects = append(out.Subprojects, output.RelocationEntry{Subproject: s.ID, OutputDir: s.OutputDir})
				rows = append(rows, []string{s.ID, s.OutputDir})
			}

			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(out)
			case output.ModeMarkdown:
				r.Println(output.FormatHeader(1, "Output Directories"))
				r.Println("")
				r.Println(output.FormatKeyValue("Build Dir", out.BuildDir))
				r.Println("")
				r.Table([]string{"Subproject", "Output"}, rows)
			default:
				r.Header(1, "Output Directories")
				r.Table([]string{"Subproject", "Output"}, rows)
				r.Success("relocated " + plural(len(rows), "subproject") + " below " + out.BuildDir)
			}
			return nil
		},
	}
}

// NewCleanCommand creates the clean command.
func NewCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the root build directory",
		Long: `Delete the root build directory, including every subproject output
and the last run report. Source manifests are not restored.`,
		Example: `  projnorm clean`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if err := cmdCtx.Engine.Clean(); err != nil {
				return err
			}
			cmdCtx.Renderer.Success("removed " + cmdCtx.Engine.BuildDir())
			return nil
		},
	}
}
