package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/projnorm/internal/cli/output"
	"github.com/leapstack-labs/projnorm/internal/engine"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Normalize the project",
		Long: `Run the full normalization pass.

Subproject outputs are relocated below the root build directory, the
project graph is evaluated (inferring missing namespaces), and the
manifest tasks of every variant run with the legacy package attribute
stripped first. A report is written to <build>/.projnorm/normalized.json
whether or not the run succeeds.`,
		Example: `  # Normalize the project in the current directory
  projnorm run

  # Hook only the debug variant and hand manifests to a merger
  projnorm run --variant debug --merge-command "manifest-merger --strict"

  # Output as JSON for CI
  projnorm run -o json`,
		Aliases: []string{"normalize"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd)
		},
	}
	return cmd
}

func runRun(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	report, runErr := cmdCtx.Engine.Run(cmd.Context())
	if report == nil {
		return runErr
	}
	if err := renderReport(cmdCtx.Renderer, report); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the last run report",
		Long:  `Display the report written by the last run, without changing anything.`,
		Example: `  # Show the last run
  projnorm report

  # As JSON
  projnorm report -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			report, err := cmdCtx.Engine.ReadReport()
			if errors.Is(err, engine.ErrNoReport) {
				return fmt.Errorf("%w at %s; run `projnorm run` first", err, cmdCtx.Engine.ReportPath())
			}
			if err != nil {
				return err
			}
			return renderReport(cmdCtx.Renderer, report)
		},
	}
}

func renderReport(r *output.Renderer, report *engine.Report) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(report)
	case output.ModeMarkdown:
		reportMarkdown(r, report)
	default:
		reportText(r, report)
	}
	return nil
}

func reportText(r *output.Renderer, report *engine.Report) {
	styles := r.Styles()

	r.Header(1, "Normalized "+report.Project)
	r.Printf("%s %s\n", styles.Muted.Render("build dir:"), styles.Path.Render(report.BuildDir))
	r.Println("")

	r.Table([]string{"Subproject", "Kind", "Namespace", "Output"}, subprojectRows(report))
	if len(report.Tasks) > 0 {
		r.Println("")
		r.Table([]string{"Task", "State", "Manifest", "Handoff"}, taskRows(report))
	}
	r.Println("")

	modified := report.Modified()
	summary := fmt.Sprintf("%s, %s, %s rewritten in %s",
		plural(len(report.Subprojects), "subproject"), plural(len(report.Tasks), "task"),
		plural(len(modified), "manifest"), report.Duration().Round(time.Millisecond))
	if report.Status == engine.StatusFailed {
		r.Error(report.Error)
		r.Muted(summary)
		return
	}
	r.Success(summary)
}

func reportMarkdown(r *output.Renderer, report *engine.Report) {
	r.Println(output.FormatHeader(1, "Normalized "+report.Project))
	r.Println("")
	r.Println(output.FormatKeyValue("Run", report.RunID))
	r.Println(output.FormatKeyValue("Status", report.Status))
	r.Println(output.FormatKeyValue("Build Dir", report.BuildDir))
	if report.Error != "" {
		r.Println(output.FormatKeyValue("Error", report.Error))
	}
	r.Println("")

	r.Println(output.FormatHeader(2, "Subprojects"))
	r.Table([]string{"Subproject", "Kind", "Namespace", "Output"}, subprojectRows(report))
	r.Println("")

	if len(report.Tasks) > 0 {
		r.Println(output.FormatHeader(2, "Tasks"))
		r.Table([]string{"Task", "State", "Manifest", "Handoff"}, taskRows(report))
		r.Println("")
	}

	if modified := report.Modified(); len(modified) > 0 {
		r.Println(output.FormatHeader(2, "Rewritten Manifests"))
		for _, path := range modified {
			r.Printf("- %s\n", relTo(report.ProjectDir, path))
		}
		r.Println("")
	}
}

func subprojectRows(report *engine.Report) [][]string {
	rows := make([][]string, 0, len(report.Subprojects))
	for _, s := range report.Subprojects {
		ns := s.Namespace
		if s.NamespaceInferred {
			ns += " (inferred)"
		}
		rows = append(rows, []string{s.ID, string(s.Kind), ns, relTo(report.BuildDir, s.OutputDir)})
	}
	return rows
}

func taskRows(report *engine.Report) [][]string {
	rows := make([][]string, 0, len(report.Tasks))
	for _, t := range report.Tasks {
		manifest := "-"
		if t.Manifest != nil {
			manifest = resultStatus(*t.Manifest)
		}
		handoff := t.Handoff
		if t.Error != "" {
			handoff = t.Error
		}
		rows = append(rows, []string{t.Path, t.State.String(), manifest, handoff})
	}
	return rows
}

// relTo shortens path relative to base when it lies below it.
func relTo(base, path string) string {
	if path == "" {
		return "-"
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
